// ABOUTME: Comfort noise decoder
// ABOUTME: Consumes SID payloads and generates background noise on request
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/audiodecoder/pkg/audio"
	"github.com/Resonate-Protocol/audiodecoder/pkg/codec"
)

// CNGDecoder tracks comfort noise parameters for one of the four CNG rates
type CNGDecoder struct {
	base
	engine codec.CNGEngine
}

// NewCNG creates a comfort noise decoder for t
func NewCNG(t Type) (*CNGDecoder, error) {
	if !t.IsComfortNoise() {
		return nil, fmt.Errorf("%w: %s is not a comfort noise type", ErrConfiguration, t)
	}
	engine, err := codec.CNG.New(codec.Config{Channels: 1, SampleRate: t.SampleRateHz()})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResource, err)
	}
	return &CNGDecoder{base: newBase(t), engine: engine}, nil
}

// Init resets the noise parameters
func (d *CNGDecoder) Init() error {
	if err := d.check(); err != nil {
		return err
	}
	return d.status(opInit, d.engine.InitDec())
}

// Decode applies a SID payload. No samples are produced; call Generate
// for noise.
func (d *CNGDecoder) Decode(sid []byte) (audio.Frame, error) {
	if err := d.check(); err != nil {
		return audio.Frame{}, err
	}
	if code := d.engine.UpdateSid(sid); code < 0 {
		return audio.Frame{}, d.engineErr(opDecode, code)
	}
	return d.frame(opDecode, nil, 0, rawComfortNoise)
}

// Generate produces samples of comfort noise. newPeriod marks the first
// frame of a silence period.
func (d *CNGDecoder) Generate(samples int, newPeriod bool) (audio.Frame, error) {
	if err := d.check(); err != nil {
		return audio.Frame{}, err
	}
	if samples < 1 {
		return audio.Frame{}, fmt.Errorf("%w: sample count %d", ErrDecode, samples)
	}
	buf := make([]int16, samples)
	if code := d.engine.Generate(buf, newPeriod); code < 0 {
		return audio.Frame{}, d.engineErr(opGenerate, code)
	}
	return d.frame(opGenerate, buf, samples, rawComfortNoise)
}

// ErrorCode returns the engine's last error
func (d *CNGDecoder) ErrorCode() int {
	if d.closed {
		return 0
	}
	return d.engine.ErrorCode()
}

// Close frees the engine
func (d *CNGDecoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.engine.Free()
	d.engine = nil
	return nil
}
