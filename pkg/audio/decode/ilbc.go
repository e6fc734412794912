// ABOUTME: iLBC decoder
// ABOUTME: Narrowband predictive codec with native packet loss concealment
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/audiodecoder/pkg/audio"
	"github.com/Resonate-Protocol/audiodecoder/pkg/codec"
)

const (
	// ilbcFrameSamples is one 30 ms frame at 8 kHz
	ilbcFrameSamples = 240
	// ilbcMinFrameBytes is the 20 ms mode frame size
	ilbcMinFrameBytes = 38
)

// ILBCDecoder decodes iLBC payloads
type ILBCDecoder struct {
	base
	engine codec.ILBCEngine
}

// NewILBC creates an iLBC decoder
func NewILBC() (*ILBCDecoder, error) {
	engine, err := codec.ILBC.New(codec.Config{Channels: 1, SampleRate: 8000})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResource, err)
	}
	return &ILBCDecoder{base: newBase(TypeILBC), engine: engine}, nil
}

// Init resets the decoder in 30 ms mode
func (d *ILBCDecoder) Init() error {
	if err := d.check(); err != nil {
		return err
	}
	return d.status(opInit, d.engine.DecoderInit())
}

// Decode converts one or more iLBC frames
func (d *ILBCDecoder) Decode(encoded []byte) (audio.Frame, error) {
	if err := d.check(); err != nil {
		return audio.Frame{}, err
	}
	buf := make([]int16, (len(encoded)/ilbcMinFrameBytes+1)*ilbcFrameSamples)
	n, raw := d.engine.Decode(encoded, buf)
	return d.frame(opDecode, buf, n, raw)
}

// DecodePlc conceals frames lost 30 ms frames
func (d *ILBCDecoder) DecodePlc(frames int) (audio.Frame, error) {
	if err := d.check(); err != nil {
		return audio.Frame{}, err
	}
	if err := checkFrames(frames); err != nil {
		return audio.Frame{}, err
	}
	buf := make([]int16, frames*ilbcFrameSamples)
	n := d.engine.NetEqPlc(buf, frames)
	return d.frame(opDecodePlc, buf, n, rawSpeech[d.family])
}

// Close frees the engine
func (d *ILBCDecoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.engine.Free()
	d.engine = nil
	return nil
}
