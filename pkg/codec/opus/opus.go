//go:build cgo

// ABOUTME: Opus codec engine
// ABOUTME: Binds libopus through hraban/opus with PLC and in-band FEC
package opus

import (
	"errors"

	"github.com/Resonate-Protocol/audiodecoder/pkg/codec"
	libopus "gopkg.in/hraban/opus.v2"
)

// libopus reports no speech classification; every frame is speech
const speechCode = 0

// DefaultSampleRate is used when the config leaves the rate unset
const DefaultSampleRate = 48000

func init() {
	codec.Opus.Register(New)
}

// Engine is one libopus decoder state
type Engine struct {
	dec        *libopus.Decoder
	sampleRate int
	channels   int
}

// New creates an Opus engine
func New(cfg codec.Config) (codec.OpusEngine, error) {
	e := &Engine{
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
	}
	if e.sampleRate == 0 {
		e.sampleRate = DefaultSampleRate
	}
	if e.channels == 0 {
		e.channels = 1
	}

	dec, err := libopus.NewDecoder(e.sampleRate, e.channels)
	if err != nil {
		return nil, err
	}
	e.dec = dec
	return e, nil
}

// DecoderInit replaces the decoder state with a fresh one
func (e *Engine) DecoderInit() int {
	dec, err := libopus.NewDecoder(e.sampleRate, e.channels)
	if err != nil {
		return errorCode(err)
	}
	e.dec = dec
	return 0
}

// Decode returns the interleaved sample count
func (e *Engine) Decode(encoded []byte, decoded []int16) (int, int16) {
	n, err := e.dec.Decode(encoded, decoded)
	if err != nil {
		return errorCode(err), speechCode
	}
	return n * e.channels, speechCode
}

// DurationEst returns samples per channel without touching decoder state
func (e *Engine) DurationEst(encoded []byte) int {
	return PacketSamples(encoded, e.sampleRate)
}

// DecodePlc conceals frames lost frames. The buffer length sets the
// concealment duration.
func (e *Engine) DecodePlc(decoded []int16, frames int) int {
	if frames < 1 || len(decoded) == 0 {
		return codeBadArg
	}
	if err := e.dec.DecodePLC(decoded); err != nil {
		return errorCode(err)
	}
	return len(decoded)
}

// DecodeFec recovers the previous frame from the in-band FEC data of encoded.
// The buffer length must match the lost frame's duration.
func (e *Engine) DecodeFec(encoded []byte, decoded []int16) (int, int16) {
	if err := e.dec.DecodeFEC(encoded, decoded); err != nil {
		return errorCode(err), speechCode
	}
	return len(decoded), speechCode
}

// Free drops the decoder state
func (e *Engine) Free() {
	e.dec = nil
}

// errorCode extracts the libopus code from err
func errorCode(err error) int {
	var opusErr libopus.Error
	if errors.As(err, &opusErr) {
		return int(opusErr)
	}
	return codeBadArg
}
