// ABOUTME: Opus decoder
// ABOUTME: Mono and stereo Opus at 48 kHz with PLC and in-band FEC recovery
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/audiodecoder/pkg/audio"
	"github.com/Resonate-Protocol/audiodecoder/pkg/codec"
)

const (
	// opusMaxSamples is 120 ms at 48 kHz per channel
	opusMaxSamples = 5760
	// opusFrameSamples is the 20 ms concealment unit
	opusFrameSamples = 960
)

// OpusDecoder decodes Opus payloads. The engine is linked by importing
// pkg/codec/opus or by registering a factory with codec.Opus.
type OpusDecoder struct {
	base
	engine  codec.OpusEngine
	scratch []byte
}

// NewOpus creates a mono Opus decoder
func NewOpus() (*OpusDecoder, error) {
	return newOpus(TypeOpus)
}

// NewOpusStereo creates a stereo Opus decoder with interleaved output
func NewOpusStereo() (*OpusDecoder, error) {
	return newOpus(TypeOpus2ch)
}

func newOpus(t Type) (*OpusDecoder, error) {
	b := newBase(t)
	engine, err := codec.Opus.New(codec.Config{Channels: b.channels, SampleRate: b.sampleRate})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResource, err)
	}
	return &OpusDecoder{base: b, engine: engine}, nil
}

// Init resets the decoder state
func (d *OpusDecoder) Init() error {
	if err := d.check(); err != nil {
		return err
	}
	return d.status(opInit, d.engine.DecoderInit())
}

// Decode converts one Opus packet
func (d *OpusDecoder) Decode(encoded []byte) (audio.Frame, error) {
	if err := d.check(); err != nil {
		return audio.Frame{}, err
	}
	d.scratch = append(d.scratch[:0], encoded...)
	buf := make([]int16, opusMaxSamples*d.channels)
	n, raw := d.engine.Decode(d.scratch, buf)
	return d.frame(opDecode, buf, n, raw)
}

// PacketDuration reads the samples per channel from the packet's TOC
func (d *OpusDecoder) PacketDuration(encoded []byte) (int, error) {
	if err := d.check(); err != nil {
		return 0, err
	}
	n := d.engine.DurationEst(encoded)
	if n < 0 {
		return 0, d.engineErr(opDuration, n)
	}
	return n, nil
}

// DecodePlc conceals frames lost 20 ms frames
func (d *OpusDecoder) DecodePlc(frames int) (audio.Frame, error) {
	if err := d.check(); err != nil {
		return audio.Frame{}, err
	}
	if err := checkFrames(frames); err != nil {
		return audio.Frame{}, err
	}
	buf := make([]int16, frames*opusFrameSamples*d.channels)
	n := d.engine.DecodePlc(buf, frames)
	return d.frame(opDecodePlc, buf, n, rawSpeech[d.family])
}

// DecodeRedundant recovers the frame preceding encoded from its in-band
// FEC data. The recovered frame has the duration of encoded.
func (d *OpusDecoder) DecodeRedundant(encoded []byte) (audio.Frame, error) {
	if err := d.check(); err != nil {
		return audio.Frame{}, err
	}
	samples := d.engine.DurationEst(encoded)
	if samples < 0 {
		return audio.Frame{}, d.engineErr(opDecodeRedundant, samples)
	}
	d.scratch = append(d.scratch[:0], encoded...)
	buf := make([]int16, samples*d.channels)
	n, raw := d.engine.DecodeFec(d.scratch, buf)
	return d.frame(opDecodeRedundant, buf, n, raw)
}

// Close frees the engine
func (d *OpusDecoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.engine.Free()
	d.engine = nil
	return nil
}
