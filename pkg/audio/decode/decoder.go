// ABOUTME: Decoder interface definition
// ABOUTME: Shared contract, optional capability interfaces and common state
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/audiodecoder/pkg/audio"
)

// Decoder decodes one codec's payloads to 16-bit PCM.
//
// A Decoder owns one engine handle from construction until Close. Decode
// mutates engine state, so payloads of a stream must be decoded in sequence
// order by a single goroutine.
type Decoder interface {
	// Type returns the decoder type
	Type() Type

	// Channels returns the number of interleaved output channels
	Channels() int

	// SampleRateHz returns the output sample rate
	SampleRateHz() int

	// Init resets engine state. Safe before the first Decode and afterwards.
	Init() error

	// Decode converts one complete payload. The frame length follows the
	// codec's geometry. The payload is never modified.
	Decode(encoded []byte) (audio.Frame, error)

	// Close releases the engine handle. Further calls return ErrClosed.
	Close() error
}

// DurationEstimator estimates the samples per channel in a payload
// without decoding it
type DurationEstimator interface {
	PacketDuration(encoded []byte) (int, error)
}

// PLCDecoder synthesizes audio for lost frames
type PLCDecoder interface {
	DecodePlc(frames int) (audio.Frame, error)
}

// RedundantDecoder recovers an earlier frame from a later payload's
// redundant data
type RedundantDecoder interface {
	DecodeRedundant(encoded []byte) (audio.Frame, error)
}

// BandwidthEstimator feeds packet arrival timing to the engine's channel
// rate estimator
type BandwidthEstimator interface {
	IncomingPacket(payload []byte, seq uint16, rtpTimestamp, arrivalTimestamp uint32) error
}

// ErrorCoder exposes the engine's sticky error code
type ErrorCoder interface {
	ErrorCode() int
}

// ComfortNoiseGenerator produces comfort noise from the last SID update
type ComfortNoiseGenerator interface {
	Generate(samples int, newPeriod bool) (audio.Frame, error)
}

// Probe reports which optional interfaces d implements
func Probe(d Decoder) Capability {
	var c Capability
	if _, ok := d.(DurationEstimator); ok {
		c |= CapDuration
	}
	if _, ok := d.(PLCDecoder); ok {
		c |= CapPLC
	}
	if _, ok := d.(RedundantDecoder); ok {
		c |= CapRedundant
	}
	if _, ok := d.(BandwidthEstimator); ok {
		c |= CapBandwidth
	}
	if _, ok := d.(ErrorCoder); ok {
		c |= CapErrorCode
	}
	if _, ok := d.(ComfortNoiseGenerator); ok {
		c |= CapComfortNoise
	}
	return c
}

// base holds the state every variant shares
type base struct {
	typ        Type
	family     family
	channels   int
	sampleRate int
	closed     bool
}

func newBase(t Type) base {
	info, _ := t.info()
	return base{
		typ:        t,
		family:     info.family,
		channels:   info.channels,
		sampleRate: info.sampleRate,
	}
}

// retype switches to t, keeping the engine
func (b *base) retype(t Type) {
	info, _ := t.info()
	b.typ = t
	b.channels = info.channels
	b.sampleRate = info.sampleRate
}

func (b *base) Type() Type        { return b.typ }
func (b *base) Channels() int     { return b.channels }
func (b *base) SampleRateHz() int { return b.sampleRate }

func (b *base) check() error {
	if b.closed {
		return ErrClosed
	}
	return nil
}

// engineErr wraps a negative engine code
func (b *base) engineErr(op string, code int) error {
	return &EngineError{Type: b.typ, Op: op, Code: code}
}

// status converts an engine status return
func (b *base) status(op string, code int) error {
	if code < 0 {
		return b.engineErr(op, code)
	}
	return nil
}

// frame builds the result of a decode style engine call. A negative n is
// passed through as an engine error and no samples are returned.
func (b *base) frame(op string, buf []int16, n int, raw int16) (audio.Frame, error) {
	if n < 0 {
		return audio.Frame{}, b.engineErr(op, n)
	}
	if n > len(buf) {
		return audio.Frame{}, fmt.Errorf("%w: %s %s wrote %d samples into %d", ErrDecode, b.typ, op, n, len(buf))
	}
	speech, err := classify(b.family, raw)
	if err != nil {
		return audio.Frame{}, fmt.Errorf("%s %s: %w", b.typ, op, err)
	}
	return audio.Frame{
		Samples:    buf[:n],
		Channels:   b.channels,
		SampleRate: b.sampleRate,
		Speech:     speech,
	}, nil
}

func checkFrames(frames int) error {
	if frames < 1 {
		return fmt.Errorf("%w: frame count %d", ErrDecode, frames)
	}
	return nil
}
