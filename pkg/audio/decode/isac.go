// ABOUTME: iSAC floating point decoders
// ABOUTME: Wideband and super-wideband iSAC with PLC, redundancy and bandwidth feedback
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/audiodecoder/pkg/audio"
	"github.com/Resonate-Protocol/audiodecoder/pkg/codec"
)

// isacMaxSamples is 60 ms at 32 kHz
const isacMaxSamples = 1920

// ISACDecoder decodes floating point iSAC payloads
type ISACDecoder struct {
	base
	engine codec.ISACEngine
	words  []uint16
}

// NewISAC creates a wideband iSAC decoder fixed at 16 kHz output
func NewISAC() (*ISACDecoder, error) {
	engine, err := codec.ISAC.New(codec.Config{Channels: 1, SampleRate: 16000})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResource, err)
	}
	d := &ISACDecoder{base: newBase(TypeISAC), engine: engine}
	if err := d.setDecSampRate(16000); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// NewISACSWB creates a super-wideband iSAC decoder fixed at 32 kHz output.
// It builds the wideband decoder first and then raises the rate.
func NewISACSWB() (*ISACDecoder, error) {
	d, err := NewISAC()
	if err != nil {
		return nil, err
	}
	d.retype(TypeISACSWB)
	if err := d.setDecSampRate(32000); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

func (d *ISACDecoder) setDecSampRate(hz int) error {
	if code := d.engine.SetDecSampRate(hz); code < 0 {
		return fmt.Errorf("%w: %w", ErrConfiguration, d.engineErr(opSetSampleRate, code))
	}
	return nil
}

// frameSamples is one 30 ms frame at the output rate
func (d *ISACDecoder) frameSamples() int {
	return d.sampleRate * 30 / 1000
}

// Init resets the decoder state
func (d *ISACDecoder) Init() error {
	if err := d.check(); err != nil {
		return err
	}
	return d.status(opInit, d.engine.DecoderInit())
}

// Decode converts one iSAC payload
func (d *ISACDecoder) Decode(encoded []byte) (audio.Frame, error) {
	if err := d.check(); err != nil {
		return audio.Frame{}, err
	}
	d.words = isacWords(d.words, encoded)
	buf := make([]int16, isacMaxSamples)
	n, raw := d.engine.Decode(d.words, len(encoded), buf)
	return d.frame(opDecode, buf, n, raw)
}

// DecodeRedundant decodes the redundant coding unit of a later payload
func (d *ISACDecoder) DecodeRedundant(encoded []byte) (audio.Frame, error) {
	if err := d.check(); err != nil {
		return audio.Frame{}, err
	}
	d.words = isacWords(d.words, encoded)
	buf := make([]int16, isacMaxSamples)
	n, raw := d.engine.DecodeRcu(d.words, len(encoded), buf)
	return d.frame(opDecodeRedundant, buf, n, raw)
}

// DecodePlc conceals frames lost 30 ms frames
func (d *ISACDecoder) DecodePlc(frames int) (audio.Frame, error) {
	if err := d.check(); err != nil {
		return audio.Frame{}, err
	}
	if err := checkFrames(frames); err != nil {
		return audio.Frame{}, err
	}
	buf := make([]int16, frames*d.frameSamples())
	n := d.engine.DecodePlc(buf, frames)
	return d.frame(opDecodePlc, buf, n, rawSpeech[d.family])
}

// IncomingPacket updates the bandwidth estimator with an arrived packet
func (d *ISACDecoder) IncomingPacket(payload []byte, seq uint16, rtpTimestamp, arrivalTimestamp uint32) error {
	if err := d.check(); err != nil {
		return err
	}
	d.words = isacWords(d.words, payload)
	code := d.engine.UpdateBwEstimate(d.words, len(payload), seq, rtpTimestamp, arrivalTimestamp)
	return d.status(opIncomingPacket, code)
}

// ErrorCode returns the engine's last error
func (d *ISACDecoder) ErrorCode() int {
	if d.closed {
		return 0
	}
	return d.engine.GetErrorCode()
}

// Close frees the engine
func (d *ISACDecoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.engine.Free()
	d.engine = nil
	return nil
}

// isacWords views encoded as the 16-bit little-endian words iSAC reads.
// A trailing odd byte fills the low half of the last word.
func isacWords(dst []uint16, encoded []byte) []uint16 {
	n := (len(encoded) + 1) / 2
	if cap(dst) < n {
		dst = make([]uint16, n)
	}
	dst = dst[:n]
	for i := range dst {
		lo := uint16(encoded[2*i])
		var hi uint16
		if 2*i+1 < len(encoded) {
			hi = uint16(encoded[2*i+1])
		}
		dst[i] = lo | hi<<8
	}
	return dst
}
