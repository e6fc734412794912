// ABOUTME: iSAC fixed point decoder
// ABOUTME: Wideband iSAC with bandwidth feedback and no native PLC
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/audiodecoder/pkg/audio"
	"github.com/Resonate-Protocol/audiodecoder/pkg/codec"
)

// isacFixMaxSamples is 60 ms at 16 kHz
const isacFixMaxSamples = 960

// ISACFixDecoder decodes iSAC with the fixed point engine
type ISACFixDecoder struct {
	base
	engine codec.ISACFixEngine
	words  []uint16
}

// NewISACFix creates a fixed point iSAC decoder
func NewISACFix() (*ISACFixDecoder, error) {
	engine, err := codec.ISACFix.New(codec.Config{Channels: 1, SampleRate: 16000})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResource, err)
	}
	return &ISACFixDecoder{base: newBase(TypeISACFix), engine: engine}, nil
}

func (d *ISACFixDecoder) Init() error {
	if err := d.check(); err != nil {
		return err
	}
	return d.status(opInit, d.engine.DecoderInit())
}

func (d *ISACFixDecoder) Decode(encoded []byte) (audio.Frame, error) {
	if err := d.check(); err != nil {
		return audio.Frame{}, err
	}
	d.words = isacWords(d.words, encoded)
	buf := make([]int16, isacFixMaxSamples)
	n, raw := d.engine.Decode(d.words, len(encoded), buf)
	return d.frame(opDecode, buf, n, raw)
}

func (d *ISACFixDecoder) IncomingPacket(payload []byte, seq uint16, rtpTimestamp, arrivalTimestamp uint32) error {
	if err := d.check(); err != nil {
		return err
	}
	d.words = isacWords(d.words, payload)
	code := d.engine.UpdateBwEstimate(d.words, len(payload), seq, rtpTimestamp, arrivalTimestamp)
	return d.status(opIncomingPacket, code)
}

func (d *ISACFixDecoder) ErrorCode() int {
	if d.closed {
		return 0
	}
	return d.engine.GetErrorCode()
}

func (d *ISACFixDecoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.engine.Free()
	d.engine = nil
	return nil
}
