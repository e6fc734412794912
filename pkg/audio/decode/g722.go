// ABOUTME: G.722 decoder
// ABOUTME: Wideband ADPCM at two samples per encoded byte
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/audiodecoder/pkg/audio"
	"github.com/Resonate-Protocol/audiodecoder/pkg/codec"
)

// G722Decoder decodes G.722 payloads
type G722Decoder struct {
	base
	engine  codec.ByteEngine
	scratch []byte
}

// NewG722 creates a G.722 decoder
func NewG722() (*G722Decoder, error) {
	engine, err := codec.G722.New(codec.Config{Channels: 1, SampleRate: 16000})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResource, err)
	}
	return &G722Decoder{base: newBase(TypeG722), engine: engine}, nil
}

// Init resets the ADPCM state
func (d *G722Decoder) Init() error {
	if err := d.check(); err != nil {
		return err
	}
	return d.status(opInit, d.engine.DecoderInit())
}

// Decode converts the payload. The engine works on a private copy.
func (d *G722Decoder) Decode(encoded []byte) (audio.Frame, error) {
	if err := d.check(); err != nil {
		return audio.Frame{}, err
	}
	d.scratch = append(d.scratch[:0], encoded...)
	buf := make([]int16, 2*len(encoded))
	n, raw := d.engine.Decode(d.scratch, buf)
	return d.frame(opDecode, buf, n, raw)
}

// PacketDuration returns 2 * len / channels; each byte carries half a sample
// pair
func (d *G722Decoder) PacketDuration(encoded []byte) (int, error) {
	if err := d.check(); err != nil {
		return 0, err
	}
	return 2 * len(encoded) / d.channels, nil
}

// Close frees the engine
func (d *G722Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.engine.Free()
	d.engine = nil
	return nil
}
