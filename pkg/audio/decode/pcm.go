// ABOUTME: PCM family decoders
// ABOUTME: G.711 mu-law/A-law and 16-bit linear PCM, mono and multi-channel
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/audiodecoder/pkg/audio"
	"github.com/Resonate-Protocol/audiodecoder/pkg/codec"
	_ "github.com/Resonate-Protocol/audiodecoder/pkg/codec/g711"
	_ "github.com/Resonate-Protocol/audiodecoder/pkg/codec/pcm16b"
)

// PCMDecoder decodes fixed bitrate PCM payloads
type PCMDecoder struct {
	base
	engine         codec.ByteEngine
	bytesPerSample int
}

func newPCM(t Type, provider *codec.Provider[codec.ByteEngine], bytesPerSample int) (*PCMDecoder, error) {
	engine, err := provider.New(codec.Config{Channels: 1, SampleRate: t.SampleRateHz()})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResource, err)
	}
	return &PCMDecoder{
		base:           newBase(t),
		engine:         engine,
		bytesPerSample: bytesPerSample,
	}, nil
}

// NewPCMU creates a mu-law decoder
func NewPCMU() (*PCMDecoder, error) {
	return newPCM(TypePCMU, codec.PCMU, 1)
}

// NewPCMA creates an A-law decoder
func NewPCMA() (*PCMDecoder, error) {
	return newPCM(TypePCMA, codec.PCMA, 1)
}

// newG711MultiCh builds the mono law decoder, then widens it to t
func newG711MultiCh(t Type) (*PCMDecoder, error) {
	var (
		d   *PCMDecoder
		err error
	)
	switch t {
	case TypePCMU2ch:
		d, err = NewPCMU()
	case TypePCMA2ch:
		d, err = NewPCMA()
	default:
		return nil, fmt.Errorf("%w: %s is not a multi-channel G.711 type", ErrConfiguration, t)
	}
	if err != nil {
		return nil, err
	}
	d.retype(t)
	return d, nil
}

// NewPCM16B creates a mono linear PCM decoder for one of the four
// PCM16B sample rates
func NewPCM16B(t Type) (*PCMDecoder, error) {
	switch t {
	case TypePCM16B, TypePCM16BWB, TypePCM16BSWB32, TypePCM16BSWB48:
	default:
		return nil, fmt.Errorf("%w: %s is not a mono PCM16B type", ErrConfiguration, t)
	}
	return newPCM(t, codec.PCM16B, 2)
}

// NewPCM16BMultiCh creates a multi-channel linear PCM decoder. It builds the
// mono decoder first and then sets the channel count and type of t.
func NewPCM16BMultiCh(t Type) (*PCMDecoder, error) {
	d, err := NewPCM16B(TypePCM16B)
	if err != nil {
		return nil, err
	}

	switch t {
	case TypePCM16B2ch, TypePCM16BWB2ch, TypePCM16BSWB32_2ch, TypePCM16BSWB48_2ch:
		d.retype(t)
		d.channels = 2
	case TypePCM16B5ch:
		d.retype(t)
		d.channels = 5
	default:
		_ = d.Close()
		return nil, fmt.Errorf("%w: %s is not a multi-channel PCM16B type", ErrConfiguration, t)
	}
	return d, nil
}

// Init resets the engine
func (d *PCMDecoder) Init() error {
	if err := d.check(); err != nil {
		return err
	}
	return d.status(opInit, d.engine.DecoderInit())
}

// Decode converts the payload; one output sample per bytesPerSample bytes
func (d *PCMDecoder) Decode(encoded []byte) (audio.Frame, error) {
	if err := d.check(); err != nil {
		return audio.Frame{}, err
	}
	buf := make([]int16, len(encoded)/d.bytesPerSample)
	n, raw := d.engine.Decode(encoded, buf)
	return d.frame(opDecode, buf, n, raw)
}

// PacketDuration returns len / (bytesPerSample * channels)
func (d *PCMDecoder) PacketDuration(encoded []byte) (int, error) {
	if err := d.check(); err != nil {
		return 0, err
	}
	return len(encoded) / (d.bytesPerSample * d.channels), nil
}

// Close frees the engine
func (d *PCMDecoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.engine.Free()
	d.engine = nil
	return nil
}
