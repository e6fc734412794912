// ABOUTME: Linear PCM codec engine
// ABOUTME: Decodes big-endian 16-bit L16 payloads
package pcm16b

import (
	"encoding/binary"

	"github.com/Resonate-Protocol/audiodecoder/pkg/codec"
)

const speechCode = 1

func init() {
	codec.PCM16B.Register(New)
}

// Engine converts network byte order samples to host samples
type Engine struct{}

// New creates an L16 engine
func New(codec.Config) (codec.ByteEngine, error) {
	return &Engine{}, nil
}

// DecoderInit is a no-op
func (e *Engine) DecoderInit() int {
	return 0
}

// Decode converts two bytes per sample. A trailing odd byte is ignored.
func (e *Engine) Decode(encoded []byte, decoded []int16) (int, int16) {
	n := len(encoded) / 2
	if len(decoded) < n {
		return -1, speechCode
	}
	for i := 0; i < n; i++ {
		decoded[i] = int16(binary.BigEndian.Uint16(encoded[i*2:]))
	}
	return n, speechCode
}

// Free releases nothing
func (e *Engine) Free() {}
