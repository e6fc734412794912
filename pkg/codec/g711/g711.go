// ABOUTME: G.711 codec engine
// ABOUTME: Decodes mu-law and A-law bytes to 16-bit PCM
package g711

import (
	"github.com/Resonate-Protocol/audiodecoder/pkg/codec"
	law "github.com/zaf/g711"
)

// speechCode is the raw type G.711 reports for every frame
const speechCode = 1

func init() {
	codec.PCMU.Register(NewUlaw)
	codec.PCMA.Register(NewAlaw)
}

// Engine decodes one companded byte per sample. It carries no state.
type Engine struct {
	decodeFrame func(uint8) int16
}

// NewUlaw creates a mu-law engine
func NewUlaw(codec.Config) (codec.ByteEngine, error) {
	return &Engine{decodeFrame: law.DecodeUlawFrame}, nil
}

// NewAlaw creates an A-law engine
func NewAlaw(codec.Config) (codec.ByteEngine, error) {
	return &Engine{decodeFrame: law.DecodeAlawFrame}, nil
}

// DecoderInit is a no-op; G.711 is stateless
func (e *Engine) DecoderInit() int {
	return 0
}

// Decode expands each encoded byte to one sample
func (e *Engine) Decode(encoded []byte, decoded []int16) (int, int16) {
	if len(decoded) < len(encoded) {
		return -1, speechCode
	}
	for i, b := range encoded {
		decoded[i] = e.decodeFrame(b)
	}
	return len(encoded), speechCode
}

// Free releases nothing
func (e *Engine) Free() {}
