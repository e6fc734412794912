// ABOUTME: Fake G.722 engine
// ABOUTME: Two samples per byte; overwrites its input like a non-const engine
package codectest

import "github.com/Resonate-Protocol/audiodecoder/pkg/codec"

// G722 is a fake G.722 decoder
type G722 struct {
	adaptive
}

// G722Factory returns a factory creating fakes tracked by h
func G722Factory(h *Handles) codec.Factory[codec.ByteEngine] {
	return func(codec.Config) (codec.ByteEngine, error) {
		e := &G722{adaptive: adaptive{handles: h}}
		h.acquire(e)
		return e, nil
	}
}

func (e *G722) DecoderInit() int { return e.init() }

func (e *G722) Decode(encoded []byte, decoded []int16) (int, int16) {
	if len(encoded) == 0 || len(decoded) < 2*len(encoded) {
		return CodeMalformed, 1
	}
	speech := speechOrCNG(encoded, 1)
	e.synth(encoded, decoded[:2*len(encoded)])
	for i := range encoded {
		encoded[i] = 0
	}
	return 2 * len(encoded), speech
}

func (e *G722) Free() { e.free() }
