// ABOUTME: Fake iLBC engine
// ABOUTME: 30 ms mode, 50 bytes to 240 samples per frame
package codectest

import "github.com/Resonate-Protocol/audiodecoder/pkg/codec"

const (
	ILBCFrameBytes   = 50
	ILBCFrameSamples = 240
)

// ILBC is a fake iLBC decoder
type ILBC struct {
	adaptive
	PlcCalls int
}

// ILBCFactory returns a factory creating fakes tracked by h
func ILBCFactory(h *Handles) codec.Factory[codec.ILBCEngine] {
	return func(codec.Config) (codec.ILBCEngine, error) {
		e := &ILBC{adaptive: adaptive{handles: h}}
		h.acquire(e)
		return e, nil
	}
}

func (e *ILBC) DecoderInit() int { return e.init() }

func (e *ILBC) Decode(encoded []byte, decoded []int16) (int, int16) {
	if len(encoded) == 0 || len(encoded)%ILBCFrameBytes != 0 {
		return CodeMalformed, 1
	}
	frames := len(encoded) / ILBCFrameBytes
	need := frames * ILBCFrameSamples
	if len(decoded) < need {
		return CodeMalformed, 1
	}
	for f := 0; f < frames; f++ {
		e.synth(encoded[f*ILBCFrameBytes:(f+1)*ILBCFrameBytes], decoded[f*ILBCFrameSamples:(f+1)*ILBCFrameSamples])
	}
	return need, speechOrCNG(encoded, 1)
}

func (e *ILBC) NetEqPlc(decoded []int16, frames int) int {
	e.PlcCalls++
	need := frames * ILBCFrameSamples
	if frames < 1 || len(decoded) < need {
		return CodeMalformed
	}
	e.conceal(decoded[:need])
	return need
}

func (e *ILBC) Free() { e.free() }
