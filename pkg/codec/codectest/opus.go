// ABOUTME: Fake Opus engine
// ABOUTME: Fixed 20 ms frames; overwrites its input like libopus bindings may
package codectest

import "github.com/Resonate-Protocol/audiodecoder/pkg/codec"

// OpusFrameSamples is the per channel frame size of the fake
const OpusFrameSamples = 960

// Opus is a fake Opus decoder
type Opus struct {
	adaptive
	Channels int

	PlcCalls int
	FecCalls int
}

// OpusFactory returns a factory creating fakes tracked by h
func OpusFactory(h *Handles) codec.Factory[codec.OpusEngine] {
	return func(cfg codec.Config) (codec.OpusEngine, error) {
		e := &Opus{adaptive: adaptive{handles: h}, Channels: cfg.Channels}
		if e.Channels == 0 {
			e.Channels = 1
		}
		h.acquire(e)
		return e, nil
	}
}

func (e *Opus) DecoderInit() int { return e.init() }

func (e *Opus) Decode(encoded []byte, decoded []int16) (int, int16) {
	n := OpusFrameSamples * e.Channels
	if len(encoded) == 0 || len(decoded) < n {
		return CodeMalformed, 0
	}
	speech := speechOrCNG(encoded, 0)
	e.synth(encoded, decoded[:n])
	for i := range encoded {
		encoded[i] = 0xFF
	}
	return n, speech
}

func (e *Opus) DurationEst(encoded []byte) int {
	if len(encoded) == 0 {
		return CodeMalformed
	}
	return OpusFrameSamples
}

func (e *Opus) DecodePlc(decoded []int16, frames int) int {
	e.PlcCalls++
	need := frames * OpusFrameSamples * e.Channels
	if frames < 1 || len(decoded) < need {
		return CodeMalformed
	}
	e.conceal(decoded[:need])
	return need
}

func (e *Opus) DecodeFec(encoded []byte, decoded []int16) (int, int16) {
	e.FecCalls++
	if len(encoded) == 0 || len(decoded) == 0 {
		return CodeMalformed, 0
	}
	e.synth(encoded, decoded)
	return len(decoded), 0
}

func (e *Opus) Free() { e.free() }
