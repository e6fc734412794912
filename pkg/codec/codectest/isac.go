// ABOUTME: Fake iSAC engines
// ABOUTME: Floating point and fixed point iSAC stand-ins with bandwidth tracking
package codectest

import "github.com/Resonate-Protocol/audiodecoder/pkg/codec"

// ISAC is a fake floating point iSAC decoder
type ISAC struct {
	adaptive
	rejectRate int

	DecRate       int
	RcuCalls      int
	PlcCalls      int
	BwUpdates     int
	LastSeq       uint16
	LastSendTS    uint32
	LastArrivalTS uint32
	LastPayload   []byte
}

// ISACOption configures a fake iSAC decoder
type ISACOption func(*ISAC)

// RejectRate makes SetDecSampRate fail for hz
func RejectRate(hz int) ISACOption {
	return func(e *ISAC) { e.rejectRate = hz }
}

// ISACFactory returns a factory creating fakes tracked by h
func ISACFactory(h *Handles, opts ...ISACOption) codec.Factory[codec.ISACEngine] {
	return func(codec.Config) (codec.ISACEngine, error) {
		e := &ISAC{adaptive: adaptive{handles: h}, DecRate: 16000}
		for _, opt := range opts {
			opt(e)
		}
		h.acquire(e)
		return e, nil
	}
}

// wordsToBytes rebuilds the little-endian byte view
func wordsToBytes(words []uint16, lenBytes int) []byte {
	if lenBytes <= 0 || lenBytes > 2*len(words) {
		return nil
	}
	b := make([]byte, 2*len(words))
	for i, w := range words {
		b[2*i] = byte(w)
		b[2*i+1] = byte(w >> 8)
	}
	return b[:lenBytes]
}

func (e *ISAC) frameSamples() int {
	return e.DecRate * 30 / 1000
}

func (e *ISAC) DecoderInit() int { return e.init() }

func (e *ISAC) Decode(encoded []uint16, lenBytes int, decoded []int16) (int, int16) {
	payload := wordsToBytes(encoded, lenBytes)
	n := e.frameSamples()
	if payload == nil || len(decoded) < n {
		e.errCode = CodeMalformed
		return CodeMalformed, 0
	}
	e.synth(payload, decoded[:n])
	return n, speechOrCNG(payload, 0)
}

func (e *ISAC) DecodeRcu(encoded []uint16, lenBytes int, decoded []int16) (int, int16) {
	e.RcuCalls++
	payload := wordsToBytes(encoded, lenBytes)
	n := e.frameSamples()
	if payload == nil || len(decoded) < n {
		e.errCode = CodeMalformed
		return CodeMalformed, 0
	}
	e.synth(payload, decoded[:n])
	for i := range decoded[:n] {
		decoded[i] /= 2
	}
	return n, speechOrCNG(payload, 0)
}

func (e *ISAC) DecodePlc(decoded []int16, frames int) int {
	e.PlcCalls++
	need := frames * e.frameSamples()
	if frames < 1 || len(decoded) < need {
		return CodeMalformed
	}
	e.conceal(decoded[:need])
	return need
}

func (e *ISAC) UpdateBwEstimate(encoded []uint16, lenBytes int, seq uint16, sendTS, arrivalTS uint32) int {
	payload := wordsToBytes(encoded, lenBytes)
	if payload == nil {
		e.errCode = CodeEmptyPacket
		return -1
	}
	e.BwUpdates++
	e.LastSeq = seq
	e.LastSendTS = sendTS
	e.LastArrivalTS = arrivalTS
	e.LastPayload = payload
	return 0
}

func (e *ISAC) SetDecSampRate(hz int) int {
	if hz == e.rejectRate || (hz != 16000 && hz != 32000) {
		e.errCode = CodeBadRate
		return -1
	}
	e.DecRate = hz
	return 0
}

func (e *ISAC) GetErrorCode() int { return e.errCode }

func (e *ISAC) Free() { e.free() }

// ISACFix is a fake fixed point iSAC decoder at 16 kHz
type ISACFix struct {
	adaptive

	BwUpdates     int
	LastSeq       uint16
	LastArrivalTS uint32
}

// ISACFixFactory returns a factory creating fakes tracked by h
func ISACFixFactory(h *Handles) codec.Factory[codec.ISACFixEngine] {
	return func(codec.Config) (codec.ISACFixEngine, error) {
		e := &ISACFix{adaptive: adaptive{handles: h}}
		h.acquire(e)
		return e, nil
	}
}

func (e *ISACFix) DecoderInit() int { return e.init() }

func (e *ISACFix) Decode(encoded []uint16, lenBytes int, decoded []int16) (int, int16) {
	payload := wordsToBytes(encoded, lenBytes)
	if payload == nil || len(decoded) < 480 {
		e.errCode = CodeMalformed
		return CodeMalformed, 0
	}
	e.synth(payload, decoded[:480])
	return 480, speechOrCNG(payload, 0)
}

func (e *ISACFix) UpdateBwEstimate(encoded []uint16, lenBytes int, seq uint16, sendTS, arrivalTS uint32) int {
	if wordsToBytes(encoded, lenBytes) == nil {
		e.errCode = CodeEmptyPacket
		return -1
	}
	e.BwUpdates++
	e.LastSeq = seq
	e.LastArrivalTS = arrivalTS
	return 0
}

func (e *ISACFix) GetErrorCode() int { return e.errCode }

func (e *ISACFix) Free() { e.free() }
