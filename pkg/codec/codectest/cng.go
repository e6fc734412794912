// ABOUTME: Fake comfort noise engine
// ABOUTME: Stores the last SID energy and generates a flat noise floor
package codectest

import "github.com/Resonate-Protocol/audiodecoder/pkg/codec"

// CNG is a fake comfort noise decoder
type CNG struct {
	adaptive
	energy int16

	SidUpdates int
	NewPeriods int
}

// CNGFactory returns a factory creating fakes tracked by h
func CNGFactory(h *Handles) codec.Factory[codec.CNGEngine] {
	return func(codec.Config) (codec.CNGEngine, error) {
		e := &CNG{adaptive: adaptive{handles: h}}
		h.acquire(e)
		return e, nil
	}
}

func (e *CNG) InitDec() int {
	e.energy = 0
	return e.init()
}

func (e *CNG) UpdateSid(sid []byte) int {
	if len(sid) == 0 {
		e.errCode = CodeEmptySID
		return -1
	}
	e.SidUpdates++
	e.energy = int16(sid[0])
	return 0
}

func (e *CNG) Generate(out []int16, newPeriod bool) int {
	if newPeriod {
		e.NewPeriods++
	}
	for i := range out {
		if i%2 == 0 {
			out[i] = e.energy
		} else {
			out[i] = -e.energy
		}
	}
	return len(out)
}

func (e *CNG) ErrorCode() int { return e.errCode }

func (e *CNG) Free() { e.free() }
