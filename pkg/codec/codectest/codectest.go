// ABOUTME: Deterministic fake codec engines for tests
// ABOUTME: Stateful stand-ins for engines that ship outside this module
package codectest

import (
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/audiodecoder/pkg/codec"
)

// CNGMarker as the first payload byte makes a fake report comfort noise
const CNGMarker = 0xCE

// Error codes returned by the fakes
const (
	CodeMalformed   = -10
	CodeEmptyPacket = -11
	CodeBadRate     = -12
	CodeEmptySID    = -13
)

// Handles counts engine handles created and freed by fakes
type Handles struct {
	created atomic.Int64
	freed   atomic.Int64

	mu   sync.Mutex
	last any
}

// Live returns the number of handles not yet freed
func (h *Handles) Live() int {
	return int(h.created.Load() - h.freed.Load())
}

// Created returns the number of handles ever created
func (h *Handles) Created() int {
	return int(h.created.Load())
}

// Last returns the most recently created fake
func (h *Handles) Last() any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

func (h *Handles) acquire(e any) {
	h.created.Add(1)
	h.mu.Lock()
	h.last = e
	h.mu.Unlock()
}

// Failing returns a factory that always fails with err
func Failing[E any](err error) codec.Factory[E] {
	return func(codec.Config) (E, error) {
		var zero E
		return zero, err
	}
}

// adaptive is the shared predictor state of the fakes. Output depends on
// every payload decoded since the last init.
type adaptive struct {
	handles *Handles
	state   int16
	freed   bool
	errCode int

	Inits int
	Frees int
}

func (a *adaptive) init() int {
	a.state = 0
	a.Inits++
	return 0
}

func (a *adaptive) free() {
	if a.freed {
		panic("codectest: engine freed twice")
	}
	a.freed = true
	a.Frees++
	a.handles.freed.Add(1)
}

// synth fills out from payload and the running state, then advances it
func (a *adaptive) synth(payload []byte, out []int16) {
	for i := range out {
		out[i] = a.state + int16(payload[i%len(payload)])
	}
	var sum int16
	for _, b := range payload {
		sum += int16(b)
	}
	a.state = a.state*3 + sum*5 + 1
}

// conceal fills out with a decaying copy of the state
func (a *adaptive) conceal(out []int16) {
	for i := range out {
		out[i] = a.state / 2
	}
	a.state /= 2
}

func speechOrCNG(payload []byte, speech int16) int16 {
	if len(payload) > 0 && payload[0] == CNGMarker {
		return 2
	}
	return speech
}
