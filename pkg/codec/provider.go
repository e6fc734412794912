// ABOUTME: Engine providers
// ABOUTME: Typed registration points that hand out codec engine handles
package codec

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotRegistered is returned when no engine is linked for a codec
var ErrNotRegistered = errors.New("codec: engine not registered")

// Factory allocates a new engine handle
type Factory[E any] func(cfg Config) (E, error)

// Provider hands out engine handles for one codec.
// A provider without a registered factory reports the codec as unavailable.
type Provider[E any] struct {
	name    string
	mu      sync.RWMutex
	factory Factory[E]
}

func newProvider[E any](name string) *Provider[E] {
	return &Provider[E]{name: name}
}

// Engine providers, one per codec family
var (
	PCMU    = newProvider[ByteEngine]("pcmu")
	PCMA    = newProvider[ByteEngine]("pcma")
	PCM16B  = newProvider[ByteEngine]("pcm16b")
	G722    = newProvider[ByteEngine]("g722")
	ILBC    = newProvider[ILBCEngine]("ilbc")
	ISAC    = newProvider[ISACEngine]("isac")
	ISACFix = newProvider[ISACFixEngine]("isacfix")
	Opus    = newProvider[OpusEngine]("opus")
	CNG     = newProvider[CNGEngine]("cng")
)

// Name returns the codec name
func (p *Provider[E]) Name() string {
	return p.name
}

// Register installs f, replacing any previous factory
func (p *Provider[E]) Register(f Factory[E]) {
	if f == nil {
		panic("codec: Register " + p.name + " factory is nil")
	}
	p.mu.Lock()
	p.factory = f
	p.mu.Unlock()
}

// Unregister removes the installed factory
func (p *Provider[E]) Unregister() {
	p.mu.Lock()
	p.factory = nil
	p.mu.Unlock()
}

// Available reports whether a factory is installed
func (p *Provider[E]) Available() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.factory != nil
}

// New allocates an engine handle. The caller owns the handle and must Free it.
func (p *Provider[E]) New(cfg Config) (E, error) {
	p.mu.RLock()
	f := p.factory
	p.mu.RUnlock()

	var zero E
	if f == nil {
		return zero, fmt.Errorf("%w: %s", ErrNotRegistered, p.name)
	}

	engine, err := f(cfg)
	if err != nil {
		return zero, fmt.Errorf("failed to create %s engine: %w", p.name, err)
	}
	return engine, nil
}
