// ABOUTME: Shared test helpers for decoder tests
// ABOUTME: Installs fake engines for codecs without a built-in engine
package decode

import (
	"testing"

	"github.com/Resonate-Protocol/audiodecoder/pkg/codec"
	"github.com/Resonate-Protocol/audiodecoder/pkg/codec/codectest"
)

// withFakeEngines registers counting fakes for every external engine and
// removes them when the test ends
func withFakeEngines(t *testing.T) *codectest.Handles {
	t.Helper()
	h := &codectest.Handles{}
	codec.ILBC.Register(codectest.ILBCFactory(h))
	codec.ISAC.Register(codectest.ISACFactory(h))
	codec.ISACFix.Register(codectest.ISACFixFactory(h))
	codec.G722.Register(codectest.G722Factory(h))
	codec.Opus.Register(codectest.OpusFactory(h))
	codec.CNG.Register(codectest.CNGFactory(h))
	t.Cleanup(func() {
		codec.ILBC.Unregister()
		codec.ISAC.Unregister()
		codec.ISACFix.Unregister()
		codec.G722.Unregister()
		codec.Opus.Unregister()
		codec.CNG.Unregister()
	})
	return h
}

func mustNew(t *testing.T, typ Type) Decoder {
	t.Helper()
	d, err := New(typ)
	if err != nil {
		t.Fatalf("failed to create %s decoder: %v", typ, err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func payload(n int, seed byte) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = seed + byte(i)
	}
	return p
}
