// ABOUTME: Tests for the decoder factory
// ABOUTME: Covers type validation, engine availability and handle accounting
package decode

import (
	"errors"
	"testing"

	"github.com/Resonate-Protocol/audiodecoder/pkg/codec"
	"github.com/Resonate-Protocol/audiodecoder/pkg/codec/codectest"
)

func TestNewEveryType(t *testing.T) {
	withFakeEngines(t)

	for _, typ := range Types() {
		if !Supported(typ) {
			continue
		}
		d, err := New(typ)
		if err != nil {
			t.Fatalf("%s: failed to create decoder: %v", typ, err)
		}
		if d.Type() != typ {
			t.Errorf("%s: expected type %s, got %s", typ, typ, d.Type())
		}
		if d.Channels() != typ.Channels() {
			t.Errorf("%s: expected %d channels, got %d", typ, typ.Channels(), d.Channels())
		}
		if d.SampleRateHz() != typ.SampleRateHz() {
			t.Errorf("%s: expected %d Hz, got %d", typ, typ.SampleRateHz(), d.SampleRateHz())
		}
		if got := Probe(d); got != typ.Capabilities() {
			t.Errorf("%s: expected capabilities %s, got %s", typ, typ.Capabilities(), got)
		}
		if err := d.Init(); err != nil {
			t.Errorf("%s: init failed: %v", typ, err)
		}
		if err := d.Close(); err != nil {
			t.Errorf("%s: close failed: %v", typ, err)
		}
	}
}

func TestNewRejectsUnknownTypes(t *testing.T) {
	for _, typ := range []Type{TypeUnknown, numTypes, Type(-3), Type(1000)} {
		d, err := New(typ)
		if d != nil {
			t.Errorf("%d: expected no decoder", int(typ))
		}
		if !errors.Is(err, ErrUnknownType) {
			t.Errorf("%d: expected ErrUnknownType, got %v", int(typ), err)
		}
		if !errors.Is(err, ErrConfiguration) {
			t.Errorf("%d: expected ErrConfiguration, got %v", int(typ), err)
		}
	}
}

func TestNewRejectsTypesWithoutDecoder(t *testing.T) {
	for _, typ := range []Type{TypeRED, TypeAVT, TypeArbitrary} {
		if Supported(typ) {
			t.Errorf("%s: expected unsupported", typ)
		}
		d, err := New(typ)
		if d != nil {
			t.Errorf("%s: expected no decoder", typ)
		}
		if !errors.Is(err, ErrConfiguration) {
			t.Errorf("%s: expected ErrConfiguration, got %v", typ, err)
		}
		if errors.Is(err, ErrUnknownType) {
			t.Errorf("%s: should not be reported as unknown", typ)
		}
	}
}

func TestSupportedFollowsEngineRegistration(t *testing.T) {
	h := &codectest.Handles{}
	tests := []struct {
		typ      Type
		register func()
		remove   func()
	}{
		{TypeG722, func() { codec.G722.Register(codectest.G722Factory(h)) }, codec.G722.Unregister},
		{TypeCNGNB, func() { codec.CNG.Register(codectest.CNGFactory(h)) }, codec.CNG.Unregister},
		{TypeILBC, func() { codec.ILBC.Register(codectest.ILBCFactory(h)) }, codec.ILBC.Unregister},
		{TypeOpus2ch, func() { codec.Opus.Register(codectest.OpusFactory(h)) }, codec.Opus.Unregister},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			tt.remove()
			if Supported(tt.typ) {
				t.Fatal("expected unsupported without an engine")
			}
			if _, err := New(tt.typ); !errors.Is(err, ErrResource) {
				t.Errorf("expected ErrResource, got %v", err)
			}

			tt.register()
			defer tt.remove()
			if !Supported(tt.typ) {
				t.Fatal("expected supported once an engine is registered")
			}
			d, err := New(tt.typ)
			if err != nil {
				t.Fatalf("failed to create decoder: %v", err)
			}
			if err := d.Close(); err != nil {
				t.Errorf("close failed: %v", err)
			}
		})
	}

	for _, typ := range []Type{TypePCMU, TypePCMA2ch, TypePCM16BWB} {
		if !Supported(typ) {
			t.Errorf("%s: expected built-in engine to be available", typ)
		}
	}
}

func TestNewWithoutEngine(t *testing.T) {
	codec.ILBC.Unregister()

	d, err := New(TypeILBC)
	if d != nil {
		t.Fatal("expected no decoder")
	}
	if !errors.Is(err, ErrResource) {
		t.Errorf("expected ErrResource, got %v", err)
	}
	if !errors.Is(err, codec.ErrNotRegistered) {
		t.Errorf("expected ErrNotRegistered, got %v", err)
	}
}

func TestNewWithFailingEngine(t *testing.T) {
	boom := errors.New("out of memory")
	codec.Opus.Register(codectest.Failing[codec.OpusEngine](boom))
	defer codec.Opus.Unregister()

	_, err := New(TypeOpus2ch)
	if !errors.Is(err, ErrResource) {
		t.Errorf("expected ErrResource, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected engine error to be wrapped, got %v", err)
	}
}

func TestConstructDestroyReleasesHandles(t *testing.T) {
	h := withFakeEngines(t)

	engineTypes := []Type{
		TypeILBC, TypeISAC, TypeISACSWB, TypeISACFix, TypeG722,
		TypeOpus, TypeOpus2ch, TypeCNGNB, TypeCNGWB, TypeCNGSWB32, TypeCNGSWB48,
	}
	const rounds = 3
	for i := 0; i < rounds; i++ {
		for _, typ := range engineTypes {
			d, err := New(typ)
			if err != nil {
				t.Fatalf("%s: failed to create decoder: %v", typ, err)
			}
			if err := d.Close(); err != nil {
				t.Fatalf("%s: close failed: %v", typ, err)
			}
		}
	}

	if h.Live() != 0 {
		t.Errorf("expected 0 live handles, got %d", h.Live())
	}
	if h.Created() != rounds*len(engineTypes) {
		t.Errorf("expected %d handles created, got %d", rounds*len(engineTypes), h.Created())
	}
}

func TestISACRateFailureReleasesHandle(t *testing.T) {
	tests := []struct {
		name   string
		reject int
		build  func() (*ISACDecoder, error)
	}{
		{"wideband", 16000, NewISAC},
		{"super-wideband", 32000, NewISACSWB},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &codectest.Handles{}
			codec.ISAC.Register(codectest.ISACFactory(h, codectest.RejectRate(tt.reject)))
			defer codec.ISAC.Unregister()

			d, err := tt.build()
			if d != nil {
				t.Fatal("expected no decoder")
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
			var engineErr *EngineError
			if !errors.As(err, &engineErr) {
				t.Fatalf("expected EngineError, got %v", err)
			}
			if engineErr.Op != opSetSampleRate {
				t.Errorf("expected op %s, got %s", opSetSampleRate, engineErr.Op)
			}
			if h.Live() != 0 {
				t.Errorf("expected handle to be freed, %d live", h.Live())
			}
		})
	}
}

func TestNewPCM16BMultiChRejectsOtherTypes(t *testing.T) {
	for _, typ := range []Type{TypePCM16B, TypePCMU, TypeOpus2ch} {
		d, err := NewPCM16BMultiCh(typ)
		if d != nil {
			t.Errorf("%s: expected no decoder", typ)
		}
		if !errors.Is(err, ErrConfiguration) {
			t.Errorf("%s: expected ErrConfiguration, got %v", typ, err)
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	withFakeEngines(t)

	d, err := New(TypeILBC)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	// a second Free would panic in the fake
	if err := d.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
	if _, err := d.Decode(payload(codectest.ILBCFrameBytes, 1)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := d.Init(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from init, got %v", err)
	}
}
