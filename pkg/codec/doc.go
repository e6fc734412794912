// ABOUTME: Codec engine binding package
// ABOUTME: Engine contracts and the providers that link implementations
// Package codec defines the primitive operations of the native codec engines
// that the decode package drives, and the providers through which engine
// implementations are linked in.
//
// Engines mirror their native libraries: integer return codes, raw speech
// type codes and codec specific payload views. They are owned by exactly one
// decoder and released with Free.
//
// G.711 and PCM16B engines register themselves from the g711 and pcm16b
// subpackages. The Opus engine registers when its package is imported:
//
//	import _ "github.com/Resonate-Protocol/audiodecoder/pkg/codec/opus"
//
// iLBC, iSAC, G.722 and comfort noise engines are supplied by the host:
//
//	codec.ILBC.Register(func(cfg codec.Config) (codec.ILBCEngine, error) {
//	    return myilbc.NewDecoder()
//	})
package codec
