// ABOUTME: Decoder factory
// ABOUTME: Builds the variant for a decoder type
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/audiodecoder/pkg/codec"
)

// New creates a decoder for t. Unknown types and types without a decoder
// return ErrConfiguration; missing or failing engines return ErrResource.
// On error no decoder and no engine handle remain.
func New(t Type) (Decoder, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}

	switch t {
	case TypePCMU:
		return wrap(NewPCMU())
	case TypePCMA:
		return wrap(NewPCMA())
	case TypePCMU2ch, TypePCMA2ch:
		return wrap(newG711MultiCh(t))
	case TypeILBC:
		return wrap(NewILBC())
	case TypeISAC:
		return wrap(NewISAC())
	case TypeISACSWB:
		return wrap(NewISACSWB())
	case TypeISACFix:
		return wrap(NewISACFix())
	case TypePCM16B, TypePCM16BWB, TypePCM16BSWB32, TypePCM16BSWB48:
		return wrap(NewPCM16B(t))
	case TypePCM16B2ch, TypePCM16BWB2ch, TypePCM16BSWB32_2ch, TypePCM16BSWB48_2ch, TypePCM16B5ch:
		return wrap(NewPCM16BMultiCh(t))
	case TypeG722:
		return wrap(NewG722())
	case TypeOpus:
		return wrap(NewOpus())
	case TypeOpus2ch:
		return wrap(NewOpusStereo())
	case TypeCNGNB, TypeCNGWB, TypeCNGSWB32, TypeCNGSWB48:
		return wrap(NewCNG(t))
	}
	return nil, fmt.Errorf("%w: %s has no decoder", ErrConfiguration, t)
}

// Supported reports whether New can build a decoder for t: the type has a
// decoder and its engine is registered.
func Supported(t Type) bool {
	info, ok := t.info()
	if !ok {
		return false
	}
	switch info.family {
	case familyPCMU:
		return codec.PCMU.Available()
	case familyPCMA:
		return codec.PCMA.Available()
	case familyPCM16B:
		return codec.PCM16B.Available()
	case familyILBC:
		return codec.ILBC.Available()
	case familyISAC:
		return codec.ISAC.Available()
	case familyISACFix:
		return codec.ISACFix.Available()
	case familyG722:
		return codec.G722.Available()
	case familyOpus:
		return codec.Opus.Available()
	case familyCNG:
		return codec.CNG.Available()
	}
	return false
}

// wrap keeps a nil variant pointer from becoming a non-nil Decoder
func wrap[D Decoder](d D, err error) (Decoder, error) {
	if err != nil {
		return nil, err
	}
	return d, nil
}
