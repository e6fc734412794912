// ABOUTME: Decoder error taxonomy
// ABOUTME: Sentinel errors and the engine error carrying native codes
package decode

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration: unknown type, type without a decoder, or a variant
	// that cannot be configured. No decoder is returned.
	ErrConfiguration = errors.New("decode: invalid decoder configuration")

	// ErrResource: the codec engine is not linked or could not be allocated
	ErrResource = errors.New("decode: codec engine unavailable")

	// ErrUnsupported: the decoder does not implement the operation
	ErrUnsupported = errors.New("decode: operation not supported")

	// ErrDecode: the engine rejected a payload. No samples are returned.
	ErrDecode = errors.New("decode: decode failed")

	// ErrUnknownType: a name or value outside the type set
	ErrUnknownType = fmt.Errorf("%w: unknown decoder type", ErrConfiguration)

	// ErrSpeechType: the engine reported an unmapped speech type code
	ErrSpeechType = errors.New("decode: unrecognized speech type")

	// ErrClosed: the decoder has been closed
	ErrClosed = errors.New("decode: decoder closed")
)

// EngineError carries a negative engine return code unmodified
type EngineError struct {
	Type Type
	Op   string
	Code int
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("decode: %s %s failed with engine code %d", e.Type, e.Op, e.Code)
}

// Is matches ErrDecode for operations that produce samples
func (e *EngineError) Is(target error) bool {
	if target != ErrDecode {
		return false
	}
	switch e.Op {
	case opDecode, opDecodePlc, opDecodeRedundant, opGenerate:
		return true
	}
	return false
}

// Engine operation names used in EngineError
const (
	opInit            = "init"
	opDecode          = "decode"
	opDecodePlc       = "decode-plc"
	opDecodeRedundant = "decode-redundant"
	opDuration        = "packet-duration"
	opIncomingPacket  = "incoming-packet"
	opSetSampleRate   = "set-sample-rate"
	opGenerate        = "generate"
)
