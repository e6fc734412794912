// ABOUTME: Codec engine contracts
// ABOUTME: Primitive operation sets exposed by each native codec engine
package codec

// Config carries the parameters an engine handle is created with
type Config struct {
	Channels   int
	SampleRate int
}

// Engine return conventions follow the native libraries: a negative int is an
// engine error code, a non-negative int from a decode call is the number of
// samples written across all channels. Raw speech type codes are engine
// specific and are interpreted only by the decode package.

// ByteEngine is the primitive set of G.711, PCM16B and G.722 engines
type ByteEngine interface {
	DecoderInit() int
	Decode(encoded []byte, decoded []int16) (int, int16)
	Free()
}

// ILBCEngine is an iLBC decoder instance
type ILBCEngine interface {
	ByteEngine
	// NetEqPlc writes frames concealment frames into decoded
	NetEqPlc(decoded []int16, frames int) int
}

// ISACEngine is a floating point iSAC decoder instance.
// Payloads are passed as the 16-bit word view of the encoded bytes plus the
// byte length.
type ISACEngine interface {
	DecoderInit() int
	Decode(encoded []uint16, lenBytes int, decoded []int16) (int, int16)
	DecodeRcu(encoded []uint16, lenBytes int, decoded []int16) (int, int16)
	DecodePlc(decoded []int16, frames int) int
	UpdateBwEstimate(encoded []uint16, lenBytes int, seq uint16, sendTS, arrivalTS uint32) int
	SetDecSampRate(hz int) int
	GetErrorCode() int
	Free()
}

// ISACFixEngine is a fixed point iSAC decoder instance
type ISACFixEngine interface {
	DecoderInit() int
	Decode(encoded []uint16, lenBytes int, decoded []int16) (int, int16)
	UpdateBwEstimate(encoded []uint16, lenBytes int, seq uint16, sendTS, arrivalTS uint32) int
	GetErrorCode() int
	Free()
}

// OpusEngine is an Opus decoder instance
type OpusEngine interface {
	ByteEngine
	// DurationEst returns the samples per channel encoded in a packet
	DurationEst(encoded []byte) int
	DecodePlc(decoded []int16, frames int) int
	DecodeFec(encoded []byte, decoded []int16) (int, int16)
}

// CNGEngine is a comfort noise decoder instance
type CNGEngine interface {
	InitDec() int
	UpdateSid(sid []byte) int
	Generate(out []int16, newPeriod bool) int
	ErrorCode() int
	Free()
}
