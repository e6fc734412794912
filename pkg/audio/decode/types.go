// ABOUTME: Decoder type identifiers
// ABOUTME: Closed set of codec variants with their static properties
package decode

import (
	"fmt"
	"strings"

	"github.com/Resonate-Protocol/audiodecoder/pkg/audio"
)

// Type identifies a codec and variant
type Type int

const (
	TypeUnknown Type = iota
	TypePCMU
	TypePCMA
	TypePCMU2ch
	TypePCMA2ch
	TypeILBC
	TypeISAC
	TypeISACSWB
	TypeISACFix
	TypePCM16B
	TypePCM16BWB
	TypePCM16BSWB32
	TypePCM16BSWB48
	TypePCM16B2ch
	TypePCM16BWB2ch
	TypePCM16BSWB32_2ch
	TypePCM16BSWB48_2ch
	TypePCM16B5ch
	TypeG722
	TypeRED
	TypeAVT
	TypeCNGNB
	TypeCNGWB
	TypeCNGSWB32
	TypeCNGSWB48
	TypeArbitrary
	TypeOpus
	TypeOpus2ch

	numTypes
)

// family groups types sharing an engine and a speech type table
type family int

const (
	familyNone family = iota
	familyPCMU
	familyPCMA
	familyPCM16B
	familyILBC
	familyISAC
	familyISACFix
	familyG722
	familyOpus
	familyCNG
)

type typeInfo struct {
	name       string
	family     family
	sampleRate int
	channels   int
}

var typeInfos = [numTypes]typeInfo{
	TypeUnknown:         {"unknown", familyNone, 0, 0},
	TypePCMU:            {"pcmu", familyPCMU, 8000, 1},
	TypePCMA:            {"pcma", familyPCMA, 8000, 1},
	TypePCMU2ch:         {"pcmu-2ch", familyPCMU, 8000, 2},
	TypePCMA2ch:         {"pcma-2ch", familyPCMA, 8000, 2},
	TypeILBC:            {"ilbc", familyILBC, 8000, 1},
	TypeISAC:            {"isac", familyISAC, 16000, 1},
	TypeISACSWB:         {"isac-swb", familyISAC, 32000, 1},
	TypeISACFix:         {"isac-fix", familyISACFix, 16000, 1},
	TypePCM16B:          {"pcm16b", familyPCM16B, 8000, 1},
	TypePCM16BWB:        {"pcm16b-wb", familyPCM16B, 16000, 1},
	TypePCM16BSWB32:     {"pcm16b-swb32", familyPCM16B, 32000, 1},
	TypePCM16BSWB48:     {"pcm16b-swb48", familyPCM16B, 48000, 1},
	TypePCM16B2ch:       {"pcm16b-2ch", familyPCM16B, 8000, 2},
	TypePCM16BWB2ch:     {"pcm16b-wb-2ch", familyPCM16B, 16000, 2},
	TypePCM16BSWB32_2ch: {"pcm16b-swb32-2ch", familyPCM16B, 32000, 2},
	TypePCM16BSWB48_2ch: {"pcm16b-swb48-2ch", familyPCM16B, 48000, 2},
	TypePCM16B5ch:       {"pcm16b-5ch", familyPCM16B, 8000, 5},
	TypeG722:            {"g722", familyG722, 16000, 1},
	TypeRED:             {"red", familyNone, 8000, 1},
	TypeAVT:             {"avt", familyNone, 8000, 1},
	TypeCNGNB:           {"cng-nb", familyCNG, 8000, 1},
	TypeCNGWB:           {"cng-wb", familyCNG, 16000, 1},
	TypeCNGSWB32:        {"cng-swb32", familyCNG, 32000, 1},
	TypeCNGSWB48:        {"cng-swb48", familyCNG, 48000, 1},
	TypeArbitrary:       {"arbitrary", familyNone, 0, 1},
	TypeOpus:            {"opus", familyOpus, 48000, 1},
	TypeOpus2ch:         {"opus-2ch", familyOpus, 48000, 2},
}

func (t Type) info() (typeInfo, bool) {
	if t <= TypeUnknown || t >= numTypes {
		return typeInfo{}, false
	}
	return typeInfos[t], true
}

func (t Type) String() string {
	if info, ok := t.info(); ok {
		return info.name
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Valid reports whether t is a member of the closed type set
func (t Type) Valid() bool {
	_, ok := t.info()
	return ok
}

// SampleRateHz returns the output sample rate of t, or 0 when it is not fixed
func (t Type) SampleRateHz() int {
	info, _ := t.info()
	return info.sampleRate
}

// Channels returns the channel count a decoder of type t produces
func (t Type) Channels() int {
	info, _ := t.info()
	return info.channels
}

// Format returns the stream format a decoder of type t produces
func (t Type) Format() audio.Format {
	if !t.Valid() {
		return audio.Format{}
	}
	return audio.Format{Codec: t.String(), SampleRate: t.SampleRateHz(), Channels: t.Channels()}
}

// Capabilities returns the optional operations a decoder of type t supports
func (t Type) Capabilities() Capability {
	info, _ := t.info()
	return familyCapabilities[info.family]
}

// HasDecoder reports whether t is decoded by a Decoder. RED, AVT and
// arbitrary payloads are handled outside the decoder layer.
func (t Type) HasDecoder() bool {
	info, ok := t.info()
	return ok && info.family != familyNone
}

// IsComfortNoise reports whether t is one of the comfort noise types
func (t Type) IsComfortNoise() bool {
	switch t {
	case TypeCNGNB, TypeCNGWB, TypeCNGSWB32, TypeCNGSWB48:
		return true
	}
	return false
}

// Types returns every valid type in declaration order
func Types() []Type {
	types := make([]Type, 0, numTypes-1)
	for t := TypeUnknown + 1; t < numTypes; t++ {
		types = append(types, t)
	}
	return types
}

// ParseType maps a name such as "opus-2ch" to its type
func ParseType(name string) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for t := TypeUnknown + 1; t < numTypes; t++ {
		if typeInfos[t].name == key {
			return t, nil
		}
	}
	return TypeUnknown, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// Capability is a set of optional decoder operations
type Capability uint8

const (
	// CapDuration: PacketDuration
	CapDuration Capability = 1 << iota
	// CapPLC: DecodePlc
	CapPLC
	// CapRedundant: DecodeRedundant
	CapRedundant
	// CapBandwidth: IncomingPacket
	CapBandwidth
	// CapErrorCode: ErrorCode
	CapErrorCode
	// CapComfortNoise: Generate
	CapComfortNoise
)

var familyCapabilities = map[family]Capability{
	familyPCMU:    CapDuration,
	familyPCMA:    CapDuration,
	familyPCM16B:  CapDuration,
	familyG722:    CapDuration,
	familyILBC:    CapPLC,
	familyISAC:    CapPLC | CapRedundant | CapBandwidth | CapErrorCode,
	familyISACFix: CapBandwidth | CapErrorCode,
	familyOpus:    CapDuration | CapPLC | CapRedundant,
	familyCNG:     CapErrorCode | CapComfortNoise,
}

var capabilityNames = []struct {
	c    Capability
	name string
}{
	{CapDuration, "duration"},
	{CapPLC, "plc"},
	{CapRedundant, "redundant"},
	{CapBandwidth, "bandwidth"},
	{CapErrorCode, "error-code"},
	{CapComfortNoise, "comfort-noise"},
}

// Has reports whether all of x are in c
func (c Capability) Has(x Capability) bool {
	return c&x == x
}

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	var names []string
	for _, n := range capabilityNames {
		if c.Has(n.c) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}
