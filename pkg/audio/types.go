// ABOUTME: Audio type definitions
// ABOUTME: Defines decoded frames, speech classification and PCM helpers
package audio

import (
	"encoding/binary"
	"time"
)

// SpeechType classifies a decoded frame
type SpeechType int

const (
	// Speech is regular decoded audio (including concealment output)
	Speech SpeechType = iota
	// ComfortNoise is generated background noise
	ComfortNoise
)

func (s SpeechType) String() string {
	switch s {
	case Speech:
		return "speech"
	case ComfortNoise:
		return "comfort-noise"
	default:
		return "unknown"
	}
}

// Format describes a decoded stream format. Codec is empty when only the
// PCM layout is known.
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
}

// Frame is one block of decoded 16-bit PCM
type Frame struct {
	Samples    []int16 // interleaved when Channels > 1
	Channels   int
	SampleRate int
	Speech     SpeechType
}

// SamplesPerChannel returns the number of sample frames in f
func (f Frame) SamplesPerChannel() int {
	if f.Channels <= 0 {
		return 0
	}
	return len(f.Samples) / f.Channels
}

// Format returns the PCM layout of f
func (f Frame) Format() Format {
	return Format{SampleRate: f.SampleRate, Channels: f.Channels}
}

// Duration returns the playout duration of f
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(f.SamplesPerChannel()) * time.Second / time.Duration(f.SampleRate)
}

// Silence returns a zero-filled speech frame
func Silence(samplesPerChannel, channels, sampleRate int) Frame {
	return Frame{
		Samples:    make([]int16, samplesPerChannel*channels),
		Channels:   channels,
		SampleRate: sampleRate,
		Speech:     Speech,
	}
}

// AppendLE appends samples to dst as little-endian 16-bit PCM
func AppendLE(dst []byte, samples []int16) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(s))
	}
	return dst
}
