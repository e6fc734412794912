// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Frame, Format, SpeechType and PCM byte helpers
// Package audio provides the types shared by decoders and their callers.
//
// This package defines:
//   - Frame: decoded 16-bit PCM, interleaved by channel
//   - SpeechType: speech or comfort noise classification of a Frame
//   - Format: codec, sample rate and channel count of a stream
//
// Example:
//
//	frame, err := decoder.Decode(payload)
//	if frame.Speech == audio.ComfortNoise {
//	    // feed comfort noise parameters to the mixer
//	}
//	out = audio.AppendLE(out, frame.Samples)
package audio
