// Package resample converts decoded PCM between sample rates.
//
// Uses linear interpolation. Decoders of different codecs produce 8 to
// 48 kHz; the resampler brings them to one output rate.
//
// Example:
//
//	r := resample.New(8000, 48000, 1)
//	out := r.Resample(nil, frame.Samples)
package resample
