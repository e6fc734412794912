// ABOUTME: Linear resampler for decoded 16-bit PCM
// ABOUTME: Converts frames to a common output rate, continuous across calls
package resample

import "github.com/Resonate-Protocol/audiodecoder/pkg/audio"

// Resampler performs linear interpolation between sample rates. The last
// input frame of each call is kept so consecutive chunks join without a gap.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	// position counts input frames from the held frame, in units of
	// 1/outputRate
	position int64
	last     []int16
	primed   bool
}

// New creates a resampler for interleaved audio with channels channels
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		last:       make([]int16, channels),
	}
}

// InputRate returns the rate the resampler was built for
func (r *Resampler) InputRate() int { return r.inputRate }

// OutputRate returns the target rate
func (r *Resampler) OutputRate() int { return r.outputRate }

// Channels returns the interleaved channel count
func (r *Resampler) Channels() int { return r.channels }

// Resample appends input converted to the output rate to dst
func (r *Resampler) Resample(dst, input []int16) []int16 {
	frames := len(input) / r.channels
	if frames == 0 {
		return dst
	}
	if r.inputRate == r.outputRate {
		return append(dst, input[:frames*r.channels]...)
	}
	if !r.primed {
		copy(r.last, input[:r.channels])
		r.primed = true
	}

	// sample returns frame i of the sequence held frame + input
	sample := func(i, ch int) int16 {
		if i == 0 {
			return r.last[ch]
		}
		return input[(i-1)*r.channels+ch]
	}

	out := int64(r.outputRate)
	end := int64(frames) * out
	for r.position < end {
		idx := int(r.position / out)
		frac := float64(r.position%out) / float64(out)
		for ch := 0; ch < r.channels; ch++ {
			a := float64(sample(idx, ch))
			b := float64(sample(idx+1, ch))
			dst = append(dst, int16(a+(b-a)*frac))
		}
		r.position += int64(r.inputRate)
	}

	r.position -= end
	copy(r.last, input[(frames-1)*r.channels:frames*r.channels])
	return dst
}

// Frame resamples f. Frames with a different channel count or rate than
// the resampler was built for are returned unchanged.
func (r *Resampler) Frame(f audio.Frame) audio.Frame {
	if f.Channels != r.channels || f.SampleRate != r.inputRate {
		return f
	}
	out := f
	out.Samples = r.Resample(make([]int16, 0, r.OutputSamplesNeeded(len(f.Samples))), f.Samples)
	out.SampleRate = r.outputRate
	return out
}

// Reset drops the held frame and phase
func (r *Resampler) Reset() {
	r.position = 0
	r.primed = false
	for i := range r.last {
		r.last[i] = 0
	}
}

// OutputSamplesNeeded estimates the output size for inputSamples samples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames)/r.ratio) + 1
	return outputFrames * r.channels
}
