// ABOUTME: Streaming linear resampler for converting audio sample rates
// ABOUTME: Carries the last input frame across chunks so chunk boundaries are seamless
package resample

// Resampler performs linear interpolation to convert between sample rates.
// Input arrives in arbitrary chunks of whole frames; the output does not
// depend on how the input was split.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64

	// position is the next output point in the virtual input, where index 0
	// is lastFrame once primed
	position  float64
	lastFrame []int32
	primed    bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		lastFrame:  make([]int32, channels),
	}
}

// Passthrough reports whether input and output rates match
func (r *Resampler) Passthrough() bool {
	return r.inputRate == r.outputRate
}

// frame returns sample ch of virtual frame i
func (r *Resampler) frame(input []int32, i, ch int) int32 {
	if r.primed {
		if i == 0 {
			return r.lastFrame[ch]
		}
		i--
	}
	return input[i*r.channels+ch]
}

// Resample appends input (interleaved frames at inputRate) converted to
// outputRate to dst. The last input frame is held back as the left edge of
// the next chunk's interpolation.
func (r *Resampler) Resample(dst, input []int32) []int32 {
	inputFrames := len(input) / r.channels
	if inputFrames == 0 {
		return dst
	}

	frames := inputFrames
	if r.primed {
		frames++
	}

	for r.position < float64(frames-1) {
		idx := int(r.position)
		frac := r.position - float64(idx)

		for ch := 0; ch < r.channels; ch++ {
			s1 := float64(r.frame(input, idx, ch))
			s2 := float64(r.frame(input, idx+1, ch))
			dst = append(dst, int32(s1*(1.0-frac)+s2*frac))
		}
		r.position += r.ratio
	}

	r.position -= float64(frames - 1)
	copy(r.lastFrame, input[(inputFrames-1)*r.channels:inputFrames*r.channels])
	r.primed = true

	return dst
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0.0
	r.primed = false
	for i := range r.lastFrame {
		r.lastFrame[i] = 0
	}
}

// OutputSamplesNeeded estimates how many output samples inputSamples produce
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames)/r.ratio) + 1
	return outputFrames * r.channels
}
