// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Streams interleaved float32 PCM through linear interpolation
package resample

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64
	lastFrame  []float32 // previous chunk's final frame, one sample per channel
	primed     bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		lastFrame:  make([]float32, channels),
	}
}

// Passthrough reports whether input and output rates match
func (r *Resampler) Passthrough() bool {
	return r.inputRate == r.outputRate
}

// Resample converts input samples to output sample rate using linear
// interpolation and returns the number of samples written to output.
// input: interleaved samples at inputRate
// output: interleaved samples at outputRate
func (r *Resampler) Resample(input []float32, output []float32) int {
	if len(input) < r.channels {
		return 0
	}
	if r.Passthrough() {
		return copy(output, input)
	}

	inputFrames := len(input) / r.channels
	outputFrames := len(output) / r.channels

	// frame -1 is the previous chunk's last frame, so interpolation spans
	// chunk boundaries
	frame := func(idx, ch int) float32 {
		if idx < 0 {
			return r.lastFrame[ch]
		}
		return input[idx*r.channels+ch]
	}

	start := 0.0
	if !r.primed {
		start = 1.0
	}
	if r.position < start {
		r.position = start
	}

	outIdx := 0
	for outIdx < outputFrames {
		// position is measured from the previous chunk's last frame
		pos := r.position - 1
		idx := int(pos)
		if pos < 0 {
			idx = -1
		}
		if idx+1 >= inputFrames {
			break
		}

		frac := float32(pos - float64(idx))
		for ch := 0; ch < r.channels; ch++ {
			s1 := frame(idx, ch)
			s2 := frame(idx+1, ch)
			output[outIdx*r.channels+ch] = s1*(1-frac) + s2*frac
		}

		outIdx++
		r.position += r.ratio
	}

	// carry the fractional position relative to this chunk's last frame
	r.position -= float64(inputFrames)
	if r.position < 0 {
		r.position = 0
	}
	copy(r.lastFrame, input[(inputFrames-1)*r.channels:inputFrames*r.channels])
	r.primed = true

	return outIdx * r.channels
}

// Process resamples input into a freshly allocated slice
func (r *Resampler) Process(input []float32) []float32 {
	out := make([]float32, r.OutputSamplesNeeded(len(input))+2*r.channels)
	n := r.Resample(input, out)
	return out[:n]
}

// OutputSamplesNeeded calculates how many output samples will be produced from input samples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames) / r.ratio)
	return outputFrames * r.channels
}
