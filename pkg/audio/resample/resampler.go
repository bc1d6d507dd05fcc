// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Streams chunks or converts whole buffers using linear interpolation
package resample

import (
	"math"

	"github.com/Sendspin/umxconv/pkg/audio"
)

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// Resample converts input samples to output sample rate using linear interpolation
// input: interleaved samples at inputRate
// output: interleaved samples at outputRate
// Returns the number of samples written to output.
func (r *Resampler) Resample(input []int32, output []int32) int {
	if len(input) == 0 {
		return 0
	}

	inputFrames := len(input) / r.channels
	outputFrames := len(output) / r.channels

	outIdx := 0
	for outIdx < outputFrames {
		inputIdx := int(r.position)

		// The last input frame has no successor to interpolate towards
		if inputIdx >= inputFrames-1 {
			break
		}

		frac := r.position - float64(inputIdx)
		r.interpolate(input, inputIdx, inputIdx+1, frac, output[outIdx*r.channels:])

		outIdx++
		r.position += r.ratio
	}

	// Carry the position over into the next chunk
	r.position -= float64(int(r.position))

	return outIdx * r.channels
}

func (r *Resampler) interpolate(input []int32, a, b int, frac float64, out []int32) {
	for ch := 0; ch < r.channels; ch++ {
		sample1 := float64(input[a*r.channels+ch])
		sample2 := float64(input[b*r.channels+ch])
		out[ch] = int32(math.Round(sample1*(1.0-frac) + sample2*frac))
	}
}

// OutputSamplesNeeded calculates how many output samples will be produced from input samples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(int64(inputFrames) * int64(r.outputRate) / int64(r.inputRate))
	return outputFrames * r.channels
}

// Buffer converts a complete buffer to outputRate. The result has
// floor(frames * outputRate / inputRate) frames; positions past the last
// input frame hold its value. A buffer already at outputRate, or one with
// no usable format, is returned unchanged.
func Buffer(buf audio.Buffer, outputRate int) audio.Buffer {
	format := buf.Format
	if outputRate <= 0 || format.SampleRate <= 0 || format.Channels <= 0 || format.SampleRate == outputRate {
		return buf
	}

	r := New(format.SampleRate, outputRate, format.Channels)
	out := make([]int32, r.OutputSamplesNeeded(len(buf.Samples)))

	n := r.Resample(buf.Samples, out)
	if n < len(out) {
		last := buf.Samples[(buf.Frames()-1)*r.channels : buf.Frames()*r.channels]
		for i := n; i < len(out); i += r.channels {
			copy(out[i:], last)
		}
	}

	format.SampleRate = outputRate
	return audio.Buffer{Samples: out, Format: format}
}
