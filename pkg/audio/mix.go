// ABOUTME: PCM preprocessing for tracker conversion
// ABOUTME: Reduces a multichannel buffer to one or two mono channel streams
package audio

// SplitChannels reduces buf to the mono streams that become tracker samples.
// With stereo set and at least two input channels the first two channels are
// kept separately (left, right). Otherwise the first two channels are averaged
// into one stream, or a mono input is passed through. Channels past the second
// are ignored. bitDepth is the storage width the streams will be encoded at.
func SplitChannels(buf Buffer, stereo bool, bitDepth int) []Channel {
	rate := buf.Format.SampleRate
	depth := bitDepth

	switch {
	case buf.Format.Channels <= 0:
		return nil
	case stereo && buf.Format.Channels >= 2:
		return []Channel{
			{Samples: buf.Channel(0), SampleRate: rate, BitDepth: depth},
			{Samples: buf.Channel(1), SampleRate: rate, BitDepth: depth},
		}
	case buf.Format.Channels >= 2:
		return []Channel{
			{Samples: Downmix(buf.Channel(0), buf.Channel(1)), SampleRate: rate, BitDepth: depth},
		}
	default:
		return []Channel{
			{Samples: buf.Channel(0), SampleRate: rate, BitDepth: depth},
		}
	}
}

// Downmix averages two channels sample by sample
func Downmix(left, right []int32) []int32 {
	out := make([]int32, len(left))
	for i := range left {
		var r int64
		if i < len(right) {
			r = int64(right[i])
		}
		out[i] = int32((int64(left[i]) + r) / 2)
	}
	return out
}
