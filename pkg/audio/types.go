// ABOUTME: Audio type definitions
// ABOUTME: Defines audio formats, decoded buffers and mono channel streams
package audio

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Buffer represents fully decoded PCM audio
type Buffer struct {
	Samples []int32 // Interleaved PCM samples in 24-bit range
	Format  Format
}

// Frames returns the number of sample frames (samples per channel)
func (b Buffer) Frames() int {
	if b.Format.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// Duration returns the buffer length in seconds
func (b Buffer) Duration() float64 {
	if b.Format.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.Format.SampleRate)
}

// Channel returns a copy of one channel's samples
func (b Buffer) Channel(ch int) []int32 {
	if ch < 0 || ch >= b.Format.Channels {
		return nil
	}

	frames := b.Frames()
	out := make([]int32, frames)
	for i := 0; i < frames; i++ {
		out[i] = b.Samples[i*b.Format.Channels+ch]
	}
	return out
}

// Channel is one mono PCM stream; each becomes one tracker sample
type Channel struct {
	Samples    []int32 // 24-bit range
	SampleRate int
	BitDepth   int // Target storage width (8 or 16)
}

// Len returns the sample count
func (c Channel) Len() int {
	return len(c.Samples)
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit storage)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	// Left-shift to position 16-bit value in upper bits
	return int32(sample) << 8
}

// SampleToInt8 converts int32 sample to signed 8-bit
func SampleToInt8(sample int32) int8 {
	return int8(sample >> 16)
}

// SampleFromUint8 converts an unsigned 8-bit WAV sample to int32 (24-bit range)
func SampleFromUint8(sample uint8) int32 {
	return (int32(sample) - 128) << 16
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	// Take lower 24 bits, pack little-endian
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	// Reconstruct 24-bit value and sign-extend to 32-bit
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF // Set upper 8 bits to 1 for negative values
	}
	return val
}

// SampleFromBits scales a signed sample of the given bit depth to 24-bit range
func SampleFromBits(sample int32, bitDepth int) int32 {
	switch {
	case bitDepth == 24:
		return sample
	case bitDepth < 24:
		return sample << (24 - bitDepth)
	default:
		return sample >> (bitDepth - 24)
	}
}
