// ABOUTME: PCM audio encoder
// ABOUTME: Encodes int32 samples to signed 8, 16 or 24-bit PCM bytes
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/Sendspin/umxconv/pkg/audio"
)

// PCMEncoder encodes PCM audio
type PCMEncoder struct {
	bitDepth int
}

// NewPCM creates a new PCM encoder
func NewPCM(format audio.Format) (Encoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", format.Codec)
	}

	if !validBitDepth(format.BitDepth, 8, 16, 24) {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 8, 16, 24)", format.BitDepth)
	}

	return &PCMEncoder{
		bitDepth: format.BitDepth,
	}, nil
}

// BytesPerSample returns the encoded width of one sample
func (e *PCMEncoder) BytesPerSample() int {
	return e.bitDepth / 8
}

// Encode converts int32 samples to PCM bytes
func (e *PCMEncoder) Encode(samples []int32) ([]byte, error) {
	output := make([]byte, len(samples)*e.BytesPerSample())
	e.encodeInto(output, samples)
	return output, nil
}

func (e *PCMEncoder) encodeInto(output []byte, samples []int32) {
	switch e.bitDepth {
	case 8:
		for i, sample := range samples {
			output[i] = byte(audio.SampleToInt8(sample))
		}
	case 24:
		for i, sample := range samples {
			packed := audio.SampleTo24Bit(sample)
			copy(output[i*3:], packed[:])
		}
	default:
		for i, sample := range samples {
			binary.LittleEndian.PutUint16(output[i*2:], uint16(audio.SampleToInt16(sample)))
		}
	}
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}

func validBitDepth(depth int, allowed ...int) bool {
	for _, a := range allowed {
		if depth == a {
			return true
		}
	}
	return false
}
