// ABOUTME: PCM audio decoder
// ABOUTME: Decodes headerless 16-bit and 24-bit PCM audio to int32 samples
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/Sendspin/umxconv/pkg/audio"
)

// PCMDecoder decodes headerless little-endian PCM. The stream format has to
// be known up front since there is no header to read it from.
type PCMDecoder struct {
	format audio.Format
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (Decoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	if format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid pcm format: %d channels at %d Hz", format.Channels, format.SampleRate)
	}

	return &PCMDecoder{
		format: format,
	}, nil
}

// Decode converts PCM bytes to int32 samples. A trailing partial frame is dropped.
func (d *PCMDecoder) Decode(data []byte) (audio.Buffer, error) {
	bytesPerSample := d.format.BitDepth / 8
	frameSize := bytesPerSample * d.format.Channels
	numSamples := (len(data) / frameSize) * d.format.Channels

	samples := make([]int32, numSamples)
	if d.format.BitDepth == 24 {
		for i := 0; i < numSamples; i++ {
			b := [3]byte{data[i*3], data[i*3+1], data[i*3+2]}
			samples[i] = audio.SampleFrom24Bit(b)
		}
	} else {
		for i := 0; i < numSamples; i++ {
			sample16 := int16(binary.LittleEndian.Uint16(data[i*2:]))
			samples[i] = audio.SampleFromInt16(sample16)
		}
	}

	return audio.Buffer{
		Samples: samples,
		Format:  decoded(d.format.SampleRate, d.format.Channels, d.format.BitDepth),
	}, nil
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}
