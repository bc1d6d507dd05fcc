// ABOUTME: Canonical WAV encoder
// ABOUTME: Wraps mono 8 or 16-bit PCM in a 44-byte RIFF/WAVE header
package encode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Sendspin/umxconv/pkg/audio"
)

// WAVHeaderSize is the size of the canonical RIFF/fmt/data header
const WAVHeaderSize = 44

// WAVEncoder encodes one channel of PCM as a complete WAV file
type WAVEncoder struct {
	pcm        *PCMEncoder
	sampleRate int
	channels   int
}

// NewWAV creates a WAV encoder. Only mono 8 or 16-bit output is supported.
func NewWAV(format audio.Format) (Encoder, error) {
	if format.Codec != "wav" {
		return nil, fmt.Errorf("invalid codec for WAV encoder: %s", format.Codec)
	}

	if !validBitDepth(format.BitDepth, 8, 16) {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 8, 16)", format.BitDepth)
	}

	if format.Channels != 1 {
		return nil, fmt.Errorf("unsupported channel count: %d (supported: 1)", format.Channels)
	}

	// The byte rate field is 32 bits wide
	if format.SampleRate <= 0 || int64(format.SampleRate)*int64(format.BitDepth/8) > math.MaxUint32 {
		return nil, fmt.Errorf("invalid sample rate: %d", format.SampleRate)
	}

	return &WAVEncoder{
		pcm:        &PCMEncoder{bitDepth: format.BitDepth},
		sampleRate: format.SampleRate,
		channels:   format.Channels,
	}, nil
}

// Encode converts samples to header + PCM bytes
func (e *WAVEncoder) Encode(samples []int32) ([]byte, error) {
	bytesPerSample := e.pcm.BytesPerSample()
	blockAlign := e.channels * bytesPerSample
	dataSize := len(samples) * bytesPerSample
	if int64(dataSize) > math.MaxUint32-36 {
		return nil, fmt.Errorf("wav data too large: %d bytes", dataSize)
	}

	wav := make([]byte, WAVHeaderSize+dataSize)

	// RIFF header
	copy(wav[0:4], "RIFF")
	binary.LittleEndian.PutUint32(wav[4:8], uint32(36+dataSize))
	copy(wav[8:12], "WAVE")

	// fmt subchunk
	copy(wav[12:16], "fmt ")
	binary.LittleEndian.PutUint32(wav[16:20], 16) // Subchunk1Size (16 for PCM)
	binary.LittleEndian.PutUint16(wav[20:22], 1)  // AudioFormat (1 = PCM)
	binary.LittleEndian.PutUint16(wav[22:24], uint16(e.channels))
	binary.LittleEndian.PutUint32(wav[24:28], uint32(e.sampleRate))
	binary.LittleEndian.PutUint32(wav[28:32], uint32(e.sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(wav[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(wav[34:36], uint16(e.pcm.bitDepth))

	// data subchunk
	copy(wav[36:40], "data")
	binary.LittleEndian.PutUint32(wav[40:44], uint32(dataSize))

	e.pcm.encodeInto(wav[WAVHeaderSize:], samples)

	return wav, nil
}

// Close releases resources
func (e *WAVEncoder) Close() error {
	return nil
}

// WAVPayload returns the PCM bytes following the canonical header
func WAVPayload(wav []byte) ([]byte, error) {
	if len(wav) < WAVHeaderSize {
		return nil, fmt.Errorf("wav data too short: %d bytes (header is %d)", len(wav), WAVHeaderSize)
	}
	return wav[WAVHeaderSize:], nil
}
