// ABOUTME: WAV audio decoder
// ABOUTME: Decodes integer or float PCM WAV files to int32 samples via go-audio/wav
package decode

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-audio/wav"

	"github.com/Sendspin/umxconv/pkg/audio"
)

// riffHeaderSize is the "RIFF" magic, chunk size and "WAVE" form type
const riffHeaderSize = 12

// WAVE format tags
const (
	wavFormatPCM        = 0x0001
	wavFormatIEEEFloat  = 0x0003
	wavFormatExtensible = 0xFFFE
)

// WAVDecoder decodes RIFF/WAVE audio
type WAVDecoder struct{}

// NewWAV creates a new WAV decoder
func NewWAV(format audio.Format) (Decoder, error) {
	if format.Codec != "wav" {
		return nil, fmt.Errorf("invalid codec for WAV decoder: %s", format.Codec)
	}
	return &WAVDecoder{}, nil
}

// Decode converts a complete WAV file to int32 samples.
// WAVE_FORMAT_EXTENSIBLE files are read as integer PCM.
func (d *WAVDecoder) Decode(data []byte) (audio.Buffer, error) {
	if len(data) == 0 {
		return audio.Buffer{}, ErrEmptyInput
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return audio.Buffer{}, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
		}
		return audio.Buffer{}, fmt.Errorf("%w: not a readable RIFF/WAVE file", ErrInvalidWAV)
	}

	tag := dec.WavAudioFormat
	bitDepth := int(dec.BitDepth)
	switch {
	case (tag == wavFormatPCM || tag == wavFormatExtensible) &&
		(bitDepth == 8 || bitDepth == 16 || bitDepth == 24 || bitDepth == 32):
	case tag == wavFormatIEEEFloat && bitDepth == 32:
	default:
		return audio.Buffer{}, fmt.Errorf("%w: unsupported encoding (format 0x%04X, %d-bit)", ErrInvalidWAV, tag, bitDepth)
	}
	if dec.SampleRate == 0 {
		return audio.Buffer{}, fmt.Errorf("%w: %d channels at 0 Hz", ErrInvalidWAV, dec.NumChans)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}

	samples := make([]int32, len(pcm.Data))
	for i, v := range pcm.Data {
		samples[i] = wavSample(v, tag, bitDepth)
	}

	return audio.Buffer{
		Samples: samples,
		Format:  decoded(int(dec.SampleRate), int(dec.NumChans), bitDepth),
	}, nil
}

// Close releases decoder resources
func (d *WAVDecoder) Close() error {
	return nil
}

// wavSample converts one decoded value to 24-bit range. Values are
// reduced to their raw bit pattern first, so signed and unsigned
// readings of the same word give the same sample.
func wavSample(v int, tag uint16, bitDepth int) int32 {
	bits := uint32(v)
	switch {
	case tag == wavFormatIEEEFloat:
		f := math.Max(-1, math.Min(1, float64(math.Float32frombits(bits))))
		return int32(math.Round(f * audio.Max24Bit))
	case bitDepth == 8:
		// 8-bit WAV is unsigned
		return audio.SampleFromUint8(uint8(bits))
	case bitDepth == 16:
		return audio.SampleFromInt16(int16(uint16(bits)))
	case bitDepth == 24:
		return int32(bits<<8) >> 8
	default:
		return audio.SampleFromBits(int32(bits), 32)
	}
}
