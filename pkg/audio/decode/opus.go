// ABOUTME: Ogg Opus audio decoder
// ABOUTME: Decodes Ogg-encapsulated Opus files to int32 samples at 48kHz
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Sendspin/umxconv/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

const (
	// OpusSampleRate is the rate every Opus stream decodes at
	OpusSampleRate = 48000

	// Largest Opus frame: 120ms at 48kHz
	opusMaxFrameSize = 5760
)

var opusHeadMagic = []byte("OpusHead")

// OpusDecoder decodes Ogg Opus audio
type OpusDecoder struct{}

// NewOpus creates a new Opus decoder
func NewOpus(format audio.Format) (Decoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus decoder: %s", format.Codec)
	}
	return &OpusDecoder{}, nil
}

// Decode converts a complete Ogg Opus file to int32 samples
func (d *OpusDecoder) Decode(data []byte) (audio.Buffer, error) {
	if len(data) == 0 {
		return audio.Buffer{}, ErrEmptyInput
	}

	channels, err := opusChannels(data)
	if err != nil {
		return audio.Buffer{}, err
	}

	stream, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("failed to open opus stream: %w", err)
	}
	defer stream.Close()

	pcm16 := make([]int16, opusMaxFrameSize*channels)
	var samples []int32
	for {
		n, err := stream.Read(pcm16)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return audio.Buffer{}, fmt.Errorf("opus decode failed: %w", err)
		}

		// n is samples per channel
		for _, s := range pcm16[:n*channels] {
			samples = append(samples, audio.SampleFromInt16(s))
		}
	}

	return audio.Buffer{
		Samples: samples,
		Format:  decoded(OpusSampleRate, channels, 16),
	}, nil
}

// Close releases decoder resources
func (d *OpusDecoder) Close() error {
	return nil
}

// opusChannels reads the output channel count from the OpusHead packet
func opusChannels(data []byte) (int, error) {
	idx := bytes.Index(data, opusHeadMagic)
	if idx < 0 || idx+len(opusHeadMagic)+2 > len(data) {
		return 0, fmt.Errorf("opus identification header not found")
	}

	// Magic, then version byte, then channel count
	channels := int(data[idx+len(opusHeadMagic)+1])
	if channels == 0 {
		return 0, fmt.Errorf("opus stream declares zero channels")
	}
	return channels, nil
}
