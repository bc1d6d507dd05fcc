// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for all audio decoders plus shared errors
package decode

import (
	"errors"

	"github.com/Sendspin/umxconv/pkg/audio"
)

// Decoder decodes a complete audio file to PCM
type Decoder interface {
	// Decode converts encoded audio data to an interleaved PCM buffer
	Decode(data []byte) (audio.Buffer, error)

	// Close releases decoder resources
	Close() error
}

var (
	// ErrEmptyInput is returned when there is no data to decode
	ErrEmptyInput = errors.New("empty audio data")

	// ErrUnknownFormat is returned when the container cannot be identified
	ErrUnknownFormat = errors.New("unrecognized audio format")

	// ErrInvalidWAV is returned for RIFF data that is not decodable PCM
	ErrInvalidWAV = errors.New("invalid wav data")
)

// decoded is the output format of a decoder; Codec is always "pcm"
func decoded(sampleRate, channels, bitDepth int) audio.Format {
	return audio.Format{
		Codec:      "pcm",
		SampleRate: sampleRate,
		Channels:   channels,
		BitDepth:   bitDepth,
	}
}
