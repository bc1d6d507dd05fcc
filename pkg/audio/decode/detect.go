// ABOUTME: Container detection and decoder selection
// ABOUTME: Sniffs magic bytes to pick a decoder for an audio file
package decode

import (
	"bytes"
	"fmt"

	"github.com/Sendspin/umxconv/pkg/audio"
)

// Detect identifies the codec of a complete audio file from its leading bytes.
// It returns one of "wav", "flac", "opus" or "mp3".
func Detect(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyInput
	}

	switch {
	case len(data) >= riffHeaderSize && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return "wav", nil
	case bytes.HasPrefix(data, []byte("fLaC")):
		return "flac", nil
	case bytes.HasPrefix(data, []byte("OggS")):
		if bytes.Contains(data[:min(len(data), 512)], opusHeadMagic) {
			return "opus", nil
		}
		return "", fmt.Errorf("%w: ogg stream without opus header", ErrUnknownFormat)
	case bytes.HasPrefix(data, []byte("ID3")):
		// ID3v2 tags precede both MP3 and, rarely, FLAC data
		if rest := skipID3(data); bytes.HasPrefix(rest, []byte("fLaC")) {
			return "flac", nil
		}
		return "mp3", nil
	case isMPEGFrameSync(data):
		return "mp3", nil
	}

	return "", ErrUnknownFormat
}

// New creates a decoder for a codec name returned by Detect. Raw PCM needs a
// full format and has to be created with NewPCM.
func New(codec string) (Decoder, error) {
	format := audio.Format{Codec: codec}

	switch codec {
	case "wav":
		return NewWAV(format)
	case "mp3":
		return NewMP3(format)
	case "flac":
		return NewFLAC(format)
	case "opus":
		return NewOpus(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", codec)
	}
}

// Auto detects the container and decodes the whole file
func Auto(data []byte) (audio.Buffer, error) {
	codec, err := Detect(data)
	if err != nil {
		return audio.Buffer{}, err
	}

	decoder, err := New(codec)
	if err != nil {
		return audio.Buffer{}, err
	}
	defer decoder.Close()

	return decoder.Decode(data)
}

// isMPEGFrameSync reports whether data starts with an MPEG audio frame header
func isMPEGFrameSync(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	// 11 sync bits, and a layer field other than the reserved 00
	return data[0] == 0xFF && data[1]&0xE0 == 0xE0 && data[1]&0x06 != 0
}

// skipID3 returns data after a leading ID3v2 tag
func skipID3(data []byte) []byte {
	if len(data) < 10 {
		return data
	}
	// Tag size is a 28-bit synchsafe integer
	size := int(data[6]&0x7F)<<21 | int(data[7]&0x7F)<<14 | int(data[8]&0x7F)<<7 | int(data[9]&0x7F)
	end := 10 + size
	if end > len(data) {
		return nil
	}
	return data[end:]
}
