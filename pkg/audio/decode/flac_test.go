// ABOUTME: Tests for FLAC decoder
// ABOUTME: Decodes hand-assembled verbatim FLAC streams
package decode

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/Sendspin/umxconv/pkg/audio"
)

const testFLACBlockSize = 16

func flacCRC8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func flacCRC16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x8005
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// buildFLAC assembles a 44.1kHz stream with one frame of verbatim subframes.
// channels[ch] holds testFLACBlockSize samples at bitDepth (16 or 24).
func buildFLAC(channels [][]int32, bitDepth int) []byte {
	out := []byte("fLaC")

	// STREAMINFO, last metadata block
	out = append(out, 0x80, 0x00, 0x00, 34)
	out = binary.BigEndian.AppendUint16(out, testFLACBlockSize)
	out = binary.BigEndian.AppendUint16(out, testFLACBlockSize)
	out = append(out, 0, 0, 0, 0, 0, 0) // min/max frame size unknown
	packed := uint64(44100)<<44 |
		uint64(len(channels)-1)<<41 |
		uint64(bitDepth-1)<<36 |
		uint64(testFLACBlockSize)
	out = binary.BigEndian.AppendUint64(out, packed)
	out = append(out, make([]byte, 16)...) // MD5 unset

	sizeCode := byte(0x04) // 16-bit
	if bitDepth == 24 {
		sizeCode = 0x06
	}

	frame := []byte{
		0xFF, 0xF8,                             // sync, fixed block size
		0x69,                                   // block size in 8 bits at end of header, 44.1kHz
		byte(len(channels)-1)<<4 | sizeCode<<1, // independent channels, sample size
		0x00,                                   // frame number 0
		testFLACBlockSize - 1,
	}
	frame = append(frame, flacCRC8(frame))

	for _, samples := range channels {
		frame = append(frame, 0x02) // verbatim, no wasted bits
		for _, s := range samples {
			if bitDepth == 24 {
				frame = append(frame, byte(s>>16), byte(s>>8), byte(s))
			} else {
				frame = binary.BigEndian.AppendUint16(frame, uint16(int16(s)))
			}
		}
	}
	frame = binary.BigEndian.AppendUint16(frame, flacCRC16(frame))

	return append(out, frame...)
}

func ramp(step int32) []int32 {
	out := make([]int32, testFLACBlockSize)
	for i := range out {
		out[i] = int32(i) * step
	}
	return out
}

func TestFLACDecode(t *testing.T) {
	tests := []struct {
		name     string
		channels [][]int32
		bitDepth int
		scale    int32
	}{
		{"16-bit stereo", [][]int32{ramp(100), ramp(-100)}, 16, 1 << 8},
		{"24-bit mono", [][]int32{ramp(-40000)}, 24, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoder, err := NewFLAC(audio.Format{Codec: "flac"})
			if err != nil {
				t.Fatalf("failed to create decoder: %v", err)
			}

			buf, err := decoder.Decode(buildFLAC(tt.channels, tt.bitDepth))
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}

			expectedFormat := audio.Format{Codec: "pcm", SampleRate: 44100, Channels: len(tt.channels), BitDepth: tt.bitDepth}
			if buf.Format != expectedFormat {
				t.Errorf("expected format %+v, got %+v", expectedFormat, buf.Format)
			}
			if buf.Frames() != testFLACBlockSize {
				t.Fatalf("expected %d frames, got %d", testFLACBlockSize, buf.Frames())
			}

			for ch, samples := range tt.channels {
				got := buf.Channel(ch)
				for i, s := range samples {
					if got[i] != s*tt.scale {
						t.Errorf("channel %d sample %d: got %d, want %d", ch, i, got[i], s*tt.scale)
					}
				}
			}
		})
	}
}

func TestFLACDecode_Invalid(t *testing.T) {
	decoder, err := NewFLAC(audio.Format{Codec: "flac"})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	if _, err := decoder.Decode(nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}

	if _, err := decoder.Decode([]byte{0x00, 0x01, 0x02, 0x03}); err == nil {
		t.Error("expected error for non-FLAC data")
	}

	// Corrupt the footer CRC
	data := buildFLAC([][]int32{ramp(1)}, 16)
	data[len(data)-1] ^= 0xFF
	if _, err := decoder.Decode(data); err == nil {
		t.Error("expected error for corrupt frame")
	}
}

func TestNewFLAC_InvalidCodec(t *testing.T) {
	format := audio.Format{
		Codec:      "opus",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   24,
	}

	decoder, err := NewFLAC(format)
	if err == nil {
		t.Fatal("expected error for invalid codec, got nil")
	}

	if decoder != nil {
		t.Fatal("expected decoder to be nil for invalid codec")
	}

	expectedError := "invalid codec for FLAC decoder: opus"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

func TestFLACClose(t *testing.T) {
	decoder, err := NewFLAC(audio.Format{Codec: "flac"})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	if err := decoder.Close(); err != nil {
		t.Errorf("expected Close to succeed, got error: %v", err)
	}
}
