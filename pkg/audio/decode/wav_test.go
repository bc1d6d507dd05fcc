// ABOUTME: Tests for WAV decoder
// ABOUTME: Builds RIFF files in memory and checks decoded samples and formats
package decode

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Sendspin/umxconv/pkg/audio"
	"github.com/Sendspin/umxconv/pkg/audio/encode"
)

// riffChunk returns an id/size/body chunk with pad byte
func riffChunk(id string, body []byte) []byte {
	out := []byte(id)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	out = append(out, body...)
	if len(body)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

func fmtBody(tag uint16, channels, sampleRate, bitDepth int) []byte {
	blockAlign := channels * bitDepth / 8
	le := binary.LittleEndian
	var b []byte
	b = le.AppendUint16(b, tag)
	b = le.AppendUint16(b, uint16(channels))
	b = le.AppendUint32(b, uint32(sampleRate))
	b = le.AppendUint32(b, uint32(sampleRate*blockAlign))
	b = le.AppendUint16(b, uint16(blockAlign))
	b = le.AppendUint16(b, uint16(bitDepth))
	return b
}

func buildWAV(chunks ...[]byte) []byte {
	var body []byte
	body = append(body, "WAVE"...)
	for _, c := range chunks {
		body = append(body, c...)
	}
	out := []byte("RIFF")
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	return append(out, body...)
}

func decodeWAV(t *testing.T, data []byte) audio.Buffer {
	t.Helper()
	decoder, err := NewWAV(audio.Format{Codec: "wav"})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	buf, err := decoder.Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return buf
}

func TestWAVDecode_Formats(t *testing.T) {
	f32 := func(v float32) []byte {
		return binary.LittleEndian.AppendUint32(nil, math.Float32bits(v))
	}

	tests := []struct {
		name     string
		tag      uint16
		channels int
		bitDepth int
		payload  []byte
		expected []int32
	}{
		{
			name:     "8-bit unsigned",
			tag:      wavFormatPCM,
			channels: 1,
			bitDepth: 8,
			payload:  []byte{0x80, 0xFF, 0x00},
			expected: []int32{0, 127 << 16, -128 << 16},
		},
		{
			name:     "16-bit stereo",
			tag:      wavFormatPCM,
			channels: 2,
			bitDepth: 16,
			payload:  []byte{0x00, 0x01, 0xFF, 0xFF},
			expected: []int32{256 << 8, -1 << 8},
		},
		{
			name:     "24-bit",
			tag:      wavFormatPCM,
			channels: 1,
			bitDepth: 24,
			payload:  []byte{0x01, 0x02, 0x03, 0xFF, 0xFF, 0xFF},
			expected: []int32{0x030201, -1},
		},
		{
			name:     "32-bit",
			tag:      wavFormatPCM,
			channels: 1,
			bitDepth: 32,
			payload:  []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80},
			expected: []int32{1, math.MinInt32 >> 8},
		},
		{
			name:     "32-bit float",
			tag:      wavFormatIEEEFloat,
			channels: 1,
			bitDepth: 32,
			payload:  append(append(f32(1), f32(-1)...), f32(0)...),
			expected: []int32{audio.Max24Bit, -audio.Max24Bit, 0},
		},
		{
			name:     "float clipped",
			tag:      wavFormatIEEEFloat,
			channels: 1,
			bitDepth: 32,
			payload:  f32(2.5),
			expected: []int32{audio.Max24Bit},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := buildWAV(
				riffChunk("fmt ", fmtBody(tt.tag, tt.channels, 22050, tt.bitDepth)),
				riffChunk("data", tt.payload),
			)
			buf := decodeWAV(t, data)

			if buf.Format.SampleRate != 22050 || buf.Format.Channels != tt.channels || buf.Format.BitDepth != tt.bitDepth {
				t.Errorf("unexpected format %+v", buf.Format)
			}
			if len(buf.Samples) != len(tt.expected) {
				t.Fatalf("expected %d samples, got %d", len(tt.expected), len(buf.Samples))
			}
			for i, want := range tt.expected {
				if buf.Samples[i] != want {
					t.Errorf("sample %d: got %d, want %d", i, buf.Samples[i], want)
				}
			}
		})
	}
}

func TestWAVDecode_SkipsUnknownChunks(t *testing.T) {
	data := buildWAV(
		riffChunk("LIST", []byte("INFOname")),
		riffChunk("fmt ", fmtBody(wavFormatPCM, 1, 8000, 16)),
		riffChunk("fact", []byte{1, 0, 0, 0}),
		riffChunk("data", []byte{0x10, 0x00}),
	)

	buf := decodeWAV(t, data)
	if len(buf.Samples) != 1 || buf.Samples[0] != 0x10<<8 {
		t.Errorf("unexpected samples %v", buf.Samples)
	}
}

func TestWAVDecode_Extensible(t *testing.T) {
	body := fmtBody(wavFormatExtensible, 2, 48000, 16)
	ext := make([]byte, 24)
	binary.LittleEndian.PutUint16(ext[0:2], 22) // cbSize
	binary.LittleEndian.PutUint16(ext[8:10], wavFormatPCM)
	body = append(body, ext...)

	data := buildWAV(
		riffChunk("fmt ", body),
		riffChunk("data", []byte{1, 0, 2, 0, 3, 0, 4, 0}),
	)

	buf := decodeWAV(t, data)
	if buf.Frames() != 2 || buf.Format.Channels != 2 {
		t.Errorf("expected 2 stereo frames, got %d frames of %d channels", buf.Frames(), buf.Format.Channels)
	}
}

func TestWAVDecode_RoundTripWithEncoder(t *testing.T) {
	enc, err := encode.NewWAV(audio.Format{Codec: "wav", SampleRate: 11025, Channels: 1, BitDepth: 16})
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}
	input := []int32{0, 1000 << 8, -1000 << 8, audio.Max24Bit &^ 0xFF}
	wav, err := enc.Encode(input)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	buf := decodeWAV(t, wav)
	if buf.Format.SampleRate != 11025 {
		t.Errorf("expected 11025 Hz, got %d", buf.Format.SampleRate)
	}
	for i := range input {
		if buf.Samples[i] != input[i] {
			t.Errorf("sample %d: got %d, want %d", i, buf.Samples[i], input[i])
		}
	}
}

func TestWAVSample_SignedAndUnsignedAgree(t *testing.T) {
	tests := []struct {
		name     string
		signed   int
		unsigned int
		bitDepth int
		expected int32
	}{
		{"16-bit", -1, 0xFFFF, 16, -1 << 8},
		{"24-bit", -2, 0xFFFFFE, 24, -2},
		{"32-bit", math.MinInt32, 0x80000000, 32, math.MinInt32 >> 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := wavSample(tt.signed, wavFormatPCM, tt.bitDepth)
			b := wavSample(tt.unsigned, wavFormatPCM, tt.bitDepth)
			if a != tt.expected || b != tt.expected {
				t.Errorf("expected %d, got %d (signed) and %d (unsigned)", tt.expected, a, b)
			}
		})
	}
}

func TestWAVDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"not riff", []byte("RIFX\x00\x00\x00\x00WAVE")},
		{"too short", []byte("RIFF")},
		{"no fmt", buildWAV(riffChunk("data", []byte{0, 0}))},
		{"no data", buildWAV(riffChunk("fmt ", fmtBody(wavFormatPCM, 1, 8000, 16)))},
		{"short fmt", buildWAV(riffChunk("fmt ", []byte{1, 0, 1, 0}), riffChunk("data", []byte{0, 0}))},
		{"adpcm", buildWAV(riffChunk("fmt ", fmtBody(0x0002, 1, 8000, 4)), riffChunk("data", []byte{0, 0}))},
		{"zero channels", buildWAV(riffChunk("fmt ", fmtBody(wavFormatPCM, 0, 8000, 16)), riffChunk("data", []byte{0, 0}))},
	}

	decoder, err := NewWAV(audio.Format{Codec: "wav"})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decoder.Decode(tt.data)
			if !errors.Is(err, ErrInvalidWAV) {
				t.Errorf("expected ErrInvalidWAV, got %v", err)
			}
		})
	}

	if _, err := decoder.Decode(nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestNewWAV_InvalidCodec(t *testing.T) {
	decoder, err := NewWAV(audio.Format{Codec: "mp3"})
	if err == nil {
		t.Fatal("expected error for invalid codec, got nil")
	}
	if decoder != nil {
		t.Fatal("expected decoder to be nil for invalid codec")
	}

	expectedError := "invalid codec for WAV decoder: mp3"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}
