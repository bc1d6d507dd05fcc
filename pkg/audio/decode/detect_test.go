// ABOUTME: Tests for container detection
// ABOUTME: Checks magic byte sniffing and decoder selection
package decode

import (
	"errors"
	"testing"
)

func TestDetect(t *testing.T) {
	id3 := append([]byte("ID3\x04\x00\x00\x00\x00\x00\x02"), 0, 0)

	tests := []struct {
		name     string
		data     []byte
		expected string
		err      error
	}{
		{"wav", buildWAV(riffChunk("fmt ", fmtBody(wavFormatPCM, 1, 8000, 16))), "wav", nil},
		{"flac", []byte("fLaC\x80\x00\x00\x22"), "flac", nil},
		{"flac after id3", append(append([]byte{}, id3...), "fLaC"...), "flac", nil},
		{"ogg opus", opusHead(2), "opus", nil},
		{"mp3 frame", silentMP3(1), "mp3", nil},
		{"mp3 after id3", append(append([]byte{}, id3...), 0xFF, 0xFB), "mp3", nil},
		{"ogg vorbis", []byte("OggS\x00\x02\x01vorbis"), "", ErrUnknownFormat},
		{"riff avi", []byte("RIFF\x00\x00\x00\x00AVI "), "", ErrUnknownFormat},
		{"text", []byte("hello"), "", ErrUnknownFormat},
		{"empty", nil, "", ErrEmptyInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.data)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Errorf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	for _, codec := range []string{"wav", "mp3", "flac", "opus"} {
		t.Run(codec, func(t *testing.T) {
			decoder, err := New(codec)
			if err != nil {
				t.Fatalf("New(%q) failed: %v", codec, err)
			}
			if decoder == nil {
				t.Fatal("expected decoder")
			}
		})
	}

	if _, err := New("pcm"); err == nil || err.Error() != "unsupported codec: pcm" {
		t.Errorf("expected unsupported codec error for pcm, got %v", err)
	}
}

func TestAuto(t *testing.T) {
	data := buildWAV(
		riffChunk("fmt ", fmtBody(wavFormatPCM, 2, 16000, 16)),
		riffChunk("data", []byte{1, 0, 2, 0, 3, 0, 4, 0, 5, 0, 6, 0}),
	)

	buf, err := Auto(data)
	if err != nil {
		t.Fatalf("Auto failed: %v", err)
	}
	if buf.Frames() != 3 || buf.Format.SampleRate != 16000 {
		t.Errorf("expected 3 frames at 16000 Hz, got %d at %d", buf.Frames(), buf.Format.SampleRate)
	}

	flacBuf, err := Auto(buildFLAC([][]int32{ramp(7)}, 16))
	if err != nil {
		t.Fatalf("Auto failed on FLAC: %v", err)
	}
	if flacBuf.Frames() != testFLACBlockSize {
		t.Errorf("expected %d FLAC frames, got %d", testFLACBlockSize, flacBuf.Frames())
	}

	if _, err := Auto([]byte("garbage")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}
