// ABOUTME: Tests for object name sanitization
// ABOUTME: Covers character filtering and length truncation
package umx

import (
	"strings"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already clean", "Song_01", "Song_01"},
		{"spaces and punctuation", "My Song (remix)!.mp3", "MySongremixmp3"},
		{"non-ascii", "Café-Ünïcode", "Cafncode"},
		{"empty", "", ""},
		{"only symbols", "-- !! --", ""},
		{"truncated", strings.Repeat("a", 300), strings.Repeat("a", MaxNameLength)},
		{"truncated after filtering", strings.Repeat("a-", 300), strings.Repeat("a", MaxNameLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeName(tt.input); got != tt.expected {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
