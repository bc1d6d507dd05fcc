// ABOUTME: Tests for version constants
// ABOUTME: Checks the product identity and that Version is a release triple
package version

import (
	"strconv"
	"strings"
	"testing"
)

func TestIdentity(t *testing.T) {
	if Product != "umxconv" {
		t.Errorf("expected product umxconv, got %q", Product)
	}
	if Manufacturer != "Sendspin" {
		t.Errorf("expected manufacturer Sendspin, got %q", Manufacturer)
	}
}

func TestVersionIsSemver(t *testing.T) {
	parts := strings.Split(Version, ".")
	if len(parts) != 3 {
		t.Fatalf("expected major.minor.patch, got %q", Version)
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			t.Errorf("non-numeric version part %q in %q", p, Version)
		}
	}
}
