// ABOUTME: Conversion configuration
// ABOUTME: Per-call settings, defaults and validation
package convert

import (
	"fmt"
	"strings"

	"github.com/Sendspin/umxconv/pkg/it"
	"github.com/Sendspin/umxconv/pkg/umx"
)

// Output formats
const (
	FormatIT  = "it"
	FormatUMX = "umx"
)

// Defaults
const (
	DefaultFormat        = FormatUMX
	DefaultBitDepth      = 16
	DefaultSampleRate    = 22050
	DefaultStereo        = true
	DefaultExtraChannels = 2
	DefaultName          = "output"
)

// Config holds the settings of one conversion
type Config struct {
	// Format is the output container, "it" or "umx" (case-insensitive, default: umx)
	Format string

	// BitDepth is the sample storage width, 8 or 16 (default: 16)
	BitDepth int

	// SampleRate is the rate samples are stored and played at (default: 22050)
	SampleRate int

	// Stereo keeps left and right as separate samples; otherwise they are mixed down
	Stereo bool

	// ExtraChannels is how many additional tracker channels replay each sample
	ExtraChannels int

	// Name is the output base name and the exported object name. It is
	// reduced to [A-Za-z0-9_]; an empty result falls back to "output".
	Name string

	// OnSuccess is called with the output of a successful conversion
	OnSuccess func(*Output)

	// OnError is called when a conversion fails. The error is also returned.
	OnError func(error)
}

// DefaultConfig returns the default settings: 16-bit 22050 Hz stereo UMX
// with two extra channels per sample, named "output"
func DefaultConfig() Config {
	return Config{
		Format:        DefaultFormat,
		BitDepth:      DefaultBitDepth,
		SampleRate:    DefaultSampleRate,
		Stereo:        DefaultStereo,
		ExtraChannels: DefaultExtraChannels,
		Name:          DefaultName,
	}
}

// normalize fills zero values with defaults, canonicalizes the format and
// name, and validates the result
func (c Config) normalize() (Config, error) {
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if c.BitDepth == 0 {
		c.BitDepth = DefaultBitDepth
	}
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}

	c.Name = umx.SanitizeName(c.Name)
	if c.Name == "" {
		c.Name = DefaultName
	}

	if c.Format != FormatIT && c.Format != FormatUMX {
		return c, fmt.Errorf("%w: %q (supported: %s, %s)", ErrUnsupportedFormat, c.Format, FormatIT, FormatUMX)
	}
	if c.BitDepth != 8 && c.BitDepth != 16 {
		return c, fmt.Errorf("%w: bit depth %d (supported: 8, 16)", ErrInvalidConfig, c.BitDepth)
	}
	if c.SampleRate < 0 || c.SampleRate > it.MaxSampleRate {
		return c, fmt.Errorf("%w: sample rate %d (supported: 1-%d)", ErrInvalidConfig, c.SampleRate, it.MaxSampleRate)
	}
	if c.ExtraChannels < 0 {
		return c, fmt.Errorf("%w: extra channels %d", ErrInvalidConfig, c.ExtraChannels)
	}
	return c, nil
}

// Filename returns the output file name for the config's name and format
func (c Config) Filename() string {
	return c.Name + "." + c.Format
}
