// ABOUTME: IT module layout planning
// ABOUTME: Computes section sizes, sample offsets and pattern size before emission
package it

import (
	"errors"
	"fmt"
	"math"
)

const (
	// HeaderBaseSize is the fixed part of the module header, up to the order list
	HeaderBaseSize = 0xC0

	// SampleHeaderSize is the size of one IMPS sample header
	SampleHeaderSize = 0x50

	// PatternHeaderSize precedes the packed pattern data
	PatternHeaderSize = 8

	// MaxChannels is the width of the channel pan and volume tables
	MaxChannels = 64

	// MaxSamples is the number of input channels a module can carry (left, right)
	MaxSamples = 2

	// Counts fixed by the module shape
	OrderCount      = 2
	InstrumentCount = 0
	PatternCount    = 1

	// MaxSampleRate is the largest C5Speed trackers accept
	MaxSampleRate = 9999999

	// eventSize is one packed note-on: channel, mask, note, sample
	eventSize = 4
)

var (
	ErrNoChannels       = errors.New("no input channels")
	ErrTooManySamples   = errors.New("too many input channels")
	ErrTooManyChannels  = errors.New("channel fan-out exceeds tracker channel count")
	ErrBadBitDepth      = errors.New("unsupported bit depth")
	ErrBadSampleRate    = errors.New("invalid sample rate")
	ErrBadDuration      = errors.New("invalid duration")
	ErrPatternOverflow  = errors.New("pattern too large")
	ErrMalformedWAV     = errors.New("malformed wav data")
	ErrNegativeChannels = errors.New("extra channel count must not be negative")
)

// Config holds module build settings
type Config struct {
	BitDepth      int // 8 or 16
	SampleRate    int // C5Speed of every sample
	ExtraChannels int // Duplicate tracker channels per input channel
}

// Sample describes one IT sample and where its bytes live
type Sample struct {
	Index        int // 1-based sample number used in pattern events
	HeaderOffset int // Offset of the IMPS header
	DataOffset   int // Offset of the raw PCM payload
	Length       int // Length in samples, not bytes
	Bytes        int // Payload size in bytes
}

// Layout is the byte plan of a module
type Layout struct {
	Samples         []Sample
	TrackerChannels int // Samples × (1 + ExtraChannels)
	Rows            int

	HeaderSize        int
	SampleHeadersSize int
	PatternOffset     int
	PatternDataSize   int // Packed length, excluding the pattern header
	PayloadOffset     int
	PayloadSize       int
}

// PatternSize returns the pattern header plus packed data size
func (l Layout) PatternSize() int {
	return PatternHeaderSize + l.PatternDataSize
}

// Total returns the size of the whole module
func (l Layout) Total() int {
	return l.HeaderSize + l.SampleHeadersSize + l.PatternSize() + l.PayloadSize
}

// Rows returns the pattern row count for a duration in seconds
func Rows(duration float64) (int, error) {
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration < 0 {
		return 0, fmt.Errorf("%w: %v", ErrBadDuration, duration)
	}
	// One trailing row past the rounded-up duration
	return int(math.Ceil(duration)) + 1, nil
}

// Plan computes the layout for channels with the given payload sizes in bytes
func Plan(payloadBytes []int, duration float64, cfg Config) (Layout, error) {
	if err := cfg.validate(); err != nil {
		return Layout{}, err
	}

	smpNum := len(payloadBytes)
	if smpNum == 0 {
		return Layout{}, ErrNoChannels
	}
	if smpNum > MaxSamples {
		return Layout{}, fmt.Errorf("%w: %d (max %d)", ErrTooManySamples, smpNum, MaxSamples)
	}

	// Compare before multiplying so huge counts cannot wrap
	if cfg.ExtraChannels > MaxChannels/smpNum-1 {
		return Layout{}, fmt.Errorf("%w: %d × (1 + %d) exceeds %d",
			ErrTooManyChannels, smpNum, cfg.ExtraChannels, MaxChannels)
	}
	tracker := smpNum * (1 + cfg.ExtraChannels)

	rows, err := Rows(duration)
	if err != nil {
		return Layout{}, err
	}

	// One end-of-row byte per row; the first row also carries the note-ons
	patternData := tracker*eventSize + rows
	if rows > math.MaxUint16 || patternData > math.MaxUint16 {
		return Layout{}, fmt.Errorf("%w: %d rows, %d bytes", ErrPatternOverflow, rows, patternData)
	}

	l := Layout{
		TrackerChannels:   tracker,
		Rows:              rows,
		HeaderSize:        HeaderBaseSize + OrderCount + InstrumentCount*4 + smpNum*4 + PatternCount*4,
		SampleHeadersSize: smpNum * SampleHeaderSize,
		PatternDataSize:   patternData,
	}
	l.PatternOffset = l.HeaderSize + l.SampleHeadersSize
	l.PayloadOffset = l.PatternOffset + l.PatternSize()

	bytesPerSample := cfg.BitDepth / 8
	offset := l.PayloadOffset
	l.Samples = make([]Sample, smpNum)
	for i, n := range payloadBytes {
		if n < 0 {
			return Layout{}, fmt.Errorf("%w: negative payload size for channel %d", ErrMalformedWAV, i)
		}
		l.Samples[i] = Sample{
			Index:        i + 1,
			HeaderOffset: l.HeaderSize + i*SampleHeaderSize,
			DataOffset:   offset,
			Length:       n / bytesPerSample,
			Bytes:        n,
		}
		offset += n
		l.PayloadSize += n
	}

	return l, nil
}

func (c Config) validate() error {
	if c.BitDepth != 8 && c.BitDepth != 16 {
		return fmt.Errorf("%w: %d (supported: 8, 16)", ErrBadBitDepth, c.BitDepth)
	}
	if c.SampleRate <= 0 || c.SampleRate > MaxSampleRate {
		return fmt.Errorf("%w: %d (supported: 1-%d)", ErrBadSampleRate, c.SampleRate, MaxSampleRate)
	}
	if c.ExtraChannels < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeChannels, c.ExtraChannels)
	}
	return nil
}
