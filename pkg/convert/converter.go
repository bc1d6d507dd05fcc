// ABOUTME: Stateless conversion pipeline
// ABOUTME: Decode, resample, split, WAV-encode, build IT and optionally wrap in UMX
package convert

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/Sendspin/umxconv/pkg/audio"
	"github.com/Sendspin/umxconv/pkg/audio/decode"
	"github.com/Sendspin/umxconv/pkg/audio/encode"
	"github.com/Sendspin/umxconv/pkg/audio/resample"
	"github.com/Sendspin/umxconv/pkg/it"
	"github.com/Sendspin/umxconv/pkg/umx"
	"golang.org/x/sync/errgroup"
)

// Stage identifies a step of the pipeline for progress reporting
type Stage int

const (
	StageDecode Stage = iota
	StageResample
	StageEncode
	StageModule
	StagePackage
	StageSave
	StageDone
)

var stageNames = [...]string{
	StageDecode:   "decode",
	StageResample: "resample",
	StageEncode:   "encode",
	StageModule:   "module",
	StagePackage:  "package",
	StageSave:     "save",
	StageDone:     "done",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Output is a finished conversion
type Output struct {
	Filename string
	Data     []byte

	// Duration of the converted audio in seconds
	Duration float64

	// Samples is the number of tracker samples (1 or 2)
	Samples int
}

// Converter runs conversions. It holds no per-conversion state.
type Converter struct {
	decoder  decode.Decoder // nil: detect per input
	random   io.Reader
	progress func(Stage)
	logger   *log.Logger
}

// Option configures a Converter
type Option func(*Converter)

// WithDecoder uses d for every input instead of detecting the container
func WithDecoder(d decode.Decoder) Option {
	return func(c *Converter) { c.decoder = d }
}

// WithRandom sets the source of package GUID bytes (default: crypto/rand)
func WithRandom(r io.Reader) Option {
	return func(c *Converter) { c.random = r }
}

// WithProgress registers a callback invoked as each stage starts
func WithProgress(fn func(Stage)) Option {
	return func(c *Converter) { c.progress = fn }
}

// WithLogger sets the logger for conversion details (default: discard)
func WithLogger(l *log.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// New creates a converter
func New(opts ...Option) *Converter {
	c := &Converter{
		random: rand.Reader,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert converts input to the format in cfg. On failure cfg.OnError is
// called (if set) and the error is returned; on success cfg.OnSuccess is
// called (if set) with the output.
func (c *Converter) Convert(ctx context.Context, input []byte, cfg Config) (*Output, error) {
	return c.run(ctx, input, cfg, nil)
}

func (c *Converter) run(ctx context.Context, input []byte, cfg Config, saver Saver) (*Output, error) {
	out, err := c.convert(ctx, input, cfg)
	if err == nil && saver != nil {
		c.report(StageSave)
		if err = saver.Save(out.Filename, out.Data); err != nil {
			err = fmt.Errorf("failed to save %s: %w", out.Filename, err)
		}
	}

	if err != nil {
		c.logger.Printf("Conversion failed: %v", err)
		if cfg.OnError != nil {
			cfg.OnError(err)
		}
		return nil, err
	}

	c.report(StageDone)
	if cfg.OnSuccess != nil {
		cfg.OnSuccess(out)
	}
	return out, nil
}

func (c *Converter) convert(ctx context.Context, input []byte, cfg Config) (*Output, error) {
	if len(input) == 0 {
		return nil, ErrMissingInput
	}

	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.report(StageDecode)
	buf, err := c.decode(input)
	if err != nil {
		return nil, err
	}
	c.logger.Printf("Decoded %d frames (%d Hz, %d channels, %d-bit)",
		buf.Frames(), buf.Format.SampleRate, buf.Format.Channels, buf.Format.BitDepth)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.report(StageResample)
	buf = resample.Buffer(buf, cfg.SampleRate)
	channels := audio.SplitChannels(buf, cfg.Stereo, cfg.BitDepth)
	duration := buf.Duration()

	c.report(StageEncode)
	wavs, err := encodeChannels(ctx, channels, cfg)
	if err != nil {
		return nil, err
	}

	c.report(StageModule)
	data, err := it.Build(wavs, duration, it.Config{
		BitDepth:      cfg.BitDepth,
		SampleRate:    cfg.SampleRate,
		ExtraChannels: cfg.ExtraChannels,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build module: %w", err)
	}
	c.logger.Printf("Built module: %d samples, %.2fs, %d bytes", len(channels), duration, len(data))

	if cfg.Format == FormatUMX {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c.report(StagePackage)
		data, err = umx.New(c.random).Build(data, cfg.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to build package: %w", err)
		}
		c.logger.Printf("Built package %s: %d bytes", cfg.Name, len(data))
	}

	return &Output{
		Filename: cfg.Filename(),
		Data:     data,
		Duration: duration,
		Samples:  len(channels),
	}, nil
}

func (c *Converter) decode(input []byte) (audio.Buffer, error) {
	var buf audio.Buffer
	var err error
	if c.decoder != nil {
		buf, err = c.decoder.Decode(input)
	} else {
		buf, err = decode.Auto(input)
	}
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if buf.Format.Channels <= 0 || buf.Format.SampleRate <= 0 {
		return audio.Buffer{}, fmt.Errorf("%w: decoder returned %d channels at %d Hz",
			ErrDecode, buf.Format.Channels, buf.Format.SampleRate)
	}
	return buf, nil
}

// encodeChannels WAV-encodes every channel concurrently. Results keep the
// channel order.
func encodeChannels(ctx context.Context, channels []audio.Channel, cfg Config) ([][]byte, error) {
	wavs := make([][]byte, len(channels))
	g, ctx := errgroup.WithContext(ctx)

	for i, ch := range channels {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			enc, err := encode.NewWAV(audio.Format{
				Codec:      "wav",
				SampleRate: ch.SampleRate,
				Channels:   1,
				BitDepth:   ch.BitDepth,
			})
			if err != nil {
				return fmt.Errorf("channel %d: %w", i, err)
			}
			defer enc.Close()

			wav, err := enc.Encode(ch.Samples)
			if err != nil {
				return fmt.Errorf("failed to encode channel %d: %w", i, err)
			}
			wavs[i] = wav
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to encode channels: %w", err)
	}
	return wavs, nil
}

func (c *Converter) report(s Stage) {
	if c.progress != nil {
		c.progress(s)
	}
}
