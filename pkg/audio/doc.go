// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer, Channel types and sample conversion functions
// Package audio provides the PCM types shared by the decoders, the WAV
// encoder and the tracker module builder.
//
// This package defines:
//   - Format: Describes audio stream format (codec, sample rate, channels, bit depth)
//   - Buffer: Fully decoded, interleaved PCM audio
//   - Channel: One mono PCM stream destined to become one tracker sample
//
// Samples are int32 values in 24-bit range. Conversion helpers narrow them to
// the 8-bit and 16-bit widths the tracker format stores:
//   - 8/16-bit ↔ 24-bit conversions
//   - int32 ↔ packed byte conversions
//
// Example:
//
//	buf := audio.Buffer{Samples: samples, Format: audio.Format{SampleRate: 22050, Channels: 2}}
//	channels := audio.SplitChannels(buf, true, 16) // left, right
package audio
