// ABOUTME: Audio encoder package for encoding PCM to storage formats
// ABOUTME: Provides Encoder interface and implementations for raw PCM and WAV
// Package encode provides encoders from int32 PCM to byte layouts.
//
// Supports: raw PCM (8, 16 and 24-bit little-endian) and canonical mono WAV
// (a 44-byte RIFF header followed by 8 or 16-bit PCM).
//
// All encoders accept int32 samples in 24-bit range. 8-bit output is
// signed, which is what the tracker sample headers declare.
//
// Example:
//
//	encoder, err := encode.NewWAV(audio.Format{Codec: "wav", SampleRate: 22050, Channels: 1, BitDepth: 16})
//	data, err := encoder.Encode(samples)
package encode
