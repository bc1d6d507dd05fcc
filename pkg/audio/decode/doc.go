// ABOUTME: Audio decoder package for multiple codec support
// ABOUTME: Provides Decoder interface and implementations for WAV, MP3, FLAC, Ogg Opus and raw PCM
// Package decode turns complete encoded audio files into PCM buffers.
//
// Supports: WAV (8/16/24/32-bit PCM and 32-bit float), MP3, FLAC, Ogg Opus
// and headerless PCM (16-bit and 24-bit).
//
// All decoders implement the Decoder interface and return an audio.Buffer
// of interleaved int32 samples in 24-bit range, together with the source
// sample rate, channel count and bit depth.
//
// Example:
//
//	buf, err := decode.Auto(fileBytes)
//
// or, with the codec already known:
//
//	decoder, err := decode.New("flac")
//	buf, err := decoder.Decode(fileBytes)
package decode
