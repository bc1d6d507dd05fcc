// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts audio between different sample rates
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation for converting between sample rates.
// Handles both upsampling and downsampling. Resampler works on successive
// chunks of a stream; Buffer converts a whole decoded buffer in one call.
//
// Example:
//
//	out := resample.Buffer(decoded, 22050)
//
//	r := resample.New(44100, 48000, 2)
//	n := r.Resample(inputSamples, outputSamples)
package resample
