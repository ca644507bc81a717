// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts file sources to the 48kHz stream rate
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation for converting between sample rates. State is
// carried between calls so a stream can be resampled chunk by chunk.
//
// Example:
//
//	r := resample.New(44100, 48000, 2)
//	out := r.Process(chunk)
package resample
