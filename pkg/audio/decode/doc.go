// ABOUTME: Audio decoder package for decoding packets to PCM frames
// ABOUTME: Provides Decoder interface and implementations for Opus and PCM
// Package decode provides the playout side of the codec adapter.
//
// Decoders turn one received packet into interleaved float32 samples at the
// negotiated StreamConfig. A failed decode affects only that packet; callers
// log it and move on to the next one.
//
// Example:
//
//	dec, err := decode.New(audio.CodecOpus, audio.NewStreamConfig(2))
//	samples, err := dec.Decode(packet)
package decode
