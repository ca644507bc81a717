// ABOUTME: Audio encoder package for encoding PCM frames to packets
// ABOUTME: Provides Encoder interface and implementations for Opus and PCM
// Package encode provides the capture side of the codec adapter.
//
// Encoders accept exactly one frame (StreamConfig.FrameSize interleaved
// float32 samples) per call and return one packet. Anything else is rejected
// with audio.ErrFrameSize rather than silently producing a corrupt packet.
//
// Example:
//
//	enc, err := encode.New(audio.CodecOpus, audio.NewStreamConfig(2), 64000)
//	packet, err := enc.Encode(frame)
package encode
