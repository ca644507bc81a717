// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines StreamConfig and sample conversion functions
// Package audio provides the stream parameters and sample helpers shared by
// the capture and playout pipelines.
//
// All PCM inside walkie is interleaved float32 in [-1, 1]. The codec frame is
// fixed at 20ms of 48kHz audio, so the encode and decode sides agree on the
// frame size as long as they are built from the same StreamConfig:
//
//	cfg := audio.NewStreamConfig(2)
//	cfg.FrameSize() // 1920 (960 samples per channel, 2 channels)
package audio
