// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides pull-based Output interface over malgo, oto and PortAudio
// Package output provides audio playback backends.
//
// Every backend pulls samples: the device asks a RenderFunc to fill each
// buffer with interleaved float32 PCM at 48kHz. Open negotiates the channel
// count before any render function is needed, so the caller can size its
// decoder to the device.
//
// Example:
//
//	out, _ := output.New(output.BackendMalgo, log)
//	channels, err := out.Open(0)
//	err = out.Start(engine.Render)
package output
