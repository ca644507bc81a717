// ABOUTME: Audio capture package
// ABOUTME: Push-based Input interface over microphones and synthetic sources
// Package input provides capture backends.
//
// Every backend pushes interleaved float32 PCM at 48kHz, in the channel
// count chosen at Open, to a CaptureFunc. Device backends call it from the
// audio thread at hardware cadence; the tone and file sources pace
// themselves in real time with one frame per tick.
//
// Example:
//
//	in, _ := input.New(input.Config{Backend: input.BackendTone}, log)
//	err := in.Open(2)
//	err = in.Start(framer.Process)
package input
