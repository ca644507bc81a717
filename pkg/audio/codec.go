// ABOUTME: Codec names and errors shared by the encode and decode adapters
// ABOUTME: Keeps both sides of the link agreeing on codec identity
package audio

import "errors"

const (
	// CodecOpus is the default voice codec.
	CodecOpus = "opus"

	// CodecPCM sends raw 16-bit little-endian frames. Useful on hosts
	// without libopus and when debugging the pipeline.
	CodecPCM = "pcm"

	// MaxPacketSize bounds one encoded packet (Opus never exceeds it).
	MaxPacketSize = 4000
)

var (
	// ErrFrameSize is returned when an encoder is handed anything other than
	// exactly one frame of samples.
	ErrFrameSize = errors.New("frame size mismatch")

	// ErrUnknownCodec is returned for codec names the adapters do not know.
	ErrUnknownCodec = errors.New("unknown codec")
)

// Codecs lists the supported codec names.
func Codecs() []string {
	return []string{CodecOpus, CodecPCM}
}
