// ABOUTME: File capture source for broadcasting audio files
// ABOUTME: Decodes MP3 and FLAC, remixes and resamples to the stream, loops at EOF
package input

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
	"github.com/walkie-lan/walkie/pkg/audio"
	"github.com/walkie-lan/walkie/pkg/audio/resample"
	"go.uber.org/zap"
)

// readChunk is how many source samples are decoded per refill
const readChunk = 4096

// pcmSource yields interleaved float32 samples at its native format and
// returns io.EOF at the end of the file.
type pcmSource interface {
	read(dst []float32) (int, error)
	sampleRate() int
	channels() int
	close() error
}

// File streams an audio file as if it were a microphone
type File struct {
	paced
	path   string
	opener func(path string) (pcmSource, error)

	src       pcmSource
	resampler *resample.Resampler
	chunk     []float32
	pending   []float32
	produced  bool
}

// NewFile creates a file input for an .mp3 or .flac path
func NewFile(path string, log *zap.SugaredLogger) Input {
	return &File{
		paced: newPaced(BackendFile, log),
		path:   path,
		opener: openSource,
	}
}

// Open decodes the file header and prepares conversion to channels
func (f *File) Open(channels int) error {
	src, err := f.opener(f.path)
	if err != nil {
		return err
	}

	f.open(channels)
	f.src = src
	f.resampler = resample.New(src.sampleRate(), audio.SampleRate, channels)
	f.chunk = make([]float32, readChunk*src.channels())

	f.log.Infow("Loaded audio file",
		"path", f.path,
		"sample_rate", src.sampleRate(),
		"channels", src.channels(),
		"stream_channels", channels,
	)
	return nil
}

// Start begins streaming
func (f *File) Start(capture CaptureFunc) error {
	return f.start(capture, f.fill)
}

// fill produces exactly len(out) stream samples, rewinding at EOF
func (f *File) fill(out []float32) error {
	for len(f.pending) < len(out) {
		n, err := f.src.read(f.chunk)
		if n > 0 {
			f.produced = true
			mixed := audio.Remix(f.chunk[:n], f.src.channels(), f.stream.Channels)
			f.pending = append(f.pending, f.resampler.Process(mixed)...)
		}

		switch {
		case errors.Is(err, io.EOF):
			if !f.produced {
				return fmt.Errorf("%s: no audio", f.path)
			}
			if err := f.rewind(); err != nil {
				return err
			}
		case err != nil:
			return err
		}
	}

	copy(out, f.pending)
	f.pending = append(f.pending[:0], f.pending[len(out):]...)
	return nil
}

// rewind reopens the file so playback loops
func (f *File) rewind() error {
	_ = f.src.close()

	src, err := f.opener(f.path)
	if err != nil {
		return fmt.Errorf("failed to reopen %s: %w", f.path, err)
	}
	f.src = src
	f.produced = false
	f.log.Debugw("Looping audio file", "path", f.path)
	return nil
}

// Close stops streaming and closes the file
func (f *File) Close() error {
	f.halt()
	if f.src != nil {
		err := f.src.close()
		f.src = nil
		return err
	}
	return nil
}

// openSource picks a decoder by file extension
func openSource(path string) (pcmSource, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3":
		return newMP3Source(path)
	case ".flac":
		return newFLACSource(path)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .flac)", ext)
	}
}

// mp3Source reads from an MP3 file. go-mp3 always decodes to 16-bit stereo.
// A read may end in the middle of a sample; the odd byte is held back and
// prefixed to the next read.
type mp3Source struct {
	file io.Closer
	pcm  io.Reader
	rate int
	buf  []byte

	odd    byte
	hasOdd bool
}

func newMP3Source(path string) (*mp3Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	return &mp3Source{file: f, pcm: decoder, rate: decoder.SampleRate()}, nil
}

func (s *mp3Source) read(dst []float32) (int, error) {
	if cap(s.buf) < len(dst)*2 {
		s.buf = make([]byte, len(dst)*2)
	}
	buf := s.buf[:len(dst)*2]

	n := 0
	if s.hasOdd {
		buf[0] = s.odd
		n = 1
		s.hasOdd = false
	}
	m, err := s.pcm.Read(buf[n:])
	n += m

	samples := n / 2
	for i := 0; i < samples; i++ {
		dst[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(buf[i*2:])))
	}
	if n%2 == 1 {
		s.odd = buf[n-1]
		s.hasOdd = true
	}
	return samples, err
}

func (s *mp3Source) sampleRate() int { return s.rate }
func (s *mp3Source) channels() int   { return 2 }
func (s *mp3Source) close() error    { return s.file.Close() }

// flacSource reads from a FLAC file, carrying the tail of each decoded
// block over to the next read
type flacSource struct {
	file     *os.File
	stream   *flac.Stream
	rate     int
	nch      int
	bitDepth int
	leftover []float32
}

func newFLACSource(path string) (*flacSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	return &flacSource{
		file:     f,
		stream:   stream,
		rate:     int(info.SampleRate),
		nch:      int(info.NChannels),
		bitDepth: int(info.BitsPerSample),
	}, nil
}

func (s *flacSource) read(dst []float32) (int, error) {
	n := copy(dst, s.leftover)
	s.leftover = s.leftover[n:]

	for n < len(dst) {
		frame, err := s.stream.ParseNext()
		if err != nil {
			return n, err
		}

		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < s.nch; ch++ {
				v := audio.SampleFromInt32(frame.Subframes[ch].Samples[i], s.bitDepth)
				if n < len(dst) {
					dst[n] = v
					n++
				} else {
					s.leftover = append(s.leftover, v)
				}
			}
		}
	}
	return n, nil
}

func (s *flacSource) sampleRate() int { return s.rate }
func (s *flacSource) channels() int   { return s.nch }
func (s *flacSource) close() error    { return s.file.Close() }
