// ABOUTME: File-backed capture device for MP3 and FLAC
// ABOUTME: Decodes a file to PCM at its native format, optionally looping
package capture

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/audiospy/audiospy-go/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
)

// File streams decoded audio from an MP3 or FLAC file. The file dictates the
// format: opening with any other config rewrites it and returns
// audio.ErrFormat, the same way a sound card reports a mismatch.
type File struct {
	path     string
	loop     bool
	realtime bool
	periodMs int

	file     *os.File
	mp3      *mp3.Decoder
	flac     *flac.Stream
	bitDepth int

	cfg   audio.Config
	buf   []byte
	pacer *pacer
}

// NewFile creates a capture device reading path. With loop set, the file
// restarts at EOF; otherwise Read fails once the file is exhausted.
func NewFile(path string, loop, realtime bool) *File {
	return &File{
		path:     path,
		loop:     loop,
		realtime: realtime,
		periodMs: DefaultPeriodMs,
	}
}

// Open decodes the file header and checks the requested format against it
func (s *File) Open(cfg *audio.Config) error {
	s.Close()

	native, err := s.openStream()
	if err != nil {
		s.Close()
		return fmt.Errorf("%w: %v", audio.ErrDevice, err)
	}

	if *cfg != native {
		requested := *cfg
		*cfg = native
		s.Close()
		return fmt.Errorf("%w: %s is %s, requested %s",
			audio.ErrFormat, filepath.Base(s.path), native, requested)
	}

	s.cfg = native
	s.buf = make([]byte, native.BytesFor(s.periodMs))
	s.pacer = newPacer(native.SampleRate)

	log.Printf("Loaded %s (%s)", filepath.Base(s.path), native)
	return nil
}

// openStream opens the file and returns its native configuration
func (s *File) openStream() (audio.Config, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return audio.Config{}, fmt.Errorf("failed to open audio file: %w", err)
	}
	s.file = f

	switch ext := strings.ToLower(filepath.Ext(s.path)); ext {
	case ".mp3":
		decoder, err := mp3.NewDecoder(f)
		if err != nil {
			return audio.Config{}, fmt.Errorf("failed to decode MP3: %w", err)
		}
		s.mp3 = decoder
		// MP3 decoder always outputs 16-bit stereo
		return audio.Config{Format: audio.FormatS16, SampleRate: decoder.SampleRate(), Channels: 2}, nil

	case ".flac":
		stream, err := flac.New(f)
		if err != nil {
			return audio.Config{}, fmt.Errorf("failed to decode FLAC: %w", err)
		}
		s.flac = stream
		s.bitDepth = int(stream.Info.BitsPerSample)
		return audio.Config{
			Format:     flacFormat(s.bitDepth),
			SampleRate: int(stream.Info.SampleRate),
			Channels:   int(stream.Info.NChannels),
		}, nil

	default:
		return audio.Config{}, fmt.Errorf("unsupported audio file: %s (supported: .mp3, .flac)", ext)
	}
}

// flacFormat picks the smallest integer format holding bitDepth
func flacFormat(bitDepth int) audio.SampleFormat {
	switch {
	case bitDepth <= 16:
		return audio.FormatS16
	case bitDepth <= 24:
		return audio.FormatS24
	default:
		return audio.FormatS32
	}
}

func (s *File) Read() ([]byte, error) {
	if s.file == nil {
		return nil, fmt.Errorf("%w: file: not opened", audio.ErrDevice)
	}

	var (
		data []byte
		err  error
	)
	for rewinds := 0; ; rewinds++ {
		if s.mp3 != nil {
			data, err = s.readMP3()
		} else {
			data, err = s.readFLAC()
		}
		if !errors.Is(err, io.EOF) {
			break
		}
		// A file yielding nothing right after a rewind would spin forever
		if !s.loop || rewinds > 0 {
			return nil, fmt.Errorf("%w: %s: %w", audio.ErrDevice, filepath.Base(s.path), io.EOF)
		}
		if err := s.rewind(); err != nil {
			return nil, fmt.Errorf("%w: %v", audio.ErrDevice, err)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", audio.ErrDevice, err)
	}

	if s.realtime {
		s.pacer.wait(len(data) / s.cfg.FrameSize())
	}
	return data, nil
}

// readMP3 fills one period; a short final period is returned whole frames only
func (s *File) readMP3() ([]byte, error) {
	n, err := io.ReadFull(s.mp3, s.buf)
	n -= n % s.cfg.FrameSize()
	if n > 0 {
		return s.buf[:n], nil
	}
	if err == io.ErrUnexpectedEOF || err == nil {
		err = io.EOF
	}
	return nil, err
}

// readFLAC decodes one FLAC frame and interleaves it in the native format
func (s *File) readFLAC() ([]byte, error) {
	frame, err := s.flac.ParseNext()
	if err != nil {
		return nil, err
	}

	blockSize := int(frame.BlockSize)
	need := blockSize * s.cfg.FrameSize()
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	buf := s.buf[:need]

	bps := s.cfg.Format.BytesPerSample()
	shift := s.bitDepth - 24
	off := 0
	for i := 0; i < blockSize; i++ {
		for ch := 0; ch < s.cfg.Channels; ch++ {
			sample := frame.Subframes[ch].Samples[i]
			// Scale to the 24-bit range PutSample expects
			if shift > 0 {
				sample >>= shift
			} else {
				sample <<= -shift
			}
			off += audio.PutSample(buf[off:off+bps], s.cfg.Format, sample)
		}
	}
	return buf, nil
}

// rewind restarts decoding from the beginning of the file
func (s *File) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	if s.mp3 != nil {
		decoder, err := mp3.NewDecoder(s.file)
		if err != nil {
			return fmt.Errorf("failed to create new decoder: %w", err)
		}
		s.mp3 = decoder
		return nil
	}
	stream, err := flac.New(s.file)
	if err != nil {
		return fmt.Errorf("failed to create new stream: %w", err)
	}
	s.flac = stream
	return nil
}

func (s *File) Close() error {
	s.mp3 = nil
	s.flac = nil
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
