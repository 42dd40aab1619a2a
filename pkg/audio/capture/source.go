// ABOUTME: Capture device backed by a sample generator
// ABOUTME: Adapts any SampleSource producing int32 samples to the wire sample format
package capture

import (
	"fmt"

	"github.com/audiospy/audiospy-go/pkg/audio"
	"github.com/audiospy/audiospy-go/pkg/audio/encode"
)

// SampleSource provides PCM samples in the 24-bit range for streaming
type SampleSource interface {
	// Read fills samples with interleaved frames and returns how many
	// samples it wrote
	Read(samples []int32) (int, error)

	// SampleRate returns the sample rate of the audio
	SampleRate() int

	// Channels returns the number of channels
	Channels() int

	// Close closes the source
	Close() error
}

// Source is a capture device reading from a SampleSource. The source fixes
// rate and channels; any sample format is produced.
type Source struct {
	src      SampleSource
	realtime bool
	periodMs int

	cfg     audio.Config
	encoder *encode.PCMEncoder
	samples []int32
	buf     []byte
	pacer   *pacer
	opened  bool
}

// NewSource wraps src. When realtime is set, Read blocks to match the sample
// rate like a real device.
func NewSource(src SampleSource, realtime bool) *Source {
	return &Source{src: src, realtime: realtime, periodMs: DefaultPeriodMs}
}

// Open accepts cfg when its rate and channel count match the source. On a
// mismatch cfg is rewritten to the source's and audio.ErrFormat is returned.
func (s *Source) Open(cfg *audio.Config) error {
	if cfg.SampleRate != s.src.SampleRate() || cfg.Channels != s.src.Channels() {
		requested := cfg.String()
		cfg.SampleRate = s.src.SampleRate()
		cfg.Channels = s.src.Channels()
		return fmt.Errorf("%w: source produces %s, requested %s", audio.ErrFormat, cfg, requested)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: source: %v", audio.ErrDevice, err)
	}

	enc, err := encode.NewPCM(cfg.Format)
	if err != nil {
		return fmt.Errorf("%w: source: %v", audio.ErrDevice, err)
	}

	frames := periodFrames(cfg.SampleRate, s.periodMs)
	s.cfg = *cfg
	s.encoder = enc
	s.samples = make([]int32, frames*cfg.Channels)
	s.buf = make([]byte, 0, frames*cfg.FrameSize())
	s.pacer = newPacer(cfg.SampleRate)
	s.opened = true
	return nil
}

func (s *Source) Read() ([]byte, error) {
	if !s.opened {
		return nil, fmt.Errorf("%w: source: not opened", audio.ErrDevice)
	}

	n, err := s.src.Read(s.samples)
	if err != nil {
		return nil, fmt.Errorf("%w: source: %v", audio.ErrDevice, err)
	}
	n -= n % s.cfg.Channels
	if n == 0 {
		return nil, fmt.Errorf("%w: source: no samples", audio.ErrDevice)
	}

	s.buf = s.encoder.EncodeInto(s.buf[:0], s.samples[:n])
	if s.realtime {
		s.pacer.wait(n / s.cfg.Channels)
	}
	return s.buf, nil
}

// Close closes the device. The underlying source stays open so a factory can
// hand it to the next session; close it with the SampleSource itself.
func (s *Source) Close() error {
	s.opened = false
	return nil
}
