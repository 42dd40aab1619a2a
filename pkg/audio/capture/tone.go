// ABOUTME: Test tone generator capture device
// ABOUTME: Generates a 440Hz sine wave in any supported sample format
package capture

import (
	"fmt"
	"math"

	"github.com/audiospy/audiospy-go/pkg/audio"
)

// Tone generates a sine wave instead of reading hardware
type Tone struct {
	frequency   float64
	realtime    bool
	periodMs    int
	cfg         audio.Config
	buf         []byte
	sampleIndex uint64
	pacer       *pacer
	opened      bool
}

// NewTone creates a 440Hz generator. When realtime is set, Read blocks to
// match the sample rate like a real device.
func NewTone(realtime bool) *Tone {
	return &Tone{
		frequency: 440.0, // A4 note
		realtime:  realtime,
		periodMs:  DefaultPeriodMs,
	}
}

// Open accepts any valid configuration
func (s *Tone) Open(cfg *audio.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: tone: %v", audio.ErrDevice, err)
	}

	s.cfg = *cfg
	s.buf = make([]byte, cfg.BytesFor(s.periodMs))
	if len(s.buf) == 0 {
		s.buf = make([]byte, cfg.FrameSize())
	}
	s.sampleIndex = 0
	s.pacer = newPacer(cfg.SampleRate)
	s.opened = true
	return nil
}

func (s *Tone) Read() ([]byte, error) {
	if !s.opened {
		return nil, fmt.Errorf("%w: tone: not opened", audio.ErrDevice)
	}

	bps := s.cfg.Format.BytesPerSample()
	frames := len(s.buf) / s.cfg.FrameSize()

	off := 0
	for i := 0; i < frames; i++ {
		t := float64(s.sampleIndex+uint64(i)) / float64(s.cfg.SampleRate)
		sample := math.Sin(2 * math.Pi * s.frequency * t)

		// 50% volume to avoid clipping
		pcmValue := int32(sample * audio.Max24Bit * 0.5)

		for ch := 0; ch < s.cfg.Channels; ch++ {
			off += audio.PutSample(s.buf[off:off+bps], s.cfg.Format, pcmValue)
		}
	}
	s.sampleIndex += uint64(frames)

	if s.realtime {
		s.pacer.wait(frames)
	}
	return s.buf, nil
}

func (s *Tone) Close() error {
	s.opened = false
	return nil
}
