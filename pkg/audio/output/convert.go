// ABOUTME: Converting output wrapper
// ABOUTME: Falls back to a playable sample format and optional rate, converting the stream on the fly
package output

import (
	"errors"
	"fmt"
	"log"

	"github.com/audiospy/audiospy-go/pkg/audio"
	"github.com/audiospy/audiospy-go/pkg/audio/decode"
	"github.com/audiospy/audiospy-go/pkg/audio/encode"
	"github.com/audiospy/audiospy-go/pkg/audio/resample"
)

// Converter plays a session through an inner device that may not support the
// session format. When the inner device rejects the format with
// audio.ErrFormat it is reopened with the fallback format, and every Write is
// decoded, resampled and re-encoded to match.
type Converter struct {
	inner    Device
	fallback audio.SampleFormat
	rate     int

	in, out   audio.Config
	convert   bool
	decoder   *decode.PCMDecoder
	encoder   *encode.PCMEncoder
	resampler *resample.Resampler

	pending []byte
	samples []int32
	scratch []int32
	buf     []byte
}

// NewConverter wraps inner. rate, when positive, forces the playback sample
// rate; zero keeps the session rate.
func NewConverter(inner Device, fallback audio.SampleFormat, rate int) *Converter {
	return &Converter{inner: inner, fallback: fallback, rate: rate}
}

// Open opens the inner device, falling back to the configured format once
func (c *Converter) Open(cfg audio.Config) error {
	out := cfg
	if c.rate > 0 {
		out.SampleRate = c.rate
	}

	err := c.inner.Open(out)
	if errors.Is(err, audio.ErrFormat) && out.Format != c.fallback {
		log.Printf("Output cannot play %s, converting to %s", out.Format, c.fallback)
		out.Format = c.fallback
		err = c.inner.Open(out)
	}
	if err != nil {
		return err
	}

	c.in, c.out = cfg, out
	c.pending = c.pending[:0]
	c.convert = out != cfg
	if !c.convert {
		return nil
	}

	if c.decoder, err = decode.NewPCM(cfg.Format); err != nil {
		return fmt.Errorf("%w: %w", audio.ErrDevice, err)
	}
	if c.encoder, err = encode.NewPCM(out.Format); err != nil {
		return fmt.Errorf("%w: %w", audio.ErrDevice, err)
	}
	c.resampler = nil
	if cfg.SampleRate != out.SampleRate {
		c.resampler = resample.New(cfg.SampleRate, out.SampleRate, cfg.Channels)
	}

	log.Printf("Converting playback %s -> %s", cfg, out)
	return nil
}

// Format returns the format the inner device was opened with
func (c *Converter) Format() audio.Config {
	return c.out
}

// Write converts p and hands the result to the inner device. A trailing
// partial frame is kept until the next Write, so all of p is always taken.
func (c *Converter) Write(p []byte) (int, error) {
	if !c.convert {
		return c.inner.Write(p)
	}

	c.pending = append(c.pending, p...)
	frameSize := c.in.FrameSize()
	whole := len(c.pending) / frameSize * frameSize
	if whole == 0 {
		return len(p), nil
	}

	var err error
	c.samples, err = c.decoder.DecodeInto(c.samples[:0], c.pending[:whole])
	if err != nil {
		return 0, fmt.Errorf("%w: %w", audio.ErrDevice, err)
	}
	rest := copy(c.pending, c.pending[whole:])
	c.pending = c.pending[:rest]

	samples := c.samples
	if c.resampler != nil {
		c.scratch = c.resampler.Resample(c.scratch[:0], samples)
		samples = c.scratch
	}

	c.buf = c.encoder.EncodeInto(c.buf[:0], samples)
	for data := c.buf; len(data) > 0; {
		n, err := c.inner.Write(data)
		if err != nil {
			return 0, err
		}
		data = data[n:]
	}
	return len(p), nil
}

// Close closes the inner device
func (c *Converter) Close() error {
	c.convert = false
	return c.inner.Close()
}
