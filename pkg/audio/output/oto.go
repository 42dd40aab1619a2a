// ABOUTME: Oto-based audio output implementation
// ABOUTME: Streams raw PCM into a persistent oto player through a pipe
package output

import (
	"fmt"
	"io"
	"log"

	"github.com/audiospy/audiospy-go/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

// Oto output implementation using oto library
type Oto struct {
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	cfg        audio.Config
	ready      bool
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	return &Oto{}
}

// otoFormat maps a session format to one oto can play natively
func otoFormat(f audio.SampleFormat) (oto.Format, bool) {
	switch f {
	case audio.FormatU8:
		return oto.FormatUnsignedInt8, true
	case audio.FormatS16:
		return oto.FormatSignedInt16LE, true
	case audio.FormatF32:
		return oto.FormatFloat32LE, true
	default:
		return 0, false
	}
}

// Open initializes the output device
func (o *Oto) Open(cfg audio.Config) error {
	format, ok := otoFormat(cfg.Format)
	if !ok {
		return fmt.Errorf("%w: oto cannot play %s (supported: u8, s16, f32)", audio.ErrFormat, cfg.Format)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", audio.ErrDevice, err)
	}

	// oto allows only one context per process
	if o.otoCtx != nil && o.cfg != cfg {
		return fmt.Errorf("%w: oto cannot switch from %s to %s", audio.ErrDevice, o.cfg, cfg)
	}

	if o.otoCtx == nil {
		ctx, readyChan, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: cfg.Channels,
			Format:       format,
		})
		if err != nil {
			return fmt.Errorf("%w: failed to create oto context: %v", audio.ErrDevice, err)
		}
		<-readyChan
		o.otoCtx = ctx
		o.cfg = cfg
	} else if err := o.otoCtx.Resume(); err != nil {
		return fmt.Errorf("%w: failed to resume oto context: %v", audio.ErrDevice, err)
	}

	// Create pipe for continuous streaming
	o.pipeReader, o.pipeWriter = io.Pipe()

	// Create persistent player that reads from the pipe
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()

	o.ready = true

	log.Printf("Audio output initialized: %s (oto)", cfg)
	return nil
}

// Write feeds the player; it blocks until the player has consumed p
func (o *Oto) Write(p []byte) (int, error) {
	if !o.ready {
		return 0, fmt.Errorf("%w: output not initialized", audio.ErrDevice)
	}

	n, err := o.pipeWriter.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: pipe write failed: %v", audio.ErrDevice, err)
	}
	return n, nil
}

// Close releases output resources
func (o *Oto) Close() error {
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.otoCtx != nil && o.ready {
		if err := o.otoCtx.Suspend(); err != nil {
			log.Printf("Warning: oto suspend error: %v", err)
		}
	}
	o.ready = false
	return nil
}
