//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Cross-platform audio output using PortAudio blocking streams
package output

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"

	"github.com/audiospy/audiospy-go/pkg/audio"
	"github.com/gordonklaus/portaudio"
)

// framesPerBuffer is the blocking write granularity
const framesPerBuffer = 1024

// PortAudio output implementation
type PortAudio struct {
	stream  *portaudio.Stream
	cfg     audio.Config
	pending []byte
	fill    int

	// Exactly one of these backs the stream, matching cfg.Format
	s16 []int16
	s32 []int32
	f32 []float32
	u8  []uint8
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Open initializes PortAudio
func (p *PortAudio) Open(cfg audio.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", audio.ErrDevice, err)
	}

	samples := framesPerBuffer * cfg.Channels
	var buf interface{}
	switch cfg.Format {
	case audio.FormatS16:
		p.s16 = make([]int16, samples)
		buf = &p.s16
	case audio.FormatS32:
		p.s32 = make([]int32, samples)
		buf = &p.s32
	case audio.FormatF32:
		p.f32 = make([]float32, samples)
		buf = &p.f32
	case audio.FormatU8:
		p.u8 = make([]uint8, samples)
		buf = &p.u8
	default:
		return fmt.Errorf("%w: portaudio cannot play %s", audio.ErrFormat, cfg.Format)
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: failed to initialize portaudio: %v", audio.ErrDevice, err)
	}

	stream, err := portaudio.OpenDefaultStream(0, cfg.Channels, float64(cfg.SampleRate), framesPerBuffer, buf)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("%w: failed to open stream: %v", audio.ErrDevice, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("%w: failed to start stream: %v", audio.ErrDevice, err)
	}

	p.stream = stream
	p.cfg = cfg
	p.pending = make([]byte, framesPerBuffer*cfg.FrameSize())
	p.fill = 0

	log.Printf("Audio output initialized: %s (portaudio)", cfg)
	return nil
}

// Write stages bytes and hands each full buffer to the stream
func (p *PortAudio) Write(b []byte) (int, error) {
	if p.stream == nil {
		return 0, fmt.Errorf("%w: output not opened", audio.ErrDevice)
	}

	written := 0
	for written < len(b) {
		n := copy(p.pending[p.fill:], b[written:])
		p.fill += n
		written += n
		if p.fill == len(p.pending) {
			if err := p.flush(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// flush decodes the staged bytes into the stream buffer and writes it
func (p *PortAudio) flush() error {
	switch p.cfg.Format {
	case audio.FormatS16:
		for i := range p.s16 {
			p.s16[i] = int16(binary.LittleEndian.Uint16(p.pending[i*2:]))
		}
	case audio.FormatS32:
		for i := range p.s32 {
			p.s32[i] = int32(binary.LittleEndian.Uint32(p.pending[i*4:]))
		}
	case audio.FormatF32:
		for i := range p.f32 {
			p.f32[i] = math.Float32frombits(binary.LittleEndian.Uint32(p.pending[i*4:]))
		}
	case audio.FormatU8:
		copy(p.u8, p.pending)
	}
	p.fill = 0

	if err := p.stream.Write(); err != nil && err != portaudio.OutputUnderflowed {
		return fmt.Errorf("%w: stream write: %v", audio.ErrDevice, err)
	}
	return nil
}

// Close releases resources
func (p *PortAudio) Close() error {
	if p.stream == nil {
		return nil
	}
	defer func() { p.stream = nil }()

	if err := p.stream.Stop(); err != nil {
		log.Printf("Warning: portaudio stop error: %v", err)
	}
	if err := p.stream.Close(); err != nil {
		log.Printf("Warning: portaudio close error: %v", err)
	}
	return portaudio.Terminate()
}
