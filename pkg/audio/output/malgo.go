// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Plays raw PCM in any session format through miniaudio
package output

import (
	"fmt"
	"log"
	"sync"

	"github.com/audiospy/audiospy-go/pkg/audio"
	"github.com/gen2brain/malgo"
)

// bufferMs is the playback ring buffer capacity
const bufferMs = 500

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	cfg      audio.Config
	silence  byte
	ready    bool

	// Ring buffer for callback-based playback
	ringBuffer *audio.RingBuffer
	mu         sync.Mutex
}

// NewMalgo creates a new Malgo output
func NewMalgo() *Malgo {
	return &Malgo{}
}

// malgoFormat maps a session format to miniaudio's
func malgoFormat(f audio.SampleFormat) (malgo.FormatType, bool) {
	switch f {
	case audio.FormatU8:
		return malgo.FormatU8, true
	case audio.FormatS16:
		return malgo.FormatS16, true
	case audio.FormatS24:
		return malgo.FormatS24, true
	case audio.FormatS32:
		return malgo.FormatS32, true
	case audio.FormatF32:
		return malgo.FormatF32, true
	default:
		return malgo.FormatUnknown, false
	}
}

// silenceByte is the byte value of a zero sample
func silenceByte(f audio.SampleFormat) byte {
	if f == audio.FormatU8 {
		return 0x80
	}
	return 0
}

// Open initializes the output device with specified format
func (m *Malgo) Open(cfg audio.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// If already initialized with same format, reuse
	if m.device != nil && m.cfg == cfg {
		log.Printf("Audio output already initialized with same format, reusing device")
		return nil
	}

	format, ok := malgoFormat(cfg.Format)
	if !ok {
		return fmt.Errorf("%w: playback format %s", audio.ErrFormat, cfg.Format)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", audio.ErrDevice, err)
	}

	// If format changed, reinitialize
	if m.device != nil {
		log.Printf("Format change detected (%s -> %s), reinitializing device", m.cfg, cfg)
		m.closeDevice()
	}

	// Create malgo context if needed
	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("%w: failed to initialize malgo context: %v", audio.ErrDevice, err)
		}
		m.malgoCtx = ctx
	}

	m.ringBuffer = audio.NewRingBuffer(cfg.BytesFor(bufferMs))
	m.silence = silenceByte(cfg.Format)

	// Configure device
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = format
	deviceConfig.Playback.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	ring, silence := m.ringBuffer, m.silence
	onSamples := func(pOutputSample, _ []byte, _ uint32) {
		// Underruns are filled with silence
		ring.Read(pOutputSample, silence)
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onSamples,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to initialize playback device: %v", audio.ErrDevice, err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("%w: failed to start device: %v", audio.ErrDevice, err)
	}

	m.device = device
	m.cfg = cfg
	m.ready = true

	log.Printf("Audio output initialized: %s (malgo/%s)", cfg, formatName(format))
	return nil
}

// Write queues audio bytes, blocking while the ring buffer is full
func (m *Malgo) Write(p []byte) (int, error) {
	m.mu.Lock()
	ring, ready := m.ringBuffer, m.ready
	m.mu.Unlock()

	if !ready {
		return 0, fmt.Errorf("%w: output not initialized", audio.ErrDevice)
	}
	n, err := ring.WriteBlocking(p)
	if err != nil {
		return n, fmt.Errorf("%w: %v", audio.ErrDevice, err)
	}
	return n, nil
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeDevice()

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}

// closeDevice stops and uninitializes the device (must hold m.mu)
func (m *Malgo) closeDevice() {
	if m.ringBuffer != nil {
		m.ringBuffer.Close()
	}
	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			log.Printf("Warning: device stop error: %v", err)
		}
		m.device.Uninit()
		m.device = nil
	}
	m.ready = false
}

// formatName returns human-readable format name
func formatName(format malgo.FormatType) string {
	switch format {
	case malgo.FormatU8:
		return "U8"
	case malgo.FormatS16:
		return "S16"
	case malgo.FormatS24:
		return "S24"
	case malgo.FormatS32:
		return "S32"
	case malgo.FormatF32:
		return "F32"
	default:
		return fmt.Sprintf("Unknown(%d)", format)
	}
}
