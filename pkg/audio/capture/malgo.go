// ABOUTME: Malgo-based capture device
// ABOUTME: Records from the default system input via miniaudio into a ring buffer
package capture

import (
	"fmt"
	"log"

	"github.com/audiospy/audiospy-go/pkg/audio"
	"github.com/gen2brain/malgo"
)

// ringMs is the ring buffer capacity between the callback and Read
const ringMs = 500

// Malgo capture implementation using malgo/miniaudio library
type Malgo struct {
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	ring     *audio.RingBuffer
	buf      []byte
	cfg      audio.Config
	periodMs int
}

// NewMalgo creates a new Malgo capture device
func NewMalgo() Device {
	return &Malgo{periodMs: DefaultPeriodMs}
}

// malgoFormat maps a sample format to miniaudio's
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

// Open initializes the input device. miniaudio converts between the hardware
// format and the requested one, so only formats it cannot express at all are
// rejected; those are rewritten to 16-bit.
func (m *Malgo) Open(cfg *audio.Config) error {
	m.Close()

	format, ok := malgoFormat(cfg.Format)
	if !ok {
		requested := cfg.Format
		cfg.Format = audio.FormatS16
		return fmt.Errorf("%w: capture format %s", audio.ErrFormat, requested)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", audio.ErrDevice, err)
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Printf("malgo: %s", message)
	})
	if err != nil {
		return fmt.Errorf("%w: failed to initialize malgo context: %v", audio.ErrDevice, err)
	}
	m.malgoCtx = ctx

	period := periodFrames(cfg.SampleRate, m.periodMs)
	m.cfg = *cfg
	m.buf = make([]byte, period*cfg.FrameSize())
	m.ring = audio.NewRingBuffer(max(cfg.BytesFor(ringMs), 2*len(m.buf)))

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = format
	deviceConfig.Capture.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(period)
	deviceConfig.Alsa.NoMMap = 1

	ring := m.ring
	onData := func(_, pInputSamples []byte, _ uint32) {
		if n := ring.Write(pInputSamples); n < len(pInputSamples) {
			log.Printf("Capture overrun, dropped %d bytes", len(pInputSamples)-n)
		}
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onData,
	})
	if err != nil {
		m.Close()
		return fmt.Errorf("%w: failed to initialize capture device: %v", audio.ErrDevice, err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		m.Close()
		return fmt.Errorf("%w: failed to start capture device: %v", audio.ErrDevice, err)
	}
	m.device = device

	log.Printf("Audio capture initialized: %s (malgo/%s)", cfg, formatName(format))
	return nil
}

// Read blocks until one period has been captured
func (m *Malgo) Read() ([]byte, error) {
	if m.device == nil {
		return nil, fmt.Errorf("%w: capture not initialized", audio.ErrDevice)
	}
	if err := m.ring.ReadFull(m.buf); err != nil {
		return nil, fmt.Errorf("%w: %v", audio.ErrDevice, err)
	}
	return m.buf, nil
}

// Close stops the device and releases the miniaudio context
func (m *Malgo) Close() error {
	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			log.Printf("Warning: device stop error: %v", err)
		}
		m.device.Uninit()
		m.device = nil
	}
	if m.ring != nil {
		m.ring.Close()
	}
	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
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
