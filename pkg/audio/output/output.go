// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback backends and backend selection
package output

import (
	"fmt"

	"github.com/audiospy/audiospy-go/pkg/audio"
)

// Device represents an audio output device
type Device interface {
	// Open initializes the output device for the given session format.
	// Formats the backend cannot play return audio.ErrFormat.
	Open(cfg audio.Config) error

	// Write queues raw PCM bytes for playback. It blocks until at least part
	// of p is accepted and returns the number of bytes taken, which may be
	// less than len(p).
	Write(p []byte) (int, error)

	// Close releases output resources
	Close() error
}

// Backend names accepted by New
const (
	BackendMalgo     = "malgo"
	BackendOto       = "oto"
	BackendPortAudio = "portaudio"
	BackendRaw       = "raw"
)

// New creates an unopened output for the named backend. rawPath is the
// destination of the raw backend; "-" or "" means standard output. A positive
// rate resamples playback to that rate. Backends with a narrower format range
// than the wire convert to s16.
func New(backend, rawPath string, rate int) (Device, error) {
	if rate < 0 {
		return nil, fmt.Errorf("invalid playback sample rate: %d", rate)
	}

	var dev Device
	switch backend {
	case BackendMalgo, "":
		dev = NewMalgo()
	case BackendOto:
		return NewConverter(NewOto(), audio.FormatS16, rate), nil
	case BackendPortAudio:
		return NewConverter(NewPortAudio(), audio.FormatS16, rate), nil
	case BackendRaw:
		dev = NewFile(rawPath)
	default:
		return nil, fmt.Errorf("unknown output backend: %q (supported: malgo, oto, portaudio, raw)", backend)
	}

	if rate > 0 {
		return NewConverter(dev, audio.FormatS16, rate), nil
	}
	return dev, nil
}
