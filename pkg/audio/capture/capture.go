// ABOUTME: Capture device interface definition
// ABOUTME: Common interface for audio input backends read by the server
package capture

import (
	"fmt"

	"github.com/audiospy/audiospy-go/pkg/audio"
)

// Device represents an audio input device
type Device interface {
	// Open starts capturing with the requested format. On audio.ErrFormat the
	// device may have rewritten cfg to a format it supports.
	Open(cfg *audio.Config) error

	// Read blocks until one period of audio is available. The returned slice
	// is owned by the device and only valid until the next Read.
	Read() ([]byte, error)

	// Close releases device resources. Safe to call on an unopened device.
	Close() error
}

// Factory creates a fresh, unopened device
type Factory func() Device

// DefaultPeriodMs is the amount of audio returned by one Read
const DefaultPeriodMs = 20

// periodFrames is the number of frames in ms of audio, at least one
func periodFrames(rate, ms int) int {
	if n := rate * ms / 1000; n > 0 {
		return n
	}
	return 1
}

// Backend names accepted by NewFactory
const (
	BackendMalgo = "malgo"
	BackendTone  = "tone"
	BackendFile  = "file"
)

// NewFactory returns a factory for the named backend. source is the file
// path for the file backend; loop restarts it at EOF.
func NewFactory(backend, source string, loop bool) (Factory, error) {
	switch backend {
	case BackendMalgo, "":
		return NewMalgo, nil
	case BackendTone:
		return func() Device { return NewTone(true) }, nil
	case BackendFile:
		if source == "" {
			return nil, fmt.Errorf("file capture requires a source path")
		}
		return func() Device { return NewFile(source, loop, true) }, nil
	default:
		return nil, fmt.Errorf("unknown capture backend: %q (supported: malgo, tone, file)", backend)
	}
}
