//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import (
	"fmt"

	"github.com/audiospy/audiospy-go/pkg/audio"
)

// PortAudio output implementation (stub)
type PortAudio struct{}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Open initializes PortAudio
func (p *PortAudio) Open(cfg audio.Config) error {
	return fmt.Errorf("%w: PortAudio support not enabled (build with -tags portaudio)", audio.ErrDevice)
}

// Write outputs audio samples
func (p *PortAudio) Write(b []byte) (int, error) {
	return 0, fmt.Errorf("%w: PortAudio support not enabled (build with -tags portaudio)", audio.ErrDevice)
}

// Close releases resources
func (p *PortAudio) Close() error {
	return nil
}
