// ABOUTME: Text progress indicators for the console
// ABOUTME: A carriage-return spinner and a no-op indicator for silent runs
package ui

import (
	"io"
	"sync"
)

// spinnerFrames is the sequence drawn by Spinner, one character per tick
const spinnerFrames = `|/-|/-\`

// Spinner redraws a single character in place on every tick
type Spinner struct {
	mu  sync.Mutex
	w   io.Writer
	pos int
	buf [2]byte
}

// NewSpinner creates a spinner drawing to w
func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{w: w, buf: [2]byte{'\r'}}
}

// Tick advances the spinner by one frame. Write errors are ignored.
func (s *Spinner) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf[1] = spinnerFrames[s.pos]
	s.pos = (s.pos + 1) % len(spinnerFrames)
	s.w.Write(s.buf[:])
}

// Nop is a progress indicator that draws nothing
type Nop struct{}

func (Nop) Tick() {}
