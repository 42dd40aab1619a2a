// ABOUTME: Raw PCM output to a file or any io.Writer
// ABOUTME: Used for headless clients, piping into other tools and tests
package output

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/audiospy/audiospy-go/pkg/audio"
)

// Writer copies the stream verbatim to an io.Writer. It accepts every format.
type Writer struct {
	w      io.Writer
	path   string
	file   *os.File
	cfg    audio.Config
	opened bool
}

// NewWriter creates an output writing to w. Close does not close w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// NewFile creates an output that creates path on Open. "-" or an empty path
// writes to standard output.
func NewFile(path string) *Writer {
	if path == "" || path == "-" {
		return &Writer{w: os.Stdout}
	}
	return &Writer{path: path}
}

// Open records the format and creates the destination file if needed
func (o *Writer) Open(cfg audio.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", audio.ErrDevice, err)
	}
	if o.path != "" && o.file == nil {
		f, err := os.Create(o.path)
		if err != nil {
			return fmt.Errorf("%w: %v", audio.ErrDevice, err)
		}
		o.file = f
		o.w = f
	}
	o.cfg = cfg
	o.opened = true

	log.Printf("Raw output initialized: %s", cfg)
	return nil
}

// Write passes p through to the destination
func (o *Writer) Write(p []byte) (int, error) {
	if !o.opened {
		return 0, fmt.Errorf("%w: output not initialized", audio.ErrDevice)
	}
	n, err := o.w.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: %v", audio.ErrDevice, err)
	}
	return n, nil
}

// Format returns the configuration passed to Open
func (o *Writer) Format() audio.Config {
	return o.cfg
}

// Close closes the destination file, if this output created it
func (o *Writer) Close() error {
	o.opened = false
	if o.file == nil {
		return nil
	}
	err := o.file.Close()
	o.file = nil
	return err
}
