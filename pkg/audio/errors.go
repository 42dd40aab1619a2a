// ABOUTME: Audio device error sentinels
// ABOUTME: Shared by capture and playback backends
package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrDevice reports a capture or playback device failure
	ErrDevice = errors.New("audio device error")

	// ErrFormat is returned by Open when the device cannot use the requested
	// format. The device may have rewritten the config to one it supports.
	// errors.Is(ErrFormat, ErrDevice) holds.
	ErrFormat = fmt.Errorf("%w: format not supported", ErrDevice)
)
