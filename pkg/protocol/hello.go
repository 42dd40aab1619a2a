// ABOUTME: Hello handshake message codec
// ABOUTME: Encodes and decodes the fixed 8-byte format announcement sent by the server
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/audiospy/audiospy-go/pkg/audio"
)

const (
	// Version is the only protocol version
	Version = 1

	// OpHello is the opcode of the handshake message
	OpHello = 1

	// HelloSize is the fixed size of the handshake message on the wire
	HelloSize = 8
)

// Field offsets within the Hello message
const (
	offVersion    = 0
	offOpcode     = 1
	offFormat     = 2
	offChannels   = 3
	offSampleRate = 4
)

// ErrProtocol reports a malformed handshake
var ErrProtocol = errors.New("protocol error")

// EncodeHello returns the Hello message announcing cfg
func EncodeHello(cfg audio.Config) []byte {
	return AppendHello(make([]byte, 0, HelloSize), cfg)
}

// AppendHello appends the Hello message announcing cfg to dst.
// Channels and sample rate are truncated to their field widths.
func AppendHello(dst []byte, cfg audio.Config) []byte {
	var b [HelloSize]byte
	b[offVersion] = Version
	b[offOpcode] = OpHello
	b[offFormat] = byte(cfg.Format)
	b[offChannels] = byte(cfg.Channels)
	binary.BigEndian.PutUint32(b[offSampleRate:], uint32(cfg.SampleRate))
	return append(dst, b[:]...)
}

// DecodeHello parses an assembled Hello message. Format and channels are
// returned as sent; only version and opcode are checked.
func DecodeHello(b []byte) (audio.Config, error) {
	if len(b) < HelloSize {
		return audio.Config{}, fmt.Errorf("%w: hello too short: %d bytes", ErrProtocol, len(b))
	}
	if b[offVersion] != Version || b[offOpcode] != OpHello {
		return audio.Config{}, fmt.Errorf("%w: bad hello (version=%d opcode=%d)",
			ErrProtocol, b[offVersion], b[offOpcode])
	}

	return audio.Config{
		Format:     audio.SampleFormat(b[offFormat]),
		Channels:   int(b[offChannels]),
		SampleRate: int(binary.BigEndian.Uint32(b[offSampleRate:])),
	}, nil
}
