// ABOUTME: High-level Player API for audiospy streaming
// ABOUTME: Connects to a server, reads its handshake and plays the stream
package audiospy

import (
	"fmt"
	"log/slog"
	"net/netip"

	"github.com/audiospy/audiospy-go/internal/client"
	"github.com/audiospy/audiospy-go/pkg/audio"
	"github.com/audiospy/audiospy-go/pkg/audio/output"
)

// PlayerState is the playback session state
type PlayerState = client.State

// Playback session states
const (
	PlayerConnecting        = client.StateConnecting
	PlayerAwaitingHandshake = client.StateAwaitingHandshake
	PlayerPlaying           = client.StatePlaying
	PlayerClosed            = client.StateClosed
)

// PlayerStats counts what the session received
type PlayerStats = client.Stats

// PlayerConfig holds player configuration
type PlayerConfig struct {
	// ServerAddr is the server address as IP:port
	ServerAddr string

	// Output plays the stream (default: the system output via malgo)
	Output output.Device

	// BufferSize is the receive buffer in bytes (default: 64KiB)
	BufferSize int

	// Logger receives player logs (default: slog.Default())
	Logger *slog.Logger
}

// Player plays one stream from one server
type Player struct {
	c *client.Client
}

// NewPlayer creates a player. Nothing is connected until Play.
func NewPlayer(config PlayerConfig) (*Player, error) {
	addr, err := netip.ParseAddrPort(config.ServerAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid server address %q: %w", ErrConfig, config.ServerAddr, err)
	}
	if config.Output == nil {
		config.Output = output.NewMalgo()
	}

	return &Player{c: client.New(client.Config{
		Addr:       addr,
		BufferSize: config.BufferSize,
		Output:     config.Output,
		Logger:     config.Logger,
	})}, nil
}

// Play connects and plays until the server ends the stream or Close is
// called, both of which return nil
func (p *Player) Play() error {
	return p.c.Run()
}

// Close stops playback
func (p *Player) Close() error {
	return p.c.Close()
}

// State returns the current session state
func (p *Player) State() PlayerState {
	return p.c.State()
}

// Format returns the stream format announced by the server, once known
func (p *Player) Format() audio.Config {
	return p.c.Format()
}

// Stats returns the session counters
func (p *Player) Stats() PlayerStats {
	return p.c.Stats()
}
