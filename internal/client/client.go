// ABOUTME: Client session controller for audiospy
// ABOUTME: Connects, reads the handshake, opens playback and plays the stream
package client

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"sync"

	"github.com/audiospy/audiospy-go/pkg/audio"
	"github.com/audiospy/audiospy-go/pkg/audio/output"
	"github.com/audiospy/audiospy-go/pkg/protocol"
	"github.com/audiospy/audiospy-go/pkg/transport"
)

// DefaultBufferSize is the receive buffer used when Config.BufferSize is zero
const DefaultBufferSize = 64 * 1024

// maxEmptyWrites bounds consecutive zero-byte device writes
const maxEmptyWrites = 100

// State is the client session state
type State int

const (
	StateConnecting State = iota
	StateAwaitingHandshake
	StatePlaying
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAwaitingHandshake:
		return "awaiting handshake"
	case StatePlaying:
		return "playing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Progress is ticked once per chunk received
type Progress interface {
	Tick()
}

// Config holds client configuration
type Config struct {
	Addr       netip.AddrPort
	BufferSize int
	Output     output.Device
	Dialer     transport.Dialer
	Progress   Progress
	Logger     *slog.Logger
}

// Stats counts what the session received
type Stats struct {
	Chunks int64
	Bytes  int64
}

// Client plays one stream from one server
type Client struct {
	config Config
	log    *slog.Logger

	mu     sync.Mutex
	state  State
	format audio.Config
	stats  Stats
	conn   net.Conn
	closed bool
}

// New creates a client. Config.Output is required.
func New(config Config) *Client {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBufferSize
	}
	c := &Client{config: config, log: config.Logger}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// State returns the current session state
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Format returns the configuration announced by the server, once known
func (c *Client) Format() audio.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.format
}

// Stats returns the counters of the current session
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Close interrupts a running session; Run then returns nil
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Run connects and plays until the server closes the connection, which
// returns nil. Every other failure is returned.
func (c *Client) Run() error {
	if c.config.Output == nil {
		return fmt.Errorf("%w: no output device", audio.ErrDevice)
	}
	defer c.setState(StateClosed)

	c.setState(StateConnecting)
	c.log.Debug("connecting", "addr", c.config.Addr.String())

	conn, err := transport.Dial(c.config.Dialer, c.config.Addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	c.mu.Lock()
	c.conn = conn
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil
	}

	c.setState(StateAwaitingHandshake)
	hello, err := transport.ReceiveN(conn, protocol.HelloSize)
	if err != nil {
		if c.isClosed() {
			return nil
		}
		return fmt.Errorf("handshake: %w", err)
	}
	cfg, err := protocol.DecodeHello(hello)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.format = cfg
	c.mu.Unlock()

	dev := c.config.Output
	if err := dev.Open(cfg); err != nil {
		return fmt.Errorf("open playback device for %s: %w", cfg, err)
	}
	defer dev.Close()
	c.log.Info("opened audio device: " + cfg.String())

	c.setState(StatePlaying)
	return c.stream(conn, dev)
}

// stream copies the socket to the device until EOF
func (c *Client) stream(conn net.Conn, dev output.Device) error {
	buf := make([]byte, c.config.BufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if c.config.Progress != nil {
				c.config.Progress.Tick()
			}
			if werr := writeFull(dev, buf[:n]); werr != nil {
				return werr
			}
			c.mu.Lock()
			c.stats.Chunks++
			c.stats.Bytes += int64(n)
			c.mu.Unlock()
		}
		if errors.Is(err, io.EOF) {
			stats := c.Stats()
			c.log.Info("server closed the connection", "chunks", stats.Chunks, "bytes", stats.Bytes)
			return nil
		}
		if err != nil {
			if c.isClosed() {
				return nil
			}
			return fmt.Errorf("%w: receive: %w", transport.ErrNetwork, err)
		}
	}
}

// writeFull hands all of p to the device, retrying partial writes
func writeFull(dev output.Device, p []byte) error {
	empty := 0
	for len(p) > 0 {
		n, err := dev.Write(p)
		if err != nil {
			return fmt.Errorf("playback write: %w", err)
		}
		if n == 0 {
			empty++
			if empty >= maxEmptyWrites {
				return fmt.Errorf("%w: playback write: %w", audio.ErrDevice, io.ErrShortWrite)
			}
			continue
		}
		empty = 0
		p = p[n:]
	}
	return nil
}
