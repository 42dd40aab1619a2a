// ABOUTME: Server session controller for audiospy
// ABOUTME: Accepts one client at a time, sends the handshake and streams captured audio
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/audiospy/audiospy-go/internal/config"
	"github.com/audiospy/audiospy-go/pkg/audio"
	"github.com/audiospy/audiospy-go/pkg/audio/capture"
	"github.com/audiospy/audiospy-go/pkg/protocol"
	"github.com/audiospy/audiospy-go/pkg/transport"
	"github.com/google/uuid"
)

// State is the server session state
type State int

const (
	StateAwaitingClient State = iota
	StateClientConnected
	StateStreaming
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateAwaitingClient:
		return "awaiting client"
	case StateClientConnected:
		return "client connected"
	case StateStreaming:
		return "streaming"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Progress is ticked once per frame sent
type Progress interface {
	Tick()
}

// Status is a snapshot of the controller
type Status struct {
	State   State
	Port    int
	Session *SessionInfo
}

// Observer receives a snapshot on every state change and every frame sent.
// It is called from the controller goroutine and must not block.
type Observer interface {
	Update(Status)
}

// SessionInfo describes the client currently being served
type SessionInfo struct {
	ID      string
	Peer    string
	Audio   audio.Config
	Chunks  int64
	Bytes   int64
	Started time.Time
}

// Config holds server configuration
type Config struct {
	Port       int
	Audio      audio.Config
	NewCapture capture.Factory
	Progress   Progress
	Observer   Observer
	Logger     *slog.Logger
}

// Server streams one capture session per accepted client
type Server struct {
	config   Config
	ln       transport.Listener
	log      *slog.Logger
	progress Progress

	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

type nopProgress struct{}

func (nopProgress) Tick() {}

// New creates a server on an already bound listener. config.Audio is
// checked when Run starts.
func New(config Config, ln transport.Listener) *Server {
	s := &Server{
		config:   config,
		ln:       ln,
		log:      config.Logger,
		progress: config.Progress,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.progress == nil {
		s.progress = nopProgress{}
	}
	if s.config.NewCapture == nil {
		s.config.NewCapture = capture.NewMalgo
	}
	return s
}

// Listen binds the configured port and creates a server on it
func Listen(config Config) (*Server, error) {
	ln, err := transport.Listen(config.Port)
	if err != nil {
		return nil, err
	}
	return New(config, ln), nil
}

// Addr returns the listener address
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Close stops the server. A blocked Accept returns and Run exits with nil; a
// client being served is disconnected.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	return s.ln.Close()
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Run serves clients until Close is called or a fatal error occurs. Network
// failures while sending only drop the current client; device failures and
// accept failures are fatal.
func (s *Server) Run() error {
	defer s.ln.Close()
	defer s.notify(StateStopped, nil)

	if err := s.config.Audio.Validate(); err != nil {
		return fmt.Errorf("%w: server audio: %w", config.ErrConfig, err)
	}

	for {
		if s.isClosed() {
			return nil
		}

		s.notify(StateAwaitingClient, nil)
		s.log.Info("waiting for client...")

		conn, err := s.ln.Accept()
		if err != nil {
			if s.isClosed() {
				return nil
			}
			return fmt.Errorf("%w: accept: %w", transport.ErrNetwork, err)
		}

		if err := s.serve(conn); err != nil {
			return err
		}
	}
}

// serve runs one session. It returns nil when the client went away and an
// error when the server cannot continue.
func (s *Server) serve(conn net.Conn) error {
	s.mu.Lock()
	s.conn = conn
	closed := s.closed
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close()
	}()
	if closed {
		return nil
	}

	session := &SessionInfo{
		ID:      uuid.New().String(),
		Peer:    conn.RemoteAddr().String(),
		Started: time.Now(),
	}
	log := s.log.With("session", session.ID, "peer", session.Peer)
	log.Info("client connected")
	s.notify(StateClientConnected, session)

	dev, cfg, err := s.openCapture(log)
	if err != nil {
		return err
	}
	defer dev.Close()

	session.Audio = cfg
	log.Info("opened audio device: " + cfg.String())

	if err := transport.SendAll(conn, protocol.EncodeHello(cfg)); err != nil {
		log.Warn("failed to send handshake, dropping client", "error", err)
		return nil
	}

	s.notify(StateStreaming, session)
	for {
		frame, err := dev.Read()
		if err != nil {
			return fmt.Errorf("capture read: %w", err)
		}

		s.progress.Tick()

		if err := transport.SendAll(conn, frame); err != nil {
			log.Warn("client dropped", "error", err,
				"chunks", session.Chunks, "bytes", session.Bytes,
				"duration", time.Since(session.Started).Round(time.Millisecond))
			return nil
		}

		session.Chunks++
		session.Bytes += int64(len(frame))
		s.notify(StateStreaming, session)
	}
}

// openCapture opens a fresh capture device with the configured format. A
// format mismatch is retried once with whatever config the device left behind.
func (s *Server) openCapture(log *slog.Logger) (capture.Device, audio.Config, error) {
	cfg := s.config.Audio
	dev := s.config.NewCapture()

	err := dev.Open(&cfg)
	if errors.Is(err, audio.ErrFormat) {
		log.Warn("capture format rejected, retrying",
			"requested", s.config.Audio.String(), "retry", cfg.String(), "error", err)
		err = dev.Open(&cfg)
	}
	if err != nil {
		dev.Close()
		return nil, cfg, fmt.Errorf("open capture device: %w", err)
	}
	return dev, cfg, nil
}

func (s *Server) notify(state State, session *SessionInfo) {
	if s.config.Observer == nil {
		return
	}
	status := Status{State: state, Port: s.config.Port}
	if session != nil {
		snapshot := *session
		status.Session = &snapshot
	}
	s.config.Observer.Update(status)
}
