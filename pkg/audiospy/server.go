// ABOUTME: High-level Server API for audiospy streaming
// ABOUTME: Wraps the session controller, capture selection and mDNS into one type
package audiospy

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/audiospy/audiospy-go/internal/config"
	"github.com/audiospy/audiospy-go/internal/discovery"
	"github.com/audiospy/audiospy-go/internal/server"
	"github.com/audiospy/audiospy-go/internal/version"
	"github.com/audiospy/audiospy-go/pkg/audio"
	"github.com/audiospy/audiospy-go/pkg/audio/capture"
	"github.com/audiospy/audiospy-go/pkg/transport"
)

// ErrConfig is returned by NewServer and NewPlayer for invalid configuration
var ErrConfig = config.ErrConfig

// ServerStatus is a snapshot of the server session
type ServerStatus = server.Status

// ServerState is the server session state
type ServerState = server.State

// Server session states
const (
	ServerAwaitingClient  = server.StateAwaitingClient
	ServerClientConnected = server.StateClientConnected
	ServerStreaming       = server.StateStreaming
	ServerStopped         = server.StateStopped
)

// ServerConfig configures an audiospy server
type ServerConfig struct {
	// Port to listen on; 0 picks a free port
	Port int

	// Audio is the requested capture format (default: s16/48000/2). The
	// device may change it; clients are told the effective format.
	Audio audio.Config

	// Source generates the audio. Leave nil to capture from the default
	// input device, or set NewCapture for full control.
	Source capture.SampleSource

	// NewCapture builds a capture device per client
	NewCapture capture.Factory

	// Name of the server for mDNS advertisement
	Name string

	// EnableMDNS enables mDNS service advertisement
	EnableMDNS bool

	// OnStatus is called on every state change and every chunk sent. It
	// must not block.
	OnStatus func(ServerStatus)

	// Logger receives server logs (default: slog.Default())
	Logger *slog.Logger
}

// Server is a listening audiospy server
type Server struct {
	config ServerConfig
	srv    *server.Server
	log    *slog.Logger
	mdns   *discovery.Manager
}

type statusFunc func(ServerStatus)

func (f statusFunc) Update(st ServerStatus) { f(st) }

// NewServer validates config and binds the port
func NewServer(config ServerConfig) (*Server, error) {
	if config.Audio == (audio.Config{}) {
		config.Audio = audio.DefaultConfig()
	}
	if err := config.Audio.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if config.Port < 0 || config.Port > 65535 {
		return nil, fmt.Errorf("%w: port out of range: %d", ErrConfig, config.Port)
	}
	if config.Source != nil && config.NewCapture != nil {
		return nil, fmt.Errorf("%w: set Source or NewCapture, not both", ErrConfig)
	}
	if config.Name == "" {
		config.Name = version.Product
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	newCapture := config.NewCapture
	if src := config.Source; src != nil {
		newCapture = func() capture.Device { return capture.NewSource(src, true) }
	}

	ln, err := transport.Listen(config.Port)
	if err != nil {
		return nil, err
	}
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		config.Port = addr.Port
	}

	var observer server.Observer
	if config.OnStatus != nil {
		observer = statusFunc(config.OnStatus)
	}

	srv := server.New(server.Config{
		Port:       config.Port,
		Audio:      config.Audio,
		NewCapture: newCapture,
		Observer:   observer,
		Logger:     config.Logger,
	}, ln)

	return &Server{config: config, srv: srv, log: config.Logger}, nil
}

// Addr returns the listening address
func (s *Server) Addr() net.Addr {
	return s.srv.Addr()
}

// Name returns the advertised server name
func (s *Server) Name() string {
	return s.config.Name
}

// Port returns the listening port
func (s *Server) Port() int {
	return s.config.Port
}

// Start advertises the server when enabled and serves clients until Stop is
// called or a fatal error occurs
func (s *Server) Start() error {
	if s.config.EnableMDNS {
		s.mdns = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			TXT:         discovery.ServerTXT(s.config.Audio),
			Logger:      s.log.With("component", "mdns"),
		})
		if err := s.mdns.Advertise(); err != nil {
			s.log.Warn("failed to start mDNS advertisement", "error", err)
		}
		defer s.mdns.Stop()
	}

	return s.srv.Run()
}

// Stop disconnects the current client and makes Start return
func (s *Server) Stop() error {
	return s.srv.Close()
}
