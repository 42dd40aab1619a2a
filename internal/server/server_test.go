// ABOUTME: Tests for the server session controller
// ABOUTME: Loopback sessions against fake capture devices
package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/audiospy/audiospy-go/internal/config"
	"github.com/audiospy/audiospy-go/pkg/audio"
	"github.com/audiospy/audiospy-go/pkg/audio/capture"
	"github.com/audiospy/audiospy-go/pkg/protocol"
	"github.com/audiospy/audiospy-go/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCapture produces numbered frames of frameSize bytes
type fakeCapture struct {
	stats     *captureStats
	native    *audio.Config
	openErr   error
	failAfter int // read error after this many frames, 0 never
	frameSize int

	opened bool
	frames int
}

type captureStats struct {
	mu     sync.Mutex
	opens  int
	closes int
	made   int
}

func (st *captureStats) get() (opens, closes, made int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.opens, st.closes, st.made
}

func (f *fakeCapture) Open(cfg *audio.Config) error {
	f.stats.mu.Lock()
	f.stats.opens++
	f.stats.mu.Unlock()

	if f.openErr != nil {
		return f.openErr
	}
	if f.native != nil && *cfg != *f.native {
		*cfg = *f.native
		return fmt.Errorf("%w: fake", audio.ErrFormat)
	}
	f.opened = true
	return nil
}

func (f *fakeCapture) Read() ([]byte, error) {
	if !f.opened {
		return nil, fmt.Errorf("%w: not opened", audio.ErrDevice)
	}
	if f.failAfter > 0 && f.frames >= f.failAfter {
		return nil, fmt.Errorf("%w: unplugged", audio.ErrDevice)
	}
	time.Sleep(time.Millisecond)
	frame := make([]byte, f.frameSize)
	for i := range frame {
		frame[i] = byte(f.frames)
	}
	f.frames++
	return frame, nil
}

func (f *fakeCapture) Close() error {
	f.stats.mu.Lock()
	f.stats.closes++
	f.stats.mu.Unlock()
	f.opened = false
	return nil
}

// factory returns a capture.Factory building copies of proto
func factory(proto fakeCapture) (capture.Factory, *captureStats) {
	stats := &captureStats{}
	return func() capture.Device {
		stats.mu.Lock()
		stats.made++
		stats.mu.Unlock()
		dev := proto
		dev.stats = stats
		if dev.frameSize == 0 {
			dev.frameSize = 64
		}
		return &dev
	}, stats
}

// recorder collects observed states
type recorder struct {
	mu       sync.Mutex
	states   []State
	sessions []string
}

func (r *recorder) Update(st Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.states); n == 0 || r.states[n-1] != st.State {
		r.states = append(r.states, st.State)
	}
	if st.Session != nil {
		if n := len(r.sessions); n == 0 || r.sessions[n-1] != st.Session.ID {
			r.sessions = append(r.sessions, st.Session.ID)
		}
	}
}

func (r *recorder) snapshot() ([]State, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...), append([]string(nil), r.sessions...)
}

type countingProgress struct {
	mu sync.Mutex
	n  int
}

func (p *countingProgress) Tick() {
	p.mu.Lock()
	p.n++
	p.mu.Unlock()
}

func startServer(t *testing.T, cfg Config) (*Server, chan error) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(cfg, ln)
	done := make(chan error, 1)
	go func() { done <- srv.Run() }()
	t.Cleanup(func() { srv.Close() })
	return srv, done
}

func dial(t *testing.T, srv *Server) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readHello(t *testing.T, conn net.Conn) audio.Config {
	t.Helper()
	b, err := transport.ReceiveN(conn, protocol.HelloSize)
	require.NoError(t, err)
	cfg, err := protocol.DecodeHello(b)
	require.NoError(t, err)
	return cfg
}

func waitRun(t *testing.T, done chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
		return nil
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "awaiting client", StateAwaitingClient.String())
	assert.Equal(t, "client connected", StateClientConnected.String())
	assert.Equal(t, "streaming", StateStreaming.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestHandshakeThenStream(t *testing.T) {
	newCapture, stats := factory(fakeCapture{frameSize: 32})
	progress := &countingProgress{}
	cfg := audio.Config{Format: audio.FormatS24, SampleRate: 96000, Channels: 2}
	srv, done := startServer(t, Config{Audio: cfg, NewCapture: newCapture, Progress: progress})

	conn := dial(t, srv)

	// First 8 bytes are the handshake, then frames follow in capture order
	assert.Equal(t, cfg, readHello(t, conn))
	for i := 0; i < 5; i++ {
		frame, err := transport.ReceiveN(conn, 32)
		require.NoError(t, err)
		for _, b := range frame {
			require.Equal(t, byte(i), b, "frame %d", i)
		}
	}

	require.NoError(t, srv.Close())
	assert.NoError(t, waitRun(t, done))

	opens, closes, made := stats.get()
	assert.Equal(t, 1, made)
	assert.Equal(t, 1, opens)
	assert.Equal(t, 1, closes)

	progress.mu.Lock()
	assert.GreaterOrEqual(t, progress.n, 5)
	progress.mu.Unlock()
}

func TestRecoversAfterClientDrop(t *testing.T) {
	newCapture, stats := factory(fakeCapture{})
	rec := &recorder{}
	srv, done := startServer(t, Config{Audio: audio.DefaultConfig(), NewCapture: newCapture, Observer: rec})

	first := dial(t, srv)
	assert.Equal(t, audio.DefaultConfig(), readHello(t, first))
	_, err := transport.ReceiveN(first, 64)
	require.NoError(t, err)
	first.Close()

	// The next client gets a fresh handshake from a freshly opened device
	second := dial(t, srv)
	assert.Equal(t, audio.DefaultConfig(), readHello(t, second))
	frame, err := transport.ReceiveN(second, 64)
	require.NoError(t, err)
	assert.Equal(t, byte(0), frame[0], "new device starts from its first frame")

	require.NoError(t, srv.Close())
	assert.NoError(t, waitRun(t, done))

	opens, closes, made := stats.get()
	assert.Equal(t, 2, made)
	assert.Equal(t, 2, opens)
	assert.Equal(t, 2, closes)

	states, sessions := rec.snapshot()
	assert.Equal(t, []State{
		StateAwaitingClient, StateClientConnected, StateStreaming,
		StateAwaitingClient, StateClientConnected, StateStreaming,
		StateStopped,
	}, states)
	require.Len(t, sessions, 2)
	assert.NotEqual(t, sessions[0], sessions[1])
}

func TestFormatRetry(t *testing.T) {
	native := audio.Config{Format: audio.FormatS16, SampleRate: 44100, Channels: 2}
	newCapture, stats := factory(fakeCapture{native: &native})
	requested := audio.Config{Format: audio.FormatF32, SampleRate: 48000, Channels: 2}
	srv, done := startServer(t, Config{Audio: requested, NewCapture: newCapture})

	conn := dial(t, srv)
	assert.Equal(t, native, readHello(t, conn), "handshake carries the effective format")

	require.NoError(t, srv.Close())
	assert.NoError(t, waitRun(t, done))

	opens, _, _ := stats.get()
	assert.Equal(t, 2, opens)
}

func TestFormatRetryOnlyOnce(t *testing.T) {
	newCapture, stats := factory(fakeCapture{openErr: fmt.Errorf("%w: always", audio.ErrFormat)})
	srv, done := startServer(t, Config{Audio: audio.DefaultConfig(), NewCapture: newCapture})

	conn := dial(t, srv)

	err := waitRun(t, done)
	require.ErrorIs(t, err, audio.ErrFormat)
	assert.ErrorIs(t, err, audio.ErrDevice)

	opens, closes, _ := stats.get()
	assert.Equal(t, 2, opens)
	assert.Equal(t, 1, closes)

	// No handshake was sent
	_, err = transport.ReceiveN(conn, protocol.HelloSize)
	assert.ErrorIs(t, err, transport.ErrConnectionClosed)
}

func TestOpenFailureIsFatal(t *testing.T) {
	newCapture, stats := factory(fakeCapture{openErr: fmt.Errorf("%w: no such device", audio.ErrDevice)})
	srv, done := startServer(t, Config{Audio: audio.DefaultConfig(), NewCapture: newCapture})

	dial(t, srv)

	err := waitRun(t, done)
	assert.ErrorIs(t, err, audio.ErrDevice)
	assert.NotErrorIs(t, err, audio.ErrFormat)

	opens, _, _ := stats.get()
	assert.Equal(t, 1, opens, "plain device errors are not retried")
}

func TestReadFailureIsFatal(t *testing.T) {
	newCapture, stats := factory(fakeCapture{failAfter: 3, frameSize: 16})
	srv, done := startServer(t, Config{Audio: audio.DefaultConfig(), NewCapture: newCapture})

	conn := dial(t, srv)
	readHello(t, conn)

	err := waitRun(t, done)
	assert.ErrorIs(t, err, audio.ErrDevice)

	// The frames read before the failure were delivered, then the socket closed
	data, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Len(t, data, 3*16)

	_, closes, _ := stats.get()
	assert.Equal(t, 1, closes)
}

func TestCloseWhileWaiting(t *testing.T) {
	newCapture, stats := factory(fakeCapture{})
	srv, done := startServer(t, Config{Audio: audio.DefaultConfig(), NewCapture: newCapture})

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, srv.Close())
	assert.NoError(t, waitRun(t, done))

	_, _, made := stats.get()
	assert.Equal(t, 0, made, "no device is opened before a client connects")
}

// brokenListener fails Accept with a non-close error
type brokenListener struct{ net.Listener }

func (brokenListener) Accept() (net.Conn, error) {
	return nil, errors.New("too many open files")
}

func TestAcceptFailureIsFatal(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(Config{Audio: audio.DefaultConfig()}, brokenListener{ln})
	err = srv.Run()
	assert.ErrorIs(t, err, transport.ErrNetwork)

	// Run released the listener
	_, err = ln.Accept()
	assert.Error(t, err)
}

func TestListen(t *testing.T) {
	srv, err := Listen(Config{Port: 0, Audio: audio.DefaultConfig()})
	require.NoError(t, err)
	defer srv.Close()

	_, ok := srv.Addr().(*net.TCPAddr)
	assert.True(t, ok)
}

// failWriteConn rejects every write
type failWriteConn struct{ net.Conn }

func (failWriteConn) Write([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

// flakyListener breaks writes on the first accepted connection only
type flakyListener struct {
	net.Listener
	accepted int
}

func (l *flakyListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	l.accepted++
	if l.accepted == 1 {
		return failWriteConn{conn}, nil
	}
	return conn, nil
}

func TestHandshakeSendFailureDropsClient(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	newCapture, stats := factory(fakeCapture{})
	rec := &recorder{}
	srv := New(Config{Audio: audio.DefaultConfig(), NewCapture: newCapture, Observer: rec}, &flakyListener{Listener: ln})
	done := make(chan error, 1)
	go func() { done <- srv.Run() }()
	t.Cleanup(func() { srv.Close() })

	// The first client gets nothing and is disconnected
	first := dial(t, srv)
	_, err = transport.ReceiveN(first, protocol.HelloSize)
	require.ErrorIs(t, err, transport.ErrConnectionClosed)

	// The server is back to accepting and the next client is served normally
	second := dial(t, srv)
	assert.Equal(t, audio.DefaultConfig(), readHello(t, second))

	opens, closes, made := stats.get()
	assert.Equal(t, 2, made)
	assert.Equal(t, 2, opens)
	assert.Equal(t, 1, closes, "the first session's device was released")

	select {
	case err := <-done:
		t.Fatalf("Run returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, srv.Close())
	assert.NoError(t, waitRun(t, done))

	states, _ := rec.snapshot()
	assert.Equal(t, []State{
		StateAwaitingClient, StateClientConnected,
		StateAwaitingClient, StateClientConnected, StateStreaming,
		StateStopped,
	}, states)
}

func TestRunRejectsInvalidAudio(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	newCapture, stats := factory(fakeCapture{})
	srv := New(Config{NewCapture: newCapture}, ln)

	err = srv.Run()
	assert.ErrorIs(t, err, config.ErrConfig)

	_, _, made := stats.get()
	assert.Equal(t, 0, made)

	// The listener was released
	_, err = ln.Accept()
	assert.Error(t, err)
}
