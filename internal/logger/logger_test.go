// ABOUTME: Tests for the logging setup
// ABOUTME: Checks level filtering, file output and silent mode
package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l, file, err := New(Config{Level: "warn"}, &buf)
	require.NoError(t, err)
	assert.Nil(t, file)

	l.Info("waiting for client...")
	l.Warn("client dropped", "bytes", 42)

	out := buf.String()
	assert.NotContains(t, out, "waiting for client")
	assert.Contains(t, out, "client dropped")
	assert.Contains(t, out, "bytes=42")
}

func TestNewWritesFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "audiospy.log")

	l, file, err := New(Config{File: path}, &buf)
	require.NoError(t, err)
	require.NotNil(t, file)

	l.Info("client connected")
	require.NoError(t, file.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "client connected")
	assert.Contains(t, buf.String(), "client connected")
}

func TestSilentSkipsStdout(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "audiospy.log")

	l, file, err := New(Config{File: path, Silent: true}, &buf)
	require.NoError(t, err)
	defer file.Close()

	l.Info("opened audio device: 16/48000/2")
	assert.Empty(t, buf.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "opened audio device"))
}

func TestSilentWithoutFileDiscards(t *testing.T) {
	var buf bytes.Buffer
	l, _, err := New(Config{Silent: true}, &buf)
	require.NoError(t, err)

	l.Error("boom")
	assert.Empty(t, buf.String())
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, _, err := New(Config{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestInitInstallsDefault(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	path := filepath.Join(t.TempDir(), "audiospy.log")
	require.NoError(t, Init(Config{Level: "debug", File: path, Silent: true}))
	defer Close()

	Debug("debug line")
	assert.Same(t, Logger(), slog.Default())

	require.NoError(t, Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "debug line")
}
