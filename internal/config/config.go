// ABOUTME: Viper-backed configuration for the audiospy server and client
// ABOUTME: Defaults, optional YAML file, AUDIOSPY_ environment overrides and flags
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strings"

	"github.com/audiospy/audiospy-go/internal/logger"
	"github.com/audiospy/audiospy-go/pkg/audio"
	"github.com/audiospy/audiospy-go/pkg/audio/capture"
	"github.com/audiospy/audiospy-go/pkg/audio/output"
	"github.com/spf13/viper"
)

// Configuration keys
const (
	KeyFormat         = "audio.format"
	KeySampleRate     = "audio.sample_rate"
	KeyChannels       = "audio.channels"
	KeyCaptureBackend = "capture.backend"
	KeyCaptureSource  = "capture.source"
	KeyCaptureLoop    = "capture.loop"
	KeyOutputBackend  = "playback.backend"
	KeyOutputRawFile  = "playback.raw_file"
	KeyOutputRate     = "playback.sample_rate"
	KeyBufferSize     = "client.buffer_size"
	KeyMDNS           = "mdns.enabled"
	KeyMDNSName       = "mdns.name"
	KeyTUI            = "tui"
	KeySilent         = "silent"
	KeyLogLevel       = "log.level"
	KeyLogFile        = "log.file"
)

// EnvPrefix prefixes environment overrides, e.g. AUDIOSPY_AUDIO_SAMPLE_RATE
const EnvPrefix = "AUDIOSPY"

// Server holds the resolved server configuration
type Server struct {
	Port     int
	Audio    audio.Config
	Capture  CaptureConfig
	MDNS     bool
	MDNSName string
	TUI      bool
	Silent   bool
	Log      logger.Config
}

// CaptureConfig selects the capture backend
type CaptureConfig struct {
	Backend string
	Source  string
	Loop    bool
}

// Client holds the resolved client configuration
type Client struct {
	Addr       netip.AddrPort
	Output     OutputConfig
	BufferSize int
	Silent     bool
	Log        logger.Config
}

// OutputConfig selects the playback backend. SampleRate zero plays at the
// session rate.
type OutputConfig struct {
	Backend    string
	RawFile    string
	SampleRate int
}

// New returns a viper instance with defaults and environment binding
func New() *viper.Viper {
	v := viper.New()

	def := audio.DefaultConfig()
	v.SetDefault(KeyFormat, def.Format.String())
	v.SetDefault(KeySampleRate, def.SampleRate)
	v.SetDefault(KeyChannels, def.Channels)
	v.SetDefault(KeyCaptureBackend, capture.BackendMalgo)
	v.SetDefault(KeyCaptureSource, "")
	v.SetDefault(KeyCaptureLoop, true)
	v.SetDefault(KeyOutputBackend, output.BackendMalgo)
	v.SetDefault(KeyOutputRawFile, "-")
	v.SetDefault(KeyOutputRate, 0)
	v.SetDefault(KeyBufferSize, 64*1024)
	v.SetDefault(KeyMDNS, false)
	v.SetDefault(KeyMDNSName, defaultServiceName())
	v.SetDefault(KeyTUI, false)
	v.SetDefault(KeySilent, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads cfgFile, or audiospy.yaml from the working directory or
// .audiospy.yaml from the home directory. A missing default file is fine.
func Load(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("audiospy")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return loadHomeDotfile(v)
		}
		return fmt.Errorf("%w: read config: %w", ErrConfig, err)
	}
	return nil
}

// loadHomeDotfile reads $HOME/.audiospy.yaml when present
func loadHomeDotfile(v *viper.Viper) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	path := filepath.Join(home, ".audiospy.yaml")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: read config: %w", ErrConfig, err)
	}
	return nil
}

// ServerFromViper resolves the server configuration for the given port
// argument
func ServerFromViper(v *viper.Viper, port string) (Server, error) {
	p, err := ParsePort(port)
	if err != nil {
		return Server{}, err
	}

	format, err := audio.ParseSampleFormat(v.GetString(KeyFormat))
	if err != nil {
		return Server{}, fmt.Errorf("%w: %s: %w", ErrConfig, KeyFormat, err)
	}
	cfg := audio.Config{
		Format:     format,
		SampleRate: v.GetInt(KeySampleRate),
		Channels:   v.GetInt(KeyChannels),
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	capCfg := CaptureConfig{
		Backend: v.GetString(KeyCaptureBackend),
		Source:  v.GetString(KeyCaptureSource),
		Loop:    v.GetBool(KeyCaptureLoop),
	}
	if _, err := capture.NewFactory(capCfg.Backend, capCfg.Source, capCfg.Loop); err != nil {
		return Server{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	log, err := logConfig(v)
	if err != nil {
		return Server{}, err
	}

	return Server{
		Port:     p,
		Audio:    cfg,
		Capture:  capCfg,
		MDNS:     v.GetBool(KeyMDNS),
		MDNSName: v.GetString(KeyMDNSName),
		TUI:      v.GetBool(KeyTUI),
		Silent:   log.Silent,
		Log:      log,
	}, nil
}

// ClientFromViper resolves the client configuration for the given address
// arguments
func ClientFromViper(v *viper.Viper, ip, port string) (Client, error) {
	addr, err := ParseAddr(ip, port)
	if err != nil {
		return Client{}, err
	}

	bufSize := v.GetInt(KeyBufferSize)
	if bufSize <= 0 {
		return Client{}, fmt.Errorf("%w: %s must be positive, got %d", ErrConfig, KeyBufferSize, bufSize)
	}

	out := OutputConfig{
		Backend:    v.GetString(KeyOutputBackend),
		RawFile:    v.GetString(KeyOutputRawFile),
		SampleRate: v.GetInt(KeyOutputRate),
	}
	if _, err := output.New(out.Backend, out.RawFile, out.SampleRate); err != nil {
		return Client{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	log, err := logConfig(v)
	if err != nil {
		return Client{}, err
	}
	// Raw PCM on stdout must not be interleaved with log lines
	if out.Backend == output.BackendRaw && (out.RawFile == "" || out.RawFile == "-") {
		log.Silent = true
	}

	return Client{
		Addr:       addr,
		Output:     out,
		BufferSize: bufSize,
		Silent:     log.Silent,
		Log:        log,
	}, nil
}

func logConfig(v *viper.Viper) (logger.Config, error) {
	cfg := logger.Config{
		Level:  v.GetString(KeyLogLevel),
		File:   v.GetString(KeyLogFile),
		Silent: v.GetBool(KeySilent),
	}
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return logger.Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return cfg, nil
}

func defaultServiceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "audiospy"
	}
	return "audiospy on " + host
}
