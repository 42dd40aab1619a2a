// ABOUTME: Entry point for the audiospy server
// ABOUTME: Parses flags and config, then streams captured audio to one client at a time
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/audiospy/audiospy-go/internal/config"
	"github.com/audiospy/audiospy-go/internal/discovery"
	"github.com/audiospy/audiospy-go/internal/logger"
	"github.com/audiospy/audiospy-go/internal/server"
	"github.com/audiospy/audiospy-go/internal/ui"
	"github.com/audiospy/audiospy-go/internal/version"
	"github.com/audiospy/audiospy-go/pkg/audio/capture"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const usage = "Usage: audiospy-server [flags] PORT"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run executes the command and returns the process exit status
func run(args []string, stdout io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)

	err := cmd.Execute()
	if err == nil {
		return 0
	}

	var argErr config.ArgError
	var stopped stoppedError
	switch {
	case errors.As(err, &stopped):
		// already reported before the log closed
	case errors.As(err, &argErr):
		fmt.Fprintln(stdout, argErr.Error())
	case errors.Is(err, config.ErrConfig):
		fmt.Fprintln(stdout, err.Error())
	default:
		logger.Error("server stopped", "error", err)
	}
	return 1
}

// stoppedError marks a failure that was logged before the logger closed
type stoppedError struct{ error }

func (e stoppedError) Unwrap() error { return e.error }

func newRootCmd() *cobra.Command {
	var cfgFile string
	v := config.New()

	cmd := &cobra.Command{
		Use:           "audiospy-server [flags] PORT",
		Short:         "Stream live audio capture to a single TCP client",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return config.ArgError(usage)
			}
			if err := config.Load(v, cfgFile); err != nil {
				return err
			}
			cfg, err := config.ServerFromViper(v, args[0])
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./audiospy.yaml or $HOME/.audiospy.yaml)")
	flags.String("format", "s16", "sample format: u8, s16, s24, s32, f32")
	flags.Int("rate", 48000, "sample rate in Hz")
	flags.Int("channels", 2, "number of channels")
	flags.String("capture", capture.BackendMalgo, "capture backend: malgo, tone, file")
	flags.String("source", "", "audio file for the file backend (MP3 or FLAC)")
	flags.Bool("loop", true, "restart the source file at end of file")
	flags.Bool("mdns", false, "advertise the server via mDNS")
	flags.Bool("tui", false, "show the status TUI")
	flags.Bool("silent", false, "no console output")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-file", "", "also write logs to this file")

	bind(v, cmd, map[string]string{
		config.KeyFormat:         "format",
		config.KeySampleRate:     "rate",
		config.KeyChannels:       "channels",
		config.KeyCaptureBackend: "capture",
		config.KeyCaptureSource:  "source",
		config.KeyCaptureLoop:    "loop",
		config.KeyMDNS:           "mdns",
		config.KeyTUI:            "tui",
		config.KeySilent:         "silent",
		config.KeyLogLevel:       "log-level",
		config.KeyLogFile:        "log-file",
	})

	return cmd
}

// bind attaches flags to config keys; a flag only overrides the file and
// environment when set on the command line
func bind(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		cobra.CheckErr(v.BindPFlag(key, cmd.Flags().Lookup(flag)))
	}
}

func serve(ctx context.Context, cfg config.Server, stdout io.Writer) (err error) {
	logCfg := cfg.Log
	if cfg.TUI {
		// The TUI owns the terminal
		logCfg.Silent = true
	}
	if err := logger.Init(logCfg); err != nil {
		return fmt.Errorf("%w: %w", config.ErrConfig, err)
	}
	defer logger.Close()
	// Runs before the log closes and after the TUI has released the terminal
	defer func() {
		if err == nil || errors.Is(err, config.ErrConfig) {
			return
		}
		logger.Error("server stopped", "error", err)
		if cfg.TUI || (cfg.Silent && cfg.Log.File == "") {
			fmt.Fprintln(stdout, "server stopped:", err)
		}
		err = stoppedError{err}
	}()

	newCapture, err := capture.NewFactory(cfg.Capture.Backend, cfg.Capture.Source, cfg.Capture.Loop)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrConfig, err)
	}

	var progress server.Progress = ui.NewSpinner(stdout)
	if cfg.Silent || cfg.TUI {
		progress = ui.Nop{}
	}

	var view *ui.ServerView
	var observer server.Observer
	if cfg.TUI {
		view = ui.NewServerView(cfg.Port)
		observer = view
	}

	srv, err := server.Listen(server.Config{
		Port:       cfg.Port,
		Audio:      cfg.Audio,
		NewCapture: newCapture,
		Progress:   progress,
		Observer:   observer,
		Logger:     logger.With("component", "server"),
	})
	if err != nil {
		return err
	}

	if cfg.MDNS {
		mdns := discovery.NewManager(discovery.Config{
			ServiceName: cfg.MDNSName,
			Port:        cfg.Port,
			TXT:         discovery.ServerTXT(cfg.Audio),
			Logger:      logger.With("component", "mdns"),
		})
		if err := mdns.Advertise(); err != nil {
			logger.Warn("failed to start mDNS advertisement", "error", err)
		}
		defer mdns.Stop()
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if view != nil {
		go func() {
			if err := view.Run(); err != nil {
				logger.Warn("TUI stopped", "error", err)
			}
			stop()
		}()
		defer view.Stop()
		go func() {
			select {
			case <-view.QuitChan():
				stop()
			case <-ctx.Done():
			}
		}()
	}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	logger.Info("listening", "port", cfg.Port, "format", cfg.Audio.String(), "capture", cfg.Capture.Backend)
	return srv.Run()
}
