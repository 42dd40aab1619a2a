// ABOUTME: Entry point for the audiospy client
// ABOUTME: Connects to a server, learns the format from the handshake and plays the stream
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/audiospy/audiospy-go/internal/client"
	"github.com/audiospy/audiospy-go/internal/config"
	"github.com/audiospy/audiospy-go/internal/discovery"
	"github.com/audiospy/audiospy-go/internal/logger"
	"github.com/audiospy/audiospy-go/internal/ui"
	"github.com/audiospy/audiospy-go/internal/version"
	"github.com/audiospy/audiospy-go/pkg/audio/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const usage = "Usage: audiospy-client [flags] IP PORT"

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
		logger.Error("client stopped", "error", err)
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
		Use:           "audiospy-client [flags] IP PORT",
		Short:         "Play the audio stream of an audiospy server",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return config.ArgError(usage)
			}
			if err := config.Load(v, cfgFile); err != nil {
				return err
			}
			cfg, err := config.ClientFromViper(v, args[0], args[1])
			if err != nil {
				return err
			}
			return play(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./audiospy.yaml or $HOME/.audiospy.yaml)")
	flags.String("output", output.BackendMalgo, "playback backend: malgo, oto, portaudio, raw")
	flags.String("raw-file", "-", "destination of the raw backend (- for stdout)")
	flags.Int("sample-rate", 0, "resample playback to this rate (0 keeps the server rate)")
	flags.Int("buffer-size", client.DefaultBufferSize, "receive buffer size in bytes")
	flags.Bool("silent", false, "no console output")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-file", "", "also write logs to this file")

	bind(v, cmd, map[string]string{
		config.KeyOutputBackend: "output",
		config.KeyOutputRawFile: "raw-file",
		config.KeyOutputRate:    "sample-rate",
		config.KeyBufferSize:    "buffer-size",
		config.KeySilent:        "silent",
		config.KeyLogLevel:      "log-level",
		config.KeyLogFile:       "log-file",
	})

	cmd.AddCommand(newBrowseCmd())
	return cmd
}

// bind attaches flags to config keys; a flag only overrides the file and
// environment when set on the command line
func bind(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		cobra.CheckErr(v.BindPFlag(key, cmd.Flags().Lookup(flag)))
	}
}

func newBrowseCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "List audiospy servers on the local network as IP PORT lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := discovery.NewManager(discovery.Config{Logger: logger.Logger()})
			defer mgr.Stop()

			servers, err := mgr.Browse(timeout)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, s := range servers {
				fmt.Fprintln(w, s.String())
				if v, ok := discovery.TXTValue(s.Info, "version"); ok && v != version.Version {
					logger.Debug("server runs another version", "server", s.String(), "version", v)
				}
			}
			if len(servers) == 0 {
				logger.Debug("no servers found", "timeout", timeout)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "how long to wait for answers")
	return cmd
}

func play(ctx context.Context, cfg config.Client, stdout io.Writer) (err error) {
	if err := logger.Init(cfg.Log); err != nil {
		return fmt.Errorf("%w: %w", config.ErrConfig, err)
	}
	defer logger.Close()
	defer func() {
		if err == nil || errors.Is(err, config.ErrConfig) {
			return
		}
		logger.Error("client stopped", "error", err)
		if cfg.Silent && cfg.Log.File == "" {
			// stdout may carry the raw stream
			fmt.Fprintln(os.Stderr, "client stopped:", err)
		}
		err = stoppedError{err}
	}()

	out, err := output.New(cfg.Output.Backend, cfg.Output.RawFile, cfg.Output.SampleRate)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrConfig, err)
	}

	var progress client.Progress = ui.NewSpinner(stdout)
	if cfg.Silent {
		progress = ui.Nop{}
	}

	c := client.New(client.Config{
		Addr:       cfg.Addr,
		BufferSize: cfg.BufferSize,
		Output:     out,
		Progress:   progress,
		Logger:     logger.With("component", "client"),
	})

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		c.Close()
	}()

	return c.Run()
}
