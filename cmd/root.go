// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package cmd implements the dplink command line.
package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"grimm.is/dplink/internal/errors"
	"grimm.is/dplink/internal/install"
	"grimm.is/dplink/internal/logging"
	"grimm.is/dplink/internal/metrics"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitConfig  = 2
	ExitPartial = 3
)

type globalOptions struct {
	configFile  string
	backend     string
	podman      string
	socket      string
	unitDir     string
	persistent  bool
	metricsFile string
	syslogHost  string
	debug       bool
	jsonLogs    bool
}

var (
	opts globalOptions

	// registry collects metrics for the running command.
	registry = metrics.NewRegistry()
	// logCloser releases the syslog connection, if any.
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:           "dplink",
	Short:         "Connect dataplane sandboxes to the host network",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd.ErrOrStderr())
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&opts.configFile, "config", "c", install.GetConfigFile(), "dataplane list (YAML, or HCL when ending in .hcl)")
	f.StringVar(&opts.backend, "backend", backendCLI, "container backend: cli or socket")
	f.StringVar(&opts.podman, "podman", install.GetPodmanBinary(), "podman binary for the cli backend")
	f.StringVar(&opts.socket, "socket", install.GetPodmanSocket(), "libpod API socket for the socket backend")
	f.StringVar(&opts.unitDir, "unit-dir", install.GetUnitDir(), "directory receiving the unit template")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")
	f.StringVar(&opts.syslogHost, "syslog", "", "also forward logs to this syslog host[:port] over UDP")
	f.BoolVar(&opts.debug, "debug", os.Getenv("DEBUG") != "", "enable debug logging")
	f.BoolVar(&opts.jsonLogs, "json-logs", false, "log as JSON")
}

func setupLogging(stderr io.Writer) error {
	cfg := logging.DefaultConfig()
	cfg.Output = stderr
	cfg.JSON = opts.jsonLogs
	if opts.debug {
		cfg.Level = logging.LevelDebug
	}

	if opts.syslogHost != "" {
		scfg, err := logging.ParseSyslogTarget(opts.syslogHost)
		if err != nil {
			return errors.Wrap(err, errors.KindValidation, "invalid --syslog")
		}
		w, err := logging.NewSyslogWriter(scfg)
		if err != nil {
			return errors.Wrap(err, errors.KindValidation, "failed to set up syslog")
		}
		cfg.Extra = w
		logCloser = w
	}

	// run_id tags every line of one invocation.
	logging.SetDefault(logging.New(cfg).With("run_id", uuid.New().String()))
	return nil
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, rootCmd)
}

func execute(ctx context.Context, root *cobra.Command) int {
	err := root.ExecuteContext(ctx)

	if opts.metricsFile != "" {
		if werr := registry.WriteTextfile(opts.metricsFile); werr != nil {
			logging.Warn("Failed to write metrics", "error", werr)
		}
	}
	if err != nil {
		logging.Error("Command failed", "error", err, "kind", errors.GetKind(err).String())
	}
	if logCloser != nil {
		logging.SetDefault(logging.New(logging.DefaultConfig()))
		logCloser.Close()
		logCloser = nil
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.HasKind(err, errors.KindPartial):
		return ExitPartial
	case isConfigError(err):
		return ExitConfig
	default:
		return ExitFailure
	}
}

// isConfigError reports errors raised while loading the dataplane list.
func isConfigError(err error) bool {
	_, ok := errors.GetAttributes(err)["config"]
	return ok
}
