package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/config"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/failure"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/logger"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/metrics"
)

// Exit codes by failure kind.
const (
	exitOK = iota
	exitInternal
	exitConfiguration
	exitData
	exitIO
)

// runtime is shared by the subcommands once the root has loaded configuration.
type runtime struct {
	configPath string
	cfg        *config.Config
	log        logger.Logger
}

func newRootCommand(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:           "vegcover",
		Short:         "Multi-scale vegetation cover tables from point intercept data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&rt.configPath, "config", "c", "", "Path to a YAML config file (default $VEGCOVER_CONFIG)")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return rt.init(cmd.Context(), cmd.ErrOrStderr())
	}

	root.AddCommand(
		runCommand(rt),
		serveCommand(rt),
		validateCommand(rt),
	)
	return root
}

// init loads configuration and sets up logging and metrics.
func (rt *runtime) init(ctx context.Context, logOut io.Writer) error {
	cfg, err := config.Load(ctx, rt.configPath)
	if err != nil {
		return failure.WrapKind("config", failure.ErrConfiguration, err)
	}
	if err := logger.Init(logger.WithWriter(logOut), logger.WithFormat(cfg.LogFormat)); err != nil {
		return failure.WrapKind("logger", failure.ErrConfiguration, err)
	}
	rt.log = logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		rt.log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	metrics.Configure(metrics.WithNamespace(cfg.Metrics.Namespace), metrics.WithCustomLabels(cfg.Metrics.Labels))
	rt.cfg = cfg
	return nil
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, args []string) int {
	return executeWith(ctx, args, os.Stdout, os.Stderr)
}

func executeWith(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rt := &runtime{}
	root := newRootCommand(rt)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(stderr, "error:", err)
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, failure.ErrConfiguration):
		return exitConfiguration
	case errors.Is(err, failure.ErrInvalidData), errors.Is(err, failure.ErrJoinMismatch):
		return exitData
	case errors.Is(err, failure.ErrExternalIO):
		return exitIO
	default:
		return exitInternal
	}
}
