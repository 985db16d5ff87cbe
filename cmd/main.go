// File: cmd/main.go
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/whatcher1074/helloworld/internal/app"
	"github.com/whatcher1074/helloworld/internal/config"
	"github.com/whatcher1074/helloworld/internal/logger"
	"github.com/whatcher1074/helloworld/internal/server"
	"go.uber.org/automaxprocs/maxprocs"
)

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "helloworld",
		Short:         "Serve Hello World! on GET /",
		Long:          `helloworld listens on $PORT (default 8080) and answers GET / with "Hello World!".`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Respect container CPU limits unless GOMAXPROCS is set.
	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		fallbackLogger(os.Stderr).Debug().Msgf(format, args...)
	}))
	if err != nil {
		fallbackLogger(os.Stderr).Debug().Msgf("Failed to reset GOMAXPROCS: %v", err)
	}
	defer undo()

	code := execute(ctx, os.Args[1:], os.Stderr)
	if code != 0 {
		stop()
		undo()
		os.Exit(code)
	}
}

// execute runs the root command and reports any error on stderr.
func execute(ctx context.Context, args []string, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fallbackLogger(stderr).Error().Err(err).Msg("helloworld failed")
		return 1
	}
	return 0
}

func run(ctx context.Context) error {
	// Load config
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() {
		if err := appLogger.Close(); err != nil {
			fallbackLogger(os.Stderr).Error().Err(err).Msg("Error closing logger")
		}
	}()

	go rotateOnHangup(ctx, appLogger)

	appLogger.Info().Msg("App starting...")
	if err := server.Run(ctx, cfg.Port, app.New(appLogger.Zerolog()), appLogger.Zerolog()); err != nil {
		appLogger.Error().Err(err).Msg("Server failed")
		return err
	}
	return nil
}

// rotateOnHangup reopens the log file on SIGHUP.
func rotateOnHangup(ctx context.Context, l *logger.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-hup:
			if err := l.Rotate(); err != nil {
				l.Errorf("Error rotating logs: %v", err)
			} else {
				l.Info().Msg("Log rotation completed")
			}
		case <-ctx.Done():
			return
		}
	}
}

// fallbackLogger writes to w independently of the configured logger, so
// startup and exit diagnostics always reach the terminal.
func fallbackLogger(w io.Writer) *zerolog.Logger {
	l := zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).With().Timestamp().Logger()
	return &l
}
