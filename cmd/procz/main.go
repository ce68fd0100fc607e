// Command procz processes a single input value through the
// timeout-bounded pipeline and prints the outcome envelope as JSON.
//
// Usage:
//
//	procz ['{"a":1}'] [--config config.json]
//
// The positional argument is decoded as JSON; anything that does not decode
// is passed through as a raw string. Without an argument the configured
// default input is used. The envelope always reaches stdout, success or
// failure; only configuration problems exit non-zero.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zoobzio/capitan"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zoobzio/procz"
)

var (
	version    = "0.1.0"
	configPath string

	rootCmd = &cobra.Command{
		Use:   "procz [input]",
		Short: "Run a value through the timeout-bounded processing pipeline",
		Long: `procz accepts one input value, optionally validates and transforms it
under a wall-clock deadline, and prints a structured result envelope.

The input argument is parsed as JSON when possible and used as a raw string
otherwise. Validation, transformation, and the timeout come from the config
file or its defaults.`,
		Version: version,
		Args:    cobra.MaximumNArgs(1),
		RunE:    run,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to JSON config file")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	bridgeSignals(log)

	input := cfg.Input.DefaultData
	if len(args) > 0 {
		input = parseInput(args[0])
	}

	log.Info("starting application")

	exec := procz.NewExecutor("procz")
	defer exec.Close() //nolint:errcheck

	envelope := procz.Run(context.Background(), exec, input, cfg.Options(), "main")
	if envelope.Success {
		log.Info("data processing completed successfully")
	}

	out, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// parseInput decodes the positional argument as JSON, falling back to the
// raw string when it does not decode.
func parseInput(arg string) any {
	var decoded any
	if err := json.Unmarshal([]byte(arg), &decoded); err != nil {
		return arg
	}
	return decoded
}

// newLogger builds the zap sink for the configured level. Logs go to
// stderr so stdout stays clean for the envelope.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// bridgeSignals hooks the library's lifecycle signals into zap. The
// listeners live for the whole process, so they are never closed.
func bridgeSignals(log *zap.Logger) {
	capitan.Hook(procz.SignalProcessStarted, func(_ context.Context, e *capitan.Event) {
		id, _ := procz.FieldProcessID.From(e)
		timeout, _ := procz.FieldTimeout.From(e)
		log.Info("starting data processing",
			zap.String("process_id", id),
			zap.Float64("timeout_seconds", timeout),
		)
	})

	capitan.Hook(procz.SignalProcessCompleted, func(_ context.Context, e *capitan.Event) {
		id, _ := procz.FieldProcessID.From(e)
		duration, _ := procz.FieldDuration.From(e)
		log.Info("data processing completed",
			zap.String("process_id", id),
			zap.Float64("duration_seconds", duration),
		)
	})

	capitan.Hook(procz.SignalProcessFailed, func(_ context.Context, e *capitan.Event) {
		id, _ := procz.FieldProcessID.From(e)
		msg, _ := procz.FieldError.From(e)
		log.Error("data processing failed",
			zap.String("process_id", id),
			zap.String("error", msg),
		)
	})

	capitan.Hook(procz.SignalProcessTimedOut, func(_ context.Context, e *capitan.Event) {
		id, _ := procz.FieldProcessID.From(e)
		timeout, _ := procz.FieldTimeout.From(e)
		log.Error("data processing timed out",
			zap.String("process_id", id),
			zap.Float64("timeout_seconds", timeout),
		)
	})

	capitan.Hook(procz.SignalErrorClassified, func(_ context.Context, e *capitan.Event) {
		name, _ := procz.FieldContext.From(e)
		kind, _ := procz.FieldKind.From(e)
		msg, _ := procz.FieldError.From(e)
		log.Error("error classified",
			zap.String("context", name),
			zap.String("kind", kind),
			zap.String("error", msg),
		)
	})
}
