package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-reader/internal/common"
)

var (
	flagConfig   string
	flagLogLevel string

	cfg    *common.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "invoice-reader",
	Short: "Turn invoice PDFs and scans into structured records",
	Long: `invoice-reader reads invoice documents (PDF or scanned images), recovers their
text with an OCR fallback, asks a language model for the invoice fields and
prints normalized records as JSON.

Usage:
  invoice-reader extract <file|dir>... [flags]
  invoice-reader transcript <file>...
  invoice-reader export --out invoices.xlsx`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := common.LoadConfig(flagConfig)
		if err != nil {
			return err
		}
		if flagLogLevel != "" {
			c.Log.Level = flagLogLevel
		}
		cfg = c
		logger = newLogger(c.Log)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error (overrides config)")
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Logs go to stderr; stdout carries records.
func newLogger(c common.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
