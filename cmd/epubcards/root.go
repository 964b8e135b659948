package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simp-lee/epubcards"
	"github.com/simp-lee/epubcards/internal/config"
	"github.com/simp-lee/epubcards/internal/output"
)

var (
	cfgFile      string
	outputFormat string
	logLevel     string

	format     output.Format
	cfgManager *config.Manager
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "epubcards",
	Short: "Split ePub books into screen-sized reading cards",
	Long: `epubcards reads an ePub, segments it into fixed original chunks and lays
them out as cards that fit a viewport.

Viewport, density and font settings come from built-in defaults, overridden
by the config file, overridden in turn by EPUBCARDS_* environment variables.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./epubcards.yaml or ~/.config/epubcards/epubcards.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml, json or text",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "warn", "log level: debug, info, warn or error",
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		if format, err = output.ParseFormat(outputFormat); err != nil {
			return err
		}

		level, err := parseLevel(logLevel)
		if err != nil {
			return err
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		epubcards.SetLogger(logger)

		if cmd.Name() == versionCmd.Name() || cmd.Name() == configInitCmd.Name() {
			return nil
		}
		if cfgManager, err = config.NewManager(cfgFile); err != nil {
			return err
		}
		cfgManager.SetLogger(logger)
		return nil
	}

	rootCmd.AddCommand(inspectCmd, chunksCmd, layoutCmd, findCmd, gotoCmd, bookmarksCmd, configCmd, versionCmd)
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid --log-level %q: %w", s, err)
	}
	return l, nil
}
