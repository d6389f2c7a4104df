// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mnemos-dev/mnemos/internal/config"
)

// NewRootCmd creates the root mnemos command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mnemos",
		Short:         "Mnemos is an AI-augmented document and relationship store",
		Long:          "Mnemos stores documents with embeddings, relationships, and full-text indexing,\nand answers semantic search, graph, and recommendation queries over them.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")

	root.AddCommand(
		newInitCmd(),
		newServeCmd(),
		newSyncCmd(),
		newAddCmd(),
		newGetCmd(),
		newSearchCmd(),
		newLinkCmd(),
		newNeighborsCmd(),
		newRecommendCmd(),
		newChatCmd(),
		newAnalyticsCmd(),
		newSecretCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig resolves the --config flag and loads configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		// Auto-discover mnemos.yaml next to the working directory; absence
		// is fine, defaults and env vars still apply.
		if _, err := os.Stat("mnemos.yaml"); err == nil {
			path = "mnemos.yaml"
		}
	}
	return config.Load(path)
}

// setupLogger installs the process-wide slog handler per config.
func setupLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
