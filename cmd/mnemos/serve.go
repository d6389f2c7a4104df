// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mnemos-dev/mnemos/internal/syncer"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the store with the background resync task until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			app, err := wireApp(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Sync.Enabled {
				source := &syncer.DirSource{
					Root:       cfg.Sync.Root,
					Extensions: cfg.Sync.Extensions,
				}
				s := syncer.New(source, app.Service,
					syncer.WithInterval(cfg.Sync.Interval),
					syncer.WithInitialDelay(cfg.Sync.InitialDelay),
					syncer.WithLogger(app.Logger),
				)
				go s.Run(ctx)
				app.Logger.Info("background sync enabled",
					"root", cfg.Sync.Root, "interval", cfg.Sync.Interval)
			}

			app.Logger.Info("mnemos running", "storage", cfg.Storage.Path)
			<-ctx.Done()
			app.Logger.Info("shutting down")
			return nil
		},
	}
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run a single synchronization pass and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Sync.Root == "" {
				cfg.Sync.Root = "."
			}

			app, err := wireApp(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			source := &syncer.DirSource{
				Root:       cfg.Sync.Root,
				Extensions: cfg.Sync.Extensions,
			}
			s := syncer.New(source, app.Service, syncer.WithLogger(app.Logger))
			s.SyncOnce(cmd.Context())
			return nil
		},
	}
}
