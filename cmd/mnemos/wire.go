// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package main

import (
	"log/slog"

	"github.com/mnemos-dev/mnemos/internal/cache"
	"github.com/mnemos-dev/mnemos/internal/config"
	"github.com/mnemos-dev/mnemos/internal/docs"
	"github.com/mnemos-dev/mnemos/internal/graph"
	"github.com/mnemos-dev/mnemos/internal/provider"
	anthropicprov "github.com/mnemos-dev/mnemos/internal/provider/anthropic"
	googleprov "github.com/mnemos-dev/mnemos/internal/provider/google"
	openaiprov "github.com/mnemos-dev/mnemos/internal/provider/openai"
	openrouterprov "github.com/mnemos-dev/mnemos/internal/provider/openrouter"
	"github.com/mnemos-dev/mnemos/internal/recommend"
	"github.com/mnemos-dev/mnemos/internal/search"
	"github.com/mnemos-dev/mnemos/internal/secrets"
	"github.com/mnemos-dev/mnemos/internal/store"
	_ "github.com/mnemos-dev/mnemos/internal/store/sqlite" // register sqlite backend
	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
)

// App holds all wired subsystems and manages their lifecycle.
type App struct {
	Config  *config.Config
	Store   store.Store
	Cache   *cache.Cache
	Gateway *provider.Gateway
	Service *docs.Service
	Logger  *slog.Logger
}

// Close releases every held resource.
func (a *App) Close() error {
	var errs []error
	if a.Gateway != nil {
		if err := a.Gateway.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return mnerr.Join(errs...)
}

// wireApp creates all subsystems and wires them together.
func wireApp(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg)

	st, err := store.New(&store.Config{
		Backend:          cfg.Storage.Backend,
		Path:             cfg.Storage.Path,
		VectorDimensions: cfg.Storage.VectorDimensions,
		PoolSize:         cfg.Storage.PoolSize,
	})
	if err != nil {
		return nil, mnerr.Wrapf(err, mnerr.CodeCLISetupFailure, "opening store at %s", cfg.Storage.Path)
	}

	gateway := provider.NewGateway(
		provider.WithCallTimeout(cfg.Routing.CallTimeout),
		provider.WithLogger(logger),
	)
	if err := registerProviders(cfg, gateway, logger); err != nil {
		_ = st.Close()
		return nil, err
	}
	// Priority lists may name providers that were skipped during
	// registration; drop those instead of failing startup.
	if err := gateway.SetChatPriority(registeredOnly(gateway, cfg.Routing.ChatPriority, logger)); err != nil {
		_ = st.Close()
		return nil, mnerr.Wrapf(err, mnerr.CodeCLISetupFailure, "applying chat priority")
	}
	if err := gateway.SetEmbeddingPriority(registeredOnly(gateway, cfg.Routing.EmbeddingPriority, logger)); err != nil {
		_ = st.Close()
		return nil, mnerr.Wrapf(err, mnerr.CodeCLISetupFailure, "applying embedding priority")
	}

	c := cache.New()
	engine := search.NewEngine(st, gateway, logger)
	walker := graph.NewIndex(st)
	recommender := recommend.NewEngine(engine, walker)

	service := docs.NewService(st, c, gateway, engine, walker, recommender, docs.Options{
		ChunkMaxBytes: cfg.Chunking.MaxBytes,
		CacheTTL:      cfg.Cache.DocumentTTL,
		Logger:        logger,
	})

	return &App{
		Config:  cfg,
		Store:   st,
		Cache:   c,
		Gateway: gateway,
		Service: service,
		Logger:  logger,
	}, nil
}

func registeredOnly(gateway *provider.Gateway, names []string, logger *slog.Logger) []string {
	kept := make([]string, 0, len(names))
	for _, name := range names {
		if _, err := gateway.Get(name); err != nil {
			logger.Warn("dropping unregistered provider from priority list", "provider", name)
			continue
		}
		kept = append(kept, name)
	}
	return kept
}

// registerProviders constructs every configured backend and registers it on
// the gateway. Credential references (env:, keyring://) are resolved here. A
// backend that fails to construct is skipped with a warning so one bad
// credential cannot take down the rest.
func registerProviders(cfg *config.Config, gateway *provider.Gateway, logger *slog.Logger) error {
	keystore := secrets.NewKeyringStore()

	for name, pc := range cfg.Providers {
		apiKey, err := secrets.Resolve(keystore, pc.APIKey)
		if err != nil {
			logger.Warn("skipping provider, credential resolution failed", "provider", name, "error", err)
			continue
		}

		var (
			p        provider.Provider
			buildErr error
		)
		switch name {
		case "openai":
			p, buildErr = openaiprov.New(openaiprov.Config{APIKey: apiKey, BaseURL: pc.Endpoint})
		case "anthropic":
			p, buildErr = anthropicprov.New(anthropicprov.Config{APIKey: apiKey, BaseURL: pc.Endpoint})
		case "google":
			p, buildErr = googleprov.New(googleprov.Config{APIKey: apiKey})
		case "openrouter":
			p, buildErr = openrouterprov.New(openrouterprov.Config{APIKey: apiKey, BaseURL: pc.Endpoint})
		default:
			logger.Warn("skipping unknown provider", "provider", name)
			continue
		}
		if buildErr != nil {
			logger.Warn("skipping provider, construction failed", "provider", name, "error", buildErr)
			continue
		}

		if err := gateway.Register(p); err != nil {
			return mnerr.Wrapf(err, mnerr.CodeCLISetupFailure, "registering provider %s", name)
		}
		logger.Info("registered provider", "provider", name)
	}

	return nil
}
