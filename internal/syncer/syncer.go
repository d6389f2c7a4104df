// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

// Package syncer periodically re-ingests documents from an external content
// source into the document service. It owns no directory-walking logic; the
// source abstracts wherever the (path, content) pairs come from.
package syncer

import (
	"context"
	"log/slog"
	"time"

	"github.com/mnemos-dev/mnemos/internal/store"
)

const (
	// DefaultInterval is the resync period between passes.
	DefaultInterval = 5 * time.Minute
	// DefaultInitialDelay postpones the first pass so startup is not
	// serialized behind a full ingest.
	DefaultInitialDelay = 10 * time.Second
)

// Item is one unit of syncable content.
type Item struct {
	Path    string
	Content string
}

// Source supplies the content to synchronize on each pass.
type Source interface {
	Scan(ctx context.Context) ([]Item, error)
}

// Ingester accepts documents. *docs.Service satisfies it.
type Ingester interface {
	AddDocument(ctx context.Context, doc *store.Document) ([]string, error)
}

// Syncer drives periodic ingestion. Failures are logged and the loop keeps
// running; nothing here is fatal to the process.
type Syncer struct {
	source       Source
	ingester     Ingester
	interval     time.Duration
	initialDelay time.Duration
	logger       *slog.Logger
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithInterval overrides the resync period.
func WithInterval(d time.Duration) Option {
	return func(s *Syncer) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithInitialDelay overrides the delay before the first pass.
func WithInitialDelay(d time.Duration) Option {
	return func(s *Syncer) {
		if d >= 0 {
			s.initialDelay = d
		}
	}
}

// WithLogger sets the syncer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Syncer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a syncer over the given source and ingester.
func New(source Source, ingester Ingester, opts ...Option) *Syncer {
	s := &Syncer{
		source:       source,
		ingester:     ingester,
		interval:     DefaultInterval,
		initialDelay: DefaultInitialDelay,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks until ctx is canceled, executing one pass after the initial
// delay and then one per interval.
func (s *Syncer) Run(ctx context.Context) {
	delay := time.NewTimer(s.initialDelay)
	defer delay.Stop()

	select {
	case <-ctx.Done():
		return
	case <-delay.C:
	}
	s.SyncOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SyncOnce(ctx)
		}
	}
}

// SyncOnce runs a single synchronization pass. Per-item failures are logged
// and skipped so one bad document cannot block the rest of the pass.
func (s *Syncer) SyncOnce(ctx context.Context) {
	items, err := s.source.Scan(ctx)
	if err != nil {
		s.logger.Warn("sync scan failed", "error", err)
		return
	}

	var failed int
	for _, item := range items {
		if ctx.Err() != nil {
			return
		}
		_, err := s.ingester.AddDocument(ctx, &store.Document{
			ID:      item.Path,
			Type:    store.DocumentTypeFile,
			Content: item.Content,
			Metadata: store.Metadata{
				Path: item.Path,
			},
		})
		if err != nil {
			failed++
			s.logger.Warn("sync ingest failed", "path", item.Path, "error", err)
		}
	}

	s.logger.Info("sync pass complete", "items", len(items), "failed", failed)
}
