// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

// Package search runs semantic queries over the document store, degrading
// from vector similarity to lexical full-text ranking when no embedding can
// be produced.
package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mnemos-dev/mnemos/internal/provider"
	"github.com/mnemos-dev/mnemos/internal/store"
	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
)

// DefaultLimit applies when a query does not specify a result count.
const DefaultLimit = 10

// Embedder produces a query embedding. *provider.Gateway satisfies it.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text, preferred string) (*provider.EmbedResult, error)
}

// Engine answers search queries against a document store.
type Engine struct {
	store    store.DocumentStore
	embedder Embedder
	logger   *slog.Logger
}

// NewEngine creates a search engine. A nil logger falls back to slog.Default.
func NewEngine(docStore store.DocumentStore, embedder Embedder, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: docStore, embedder: embedder, logger: logger}
}

// Search finds the documents most relevant to query. The vector path is
// attempted first; embedding or KNN failures demote the query to lexical
// ranking rather than failing it. An error surfaces only when the lexical
// path fails too.
func (e *Engine) Search(ctx context.Context, query string, limit int, docType store.DocumentType) ([]*store.Document, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	embedding, embedErr := e.embedQuery(ctx, query)
	if embedErr == nil {
		docs, err := e.store.VectorSearch(ctx, embedding, limit, docType)
		if err == nil {
			return docs, nil
		}
		e.logger.Warn("vector search failed, degrading to lexical search",
			"query_len", len(query), "error", err)
	}

	docs, err := e.store.TextSearch(ctx, query, limit, docType)
	if err != nil {
		return nil, mnerr.Wrap(err, mnerr.CodeSearchLexicalFailure, "lexical fallback failed")
	}
	return docs, nil
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	result, err := e.embedder.GenerateEmbedding(ctx, query, "")
	if err != nil {
		e.logger.Warn("query embedding failed, degrading to lexical search",
			"query_len", len(query), "error", err)
		return nil, err
	}
	return result.Vector, nil
}
