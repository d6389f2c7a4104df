// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

// Package recommend suggests documents relevant to a free-text context by
// combining search candidates with their one-hop graph neighborhood.
package recommend

import (
	"context"

	"github.com/mnemos-dev/mnemos/internal/graph"
	"github.com/mnemos-dev/mnemos/internal/store"
	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
)

// DefaultLimit applies when a request does not specify a result count.
const DefaultLimit = 5

// Searcher finds documents for a query. *search.Engine satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, limit int, docType store.DocumentType) ([]*store.Document, error)
}

// Walker expands a node's graph neighborhood. *graph.Index satisfies it.
type Walker interface {
	Neighbors(ctx context.Context, nodeID string, depth int, relType string) ([]*graph.Neighbor, error)
}

// Engine produces recommendations.
type Engine struct {
	searcher Searcher
	walker   Walker
}

// NewEngine creates a recommendation engine.
func NewEngine(searcher Searcher, walker Walker) *Engine {
	return &Engine{searcher: searcher, walker: walker}
}

// Recommend returns up to limit documents relevant to the given context.
// Search candidates are fetched at twice the limit, deduplicated by id, and
// each candidate's one-hop neighbors fill any remaining budget. Output keeps
// insertion order: direct matches first, graph expansions after.
func (e *Engine) Recommend(ctx context.Context, contextText string, limit int) ([]*store.Document, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	candidates, err := e.searcher.Search(ctx, contextText, limit*2, "")
	if err != nil {
		return nil, mnerr.Wrap(err, mnerr.CodeInternalFailure, "gathering recommendation candidates")
	}

	seen := make(map[string]bool, len(candidates))
	var direct []*store.Document

	for _, doc := range candidates {
		if len(direct) >= limit {
			break
		}
		if seen[doc.ID] {
			continue
		}
		seen[doc.ID] = true
		direct = append(direct, doc)
	}

	// One-hop expansion around the direct matches only; expansions are never
	// themselves expanded. Per-node failures are tolerated because direct
	// matches alone are still a valid recommendation set.
	result := direct
	for _, doc := range direct {
		if len(result) >= limit {
			break
		}
		neighbors, err := e.walker.Neighbors(ctx, doc.ID, 1, "")
		if err != nil {
			continue
		}
		for _, n := range neighbors {
			if len(result) >= limit {
				break
			}
			if seen[n.Document.ID] {
				continue
			}
			seen[n.Document.ID] = true
			result = append(result, n.Document)
		}
	}

	return result, nil
}
