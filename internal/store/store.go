// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

// Package store defines the durable storage contracts for documents and
// relationship edges, and the backend factory registry.
package store

import "context"

// DocumentStore persists documents and answers similarity and lexical queries.
type DocumentStore interface {
	// Upsert inserts or fully replaces a document. Content, metadata, and
	// embedding are replaced, never appended.
	Upsert(ctx context.Context, doc *Document) error

	// Get returns the document by id, or a not-found coded error.
	Get(ctx context.Context, id string) (*Document, error)

	// Delete removes the document, its embedding, and its lexical index
	// entry. Deleting an absent id is a no-op.
	Delete(ctx context.Context, id string) error

	// VectorSearch returns up to limit documents ordered by ascending vector
	// distance to embedding, optionally filtered by document type.
	VectorSearch(ctx context.Context, embedding []float32, limit int, docType DocumentType) ([]*Document, error)

	// TextSearch returns up to limit documents ordered by descending lexical
	// relevance to query, optionally filtered by document type.
	TextSearch(ctx context.Context, query string, limit int, docType DocumentType) ([]*Document, error)
}

// EdgeStore persists directed weighted relationship edges.
type EdgeStore interface {
	// UpsertEdge inserts the edge, or updates weight and metadata when an
	// edge with the same derived id already exists.
	UpsertEdge(ctx context.Context, edge *Edge) error

	// EdgesFrom returns all outgoing edges of sourceID.
	EdgesFrom(ctx context.Context, sourceID string) ([]*Edge, error)
}

// Store is the full durable-store surface.
type Store interface {
	DocumentStore
	EdgeStore

	// Analytics returns aggregate counts per document type and relationship type.
	Analytics(ctx context.Context) (*Analytics, error)

	Close() error
}
