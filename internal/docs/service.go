// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

// Package docs is the caller-facing service over the document store: writes
// with chunking and write-through caching, cached reads, relationship
// management, and delegation to the search, graph, and recommendation
// engines.
package docs

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mnemos-dev/mnemos/internal/cache"
	"github.com/mnemos-dev/mnemos/internal/chunk"
	"github.com/mnemos-dev/mnemos/internal/graph"
	"github.com/mnemos-dev/mnemos/internal/provider"
	"github.com/mnemos-dev/mnemos/internal/store"
	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
)

// Embedder produces content embeddings. *provider.Gateway satisfies it.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text, preferred string) (*provider.EmbedResult, error)
}

// Searcher answers search queries. *search.Engine satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, limit int, docType store.DocumentType) ([]*store.Document, error)
}

// Walker expands graph neighborhoods. *graph.Index satisfies it.
type Walker interface {
	Neighbors(ctx context.Context, nodeID string, depth int, relType string) ([]*graph.Neighbor, error)
}

// Recommender suggests related documents. *recommend.Engine satisfies it.
type Recommender interface {
	Recommend(ctx context.Context, contextText string, limit int) ([]*store.Document, error)
}

// Service wires the storage, cache, and engine layers behind the operations
// callers consume.
type Service struct {
	store       store.Store
	cache       *cache.Cache
	embedder    Embedder
	searcher    Searcher
	walker      Walker
	recommender Recommender
	logger      *slog.Logger

	chunkMaxBytes int
	cacheTTL      time.Duration
	nowFunc       func() time.Time
}

// Options tunes Service behavior. Zero values pick defaults.
type Options struct {
	ChunkMaxBytes int
	CacheTTL      time.Duration
	Logger        *slog.Logger
}

// NewService creates the document service.
func NewService(s store.Store, c *cache.Cache, embedder Embedder, searcher Searcher, walker Walker, recommender Recommender, opts Options) *Service {
	if opts.ChunkMaxBytes <= 0 {
		opts.ChunkMaxBytes = chunk.DefaultMaxBytes
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = cache.DocumentTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		store:         s,
		cache:         c,
		embedder:      embedder,
		searcher:      searcher,
		walker:        walker,
		recommender:   recommender,
		logger:        opts.Logger,
		chunkMaxBytes: opts.ChunkMaxBytes,
		cacheTTL:      opts.CacheTTL,
		nowFunc:       time.Now,
	}
}

// AddDocument stores a document, splitting oversized content into chunk
// documents. It returns the ids actually written, in storage order. A
// missing id is generated. Re-writing an id fully replaces the previous
// state: chunk rows the new content no longer needs are deleted, never left
// behind. Embedding generation is best-effort: a failed embedding leaves the
// document lexical-only, it never fails the write.
func (s *Service) AddDocument(ctx context.Context, doc *store.Document) ([]string, error) {
	if doc == nil || doc.Content == "" {
		return nil, mnerr.New(mnerr.CodeStoreInvalidInput, "document content is empty")
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Type == "" {
		doc.Type = store.DocumentTypeFile
	}

	now := s.nowFunc().UTC()
	if doc.Metadata.Timestamp.IsZero() {
		doc.Metadata.Timestamp = now
	}

	prevChunks, err := s.chunkCount(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	pieces := chunk.Split(doc.Content, s.chunkMaxBytes)
	if len(pieces) <= 1 {
		if err := s.writeDocument(ctx, doc, now); err != nil {
			return nil, err
		}
		if err := s.removeChunks(ctx, doc.ID, 1, prevChunks); err != nil {
			return nil, err
		}
		return []string{doc.ID}, nil
	}

	ids := make([]string, 0, len(pieces))
	for i, piece := range pieces {
		part := &store.Document{
			ID:       chunkID(doc.ID, i+1),
			Type:     doc.Type,
			Content:  piece,
			Metadata: doc.Metadata,
		}
		part.Metadata.OriginalDocID = doc.ID
		part.Metadata.ChunkNumber = i + 1
		part.Metadata.TotalChunks = len(pieces)

		if err := s.writeDocument(ctx, part, now); err != nil {
			return nil, err
		}
		ids = append(ids, part.ID)
	}

	// An earlier un-chunked write of the same id is superseded by the chunk
	// rows, as are chunks past the new count.
	if err := s.removeDocument(ctx, doc.ID); err != nil {
		return nil, err
	}
	if err := s.removeChunks(ctx, doc.ID, len(pieces)+1, prevChunks); err != nil {
		return nil, err
	}
	return ids, nil
}

func chunkID(id string, n int) string {
	return fmt.Sprintf("%s_chunk_%d", id, n)
}

// chunkCount reports how many chunk rows an earlier write of id left in
// storage, via the first chunk's TotalChunks metadata. Zero means the id was
// never chunked.
func (s *Service) chunkCount(ctx context.Context, id string) (int, error) {
	first, err := s.store.Get(ctx, chunkID(id, 1))
	if err != nil {
		if mnerr.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return first.Metadata.TotalChunks, nil
}

// removeChunks deletes the chunk rows numbered from..through, inclusive.
func (s *Service) removeChunks(ctx context.Context, id string, from, through int) error {
	for n := from; n <= through; n++ {
		if err := s.removeDocument(ctx, chunkID(id, n)); err != nil {
			return err
		}
	}
	return nil
}

// removeDocument deletes a stored document and clears its cache mirror and
// index memberships. Absent ids are a no-op.
func (s *Service) removeDocument(ctx context.Context, id string) error {
	old, err := s.store.Get(ctx, id)
	if err != nil {
		if mnerr.IsNotFound(err) {
			return nil
		}
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.Delete(cache.DocKey(id))
	s.cache.SRem(cache.TypeKey(string(old.Type)), id)
	for _, tag := range old.Metadata.Tags {
		s.cache.SRem(cache.TagKey(tag), id)
	}
	return nil
}

// writeDocument embeds, persists, and then caches one document. Cache
// population strictly follows the durable write so a crash in between leaves
// a miss, never a wrong value. Index memberships are rebuilt: a re-write
// under a new type or tag set drops the old memberships.
func (s *Service) writeDocument(ctx context.Context, doc *store.Document, now time.Time) error {
	prev, err := s.store.Get(ctx, doc.ID)
	if err != nil && !mnerr.IsNotFound(err) {
		return err
	}

	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
		if prev != nil && !prev.CreatedAt.IsZero() {
			doc.CreatedAt = prev.CreatedAt
		}
	}
	doc.UpdatedAt = now

	if len(doc.Embedding) == 0 && s.embedder != nil {
		result, err := s.embedder.GenerateEmbedding(ctx, doc.Content, "")
		if err != nil {
			s.logger.Warn("embedding generation failed, storing document without vector",
				"document", doc.ID, "error", err)
		} else {
			doc.Embedding = result.Vector
		}
	}

	if err := s.store.Upsert(ctx, doc); err != nil {
		return err
	}

	if prev != nil {
		if prev.Type != doc.Type {
			s.cache.SRem(cache.TypeKey(string(prev.Type)), doc.ID)
		}
		for _, tag := range prev.Metadata.Tags {
			if !slices.Contains(doc.Metadata.Tags, tag) {
				s.cache.SRem(cache.TagKey(tag), doc.ID)
			}
		}
	}

	s.cache.Set(cache.DocKey(doc.ID), doc, s.cacheTTL)
	s.cache.SAdd(cache.TypeKey(string(doc.Type)), doc.ID)
	for _, tag := range doc.Metadata.Tags {
		s.cache.SAdd(cache.TagKey(tag), doc.ID)
	}
	return nil
}

// GetDocument returns a document by id, serving from cache when possible and
// repopulating the cache on a store hit. A missing document yields (nil, nil).
func (s *Service) GetDocument(ctx context.Context, id string) (*store.Document, error) {
	if id == "" {
		return nil, mnerr.New(mnerr.CodeStoreInvalidInput, "document id is empty")
	}

	if cached, ok := s.cache.Get(cache.DocKey(id)); ok {
		if doc, ok := cached.(*store.Document); ok {
			return doc, nil
		}
	}

	doc, err := s.store.Get(ctx, id)
	if err != nil {
		if mnerr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	s.cache.Set(cache.DocKey(id), doc, s.cacheTTL)
	return doc, nil
}

// AddRelationship records a directed edge between two documents. Weight
// defaults to 1.0. The graph index key for the source is updated after the
// durable write.
func (s *Service) AddRelationship(ctx context.Context, sourceID, targetID, relType string, weight float64, metadata map[string]any) error {
	edge := &store.Edge{
		SourceID: sourceID,
		TargetID: targetID,
		Type:     relType,
		Weight:   weight,
		Metadata: metadata,
	}
	if err := s.store.UpsertEdge(ctx, edge); err != nil {
		return err
	}
	s.cache.SAdd(cache.GraphKey(sourceID), targetID)
	return nil
}

// VectorSearch finds documents by semantic similarity, degrading to lexical
// ranking when no embedding path is usable.
func (s *Service) VectorSearch(ctx context.Context, query string, limit int, docType store.DocumentType) ([]*store.Document, error) {
	return s.searcher.Search(ctx, query, limit, docType)
}

// TextSearch finds documents by lexical full-text ranking only.
func (s *Service) TextSearch(ctx context.Context, query string, limit int, docType store.DocumentType) ([]*store.Document, error) {
	return s.store.TextSearch(ctx, query, limit, docType)
}

// Neighbors returns the graph neighborhood of a document.
func (s *Service) Neighbors(ctx context.Context, nodeID string, depth int, relType string) ([]*graph.Neighbor, error) {
	return s.walker.Neighbors(ctx, nodeID, depth, relType)
}

// Recommend suggests documents relevant to a free-text context.
func (s *Service) Recommend(ctx context.Context, contextText string, limit int) ([]*store.Document, error) {
	return s.recommender.Recommend(ctx, contextText, limit)
}

// Analytics reports aggregate document and relationship counts.
func (s *Service) Analytics(ctx context.Context) (*store.Analytics, error) {
	return s.store.Analytics(ctx)
}

// EvictDocument drops a document's cache mirror. Intended for tests and
// operational tooling; normal flows rely on TTL expiry.
func (s *Service) EvictDocument(id string) {
	s.cache.Delete(cache.DocKey(id))
}
