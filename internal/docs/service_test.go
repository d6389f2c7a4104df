// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package docs_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mnemos-dev/mnemos/internal/cache"
	"github.com/mnemos-dev/mnemos/internal/docs"
	"github.com/mnemos-dev/mnemos/internal/graph"
	"github.com/mnemos-dev/mnemos/internal/provider"
	"github.com/mnemos-dev/mnemos/internal/recommend"
	"github.com/mnemos-dev/mnemos/internal/search"
	"github.com/mnemos-dev/mnemos/internal/store"
	"github.com/mnemos-dev/mnemos/internal/store/sqlite"
	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, _, _ string) (*provider.EmbedResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &provider.EmbedResult{Vector: f.vector, Provider: "fake"}, nil
}

type fixture struct {
	service  *docs.Service
	store    *sqlite.Store
	cache    *cache.Cache
	embedder *fakeEmbedder
}

func newFixture(t *testing.T, name string, opts docs.Options) *fixture {
	t.Helper()
	s, err := sqlite.New(filepath.Join(t.TempDir(), name+".db"), 3, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	c := cache.New()
	embedder := &fakeEmbedder{vector: []float32{1, 0, 0}}
	engine := search.NewEngine(s, embedder, nil)
	walker := graph.NewIndex(s)
	recommender := recommend.NewEngine(engine, walker)

	return &fixture{
		service:  docs.NewService(s, c, embedder, engine, walker, recommender, opts),
		store:    s,
		cache:    c,
		embedder: embedder,
	}
}

func TestService_AddAndGetDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "addget", docs.Options{})

	ids, err := f.service.AddDocument(ctx, &store.Document{
		ID:      "d1",
		Type:    store.DocumentTypeFile,
		Content: "alpha beta",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, ids)

	got, err := f.service.GetDocument(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alpha beta", got.Content)
	assert.Equal(t, []float32{1, 0, 0}, got.Embedding)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestService_AddDocumentGeneratesID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "genid", docs.Options{})

	ids, err := f.service.AddDocument(ctx, &store.Document{Content: "no id supplied"})
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.NotEmpty(t, ids[0])
}

func TestService_AddDocumentRejectsEmptyContent(t *testing.T) {
	f := newFixture(t, "empty", docs.Options{})

	_, err := f.service.AddDocument(context.Background(), &store.Document{ID: "d1"})
	require.Error(t, err)
	assert.True(t, mnerr.IsInvalidInput(err))
}

func TestService_GetDocumentServesFromCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "cachehit", docs.Options{})

	_, err := f.service.AddDocument(ctx, &store.Document{ID: "d1", Content: "cached content"})
	require.NoError(t, err)

	// The write populated the cache; a hit must not touch storage.
	cached, ok := f.cache.Get(cache.DocKey("d1"))
	require.True(t, ok)
	assert.Equal(t, "cached content", cached.(*store.Document).Content)

	got, err := f.service.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "cached content", got.Content)
}

func TestService_GetDocumentAfterEvictionRefillsCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "evict", docs.Options{})

	_, err := f.service.AddDocument(ctx, &store.Document{ID: "d1", Content: "durable content"})
	require.NoError(t, err)

	f.service.EvictDocument("d1")
	_, ok := f.cache.Get(cache.DocKey("d1"))
	require.False(t, ok)

	got, err := f.service.GetDocument(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "durable content", got.Content)

	_, ok = f.cache.Get(cache.DocKey("d1"))
	assert.True(t, ok, "store fallback must repopulate the cache")
}

func TestService_GetDocumentMissingIsNilNotError(t *testing.T) {
	f := newFixture(t, "missing", docs.Options{})

	got, err := f.service.GetDocument(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestService_AddDocumentChunksOversizedContent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "chunked", docs.Options{ChunkMaxBytes: 32})

	lines := []string{
		strings.Repeat("a", 20),
		strings.Repeat("b", 20),
		strings.Repeat("c", 20),
	}
	ids, err := f.service.AddDocument(ctx, &store.Document{
		ID:      "big",
		Type:    store.DocumentTypeFile,
		Content: strings.Join(lines, "\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"big_chunk_1", "big_chunk_2", "big_chunk_3"}, ids)

	for i, id := range ids {
		got, err := f.service.GetDocument(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Metadata.IsChunk())
		assert.Equal(t, "big", got.Metadata.OriginalDocID)
		assert.Equal(t, i+1, got.Metadata.ChunkNumber)
		assert.Equal(t, 3, got.Metadata.TotalChunks)
	}

	// The logical parent id is never stored as its own document.
	parent, err := f.service.GetDocument(ctx, "big")
	require.NoError(t, err)
	assert.Nil(t, parent)
}

func TestService_RewriteShrinkingChunkedDocumentDropsStaleChunks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "shrink", docs.Options{ChunkMaxBytes: 32})

	lines := []string{
		strings.Repeat("a", 20),
		strings.Repeat("b", 20),
		strings.Repeat("c", 20),
	}
	_, err := f.service.AddDocument(ctx, &store.Document{
		ID:      "big",
		Content: strings.Join(lines, "\n"),
	})
	require.NoError(t, err)

	ids, err := f.service.AddDocument(ctx, &store.Document{ID: "big", Content: "tiny"})
	require.NoError(t, err)
	assert.Equal(t, []string{"big"}, ids)

	got, err := f.service.GetDocument(ctx, "big")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tiny", got.Content)

	for _, id := range []string{"big_chunk_1", "big_chunk_2", "big_chunk_3"} {
		stale, err := f.service.GetDocument(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, stale, "%s must not survive the re-write", id)
	}

	// The old chunk content must be gone from the lexical index too.
	hits, err := f.service.TextSearch(ctx, "bbbbbbbbbbbbbbbbbbbb", 10, "")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestService_RewriteWithFewerChunksTrimsTail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "trim", docs.Options{ChunkMaxBytes: 32})

	_, err := f.service.AddDocument(ctx, &store.Document{
		ID: "big",
		Content: strings.Join([]string{
			strings.Repeat("a", 20),
			strings.Repeat("b", 20),
			strings.Repeat("c", 20),
		}, "\n"),
	})
	require.NoError(t, err)

	ids, err := f.service.AddDocument(ctx, &store.Document{
		ID: "big",
		Content: strings.Join([]string{
			strings.Repeat("x", 20),
			strings.Repeat("y", 20),
		}, "\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"big_chunk_1", "big_chunk_2"}, ids)

	stale, err := f.service.GetDocument(ctx, "big_chunk_3")
	require.NoError(t, err)
	assert.Nil(t, stale)

	first, err := f.service.GetDocument(ctx, "big_chunk_1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, strings.Repeat("x", 20), first.Content)
	assert.Equal(t, 2, first.Metadata.TotalChunks)
}

func TestService_RewriteGrowingDocumentReplacesUnchunkedRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "grow", docs.Options{ChunkMaxBytes: 32})

	_, err := f.service.AddDocument(ctx, &store.Document{ID: "doc", Content: "small"})
	require.NoError(t, err)

	ids, err := f.service.AddDocument(ctx, &store.Document{
		ID: "doc",
		Content: strings.Join([]string{
			strings.Repeat("a", 20),
			strings.Repeat("b", 20),
		}, "\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"doc_chunk_1", "doc_chunk_2"}, ids)

	old, err := f.service.GetDocument(ctx, "doc")
	require.NoError(t, err)
	assert.Nil(t, old, "the un-chunked row must not survive alongside its chunks")
}

func TestService_RewriteRebuildsTypeAndTagIndices(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "reindex", docs.Options{})

	_, err := f.service.AddDocument(ctx, &store.Document{
		ID:       "d1",
		Type:     store.DocumentTypeTask,
		Content:  "first shape",
		Metadata: store.Metadata{Tags: []string{"urgent", "backend"}},
	})
	require.NoError(t, err)

	_, err = f.service.AddDocument(ctx, &store.Document{
		ID:       "d1",
		Type:     store.DocumentTypeRule,
		Content:  "second shape",
		Metadata: store.Metadata{Tags: []string{"backend", "style"}},
	})
	require.NoError(t, err)

	assert.NotContains(t, f.cache.SMembers(cache.TypeKey("task")), "d1")
	assert.Contains(t, f.cache.SMembers(cache.TypeKey("rule")), "d1")
	assert.NotContains(t, f.cache.SMembers(cache.TagKey("urgent")), "d1")
	assert.Contains(t, f.cache.SMembers(cache.TagKey("backend")), "d1")
	assert.Contains(t, f.cache.SMembers(cache.TagKey("style")), "d1")
}

func TestService_EmbeddingFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "noembed", docs.Options{})
	f.embedder.err = mnerr.New(mnerr.CodeProviderAllUnavailable, "no embedders")

	ids, err := f.service.AddDocument(ctx, &store.Document{ID: "d1", Content: "plain content"})
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, ids)

	got, err := f.service.GetDocument(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Embedding)
}

func TestService_AddDocumentIndexesTypeAndTags(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "indices", docs.Options{})

	_, err := f.service.AddDocument(ctx, &store.Document{
		ID:      "d1",
		Type:    store.DocumentTypeTask,
		Content: "tagged content",
		Metadata: store.Metadata{
			Tags: []string{"urgent", "backend"},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, f.cache.SMembers(cache.TypeKey("task")), "d1")
	assert.Contains(t, f.cache.SMembers(cache.TagKey("urgent")), "d1")
	assert.Contains(t, f.cache.SMembers(cache.TagKey("backend")), "d1")
}

func TestService_AddRelationshipAndNeighbors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "rel", docs.Options{})

	_, err := f.service.AddDocument(ctx, &store.Document{ID: "d1", Content: "alpha beta"})
	require.NoError(t, err)
	_, err = f.service.AddDocument(ctx, &store.Document{ID: "d2", Content: "beta gamma"})
	require.NoError(t, err)

	require.NoError(t, f.service.AddRelationship(ctx, "d1", "d2", store.RelationReferences, 1.0, nil))

	neighbors, err := f.service.Neighbors(ctx, "d1", 1, "")
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, "d2", neighbors[0].Document.ID)

	assert.Contains(t, f.cache.SMembers(cache.GraphKey("d1")), "d2")
}

func TestService_RecommendScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "recommend", docs.Options{})
	// Lexical-only so FTS ranking drives candidate selection.
	f.embedder.err = mnerr.New(mnerr.CodeProviderAllUnavailable, "no embedders")

	_, err := f.service.AddDocument(ctx, &store.Document{ID: "d1", Type: store.DocumentTypeFile, Content: "alpha beta"})
	require.NoError(t, err)
	_, err = f.service.AddDocument(ctx, &store.Document{ID: "d2", Type: store.DocumentTypeFile, Content: "beta gamma"})
	require.NoError(t, err)
	require.NoError(t, f.service.AddRelationship(ctx, "d1", "d2", store.RelationReferences, 1.0, nil))

	result, err := f.service.Recommend(ctx, "beta", 5)
	require.NoError(t, err)

	counts := map[string]int{}
	for _, doc := range result {
		counts[doc.ID]++
	}
	assert.Equal(t, 1, counts["d1"], "d1 must appear exactly once")
	assert.Equal(t, 1, counts["d2"], "d2 must appear exactly once")
}

func TestService_AnalyticsDelegates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "analytics", docs.Options{})

	_, err := f.service.AddDocument(ctx, &store.Document{ID: "d1", Content: "alpha"})
	require.NoError(t, err)

	a, err := f.service.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.TotalDocuments)
}
