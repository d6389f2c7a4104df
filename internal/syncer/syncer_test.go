// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package syncer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mnemos-dev/mnemos/internal/store"
	"github.com/mnemos-dev/mnemos/internal/syncer"
	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	items []syncer.Item
	err   error
}

func (f *fakeSource) Scan(_ context.Context) ([]syncer.Item, error) {
	return f.items, f.err
}

type fakeIngester struct {
	mu     sync.Mutex
	docs   []*store.Document
	errFor map[string]error
}

func (f *fakeIngester) AddDocument(_ context.Context, doc *store.Document) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errFor[doc.ID]; ok {
		return nil, err
	}
	f.docs = append(f.docs, doc)
	return []string{doc.ID}, nil
}

func (f *fakeIngester) ingested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.docs))
	for _, d := range f.docs {
		ids = append(ids, d.ID)
	}
	return ids
}

func TestSyncer_SyncOnceIngestsAllItems(t *testing.T) {
	source := &fakeSource{items: []syncer.Item{
		{Path: "notes/a.md", Content: "alpha"},
		{Path: "notes/b.md", Content: "beta"},
	}}
	ingester := &fakeIngester{}
	s := syncer.New(source, ingester)

	s.SyncOnce(context.Background())

	assert.Equal(t, []string{"notes/a.md", "notes/b.md"}, ingester.ingested())
}

func TestSyncer_SyncOnceMapsItemFields(t *testing.T) {
	source := &fakeSource{items: []syncer.Item{{Path: "docs/readme.md", Content: "hello"}}}
	ingester := &fakeIngester{}
	s := syncer.New(source, ingester)

	s.SyncOnce(context.Background())

	require.Len(t, ingester.docs, 1)
	doc := ingester.docs[0]
	assert.Equal(t, "docs/readme.md", doc.ID)
	assert.Equal(t, store.DocumentTypeFile, doc.Type)
	assert.Equal(t, "hello", doc.Content)
	assert.Equal(t, "docs/readme.md", doc.Metadata.Path)
}

func TestSyncer_ScanFailureIsNotFatal(t *testing.T) {
	source := &fakeSource{err: mnerr.New(mnerr.CodeSyncSourceFailure, "disk gone")}
	ingester := &fakeIngester{}
	s := syncer.New(source, ingester)

	// Must not panic and must not ingest anything.
	s.SyncOnce(context.Background())
	assert.Empty(t, ingester.ingested())
}

func TestSyncer_BadItemDoesNotBlockOthers(t *testing.T) {
	source := &fakeSource{items: []syncer.Item{
		{Path: "good1", Content: "ok"},
		{Path: "bad", Content: "boom"},
		{Path: "good2", Content: "ok"},
	}}
	ingester := &fakeIngester{errFor: map[string]error{
		"bad": mnerr.New(mnerr.CodeStoreDatabaseFailure, "write failed"),
	}}
	s := syncer.New(source, ingester)

	s.SyncOnce(context.Background())

	assert.Equal(t, []string{"good1", "good2"}, ingester.ingested())
}

func TestSyncer_RunHonorsInitialDelayAndInterval(t *testing.T) {
	source := &fakeSource{items: []syncer.Item{{Path: "a", Content: "x"}}}
	ingester := &fakeIngester{}
	s := syncer.New(source, ingester,
		syncer.WithInitialDelay(5*time.Millisecond),
		syncer.WithInterval(10*time.Millisecond),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	// Wait long enough for the initial pass plus at least one ticker pass.
	assert.Eventually(t, func() bool {
		return len(ingester.ingested()) >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}

func TestSyncer_RunStopsDuringInitialDelay(t *testing.T) {
	s := syncer.New(&fakeSource{}, &fakeIngester{},
		syncer.WithInitialDelay(time.Hour),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop during initial delay")
	}
}
