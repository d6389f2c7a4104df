// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

// Package graph traverses the directed relationship graph stored alongside
// documents.
package graph

import (
	"context"

	"github.com/mnemos-dev/mnemos/internal/store"
	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
)

// MaxDepth caps traversal depth regardless of what the caller requests.
const MaxDepth = 5

// Relation describes one outgoing edge from a neighbor.
type Relation struct {
	Target string
	Type   string
	Weight float64
}

// Neighbor pairs a reachable document with its outgoing relationships.
// ReachedVia is the type of the edge that first discovered the document
// during traversal.
type Neighbor struct {
	Document      *store.Document
	ReachedVia    string
	Relationships []Relation
}

// Index walks relationships over a backing store.
type Index struct {
	store store.Store
}

// NewIndex creates a graph index over the given store.
func NewIndex(s store.Store) *Index {
	return &Index{store: s}
}

// Neighbors returns documents reachable from nodeID within depth hops,
// breadth first, excluding the start node itself. Depth 0 expands nothing:
// it yields a single entry for the seed node carrying only its own outgoing
// edges. Edges pointing at ids with no stored document are skipped. relType,
// when set, filters the result after traversal: only neighbors discovered
// through an edge of that type remain, but traversal itself always explores
// the full neighborhood.
func (idx *Index) Neighbors(ctx context.Context, nodeID string, depth int, relType string) ([]*Neighbor, error) {
	if nodeID == "" {
		return nil, mnerr.New(mnerr.CodeGraphTraversalFailure, "start node id is empty")
	}
	if depth <= 0 {
		return idx.seedOnly(ctx, nodeID, relType)
	}
	if depth > MaxDepth {
		depth = MaxDepth
	}

	visited := map[string]bool{nodeID: true}
	frontier := []string{nodeID}
	var result []*Neighbor

	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		var next []string
		for _, id := range frontier {
			edges, err := idx.store.EdgesFrom(ctx, id)
			if err != nil {
				return nil, mnerr.Wrap(err, mnerr.CodeGraphTraversalFailure, "loading edges",
					mnerr.FieldDocument(id))
			}
			for _, edge := range edges {
				if visited[edge.TargetID] {
					continue
				}
				visited[edge.TargetID] = true

				doc, err := idx.store.Get(ctx, edge.TargetID)
				if err != nil {
					if mnerr.IsNotFound(err) {
						// Dangling edge; nothing to expand behind it.
						continue
					}
					return nil, mnerr.Wrap(err, mnerr.CodeGraphTraversalFailure, "loading neighbor document",
						mnerr.FieldDocument(edge.TargetID))
				}

				outgoing, err := idx.store.EdgesFrom(ctx, edge.TargetID)
				if err != nil {
					return nil, mnerr.Wrap(err, mnerr.CodeGraphTraversalFailure, "loading neighbor edges",
						mnerr.FieldDocument(edge.TargetID))
				}

				result = append(result, &Neighbor{
					Document:      doc,
					ReachedVia:    edge.Type,
					Relationships: toRelations(outgoing),
				})
				next = append(next, edge.TargetID)
			}
		}
		frontier = next
	}

	if relType != "" {
		filtered := result[:0]
		for _, n := range result {
			if n.ReachedVia == relType {
				filtered = append(filtered, n)
			}
		}
		result = filtered
	}
	return result, nil
}

// seedOnly handles the depth-0 case: the seed node itself with its outgoing
// edges recorded, nothing expanded. An unknown seed yields an empty result.
func (idx *Index) seedOnly(ctx context.Context, nodeID, relType string) ([]*Neighbor, error) {
	doc, err := idx.store.Get(ctx, nodeID)
	if err != nil {
		if mnerr.IsNotFound(err) {
			return nil, nil
		}
		return nil, mnerr.Wrap(err, mnerr.CodeGraphTraversalFailure, "loading seed document",
			mnerr.FieldDocument(nodeID))
	}

	edges, err := idx.store.EdgesFrom(ctx, nodeID)
	if err != nil {
		return nil, mnerr.Wrap(err, mnerr.CodeGraphTraversalFailure, "loading seed edges",
			mnerr.FieldDocument(nodeID))
	}

	relations := toRelations(edges)
	if relType != "" {
		kept := relations[:0]
		for _, r := range relations {
			if r.Type == relType {
				kept = append(kept, r)
			}
		}
		relations = kept
	}

	return []*Neighbor{{Document: doc, Relationships: relations}}, nil
}

func toRelations(edges []*store.Edge) []Relation {
	relations := make([]Relation, 0, len(edges))
	for _, e := range edges {
		relations = append(relations, Relation{
			Target: e.TargetID,
			Type:   e.Type,
			Weight: e.Weight,
		})
	}
	return relations
}
