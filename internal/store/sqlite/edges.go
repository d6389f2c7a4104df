// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package sqlite

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mnemos-dev/mnemos/internal/store"
	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
)

// UpsertEdge inserts a directed edge, or updates weight and metadata when
// the same (source, type, target) triple already exists. The derived edge id
// is the conflict key, so re-adding never duplicates.
func (s *Store) UpsertEdge(ctx context.Context, edge *store.Edge) error {
	if edge.SourceID == "" || edge.TargetID == "" || edge.Type == "" {
		return mnerr.New(mnerr.CodeStoreInvalidInput, "edge source, target, and type must not be empty")
	}

	id := edge.ID
	if id == "" {
		id = store.EdgeID(edge.SourceID, edge.Type, edge.TargetID)
	}

	weight := edge.Weight
	if weight == 0 {
		weight = 1.0
	}

	metaJSON := []byte("{}")
	if len(edge.Metadata) > 0 {
		var err error
		metaJSON, err = json.Marshal(edge.Metadata)
		if err != nil {
			return mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "marshalling edge metadata %s: %w", id, err)
		}
	}

	created := edge.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	const q = `INSERT INTO edges (id, source_id, target_id, rel_type, weight, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	weight = excluded.weight,
	metadata = excluded.metadata`

	if _, err := s.db.ExecContext(ctx, q,
		id,
		edge.SourceID,
		edge.TargetID,
		edge.Type,
		weight,
		string(metaJSON),
		formatTime(created),
	); err != nil {
		return mnerr.Wrap(err, mnerr.CodeStoreDatabaseFailure, "upserting edge "+id, mnerr.FieldEdge(id))
	}
	return nil
}

// EdgesFrom returns all outgoing edges of sourceID.
func (s *Store) EdgesFrom(ctx context.Context, sourceID string) ([]*store.Edge, error) {
	const q = `SELECT id, source_id, target_id, rel_type, weight, metadata, created_at
FROM edges WHERE source_id = ?
ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, q, sourceID)
	if err != nil {
		return nil, mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "getting edges for %s: %w", sourceID, err)
	}
	defer func() { _ = rows.Close() }()

	var edges []*store.Edge
	for rows.Next() {
		var (
			edge     store.Edge
			metaJSON string
			created  string
		)
		if err := rows.Scan(&edge.ID, &edge.SourceID, &edge.TargetID, &edge.Type, &edge.Weight, &metaJSON, &created); err != nil {
			return nil, mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "scanning edge row: %w", err)
		}

		edge.CreatedAt = parseTime(created)
		if metaJSON != "" && metaJSON != "{}" {
			if err := json.Unmarshal([]byte(metaJSON), &edge.Metadata); err != nil {
				return nil, mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "unmarshalling edge metadata: %w", err)
			}
		}

		edges = append(edges, &edge)
	}
	if err := rows.Err(); err != nil {
		return nil, mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "iterating edge rows: %w", err)
	}

	return edges, nil
}
