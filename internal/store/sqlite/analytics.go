// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package sqlite

import (
	"context"
	"database/sql"

	"github.com/mnemos-dev/mnemos/internal/store"
	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
)

// Analytics aggregates document and edge counts.
func (s *Store) Analytics(ctx context.Context) (*store.Analytics, error) {
	a := &store.Analytics{
		DocumentsByType: make(map[string]int64),
		EdgesByType:     make(map[string]int64),
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&a.TotalDocuments); err != nil {
		return nil, mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "counting documents: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM doc_vectors`).Scan(&a.EmbeddedDocuments); err != nil {
		return nil, mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "counting embedded documents: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges`).Scan(&a.TotalEdges); err != nil {
		return nil, mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "counting edges: %w", err)
	}

	if err := countGroups(ctx, s.db, `SELECT doc_type, COUNT(*) FROM documents GROUP BY doc_type`, a.DocumentsByType); err != nil {
		return nil, mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "counting documents by type: %w", err)
	}

	if err := countGroups(ctx, s.db, `SELECT rel_type, COUNT(*) FROM edges GROUP BY rel_type`, a.EdgesByType); err != nil {
		return nil, mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "counting edges by type: %w", err)
	}

	return a, nil
}

func countGroups(ctx context.Context, db *sql.DB, query string, dest map[string]int64) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			key   string
			count int64
		)
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		dest[key] = count
	}
	return rows.Err()
}
