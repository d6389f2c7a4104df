// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	"github.com/mnemos-dev/mnemos/internal/store"
	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
)

// Upsert inserts or fully replaces a document and its embedding. The cache
// layer is populated by the caller only after this returns nil, so a crash
// mid-write can never leave the cache ahead of storage.
func (s *Store) Upsert(ctx context.Context, doc *store.Document) error {
	if doc.ID == "" {
		return mnerr.New(mnerr.CodeStoreInvalidInput, "document id must not be empty")
	}

	metaJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "marshalling metadata for %s: %w", doc.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const docQ = `INSERT INTO documents (id, doc_type, content, metadata, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	doc_type = excluded.doc_type,
	content = excluded.content,
	metadata = excluded.metadata,
	updated_at = excluded.updated_at`

	if _, err := tx.ExecContext(ctx, docQ,
		doc.ID,
		string(doc.Type),
		doc.Content,
		string(metaJSON),
		formatTime(doc.CreatedAt),
		formatTime(doc.UpdatedAt),
	); err != nil {
		return mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "upserting document %s: %w", doc.ID, err)
	}

	// vec0 does not support ON CONFLICT; delete first for upsert. The delete
	// also clears a stale vector when the rewrite carries no embedding.
	if _, err := tx.ExecContext(ctx, `DELETE FROM doc_vectors WHERE id = ?`, doc.ID); err != nil {
		return mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "deleting existing vector %s: %w", doc.ID, err)
	}

	if len(doc.Embedding) > 0 {
		blob, err := sqlite_vec.SerializeFloat32(doc.Embedding)
		if err != nil {
			return mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "serializing embedding for %s: %w", doc.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO doc_vectors(id, embedding) VALUES (?, ?)`, doc.ID, blob); err != nil {
			return mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "inserting vector %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "committing document %s: %w", doc.ID, err)
	}
	return nil
}

// Get returns the document by id, including its embedding when one is stored.
func (s *Store) Get(ctx context.Context, id string) (*store.Document, error) {
	const q = `SELECT id, doc_type, content, metadata, created_at, updated_at
FROM documents WHERE id = ?`

	doc, err := scanDocument(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, mnerr.New(mnerr.CodeStoreDocumentNotFound, "document "+id+" not found", mnerr.FieldDocument(id))
		}
		return nil, mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "getting document %s: %w", id, err)
	}

	var blob []byte
	err = s.db.QueryRowContext(ctx, `SELECT embedding FROM doc_vectors WHERE id = ?`, id).Scan(&blob)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// No embedding stored; a valid state.
	case err != nil:
		return nil, mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "getting embedding %s: %w", id, err)
	default:
		doc.Embedding = deserializeFloat32(blob)
	}

	return doc, nil
}

// Delete removes the document row and its vector. The FTS entry goes with
// the row via the delete trigger. Absent ids are a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return mnerr.New(mnerr.CodeStoreInvalidInput, "document id must not be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM doc_vectors WHERE id = ?`, id); err != nil {
		return mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "deleting vector %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "deleting document %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "committing delete of %s: %w", id, err)
	}
	return nil
}

// VectorSearch runs a k-nearest-neighbor query and joins document rows,
// ordered by ascending distance. vec0 cannot filter during MATCH, so a type
// filter over-fetches candidates and trims after the join.
func (s *Store) VectorSearch(ctx context.Context, embedding []float32, limit int, docType store.DocumentType) ([]*store.Document, error) {
	if limit <= 0 {
		limit = 10
	}

	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "serializing query vector: %w", err)
	}

	k := limit
	if docType != "" {
		k = limit * 4
	}

	const q = `SELECT d.id, d.doc_type, d.content, d.metadata, d.created_at, d.updated_at
FROM (
	SELECT id, distance FROM doc_vectors
	WHERE embedding MATCH ? AND k = ?
) v
JOIN documents d ON d.id = v.id
WHERE (? = '' OR d.doc_type = ?)
ORDER BY v.distance
LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, blob, k, string(docType), string(docType), limit)
	if err != nil {
		return nil, mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanDocuments(rows)
}

// TextSearch runs a full-text query ranked by bm25 relevance.
func (s *Store) TextSearch(ctx context.Context, query string, limit int, docType store.DocumentType) ([]*store.Document, error) {
	if limit <= 0 {
		limit = 10
	}

	const q = `SELECT d.id, d.doc_type, d.content, d.metadata, d.created_at, d.updated_at
FROM documents d
JOIN documents_fts fts ON d.rowid = fts.rowid
WHERE fts.content MATCH ? AND (? = '' OR d.doc_type = ?)
ORDER BY bm25(fts)
LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, query, string(docType), string(docType), limit)
	if err != nil {
		return nil, mnerr.Errorf(mnerr.CodeSearchLexicalFailure, "text search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanDocuments(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*store.Document, error) {
	var (
		doc                  store.Document
		docType              string
		metaJSON             string
		createdAt, updatedAt string
	)

	if err := row.Scan(&doc.ID, &docType, &doc.Content, &metaJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	doc.Type = store.DocumentType(docType)
	doc.CreatedAt = parseTime(createdAt)
	doc.UpdatedAt = parseTime(updatedAt)

	if metaJSON != "" && metaJSON != "{}" {
		if err := json.Unmarshal([]byte(metaJSON), &doc.Metadata); err != nil {
			return nil, err
		}
	}

	return &doc, nil
}

func scanDocuments(rows *sql.Rows) ([]*store.Document, error) {
	var docs []*store.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "scanning document row: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "iterating document rows: %w", err)
	}
	return docs, nil
}

// deserializeFloat32 decodes the little-endian float32 blob format used by
// sqlite-vec.
func deserializeFloat32(blob []byte) []float32 {
	if len(blob) == 0 || len(blob)%4 != 0 {
		return nil
	}
	out := make([]float32, len(blob)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return out
}
