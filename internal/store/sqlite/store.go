// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

// Package sqlite implements the durable store on SQLite with sqlite-vec for
// vector similarity and FTS5 for lexical search.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mnemos-dev/mnemos/internal/store"
	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
)

func init() {
	sqlite_vec.Auto()
	store.RegisterBackend("sqlite", func(cfg *store.Config) (store.Store, error) {
		return New(cfg.Path, cfg.VectorDimensions, cfg.PoolSize)
	})
}

// defaultPoolSize bounds the connection pool when the config leaves it unset.
const defaultPoolSize = 4

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store implements store.Store backed by a single SQLite database holding
// the documents table, its FTS5 index, the vec0 embedding table, and the
// edges table.
type Store struct {
	db         *sql.DB
	dimensions int
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
// poolSize bounds the connection pool; callers block on acquisition when the
// pool is exhausted.
func New(dbPath string, dimensions, poolSize int) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "opening sqlite db: %w", err)
	}

	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	db.SetMaxOpenConns(poolSize)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "pinging sqlite db: %w", err)
	}

	if err := migrate(db, dimensions); err != nil {
		_ = db.Close()
		return nil, mnerr.Errorf(mnerr.CodeStoreDatabaseFailure, "migrating tables: %w", err)
	}

	return &Store{db: db, dimensions: dimensions}, nil
}

func migrate(db *sql.DB, dimensions int) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
	rowid      INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT UNIQUE NOT NULL,
	doc_type   TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	metadata   TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(doc_type);

CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
	content,
	content='documents',
	content_rowid='rowid'
);

-- Triggers to keep FTS index in sync with the main table.
CREATE TRIGGER IF NOT EXISTS documents_ai AFTER INSERT ON documents BEGIN
	INSERT INTO documents_fts(rowid, content) VALUES (new.rowid, new.content);
END;

CREATE TRIGGER IF NOT EXISTS documents_ad AFTER DELETE ON documents BEGIN
	INSERT INTO documents_fts(documents_fts, rowid, content) VALUES ('delete', old.rowid, old.content);
END;

CREATE TRIGGER IF NOT EXISTS documents_au AFTER UPDATE ON documents BEGIN
	INSERT INTO documents_fts(documents_fts, rowid, content) VALUES ('delete', old.rowid, old.content);
	INSERT INTO documents_fts(rowid, content) VALUES (new.rowid, new.content);
END;

CREATE TABLE IF NOT EXISTS edges (
	id         TEXT PRIMARY KEY,
	source_id  TEXT NOT NULL,
	target_id  TEXT NOT NULL,
	rel_type   TEXT NOT NULL,
	weight     REAL NOT NULL DEFAULT 1.0,
	metadata   TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id);
`
	if _, err := db.Exec(ddl); err != nil {
		return err
	}

	vecDDL := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS doc_vectors USING vec0(id TEXT PRIMARY KEY, embedding float[%d])`,
		dimensions,
	)
	_, err := db.Exec(vecDDL)
	return err
}

// Close closes the underlying database connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
