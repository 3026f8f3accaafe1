// Package sqlite persists documents in a single-table SQLite database.
// Each document key maps to one row holding the JSON body, mirroring the
// whole-document-replace semantics of the file backend.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/example/weekly-events/internal/persistence"
)

const schemaStatement = `
	CREATE TABLE IF NOT EXISTS documents (
		key        TEXT PRIMARY KEY,
		body       BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)
`

// Store implements persistence.DocumentStore backed by SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to the database at dsn and ensures the schema exists.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", dsn, err)
	}
	if _, err := db.Exec(schemaStatement); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ensure schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the connection is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ReadDocument loads and decodes the document stored under key.
func (s *Store) ReadDocument(ctx context.Context, key string, out any) error {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE key = ?`, key).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.ErrNotFound
		}
		return fmt.Errorf("sqlite: read %s: %w", key, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("sqlite: decode %s: %w", key, err)
	}
	return nil
}

// WriteDocument replaces the document stored under key.
func (s *Store) WriteDocument(ctx context.Context, key string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", persistence.ErrStorage, key, err)
	}

	query := `
		INSERT INTO documents (key, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, body, s.now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("%w: write %s: %v", persistence.ErrStorage, key, err)
	}
	return nil
}
