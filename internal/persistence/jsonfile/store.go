// Package jsonfile persists documents as pretty-printed JSON files, one
// file per document key, under a single data directory.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/example/weekly-events/internal/persistence"
)

// Store implements persistence.DocumentStore on the local filesystem.
// Writes go to a temporary file first and are renamed into place, so a
// crash mid-write never leaves a truncated document behind.
type Store struct {
	mu  sync.Mutex
	dir string
}

// New creates the data directory if needed and returns a store rooted there.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile: create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// ReadDocument loads and decodes the document stored under key.
func (s *Store) ReadDocument(ctx context.Context, key string, out any) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	data, err := os.ReadFile(path)
	s.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.ErrNotFound
		}
		return fmt.Errorf("jsonfile: read %s: %w", key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("jsonfile: decode %s: %w", key, err)
	}
	return nil
}

// WriteDocument replaces the document stored under key.
func (s *Store) WriteDocument(ctx context.Context, key string, doc any) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", persistence.ErrStorage, key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", persistence.ErrStorage, key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: replace %s: %v", persistence.ErrStorage, key, err)
	}
	return nil
}

func (s *Store) path(key string) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("jsonfile: invalid document key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// validKey restricts keys to plain names so a key can never escape the
// data directory.
func validKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return !strings.HasPrefix(key, "-")
}
