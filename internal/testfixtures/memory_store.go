package testfixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/example/weekly-events/internal/persistence"
)

// MemoryStore is an in-memory DocumentStore for tests. Documents round
// trip through JSON so stored values never alias the caller's structs.
type MemoryStore struct {
	mu         sync.Mutex
	docs       map[string][]byte
	readErr    map[string]error
	writeErr   error
	writeCount int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:    make(map[string][]byte),
		readErr: make(map[string]error),
	}
}

// ReadDocument implements persistence.DocumentStore.
func (s *MemoryStore) ReadDocument(_ context.Context, key string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readErr[key]; err != nil {
		return err
	}
	body, ok := s.docs[key]
	if !ok {
		return persistence.ErrNotFound
	}
	return json.Unmarshal(body, out)
}

// WriteDocument implements persistence.DocumentStore.
func (s *MemoryStore) WriteDocument(_ context.Context, key string, doc any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeErr != nil {
		return s.writeErr
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", persistence.ErrStorage, err)
	}
	s.docs[key] = body
	s.writeCount++
	return nil
}

// Put seeds a document, bypassing failure injection.
func (s *MemoryStore) Put(key string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[key] = body
	s.mu.Unlock()
	return nil
}

// Get decodes the stored document into out, reporting whether it exists.
func (s *MemoryStore) Get(key string, out any) (bool, error) {
	s.mu.Lock()
	body, ok := s.docs[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(body, out)
}

// FailReads makes subsequent reads of key return err. A nil err clears the
// injection.
func (s *MemoryStore) FailReads(key string, err error) {
	s.mu.Lock()
	if err == nil {
		delete(s.readErr, key)
	} else {
		s.readErr[key] = err
	}
	s.mu.Unlock()
}

// FailWrites makes subsequent writes return err. A nil err clears the
// injection.
func (s *MemoryStore) FailWrites(err error) {
	s.mu.Lock()
	s.writeErr = err
	s.mu.Unlock()
}

// WriteCount reports how many writes succeeded.
func (s *MemoryStore) WriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeCount
}
