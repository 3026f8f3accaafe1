package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/example/weekly-events/internal/persistence"
)

type payload struct {
	Anchor string `json:"anchor"`
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("file:" + t.TempDir() + "/documents.db")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close returned error: %v", err)
		}
	})
	return store
}

func TestStore_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.WriteDocument(ctx, "schedule", payload{Anchor: "2024-03-14"}); err != nil {
		t.Fatalf("WriteDocument returned error: %v", err)
	}

	var out payload
	if err := store.ReadDocument(ctx, "schedule", &out); err != nil {
		t.Fatalf("ReadDocument returned error: %v", err)
	}
	if out.Anchor != "2024-03-14" {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestStore_UpsertReplacesBody(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.WriteDocument(ctx, "schedule", payload{Anchor: "2024-03-14"}); err != nil {
		t.Fatalf("first write returned error: %v", err)
	}
	if err := store.WriteDocument(ctx, "schedule", payload{Anchor: "2024-03-15"}); err != nil {
		t.Fatalf("second write returned error: %v", err)
	}

	var out payload
	if err := store.ReadDocument(ctx, "schedule", &out); err != nil {
		t.Fatalf("ReadDocument returned error: %v", err)
	}
	if out.Anchor != "2024-03-15" {
		t.Fatalf("expected last write to win, got %s", out.Anchor)
	}
}

func TestStore_ReadMissingDocument(t *testing.T) {
	store := openTestStore(t)

	var out payload
	err := store.ReadDocument(context.Background(), "absent", &out)
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
