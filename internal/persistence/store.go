// Package persistence defines the document storage contract shared by the
// file and SQLite backends. State is held as whole JSON-shaped documents
// addressed by key; every write replaces the full document.
package persistence

import "context"

// Document keys used by the application.
const (
	// ScheduleKey addresses the weekly schedule document.
	ScheduleKey = "schedule"
	// UsersKey addresses the user list document.
	UsersKey = "users"
)

// DocumentStore reads and writes JSON documents by key.
//
// ReadDocument returns ErrNotFound when no document exists under the key;
// any other failure (unreadable file, undecodable body) is reported as an
// error the caller may treat as an absent document. WriteDocument failures
// wrap ErrStorage and are fatal to the operation that triggered them.
type DocumentStore interface {
	ReadDocument(ctx context.Context, key string, out any) error
	WriteDocument(ctx context.Context, key string, doc any) error
}
