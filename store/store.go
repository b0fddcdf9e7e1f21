package store

import (
	"context"
	"fmt"

	"tictactoe/agent"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Store persists value-table snapshots between runs.
type Store interface {
	// Load returns the last saved snapshot, or an empty one when nothing
	// has been saved yet.
	Load(ctx context.Context) (agent.Snapshot, error)
	// Save replaces the saved snapshot.
	Save(ctx context.Context, snap agent.Snapshot) error
	Close() error
}

// Open builds a store for the configured backend.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(path), nil
	case BackendSQLite:
		return NewSQLiteStore(path)
	}
	return nil, fmt.Errorf("unknown store backend %q", backend)
}
