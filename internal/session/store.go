// Package session keeps the editable timeline of a video between the preview
// and the final render.
package session

import (
	"context"
	"time"

	"github.com/forPelevin/beepsub/internal/types"
)

// Record is a stored session with its concurrency metadata.
type Record struct {
	Session   types.Session
	Version   int64
	UpdatedAt time.Time
}

// Store persists sessions keyed by video hash.
//
// Put is an unconditional upsert. CompareAndSwap writes only if the stored
// version still equals version and returns the new version; a stale version
// fails with types.ErrConflict, a missing record with types.ErrNotFound.
type Store interface {
	Put(ctx context.Context, s types.Session) (int64, error)
	Get(ctx context.Context, hash string) (Record, error)
	CompareAndSwap(ctx context.Context, s types.Session, version int64) (int64, error)
	// Delete is a no-op for a missing hash.
	Delete(ctx context.Context, hash string) error
	// DeleteIfVersion deletes the record only while it is still at version.
	// A newer version fails with types.ErrConflict and leaves the record in
	// place. A missing hash is a no-op.
	DeleteIfVersion(ctx context.Context, hash string, version int64) error
	// Stale lists hashes not written since before.
	Stale(ctx context.Context, before time.Time) ([]string, error)
	Close() error
}
