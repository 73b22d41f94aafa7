package profile

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no profile exists under the key.
var ErrNotFound = errors.New("profile not found")

// Store is the persistence boundary: an opaque key-value blob store. The
// session layer serializes profiles through it without knowing whether the
// backend is SQLite, memory or anything else.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Clear(ctx context.Context, key string) error
	Close() error
}
