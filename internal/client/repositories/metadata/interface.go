package metadata

import (
	"context"
)

// Repository is a small key/value store for local client state: the
// encryption key and the current session.
type Repository interface {
	// Get returns common.ErrorNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetIfAbsent stores value only when key is absent and reports whether
	// it did. An existing value is left untouched.
	SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
