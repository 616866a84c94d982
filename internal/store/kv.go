// Package store defines the keyed storage capability that chat history is
// persisted to. Backends live in the subpackages and in chat.Repo.
package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("store: key not found")

// KV is a string-valued key/value store. Get returns ErrNotFound for a
// missing key. Delete of a missing key is not an error.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Lister is implemented by backends that can enumerate keys.
type Lister interface {
	ListKeys(ctx context.Context, prefix string, limit int) ([]string, error)
}
