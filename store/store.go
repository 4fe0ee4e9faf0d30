// Package store defines the key-value persistence contract consumed
// by conversation memory. Semantics are last-write-wins per key; no
// cross-key transactions exist or are assumed.
package store

import (
	"context"
	"errors"
)

var (
	ErrEmptyKey    = errors.New("store: empty key")
	ErrUnavailable = errors.New("store: backend unavailable")
)

// KV is the persistence boundary. Get returns only the keys that
// exist; missing keys are simply absent from the result map. List and
// Delete exist for process-start loading and the bulk-reset
// operation; evaluation paths use only Get and Set.
type KV interface {
	Get(ctx context.Context, keys []string) (map[string][]byte, error)
	Set(ctx context.Context, values map[string][]byte) error
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, keys []string) error
}
