// Package filekv is the default KV backend: one JSON value per key,
// written atomically under a single root directory. It is the
// zero-dependency deployment mode.
package filekv

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lindenrealty/rentscreen/internal/fsstore"
	"github.com/lindenrealty/rentscreen/store"
)

type Store struct {
	root string
	mu   sync.Mutex
}

func New(root string) *Store {
	return &Store{root: strings.TrimSpace(root)}
}

// Ensure creates the backing directory.
func (s *Store) Ensure(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fsstore.EnsureDir(s.root)
}

// keyPath flattens a key into one file name. Keys carry "/" as a
// namespace separator, so each key is escaped into a single path
// segment.
func (s *Store) keyPath(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", store.ErrEmptyKey
	}
	return filepath.Join(s.root, url.PathEscape(key)+".json"), nil
}

func (s *Store) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		path, err := s.keyPath(key)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("filekv get %s: %w", key, err)
		}
		out[key] = data
	}
	return out, nil
}

func (s *Store) Set(ctx context.Context, values map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range values {
		path, err := s.keyPath(key)
		if err != nil {
			return err
		}
		if err := fsstore.WriteAtomic(path, value); err != nil {
			return fmt.Errorf("filekv set %s: %w", key, err)
		}
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("filekv list: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		if prefix == "" || strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *Store) Delete(ctx context.Context, keys []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		path, err := s.keyPath(key)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("filekv delete %s: %w", key, err)
		}
	}
	return nil
}
