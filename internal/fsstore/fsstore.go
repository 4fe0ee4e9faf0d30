// Package fsstore holds the on-disk write primitives for the file
// state backend. State files may carry applicant contact details, so
// everything is created owner-only.
package fsstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

func cleanPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	return filepath.Clean(path), nil
}

func EnsureDir(path string) error {
	dir, err := cleanPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("fsstore ensure dir %s: %w", dir, err)
	}
	return nil
}

// WriteAtomic replaces the file at path via a temp file and rename in
// the same directory. A reader never observes a partially written
// value, and a crash mid-write leaves the previous value intact.
func WriteAtomic(path string, content []byte) error {
	target, err := cleanPath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(target)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(target)+".tmp.*")
	if err != nil {
		return fmt.Errorf("%w: create temp for %s: %v", ErrAtomicWriteFailed, target, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("%w: write temp for %s: %v", ErrAtomicWriteFailed, target, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: sync temp for %s: %v", ErrAtomicWriteFailed, target, err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		return fmt.Errorf("%w: chmod temp for %s: %v", ErrAtomicWriteFailed, target, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp for %s: %v", ErrAtomicWriteFailed, target, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("%w: rename temp for %s: %v", ErrAtomicWriteFailed, target, err)
	}

	// Best effort directory sync for durability; ignore failures.
	if dirFD, err := os.Open(dir); err == nil {
		_ = dirFD.Sync()
		_ = dirFD.Close()
	}
	return nil
}
