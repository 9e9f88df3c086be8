// Package fsstore implements storage.ObjectStore on a local directory.
//
// Objects are written to a temp file, synced, then hard-linked into place.
// link(2) fails when the target exists, which gives write-once semantics
// without a read-then-write race, and readers never see a partial file.
package fsstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sentence-generator/internal/storage"
)

const tmpDir = ".tmp"

type Store struct {
	root string
}

// New creates a Store rooted at dir, creating it when missing.
func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("fsstore: root directory must not be empty")
	}
	if err := os.MkdirAll(filepath.Join(dir, tmpDir), 0o755); err != nil {
		return nil, fmt.Errorf("fsstore: create root: %w", err)
	}
	return &Store{root: dir}, nil
}

func (s *Store) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "..") || strings.HasPrefix(clean, tmpDir) {
		return "", fmt.Errorf("fsstore: invalid key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("fsstore: put %q: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, tmpDir), "obj-*")
	if err != nil {
		return fmt.Errorf("fsstore: put %q: %w", key, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("fsstore: put %q: write: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("fsstore: put %q: sync: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fsstore: put %q: close: %w", key, err)
	}

	if err := os.Link(tmp.Name(), target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("fsstore: put %q: link: %w", key, err)
	}
	return nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	buf, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("fsstore: get %q: %w", key, err)
	}
	return buf, nil
}

func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("fsstore: stat %q: %w", key, err)
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if d.Name() == tmpDir && filepath.Dir(p) == filepath.Clean(s.root) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fsstore: list %q: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}
