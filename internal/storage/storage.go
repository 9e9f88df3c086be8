// Package storage defines the object store contract shared by every result
// backend. Keys are opaque strings; values are written at most once.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrAlreadyExists is returned by Put when the key already holds a value.
	ErrAlreadyExists = errors.New("storage: object already exists")
	// ErrNotFound is returned by Get when the key holds no value.
	ErrNotFound = errors.New("storage: object not found")
)

// ObjectStore is a key-value store with write-once semantics.
//
// Put must be atomic: a reader either sees the whole value or no value.
// Put must never replace an existing value.
type ObjectStore interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]string, error)
}
