package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"sentence-generator/internal/storage"
)

func TestPut_WriteOnce(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a/1", []byte("first")))
	err := s.Put(ctx, "a/1", []byte("second"))
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	v, err := s.Get(ctx, "a/1")
	require.NoError(t, err)
	require.Equal(t, "first", string(v))
}

func TestGet_Missing(t *testing.T) {
	_, err := New().Get(context.Background(), "nope")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestList_FiltersByPrefix(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "a/2", nil))
	require.NoError(t, s.Put(ctx, "a/1", nil))
	require.NoError(t, s.Put(ctx, "b/1", nil))

	keys, err := s.List(ctx, "a/")
	require.NoError(t, err)
	require.Equal(t, []string{"a/1", "a/2"}, keys)

	ok, err := s.Exists(ctx, "b/1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, s.Len())
}
