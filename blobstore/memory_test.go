package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("abcdef")
	require.NoError(t, store.Put(ctx, "b", data))
	data[0] = 'X'

	got, err := Get(ctx, store, "b")
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(got))

	w, err := store.Create(ctx, "a")
	require.NoError(t, err)
	_, err = w.Write([]byte("stream"))
	require.NoError(t, err)

	_, err = store.Open(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound, "blob is visible only after Close")
	require.NoError(t, w.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	blob, err := store.Open(ctx, "b")
	require.NoError(t, err)

	buf := make([]byte, 4)
	n, err := blob.ReadAt(ctx, buf, 4)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)

	r, err := blob.ReadRange(ctx, 1, 3)
	require.NoError(t, err)
	part, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "bcd", string(part))

	require.NoError(t, store.Delete(ctx, "b"))
	_, err = Get(ctx, store, "b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_EmptyBlob(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "empty", nil))

	got, err := Get(ctx, store, "empty")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStore_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryStore()
	assert.ErrorIs(t, store.Put(ctx, "x", nil), context.Canceled)
	_, err := store.List(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPutIfAbsent(t *testing.T) {
	ctx := context.Background()

	for name, store := range map[string]Store{
		"memory": NewMemoryStore(),
		"local":  NewLocalStore(t.TempDir()),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, PutIfAbsent(ctx, store, "x", []byte("1")))
			assert.ErrorIs(t, PutIfAbsent(ctx, store, "x", []byte("2")), ErrExists)

			got, err := Get(ctx, store, "x")
			require.NoError(t, err)
			assert.Equal(t, "1", string(got))
		})
	}
}
