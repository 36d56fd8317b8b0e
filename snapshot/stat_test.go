package snapshot

import (
	"context"
	"testing"

	"github.com/hupe1980/whale"
	"github.com/hupe1980/whale/blobstore"
	"github.com/hupe1980/whale/comm"
	"github.com/hupe1980/whale/is"
	"github.com/hupe1980/whale/viewer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readCountingStore records the bytes requested through ReadAt.
type readCountingStore struct {
	blobstore.Store
	requested int
}

func (s *readCountingStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	b, err := s.Store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &readCountingBlob{Blob: b, store: s}, nil
}

type readCountingBlob struct {
	blobstore.Blob
	store *readCountingStore
}

func (b *readCountingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	b.store.requested += len(p)
	return b.Blob.ReadAt(ctx, p, off)
}

func TestStat(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()

	idx := make([]int, 4096)
	for i := range idx {
		idx[i] = 3 * i
	}
	set, err := is.NewGeneral(comm.Self(), idx, whale.OwnPointer)
	require.NoError(t, err)
	require.NoError(t, SaveIS(ctx, mem, "is-000001.whl", set, WithCompression(viewer.CompressionZSTD)))

	store := &readCountingStore{Store: mem}
	info, err := Stat(ctx, store, "is-000001.whl")
	require.NoError(t, err)
	assert.Equal(t, "is-000001.whl", info.Name)
	assert.Equal(t, viewer.KindIS, info.Kind)
	assert.Equal(t, viewer.CompressionZSTD, info.Compression)
	assert.Greater(t, info.Size, int64(viewer.HeaderSize))
	assert.Equal(t, viewer.HeaderSize, store.requested)

	t.Run("missing", func(t *testing.T) {
		_, err := Stat(ctx, mem, "nope.whl")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("shorter than header", func(t *testing.T) {
		require.NoError(t, mem.Put(ctx, "tiny.whl", []byte("WHL")))
		_, err := Stat(ctx, mem, "tiny.whl")
		assert.ErrorIs(t, err, viewer.ErrCorrupt)
	})

	t.Run("truncated body", func(t *testing.T) {
		data, err := Load(ctx, mem, "is-000001.whl")
		require.NoError(t, err)
		require.NoError(t, mem.Put(ctx, "cut.whl", data[:len(data)-1]))
		_, err = Stat(ctx, mem, "cut.whl")
		assert.ErrorIs(t, err, viewer.ErrCorrupt)
	})
}
