package snapshot

import (
	"context"
	"testing"

	"github.com/hupe1980/whale"
	"github.com/hupe1980/whale/blobstore"
	"github.com/hupe1980/whale/comm"
	"github.com/hupe1980/whale/comm/local"
	"github.com/hupe1980/whale/is"
	"github.com/hupe1980/whale/layout"
	"github.com/hupe1980/whale/mapping"
	"github.com/hupe1980/whale/resource"
	"github.com/hupe1980/whale/viewer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutSnapshot(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	w, err := local.NewWorld(3)
	require.NoError(t, err)

	err = w.Run(ctx, func(ctx context.Context, c comm.Communicator) error {
		l, err := layout.New(c)
		if err != nil {
			return err
		}
		if err := l.SetSize(10); err != nil {
			return err
		}
		if err := l.SetUp(ctx); err != nil {
			return err
		}
		if c.Rank() != 0 {
			return nil
		}
		return SaveLayout(ctx, store, "layout.whl", l, WithCompression(viewer.CompressionZSTD))
	})
	require.NoError(t, err)

	c, err := w.Comm(1)
	require.NoError(t, err)
	l, err := LoadLayout(ctx, store, "layout.whl", c)
	require.NoError(t, err)

	ranges, err := l.Ranges()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 4, 7, 10}, ranges)

	start, end, err := l.Range()
	require.NoError(t, err)
	assert.Equal(t, 4, start)
	assert.Equal(t, 7, end)

	_, err = LoadLayout(ctx, store, "layout.whl", comm.Self())
	assert.ErrorIs(t, err, whale.ErrInvalidArgument)
}

func TestMappingSnapshot(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	m, err := mapping.New(comm.Self(), 4, []int{5, 2, 2, 7}, whale.CopyValues)
	require.NoError(t, err)
	require.NoError(t, SaveMapping(ctx, store, "map.whl", m, WithCompression(viewer.CompressionLZ4)))

	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20})
	got, err := LoadMapping(ctx, store, "map.whl", comm.Self(), WithResource(rc))
	require.NoError(t, err)
	assert.True(t, mapping.Equal(m, got))
	assert.Positive(t, rc.MemoryUsage())

	_, slots, err := got.GlobalToLocal(mapping.Mask, []int{2})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, slots)

	require.NoError(t, got.Destroy())
	assert.Zero(t, rc.MemoryUsage())
}

func TestISSnapshot(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	s, err := is.NewStride(comm.Self(), 5, 3, 2)
	require.NoError(t, err)
	require.NoError(t, SaveIS(ctx, store, "is.whl", s))

	got, err := LoadIS(ctx, store, "is.whl", comm.Self())
	require.NoError(t, err)
	assert.Equal(t, is.TypeStride, got.Type())
	assert.True(t, is.Equal(s, got))
}
