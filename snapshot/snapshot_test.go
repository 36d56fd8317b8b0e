package snapshot

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/hupe1980/whale"
	"github.com/hupe1980/whale/blobstore"
	"github.com/hupe1980/whale/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	data := []byte("snapshot payload")

	t.Run("put", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		require.NoError(t, Save(ctx, store, "a.whl", data))

		got, err := Load(ctx, store, "a.whl")
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("rate limited", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
		require.NoError(t, Save(ctx, store, "a.whl", data, WithResource(rc)))

		got, err := Load(ctx, store, "a.whl", WithResource(rc))
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("local store", func(t *testing.T) {
		store := blobstore.NewLocalStore(t.TempDir())
		rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
		require.NoError(t, Save(ctx, store, "a.whl", data, WithResource(rc)))

		got, err := Load(ctx, store, "a.whl")
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("exclusive", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		require.NoError(t, Save(ctx, store, "a.whl", data, WithExclusive()))

		err := Save(ctx, store, "a.whl", []byte("other"), WithExclusive())
		assert.ErrorIs(t, err, blobstore.ErrExists)

		got, err := Load(ctx, store, "a.whl")
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("interrupted save is discarded", func(t *testing.T) {
		for name, store := range map[string]blobstore.Store{
			"memory": blobstore.NewMemoryStore(),
			"local":  blobstore.NewLocalStore(t.TempDir()),
		} {
			t.Run(name, func(t *testing.T) {
				rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 4})
				tctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
				defer cancel()

				require.Error(t, Save(tctx, store, "a.whl", data, WithResource(rc)))
				_, err := store.Open(ctx, "a.whl")
				assert.ErrorIs(t, err, blobstore.ErrNotFound)
			})
		}
	})

	t.Run("reserved name", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		assert.Error(t, Save(ctx, store, CurrentName, data))
		assert.Error(t, Save(ctx, store, "", data))
	})

	t.Run("missing", func(t *testing.T) {
		_, err := Load(ctx, blobstore.NewMemoryStore(), "nope")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}

func TestSave_Logs(t *testing.T) {
	var buf bytes.Buffer
	logger := whale.NewLogger(slog.NewTextHandler(&buf, nil))

	err := Save(context.Background(), blobstore.NewMemoryStore(), "a.whl", []byte("xyz"), WithLogger(logger))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "snapshot save completed")
	assert.Contains(t, buf.String(), "component=snapshot")
	assert.Contains(t, buf.String(), "bytes=3")
}

func TestCommitCurrent(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	_, err := Current(ctx, store)
	assert.ErrorIs(t, err, ErrNoCurrent)

	err = Commit(ctx, store, "missing.whl")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, Save(ctx, store, "v1.whl", []byte("one")))
	require.NoError(t, Save(ctx, store, "v2.whl", []byte("two")))

	require.NoError(t, Commit(ctx, store, "v1.whl"))
	name, err := Current(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "v1.whl", name)

	require.NoError(t, Commit(ctx, store, "v2.whl"))
	name, data, err := LoadCurrent(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "v2.whl", name)
	assert.Equal(t, []byte("two"), data)
}

func TestVersions(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	assert.Equal(t, "layout-000007.whl", Versioned("layout", 7))

	next, err := Next(ctx, store, "layout")
	require.NoError(t, err)
	assert.Equal(t, "layout-000001.whl", next)

	for _, name := range []string{
		Versioned("layout", 2),
		Versioned("layout", 10),
		Versioned("layout", 1),
		Versioned("mapping", 99),
		"layout-abc.whl",
		"layout-000003.tmp",
	} {
		require.NoError(t, Save(ctx, store, name, []byte("x")))
	}

	ids, err := Versions(ctx, store, "layout")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 10}, ids)

	next, err = Next(ctx, store, "layout")
	require.NoError(t, err)
	assert.Equal(t, "layout-000011.whl", next)
}
