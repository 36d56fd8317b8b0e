package layout

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/whale"
	"github.com/hupe1980/whale/comm"
	"github.com/hupe1980/whale/comm/local"
	"github.com/hupe1980/whale/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setUpAll runs configure and SetUp on p ranks and returns each rank's layout.
func setUpAll(t *testing.T, p int, configure func(l *Layout, rank int) error) ([]*Layout, []error) {
	t.Helper()
	w, err := local.NewWorld(p, local.WithTimeout(5*time.Second))
	require.NoError(t, err)

	layouts := make([]*Layout, p)
	errs := make([]error, p)
	for r := range p {
		c, err := w.Comm(r)
		require.NoError(t, err)
		layouts[r], err = New(c)
		require.NoError(t, err)
	}
	_ = w.Run(context.Background(), func(ctx context.Context, c comm.Communicator) error {
		l := layouts[c.Rank()]
		if err := configure(l, c.Rank()); err != nil {
			errs[c.Rank()] = err
			return err
		}
		errs[c.Rank()] = l.SetUp(ctx)
		return nil
	})
	return layouts, errs
}

func TestSetUp_EvenSplit(t *testing.T) {
	layouts, errs := setUpAll(t, 3, func(l *Layout, _ int) error {
		return l.SetSize(10)
	})

	wantLocal := []int{4, 3, 3}
	for r, l := range layouts {
		require.NoError(t, errs[r])

		ranges, err := l.Ranges()
		require.NoError(t, err)
		assert.Equal(t, []int{0, 4, 7, 10}, ranges)

		n, err := l.LocalSize()
		require.NoError(t, err)
		assert.Equal(t, wantLocal[r], n)

		start, end, err := l.Range()
		require.NoError(t, err)
		assert.Equal(t, ranges[r], start)
		assert.Equal(t, ranges[r+1], end)
	}
}

func TestSetUp_LocalSizes(t *testing.T) {
	local := []int{3, 0, 5, 2}
	layouts, errs := setUpAll(t, 4, func(l *Layout, rank int) error {
		return l.SetLocalSize(local[rank])
	})

	for r, l := range layouts {
		require.NoError(t, errs[r])
		ranges, err := l.Ranges()
		require.NoError(t, err)
		assert.Equal(t, []int{0, 3, 3, 8, 10}, ranges)

		size, err := l.Size()
		require.NoError(t, err)
		assert.Equal(t, 10, size)
	}

	l := layouts[0]
	for idx, want := range map[int]int{0: 0, 2: 0, 3: 2, 7: 2, 8: 3, 9: 3, 10: 3} {
		got, err := l.FindOwner(idx)
		require.NoError(t, err)
		assert.Equal(t, want, got, "owner of %d", idx)
	}

	owner, offset, err := l.FindOwnerIndex(7)
	require.NoError(t, err)
	assert.Equal(t, 2, owner)
	assert.Equal(t, 4, offset)
}

func TestSetUp_BothSizes(t *testing.T) {
	t.Run("consistent", func(t *testing.T) {
		_, errs := setUpAll(t, 2, func(l *Layout, rank int) error {
			if err := l.SetLocalSize(rank + 1); err != nil {
				return err
			}
			return l.SetSize(3)
		})
		for _, err := range errs {
			assert.NoError(t, err)
		}
	})

	t.Run("mismatch", func(t *testing.T) {
		layouts, errs := setUpAll(t, 2, func(l *Layout, rank int) error {
			if err := l.SetLocalSize(rank + 1); err != nil {
				return err
			}
			return l.SetSize(4)
		})
		for r, err := range errs {
			require.ErrorIs(t, err, whale.ErrSizeMismatch)

			var sm *whale.SizeMismatchError
			require.ErrorAs(t, err, &sm)
			assert.Equal(t, 4, sm.Declared)
			assert.Equal(t, 3, sm.Sum)

			assert.False(t, layouts[r].IsSetUp())
			_, err = layouts[r].Ranges()
			assert.ErrorIs(t, err, whale.ErrNotSetUp)
		}
	})
}

func TestSetUp_BlockSize(t *testing.T) {
	layouts, errs := setUpAll(t, 3, func(l *Layout, _ int) error {
		if err := l.SetBlockSize(2); err != nil {
			return err
		}
		return l.SetSize(10)
	})
	for r, l := range layouts {
		require.NoError(t, errs[r])
		ranges, err := l.Ranges()
		require.NoError(t, err)
		assert.Equal(t, []int{0, 4, 8, 10}, ranges)
	}

	l, err := New(comm.Self(), WithBlockSize(3))
	require.NoError(t, err)
	require.NoError(t, l.SetSize(10))
	assert.ErrorIs(t, l.SetUp(context.Background()), whale.ErrInvalidArgument)
}

func TestSetUp_Properties(t *testing.T) {
	for _, tc := range []struct{ n, p int }{{0, 3}, {1, 4}, {7, 7}, {100, 6}, {5, 8}} {
		layouts, errs := setUpAll(t, tc.p, func(l *Layout, _ int) error {
			return l.SetSize(tc.n)
		})
		require.NoError(t, errs[0])

		ranges, err := layouts[0].Ranges()
		require.NoError(t, err)
		assert.Equal(t, 0, ranges[0])
		assert.Equal(t, tc.n, ranges[tc.p])

		sum := 0
		for k := range tc.p {
			width := ranges[k+1] - ranges[k]
			require.GreaterOrEqual(t, width, 0)
			assert.Equal(t, SplitOwnership(tc.n, tc.p, k), width)
			sum += width

			if width > 0 {
				owner, err := layouts[0].FindOwner(ranges[k])
				require.NoError(t, err)
				assert.Equal(t, k, owner)
			}
		}
		assert.Equal(t, tc.n, sum)

		for idx := range tc.n {
			owner, err := layouts[0].FindOwner(idx)
			require.NoError(t, err)
			assert.True(t, ranges[owner] <= idx && idx < ranges[owner+1])
		}
	}
}

func TestSetUp_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("both undetermined", func(t *testing.T) {
		l, err := New(comm.Self())
		require.NoError(t, err)
		assert.ErrorIs(t, l.SetUp(ctx), whale.ErrInvalidArgument)
	})

	t.Run("negative size", func(t *testing.T) {
		l, err := New(comm.Self())
		require.NoError(t, err)
		assert.ErrorIs(t, l.SetSize(-3), whale.ErrInvalidArgument)
		assert.ErrorIs(t, l.SetLocalSize(-2), whale.ErrInvalidArgument)
		assert.ErrorIs(t, l.SetBlockSize(0), whale.ErrInvalidArgument)
	})

	t.Run("not set up", func(t *testing.T) {
		l, err := New(comm.Self())
		require.NoError(t, err)
		_, err = l.LocalSize()
		assert.ErrorIs(t, err, whale.ErrNotSetUp)
		_, err = l.Size()
		assert.ErrorIs(t, err, whale.ErrNotSetUp)
		_, _, err = l.Range()
		assert.ErrorIs(t, err, whale.ErrNotSetUp)
		_, err = l.FindOwner(0)
		assert.ErrorIs(t, err, whale.ErrNotSetUp)
	})

	t.Run("out of memory", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: resource.IntBytes})
		l, err := New(comm.Self(), WithResource(rc))
		require.NoError(t, err)
		require.NoError(t, l.SetSize(4))
		assert.ErrorIs(t, l.SetUp(ctx), whale.ErrOutOfMemory)
		assert.False(t, l.IsSetUp())
	})

	t.Run("canceled", func(t *testing.T) {
		l, err := New(comm.Self())
		require.NoError(t, err)
		require.NoError(t, l.SetSize(4))
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, l.SetUp(cctx), context.Canceled)
	})

	t.Run("nil communicator", func(t *testing.T) {
		_, err := New(nil)
		assert.ErrorIs(t, err, whale.ErrArgumentNull)
	})
}

func TestResize(t *testing.T) {
	ctx := context.Background()
	rc := resource.NewController(resource.Config{})
	l, err := New(comm.Self(), WithResource(rc))
	require.NoError(t, err)

	require.NoError(t, l.SetSize(5))
	require.NoError(t, l.SetUp(ctx))
	assert.Equal(t, int64(2*resource.IntBytes), rc.MemoryUsage())

	// Unchanged size keeps the layout.
	require.NoError(t, l.SetSize(5))
	assert.True(t, l.IsSetUp())
	require.NoError(t, l.SetUp(ctx))

	require.NoError(t, l.SetSize(8))
	assert.False(t, l.IsSetUp())
	assert.Zero(t, rc.MemoryUsage())

	require.NoError(t, l.SetUp(ctx))
	size, err := l.Size()
	require.NoError(t, err)
	assert.Equal(t, 8, size)
}

func TestFindOwner_Range(t *testing.T) {
	l, err := NewFromRanges(comm.Self(), []int{0, 6})
	require.NoError(t, err)

	_, err = l.FindOwner(-1)
	assert.ErrorIs(t, err, whale.ErrIndexOutOfRange)
	_, err = l.FindOwner(7)
	assert.ErrorIs(t, err, whale.ErrIndexOutOfRange)

	owner, err := l.FindOwner(6)
	require.NoError(t, err)
	assert.Equal(t, 0, owner)

	t.Run("size with trailing empty process", func(t *testing.T) {
		w, err := local.NewWorld(2)
		require.NoError(t, err)
		c, err := w.Comm(0)
		require.NoError(t, err)
		l, err := NewFromRanges(c, []int{0, 3, 3})
		require.NoError(t, err)

		owner, err := l.FindOwner(3)
		require.NoError(t, err)
		assert.Equal(t, 1, owner)

		owner, err = l.OwnerOfExclusiveBound(3)
		require.NoError(t, err)
		assert.Equal(t, 0, owner)
	})
}

func TestOwnerOfExclusiveBound(t *testing.T) {
	w, err := local.NewWorld(4)
	require.NoError(t, err)
	c, err := w.Comm(0)
	require.NoError(t, err)

	l, err := NewFromRanges(c, []int{0, 3, 3, 8, 10})
	require.NoError(t, err)

	for end, want := range map[int]int{0: 0, 3: 0, 4: 2, 8: 2, 9: 3, 10: 3} {
		got, err := l.OwnerOfExclusiveBound(end)
		require.NoError(t, err)
		assert.Equal(t, want, got, "bound %d", end)
	}
	_, err = l.OwnerOfExclusiveBound(11)
	assert.ErrorIs(t, err, whale.ErrIndexOutOfRange)
}

func TestNewFromRanges(t *testing.T) {
	w, err := local.NewWorld(2)
	require.NoError(t, err)
	c, err := w.Comm(1)
	require.NoError(t, err)

	l, err := NewFromRanges(c, []int{0, 4, 6})
	require.NoError(t, err)
	start, end, err := l.Range()
	require.NoError(t, err)
	assert.Equal(t, 4, start)
	assert.Equal(t, 6, end)

	for _, bad := range [][]int{{0, 4}, {1, 4, 6}, {0, 5, 4}} {
		_, err := NewFromRanges(c, bad)
		assert.ErrorIs(t, err, whale.ErrInvalidArgument, "%v", bad)
	}
	_, err = NewFromRanges(c, []int{0, 3, 6}, WithBlockSize(2))
	assert.ErrorIs(t, err, whale.ErrInvalidArgument)
}

func TestDuplicateReferenceDestroy(t *testing.T) {
	rc := resource.NewController(resource.Config{})
	l, err := NewFromRanges(comm.Self(), []int{0, 5}, WithResource(rc))
	require.NoError(t, err)

	m, err := l.NewMapping(nil)
	require.NoError(t, err)
	require.NoError(t, l.SetMapping(m))
	require.NoError(t, m.Destroy())
	assert.Equal(t, 1, m.RefCount())

	d, err := l.Duplicate()
	require.NoError(t, err)
	assert.NotSame(t, l, d)
	assert.Same(t, m, d.Mapping())
	assert.Equal(t, 2, m.RefCount())

	ranges, err := d.Ranges()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 5}, ranges)

	ref, err := l.Reference()
	require.NoError(t, err)
	assert.Same(t, l, ref)
	assert.Equal(t, 2, l.RefCount())

	require.NoError(t, l.Destroy())
	_, err = l.Size()
	require.NoError(t, err)

	require.NoError(t, ref.Destroy())
	_, err = l.Size()
	assert.ErrorIs(t, err, whale.ErrWrongState)
	assert.ErrorIs(t, l.Destroy(), whale.ErrWrongState)
	assert.Equal(t, 1, m.RefCount())

	require.NoError(t, d.Destroy())
	assert.Equal(t, 0, m.RefCount())
	assert.Zero(t, rc.MemoryUsage())
}

func TestNewMapping(t *testing.T) {
	w, err := local.NewWorld(2)
	require.NoError(t, err)
	c, err := w.Comm(1)
	require.NoError(t, err)

	l, err := NewFromRanges(c, []int{0, 4, 7})
	require.NoError(t, err)

	m, err := l.NewMapping([]int{3, 0})
	require.NoError(t, err)
	got, err := m.Apply([]int{0, 1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5, 6, 3, 0}, got)

	_, err = l.NewMapping([]int{7})
	assert.ErrorIs(t, err, whale.ErrIndexOutOfRange)

	require.NoError(t, l.SetBlockMapping(m))
	assert.Same(t, m, l.BlockMapping())
	assert.Nil(t, l.Mapping())
	require.NoError(t, l.SetBlockMapping(nil))
	assert.Equal(t, 1, m.RefCount())
}
