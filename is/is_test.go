package is

import (
	"testing"

	"github.com/hupe1980/whale"
	"github.com/hupe1980/whale/comm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneral(t *testing.T) {
	src := []int{4, 1, 3}
	g, err := NewGeneral(comm.Self(), src, whale.CopyValues)
	require.NoError(t, err)

	assert.Equal(t, TypeGeneral, g.Type())
	assert.Equal(t, 3, g.Len())
	assert.Equal(t, 1, g.BlockSize())
	assert.False(t, g.Sorted())

	lo, hi, ok := g.MinMax()
	require.True(t, ok)
	assert.Equal(t, 1, lo)
	assert.Equal(t, 4, hi)

	src[0] = 99
	assert.Equal(t, []int{4, 1, 3}, g.Indices())

	Sort(g)
	assert.True(t, g.Sorted())
	assert.Equal(t, []int{1, 3, 4}, g.Indices())

	t.Run("nil communicator", func(t *testing.T) {
		_, err := NewGeneral(nil, src, whale.CopyValues)
		assert.ErrorIs(t, err, whale.ErrArgumentNull)
	})

	t.Run("empty min max", func(t *testing.T) {
		e, err := NewGeneral(comm.Self(), nil, whale.CopyValues)
		require.NoError(t, err)
		_, _, ok := e.MinMax()
		assert.False(t, ok)
	})
}

func TestStride(t *testing.T) {
	s, err := NewStride(comm.Self(), 4, 9, -3)
	require.NoError(t, err)

	assert.Equal(t, []int{9, 6, 3, 0}, s.Indices())
	assert.False(t, s.Sorted())

	lo, hi, ok := s.MinMax()
	require.True(t, ok)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 9, hi)

	d := s.Duplicate()
	Sort(s)
	first, step := s.Info()
	assert.Equal(t, 0, first)
	assert.Equal(t, 3, step)
	assert.Equal(t, []int{0, 3, 6, 9}, s.Indices())
	assert.Equal(t, []int{9, 6, 3, 0}, d.Indices())

	_, err = NewStride(comm.Self(), -1, 0, 1)
	assert.ErrorIs(t, err, whale.ErrInvalidArgument)
}

func TestBlock(t *testing.T) {
	b, err := NewBlock(comm.Self(), 2, []int{3, 0}, whale.CopyValues)
	require.NoError(t, err)

	assert.Equal(t, TypeBlock, b.Type())
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, 2, b.BlockSize())
	assert.Equal(t, []int{6, 7, 0, 1}, b.Indices())

	lo, hi, ok := b.MinMax()
	require.True(t, ok)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 7, hi)

	assert.False(t, b.Sorted())
	Sort(b)
	assert.Equal(t, []int{0, 3}, b.BlockIndices())
	assert.True(t, b.Sorted())

	t.Run("repeated block", func(t *testing.T) {
		r, err := NewBlock(comm.Self(), 2, []int{1, 1}, whale.CopyValues)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3, 2, 3}, r.Indices())
		assert.False(t, r.Sorted())

		_, err = Sum(r, r)
		assert.ErrorIs(t, err, whale.ErrInvalidArgument)
	})

	t.Run("repeated scalar block", func(t *testing.T) {
		r, err := NewBlock(comm.Self(), 1, []int{1, 1, 4}, whale.CopyValues)
		require.NoError(t, err)
		assert.True(t, r.Sorted())
	})

	_, err = NewBlock(comm.Self(), 0, nil, whale.CopyValues)
	assert.ErrorIs(t, err, whale.ErrInvalidArgument)
}

func TestInvertPermutation(t *testing.T) {
	g, err := NewGeneral(comm.Self(), []int{2, 0, 3, 1}, whale.CopyValues)
	require.NoError(t, err)
	require.True(t, IsPermutation(g))

	inv, err := InvertPermutation(g, whale.Decide)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 0, 2}, inv.Indices())

	t.Run("not a permutation", func(t *testing.T) {
		bad, err := NewGeneral(comm.Self(), []int{0, 0, 1}, whale.CopyValues)
		require.NoError(t, err)
		assert.False(t, IsPermutation(bad))
		_, err = InvertPermutation(bad, whale.Decide)
		assert.ErrorIs(t, err, whale.ErrInvalidArgument)
	})

	t.Run("identity stride", func(t *testing.T) {
		s, err := NewStride(comm.Self(), 5, 0, 1)
		require.NoError(t, err)
		inv, err := InvertPermutation(s, 5)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2, 3, 4}, inv.Indices())
	})

	t.Run("local size mismatch", func(t *testing.T) {
		_, err := InvertPermutation(g, 3)
		assert.ErrorIs(t, err, whale.ErrInvalidArgument)
	})
}

func TestEqualAndConcatenate(t *testing.T) {
	g, err := NewGeneral(comm.Self(), []int{3, 2, 1, 0}, whale.CopyValues)
	require.NoError(t, err)
	s, err := NewStride(comm.Self(), 4, 0, 1)
	require.NoError(t, err)

	assert.True(t, Equal(g, s))
	assert.Same(t, g, ToGeneral(g))
	assert.Equal(t, []int{0, 1, 2, 3}, ToGeneral(s).Indices())

	c, err := Concatenate(comm.Self(), s, g)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 3, 2, 1, 0}, c.Indices())
	assert.False(t, Equal(c, s))
}
