package whale

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexOutOfRangeError(t *testing.T) {
	err := OutOfRange(12, 0, 10)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.NotErrorIs(t, err, ErrSizeMismatch)
	assert.Equal(t, "whale: index 12 is out of range [0, 10)", err.Error())

	wrapped := fmt.Errorf("layout: find owner: %w", err)
	assert.ErrorIs(t, wrapped, ErrIndexOutOfRange)

	var ior *IndexOutOfRangeError
	require.True(t, errors.As(wrapped, &ior))
	assert.Equal(t, 12, ior.Index)
	assert.Equal(t, 10, ior.High)
}

func TestSizeMismatchError(t *testing.T) {
	err := fmt.Errorf("setup: %w", &SizeMismatchError{Declared: 11, Sum: 10})
	assert.ErrorIs(t, err, ErrSizeMismatch)

	var sm *SizeMismatchError
	require.True(t, errors.As(err, &sm))
	assert.Equal(t, 11, sm.Declared)
	assert.Equal(t, 10, sm.Sum)
}

func TestRetain(t *testing.T) {
	src := []int{3, 1, 2}

	t.Run("copy values", func(t *testing.T) {
		got, err := Retain(src, CopyValues)
		require.NoError(t, err)
		got[0] = 99
		assert.Equal(t, 3, src[0])
	})

	t.Run("use pointer", func(t *testing.T) {
		got, err := Retain(src, UsePointer)
		require.NoError(t, err)
		assert.Same(t, &src[0], &got[0])
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := Retain(src, CopyMode(42))
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestCopyModeString(t *testing.T) {
	assert.Equal(t, "copy-values", CopyValues.String())
	assert.Equal(t, "own-pointer", OwnPointer.String())
	assert.Equal(t, "use-pointer", UsePointer.String())
	assert.Equal(t, "CopyMode(7)", CopyMode(7).String())
}
