package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntToUint32(t *testing.T) {
	got, err := IntToUint32(42)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), got)

	_, err = IntToUint32(-1)
	assert.ErrorIs(t, err, ErrOverflow)

	if math.MaxInt > math.MaxUint32 {
		_, err = IntToUint32(math.MaxUint32 + 1)
		assert.ErrorIs(t, err, ErrOverflow)
	}
}

func TestUint64ToInt(t *testing.T) {
	got, err := Uint64ToInt(7)
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	_, err = Uint64ToInt(math.MaxUint64)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestUint32ToInt(t *testing.T) {
	got, err := Uint32ToInt(math.MaxUint16)
	require.NoError(t, err)
	assert.Equal(t, math.MaxUint16, got)
}

func TestInt64ToInt(t *testing.T) {
	got, err := Int64ToInt(-5)
	require.NoError(t, err)
	assert.Equal(t, -5, got)
}
