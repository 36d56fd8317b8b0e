package compress

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	compressible := bytes.Repeat([]byte("0123456789abcdef"), 512)

	for _, typ := range []Type{None, LZ4, ZSTD} {
		t.Run(typ.String(), func(t *testing.T) {
			block, err := Encode(compressible, typ)
			require.NoError(t, err)
			if typ != None {
				assert.Less(t, len(block), len(compressible))
			}

			got, err := Decode(block, typ)
			require.NoError(t, err)
			assert.Equal(t, compressible, got)
		})
	}
}

func TestEncode_IncompressibleStoredRaw(t *testing.T) {
	data := []byte{1, 2, 3}

	block, err := Encode(data, ZSTD)
	require.NoError(t, err)
	assert.Len(t, block, headerSize+len(data))

	got, err := Decode(block, ZSTD)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestDecode_Corrupt(t *testing.T) {
	_, err := Decode([]byte{1, 2}, LZ4)
	assert.ErrorIs(t, err, ErrCorrupt)

	block, err := Encode(bytes.Repeat([]byte{7}, 4096), LZ4)
	require.NoError(t, err)
	_, err = Decode(block[:len(block)-1], LZ4)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecode_OversizedHeader(t *testing.T) {
	block, err := Encode(bytes.Repeat([]byte{7}, 4096), LZ4)
	require.NoError(t, err)

	t.Run("above max block size", func(t *testing.T) {
		bad := append([]byte(nil), block...)
		binary.LittleEndian.PutUint32(bad[0:], math.MaxUint32)
		_, err := Decode(bad, LZ4)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("above lz4 ratio", func(t *testing.T) {
		bad := append([]byte(nil), block...)
		compressed := binary.LittleEndian.Uint32(bad[4:])
		binary.LittleEndian.PutUint32(bad[0:], compressed*lz4MaxRatio+1)
		_, err := Decode(bad, LZ4)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("zstd size lies", func(t *testing.T) {
		zb, err := Encode(bytes.Repeat([]byte{7}, 4096), ZSTD)
		require.NoError(t, err)
		binary.LittleEndian.PutUint32(zb[0:], MaxBlockSize)
		_, err = Decode(zb, ZSTD)
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestParseType(t *testing.T) {
	for s, want := range map[string]Type{"": None, "none": None, "lz4": LZ4, "zstd": ZSTD} {
		got, err := ParseType(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseType("gzip")
	assert.Error(t, err)
}
