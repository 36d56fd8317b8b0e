package mapping

import (
	"context"
	"testing"

	"github.com/hupe1980/whale"
	"github.com/hupe1980/whale/comm"
	"github.com/hupe1980/whale/comm/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfo(t *testing.T) {
	// Rank 0 owns 0..2 with ghost 3, rank 1 owns 3..5 with ghosts 2 and 6,
	// rank 2 owns 6..7 with no ghosts.
	tables := [][]int{
		{0, 1, 2, 3},
		{3, 4, 5, 2, 6},
		{6, 7},
	}
	want := [][]Neighbor{
		{{Rank: 1, Local: []int{2, 3}}},
		{{Rank: 0, Local: []int{0, 3}}, {Rank: 2, Local: []int{4}}},
		{{Rank: 1, Local: []int{0}}},
	}

	w, err := local.NewWorld(3)
	require.NoError(t, err)

	got := make([][]Neighbor, 3)
	err = w.Run(context.Background(), func(ctx context.Context, c comm.Communicator) error {
		idx := tables[c.Rank()]
		m, err := New(c, len(idx), idx, whale.CopyValues)
		if err != nil {
			return err
		}
		got[c.Rank()], err = m.Info(ctx)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestInfo_Self(t *testing.T) {
	m := newMapping(t, 1, 2)
	got, err := m.Info(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}
