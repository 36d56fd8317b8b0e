package mapping

import (
	"context"
	"fmt"
)

// Neighbor lists the local slots whose global indices also appear in the
// mapping of process Rank.
type Neighbor struct {
	Rank  int
	Local []int
}

// Info exchanges index tables with every process and reports, in rank
// order, the other processes that share global indices with this one. It is
// collective.
func (m *Mapping) Info(ctx context.Context) ([]Neighbor, error) {
	if err := m.alive(); err != nil {
		return nil, err
	}
	all, err := m.c.Allgatherv(ctx, m.indices)
	if err != nil {
		return nil, fmt.Errorf("mapping: info: %w", err)
	}

	me := m.c.Rank()
	var out []Neighbor
	for r, theirs := range all {
		if r == me || len(theirs) == 0 {
			continue
		}
		shared := make(map[int]struct{}, len(theirs))
		for _, g := range theirs {
			if g >= 0 {
				shared[g] = struct{}{}
			}
		}
		var slots []int
		for slot, g := range m.indices {
			if _, ok := shared[g]; ok {
				slots = append(slots, slot)
			}
		}
		if len(slots) > 0 {
			out = append(out, Neighbor{Rank: r, Local: slots})
		}
	}
	return out, nil
}
