package viewer

import (
	"bufio"
	"fmt"
	"io"

	"github.com/hupe1980/whale/is"
	"github.com/hupe1980/whale/layout"
	"github.com/hupe1980/whale/mapping"
)

// ASCII writes human-readable views. Per-process lines are prefixed with the
// rank in brackets.
type ASCII struct {
	w io.Writer
}

// NewASCII returns a viewer writing to w.
func NewASCII(w io.Writer) *ASCII {
	return &ASCII{w: w}
}

// ViewLayout writes the global size and every ownership range.
func (v *ASCII) ViewLayout(l *layout.Layout) error {
	bw := bufio.NewWriter(v.w)
	ranges, err := l.Ranges()
	if err != nil {
		fmt.Fprintf(bw, "Layout: not set up (block size %d)\n", l.BlockSize())
		return bw.Flush()
	}
	p := len(ranges) - 1
	fmt.Fprintf(bw, "Layout: size %d, block size %d, %d processes\n", ranges[p], l.BlockSize(), p)
	for r := range p {
		fmt.Fprintf(bw, "  [%d] [%d, %d) local size %d\n", r, ranges[r], ranges[r+1], ranges[r+1]-ranges[r])
	}
	return bw.Flush()
}

// ViewMapping writes one "local global" line per slot.
func (v *ASCII) ViewMapping(m *mapping.Mapping) error {
	idx, err := m.GetIndices()
	if err != nil {
		return err
	}
	defer func() { _ = m.RestoreIndices(idx) }()

	rank := m.Comm().Rank()
	bw := bufio.NewWriter(v.w)
	fmt.Fprintf(bw, "Mapping: %d entries on rank %d\n", len(idx), rank)
	for i, g := range idx {
		fmt.Fprintf(bw, "  [%d] %d %d\n", rank, i, g)
	}
	return bw.Flush()
}

// ViewIS writes the variant parameters followed by one "position index"
// line per entry. Block sets list block indices.
func (v *ASCII) ViewIS(s is.IndexSet) error {
	rank := s.Comm().Rank()
	bw := bufio.NewWriter(v.w)

	var entries []int
	switch t := s.(type) {
	case *is.Stride:
		first, step := t.Info()
		fmt.Fprintf(bw, "IS stride: %d entries, first %d, step %d on rank %d\n", t.Len(), first, step, rank)
		entries = t.Indices()
	case *is.Block:
		entries = t.BlockIndices()
		fmt.Fprintf(bw, "IS block: block size %d, %d blocks on rank %d\n", t.BlockSize(), len(entries), rank)
	default:
		entries = s.Indices()
		fmt.Fprintf(bw, "IS general: %d entries on rank %d\n", len(entries), rank)
	}
	for i, e := range entries {
		fmt.Fprintf(bw, "  [%d] %d %d\n", rank, i, e)
	}
	return bw.Flush()
}
