package is

import (
	"fmt"
	"slices"

	"github.com/hupe1980/whale"
	"github.com/hupe1980/whale/comm"
)

// Type identifies an IndexSet variant.
type Type uint8

const (
	TypeGeneral Type = iota + 1
	TypeStride
	TypeBlock
)

func (t Type) String() string {
	switch t {
	case TypeGeneral:
		return "general"
	case TypeStride:
		return "stride"
	case TypeBlock:
		return "block"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// IndexSet is the capability set shared by all variants.
type IndexSet interface {
	Type() Type
	Comm() comm.Communicator
	// Len returns the number of scalar indices.
	Len() int
	// Indices returns the scalar indices. The returned slice is a copy.
	Indices() []int
	// BlockSize returns the block size, 1 for general and stride sets.
	BlockSize() int
	// Sorted reports whether the indices are in non-decreasing order.
	Sorted() bool
	// Duplicate returns an independent copy of the same variant.
	Duplicate() IndexSet
	// MinMax returns the smallest and largest index; ok is false for an
	// empty set.
	MinMax() (lo, hi int, ok bool)
}

// General is an index set backed by an explicit list.
type General struct {
	c   comm.Communicator
	idx []int
}

// NewGeneral creates a general index set. mode controls whether idx is
// copied or retained.
func NewGeneral(c comm.Communicator, idx []int, mode whale.CopyMode) (*General, error) {
	if c == nil {
		return nil, fmt.Errorf("is: communicator: %w", whale.ErrArgumentNull)
	}
	kept, err := whale.Retain(idx, mode)
	if err != nil {
		return nil, fmt.Errorf("is: %w", err)
	}
	return &General{c: c, idx: kept}, nil
}

func (g *General) Type() Type              { return TypeGeneral }
func (g *General) Comm() comm.Communicator { return g.c }
func (g *General) Len() int                { return len(g.idx) }
func (g *General) BlockSize() int          { return 1 }
func (g *General) Indices() []int          { return slices.Clone(g.idx) }
func (g *General) Sorted() bool            { return slices.IsSorted(g.idx) }

func (g *General) Duplicate() IndexSet {
	return &General{c: g.c, idx: slices.Clone(g.idx)}
}

func (g *General) MinMax() (int, int, bool) {
	if len(g.idx) == 0 {
		return 0, 0, false
	}
	return slices.Min(g.idx), slices.Max(g.idx), true
}

// Stride is the index set first, first+step, ..., first+(n-1)*step.
type Stride struct {
	c     comm.Communicator
	n     int
	first int
	step  int
}

// NewStride creates a stride index set of n entries.
func NewStride(c comm.Communicator, n, first, step int) (*Stride, error) {
	if c == nil {
		return nil, fmt.Errorf("is: communicator: %w", whale.ErrArgumentNull)
	}
	if n < 0 {
		return nil, fmt.Errorf("is: stride length %d: %w", n, whale.ErrInvalidArgument)
	}
	return &Stride{c: c, n: n, first: first, step: step}, nil
}

// Info returns the first index and the step.
func (s *Stride) Info() (first, step int) { return s.first, s.step }

func (s *Stride) Type() Type              { return TypeStride }
func (s *Stride) Comm() comm.Communicator { return s.c }
func (s *Stride) Len() int                { return s.n }
func (s *Stride) BlockSize() int          { return 1 }
func (s *Stride) Sorted() bool            { return s.n <= 1 || s.step >= 0 }

func (s *Stride) Indices() []int {
	out := make([]int, s.n)
	for i := range out {
		out[i] = s.first + i*s.step
	}
	return out
}

func (s *Stride) Duplicate() IndexSet {
	d := *s
	return &d
}

func (s *Stride) MinMax() (int, int, bool) {
	if s.n == 0 {
		return 0, 0, false
	}
	last := s.first + (s.n-1)*s.step
	return min(s.first, last), max(s.first, last), true
}

// Block is an index set whose entries expand to bs consecutive indices:
// block b covers b*bs, ..., b*bs+bs-1.
type Block struct {
	c      comm.Communicator
	bs     int
	blocks []int
}

// NewBlock creates a block index set from block indices.
func NewBlock(c comm.Communicator, bs int, blocks []int, mode whale.CopyMode) (*Block, error) {
	if c == nil {
		return nil, fmt.Errorf("is: communicator: %w", whale.ErrArgumentNull)
	}
	if bs < 1 {
		return nil, fmt.Errorf("is: block size %d: %w", bs, whale.ErrInvalidArgument)
	}
	kept, err := whale.Retain(blocks, mode)
	if err != nil {
		return nil, fmt.Errorf("is: %w", err)
	}
	return &Block{c: c, bs: bs, blocks: kept}, nil
}

// BlockIndices returns a copy of the block indices.
func (b *Block) BlockIndices() []int { return slices.Clone(b.blocks) }

func (b *Block) Type() Type              { return TypeBlock }
func (b *Block) Comm() comm.Communicator { return b.c }
func (b *Block) Len() int                { return len(b.blocks) * b.bs }
func (b *Block) BlockSize() int          { return b.bs }

// Sorted reports whether the scalar indices are non-decreasing. With bs > 1
// a repeated block breaks the order, so blocks must be strictly increasing.
func (b *Block) Sorted() bool {
	if b.bs == 1 {
		return slices.IsSorted(b.blocks)
	}
	for i := 1; i < len(b.blocks); i++ {
		if b.blocks[i] <= b.blocks[i-1] {
			return false
		}
	}
	return true
}

func (b *Block) Indices() []int {
	out := make([]int, 0, b.Len())
	for _, blk := range b.blocks {
		for j := range b.bs {
			out = append(out, blk*b.bs+j)
		}
	}
	return out
}

func (b *Block) Duplicate() IndexSet {
	return &Block{c: b.c, bs: b.bs, blocks: slices.Clone(b.blocks)}
}

func (b *Block) MinMax() (int, int, bool) {
	if len(b.blocks) == 0 {
		return 0, 0, false
	}
	return slices.Min(b.blocks) * b.bs, slices.Max(b.blocks)*b.bs + b.bs - 1, true
}

// Sort sorts s in place. A stride with negative step is flipped; a block set
// sorts its block indices.
func Sort(s IndexSet) {
	switch v := s.(type) {
	case *General:
		slices.Sort(v.idx)
	case *Stride:
		if v.n > 1 && v.step < 0 {
			v.first += (v.n - 1) * v.step
			v.step = -v.step
		}
	case *Block:
		slices.Sort(v.blocks)
	}
}

// ToGeneral returns s as a General set. A General input is returned as is.
func ToGeneral(s IndexSet) *General {
	if g, ok := s.(*General); ok {
		return g
	}
	return &General{c: s.Comm(), idx: s.Indices()}
}

// Equal reports whether a and b hold the same indices, ignoring order.
func Equal(a, b IndexSet) bool {
	if a.Len() != b.Len() {
		return false
	}
	x, y := a.Indices(), b.Indices()
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}

// Concatenate joins the sets in argument order into a General set on c.
func Concatenate(c comm.Communicator, sets ...IndexSet) (*General, error) {
	if c == nil {
		return nil, fmt.Errorf("is: communicator: %w", whale.ErrArgumentNull)
	}
	total := 0
	for _, s := range sets {
		total += s.Len()
	}
	out := make([]int, 0, total)
	for _, s := range sets {
		out = append(out, s.Indices()...)
	}
	return &General{c: c, idx: out}, nil
}

// IsPermutation reports whether s holds every index of [0, Len()) exactly once.
func IsPermutation(s IndexSet) bool {
	if st, ok := s.(*Stride); ok {
		return st.n == 0 || (st.first == 0 && st.step == 1) || (st.n == 1 && st.first == 0)
	}
	n := s.Len()
	seen := make([]bool, n)
	for _, v := range s.Indices() {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// InvertPermutation returns the inverse of the permutation s, so that
// out[s[i]] == i. nlocal must be whale.Decide or s.Len().
func InvertPermutation(s IndexSet, nlocal int) (*General, error) {
	n := s.Len()
	if nlocal != whale.Decide && nlocal != n {
		return nil, fmt.Errorf("is: invert permutation: local size %d for %d entries: %w", nlocal, n, whale.ErrInvalidArgument)
	}
	if !IsPermutation(s) {
		return nil, fmt.Errorf("is: invert permutation: not a permutation: %w", whale.ErrInvalidArgument)
	}
	out := make([]int, n)
	for i, v := range s.Indices() {
		out[v] = i
	}
	return &General{c: s.Comm(), idx: out}, nil
}
