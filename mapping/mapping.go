package mapping

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/whale"
	"github.com/hupe1980/whale/comm"
	"github.com/hupe1980/whale/is"
	"github.com/hupe1980/whale/resource"
)

// Policy selects what GlobalToLocal does with global indices that have no
// local slot.
type Policy uint8

const (
	// Mask emits -1 for absent entries and keeps the output length.
	Mask Policy = iota
	// Drop omits absent entries and compacts the output.
	Drop
)

func (p Policy) String() string {
	switch p {
	case Mask:
		return "mask"
	case Drop:
		return "drop"
	default:
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
}

// Mapping is a local-to-global index translation.
type Mapping struct {
	c       comm.Communicator
	opts    []Option
	logger  *whale.Logger
	rc      *resource.Controller
	mode    whale.CopyMode
	indices []int
	owned   int64 // bytes reserved for indices

	refs     atomic.Int32
	acquired atomic.Int32

	mu        sync.Mutex
	table     map[int]int
	tableSize int64
}

// New creates a mapping of n local slots onto indices[:n].
// It fails with whale.ErrArgumentNull if indices is nil and n > 0.
func New(c comm.Communicator, n int, indices []int, mode whale.CopyMode, opts ...Option) (*Mapping, error) {
	if c == nil {
		return nil, fmt.Errorf("mapping: communicator: %w", whale.ErrArgumentNull)
	}
	if n < 0 {
		return nil, fmt.Errorf("mapping: size %d: %w", n, whale.ErrInvalidArgument)
	}
	if indices == nil && n > 0 {
		return nil, fmt.Errorf("mapping: indices: %w", whale.ErrArgumentNull)
	}
	if len(indices) < n {
		return nil, fmt.Errorf("mapping: %d indices for size %d: %w", len(indices), n, whale.ErrInvalidArgument)
	}

	o := options{}
	for _, fn := range opts {
		fn(&o)
	}

	kept, err := whale.Retain(indices[:n:n], mode)
	if err != nil {
		return nil, fmt.Errorf("mapping: %w", err)
	}

	m := &Mapping{
		c:       c,
		opts:    opts,
		logger:  whale.OrNoop(o.logger).WithComponent("mapping").WithRank(c.Rank()),
		rc:      o.rc,
		mode:    mode,
		indices: kept,
	}
	if mode != whale.UsePointer {
		if err := o.rc.ReserveInts(n); err != nil {
			return nil, fmt.Errorf("mapping: %w", err)
		}
		m.owned = int64(n) * resource.IntBytes
	}
	m.refs.Store(1)
	return m, nil
}

// FromIndexSet creates a mapping whose local slot i maps to the i-th index
// of s.
func FromIndexSet(s is.IndexSet, opts ...Option) (*Mapping, error) {
	if s == nil {
		return nil, fmt.Errorf("mapping: index set: %w", whale.ErrArgumentNull)
	}
	idx := s.Indices()
	return New(s.Comm(), len(idx), idx, whale.OwnPointer, opts...)
}

func (m *Mapping) alive() error {
	if m.refs.Load() <= 0 {
		return fmt.Errorf("mapping: destroyed: %w", whale.ErrWrongState)
	}
	return nil
}

// Comm returns the communicator the mapping was created on.
func (m *Mapping) Comm() comm.Communicator { return m.c }

// Size returns the number of local slots.
func (m *Mapping) Size() int { return len(m.indices) }

// Apply translates local indices to global indices. Negative local indices
// are passed through unchanged.
func (m *Mapping) Apply(local []int) ([]int, error) {
	if err := m.alive(); err != nil {
		return nil, err
	}
	n := len(m.indices)
	out := make([]int, len(local))
	for i, l := range local {
		switch {
		case l < 0:
			out[i] = l
		case l >= n:
			return nil, fmt.Errorf("mapping: apply: %w", whale.OutOfRange(l, 0, n))
		default:
			out[i] = m.indices[l]
		}
	}
	return out, nil
}

// ApplyIS translates every index of s and returns the result as a general
// index set on the same communicator.
func (m *Mapping) ApplyIS(s is.IndexSet) (*is.General, error) {
	out, err := m.Apply(s.Indices())
	if err != nil {
		return nil, err
	}
	return is.NewGeneral(s.Comm(), out, whale.OwnPointer)
}

// GlobalToLocal translates global indices to local slots.
//
// Under Mask, absent entries yield -1 and found equals len(globals). Under
// Drop, absent entries are omitted and found equals the number of entries
// resolved. Negative queries count as absent.
func (m *Mapping) GlobalToLocal(policy Policy, globals []int) (found int, local []int, err error) {
	if err := m.alive(); err != nil {
		return 0, nil, err
	}
	if policy != Mask && policy != Drop {
		return 0, nil, fmt.Errorf("mapping: global to local: policy %s: %w", policy, whale.ErrInvalidArgument)
	}
	table, err := m.reverse()
	if err != nil {
		return 0, nil, err
	}

	out := make([]int, 0, len(globals))
	for _, g := range globals {
		slot, ok := table[g]
		switch {
		case ok:
			out = append(out, slot)
		case policy == Mask:
			out = append(out, -1)
		}
	}
	if policy == Mask {
		return len(globals), out, nil
	}
	return len(out), out, nil
}

// reverse returns the global-to-local table, building it on first use.
func (m *Mapping) reverse() (map[int]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.table != nil {
		return m.table, nil
	}

	// Two ints per entry: key and slot.
	if err := m.rc.ReserveInts(2 * len(m.indices)); err != nil {
		return nil, fmt.Errorf("mapping: global to local: %w", err)
	}

	table := make(map[int]int, len(m.indices))
	for slot, g := range m.indices {
		if g < 0 {
			continue
		}
		if _, dup := table[g]; !dup {
			table[g] = slot
		}
	}
	m.table = table
	m.tableSize = int64(2*len(m.indices)) * resource.IntBytes
	m.logger.LogReverseTable(context.Background(), len(m.indices), len(table))
	return table, nil
}

// GetIndices returns the backing index slice for reading. Every call must be
// paired with RestoreIndices; the mapping cannot be destroyed meanwhile.
func (m *Mapping) GetIndices() ([]int, error) {
	if err := m.alive(); err != nil {
		return nil, err
	}
	m.acquired.Add(1)
	return m.indices, nil
}

// RestoreIndices releases a slice obtained from GetIndices.
func (m *Mapping) RestoreIndices(idx []int) error {
	if len(idx) > 0 && len(m.indices) > 0 && &idx[0] != &m.indices[0] {
		return fmt.Errorf("mapping: restore indices: foreign slice: %w", whale.ErrInvalidArgument)
	}
	for {
		cur := m.acquired.Load()
		if cur <= 0 {
			return fmt.Errorf("mapping: restore indices without get: %w", whale.ErrWrongState)
		}
		if m.acquired.CompareAndSwap(cur, cur-1) {
			return nil
		}
	}
}

// Block collapses each run of bs consecutive scalar indices into one block
// index. Size must be a multiple of bs and every run must be bs-aligned and
// contiguous; a run of negative entries becomes a single -1. A run mixing
// negative and non-negative entries is rejected.
func (m *Mapping) Block(bs int) (*Mapping, error) {
	if err := m.alive(); err != nil {
		return nil, err
	}
	if bs < 1 || len(m.indices)%bs != 0 {
		return nil, fmt.Errorf("mapping: block: block size %d for size %d: %w", bs, len(m.indices), whale.ErrInvalidArgument)
	}
	out := make([]int, len(m.indices)/bs)
	for b := range out {
		run := m.indices[b*bs : (b+1)*bs]
		if run[0] < 0 {
			for _, v := range run {
				if v >= 0 {
					return nil, fmt.Errorf("mapping: block: slots %d..%d mix negative and global indices: %w", b*bs, (b+1)*bs-1, whale.ErrInvalidArgument)
				}
			}
			out[b] = -1
			continue
		}
		if run[0]%bs != 0 {
			return nil, fmt.Errorf("mapping: block: index %d at slot %d is not aligned to %d: %w", run[0], b*bs, bs, whale.ErrInvalidArgument)
		}
		for j, v := range run {
			if v != run[0]+j {
				return nil, fmt.Errorf("mapping: block: slots %d..%d are not contiguous: %w", b*bs, (b+1)*bs-1, whale.ErrInvalidArgument)
			}
		}
		out[b] = run[0] / bs
	}
	return New(m.c, len(out), out, whale.OwnPointer, m.opts...)
}

// Unblock expands each block index into bs scalar indices. Negative entries
// expand to bs entries of -1.
func (m *Mapping) Unblock(bs int) (*Mapping, error) {
	if err := m.alive(); err != nil {
		return nil, err
	}
	if bs < 1 {
		return nil, fmt.Errorf("mapping: unblock: block size %d: %w", bs, whale.ErrInvalidArgument)
	}
	out := make([]int, 0, len(m.indices)*bs)
	for _, b := range m.indices {
		for j := range bs {
			if b < 0 {
				out = append(out, -1)
			} else {
				out = append(out, b*bs+j)
			}
		}
	}
	return New(m.c, len(out), out, whale.OwnPointer, m.opts...)
}

// Concatenate joins maps in argument order. Local slot j of maps[k] becomes
// slot j plus the sizes of maps[0..k) in the result; global values are kept.
func Concatenate(c comm.Communicator, maps ...*Mapping) (*Mapping, error) {
	total := 0
	for i, m := range maps {
		if m == nil {
			return nil, fmt.Errorf("mapping: concatenate: mapping %d: %w", i, whale.ErrArgumentNull)
		}
		if err := m.alive(); err != nil {
			return nil, err
		}
		total += len(m.indices)
	}
	out := make([]int, 0, total)
	var opts []Option
	for _, m := range maps {
		out = append(out, m.indices...)
		if opts == nil {
			opts = m.opts
		}
	}
	return New(c, total, out, whale.OwnPointer, opts...)
}

// Reference returns the same mapping with its reference count incremented.
func (m *Mapping) Reference() (*Mapping, error) {
	if err := m.alive(); err != nil {
		return nil, err
	}
	m.refs.Add(1)
	return m, nil
}

// RefCount returns the number of live references.
func (m *Mapping) RefCount() int { return int(m.refs.Load()) }

// Destroy releases one reference. The last release frees the index table.
func (m *Mapping) Destroy() error {
	if m == nil {
		return nil
	}
	if m.acquired.Load() > 0 {
		return fmt.Errorf("mapping: destroy with outstanding indices: %w", whale.ErrWrongState)
	}
	for {
		cur := m.refs.Load()
		if cur <= 0 {
			return fmt.Errorf("mapping: destroy: %w", whale.ErrWrongState)
		}
		if m.refs.CompareAndSwap(cur, cur-1) {
			if cur == 1 {
				m.free()
			}
			return nil
		}
	}
}

func (m *Mapping) free() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rc.ReleaseMemory(m.owned + m.tableSize)
	m.owned, m.tableSize = 0, 0
	m.table = nil
	m.indices = nil
}

// Equal reports whether a and b map every local slot to the same global index.
func Equal(a, b *Mapping) bool {
	return slices.Equal(a.indices, b.indices)
}
