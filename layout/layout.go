package layout

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/hupe1980/whale"
	"github.com/hupe1980/whale/comm"
	"github.com/hupe1980/whale/mapping"
	"github.com/hupe1980/whale/resource"
)

// Decide leaves a size for SetUp to determine.
const Decide = whale.Decide

// Layout is the partition of a global index space over the processes of a
// communicator.
type Layout struct {
	c      comm.Communicator
	opts   []Option
	logger *whale.Logger
	rc     *resource.Controller

	// Declared sizes, possibly Decide.
	localDecl int
	sizeDecl  int
	bs        int

	// Resolved by SetUp. ranges is nil until then.
	n, size  int
	rstart   int
	rend     int
	ranges   []int
	reserved int

	mapping  *mapping.Mapping
	bmapping *mapping.Mapping

	refs atomic.Int32
}

// New creates an unconfigured layout on c.
func New(c comm.Communicator, opts ...Option) (*Layout, error) {
	if c == nil {
		return nil, fmt.Errorf("layout: communicator: %w", whale.ErrArgumentNull)
	}
	o := options{blockSize: 1}
	for _, fn := range opts {
		fn(&o)
	}
	if o.blockSize < 1 {
		return nil, fmt.Errorf("layout: block size %d: %w", o.blockSize, whale.ErrInvalidArgument)
	}

	l := &Layout{
		c:         c,
		opts:      opts,
		logger:    whale.OrNoop(o.logger).WithComponent("layout").WithRank(c.Rank()),
		rc:        o.rc,
		localDecl: Decide,
		sizeDecl:  Decide,
		bs:        o.blockSize,
		n:         Decide,
		size:      Decide,
	}
	l.refs.Store(1)
	return l, nil
}

// NewFromRanges creates a layout that is already set up from the P+1
// boundaries of a previous partition. No communication takes place.
func NewFromRanges(c comm.Communicator, ranges []int, opts ...Option) (*Layout, error) {
	l, err := New(c, opts...)
	if err != nil {
		return nil, err
	}
	p := c.Size()
	if len(ranges) != p+1 {
		return nil, fmt.Errorf("layout: %d boundaries for %d processes: %w", len(ranges), p, whale.ErrInvalidArgument)
	}
	if ranges[0] != 0 {
		return nil, fmt.Errorf("layout: first boundary %d: %w", ranges[0], whale.ErrInvalidArgument)
	}
	for i := 1; i <= p; i++ {
		if ranges[i] < ranges[i-1] {
			return nil, fmt.Errorf("layout: boundaries decrease at %d: %w", i, whale.ErrInvalidArgument)
		}
	}
	for _, b := range ranges {
		if b%l.bs != 0 {
			return nil, fmt.Errorf("layout: boundary %d is not a multiple of block size %d: %w", b, l.bs, whale.ErrInvalidArgument)
		}
	}

	rank := c.Rank()
	if err := l.commit(slices.Clone(ranges), rank); err != nil {
		return nil, err
	}
	l.localDecl, l.sizeDecl = l.n, l.size
	return l, nil
}

func (l *Layout) alive() error {
	if l.refs.Load() <= 0 {
		return fmt.Errorf("layout: destroyed: %w", whale.ErrWrongState)
	}
	return nil
}

// Comm returns the communicator of the layout.
func (l *Layout) Comm() comm.Communicator { return l.c }

// SetLocalSize declares the number of indices owned by this process.
// Changing it on a set-up layout invalidates the layout.
func (l *Layout) SetLocalSize(n int) error {
	if err := l.alive(); err != nil {
		return err
	}
	if n < 0 && n != Decide {
		return fmt.Errorf("layout: local size %d: %w", n, whale.ErrInvalidArgument)
	}
	if n != l.localDecl {
		l.localDecl = n
		l.invalidate()
	}
	return nil
}

// SetSize declares the global number of indices.
// Changing it on a set-up layout invalidates the layout.
func (l *Layout) SetSize(n int) error {
	if err := l.alive(); err != nil {
		return err
	}
	if n < 0 && n != Decide {
		return fmt.Errorf("layout: size %d: %w", n, whale.ErrInvalidArgument)
	}
	if n != l.sizeDecl {
		l.sizeDecl = n
		l.invalidate()
	}
	return nil
}

// SetBlockSize sets the block size. Local and global sizes must be multiples
// of it. Changing it on a set-up layout invalidates the layout.
func (l *Layout) SetBlockSize(bs int) error {
	if err := l.alive(); err != nil {
		return err
	}
	if bs < 1 {
		return fmt.Errorf("layout: block size %d: %w", bs, whale.ErrInvalidArgument)
	}
	if bs != l.bs {
		l.bs = bs
		l.invalidate()
	}
	return nil
}

// BlockSize returns the block size.
func (l *Layout) BlockSize() int { return l.bs }

// IsSetUp reports whether SetUp has completed since the last change.
func (l *Layout) IsSetUp() bool { return l.ranges != nil }

func (l *Layout) invalidate() {
	if l.ranges == nil {
		return
	}
	l.rc.ReleaseInts(l.reserved)
	l.reserved = 0
	l.ranges = nil
	l.n, l.size = Decide, Decide
	l.rstart, l.rend = 0, 0
}

// SetUp resolves the sizes and computes the ownership ranges. It is
// collective over the layout's communicator.
//
// If both sizes are declared their consistency is checked and a
// whale.SizeMismatchError is returned if the local sizes do not sum to the
// global size. On error no state is changed. Calling SetUp again without
// changing a size is a no-op.
func (l *Layout) SetUp(ctx context.Context) (err error) {
	if err := l.alive(); err != nil {
		return err
	}
	if l.ranges != nil {
		return nil
	}

	n, size, bs := l.localDecl, l.sizeDecl, l.bs
	defer func() {
		l.logger.LogSetUp(ctx, n, size, l.rstart, l.rend, err)
	}()

	if n == Decide && size == Decide {
		return fmt.Errorf("layout: setup: local and global size are both undetermined: %w", whale.ErrInvalidArgument)
	}
	if n != Decide && n%bs != 0 {
		return fmt.Errorf("layout: setup: local size %d is not a multiple of block size %d: %w", n, bs, whale.ErrInvalidArgument)
	}
	if size != Decide && size%bs != 0 {
		return fmt.Errorf("layout: setup: size %d is not a multiple of block size %d: %w", size, bs, whale.ErrInvalidArgument)
	}

	p, rank := l.c.Size(), l.c.Rank()
	if n == Decide {
		n = SplitOwnership(size/bs, p, rank) * bs
	}

	sizes, err := l.c.Allgather(ctx, n)
	if err != nil {
		return fmt.Errorf("layout: setup: %w", err)
	}
	if len(sizes) != p {
		return fmt.Errorf("layout: setup: gathered %d sizes from %d processes: %w", len(sizes), p, whale.ErrWrongState)
	}

	ranges := make([]int, p+1)
	for i, s := range sizes {
		ranges[i+1] = ranges[i] + s
	}
	if size != Decide && ranges[p] != size {
		return fmt.Errorf("layout: setup: %w", &whale.SizeMismatchError{Declared: size, Sum: ranges[p]})
	}

	return l.commit(ranges, rank)
}

// commit reserves memory for ranges and installs it.
func (l *Layout) commit(ranges []int, rank int) error {
	if err := l.rc.ReserveInts(len(ranges)); err != nil {
		return fmt.Errorf("layout: setup: %w", err)
	}
	l.reserved = len(ranges)
	l.ranges = ranges
	l.rstart, l.rend = ranges[rank], ranges[rank+1]
	l.n = l.rend - l.rstart
	l.size = ranges[len(ranges)-1]
	return nil
}

func (l *Layout) setUp() error {
	if err := l.alive(); err != nil {
		return err
	}
	if l.ranges == nil {
		return fmt.Errorf("layout: %w", whale.ErrNotSetUp)
	}
	return nil
}

// LocalSize returns the number of indices owned by this process.
func (l *Layout) LocalSize() (int, error) {
	if err := l.setUp(); err != nil {
		return 0, err
	}
	return l.n, nil
}

// Size returns the global number of indices.
func (l *Layout) Size() (int, error) {
	if err := l.setUp(); err != nil {
		return 0, err
	}
	return l.size, nil
}

// Range returns the half-open ownership range [start, end) of this process.
func (l *Layout) Range() (start, end int, err error) {
	if err := l.setUp(); err != nil {
		return 0, 0, err
	}
	return l.rstart, l.rend, nil
}

// Ranges returns a copy of the P+1 boundaries: ranges[i] is the first index
// owned by process i and ranges[P] is the global size.
func (l *Layout) Ranges() ([]int, error) {
	if err := l.setUp(); err != nil {
		return nil, err
	}
	return slices.Clone(l.ranges), nil
}

// Duplicate returns an independent copy with the same sizes and ranges. The
// attached mappings are shared by reference.
func (l *Layout) Duplicate() (*Layout, error) {
	if err := l.alive(); err != nil {
		return nil, err
	}
	d, err := New(l.c, l.opts...)
	if err != nil {
		return nil, err
	}
	d.bs = l.bs
	d.localDecl, d.sizeDecl = l.localDecl, l.sizeDecl
	if l.ranges != nil {
		if err := d.commit(slices.Clone(l.ranges), l.c.Rank()); err != nil {
			return nil, err
		}
	}
	if err := d.SetMapping(l.mapping); err != nil {
		return nil, err
	}
	if err := d.SetBlockMapping(l.bmapping); err != nil {
		return nil, err
	}
	return d, nil
}

// Reference returns the same layout with its reference count incremented.
func (l *Layout) Reference() (*Layout, error) {
	if err := l.alive(); err != nil {
		return nil, err
	}
	l.refs.Add(1)
	return l, nil
}

// RefCount returns the number of live references.
func (l *Layout) RefCount() int { return int(l.refs.Load()) }

// Destroy releases one reference. The last release frees the ranges and
// releases the attached mappings.
func (l *Layout) Destroy() error {
	if l == nil {
		return nil
	}
	for {
		cur := l.refs.Load()
		if cur <= 0 {
			return fmt.Errorf("layout: destroy: %w", whale.ErrWrongState)
		}
		if l.refs.CompareAndSwap(cur, cur-1) {
			if cur > 1 {
				return nil
			}
			break
		}
	}

	l.invalidate()
	err := l.mapping.Destroy()
	if berr := l.bmapping.Destroy(); err == nil {
		err = berr
	}
	l.mapping, l.bmapping = nil, nil
	return err
}
