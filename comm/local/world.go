package local

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/whale"
	"github.com/hupe1980/whale/comm"
	"golang.org/x/sync/errgroup"
)

type options struct {
	timeout time.Duration
	logger  *whale.Logger
}

// Option configures a World.
type Option func(*options)

// WithTimeout bounds how long a rank waits inside a single collective.
// Zero (the default) waits until the caller's context is done.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithLogger sets the logger used to report a broken world.
func WithLogger(l *whale.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// World is an in-process group of Size ranks.
type World struct {
	size   int
	opts   options
	logger *whale.Logger

	mu     sync.Mutex
	cur    *round
	err    error
	broken chan struct{}
}

// round is one collective step. Once done is closed, slots is read-only.
type round struct {
	op      string
	arrived int
	seen    []bool
	slots   [][]int
	done    chan struct{}
}

func newRound(size int) *round {
	return &round{
		seen:  make([]bool, size),
		slots: make([][]int, size),
		done:  make(chan struct{}),
	}
}

// NewWorld creates a World with size ranks.
func NewWorld(size int, opts ...Option) (*World, error) {
	if size < 1 {
		return nil, fmt.Errorf("local: world size %d: %w", size, whale.ErrInvalidArgument)
	}
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	return &World{
		size:   size,
		opts:   o,
		logger: whale.OrNoop(o.logger).WithComponent("comm/local"),
		cur:    newRound(size),
		broken: make(chan struct{}),
	}, nil
}

// Size returns the number of ranks.
func (w *World) Size() int { return w.size }

// Err returns the error that broke the world, or nil.
func (w *World) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Comm returns the communicator of rank. Each rank's communicator must be
// driven by exactly one goroutine.
func (w *World) Comm(rank int) (comm.Communicator, error) {
	if rank < 0 || rank >= w.size {
		return nil, fmt.Errorf("local: comm: %w", whale.OutOfRange(rank, 0, w.size))
	}
	return &rankComm{w: w, rank: rank}, nil
}

// Run calls fn once per rank, each in its own goroutine, and waits for all of
// them. The first error cancels the context passed to the other ranks, which
// releases any rank blocked in a collective.
func (w *World) Run(ctx context.Context, fn func(ctx context.Context, c comm.Communicator) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for r := 0; r < w.size; r++ {
		c := &rankComm{w: w, rank: r}
		g.Go(func() error {
			return fn(gctx, c)
		})
	}
	return g.Wait()
}

func (w *World) breakLocked(err error) {
	if w.err != nil {
		return
	}
	w.err = err
	close(w.broken)
	w.logger.Warn("world broken", "error", err)
}

func (w *World) breakWith(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.breakLocked(err)
}

// exchange deposits payload for rank and blocks until all ranks have
// deposited for the same collective. The returned slots must not be modified.
func (w *World) exchange(ctx context.Context, rank int, op string, payload []int) ([][]int, error) {
	if w.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.opts.timeout)
		defer cancel()
	}

	w.mu.Lock()
	if w.err != nil {
		err := w.err
		w.mu.Unlock()
		return nil, err
	}
	r := w.cur
	switch {
	case r.arrived == 0:
		r.op = op
	case r.op != op:
		w.breakLocked(fmt.Errorf("%w: rank %d entered %s while peers are in %s", whale.ErrWrongState, rank, op, r.op))
		err := w.err
		w.mu.Unlock()
		return nil, err
	case r.seen[rank]:
		w.breakLocked(fmt.Errorf("%w: rank %d entered %s twice", whale.ErrWrongState, rank, op))
		err := w.err
		w.mu.Unlock()
		return nil, err
	}
	buf := make([]int, len(payload))
	copy(buf, payload)
	r.slots[rank] = buf
	r.seen[rank] = true
	r.arrived++
	if r.arrived == w.size {
		close(r.done)
		w.cur = newRound(w.size)
	}
	w.mu.Unlock()

	select {
	case <-r.done:
		return r.slots, nil
	case <-w.broken:
		select {
		case <-r.done:
			return r.slots, nil
		default:
		}
		return nil, w.Err()
	case <-ctx.Done():
		select {
		case <-r.done:
			return r.slots, nil
		default:
		}
		err := fmt.Errorf("local: rank %d abandoned %s: %w", rank, op, ctx.Err())
		w.breakWith(fmt.Errorf("%w: %w", whale.ErrWrongState, err))
		return nil, err
	}
}

type rankComm struct {
	w    *World
	rank int
}

func (c *rankComm) Size() int { return c.w.size }
func (c *rankComm) Rank() int { return c.rank }

func (c *rankComm) AllreduceSum(ctx context.Context, v int) (int, error) {
	slots, err := c.w.exchange(ctx, c.rank, "allreduce", []int{v})
	if err != nil {
		return 0, err
	}
	sum := 0
	for _, s := range slots {
		sum += s[0]
	}
	return sum, nil
}

func (c *rankComm) Allgather(ctx context.Context, v int) ([]int, error) {
	slots, err := c.w.exchange(ctx, c.rank, "allgather", []int{v})
	if err != nil {
		return nil, err
	}
	out := make([]int, len(slots))
	for i, s := range slots {
		out[i] = s[0]
	}
	return out, nil
}

func (c *rankComm) Allgatherv(ctx context.Context, v []int) ([][]int, error) {
	slots, err := c.w.exchange(ctx, c.rank, "allgatherv", v)
	if err != nil {
		return nil, err
	}
	out := make([][]int, len(slots))
	for i, s := range slots {
		out[i] = make([]int, len(s))
		copy(out[i], s)
	}
	return out, nil
}

func (c *rankComm) Broadcast(ctx context.Context, v int, root int) (int, error) {
	if err := comm.CheckRoot(root, c.w.size); err != nil {
		return 0, err
	}
	slots, err := c.w.exchange(ctx, c.rank, "broadcast", []int{v})
	if err != nil {
		return 0, err
	}
	return slots[root][0], nil
}
