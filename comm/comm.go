package comm

import (
	"context"
	"fmt"

	"github.com/hupe1980/whale"
)

// Communicator is a process group with blocking collectives.
//
// Methods other than Size and Rank are collective. Implementations must be
// safe to use from the single goroutine that owns the rank.
type Communicator interface {
	// Size returns the number of processes in the group.
	Size() int
	// Rank returns the rank of the calling process, 0 <= Rank() < Size().
	Rank() int

	// AllreduceSum returns the sum of v over all ranks.
	AllreduceSum(ctx context.Context, v int) (int, error)
	// Allgather returns the values contributed by every rank, indexed by rank.
	Allgather(ctx context.Context, v int) ([]int, error)
	// Allgatherv returns the slices contributed by every rank, indexed by rank.
	// Slices may differ in length.
	Allgatherv(ctx context.Context, v []int) ([][]int, error)
	// Broadcast returns root's value of v on every rank.
	Broadcast(ctx context.Context, v int, root int) (int, error)
}

// Self returns the communicator of a single process.
func Self() Communicator { return self{} }

type self struct{}

func (self) Size() int { return 1 }
func (self) Rank() int { return 0 }

func (self) AllreduceSum(ctx context.Context, v int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return v, nil
}

func (self) Allgather(ctx context.Context, v int) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []int{v}, nil
}

func (self) Allgatherv(ctx context.Context, v []int) ([][]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]int, len(v))
	copy(out, v)
	return [][]int{out}, nil
}

func (self) Broadcast(ctx context.Context, v int, root int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if root != 0 {
		return 0, CheckRoot(root, 1)
	}
	return v, nil
}

// CheckRoot validates a broadcast root against the group size.
func CheckRoot(root, size int) error {
	if root < 0 || root >= size {
		return fmt.Errorf("comm: broadcast root: %w", whale.OutOfRange(root, 0, size))
	}
	return nil
}
