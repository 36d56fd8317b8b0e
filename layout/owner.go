package layout

import (
	"fmt"

	"github.com/hupe1980/whale"
)

// FindOwner returns the process that owns the global index idx.
//
// idx == Size() is accepted and resolves to the last process whose range
// starts at or below Size(), which may be a trailing empty process. Prefer
// OwnerOfExclusiveBound for that use.
func (l *Layout) FindOwner(idx int) (int, error) {
	if err := l.setUp(); err != nil {
		return 0, err
	}
	if idx < 0 || idx > l.size {
		return 0, fmt.Errorf("layout: find owner: %w", whale.OutOfRange(idx, 0, l.size+1))
	}
	return l.search(idx), nil
}

// search returns the largest k with ranges[k] <= idx among the first P
// boundaries.
func (l *Layout) search(idx int) int {
	lo, hi := 0, len(l.ranges)-1
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if idx < l.ranges[mid] {
			hi = mid
		} else {
			lo = mid
		}
	}
	return lo
}

// FindOwnerIndex returns the owner of idx and the offset of idx inside the
// owner's range.
func (l *Layout) FindOwnerIndex(idx int) (owner, offset int, err error) {
	owner, err = l.FindOwner(idx)
	if err != nil {
		return 0, 0, err
	}
	return owner, idx - l.ranges[owner], nil
}

// OwnerOfExclusiveBound returns the process whose range contains end-1, that
// is the owner of the last index below the exclusive bound end. end must be
// in [0, Size()]; end == 0 yields the owner of index 0.
func (l *Layout) OwnerOfExclusiveBound(end int) (int, error) {
	if err := l.setUp(); err != nil {
		return 0, err
	}
	if end < 0 || end > l.size {
		return 0, fmt.Errorf("layout: owner of bound: %w", whale.OutOfRange(end, 0, l.size+1))
	}
	if end == 0 {
		return l.search(0), nil
	}
	return l.search(end - 1), nil
}
