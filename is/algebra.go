package is

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/hupe1980/whale"
)

func toBitmap(s IndexSet) (*roaring64.Bitmap, error) {
	idx := s.Indices()
	vals := make([]uint64, len(idx))
	for i, v := range idx {
		if v < 0 {
			return nil, whale.OutOfRange(v, 0, math.MaxInt)
		}
		vals[i] = uint64(v)
	}
	bm := roaring64.New()
	bm.AddMany(vals)
	return bm, nil
}

func fromBitmap(s IndexSet, bm *roaring64.Bitmap) *General {
	vals := bm.ToArray()
	out := make([]int, len(vals))
	for i, v := range vals {
		out[i] = int(v)
	}
	return &General{c: s.Comm(), idx: out}
}

// Difference returns the sorted indices of a that are not in b.
func Difference(a, b IndexSet) (*General, error) {
	x, err := toBitmap(a)
	if err != nil {
		return nil, fmt.Errorf("is: difference: %w", err)
	}
	y, err := toBitmap(b)
	if err != nil {
		return nil, fmt.Errorf("is: difference: %w", err)
	}
	x.AndNot(y)
	return fromBitmap(a, x), nil
}

// Sum returns the sorted union of two sorted sets.
func Sum(a, b IndexSet) (*General, error) {
	if !a.Sorted() || !b.Sorted() {
		return nil, fmt.Errorf("is: sum: inputs must be sorted: %w", whale.ErrInvalidArgument)
	}
	return union("sum", a, b)
}

// Expand returns the sorted union of a and b. Inputs need not be sorted.
func Expand(a, b IndexSet) (*General, error) {
	return union("expand", a, b)
}

func union(op string, a, b IndexSet) (*General, error) {
	x, err := toBitmap(a)
	if err != nil {
		return nil, fmt.Errorf("is: %s: %w", op, err)
	}
	y, err := toBitmap(b)
	if err != nil {
		return nil, fmt.Errorf("is: %s: %w", op, err)
	}
	x.Or(y)
	return fromBitmap(a, x), nil
}

// Complement returns the sorted indices of [nmin, nmax) that are not in s.
// Every index of s must lie in [nmin, nmax).
func Complement(s IndexSet, nmin, nmax int) (*General, error) {
	if nmin < 0 || nmax < nmin {
		return nil, fmt.Errorf("is: complement: range [%d, %d): %w", nmin, nmax, whale.ErrInvalidArgument)
	}
	if lo, hi, ok := s.MinMax(); ok {
		if lo < nmin {
			return nil, fmt.Errorf("is: complement: %w", whale.OutOfRange(lo, nmin, nmax))
		}
		if hi >= nmax {
			return nil, fmt.Errorf("is: complement: %w", whale.OutOfRange(hi, nmin, nmax))
		}
	}
	set, err := toBitmap(s)
	if err != nil {
		return nil, fmt.Errorf("is: complement: %w", err)
	}
	full := roaring64.New()
	full.AddRange(uint64(nmin), uint64(nmax))
	full.AndNot(set)
	return fromBitmap(s, full), nil
}
