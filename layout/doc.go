// Package layout partitions a global index space [0, N) into contiguous
// per-process ownership ranges and resolves the owner of a global index.
//
// A Layout is configured with a local size, a global size, or both, and
// then finalized with the collective SetUp:
//
//	l, _ := layout.New(c)
//	_ = l.SetSize(10)
//	_ = l.SetUp(ctx)       // every rank of c must call this
//	lo, hi, _ := l.Range() // rank 1 of 3: [4, 7)
//
// When only N is given it is split evenly: every process gets N/P indices
// and the first N%P processes get one more. After SetUp the ranges satisfy
// ranges[0] == 0, ranges[P] == N, and ranges is non-decreasing.
//
// Owner resolution is a binary search over the P+1 boundaries. An index equal
// to a boundary belongs to the process whose range starts there; empty
// ranges are skipped.
package layout
