package layout

// SplitOwnership returns the number of indices process rank receives when n
// indices are split evenly over p processes.
func SplitOwnership(n, p, rank int) int {
	share := n / p
	if rank < n%p {
		share++
	}
	return share
}

// Split returns the local sizes of an even split of n indices over p
// processes: n/p each, plus one for the first n%p.
func Split(n, p int) []int {
	sizes := make([]int, p)
	for r := range sizes {
		sizes[r] = SplitOwnership(n, p, r)
	}
	return sizes
}
