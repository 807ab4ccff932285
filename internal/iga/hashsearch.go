package iga

// hashSearch locates hash h within entries (sorted ascending by hash),
// exploiting that hashes are distributed roughly uniformly over [0, 2^32):
// dividing by divider approximates the entry's position, and slop bounds
// the approximation error. Duplicate hashes resolve to the lowest index
// satisfying the condition (property 4 in the testable-properties list).
func hashSearch(entries []FileInfo, divider, slop, h uint32) (int, bool) {
	n := uint32(len(entries))
	if n == 0 || divider == 0 {
		return 0, false
	}

	q := h / divider

	var lo uint32
	if q > slop {
		lo = q - slop
	}
	hi := q + slop + 1
	if hi > n {
		hi = n
	}
	if lo >= hi {
		return 0, false
	}

	// Branchless lower-bound bisection within [lo, hi).
	width := hi - lo
	for width > 0 {
		half := width / 2
		mid := lo + half
		if entries[mid].Hash < h {
			lo = mid + 1
			width -= half + 1
		} else {
			width = half
		}
	}

	if lo < n && entries[lo].Hash == h {
		return int(lo), true
	}
	return 0, false
}
