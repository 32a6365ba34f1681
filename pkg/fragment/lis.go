package fragment

// longestIncreasing returns the indices (into seq) of one longest strictly
// increasing subsequence of seq. Entries equal to -1 are skipped: they mark
// newly created items that have no previous position.
//
// Retained list members whose previous positions form an increasing run are
// already in relative order and need no surface move; only members outside
// the subsequence are moved.
func longestIncreasing(seq []int) []int {
	if len(seq) == 0 {
		return nil
	}

	// tails[k] = index into seq of the smallest tail of an increasing
	// subsequence of length k+1; parent chains recover the sequence.
	tails := make([]int, 0, len(seq))
	parent := make([]int, len(seq))

	for i, v := range seq {
		if v < 0 {
			continue
		}
		lo, hi := 0, len(tails)
		for lo < hi {
			mid := (lo + hi) / 2
			if seq[tails[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo > 0 {
			parent[i] = tails[lo-1]
		} else {
			parent[i] = -1
		}
		if lo == len(tails) {
			tails = append(tails, i)
		} else {
			tails[lo] = i
		}
	}

	if len(tails) == 0 {
		return nil
	}
	out := make([]int, len(tails))
	k := tails[len(tails)-1]
	for i := len(tails) - 1; i >= 0; i-- {
		out[i] = k
		k = parent[k]
	}
	return out
}
