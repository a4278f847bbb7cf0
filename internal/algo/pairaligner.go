package algo

// PairAligner is a banded Needleman-Wunsch variant used for greedy
// expansion. Mismatches cost 1, gaps cost gapPenalty, and only states
// within gapRange of the main diagonal are considered. The table is
// kept flat and reused across calls.
type PairAligner struct {
	maxErrors  int
	gapRange   int
	gapPenalty int

	table []int
	cols  int
}

// NewPairAligner configures the aligner; see the expander options for
// the meaning of the parameters.
func NewPairAligner(maxErrors, gapRange, gapPenalty int) *PairAligner {
	return &PairAligner{
		maxErrors:  maxErrors,
		gapRange:   gapRange,
		gapPenalty: gapPenalty,
	}
}

const bigCost = 1 << 29

func (pa *PairAligner) at(r, c int) *int {
	return &pa.table[r*pa.cols+c]
}

// fill computes the banded cost table for s1 (rows) and s2 (columns)
func (pa *PairAligner) fill(s1, s2 string) {
	rows, cols := len(s1)+1, len(s2)+1
	pa.cols = cols
	need := rows * cols
	if cap(pa.table) < need {
		pa.table = make([]int, need)
	}
	pa.table = pa.table[:need]
	for i := range pa.table {
		pa.table[i] = bigCost
	}
	*pa.at(0, 0) = 0
	for r := 1; r < rows; r++ {
		if r <= pa.gapRange {
			*pa.at(r, 0) = r * pa.gapPenalty
		}
	}
	for c := 1; c < cols; c++ {
		if c <= pa.gapRange {
			*pa.at(0, c) = c * pa.gapPenalty
		}
	}
	for r := 1; r < rows; r++ {
		lo := r - pa.gapRange
		if lo < 1 {
			lo = 1
		}
		hi := r + pa.gapRange
		if hi > cols-1 {
			hi = cols - 1
		}
		for c := lo; c <= hi; c++ {
			sub := *pa.at(r-1, c-1)
			if s1[r-1] != s2[c-1] {
				sub++
			}
			if up := *pa.at(r-1, c) + pa.gapPenalty; up < sub {
				sub = up
			}
			if left := *pa.at(r, c-1) + pa.gapPenalty; left < sub {
				sub = left
			}
			*pa.at(r, c) = sub
		}
	}
}

// Aligned reports whether the two strings align completely within the
// error budget.
func (pa *PairAligner) Aligned(s1, s2 string) bool {
	if len(s1) == 0 && len(s2) == 0 {
		return true
	}
	pa.fill(s1, s2)
	return *pa.at(len(s1), len(s2)) <= pa.maxErrors
}

// AlignedPrefix finds the longest pair of prefixes alignable within
// the error budget and returns their last positions (-1 when nothing
// aligns). Trailing mismatches are cut so the reported prefixes end
// on a match.
func (pa *PairAligner) AlignedPrefix(s1, s2 string) (ok bool, first, second int) {
	if len(s1) == 0 || len(s2) == 0 {
		return false, -1, -1
	}
	pa.fill(s1, s2)
	bestR, bestC := 0, 0
	for r := 0; r <= len(s1); r++ {
		lo := r - pa.gapRange
		if lo < 0 {
			lo = 0
		}
		hi := r + pa.gapRange
		if hi > len(s2) {
			hi = len(s2)
		}
		for c := lo; c <= hi; c++ {
			if *pa.at(r, c) > pa.maxErrors {
				continue
			}
			if r+c > bestR+bestC {
				bestR, bestC = r, c
			}
		}
	}
	// cut the tail back to the last matching pair
	for bestR > 0 && bestC > 0 && s1[bestR-1] != s2[bestC-1] {
		bestR--
		bestC--
	}
	if bestR == 0 || bestC == 0 {
		return false, -1, -1
	}
	return true, bestR - 1, bestC - 1
}
