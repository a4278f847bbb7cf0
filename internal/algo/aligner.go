package algo

import (
	"strings"

	"github.com/zer0main/npge/internal/model"
)

// Aligner turns equal-rank sequences into gapped rows of one length.
// External alignment tools satisfy this interface behind process
// wrappers; SimilarAligner is the built-in fallback.
type Aligner interface {
	// AlignSeqs replaces seqs with gapped rows of equal length
	AlignSeqs(seqs []string) []string
}

// SimilarAligner aligns near-identical sequences: a shared prefix and
// suffix are matched verbatim and the middles go through
// Needleman-Wunsch against the first sequence, center-star merged.
type SimilarAligner struct{}

func (SimilarAligner) AlignSeqs(seqs []string) []string {
	if len(seqs) == 0 {
		return seqs
	}
	allEqual := true
	for _, s := range seqs[1:] {
		if s != seqs[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		return seqs
	}
	prefix := commonPrefix(seqs)
	suffix := commonSuffix(seqs, prefix)
	middles := make([]string, len(seqs))
	for i, s := range seqs {
		middles[i] = s[prefix : len(s)-suffix]
	}
	aligned := centerStar(middles)
	out := make([]string, len(seqs))
	for i, s := range seqs {
		out[i] = s[:prefix] + aligned[i] + s[len(s)-suffix:]
	}
	return out
}

func commonPrefix(seqs []string) int {
	n := len(seqs[0])
	for _, s := range seqs[1:] {
		if len(s) < n {
			n = len(s)
		}
	}
	for i := 0; i < n; i++ {
		for _, s := range seqs[1:] {
			if s[i] != seqs[0][i] {
				return i
			}
		}
	}
	return n
}

func commonSuffix(seqs []string, prefix int) int {
	n := len(seqs[0]) - prefix
	for _, s := range seqs[1:] {
		if len(s)-prefix < n {
			n = len(s) - prefix
		}
	}
	for i := 0; i < n; i++ {
		for _, s := range seqs[1:] {
			if s[len(s)-1-i] != seqs[0][len(seqs[0])-1-i] {
				return i
			}
		}
	}
	return n
}

// nwPair aligns a against b with unit costs and returns the two
// gapped rows.
func nwPair(a, b string) (string, string) {
	rows, cols := len(a)+1, len(b)+1
	dp := make([]int, rows*cols)
	at := func(r, c int) *int { return &dp[r*cols+c] }
	for r := 1; r < rows; r++ {
		*at(r, 0) = r
	}
	for c := 1; c < cols; c++ {
		*at(0, c) = c
	}
	for r := 1; r < rows; r++ {
		for c := 1; c < cols; c++ {
			sub := *at(r-1, c-1)
			if a[r-1] != b[c-1] {
				sub++
			}
			if up := *at(r-1, c) + 1; up < sub {
				sub = up
			}
			if left := *at(r, c-1) + 1; left < sub {
				sub = left
			}
			*at(r, c) = sub
		}
	}
	var ra, rb []byte
	r, c := len(a), len(b)
	for r > 0 || c > 0 {
		switch {
		case r > 0 && c > 0 && *at(r, c) == *at(r-1, c-1)+mismatch(a[r-1], b[c-1]):
			ra = append(ra, a[r-1])
			rb = append(rb, b[c-1])
			r--
			c--
		case r > 0 && *at(r, c) == *at(r-1, c)+1:
			ra = append(ra, a[r-1])
			rb = append(rb, '-')
			r--
		default:
			ra = append(ra, '-')
			rb = append(rb, b[c-1])
			c--
		}
	}
	reverseBytes(ra)
	reverseBytes(rb)
	return string(ra), string(rb)
}

func mismatch(x, y byte) int {
	if x == y {
		return 0
	}
	return 1
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// centerStar merges pairwise alignments against the first sequence
// into one multi-row alignment.
func centerStar(seqs []string) []string {
	if len(seqs) < 2 {
		return seqs
	}
	master := seqs[0]
	rows := []string{master}
	for _, s := range seqs[1:] {
		refRow, newRow := nwPair(ungap(master), s)
		// re-introduce gaps the master already carries
		master, rows = mergeRows(master, rows, refRow, newRow)
	}
	return rows
}

func ungap(s string) string {
	return strings.ReplaceAll(s, "-", "")
}

// mergeRows reconciles the existing master gapping with the fresh
// pairwise alignment of the ungapped master.
func mergeRows(master string, rows []string, refRow, newRow string) (string, []string) {
	var outMaster []byte
	outRows := make([][]byte, len(rows))
	var outNew []byte
	i, j := 0, 0 // i over master, j over refRow
	for i < len(master) || j < len(refRow) {
		masterGap := i < len(master) && master[i] == '-'
		refGap := j < len(refRow) && refRow[j] == '-'
		switch {
		case i < len(master) && masterGap:
			outMaster = append(outMaster, '-')
			for k, row := range rows {
				outRows[k] = append(outRows[k], row[i])
			}
			outNew = append(outNew, '-')
			i++
		case j < len(refRow) && refGap:
			outMaster = append(outMaster, '-')
			for k := range rows {
				outRows[k] = append(outRows[k], '-')
			}
			outNew = append(outNew, newRow[j])
			j++
		default:
			outMaster = append(outMaster, master[i])
			for k, row := range rows {
				outRows[k] = append(outRows[k], row[i])
			}
			outNew = append(outNew, newRow[j])
			i++
			j++
		}
	}
	result := make([]string, 0, len(rows)+1)
	for _, row := range outRows {
		result = append(result, string(row))
	}
	result = append(result, string(outNew))
	return string(outMaster), result
}

// Align is the processor that gives every block of the target
// alignment rows.
type Align struct {
	*BlocksJob
	aligner Aligner
}

// NewAlign builds the align step with the built-in aligner
func NewAlign() *Align {
	a := &Align{BlocksJob: NewBlocksJob("align"), aligner: SimilarAligner{}}
	a.AddOpt("row-type", "Alignment row storage: map or compact", "compact")
	a.ProcessBlock = a.processBlock
	return a
}

// SetAligner swaps the alignment backend
func (a *Align) SetAligner(al Aligner) { a.aligner = al }

func (a *Align) rowKind() model.RowKind {
	if a.OptString("row-type") == "map" {
		return model.MapRowKind
	}
	return model.CompactRowKind
}

func alignmentNeeded(b *model.Block) bool {
	if b.Empty() {
		return false
	}
	return !b.HasRows()
}

func (a *Align) processBlock(b *model.Block, _ interface{}) error {
	AlignBlock(b, a.aligner, a.rowKind())
	return nil
}

// AlignBlock aligns one block in place. Single-fragment blocks get
// identity rows.
func AlignBlock(b *model.Block, aligner Aligner, kind model.RowKind) {
	if !alignmentNeeded(b) {
		return
	}
	fragments := b.SortedFragments()
	texts := make([]string, len(fragments))
	for i, f := range fragments {
		texts[i] = f.Str()
	}
	rows := aligner.AlignSeqs(texts)
	for i, f := range fragments {
		row := model.NewRow(kind)
		row.Grow(rows[i])
		f.SetRow(row)
	}
}
