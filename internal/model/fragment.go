package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Fragment is an oriented interval of a sequence. minPos <= maxPos
// regardless of orientation; begin/last/end positions depend on it.
// A fragment belongs to at most one block and owns at most one
// alignment row.
type Fragment struct {
	seq    *Sequence
	minPos int
	maxPos int
	ori    int

	// block is a non-owning back-reference, maintained by Block
	block *Block

	row Row
}

// NewFragment creates a fragment of seq covering [minPos, maxPos]
func NewFragment(seq *Sequence, minPos, maxPos, ori int) *Fragment {
	return &Fragment{seq: seq, minPos: minPos, maxPos: maxPos, ori: ori}
}

func (f *Fragment) Seq() *Sequence { return f.seq }
func (f *Fragment) MinPos() int    { return f.minPos }
func (f *Fragment) MaxPos() int    { return f.maxPos }
func (f *Fragment) Ori() int       { return f.ori }
func (f *Fragment) Block() *Block  { return f.block }
func (f *Fragment) Row() Row       { return f.row }

func (f *Fragment) SetMinPos(minPos int) { f.minPos = minPos }
func (f *Fragment) SetMaxPos(maxPos int) { f.maxPos = maxPos }

// Length is the number of covered bases
func (f *Fragment) Length() int { return f.maxPos - f.minPos + 1 }

// AlignmentLength is the row length, or the fragment length if unaligned
func (f *Fragment) AlignmentLength() int {
	if f.row != nil {
		return f.row.Length()
	}
	return f.Length()
}

// BeginPos is the first position read in fragment orientation
func (f *Fragment) BeginPos() int {
	if f.ori == 1 {
		return f.minPos
	}
	return f.maxPos
}

// LastPos is the last position read in fragment orientation
func (f *Fragment) LastPos() int {
	if f.ori == 1 {
		return f.maxPos
	}
	return f.minPos
}

// EndPos is one step past LastPos in fragment orientation
func (f *Fragment) EndPos() int {
	if f.ori == 1 {
		return f.maxPos + 1
	}
	return f.minPos - 1
}

// SetBeginLast sets the interval from oriented endpoints; orientation
// follows from their order.
func (f *Fragment) SetBeginLast(beginPos, lastPos int) {
	if beginPos <= lastPos {
		f.minPos = beginPos
		f.maxPos = lastPos
		f.ori = 1
	} else {
		f.maxPos = beginPos
		f.minPos = lastPos
		f.ori = -1
	}
}

// SetOri flips the row together with orientation: an InversedRow
// unwraps back to its source, any other row gets wrapped.
func (f *Fragment) SetOri(ori int) {
	Assert(ori == 1 || ori == -1, "fragment ori must be +1 or -1")
	if ori == -f.ori && f.row != nil {
		if inv, ok := f.row.(*InversedRow); ok {
			src := inv.Source()
			f.row = src
			src.setFragment(f)
		} else {
			old := f.row
			old.setFragment(nil)
			f.row = NewInversedRow(old, f.Length())
			f.row.setFragment(f)
		}
	}
	f.ori = ori
}

// Inverse flips the fragment to the other strand
func (f *Fragment) Inverse() {
	f.SetOri(-f.ori)
}

// SetRow replaces the fragment's row
func (f *Fragment) SetRow(row Row) {
	if f.row != nil && f.row != row {
		f.row.setFragment(nil)
	}
	f.row = row
	if row != nil {
		row.setFragment(f)
	}
}

// DetachRow removes and returns the row without destroying it
func (f *Fragment) DetachRow() Row {
	row := f.row
	if row != nil {
		row.setFragment(nil)
		f.row = nil
	}
	return row
}

// Valid reports whether the interval lies on the sequence
func (f *Fragment) Valid() bool {
	return f.minPos <= f.maxPos && f.maxPos < f.seq.Length()
}

// RawAt returns the base at oriented position pos, complemented on
// the reverse strand.
func (f *Fragment) RawAt(pos int) byte {
	c := f.seq.CharAt(f.BeginPos() + f.ori*pos)
	if f.ori == -1 {
		c = Complement(c)
	}
	return c
}

// At is RawAt with python-style negative indexing
func (f *Fragment) At(pos int) byte {
	if pos < 0 {
		pos += f.Length()
	}
	return f.RawAt(pos)
}

// AlignmentAt returns the base at an alignment column, 0 for gaps
func (f *Fragment) AlignmentAt(alignPos int) byte {
	pos := alignPos
	if f.row != nil {
		pos = f.row.MapToFragment(alignPos)
	}
	if pos >= 0 && pos < f.Length() {
		return f.RawAt(pos)
	}
	return 0
}

// Str returns the oriented text of the fragment, ungapped
func (f *Fragment) Str() string {
	return f.seq.Substr(f.BeginPos(), f.Length(), f.ori)
}

// RowStr returns the aligned text with gap characters, or the plain
// text if the fragment has no row.
func (f *Fragment) RowStr() string {
	if f.row == nil {
		return f.Str()
	}
	var b strings.Builder
	b.Grow(f.row.Length())
	for a := 0; a < f.row.Length(); a++ {
		pos := f.row.MapToFragment(a)
		if pos == -1 {
			b.WriteByte('-')
		} else {
			b.WriteByte(f.RawAt(pos))
		}
	}
	return b.String()
}

// Substr returns oriented fragment text in [min, max]; negative
// indices count from the end.
func (f *Fragment) Substr(min, max int) string {
	if min < 0 {
		min += f.Length()
	}
	if max < 0 {
		max += f.Length()
	}
	return f.seq.Substr(f.BeginPos()+f.ori*min, max-min+1, f.ori)
}

// SubFragment returns a new fragment covering oriented positions
// [from, to] of this one; from > to inverts the result.
func (f *Fragment) SubFragment(from, to int) *Fragment {
	inverse := from > to
	if inverse {
		from, to = to, from
	}
	sub := NewFragment(f.seq, 0, 0, f.ori)
	sub.SetBeginLast(f.BeginPos()+f.ori*from, f.BeginPos()+f.ori*to)
	sub.ori = f.ori
	if inverse {
		sub.Inverse()
	}
	return sub
}

// Clone copies the fragment and its row; block membership is not copied
func (f *Fragment) Clone() *Fragment {
	c := NewFragment(f.seq, f.minPos, f.maxPos, f.ori)
	if f.row != nil {
		c.SetRow(f.row.Clone())
	}
	return c
}

// Hash returns the strand-canonical hash of the fragment's text
func (f *Fragment) Hash() uint64 {
	return f.seq.Hash(f.BeginPos(), f.Length(), f.ori)
}

// ID formats the fragment as SEQ_BEGIN_LAST. A one-base reverse
// fragment writes its last pos as -1 to keep the orientation
// recoverable.
func (f *Fragment) ID() string {
	a := f.BeginPos()
	b := f.LastPos()
	if a == b && f.ori == -1 {
		b = -1
	}
	return f.seq.Name() + "_" + strconv.Itoa(a) + "_" + strconv.Itoa(b)
}

// Has reports whether a sequence position falls inside the interval
func (f *Fragment) Has(pos int) bool {
	return f.minPos <= pos && pos <= f.maxPos
}

// CommonPositions counts sequence positions shared with other
func (f *Fragment) CommonPositions(other *Fragment) int {
	if f.seq != other.seq {
		return 0
	}
	maxMin := f.minPos
	if other.minPos > maxMin {
		maxMin = other.minPos
	}
	minMax := f.maxPos
	if other.maxPos < minMax {
		minMax = other.maxPos
	}
	if maxMin > minMax {
		return 0
	}
	return minMax - maxMin + 1
}

// CommonFragment returns the shared interval in this fragment's
// orientation, nil if the fragments do not overlap.
func (f *Fragment) CommonFragment(other *Fragment) *Fragment {
	if f.CommonPositions(other) == 0 {
		return nil
	}
	maxMin := f.minPos
	if other.minPos > maxMin {
		maxMin = other.minPos
	}
	minMax := f.maxPos
	if other.maxPos < minMax {
		minMax = other.maxPos
	}
	return NewFragment(f.seq, maxMin, minMax, f.ori)
}

// IsSubfragmentOf reports whether this interval lies inside other
func (f *Fragment) IsSubfragmentOf(other *Fragment) bool {
	return f.seq == other.seq &&
		f.minPos >= other.minPos && f.maxPos <= other.maxPos
}

// DistTo is the number of bases between the fragments, 0 if they touch
// or overlap. Both fragments must live on the same sequence.
func (f *Fragment) DistTo(other *Fragment) int {
	Assert(f.seq == other.seq, "dist_to requires one sequence")
	if f.CommonPositions(other) > 0 {
		return 0
	}
	if f.Less(other) {
		return other.minPos - f.maxPos - 1
	}
	return f.minPos - other.maxPos - 1
}

// Equal compares coordinates, orientation and sequence
func (f *Fragment) Equal(other *Fragment) bool {
	return f.minPos == other.minPos && f.maxPos == other.maxPos &&
		f.ori == other.ori && f.seq == other.seq
}

// Less orders fragments by (minPos, maxPos, ori, sequence name)
func (f *Fragment) Less(other *Fragment) bool {
	if f.minPos != other.minPos {
		return f.minPos < other.minPos
	}
	if f.maxPos != other.maxPos {
		return f.maxPos < other.maxPos
	}
	if f.ori != other.ori {
		return f.ori < other.ori
	}
	return f.seq.Name() < other.seq.Name()
}

func (f *Fragment) String() string {
	return fmt.Sprintf("%s ori=%d", f.ID(), f.ori)
}

// ParseFragmentID splits SEQ_BEGIN_LAST back into its components
func ParseFragmentID(id string) (seqName string, begin, last int, err error) {
	u2 := strings.LastIndexByte(id, '_')
	if u2 <= 0 {
		return "", 0, 0, fmt.Errorf("bad fragment id %q", id)
	}
	u1 := strings.LastIndexByte(id[:u2], '_')
	if u1 <= 0 {
		return "", 0, 0, fmt.Errorf("bad fragment id %q", id)
	}
	begin, err = strconv.Atoi(id[u1+1 : u2])
	if err != nil {
		return "", 0, 0, fmt.Errorf("bad fragment id %q: %v", id, err)
	}
	last, err = strconv.Atoi(id[u2+1:])
	if err != nil {
		return "", 0, 0, fmt.Errorf("bad fragment id %q: %v", id, err)
	}
	return id[:u1], begin, last, nil
}
