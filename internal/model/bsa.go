package model

// BSARef is one cell of a block-set alignment: an oriented block
// occurrence on a sequence, or a gap (nil block).
type BSARef struct {
	Block *Block
	Ori   int
}

// IsGap reports whether the cell is a gap
func (r BSARef) IsGap() bool { return r.Block == nil }

// BSARow is one sequence's row in a block-set alignment
type BSARow struct {
	Seq  *Sequence
	Refs []BSARef
}

// BSA is a second-level alignment: per sequence, a column-aligned
// list of oriented block references.
type BSA struct {
	Rows []*BSARow
}

// NewBSA returns an empty block-set alignment
func NewBSA() *BSA {
	return &BSA{}
}

// Length is the number of columns, 0 for an empty alignment
func (a *BSA) Length() int {
	if len(a.Rows) == 0 {
		return 0
	}
	return len(a.Rows[0].Refs)
}

// RowBySeq finds a row, nil if the sequence has none
func (a *BSA) RowBySeq(seq *Sequence) *BSARow {
	for _, row := range a.Rows {
		if row.Seq == seq {
			return row
		}
	}
	return nil
}

// AddRow appends a row; all rows must share one length
func (a *BSA) AddRow(row *BSARow) {
	Assert(len(a.Rows) == 0 || len(row.Refs) == a.Length(),
		"BSA rows must have equal length")
	a.Rows = append(a.Rows, row)
}

// Clone copies the alignment structure; blocks are shared
func (a *BSA) Clone() *BSA {
	c := NewBSA()
	for _, row := range a.Rows {
		c.Rows = append(c.Rows, &BSARow{
			Seq:  row.Seq,
			Refs: append([]BSARef(nil), row.Refs...),
		})
	}
	return c
}
