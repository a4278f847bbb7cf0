package algo

import (
	"testing"

	"github.com/zer0main/npge/internal/model"
)

func TestSimilarAlignerIdentical(t *testing.T) {
	got := SimilarAligner{}.AlignSeqs([]string{"ACGT", "ACGT", "ACGT"})
	for _, row := range got {
		if row != "ACGT" {
			t.Errorf("identical input changed: %v", got)
		}
	}
}

func TestSimilarAlignerGap(t *testing.T) {
	got := SimilarAligner{}.AlignSeqs([]string{"AT", "T"})
	if got[0] != "AT" || got[1] != "-T" {
		t.Errorf("AlignSeqs = %v, want [AT -T]", got)
	}
}

func TestSimilarAlignerMismatch(t *testing.T) {
	got := SimilarAligner{}.AlignSeqs([]string{"ACGT", "AGGT"})
	if len(got[0]) != len(got[1]) {
		t.Fatalf("row lengths differ: %v", got)
	}
	if got[0] != "ACGT" || got[1] != "AGGT" {
		t.Errorf("AlignSeqs = %v, want substitution kept in place", got)
	}
}

func TestSimilarAlignerThreeRows(t *testing.T) {
	got := SimilarAligner{}.AlignSeqs([]string{"ACGTT", "ACTT", "ACGTT"})
	length := len(got[0])
	for _, row := range got {
		if len(row) != length {
			t.Fatalf("row lengths differ: %v", got)
		}
	}
	for i, row := range got {
		if ungap(row) != []string{"ACGTT", "ACTT", "ACGTT"}[i] {
			t.Errorf("row %d lost bases: %q", i, row)
		}
	}
}

func TestAlignBlockSingleFragment(t *testing.T) {
	seq := model.NewSequence("s1", "ACGTACGT", model.ASCIIStore)
	b := model.NewBlock()
	f := model.NewFragment(seq, 0, 3, 1)
	b.Insert(f)
	AlignBlock(b, SimilarAligner{}, model.CompactRowKind)
	if f.Row() == nil {
		t.Fatalf("single fragment not given a row")
	}
	// identity row: every position maps to its own column
	if f.Row().Length() != 4 {
		t.Errorf("row length = %d, want 4", f.Row().Length())
	}
	for i := 0; i < 4; i++ {
		if f.Row().MapToAlignment(i) != i {
			t.Errorf("identity row broken at %d", i)
		}
	}
}

func TestAlignProcessor(t *testing.T) {
	bs := model.NewBlockSet()
	s1 := model.NewSequence("s1", "ACGTACGT", model.ASCIIStore)
	s2 := model.NewSequence("s2", "ACTACGTT", model.ASCIIStore)
	bs.AddSequence(s1)
	bs.AddSequence(s2)
	b := model.NewBlock()
	b.Insert(model.NewFragment(s1, 0, 6, 1))
	b.Insert(model.NewFragment(s2, 0, 5, 1))
	bs.Insert(b)
	a := NewAlign()
	a.SetMeta(NewLocalMeta(map[string]interface{}{"WORKERS": 1}))
	if err := a.Apply(bs); err != nil {
		t.Fatalf("align: %v", err)
	}
	if !b.HasRows() {
		t.Fatalf("block not aligned")
	}
	length := b.AlignmentLength()
	for _, f := range b.Fragments() {
		if f.Row().Length() != length {
			t.Errorf("row lengths differ after alignment")
		}
	}
}
