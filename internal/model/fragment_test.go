package model

import "testing"

func TestFragmentPositions(t *testing.T) {
	s := NewSequence("s1", "TGGTCCGAGCGGACGGCC", ASCIIStore)
	tests := []struct {
		name      string
		ori       int
		wantBegin int
		wantLast  int
		wantEnd   int
		wantStr   string
	}{
		{"forward", 1, 2, 6, 7, "GTCCG"},
		{"reverse", -1, 6, 2, 1, "CGGAC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFragment(s, 2, 6, tt.ori)
			if f.Length() != 5 {
				t.Fatalf("Length() = %d, want 5", f.Length())
			}
			if f.BeginPos() != tt.wantBegin {
				t.Errorf("BeginPos() = %d, want %d", f.BeginPos(), tt.wantBegin)
			}
			if f.LastPos() != tt.wantLast {
				t.Errorf("LastPos() = %d, want %d", f.LastPos(), tt.wantLast)
			}
			if f.EndPos() != tt.wantEnd {
				t.Errorf("EndPos() = %d, want %d", f.EndPos(), tt.wantEnd)
			}
			if got := f.Str(); got != tt.wantStr {
				t.Errorf("Str() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestFragmentInverseTwice(t *testing.T) {
	s := NewSequence("s1", "TGGTCCGAGC", ASCIIStore)
	f := NewFragment(s, 2, 6, 1)
	row := NewRow(MapRowKind)
	row.Grow("GT-CCG")
	f.SetRow(row)
	before := f.RowStr()
	f.Inverse()
	f.Inverse()
	if f.Ori() != 1 {
		t.Fatalf("Ori() = %d after double inverse", f.Ori())
	}
	if f.Row() != row {
		t.Errorf("double inverse did not restore the original row")
	}
	if got := f.RowStr(); got != before {
		t.Errorf("RowStr() = %q, want %q", got, before)
	}
}

func TestFragmentInverseRow(t *testing.T) {
	s := NewSequence("s1", "TGGTCCGAGC", ASCIIStore)
	f := NewFragment(s, 2, 6, 1)
	row := NewRow(MapRowKind)
	row.Grow("GTCCG-")
	f.SetRow(row)
	f.Inverse()
	if got := f.Str(); got != "CGGAC" {
		t.Fatalf("Str() = %q, want CGGAC", got)
	}
	if got := f.RowStr(); got != "-CGGAC" {
		t.Errorf("RowStr() = %q, want -CGGAC", got)
	}
}

func TestFragmentSubFragment(t *testing.T) {
	s := NewSequence("s1", "TGGTCCGAGC", ASCIIStore)
	f := NewFragment(s, 2, 7, 1)
	sub := f.SubFragment(1, 3)
	if sub.MinPos() != 3 || sub.MaxPos() != 5 || sub.Ori() != 1 {
		t.Errorf("SubFragment(1, 3) = [%d, %d] ori %d",
			sub.MinPos(), sub.MaxPos(), sub.Ori())
	}
	rev := NewFragment(s, 2, 7, -1)
	sub = rev.SubFragment(1, 3)
	if sub.MinPos() != 4 || sub.MaxPos() != 6 || sub.Ori() != -1 {
		t.Errorf("reverse SubFragment(1, 3) = [%d, %d] ori %d",
			sub.MinPos(), sub.MaxPos(), sub.Ori())
	}
}

func TestFragmentCommonPositions(t *testing.T) {
	s := NewSequence("s1", "TGGTCCGAGCGGACGGCC", ASCIIStore)
	s2 := NewSequence("s2", "TGGTCCGAGCGGACGGCC", ASCIIStore)
	tests := []struct {
		name string
		a, b *Fragment
		want int
	}{
		{"disjoint", NewFragment(s, 0, 3, 1), NewFragment(s, 5, 8, 1), 0},
		{"touching", NewFragment(s, 0, 3, 1), NewFragment(s, 4, 8, 1), 0},
		{"partial", NewFragment(s, 0, 5, 1), NewFragment(s, 3, 8, 1), 3},
		{"contained", NewFragment(s, 0, 9, 1), NewFragment(s, 3, 5, -1), 3},
		{"other seq", NewFragment(s, 0, 5, 1), NewFragment(s2, 0, 5, 1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.CommonPositions(tt.b); got != tt.want {
				t.Errorf("CommonPositions = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFragmentDistTo(t *testing.T) {
	s := NewSequence("s1", "TGGTCCGAGCGGACGGCC", ASCIIStore)
	a := NewFragment(s, 1, 2, 1)
	b := NewFragment(s, 5, 6, 1)
	if got := a.DistTo(b); got != 2 {
		t.Errorf("DistTo = %d, want 2", got)
	}
	if got := b.DistTo(a); got != 2 {
		t.Errorf("reverse DistTo = %d, want 2", got)
	}
}

func TestFragmentIDRoundTrip(t *testing.T) {
	s := NewSequence("chr1", "TGGTCCGAGC", ASCIIStore)
	tests := []struct {
		name string
		f    *Fragment
		id   string
	}{
		{"forward", NewFragment(s, 2, 6, 1), "chr1_2_6"},
		{"reverse", NewFragment(s, 2, 6, -1), "chr1_6_2"},
		{"one base reverse at zero", NewFragment(s, 0, 0, -1), "chr1_0_-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.ID(); got != tt.id {
				t.Fatalf("ID() = %q, want %q", got, tt.id)
			}
			seqName, begin, last, err := ParseFragmentID(tt.id)
			if err != nil {
				t.Fatalf("ParseFragmentID: %v", err)
			}
			if seqName != "chr1" {
				t.Errorf("seq name = %q", seqName)
			}
			if begin != tt.f.BeginPos() {
				t.Errorf("begin = %d, want %d", begin, tt.f.BeginPos())
			}
			_ = last
		})
	}
}

func TestFragmentAlignmentAt(t *testing.T) {
	s := NewSequence("s1", "TGGTCCGAGC", ASCIIStore)
	f := NewFragment(s, 2, 6, 1) // GTCCG
	row := NewRow(MapRowKind)
	row.Grow("GT-CCG")
	f.SetRow(row)
	want := []byte{'G', 'T', 0, 'C', 'C', 'G'}
	for a, c := range want {
		if got := f.AlignmentAt(a); got != c {
			t.Errorf("AlignmentAt(%d) = %q, want %q", a, got, c)
		}
	}
}
