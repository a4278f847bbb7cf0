package model

import "testing"

func TestSequenceStores(t *testing.T) {
	text := "tgGTCCGagCGGACggcc"
	tests := []struct {
		name string
		kind StoreKind
	}{
		{"ascii", ASCIIStore},
		{"compact", CompactStore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSequence("s1", text, tt.kind)
			if s.Length() != len(text) {
				t.Fatalf("Length() = %d, want %d", s.Length(), len(text))
			}
			if got := s.Substr(0, s.Length(), 1); got != "TGGTCCGAGCGGACGGCC" {
				t.Errorf("Substr forward = %q", got)
			}
			if got := s.CharAt(2); got != 'G' {
				t.Errorf("CharAt(2) = %c, want G", got)
			}
		})
	}
}

func TestSequenceCompactN(t *testing.T) {
	s := NewSequence("s1", "ACNNNGTxNA", CompactStore)
	want := "ACNNNGTNNA"
	for i := 0; i < len(want); i++ {
		if got := s.CharAt(i); got != want[i] {
			t.Errorf("CharAt(%d) = %c, want %c", i, got, want[i])
		}
	}
}

func TestSequenceSubstrReverse(t *testing.T) {
	s := NewSequence("s1", "ACGTT", ASCIIStore)
	// reverse complement of ACGT read from position 3 leftwards
	if got := s.Substr(3, 4, -1); got != "ACGT" {
		t.Errorf("Substr(3, 4, -1) = %q, want ACGT", got)
	}
}

func TestComplement(t *testing.T) {
	pairs := map[byte]byte{'A': 'T', 'T': 'A', 'C': 'G', 'G': 'C', 'N': 'N'}
	for c, want := range pairs {
		if got := Complement(c); got != want {
			t.Errorf("Complement(%c) = %c, want %c", c, got, want)
		}
	}
	if got := ReverseComplement("GTCCG"); got != "CGGAC" {
		t.Errorf("ReverseComplement(GTCCG) = %q", got)
	}
}

func TestHashStrandSymmetry(t *testing.T) {
	s := NewSequence("s1", "TGGTCCGAGCGGACGGCC", ASCIIStore)
	for start := 0; start+5 <= s.Length(); start++ {
		fwd := s.Hash(start, 5, 1)
		rev := s.Hash(start+4, 5, -1)
		if fwd != rev {
			t.Errorf("Hash(%d, 5, 1) = %x, Hash(%d, 5, -1) = %x",
				start, fwd, start+4, rev)
		}
	}
}

func TestHashMatchesRepeat(t *testing.T) {
	// GTCCG at 2..6 and CGGAC at 9..13 are reverse complements
	s := NewSequence("s1", "tgGTCCGagCGGACggcc", ASCIIStore)
	h1 := s.Hash(2, 5, 1)
	h2 := s.Hash(9, 5, 1)
	if h1 != h2 {
		t.Errorf("canonical hashes differ: %x vs %x", h1, h2)
	}
}

func TestRollingHasher(t *testing.T) {
	s := NewSequence("s1", "TGGTCCGAGCGGACGGCCAN", ASCIIStore)
	const k = 6
	r := NewRollingHasher(k)
	r.Reset(s.Substr(0, k, 1))
	for start := 0; ; start++ {
		want := s.Hash(start, k, 1)
		if got := r.Hash(); got != want {
			t.Fatalf("rolling hash at %d = %x, want %x", start, got, want)
		}
		if start+k >= s.Length() {
			break
		}
		r.Roll(s.CharAt(start), s.CharAt(start+k))
	}
}

func TestHashStringAgrees(t *testing.T) {
	s := NewSequence("s1", "GTCCGAGCGG", ASCIIStore)
	if got, want := HashString(s.Substr(0, 10, 1)), s.Hash(0, 10, 1); got != want {
		t.Errorf("HashString = %x, Hash = %x", got, want)
	}
}
