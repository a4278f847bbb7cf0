package algo

import (
	"testing"

	"github.com/zer0main/npge/internal/model"
)

func anchorMeta(workers int) *Meta {
	return NewLocalMeta(map[string]interface{}{
		"WORKERS":       workers,
		"ANCHOR_SIZE":   5,
		"BLOOM_FP_RATE": 0.01,
	})
}

func runAnchors(t *testing.T, meta *Meta, texts []string,
	configure func(a *AnchorFinder)) *model.BlockSet {
	t.Helper()
	bs := model.NewBlockSet()
	for i, text := range texts {
		bs.AddSequence(model.NewSequence(
			"s"+string(rune('1'+i)), text, model.ASCIIStore))
	}
	a := NewAnchorFinder()
	a.SetMeta(meta)
	if configure != nil {
		configure(a)
	}
	a.SetBS("target", bs)
	if err := a.Run(); err != nil {
		t.Fatalf("anchor finder: %v", err)
	}
	return bs
}

func TestAnchorFinderMinimal(t *testing.T) {
	// GTCCG at 2..6 repeats as its reverse complement CGGAC at 9..13
	bs := runAnchors(t, anchorMeta(1), []string{"tgGTCCGagCGGACggcc"}, nil)
	if bs.Size() != 1 {
		t.Fatalf("found %d blocks, want 1", bs.Size())
	}
	b := bs.Blocks()[0]
	if b.Size() != 2 {
		t.Fatalf("block size = %d, want 2", b.Size())
	}
	f := b.Front()
	if s := f.Str(); s != "GTCCG" && s != "CGGAC" {
		t.Errorf("anchor text = %q, want GTCCG or CGGAC", s)
	}
	if f.Length() != 5 {
		t.Errorf("anchor length = %d, want 5", f.Length())
	}
}

func TestAnchorFinderPalindrome(t *testing.T) {
	meta := NewLocalMeta(map[string]interface{}{
		"WORKERS":       1,
		"ANCHOR_SIZE":   6,
		"BLOOM_FP_RATE": 0.01,
	})
	// ATGCAT is its own reverse complement
	tests := []struct {
		name        string
		elimination bool
		want        int
	}{
		{"elimination on", true, 0},
		{"elimination off", false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bs := runAnchors(t, meta, []string{"atgcat"},
				func(a *AnchorFinder) {
					a.SetOptValue("palindromes-elimination", tt.elimination)
				})
			if bs.Size() != tt.want {
				t.Errorf("found %d blocks, want %d", bs.Size(), tt.want)
			}
		})
	}
}

func TestAnchorFinderTandemRepeat(t *testing.T) {
	meta := NewLocalMeta(map[string]interface{}{
		"WORKERS":       1,
		"ANCHOR_SIZE":   3,
		"BLOOM_FP_RATE": 0.01,
	})
	// period-1 repeat: every AAA window overlaps the previous one
	bs := runAnchors(t, meta, []string{"aaaaa"}, func(a *AnchorFinder) {
		a.SetOptValue("palindromes-elimination", false)
	})
	if bs.Size() != 1 {
		t.Fatalf("found %d blocks, want 1", bs.Size())
	}
	b := bs.Blocks()[0]
	// AAA occurs at 0, 1 and 2; TTT never occurs
	count := 0
	for _, f := range b.Fragments() {
		if f.Ori() == 1 {
			count++
		}
	}
	if count != 3 {
		t.Errorf("%d forward occurrences, want 3", count)
	}
}

func TestAnchorFinderSuppressesN(t *testing.T) {
	bs := runAnchors(t, anchorMeta(1), []string{"tgGTNCGagCGNACggcc"}, nil)
	if bs.Size() != 0 {
		t.Errorf("found %d blocks in N-broken repeat, want 0", bs.Size())
	}
}

func TestAnchorFinderOnlyOri(t *testing.T) {
	// direct repeat GGTCCG at 1..6 and 8..13: its 5-mers GGTCC and
	// GTCCG each occur twice
	bs := runAnchors(t, anchorMeta(1), []string{"tgGTCCGagGTCCGggcc"},
		func(a *AnchorFinder) {
			a.SetOptValue("only-ori", 1)
		})
	if bs.Size() != 2 {
		t.Fatalf("found %d blocks, want 2", bs.Size())
	}
	for _, f := range bs.Blocks()[0].Fragments() {
		if f.Ori() != 1 {
			t.Errorf("only-ori=1 emitted a reverse fragment")
		}
	}
}

func TestAnchorFinderParallelDeterministic(t *testing.T) {
	texts := []string{"tgGTCCGagCGGACggccGTCCGtt", "ccGTCCGttaaCGGACca"}
	single := runAnchors(t, anchorMeta(1), texts, nil)
	multi := runAnchors(t, anchorMeta(4), texts, nil)
	if single.Size() != multi.Size() {
		t.Fatalf("worker counts disagree: %d vs %d blocks",
			single.Size(), multi.Size())
	}
	names := func(bs *model.BlockSet) map[string]int {
		m := make(map[string]int)
		for _, b := range bs.SortedBlocks() {
			m[b.CanonicalName()] = b.Size()
		}
		return m
	}
	n1, n2 := names(single), names(multi)
	for name, size := range n1 {
		if n2[name] != size {
			t.Errorf("block %s: size %d vs %d", name, size, n2[name])
		}
	}
}

func TestAnchorFinderCircularStraddle(t *testing.T) {
	// GTCCG straddles the origin of the circular sequence: the window
	// at position 8 wraps as GT + CCG; it occurs linearly in s2
	bs := model.NewBlockSet()
	s1 := model.NewSequence("s1", "CCGaatttGT", model.ASCIIStore)
	s1.SetCircular(true)
	s2 := model.NewSequence("s2", "aaGTCCGtt", model.ASCIIStore)
	bs.AddSequence(s1)
	bs.AddSequence(s2)
	a := NewAnchorFinder()
	a.SetMeta(anchorMeta(1))
	a.SetBS("target", bs)
	if err := a.Run(); err != nil {
		t.Fatalf("anchor finder: %v", err)
	}
	if bs.Size() != 1 {
		t.Fatalf("found %d blocks, want 1 (straddling anchor paired)", bs.Size())
	}
	b := bs.Blocks()[0]
	if b.Size() != 2 {
		t.Fatalf("block size = %d, want 2", b.Size())
	}
	var straddler *model.Fragment
	for _, f := range b.Fragments() {
		if f.Seq() == s1 {
			straddler = f
		}
	}
	if straddler == nil {
		t.Fatalf("no fragment on the circular sequence")
	}
	if straddler.MinPos() != 8 {
		t.Errorf("straddler starts at %d, want 8", straddler.MinPos())
	}
}
