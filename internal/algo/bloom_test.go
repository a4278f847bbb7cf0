package algo

import (
	"sync"
	"testing"
)

func TestBloomOptimalBits(t *testing.T) {
	tests := []struct {
		members int
		prob    float64
	}{
		{100, 0.01},
		{1000, 0.001},
		{1, 0.5},
	}
	for _, tt := range tests {
		bits := OptimalBits(tt.members, tt.prob)
		if bits%2 != 1 {
			t.Errorf("OptimalBits(%d, %v) = %d, want odd", tt.members, tt.prob, bits)
		}
	}
	// m = ceil(-100 ln(0.01) / ln(2)^2) = 959, already odd
	if got := OptimalBits(100, 0.01); got != 959 {
		t.Errorf("OptimalBits(100, 0.01) = %d, want 959", got)
	}
}

func TestBloomOptimalHashes(t *testing.T) {
	// k = ceil((959/100) ln 2) = 7
	if got := OptimalHashes(100, 959); got != 7 {
		t.Errorf("OptimalHashes(100, 959) = %d, want 7", got)
	}
}

func TestBloomNoFalseNegatives(t *testing.T) {
	f := NewBloomFilter(1000, 0.01)
	hashes := make([]uint64, 1000)
	x := uint64(1)
	for i := range hashes {
		x = x*6364136223846793005 + 1442695040888963407
		hashes[i] = x
	}
	for _, h := range hashes {
		f.Add(h)
	}
	for _, h := range hashes {
		if !f.Test(h) {
			t.Fatalf("false negative for %x", h)
		}
	}
}

func TestBloomTestAndAdd(t *testing.T) {
	f := NewBloomFilter(100, 0.01)
	if f.TestAndAdd(42) {
		t.Errorf("first TestAndAdd returned true")
	}
	if !f.TestAndAdd(42) {
		t.Errorf("second TestAndAdd returned false")
	}
	if !f.Test(42) {
		t.Errorf("Test after TestAndAdd returned false")
	}
}

func TestBloomMemberOverloads(t *testing.T) {
	f := NewBloomFilter(100, 0.01)
	if f.TestAndAddMember("GTCCG") {
		t.Errorf("first member insert reported present")
	}
	if !f.TestMember("GTCCG") {
		t.Errorf("member not found after insert")
	}
	// strand-canonical hashing: the reverse complement coincides
	if !f.TestMember("CGGAC") {
		t.Errorf("reverse complement not found after insert")
	}
}

func TestBloomConcurrentNoUndercount(t *testing.T) {
	f := NewBloomFilter(10000, 0.01)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			x := uint64(w + 1)
			for i := 0; i < 5000; i++ {
				x = x*6364136223846793005 + 1442695040888963407
				f.Add(x % 4096)
			}
		}(w)
	}
	wg.Wait()
	// every inserted value must test positive
	for w := 0; w < 8; w++ {
		x := uint64(w + 1)
		for i := 0; i < 5000; i++ {
			x = x*6364136223846793005 + 1442695040888963407
			if !f.Test(x % 4096) {
				t.Fatalf("false negative after concurrent inserts")
			}
		}
	}
}
