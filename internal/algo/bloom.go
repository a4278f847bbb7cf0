package algo

import (
	"math"
	"sync/atomic"

	"github.com/zer0main/npge/internal/model"
)

// BloomFilter is a probabilistic membership filter over pre-computed
// 64-bit hashes. Bits are set with atomic compare-and-swap, so
// TestAndAdd never loses an insertion under concurrency: after a true
// insertion Test never reports false. Two racing TestAndAdd calls for
// the same hash may both return false, so TestAndAdd can under-report
// prior presence; Test after the insertions is unaffected.
type BloomFilter struct {
	words  []uint64
	bits   uint64
	params []uint64
}

// NewBloomFilter sizes the filter for the expected member count and
// the desired false-positive probability.
func NewBloomFilter(members int, errorProb float64) *BloomFilter {
	bits := OptimalBits(members, errorProb)
	hashes := OptimalHashes(members, bits)
	f := &BloomFilter{
		words: make([]uint64, (bits+63)/64),
		bits:  uint64(bits),
	}
	// derive per-hash odd multipliers from a splitmix stream
	x := uint64(0x2545F4914F6CDD1D)
	for i := 0; i < hashes; i++ {
		x += 0x9E3779B97F4A7C15
		z := x
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		f.params = append(f.params, z|1)
	}
	return f
}

// OptimalBits is ceil(-n ln p / (ln 2)^2), rounded up to the next odd
// integer; odd cardinality reduces collisions on symmetric hashes.
func OptimalBits(members int, errorProb float64) int {
	ln2 := math.Ln2
	bits := int(math.Ceil(-float64(members) * math.Log(errorProb) / (ln2 * ln2)))
	if bits < 1 {
		bits = 1
	}
	if bits%2 == 0 {
		bits++
	}
	return bits
}

// OptimalHashes is ceil((m/n) ln 2)
func OptimalHashes(members, bits int) int {
	if members < 1 {
		members = 1
	}
	hashes := int(math.Ceil(float64(bits) / float64(members) * math.Ln2))
	if hashes < 1 {
		hashes = 1
	}
	return hashes
}

// Bits returns the filter size in bits
func (f *BloomFilter) Bits() int { return int(f.bits) }

// Hashes returns the number of hash functions
func (f *BloomFilter) Hashes() int { return len(f.params) }

func (f *BloomFilter) index(i int, hash uint64) uint64 {
	return (hash * f.params[i]) % f.bits
}

func (f *BloomFilter) setBit(idx uint64) bool {
	word := &f.words[idx/64]
	mask := uint64(1) << (idx % 64)
	for {
		old := atomic.LoadUint64(word)
		if old&mask != 0 {
			return true
		}
		if atomic.CompareAndSwapUint64(word, old, old|mask) {
			return false
		}
	}
}

func (f *BloomFilter) testBit(idx uint64) bool {
	return atomic.LoadUint64(&f.words[idx/64])&(uint64(1)<<(idx%64)) != 0
}

// Add inserts a hash
func (f *BloomFilter) Add(hash uint64) {
	for i := range f.params {
		f.setBit(f.index(i, hash))
	}
}

// Test reports whether the hash is likely a member
func (f *BloomFilter) Test(hash uint64) bool {
	for i := range f.params {
		if !f.testBit(f.index(i, hash)) {
			return false
		}
	}
	return true
}

// TestAndAdd inserts the hash and reports whether it was likely
// already present.
func (f *BloomFilter) TestAndAdd(hash uint64) bool {
	was := true
	for i := range f.params {
		if !f.setBit(f.index(i, hash)) {
			was = false
		}
	}
	return was
}

// AddMember hashes a literal k-mer and inserts it; the hash is
// strand-canonical, so a member and its reverse complement coincide.
func (f *BloomFilter) AddMember(member string) {
	f.Add(model.HashString(member))
}

// TestMember reports whether the k-mer is likely a member
func (f *BloomFilter) TestMember(member string) bool {
	return f.Test(model.HashString(member))
}

// TestAndAddMember inserts a literal k-mer and reports prior presence
func (f *BloomFilter) TestAndAddMember(member string) bool {
	return f.TestAndAdd(model.HashString(member))
}

// TestAndAddFragment inserts a fragment's oriented text by its
// sequence hash.
func (f *BloomFilter) TestAndAddFragment(fragment *model.Fragment) bool {
	return f.TestAndAdd(fragment.Hash())
}

// TrueBits counts the set bits
func (f *BloomFilter) TrueBits() int {
	n := 0
	for i := range f.words {
		w := atomic.LoadUint64(&f.words[i])
		for ; w != 0; w &= w - 1 {
			n++
		}
	}
	return n
}
