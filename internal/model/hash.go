package model

// Rolling polynomial hash over the DNA alphabet. Both strands are
// tracked so that a window and its reverse complement canonicalize to
// the same value. hashBase is odd, so it is invertible mod 2^64 and
// the reverse-strand accumulator can be rolled with a multiplication.

const hashBase uint64 = 0x100000001b3

// hashBaseInv * hashBase == 1 (mod 2^64)
var hashBaseInv = invertOdd(hashBase)

func invertOdd(b uint64) uint64 {
	x := b // 3 bits correct
	for i := 0; i < 5; i++ {
		x *= 2 - b*x
	}
	return x
}

func hashCode(c byte) uint64 {
	switch c {
	case 'A':
		return 1
	case 'C':
		return 2
	case 'G':
		return 3
	case 'T':
		return 4
	}
	// N contributes a fixed nonzero symbol
	return 5
}

func canonicalHash(fwd, rev uint64) uint64 {
	if rev < fwd {
		return rev
	}
	return fwd
}

// RollingHasher maintains forward and reverse-complement hashes of a
// sliding window of fixed length.
type RollingHasher struct {
	length int
	fwd    uint64
	rev    uint64
	topPow uint64
}

// NewRollingHasher returns an empty hasher for windows of the given length
func NewRollingHasher(length int) *RollingHasher {
	top := uint64(1)
	for i := 0; i < length-1; i++ {
		top *= hashBase
	}
	return &RollingHasher{length: length, topPow: top}
}

// Reset refills the window from text, which must have exactly the window length
func (r *RollingHasher) Reset(text string) {
	r.fwd = 0
	r.rev = 0
	pw := uint64(1)
	for i := 0; i < r.length; i++ {
		r.fwd = r.fwd*hashBase + hashCode(text[i])
		r.rev += hashCode(Complement(text[i])) * pw
		pw *= hashBase
	}
}

// Roll slides the window one base: out leaves on the left, in enters on the right
func (r *RollingHasher) Roll(out, in byte) {
	r.fwd = (r.fwd-hashCode(out)*r.topPow)*hashBase + hashCode(in)
	r.rev = (r.rev - hashCode(Complement(out))) * hashBaseInv
	r.rev += hashCode(Complement(in)) * r.topPow
}

// Hash returns the canonical (strand-independent) hash of the window
func (r *RollingHasher) Hash() uint64 {
	return canonicalHash(r.fwd, r.rev)
}

// Forward returns the forward-strand hash of the window
func (r *RollingHasher) Forward() uint64 { return r.fwd }

// HashString hashes an oriented text directly, without rolling
func HashString(text string) uint64 {
	var fwd, rev uint64
	pw := uint64(1)
	for i := 0; i < len(text); i++ {
		fwd = fwd*hashBase + hashCode(text[i])
		rev += hashCode(Complement(text[i])) * pw
		pw *= hashBase
	}
	return canonicalHash(fwd, rev)
}
