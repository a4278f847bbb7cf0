package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash"
)

// Block is an unordered group of fragments asserted pairwise
// homologous. The block owns its fragments: erasing a fragment from
// its block drops it, and fragments join or leave blocks only through
// the block's interface, which keeps the back-reference current.
type Block struct {
	name      string
	fragments []*Fragment

	// weak blocks are ineligible for joining
	weak bool
}

// NewBlock returns an empty block
func NewBlock() *Block {
	return &Block{}
}

func (b *Block) Name() string        { return b.name }
func (b *Block) SetName(name string) { b.name = name }
func (b *Block) Weak() bool          { return b.weak }
func (b *Block) SetWeak(weak bool)   { b.weak = weak }
func (b *Block) Size() int           { return len(b.fragments) }
func (b *Block) Empty() bool         { return len(b.fragments) == 0 }

// Fragments returns the block's fragments; the slice must not be mutated
func (b *Block) Fragments() []*Fragment { return b.fragments }

// Front returns an arbitrary fragment, nil for an empty block
func (b *Block) Front() *Fragment {
	if len(b.fragments) == 0 {
		return nil
	}
	return b.fragments[0]
}

// Insert adds a fragment and points it back at this block
func (b *Block) Insert(f *Fragment) {
	Assert(f.block == nil, "fragment is already in a block")
	f.block = b
	b.fragments = append(b.fragments, f)
}

// Erase removes the fragment and destroys its row
func (b *Block) Erase(f *Fragment) {
	b.Detach(f)
	f.SetRow(nil)
}

// Detach removes the fragment, keeping it alive
func (b *Block) Detach(f *Fragment) {
	for i, g := range b.fragments {
		if g == f {
			b.fragments = append(b.fragments[:i], b.fragments[i+1:]...)
			f.block = nil
			return
		}
	}
	panic(invariant("detach of a fragment not in the block"))
}

// Has reports membership of the exact fragment pointer
func (b *Block) Has(f *Fragment) bool {
	for _, g := range b.fragments {
		if g == f {
			return true
		}
	}
	return false
}

// Clear removes all fragments
func (b *Block) Clear() {
	for _, f := range b.fragments {
		f.block = nil
		f.SetRow(nil)
	}
	b.fragments = nil
}

// AlignmentLength is the max row length over fragments, or the max
// fragment length if the block is unaligned.
func (b *Block) AlignmentLength() int {
	max := 0
	for _, f := range b.fragments {
		if l := f.AlignmentLength(); l > max {
			max = l
		}
	}
	return max
}

// HasRows reports whether every fragment carries an alignment row
func (b *Block) HasRows() bool {
	if b.Empty() {
		return false
	}
	for _, f := range b.fragments {
		if f.Row() == nil {
			return false
		}
	}
	return true
}

// Identity is ident-nogap columns over all non-pure-gap columns
func (b *Block) Identity() float64 {
	stat := MakeStat(b)
	return BlockIdentity(stat, false)
}

// Consensus builds the per-column majority string; ties go to the
// alphabetically smaller base.
func (b *Block) Consensus() string {
	length := b.AlignmentLength()
	var out strings.Builder
	out.Grow(length)
	for pos := 0; pos < length; pos++ {
		counts := map[byte]int{}
		for _, f := range b.fragments {
			if c := f.AlignmentAt(pos); c != 0 {
				counts[c]++
			}
		}
		best := byte('N')
		bestCount := 0
		for _, c := range []byte{'A', 'C', 'G', 'N', 'T'} {
			if counts[c] > bestCount {
				best = c
				bestCount = counts[c]
			}
		}
		if bestCount > 0 {
			out.WriteByte(best)
		}
	}
	return out.String()
}

// Inverse flips every fragment to the other strand
func (b *Block) Inverse() {
	for _, f := range b.fragments {
		f.Inverse()
	}
}

// Clone deep-copies the block with its fragments and rows
func (b *Block) Clone() *Block {
	c := NewBlock()
	c.name = b.name
	c.weak = b.weak
	for _, f := range b.fragments {
		c.Insert(f.Clone())
	}
	return c
}

// Slice cuts alignment columns [start, stop] into a new block.
// Every fragment must have a row. Fragments with no bound position
// inside the range are skipped.
func (b *Block) Slice(start, stop int) *Block {
	result := NewBlock()
	for _, f := range b.fragments {
		row := f.Row()
		Assert(row != nil, "slice of an unaligned block")
		fStart := row.NearestInFragment(start)
		fStop := row.NearestInFragment(stop)
		if fStart == -1 || fStop == -1 {
			continue
		}
		if row.MapToAlignment(fStart) < start {
			fStart++
		}
		if row.MapToAlignment(fStop) > stop {
			fStop--
		}
		if fStart > fStop {
			continue
		}
		sub := f.SubFragment(fStart, fStop)
		sub.SetRow(SliceRow(row, start, stop))
		result.Insert(sub)
	}
	return result
}

// Merge moves all fragments of other into this block
func (b *Block) Merge(other *Block) {
	fragments := append([]*Fragment(nil), other.fragments...)
	for _, f := range fragments {
		other.Detach(f)
		b.Insert(f)
	}
}

// Match compares two blocks structurally: 1 when fragments pair up on
// the same sequences with equal orientations, -1 when they pair up
// with all orientations flipped, 0 otherwise.
func Match(one, another *Block) int {
	if one.Size() != another.Size() {
		return 0
	}
	type key struct {
		seq *Sequence
		ori int
	}
	count := func(b *Block) map[key]int {
		m := map[key]int{}
		for _, f := range b.Fragments() {
			m[key{f.Seq(), f.Ori()}]++
		}
		return m
	}
	m1 := count(one)
	m2 := count(another)
	same := true
	inverted := true
	for k, n := range m1 {
		if m2[k] != n {
			same = false
		}
		if m2[key{k.seq, -k.ori}] != n {
			inverted = false
		}
	}
	if same {
		return 1
	}
	if inverted {
		return -1
	}
	return 0
}

// CanonicalName derives a stable name from the fragment contents
func (b *Block) CanonicalName() string {
	ids := make([]string, 0, len(b.fragments))
	for _, f := range b.fragments {
		ids = append(ids, f.ID())
	}
	sort.Strings(ids)
	h := xxhash.Sum64String(strings.Join(ids, "\n"))
	return fmt.Sprintf("%016x", h)
}

// SortedFragments returns fragments in canonical order
func (b *Block) SortedFragments() []*Fragment {
	fragments := append([]*Fragment(nil), b.fragments...)
	sort.Slice(fragments, func(i, j int) bool {
		return fragments[i].Less(fragments[j])
	})
	return fragments
}

func (b *Block) String() string {
	ids := make([]string, 0, len(b.fragments))
	for _, f := range b.SortedFragments() {
		ids = append(ids, f.ID())
	}
	return fmt.Sprintf("block %s {%s}", b.name, strings.Join(ids, " "))
}
