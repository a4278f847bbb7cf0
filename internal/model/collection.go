package model

import "sort"

// CollectionKind selects the fragment index implementation
type CollectionKind int

const (
	// VectorCollection batches additions; Prepare must be called
	// before queries. Best for read-heavy phases.
	VectorCollection CollectionKind = iota

	// SortedCollection keeps order on every insertion and removal,
	// for incremental updates (the joiner).
	SortedCollection
)

// FragmentCollection is a per-sequence index of fragments keyed by
// minPos, answering neighbor and overlap queries. With cyclesAllowed
// the sequence is treated as circular and neighbors wrap.
type FragmentCollection struct {
	kind          CollectionKind
	bySeq         map[*Sequence][]*Fragment
	cyclesAllowed bool
	prepared      bool
}

// NewFragmentCollection returns an empty index
func NewFragmentCollection(kind CollectionKind) *FragmentCollection {
	return &FragmentCollection{
		kind:  kind,
		bySeq: make(map[*Sequence][]*Fragment),
	}
}

// SetCyclesAllowed toggles circular neighbor wrapping
func (c *FragmentCollection) SetCyclesAllowed(allowed bool) {
	c.cyclesAllowed = allowed
}

// Clear drops all indexed fragments
func (c *FragmentCollection) Clear() {
	c.bySeq = make(map[*Sequence][]*Fragment)
	c.prepared = false
}

func fragmentLess(a, b *Fragment) bool { return a.Less(b) }

// AddFragment indexes one fragment
func (c *FragmentCollection) AddFragment(f *Fragment) {
	v := c.bySeq[f.Seq()]
	if c.kind == SortedCollection {
		i := sort.Search(len(v), func(k int) bool {
			return !fragmentLess(v[k], f)
		})
		v = append(v, nil)
		copy(v[i+1:], v[i:])
		v[i] = f
	} else {
		v = append(v, f)
		c.prepared = false
	}
	c.bySeq[f.Seq()] = v
}

// RemoveFragment drops one fragment from the index
func (c *FragmentCollection) RemoveFragment(f *Fragment) {
	v := c.bySeq[f.Seq()]
	for i, g := range v {
		if g == f {
			c.bySeq[f.Seq()] = append(v[:i], v[i+1:]...)
			return
		}
	}
}

// AddBlock indexes all fragments of a block
func (c *FragmentCollection) AddBlock(b *Block) {
	for _, f := range b.Fragments() {
		c.AddFragment(f)
	}
}

// RemoveBlock drops all fragments of a block
func (c *FragmentCollection) RemoveBlock(b *Block) {
	for _, f := range b.Fragments() {
		c.RemoveFragment(f)
	}
}

// AddBS indexes all fragments of all blocks of a block set
func (c *FragmentCollection) AddBS(bs *BlockSet) {
	for _, b := range bs.Blocks() {
		c.AddBlock(b)
	}
}

// RemoveBS drops all fragments of all blocks of a block set
func (c *FragmentCollection) RemoveBS(bs *BlockSet) {
	for _, b := range bs.Blocks() {
		c.RemoveBlock(b)
	}
}

// Prepare sorts a vector collection; it does not check the sorted
// fragments further.
func (c *FragmentCollection) Prepare() {
	for _, v := range c.bySeq {
		sort.Slice(v, func(i, j int) bool {
			return fragmentLess(v[i], v[j])
		})
	}
	c.prepared = true
}

func (c *FragmentCollection) fragments(seq *Sequence) []*Fragment {
	if c.kind == VectorCollection && !c.prepared {
		c.Prepare()
	}
	return c.bySeq[seq]
}

// indexOf finds the slice position of the exact pointer, -1 if absent
func (c *FragmentCollection) indexOf(f *Fragment) ([]*Fragment, int) {
	v := c.fragments(f.Seq())
	i := sort.Search(len(v), func(k int) bool {
		return !fragmentLess(v[k], f)
	})
	for ; i < len(v) && !fragmentLess(f, v[i]); i++ {
		if v[i] == f {
			return v, i
		}
	}
	return v, -1
}

// Next returns the fragment after f on its sequence, wrapping when
// cycles are allowed; nil at the linear end.
func (c *FragmentCollection) Next(f *Fragment) *Fragment {
	v, i := c.indexOf(f)
	if i == -1 {
		return nil
	}
	if i+1 < len(v) {
		return v[i+1]
	}
	if c.cyclesAllowed && f.Seq().Circular() && len(v) > 1 {
		return v[0]
	}
	return nil
}

// Prev returns the fragment before f on its sequence
func (c *FragmentCollection) Prev(f *Fragment) *Fragment {
	v, i := c.indexOf(f)
	if i == -1 {
		return nil
	}
	if i > 0 {
		return v[i-1]
	}
	if c.cyclesAllowed && f.Seq().Circular() && len(v) > 1 {
		return v[len(v)-1]
	}
	return nil
}

// Neighbor is Next for ori == 1 and Prev for ori == -1
func (c *FragmentCollection) Neighbor(f *Fragment, ori int) *Fragment {
	if ori == 1 {
		return c.Next(f)
	}
	return c.Prev(f)
}

// LogicalNeighbor is the neighbor in the fragment's own orientation
func (c *FragmentCollection) LogicalNeighbor(f *Fragment, ori int) *Fragment {
	return c.Neighbor(f, f.Ori()*ori)
}

// AreNeighbors reports whether a and b are adjacent in the index
func (c *FragmentCollection) AreNeighbors(a, b *Fragment) bool {
	return c.Next(a) == b || c.Prev(a) == b
}

// HasOverlap reports whether any two indexed fragments share positions
func (c *FragmentCollection) HasOverlap() bool {
	for seq := range c.bySeq {
		v := c.fragments(seq)
		for i := 1; i < len(v); i++ {
			if v[i-1].CommonPositions(v[i]) > 0 {
				return true
			}
		}
	}
	return false
}

// FindOverlapFragments collects indexed fragments sharing positions
// with f; f itself is excluded.
func (c *FragmentCollection) FindOverlapFragments(f *Fragment) []*Fragment {
	var result []*Fragment
	v := c.fragments(f.Seq())
	i := sort.Search(len(v), func(k int) bool {
		return v[k].MinPos() > f.MaxPos()
	})
	for j := 0; j < i; j++ {
		g := v[j]
		if g != f && g.CommonPositions(f) > 0 {
			result = append(result, g)
		}
	}
	return result
}

// HasPartialOverlap reports whether some pair of fragments overlaps
// without one covering exactly the positions of the other.
func (c *FragmentCollection) HasPartialOverlap() bool {
	for seq := range c.bySeq {
		v := c.fragments(seq)
		for i := 0; i < len(v); i++ {
			for j := i + 1; j < len(v); j++ {
				if v[j].MinPos() > v[i].MaxPos() {
					break
				}
				common := v[i].CommonPositions(v[j])
				if common > 0 &&
					(common != v[i].Length() || common != v[j].Length()) {
					return true
				}
			}
		}
	}
	return false
}
