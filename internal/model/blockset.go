package model

import "sort"

// BlockSet owns a set of blocks, the sequences their fragments live
// on, and named block-set alignments.
type BlockSet struct {
	blocks map[*Block]bool
	seqs   []*Sequence
	byName map[string]*Sequence
	bsas   map[string]*BSA
}

// NewBlockSet returns an empty block set
func NewBlockSet() *BlockSet {
	return &BlockSet{
		blocks: make(map[*Block]bool),
		byName: make(map[string]*Sequence),
		bsas:   make(map[string]*BSA),
	}
}

// AddSequence registers a sequence; adding twice is a no-op
func (bs *BlockSet) AddSequence(seq *Sequence) {
	if _, ok := bs.byName[seq.Name()]; ok {
		return
	}
	bs.seqs = append(bs.seqs, seq)
	bs.byName[seq.Name()] = seq
}

// Seqs returns the sequences in insertion order
func (bs *BlockSet) Seqs() []*Sequence { return bs.seqs }

// SeqByName finds a sequence, nil if absent
func (bs *BlockSet) SeqByName(name string) *Sequence { return bs.byName[name] }

// Insert adds a block. Inserting the same pointer twice panics.
func (bs *BlockSet) Insert(b *Block) {
	Assert(!bs.blocks[b], "duplicate block pointer in block set")
	bs.blocks[b] = true
}

// Erase removes the block and destroys its fragments
func (bs *BlockSet) Erase(b *Block) {
	if bs.blocks[b] {
		delete(bs.blocks, b)
		b.Clear()
	}
}

// Detach removes the block, keeping it alive
func (bs *BlockSet) Detach(b *Block) {
	delete(bs.blocks, b)
}

// Has reports block membership
func (bs *BlockSet) Has(b *Block) bool { return bs.blocks[b] }

// Size is the number of blocks
func (bs *BlockSet) Size() int { return len(bs.blocks) }

// Blocks returns the blocks in unspecified order
func (bs *BlockSet) Blocks() []*Block {
	blocks := make([]*Block, 0, len(bs.blocks))
	for b := range bs.blocks {
		blocks = append(blocks, b)
	}
	return blocks
}

// SortedBlocks returns blocks ordered by name; an unnamed block sorts
// by its canonical name
func (bs *BlockSet) SortedBlocks() []*Block {
	blocks := bs.Blocks()
	sort.Slice(blocks, func(i, j int) bool {
		ni, nj := blocks[i].Name(), blocks[j].Name()
		if ni == "" {
			ni = blocks[i].CanonicalName()
		}
		if nj == "" {
			nj = blocks[j].CanonicalName()
		}
		return ni < nj
	})
	return blocks
}

// BlockByName finds a block by its assigned name, nil if absent
func (bs *BlockSet) BlockByName(name string) *Block {
	for b := range bs.blocks {
		if b.Name() == name {
			return b
		}
	}
	return nil
}

// Clear destroys all blocks and their fragments; sequences stay
func (bs *BlockSet) Clear() {
	for b := range bs.blocks {
		b.Clear()
	}
	bs.blocks = make(map[*Block]bool)
}

// Clone deep-copies blocks and shares sequences
func (bs *BlockSet) Clone() *BlockSet {
	c := NewBlockSet()
	for _, seq := range bs.seqs {
		c.AddSequence(seq)
	}
	for b := range bs.blocks {
		c.Insert(b.Clone())
	}
	for name, bsa := range bs.bsas {
		c.bsas[name] = bsa.Clone()
	}
	return c
}

// Validate checks the block-set invariants: every fragment lies on a
// sequence of the set and inside its bounds, and row lengths dominate
// fragment lengths.
func (bs *BlockSet) Validate() error {
	for b := range bs.blocks {
		for _, f := range b.Fragments() {
			if bs.byName[f.Seq().Name()] != f.Seq() {
				return invariant("fragment sequence not in block set: " + f.ID())
			}
			if !f.Valid() {
				return invariant("fragment out of sequence bounds: " + f.ID())
			}
			if f.Row() != nil && f.Row().Length() < f.Length() {
				return invariant("row shorter than fragment: " + f.ID())
			}
		}
	}
	return nil
}

// SetBSA stores a named block-set alignment
func (bs *BlockSet) SetBSA(name string, bsa *BSA) { bs.bsas[name] = bsa }

// BSAByName returns a named block-set alignment, nil if absent
func (bs *BlockSet) BSAByName(name string) *BSA { return bs.bsas[name] }

// BSANames lists the stored block-set alignments
func (bs *BlockSet) BSANames() []string {
	names := make([]string, 0, len(bs.bsas))
	for name := range bs.bsas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
