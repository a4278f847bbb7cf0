package algo

import (
	"github.com/zer0main/npge/internal/model"
)

// addExpanderOptions declares the shared pair-alignment options
func addExpanderOptions(p *Processor) {
	p.AddGlobalOpt("batch", "Batch size for pair aligner",
		"ALIGNER_BATCH", IntOpt)
	p.AddGlobalOpt("gap-range", "Max distance from the main diagonal "+
		"of considered states of pair alignment",
		"ALIGNER_GAP_RANGE", IntOpt)
	p.AddGlobalOpt("max-errors", "Max number of errors in pair alignment",
		"ALIGNER_MAX_ERRORS", IntOpt)
	p.AddGlobalOpt("gap-penalty", "Gap open or extension penalty",
		"ALIGNER_GAP_PENALTY", IntOpt)
	p.AddOptRule("batch > 0")
	p.AddOptRule("gap-range >= 0")
}

func (p *Processor) pairAligner() *PairAligner {
	return NewPairAligner(p.OptInt("max-errors"), p.OptInt("gap-range"),
		p.OptInt("gap-penalty"))
}

// FragmentsAligned streams both fragments through the pair aligner in
// batches and reports whether they align end to end within the error
// budget per batch.
func FragmentsAligned(pa *PairAligner, batch int, f1, f2 *model.Fragment) bool {
	l1, l2 := f1.Length(), f2.Length()
	last1, last2 := -1, -1
	for last1 < l1-1 && last2 < l2-1 {
		min1 := minInt(l1-1, last1+1)
		max1 := minInt(l1-1, last1+batch)
		min2 := minInt(l2-1, last2+1)
		max2 := minInt(l2-1, last2+batch)
		ok, sub1, sub2 := pa.AlignedPrefix(f1.Substr(min1, max1),
			f2.Substr(min2, max2))
		if !ok {
			return false
		}
		last1 += sub1 + 1
		last2 += sub2 + 1
	}
	return pa.Aligned(f1.Substr(last1, l1-1), f2.Substr(last2, l2-1))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ExpandFragments grows every anchor fragment outward by greedy
// banded alignment against its block partners. Each fragment stops at
// the intersection of its pairwise extensions.
type ExpandFragments struct {
	*BlocksJob
}

// NewExpandFragments declares the expansion step
func NewExpandFragments() *ExpandFragments {
	e := &ExpandFragments{BlocksJob: NewBlocksJob("expand-fragments")}
	addExpanderOptions(e.Processor)
	e.ProcessBlock = e.processBlock
	return e
}

func (e *ExpandFragments) processBlock(b *model.Block, _ interface{}) error {
	e.ExpandBlock(b)
	return nil
}

// ExpandBlock extends the block's fragments in place; rows are
// dropped since coordinates change.
func (e *ExpandFragments) ExpandBlock(b *model.Block) {
	if b.Size() < 2 {
		return
	}
	pa := e.pairAligner()
	batch := e.OptInt("batch")
	fragments := b.Fragments()
	for _, dir := range []int{1, -1} {
		// extension of each fragment is the min over its partners
		ext := make([]int, len(fragments))
		for i := range ext {
			ext[i] = -1
		}
		for i, f := range fragments {
			for j, g := range fragments {
				if i >= j {
					continue
				}
				e1, e2 := pairExtension(pa, batch, f, g, dir)
				if ext[i] == -1 || e1 < ext[i] {
					ext[i] = e1
				}
				if ext[j] == -1 || e2 < ext[j] {
					ext[j] = e2
				}
			}
		}
		for i, f := range fragments {
			if ext[i] > 0 {
				f.SetRow(nil)
				shiftEnd(f, dir, ext[i])
			}
		}
	}
}

// pairExtension aligns the regions past both fragments' oriented ends
// (dir=1) or before their begins (dir=-1) and returns how far each
// fragment may grow.
func pairExtension(pa *PairAligner, batch int, f, g *model.Fragment, dir int) (int, int) {
	t1 := outerText(f, dir, batch)
	t2 := outerText(g, dir, batch)
	if len(t1) == 0 || len(t2) == 0 {
		return 0, 0
	}
	ok, last1, last2 := pa.AlignedPrefix(t1, t2)
	if !ok {
		return 0, 0
	}
	return last1 + 1, last2 + 1
}

// outerText reads up to batch bases beyond the fragment in the given
// logical direction, outward-ordered: the first byte is adjacent to
// the fragment.
func outerText(f *model.Fragment, dir, batch int) string {
	seq := f.Seq()
	step := f.Ori() * dir
	start := f.LastPos() + f.Ori()
	if dir == -1 {
		start = f.BeginPos() - f.Ori()
	}
	var out []byte
	for i := 0; i < batch; i++ {
		pos := start + step*i
		if pos < 0 || pos >= seq.Length() {
			break
		}
		c := seq.CharAt(pos)
		if f.Ori() == -1 {
			c = model.Complement(c)
		}
		out = append(out, c)
	}
	return string(out)
}

// shiftEnd grows the fragment by ext bases at its logical end (dir=1)
// or begin (dir=-1), clamped to the sequence.
func shiftEnd(f *model.Fragment, dir, ext int) {
	grow := func(pos, step int) int {
		pos += step * ext
		if pos < 0 {
			pos = 0
		}
		if pos >= f.Seq().Length() {
			pos = f.Seq().Length() - 1
		}
		return pos
	}
	if dir == 1 {
		if f.Ori() == 1 {
			f.SetMaxPos(grow(f.MaxPos(), 1))
		} else {
			f.SetMinPos(grow(f.MinPos(), -1))
		}
	} else {
		if f.Ori() == 1 {
			f.SetMinPos(grow(f.MinPos(), -1))
		} else {
			f.SetMaxPos(grow(f.MaxPos(), 1))
		}
	}
}

// ExpandBlocks adopts collinear fragments of neighboring blocks into
// larger blocks whose fragments they align with.
type ExpandBlocks struct {
	*Processor
}

// NewExpandBlocks declares the companion expansion mode
func NewExpandBlocks() *ExpandBlocks {
	e := &ExpandBlocks{Processor: NewProcessor("expand-blocks")}
	addExpanderOptions(e.Processor)
	e.SetRunImpl(e.run)
	return e
}

func (e *ExpandBlocks) run() error {
	bs := e.BlockSet()
	pa := e.pairAligner()
	batch := e.OptInt("batch")
	s2f := model.NewFragmentCollection(model.VectorCollection)
	s2f.AddBS(bs)
	s2f.Prepare()
	blocks := bs.Blocks()
	sortBlocksForDispatch(blocks)
	for _, b := range blocks {
		if err := e.interrupter.Check(); err != nil {
			return err
		}
		if b.Weak() || b.Empty() {
			continue
		}
		front := b.Front()
		for _, ori := range []int{-1, 1} {
			neighbor := s2f.Neighbor(front, ori)
			if neighbor == nil || neighbor.Block() == b ||
				neighbor.Block() == nil {
				continue
			}
			for _, g := range neighbor.Block().Fragments() {
				candidate := g.Clone()
				if !FragmentsAligned(pa, batch, front, candidate) {
					continue
				}
				inBlock := false
				for _, f := range b.Fragments() {
					if f.Equal(candidate) {
						inBlock = true
						break
					}
				}
				if !inBlock {
					candidate.SetRow(nil)
					b.Insert(candidate)
				}
			}
		}
	}
	return nil
}
