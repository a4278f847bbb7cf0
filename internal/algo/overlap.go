package algo

import (
	"github.com/zer0main/npge/internal/model"
)

// ResolveOverlaps rewrites a set of possibly-overlapping blocks into
// a tiling where no two fragments partially overlap on any sequence.
// Overlapping pairs are split into left-residue, common and
// right-residue blocks; the loop runs until the collection reports no
// partial overlap. Every split strictly reduces the summed squared
// overlap length, so the loop terminates.
type ResolveOverlaps struct {
	*Processor
}

// NewResolveOverlaps declares the resolver
func NewResolveOverlaps() *ResolveOverlaps {
	r := &ResolveOverlaps{Processor: NewProcessor("resolve-overlaps")}
	r.AddOpt("min-fragment",
		"Minimum length of a split piece; shorter pieces are dropped", 1)
	r.AddOpt("min-distance",
		"Stick fragment boundaries closer than this before splitting", 0)
	r.SetRunImpl(r.run)
	return r
}

func (r *ResolveOverlaps) run() error {
	bs := r.BlockSet()
	if minDistance := r.OptInt("min-distance"); minDistance > 1 {
		stickBoundaries(bs, minDistance)
	}
	minFragment := r.OptInt("min-fragment")
	for {
		if err := r.interrupter.Check(); err != nil {
			return err
		}
		f, g := findPartialOverlap(bs)
		if f == nil {
			break
		}
		splitOverlap(bs, f, g, minFragment)
	}
	mergeDuplicateBlocks(bs)
	return nil
}

type intervalKey struct {
	seq      *model.Sequence
	min, max int
}

func keyOf(f *model.Fragment) intervalKey {
	return intervalKey{f.Seq(), f.MinPos(), f.MaxPos()}
}

// mergeDuplicateBlocks fuses blocks that share a fragment interval:
// two fragments covering exactly the same positions assert the same
// homology, so their blocks become one. Interval duplicates inside
// the merged block are dropped.
func mergeDuplicateBlocks(bs *model.BlockSet) {
	for {
		var dst, src *model.Block
		owners := make(map[intervalKey]*model.Block)
		for _, b := range bs.Blocks() {
			for _, f := range b.Fragments() {
				if o, ok := owners[keyOf(f)]; ok && o != b {
					dst, src = o, b
					break
				}
				owners[keyOf(f)] = b
			}
			if src != nil {
				break
			}
		}
		if src == nil {
			return
		}
		have := make(map[intervalKey]bool)
		for _, f := range dst.Fragments() {
			have[keyOf(f)] = true
		}
		for _, f := range append([]*model.Fragment(nil), src.Fragments()...) {
			if have[keyOf(f)] {
				continue
			}
			have[keyOf(f)] = true
			src.Detach(f)
			f.SetRow(nil)
			dst.Insert(f)
		}
		bs.Erase(src)
		dst.SetName(dst.CanonicalName())
	}
}

// stickBoundaries snaps every fragment to the merged boundary set of
// its sequence, removing tiny offsets between near-identical cuts.
func stickBoundaries(bs *model.BlockSet, minDistance int) {
	sb := make(map[*model.Sequence]model.Boundaries)
	for _, b := range bs.Blocks() {
		for _, f := range b.Fragments() {
			sb[f.Seq()] = append(sb[f.Seq()], f.MinPos(), f.MaxPos()+1)
		}
	}
	for seq, boundaries := range sb {
		sb[seq] = model.SelectBoundaries(boundaries, minDistance, seq.Length())
	}
	for _, b := range bs.Blocks() {
		for _, f := range b.Fragments() {
			boundaries := sb[f.Seq()]
			minPos := model.NearestElement(boundaries, f.MinPos())
			maxPos := model.NearestElement(boundaries, f.MaxPos()+1) - 1
			if minPos <= maxPos && maxPos < f.Seq().Length() &&
				(minPos != f.MinPos() || maxPos != f.MaxPos()) {
				f.SetRow(nil)
				f.SetMinPos(minPos)
				f.SetMaxPos(maxPos)
			}
		}
	}
}

// findPartialOverlap returns a pair of fragments from different
// blocks (or the same) that overlap without covering each other
// exactly; nil when the set is a proper tiling.
func findPartialOverlap(bs *model.BlockSet) (*model.Fragment, *model.Fragment) {
	s2f := model.NewFragmentCollection(model.VectorCollection)
	s2f.AddBS(bs)
	s2f.Prepare()
	for _, b := range bs.Blocks() {
		for _, f := range b.Fragments() {
			for _, g := range s2f.FindOverlapFragments(f) {
				common := f.CommonPositions(g)
				if common != f.Length() || common != g.Length() {
					return f, g
				}
			}
		}
	}
	return nil, nil
}

// seqToFrag converts a sequence position inside f to f's oriented
// fragment position.
func seqToFrag(f *model.Fragment, pos int) int {
	if f.Ori() == 1 {
		return pos - f.MinPos()
	}
	return f.MaxPos() - pos
}

// mapPiece projects a fragment-position range of pivot onto h,
// another member of pivot's block. With rows on both, columns carry
// the projection; otherwise positions map directly, clamped.
func mapPiece(pivot, h *model.Fragment, from, to int) (int, int, bool) {
	if pivot == h {
		return from, to, true
	}
	if pivot.Row() != nil && h.Row() != nil {
		aFrom := pivot.Row().MapToAlignment(from)
		aTo := pivot.Row().MapToAlignment(to)
		if aFrom == -1 || aTo == -1 {
			return 0, 0, false
		}
		hFrom := h.Row().NearestInFragment(aFrom)
		hTo := h.Row().NearestInFragment(aTo)
		if hFrom == -1 || hTo == -1 || hFrom > hTo {
			return 0, 0, false
		}
		return hFrom, hTo, true
	}
	hFrom, hTo := from, to
	if hFrom >= h.Length() {
		return 0, 0, false
	}
	if hTo >= h.Length() {
		hTo = h.Length() - 1
	}
	return hFrom, hTo, true
}

// carve builds a block from the piece [from, to] (pivot fragment
// positions) of every fragment of pivot's block. Pieces shorter than
// minFragment are dropped; dedup suppresses pieces already present.
func carve(pivot *model.Fragment, from, to, minFragment int,
	dedup map[[2]interface{}]bool, out *model.Block) {
	block := pivot.Block()
	var aFrom, aTo int
	withRows := block.HasRows()
	if withRows {
		aFrom = pivot.Row().MapToAlignment(from)
		aTo = pivot.Row().MapToAlignment(to)
	}
	for _, h := range block.Fragments() {
		hFrom, hTo, ok := mapPiece(pivot, h, from, to)
		if !ok || hTo-hFrom+1 < minFragment {
			continue
		}
		piece := h.SubFragment(hFrom, hTo)
		key := [2]interface{}{piece.Seq(), piece.MinPos()<<32 | piece.MaxPos()}
		if dedup[key] {
			continue
		}
		dedup[key] = true
		if withRows && aFrom != -1 && aTo != -1 {
			piece.SetRow(model.SliceRow(h.Row(), aFrom, aTo))
		}
		out.Insert(piece)
	}
}

// splitOverlap replaces the two blocks of an overlapping fragment
// pair with up to three tiled blocks.
func splitOverlap(bs *model.BlockSet, f, g *model.Fragment, minFragment int) {
	blockF := f.Block()
	blockG := g.Block()
	maxMin := f.MinPos()
	if g.MinPos() > maxMin {
		maxMin = g.MinPos()
	}
	minMax := f.MaxPos()
	if g.MaxPos() < minMax {
		minMax = g.MaxPos()
	}

	ordered := func(a, b int) (int, int) {
		if a <= b {
			return a, b
		}
		return b, a
	}
	fa, fb := ordered(seqToFrag(f, maxMin), seqToFrag(f, minMax))
	ga, gb := ordered(seqToFrag(g, maxMin), seqToFrag(g, minMax))

	var pieces []*model.Block
	dedup := make(map[[2]interface{}]bool)

	common := model.NewBlock()
	carve(f, fa, fb, minFragment, dedup, common)
	carve(g, ga, gb, minFragment, dedup, common)
	pieces = append(pieces, common)

	for _, side := range []struct {
		pivot    *model.Fragment
		from, to int
	}{
		{f, 0, fa - 1},
		{f, fb + 1, f.Length() - 1},
		{g, 0, ga - 1},
		{g, gb + 1, g.Length() - 1},
	} {
		if side.from > side.to {
			continue
		}
		residue := model.NewBlock()
		carve(side.pivot, side.from, side.to, minFragment,
			make(map[[2]interface{}]bool), residue)
		pieces = append(pieces, residue)
	}

	bs.Erase(blockF)
	if blockG != blockF {
		bs.Erase(blockG)
	}
	for _, piece := range pieces {
		if piece.Empty() {
			continue
		}
		piece.SetName(piece.CanonicalName())
		bs.Insert(piece)
	}
}
