package algo

import (
	"sort"

	"github.com/zer0main/npge/internal/model"
)

// Joiner fuses adjacent collinear blocks: two blocks join when every
// fragment of one has a logical neighbor in the other on the same
// sequence with the same orientation. Rows are rebuilt by aligning
// the inter-fragment regions and concatenating
// left-row + middle + right-row. Weak blocks never join.
type Joiner struct {
	*Processor
	aligner Aligner
	s2f     *model.FragmentCollection
}

// NewJoiner builds the join step with the built-in aligner
func NewJoiner() *Joiner {
	j := &Joiner{
		Processor: NewProcessor("join"),
		aligner:   SimilarAligner{},
	}
	j.AddOpt("max-gap",
		"Maximum gap between joined fragments, -1 is unlimited", -1)
	j.SetRunImpl(j.run)
	return j
}

// SetAligner swaps the aligner used for inter-fragment regions
func (j *Joiner) SetAligner(a Aligner) { j.aligner = a }

// neighborBlock returns the block of the front fragment's neighbor
func (j *Joiner) neighborBlock(b *model.Block, ori int) *model.Block {
	f := b.Front()
	if f == nil {
		return nil
	}
	neighbor := j.s2f.Neighbor(f, ori)
	if neighbor == nil {
		return nil
	}
	return neighbor.Block()
}

// canJoinFragments requires one sequence, one orientation, adjacency
func (j *Joiner) canJoinFragments(one, another *model.Fragment) bool {
	return one.Seq() == another.Seq() && one.Ori() == another.Ori() &&
		j.s2f.AreNeighbors(one, another)
}

// canJoin reports the logical orientation (1 or -1) under which every
// fragment of one joins its counterpart in another, 0 if none.
func (j *Joiner) canJoin(one, another *model.Block) int {
	if one.Weak() || another.Weak() {
		return 0
	}
	if one.Size() != another.Size() || one.Size() < 2 {
		return 0
	}
	for _, ori := range []int{1, -1} {
		all := true
		for _, f := range one.Fragments() {
			f1 := j.s2f.LogicalNeighbor(f, ori)
			if f1 == nil || f1.Block() != another ||
				!j.canJoinFragments(f, f1) {
				all = false
				break
			}
		}
		if all {
			return ori
		}
	}
	return 0
}

// canJoinBlocks additionally checks the per-sequence gaps
func (j *Joiner) canJoinBlocks(one, another *model.Block, ori int) bool {
	maxGap := j.OptInt("max-gap")
	for _, f := range one.Fragments() {
		f1 := j.s2f.LogicalNeighbor(f, ori)
		if f1 == nil || f1.Block() != another {
			return false
		}
		if !j.canJoinFragments(f, f1) {
			return false
		}
		if maxGap != -1 && f.DistTo(f1) > maxGap {
			return false
		}
	}
	return true
}

// joinFragments spans from the earlier to the later fragment
func (j *Joiner) joinFragments(one, another *model.Fragment) *model.Fragment {
	minPos := one.MinPos()
	if another.MinPos() < minPos {
		minPos = another.MinPos()
	}
	maxPos := one.MaxPos()
	if another.MaxPos() > maxPos {
		maxPos = another.MaxPos()
	}
	return model.NewFragment(one.Seq(), minPos, maxPos, one.Ori())
}

// buildRows aligns the middles and produces one gapped row per new
// fragment: left row + aligned middle + right row in logical order.
func (j *Joiner) buildRows(fragments []*model.Fragment,
	another *model.Block, ori int) []string {
	middles := make([]string, len(fragments))
	for i, f := range fragments {
		f1 := j.s2f.LogicalNeighbor(f, ori)
		var minPos, maxPos int
		if j.s2f.Next(f) == f1 {
			minPos = f.MaxPos() + 1
			maxPos = f1.MinPos() - 1
		} else {
			minPos = f1.MaxPos() + 1
			maxPos = f.MinPos() - 1
		}
		if maxPos >= minPos {
			between := model.NewFragment(f.Seq(), minPos, maxPos, f.Ori())
			middles[i] = between.Str()
		}
	}
	middles = j.aligner.AlignSeqs(middles)
	rows := make([]string, len(fragments))
	for i, f := range fragments {
		f1 := j.s2f.LogicalNeighbor(f, ori)
		if ori == 1 {
			rows[i] = f.RowStr() + middles[i] + f1.RowStr()
		} else {
			rows[i] = f1.RowStr() + middles[i] + f.RowStr()
		}
	}
	return rows
}

// joinBlocks merges two joinable blocks into a fresh block
func (j *Joiner) joinBlocks(one, another *model.Block, ori int) *model.Block {
	result := model.NewBlock()
	fragments := one.Fragments()
	hasRows := one.HasRows() && another.HasRows()
	var rows []string
	if hasRows {
		rows = j.buildRows(fragments, another, ori)
	}
	kind := model.CompactRowKind
	if hasRows {
		kind = one.Front().Row().Kind()
	}
	for i, f := range fragments {
		f1 := j.s2f.LogicalNeighbor(f, ori)
		joined := j.joinFragments(f, f1)
		if hasRows {
			row := model.NewRow(kind)
			row.Grow(rows[i])
			joined.SetRow(row)
		}
		result.Insert(joined)
	}
	result.SetName(result.CanonicalName())
	return result
}

// tryJoin aligns orientations and joins if the blocks qualify
func (j *Joiner) tryJoin(one, another *model.Block) *model.Block {
	matchOri := model.Match(one, another)
	if matchOri == -1 {
		another.Inverse()
		j.s2f.RemoveBlock(another)
		j.s2f.AddBlock(another)
	}
	if matchOri == 0 {
		return nil
	}
	ori := j.canJoin(one, another)
	if ori == 0 || !j.canJoinBlocks(one, another, ori) {
		return nil
	}
	return j.joinBlocks(one, another, ori)
}

func (j *Joiner) run() error {
	bs := j.BlockSet()
	j.s2f = model.NewFragmentCollection(model.SortedCollection)
	j.s2f.SetCyclesAllowed(false)
	j.s2f.AddBS(bs)

	// larger cores first
	blocks := bs.Blocks()
	sort.SliceStable(blocks, func(a, b int) bool {
		return blocks[a].Size() > blocks[b].Size()
	})
	for _, block := range blocks {
		if err := j.interrupter.Check(); err != nil {
			return err
		}
		if !bs.Has(block) {
			continue
		}
		for _, ori := range []int{-1, 1} {
			for {
				other := j.neighborBlock(block, ori)
				if other == nil || other == block {
					break
				}
				joined := j.tryJoin(block, other)
				if joined == nil {
					break
				}
				j.s2f.RemoveBlock(block)
				bs.Erase(block)
				j.s2f.RemoveBlock(other)
				bs.Erase(other)
				bs.Insert(joined)
				j.s2f.AddBlock(joined)
				block = joined
			}
		}
	}
	return nil
}
