package algo

import (
	"github.com/zer0main/npge/internal/model"
)

// Filter is the block quality gate. Bad blocks are dropped, or their
// good sub-blocks are carved out in find-subblocks mode, or good
// blocks are cloned to the other set in good-to-other mode.
type Filter struct {
	*BlocksJob
}

// NewFilter declares the size and content limits
func NewFilter() *Filter {
	f := &Filter{BlocksJob: NewBlocksJob("filter")}
	f.AddGlobalOpt("min-fragment", "Minimum fragment length",
		"MIN_LENGTH", IntOpt)
	f.AddOpt("max-fragment", "Maximum fragment length, -1 is unlimited", -1)
	f.AddOpt("min-block", "Minimum block size", 2)
	f.AddOpt("max-block", "Maximum block size, -1 is unlimited", -1)
	f.AddOpt("min-spreading", "Minimum fragment length spreading", 0.0)
	f.AddGlobalOpt("max-spreading", "Maximum fragment length spreading",
		"MAX_SPREADING", FloatOpt)
	f.AddGlobalOpt("min-identity", "Minimum block identity",
		"MIN_IDENTITY", FloatOpt)
	f.AddOpt("max-identity", "Maximum block identity", 1.0)
	f.AddOpt("min-gaps", "Minimum share of gap columns", 0.0)
	f.AddGlobalOpt("max-gaps", "Maximum share of gap columns",
		"MAX_GAPS", FloatOpt)
	f.AddOpt("find-subblocks", "Find and add good subblocks of bad blocks",
		true)
	f.AddOpt("good-to-other", "Do not remove bad blocks, "+
		"but copy good blocks to other blockset", false)
	f.AddOpt("edge-window-check",
		"Check identity of alignment edges separately", true)
	f.AddOptRule("min-fragment >= 0")
	f.AddOptRule("min-block >= 0")
	f.BeforeThread = func() interface{} { return &BlocksMutations{} }
	f.ProcessBlock = f.processBlock
	f.AfterThread = f.afterThread
	return f
}

// lengthRequirements snapshots the limits for one run
type lengthRequirements struct {
	minFragment  int
	maxFragment  int
	minSpreading float64
	maxSpreading float64
	minIdentity  float64
	maxIdentity  float64
	minGaps      float64
	maxGaps      float64
}

func (f *Filter) requirements() lengthRequirements {
	return lengthRequirements{
		minFragment:  f.OptInt("min-fragment"),
		maxFragment:  f.OptInt("max-fragment"),
		minSpreading: f.OptFloat("min-spreading"),
		maxSpreading: f.OptFloat("max-spreading"),
		minIdentity:  f.OptFloat("min-identity"),
		maxIdentity:  f.OptFloat("max-identity"),
		minGaps:      f.OptFloat("min-gaps"),
		maxGaps:      f.OptFloat("max-gaps"),
	}
}

// maxFrame is the window size of the content tests, derived from the
// minimum fragment length and the allowed share of gaps.
func (lr lengthRequirements) maxFrame(alignmentLength int) int {
	nongaps := 1.0 - lr.maxGaps
	if nongaps < 0.5 {
		nongaps = 0.5
	}
	if nongaps > 0.999 {
		nongaps = 0.999
	}
	frame := int(float64(lr.minFragment)/nongaps) + 1
	if frame > alignmentLength {
		frame = alignmentLength
	}
	return frame
}

// identGapStat is the sliding-window column census
type identGapStat struct {
	identNogap   int
	identGap     int
	noidentNogap int
	noidentGap   int
}

func (s *identGapStat) add(gap, ident bool) {
	switch {
	case gap && ident:
		s.identGap++
	case gap:
		s.noidentGap++
	case ident:
		s.identNogap++
	default:
		s.noidentNogap++
	}
}

func (s *identGapStat) del(gap, ident bool) {
	switch {
	case gap && ident:
		s.identGap--
	case gap:
		s.noidentGap--
	case ident:
		s.identNogap--
	default:
		s.noidentNogap--
	}
}

func (s *identGapStat) identity() float64 {
	total := s.identNogap + s.identGap + s.noidentNogap + s.noidentGap
	if total == 0 {
		return 0
	}
	return float64(s.identNogap) / float64(total)
}

func (s *identGapStat) gaps() float64 {
	gaps := s.identGap + s.noidentGap
	nogaps := s.identNogap + s.noidentNogap
	if gaps+nogaps == 0 {
		return 0
	}
	return float64(gaps) / float64(gaps+nogaps)
}

func goodContents(s *identGapStat, lr lengthRequirements) bool {
	identity := s.identity()
	gaps := s.gaps()
	return identity <= lr.maxIdentity && identity >= lr.minIdentity &&
		gaps <= lr.maxGaps && gaps >= lr.minGaps
}

// goodLengths checks fragment lengths and spreading of the column
// range [start, stop].
func goodLengths(b *model.Block, start, stop int, lr lengthRequirements) bool {
	if b.Empty() {
		return false
	}
	var lengths []int
	for _, fragment := range b.Fragments() {
		row := fragment.Row()
		model.Assert(row != nil, "filter window over an unaligned fragment")
		fStart := row.NearestInFragment(start)
		fStop := row.NearestInFragment(stop)
		if fStart == -1 || fStop == -1 {
			return false
		}
		if row.MapToAlignment(fStart) < start {
			fStart++
		}
		if row.MapToAlignment(fStop) > stop {
			fStop--
		}
		fLength := fStop - fStart + 1
		if fLength < lr.minFragment ||
			(lr.maxFragment != -1 && fLength > lr.maxFragment) {
			return false
		}
		lengths = append(lengths, fLength)
	}
	min, max, sum := lengths[0], lengths[0], 0
	for _, l := range lengths {
		if l < min {
			min = l
		}
		if l > max {
			max = l
		}
		sum += l
	}
	avg := sum / len(lengths)
	spreading := 0.0
	if avg != 0 {
		spreading = float64(max-min) / float64(avg)
	}
	return spreading <= lr.maxSpreading && spreading >= lr.minSpreading
}

// IsGoodFragment checks a single fragment against the length limits
func (f *Filter) IsGoodFragment(fragment *model.Fragment) bool {
	lr := f.requirements()
	return fragment.Valid() && fragment.Length() >= lr.minFragment &&
		(lr.maxFragment == -1 || fragment.Length() <= lr.maxFragment)
}

// filterBlock erases bad fragments; reports whether any were removed
func (f *Filter) filterBlock(b *model.Block) bool {
	removed := false
	for _, fragment := range append([]*model.Fragment(nil), b.Fragments()...) {
		if !f.IsGoodFragment(fragment) {
			b.Erase(fragment)
			removed = true
		}
	}
	return removed
}

// IsGoodBlock runs the whole quality gate over one block
func (f *Filter) IsGoodBlock(b *model.Block) bool {
	for _, fragment := range b.Fragments() {
		if !f.IsGoodFragment(fragment) {
			return false
		}
	}
	lr := f.requirements()
	if b.Size() < f.OptInt("min-block") {
		return false
	}
	maxBlock := f.OptInt("max-block")
	if maxBlock != -1 && b.Size() > maxBlock {
		return false
	}
	spreading := b.Spreading()
	if spreading < lr.minSpreading || spreading > lr.maxSpreading {
		return false
	}
	if b.HasRows() {
		stat := model.MakeStat(b)
		identity := model.BlockIdentity(stat, false)
		gapsShare := 0.0
		if stat.Total > 0 {
			gapsShare = float64(stat.IdentGap+stat.NoidentGap) /
				float64(stat.Total)
		}
		if identity < lr.minIdentity || identity > lr.maxIdentity {
			return false
		}
		if gapsShare < lr.minGaps || gapsShare > lr.maxGaps {
			return false
		}
		// the edge windows are checked only for high identity
		// thresholds, as the source did
		if f.OptBool("edge-window-check") && lr.minIdentity > 0.05 {
			if !f.goodEdges(b, lr) {
				return false
			}
		}
	}
	return true
}

func (f *Filter) goodEdges(b *model.Block, lr lengthRequirements) bool {
	alignmentLength := b.AlignmentLength()
	frame := lr.maxFrame(alignmentLength)
	var statStart, statStop identGapStat
	for pos := 0; pos < frame; pos++ {
		ident, gap, _ := model.TestColumn(b, pos)
		statStart.add(gap, ident)
	}
	if !goodContents(&statStart, lr) {
		return false
	}
	for pos := alignmentLength - frame; pos < alignmentLength; pos++ {
		ident, gap, _ := model.TestColumn(b, pos)
		statStop.add(gap, ident)
	}
	return goodContents(&statStop, lr)
}

// FindGoodSubblocks slides windows over a bad block's alignment and
// carves out every maximal range whose columns pass the content
// tests; candidates are clipped and re-validated.
func (f *Filter) FindGoodSubblocks(b *model.Block) []*model.Block {
	if b.Size() < f.OptInt("min-block") || !b.HasRows() {
		return nil
	}
	lr := f.requirements()
	alignmentLength := b.AlignmentLength()
	if alignmentLength < lr.minFragment {
		return nil
	}
	gap := make([]bool, alignmentLength)
	ident := make([]bool, alignmentLength)
	for i := 0; i < alignmentLength; i++ {
		identCol, gapCol, _ := model.TestColumn(b, i)
		ident[i] = identCol
		gap[i] = gapCol
	}
	minTest := lr.minFragment
	maxTest := lr.maxFrame(alignmentLength)
	cand := make([]bool, alignmentLength)
	for test := maxTest; test >= minTest; test-- {
		start := 0
		stop := start + test - 1
		var stat identGapStat
		for pos := start; pos <= stop; pos++ {
			stat.add(gap[pos], ident[pos])
		}
		for {
			if goodContents(&stat, lr) {
				for j := start; j <= stop; j++ {
					cand[j] = true
				}
			}
			if stop+1 >= alignmentLength {
				break
			}
			stop++
			stat.add(gap[stop], ident[stop])
			stat.del(gap[start], ident[start])
			start++
		}
	}
	var good []*model.Block
	start := -1
	flush := func(stop int) {
		if start == -1 {
			return
		}
		sub := b.Slice(start, stop)
		if f.IsGoodBlock(sub) {
			good = append(good, sub)
		}
		start = -1
	}
	for i := 0; i < alignmentLength; i++ {
		if cand[i] && start == -1 {
			start = i
		} else if !cand[i] {
			flush(i - 1)
		}
	}
	flush(alignmentLength - 1)
	return good
}

func (f *Filter) processBlock(b *model.Block, state interface{}) error {
	data := state.(*BlocksMutations)
	goodToOther := f.OptBool("good-to-other")
	good := f.IsGoodBlock(b)
	if goodToOther {
		if good {
			data.ToInsert = append(data.ToInsert, b.Clone())
		}
		return nil
	}
	if good {
		return nil
	}
	findSubblocks := f.OptBool("find-subblocks")
	var subblocks []*model.Block
	if findSubblocks {
		subblocks = f.FindGoodSubblocks(b)
	}
	if len(subblocks) > 0 {
		data.ToErase = append(data.ToErase, b)
		data.ToInsert = append(data.ToInsert, subblocks...)
		return nil
	}
	if f.filterBlock(b) {
		// some fragments were removed
		if f.IsGoodBlock(b) {
			return nil
		}
		if findSubblocks {
			subblocks = f.FindGoodSubblocks(b)
		}
		data.ToErase = append(data.ToErase, b)
		data.ToInsert = append(data.ToInsert, subblocks...)
		return nil
	}
	data.ToErase = append(data.ToErase, b)
	return nil
}

func (f *Filter) afterThread(state interface{}) error {
	data := state.(*BlocksMutations)
	if f.OptBool("good-to-other") {
		data.Apply(f.Other())
		return nil
	}
	data.Apply(f.BlockSet())
	return nil
}
