package algo

import "github.com/zer0main/npge/internal/model"

// NewMakePangenome composes the standard pipeline: anchors are found
// and expanded, overlaps resolved into a tiling, blocks aligned,
// filtered and joined, and the final set re-aligned.
func NewMakePangenome() *Pipe {
	pipe := NewPipe("make-pangenome")
	pipe.Add(NewAnchorFinder().Processor)
	pipe.Add(NewExpandFragments().Processor)
	pipe.Add(NewResolveOverlaps().Processor)
	pipe.Add(NewAlign().Processor)
	pipe.Add(NewFilter().Processor)
	pipe.Add(NewJoiner().Processor)
	pipe.Add(NewAlign().Processor)
	return pipe
}

// CheckNoOverlaps verifies the tiling invariant after resolution;
// a failure is an invariant violation, not a recoverable error.
type CheckNoOverlaps struct {
	*Processor
}

// NewCheckNoOverlaps declares the check
func NewCheckNoOverlaps() *CheckNoOverlaps {
	c := &CheckNoOverlaps{Processor: NewProcessor("check-no-overlaps")}
	c.SetRunImpl(c.run)
	return c
}

func (c *CheckNoOverlaps) run() error {
	s2f := model.NewFragmentCollection(model.VectorCollection)
	s2f.AddBS(c.BlockSet())
	s2f.Prepare()
	model.Assert(!s2f.HasPartialOverlap(),
		"partial overlaps remain after resolution")
	return nil
}
