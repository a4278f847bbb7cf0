package algo

import (
	"fmt"
	"sort"
	"sync"

	"github.com/zer0main/npge/internal/model"
)

// BlocksJob dispatches the target's blocks over a pool of workers.
// Each worker gets its own state from BeforeThread, processes blocks
// with ProcessBlock and hands the state back to AfterThread, which
// runs single-threaded after all workers join.
//
// With workers=1 everything runs inline, without goroutines and
// without panic recovery, so failures surface directly.
type BlocksJob struct {
	*Processor

	// BeforeThread builds per-worker state
	BeforeThread func() interface{}

	// ProcessBlock handles one block with the worker's state
	ProcessBlock func(b *model.Block, state interface{}) error

	// AfterThread merges one worker's state into the target
	AfterThread func(state interface{}) error

	// ChangeBlocks optionally adjusts the dispatch list
	ChangeBlocks func(blocks []*model.Block)
}

// NewBlocksJob wraps a processor with the block-parallel protocol
func NewBlocksJob(name string) *BlocksJob {
	j := &BlocksJob{Processor: NewProcessor(name)}
	j.DeclareBS("other", "Other blockset")
	j.SetRunImpl(j.run)
	return j
}

// sortBlocksForDispatch orders blocks by decreasing
// alignment_length * size to reduce tail latency.
func sortBlocksForDispatch(blocks []*model.Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		wi := blocks[i].AlignmentLength() * blocks[i].Size()
		wj := blocks[j].AlignmentLength() * blocks[j].Size()
		return wi > wj
	})
}

func (j *BlocksJob) run() error {
	blocks := j.BlockSet().Blocks()
	sortBlocksForDispatch(blocks)
	if j.ChangeBlocks != nil {
		j.ChangeBlocks(blocks)
	}
	workers := j.Workers()
	if workers == 1 {
		return j.runInline(blocks)
	}
	return j.runParallel(blocks, workers)
}

func (j *BlocksJob) runInline(blocks []*model.Block) error {
	var state interface{}
	if j.BeforeThread != nil {
		state = j.BeforeThread()
	}
	for _, b := range blocks {
		if err := j.interrupter.Check(); err != nil {
			return err
		}
		if err := j.ProcessBlock(b, state); err != nil {
			return err
		}
	}
	if j.AfterThread != nil {
		return j.AfterThread(state)
	}
	return nil
}

func (j *BlocksJob) runParallel(blocks []*model.Block, workers int) error {
	tasks := make(chan *model.Block)
	states := make([]interface{}, workers)
	failures := make([]string, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					failures[w] = fmt.Sprint(r)
					// drain so other workers can finish
					for range tasks {
					}
				}
			}()
			if j.BeforeThread != nil {
				states[w] = j.BeforeThread()
			}
			for b := range tasks {
				if j.interrupter.Check() != nil {
					continue
				}
				if err := j.ProcessBlock(b, states[w]); err != nil {
					failures[w] = err.Error()
					for range tasks {
					}
					return
				}
			}
		}(w)
	}
	for _, b := range blocks {
		tasks <- b
	}
	close(tasks)
	wg.Wait()
	var messages []string
	for _, msg := range failures {
		if msg != "" {
			messages = append(messages, msg)
		}
	}
	if len(messages) > 0 {
		return &WorkerError{Errors: messages}
	}
	if err := j.interrupter.Check(); err != nil {
		return err
	}
	if j.AfterThread != nil {
		for _, state := range states {
			if state == nil {
				continue
			}
			if err := j.AfterThread(state); err != nil {
				return err
			}
		}
	}
	return nil
}

// BlocksMutations collects block insertions and removals inside a
// worker; Apply commits them under the single-threaded merge,
// inserting in canonical-name order for deterministic output.
type BlocksMutations struct {
	ToInsert []*model.Block
	ToErase  []*model.Block
}

// Apply commits the mutations to a block set
func (m *BlocksMutations) Apply(bs *model.BlockSet) {
	for _, b := range m.ToErase {
		bs.Erase(b)
	}
	sort.Slice(m.ToInsert, func(i, j int) bool {
		return m.ToInsert[i].CanonicalName() < m.ToInsert[j].CanonicalName()
	})
	for _, b := range m.ToInsert {
		bs.Insert(b)
	}
}
