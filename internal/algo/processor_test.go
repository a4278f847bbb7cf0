package algo

import (
	"errors"
	"os"
	"testing"

	"github.com/zer0main/npge/internal/model"
)

func testMeta(values map[string]interface{}) *Meta {
	return NewLocalMeta(values)
}

func TestOptionsDefaultsAndOverrides(t *testing.T) {
	p := NewProcessor("test")
	p.SetMeta(testMeta(map[string]interface{}{"WORKERS": 1}))
	p.AddOpt("min-length", "Minimum length", 100)
	p.AddOpt("ratio", "A ratio", 0.5)
	p.AddOpt("verbose", "Verbosity", false)
	if got := p.OptInt("min-length"); got != 100 {
		t.Errorf("default min-length = %d, want 100", got)
	}
	if err := p.SetOptValue("min-length", 25); err != nil {
		t.Fatalf("SetOptValue: %v", err)
	}
	if got := p.OptInt("min-length"); got != 25 {
		t.Errorf("min-length = %d after override, want 25", got)
	}
	if err := p.SetOptValue("nope", 1); err == nil {
		t.Errorf("setting unknown option did not fail")
	}
	var optErr *OptionError
	if err := p.SetOptValue("ratio", "not-a-number"); !errors.As(err, &optErr) {
		t.Errorf("type mismatch error = %v, want OptionError", err)
	}
}

func TestOptionsGlobalLateBinding(t *testing.T) {
	meta := testMeta(map[string]interface{}{
		"WORKERS":     1,
		"ANCHOR_SIZE": 17,
	})
	p := NewProcessor("test")
	p.SetMeta(meta)
	p.AddGlobalOpt("anchor-size", "Anchor size", "ANCHOR_SIZE", IntOpt)
	if got := p.OptInt("anchor-size"); got != 17 {
		t.Fatalf("anchor-size = %d, want 17", got)
	}
	// late binding: registry updates are observed on the next read
	meta.Set("ANCHOR_SIZE", 23)
	if got := p.OptInt("anchor-size"); got != 23 {
		t.Errorf("anchor-size = %d after registry update, want 23", got)
	}
	// explicit overrides win over the registry
	p.SetOptValue("anchor-size", 5)
	if got := p.OptInt("anchor-size"); got != 5 {
		t.Errorf("anchor-size = %d after override, want 5", got)
	}
}

func TestOptionsRules(t *testing.T) {
	p := NewProcessor("test")
	p.SetMeta(testMeta(map[string]interface{}{"WORKERS": 1}))
	p.AddOpt("min-fragment", "", 10)
	p.AddOpt("max-fragment", "", 100)
	p.AddOptRule("min-fragment <= max-fragment")
	if err := p.ValidateOptions(); err != nil {
		t.Fatalf("ValidateOptions: %v", err)
	}
	p.SetOptValue("min-fragment", 200)
	var optErr *OptionError
	if err := p.ValidateOptions(); !errors.As(err, &optErr) {
		t.Errorf("violated rule error = %v, want OptionError", err)
	}
}

func TestOptionsRuleLiteral(t *testing.T) {
	p := NewProcessor("test")
	p.SetMeta(testMeta(map[string]interface{}{"WORKERS": 1}))
	p.AddOpt("batch", "", 100)
	p.AddOptRule("batch > 0")
	if err := p.ValidateOptions(); err != nil {
		t.Fatalf("ValidateOptions: %v", err)
	}
	p.SetOptValue("batch", 0)
	if err := p.ValidateOptions(); err == nil {
		t.Errorf("batch > 0 rule not enforced")
	}
}

func TestApplyVectorOptions(t *testing.T) {
	p := NewProcessor("test")
	p.SetMeta(testMeta(map[string]interface{}{"WORKERS": 1}))
	p.AddOpt("min-length", "", 100)
	p.AddOpt("verbose", "", false)
	p.AddOpt("names", "", []string{})
	err := p.ApplyVectorOptions([]string{
		"--min-length=42",
		"--verbose",
		"--names", "a",
		"--names", "b",
		"--unknown-flag", "ignored",
	})
	if err != nil {
		t.Fatalf("ApplyVectorOptions: %v", err)
	}
	if got := p.OptInt("min-length"); got != 42 {
		t.Errorf("min-length = %d, want 42", got)
	}
	if !p.OptBool("verbose") {
		t.Errorf("verbose flag not set")
	}
	names := p.OptStringList("names")
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("names = %v, want [a b]", names)
	}
}

func TestOptionsIgnored(t *testing.T) {
	parent := NewProcessor("parent")
	parent.SetMeta(testMeta(map[string]interface{}{"WORKERS": 1}))
	child := NewProcessor("child")
	child.AddOpt("depth", "", 1)
	parent.AddChild(child)
	parent.AddIgnoredOption("depth")
	if err := child.ApplyVectorOptions([]string{"--depth", "9"}); err != nil {
		t.Fatalf("ApplyVectorOptions: %v", err)
	}
	if got := child.OptInt("depth"); got != 1 {
		t.Errorf("ignored option was applied: depth = %d", got)
	}
}

func TestPipeRunsChildrenInOrder(t *testing.T) {
	var order []string
	step := func(name string) *Processor {
		p := NewProcessor(name)
		p.SetRunImpl(func() error {
			order = append(order, name)
			return nil
		})
		return p
	}
	pipe := NewPipe("pipe")
	pipe.SetMeta(testMeta(map[string]interface{}{"WORKERS": 1}))
	pipe.Add(step("a")).Add(step("b")).Add(step("c"))
	pipe.SetBS("target", model.NewBlockSet())
	if err := pipe.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(order) != 3 || order[0] != "a" || order[2] != "c" {
		t.Errorf("order = %v", order)
	}
}

func TestPipeInterrupted(t *testing.T) {
	pipe := NewPipe("pipe")
	pipe.SetMeta(testMeta(map[string]interface{}{"WORKERS": 1}))
	first := NewProcessor("first")
	first.SetRunImpl(func() error {
		pipe.Interrupter().Interrupt()
		return nil
	})
	ran := false
	second := NewProcessor("second")
	second.SetRunImpl(func() error {
		ran = true
		return nil
	})
	pipe.Add(first).Add(second)
	pipe.SetBS("target", model.NewBlockSet())
	err := pipe.Run()
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("Run = %v, want ErrInterrupted", err)
	}
	if ran {
		t.Errorf("second processor ran after interrupt")
	}
}

func TestBlocksJobParallelMerge(t *testing.T) {
	bs := model.NewBlockSet()
	seq := model.NewSequence("s1", "ACGTACGTACGTACGTACGT", model.ASCIIStore)
	bs.AddSequence(seq)
	for i := 0; i < 10; i++ {
		b := model.NewBlock()
		b.Insert(model.NewFragment(seq, i, i+1, 1))
		bs.Insert(b)
	}
	job := NewBlocksJob("count")
	job.SetMeta(testMeta(map[string]interface{}{"WORKERS": 4}))
	job.BeforeThread = func() interface{} { return &BlocksMutations{} }
	job.ProcessBlock = func(b *model.Block, state interface{}) error {
		data := state.(*BlocksMutations)
		data.ToErase = append(data.ToErase, b)
		return nil
	}
	total := 0
	job.AfterThread = func(state interface{}) error {
		data := state.(*BlocksMutations)
		total += len(data.ToErase)
		data.Apply(job.BlockSet())
		return nil
	}
	job.SetBS("target", bs)
	if err := job.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 10 {
		t.Errorf("processed %d blocks, want 10", total)
	}
	if bs.Size() != 0 {
		t.Errorf("%d blocks remain after erase", bs.Size())
	}
}

func TestBlocksJobWorkerError(t *testing.T) {
	bs := model.NewBlockSet()
	seq := model.NewSequence("s1", "ACGTACGT", model.ASCIIStore)
	bs.AddSequence(seq)
	b := model.NewBlock()
	b.Insert(model.NewFragment(seq, 0, 3, 1))
	bs.Insert(b)
	job := NewBlocksJob("boom")
	job.SetMeta(testMeta(map[string]interface{}{"WORKERS": 4}))
	job.ProcessBlock = func(b *model.Block, state interface{}) error {
		panic("boom")
	}
	job.SetBS("target", bs)
	err := job.Run()
	var workerErr *WorkerError
	if !errors.As(err, &workerErr) {
		t.Fatalf("Run = %v, want WorkerError", err)
	}
}

func TestProcessorTmpFiles(t *testing.T) {
	p := NewProcessor("tmp")
	p.SetMeta(testMeta(map[string]interface{}{"WORKERS": 1}))
	f, err := os.CreateTemp(t.TempDir(), "npge-*")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	f.Close()
	p.TrackTmpFile(f.Name())
	p.Close()
	if _, err := os.Stat(f.Name()); !os.IsNotExist(err) {
		t.Errorf("tracked tmp file not removed")
	}
}

func TestProcessorKeepsTmpFilesInDebug(t *testing.T) {
	p := NewProcessor("tmp")
	p.SetMeta(testMeta(map[string]interface{}{
		"WORKERS":         1,
		"DEBUG_TMP_FILES": true,
	}))
	f, err := os.CreateTemp(t.TempDir(), "npge-*")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	f.Close()
	p.TrackTmpFile(f.Name())
	p.Close()
	if _, err := os.Stat(f.Name()); err != nil {
		t.Errorf("debug mode removed the tmp file: %v", err)
	}
}

func TestEmptyBlockSetThroughProcessors(t *testing.T) {
	bs := model.NewBlockSet()
	meta := testMeta(map[string]interface{}{
		"WORKERS":             1,
		"ANCHOR_SIZE":         5,
		"MIN_LENGTH":          3,
		"MIN_IDENTITY":        0.9,
		"MAX_SPREADING":       0.2,
		"MAX_GAPS":            0.2,
		"ALIGNER_BATCH":       100,
		"ALIGNER_GAP_RANGE":   5,
		"ALIGNER_MAX_ERRORS":  5,
		"ALIGNER_GAP_PENALTY": 2,
		"BLOOM_FP_RATE":       0.01,
	})
	processors := []*Processor{
		NewAnchorFinder().Processor,
		NewExpandFragments().Processor,
		NewExpandBlocks().Processor,
		NewResolveOverlaps().Processor,
		NewAlign().Processor,
		NewFilter().Processor,
		NewJoiner().Processor,
		NewCheckNoOverlaps().Processor,
	}
	for _, p := range processors {
		p.SetMeta(meta)
		if err := p.Apply(bs); err != nil {
			t.Errorf("%s failed on empty block set: %v", p.Name(), err)
		}
	}
	if bs.Size() != 0 {
		t.Errorf("empty block set grew to %d blocks", bs.Size())
	}
}
