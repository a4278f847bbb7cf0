package algo

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/zer0main/npge/internal/model"
)

// Interrupter is the shared cancellation flag. Processors check it
// before starting and between child processors; workers check it
// between blocks.
type Interrupter struct {
	flag int32
}

// Interrupt raises the flag; the pipeline unwinds at the next check
func (i *Interrupter) Interrupt() {
	atomic.StoreInt32(&i.flag, 1)
}

// Check returns ErrInterrupted once the flag is raised
func (i *Interrupter) Check() error {
	if atomic.LoadInt32(&i.flag) != 0 {
		return ErrInterrupted
	}
	return nil
}

// Processor is a named unit of work over block sets. Concrete
// processors embed it, declare options in their constructors and set
// runImpl. Block sets are attached to named slots; every processor
// declares at least "target", most also "other".
type Processor struct {
	name string

	opts       []*option
	optByName  map[string]*option
	optRules   []optRule
	validators []func() error
	ignored    map[string]bool

	// blockSets maps declared slot names to attached sets
	blockSets map[string]*model.BlockSet
	declared  []string

	parent   *Processor
	children []*Processor

	meta        *Meta
	interrupter *Interrupter

	runImpl func() error

	// tmpFiles are removed on Close unless DEBUG_TMP_FILES is set
	tmpFiles []string
}

// NewProcessor creates a processor with the target slot declared and
// the standard --workers and --timing options.
func NewProcessor(name string) *Processor {
	p := &Processor{
		name:        name,
		optByName:   make(map[string]*option),
		blockSets:   make(map[string]*model.BlockSet),
		ignored:     make(map[string]bool),
		meta:        NewMeta(),
		interrupter: &Interrupter{},
	}
	p.DeclareBS("target", "Target blockset")
	p.AddGlobalOpt("workers", "Number of threads, -1 is all cores",
		"WORKERS", IntOpt)
	p.AddOpt("timing", "Log spent time", false)
	return p
}

func (p *Processor) Name() string { return p.name }

// SetRunImpl installs the processor body; called by constructors of
// concrete processors.
func (p *Processor) SetRunImpl(impl func() error) { p.runImpl = impl }

// DeclareBS declares a named block-set slot
func (p *Processor) DeclareBS(name, descr string) {
	if _, ok := p.blockSets[name]; !ok {
		p.blockSets[name] = nil
		p.declared = append(p.declared, name)
	}
}

// SetBS attaches a block set to a declared slot
func (p *Processor) SetBS(name string, bs *model.BlockSet) {
	p.blockSets[name] = bs
}

// GetBS returns the block set of a slot, creating an empty one for a
// declared slot that was never attached.
func (p *Processor) GetBS(name string) *model.BlockSet {
	if bs := p.blockSets[name]; bs != nil {
		return bs
	}
	bs := model.NewBlockSet()
	p.blockSets[name] = bs
	return bs
}

// BlockSet is the target slot shortcut
func (p *Processor) BlockSet() *model.BlockSet { return p.GetBS("target") }

// Other is the other slot shortcut
func (p *Processor) Other() *model.BlockSet { return p.GetBS("other") }

// SetMeta replaces the configuration registry; propagates to children
func (p *Processor) SetMeta(m *Meta) {
	p.meta = m
	for _, child := range p.children {
		child.SetMeta(m)
	}
}

func (p *Processor) Meta() *Meta { return p.meta }

// SetInterrupter shares a cancellation flag; propagates to children
func (p *Processor) SetInterrupter(i *Interrupter) {
	p.interrupter = i
	for _, child := range p.children {
		child.SetInterrupter(i)
	}
}

func (p *Processor) Interrupter() *Interrupter { return p.interrupter }

// AddChild appends a child processor; the child inherits block sets
// at run time, plus meta and the interrupter now.
func (p *Processor) AddChild(child *Processor) {
	child.parent = p
	p.children = append(p.children, child)
	child.SetMeta(p.meta)
	child.SetInterrupter(p.interrupter)
	for name := range p.ignored {
		child.AddIgnoredOption(name)
	}
}

func (p *Processor) Children() []*Processor { return p.children }

// Workers resolves the --workers option; -1 maps to all cores
func (p *Processor) Workers() int {
	w := p.OptInt("workers")
	if w == -1 {
		return runtime.NumCPU()
	}
	if w < 1 {
		return 1
	}
	return w
}

// Run validates options, checks the interrupt flag and executes the
// processor body.
func (p *Processor) Run() error {
	if err := p.interrupter.Check(); err != nil {
		return err
	}
	if err := p.ValidateOptions(); err != nil {
		return err
	}
	if p.runImpl == nil {
		return nil
	}
	if p.OptBool("timing") {
		defer log.Printf("%s: done", p.name)
	}
	if err := p.runImpl(); err != nil {
		return fmt.Errorf("%s: %w", p.name, err)
	}
	return nil
}

// Apply runs the processor against a block set, restoring the
// previously attached target afterwards.
func (p *Processor) Apply(bs *model.BlockSet) error {
	prev := p.blockSets["target"]
	p.SetBS("target", bs)
	err := p.Run()
	p.blockSets["target"] = prev
	return err
}

// TrackTmpFile registers a temporary file for removal on Close
func (p *Processor) TrackTmpFile(path string) {
	p.tmpFiles = append(p.tmpFiles, path)
}

// Close removes tracked temporary files unless the debug flag keeps them
func (p *Processor) Close() {
	if v, ok := p.meta.Get("DEBUG_TMP_FILES"); ok {
		if keep, _ := v.(bool); keep {
			return
		}
	}
	for _, path := range p.tmpFiles {
		os.Remove(path)
	}
	p.tmpFiles = nil
}

// Tree renders the processor hierarchy, one node per line
func (p *Processor) Tree() string {
	var b strings.Builder
	p.tree(&b, 0)
	return b.String()
}

func (p *Processor) tree(b *strings.Builder, depth int) {
	fmt.Fprintf(b, "%s%s\n", strings.Repeat("  ", depth), p.name)
	for _, child := range p.children {
		child.tree(b, depth+1)
	}
}

// Pipe runs child processors in order over the same slots, checking
// the interrupt flag between them.
type Pipe struct {
	*Processor
}

// NewPipe creates an empty pipeline
func NewPipe(name string) *Pipe {
	pipe := &Pipe{Processor: NewProcessor(name)}
	pipe.DeclareBS("other", "Other blockset")
	pipe.SetRunImpl(pipe.run)
	return pipe
}

// Add appends a step; slots propagate at run time
func (p *Pipe) Add(child *Processor) *Pipe {
	p.AddChild(child)
	return p
}

func (p *Pipe) run() error {
	for _, child := range p.children {
		if err := p.interrupter.Check(); err != nil {
			return err
		}
		for name, bs := range p.blockSets {
			if _, declared := child.blockSets[name]; declared || bs != nil {
				child.blockSets[name] = bs
			}
		}
		if err := child.Run(); err != nil {
			return err
		}
	}
	return nil
}
