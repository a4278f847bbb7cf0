// Package model holds the in-memory representation of a pan-genome:
// sequences, fragments, alignment rows, blocks and block sets.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// StoreKind selects the backing storage of a sequence
type StoreKind int

const (
	// ASCIIStore keeps one byte per base
	ASCIIStore StoreKind = iota

	// CompactStore packs bases into 2 bits each with a side table for runs of N
	CompactStore
)

// seqStore is the storage strategy behind a Sequence
type seqStore interface {
	charAt(i int) byte
	length() int
}

// asciiStore is the raw-string storage, one byte per base
type asciiStore struct {
	data string
}

func (s *asciiStore) charAt(i int) byte { return s.data[i] }
func (s *asciiStore) length() int       { return len(s.data) }

// nRun is a run of N bases kept outside the packed array
type nRun struct {
	start  int
	length int
}

// compactStore packs bases at 2 bits each. Runs of N are recorded
// in a sorted side table; their packed slots hold an arbitrary code.
type compactStore struct {
	packed []byte
	nRuns  []nRun
	size   int
}

func newCompactStore(text string) *compactStore {
	cs := &compactStore{
		packed: make([]byte, (len(text)+3)/4),
		size:   len(text),
	}
	runStart := -1
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == 'N' {
			if runStart == -1 {
				runStart = i
			}
			continue
		}
		if runStart != -1 {
			cs.nRuns = append(cs.nRuns, nRun{runStart, i - runStart})
			runStart = -1
		}
		cs.packed[i/4] |= baseCode(c) << uint((i%4)*2)
	}
	if runStart != -1 {
		cs.nRuns = append(cs.nRuns, nRun{runStart, len(text) - runStart})
	}
	return cs
}

func (s *compactStore) isN(i int) bool {
	j := sort.Search(len(s.nRuns), func(k int) bool {
		return s.nRuns[k].start+s.nRuns[k].length > i
	})
	return j < len(s.nRuns) && s.nRuns[j].start <= i
}

func (s *compactStore) charAt(i int) byte {
	if s.isN(i) {
		return 'N'
	}
	code := (s.packed[i/4] >> uint((i%4)*2)) & 3
	return codeBase(code)
}

func (s *compactStore) length() int { return s.size }

func baseCode(c byte) byte {
	switch c {
	case 'A':
		return 0
	case 'C':
		return 1
	case 'G':
		return 2
	case 'T':
		return 3
	}
	return 0
}

func codeBase(code byte) byte {
	return "ACGT"[code]
}

// Sequence is an immutable-after-construction DNA string over {A,C,G,T,N}
type Sequence struct {
	// name is the stable identifier of the sequence
	name string

	// genome and chromosome tags from the FASTA description
	genome     string
	chromosome string

	// circular marks chromosomes whose ends are adjacent
	circular bool

	store seqStore
}

// NewSequence canonicalizes text (uppercase, unknown letters become N)
// and stores it with the requested strategy.
func NewSequence(name, text string, kind StoreKind) *Sequence {
	canon := canonicalize(text)
	s := &Sequence{name: name}
	if kind == CompactStore {
		s.store = newCompactStore(canon)
	} else {
		s.store = &asciiStore{data: canon}
	}
	return s
}

func canonicalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		switch c {
		case 'A', 'C', 'G', 'T', 'N':
			b.WriteByte(c)
		default:
			b.WriteByte('N')
		}
	}
	return b.String()
}

func (s *Sequence) Name() string       { return s.name }
func (s *Sequence) Genome() string     { return s.genome }
func (s *Sequence) Chromosome() string { return s.chromosome }
func (s *Sequence) Circular() bool     { return s.circular }

func (s *Sequence) SetGenome(genome string)         { s.genome = genome }
func (s *Sequence) SetChromosome(chromosome string) { s.chromosome = chromosome }
func (s *Sequence) SetCircular(circular bool)       { s.circular = circular }

// Length returns the number of bases
func (s *Sequence) Length() int { return s.store.length() }

// CharAt returns the base at position i, 0 <= i < Length()
func (s *Sequence) CharAt(i int) byte { return s.store.charAt(i) }

// Substr returns length bases starting at start. With ori == -1 the
// result is the reverse complement of the same interval, read so that
// start is the first base of the oriented text.
func (s *Sequence) Substr(start, length, ori int) string {
	b := make([]byte, length)
	for i := 0; i < length; i++ {
		b[i] = s.store.charAt(start + ori*i)
	}
	if ori == -1 {
		for i := range b {
			b[i] = Complement(b[i])
		}
	}
	return string(b)
}

// Hash returns the orientation-canonical rolling hash of the interval.
// Hash(start, l, 1) of a substring equals Hash of the reverse
// complement interval taken with ori == -1.
func (s *Sequence) Hash(start, length, ori int) uint64 {
	var fwd, rev uint64
	pw := uint64(1)
	for i := 0; i < length; i++ {
		c := s.store.charAt(start + ori*i)
		if ori == -1 {
			c = Complement(c)
		}
		fwd = fwd*hashBase + hashCode(c)
		rev += hashCode(Complement(c)) * pw
		pw *= hashBase
	}
	return canonicalHash(fwd, rev)
}

// String formats the sequence as a FASTA-like record header plus body
func (s *Sequence) String() string {
	var b strings.Builder
	circ := 0
	if s.circular {
		circ = 1
	}
	fmt.Fprintf(&b, ">%s genome=%s chromosome=%s circular=%d\n",
		s.name, s.genome, s.chromosome, circ)
	const wrap = 60
	for i := 0; i < s.Length(); i += wrap {
		end := i + wrap
		if end > s.Length() {
			end = s.Length()
		}
		b.WriteString(s.Substr(i, end-i, 1))
		b.WriteByte('\n')
	}
	return b.String()
}

// Complement returns the Watson-Crick complement; complement of N is N
func Complement(c byte) byte {
	switch c {
	case 'A':
		return 'T'
	case 'T':
		return 'A'
	case 'C':
		return 'G'
	case 'G':
		return 'C'
	}
	return 'N'
}

// ReverseComplement returns the reverse complement of text
func ReverseComplement(text string) string {
	b := make([]byte, len(text))
	for i := 0; i < len(text); i++ {
		b[len(text)-1-i] = Complement(text[i])
	}
	return string(b)
}
