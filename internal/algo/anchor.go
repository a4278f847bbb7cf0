package algo

import (
	"sync"

	"github.com/cespare/xxhash"

	"github.com/zer0main/npge/internal/model"
)

// AnchorFinder discovers every k-mer occurring at least twice across
// the target's sequences and emits each group as a block of length-k
// fragments.
//
// Pass 1 adds the rolling strand-canonical hash of every window to a
// bloom filter. Pass 2 re-streams the windows whose hash tests positive
// into a table keyed by the literal canonical k-mer. Since pass 1 added
// every window, that test passes for all of them: the filter drops no
// window, and repeated k-mers are told from single ones by the table
// alone, whose single-occurrence buckets are not emitted.
// The table is sharded by k-mer hash; each worker owns its shards.
type AnchorFinder struct {
	*Processor
}

// anchorOcc is one k-mer occurrence in oriented coordinates
type anchorOcc struct {
	seq *model.Sequence
	pos int
	ori int
}

// NewAnchorFinder declares the anchor options
func NewAnchorFinder() *AnchorFinder {
	a := &AnchorFinder{Processor: NewProcessor("anchor-finder")}
	a.AddGlobalOpt("anchor-size", "Anchor size", "ANCHOR_SIZE", IntOpt)
	a.AddOpt("only-ori",
		"Find anchors only on a strand: -1, 1, or 0 for both", 0)
	a.AddOpt("palindromes-elimination",
		"Eliminate palindrome anchors", true)
	a.AddOpt("cycles-allowed",
		"Treat circular sequences as circular", true)
	a.AddGlobalOpt("bloom-fp-rate",
		"False positive rate of the bloom filter", "BLOOM_FP_RATE", FloatOpt)
	a.AddOptRule("anchor-size > 1")
	a.SetRunImpl(a.run)
	return a
}

// windows counts the k-mer windows of one sequence
func windows(seq *model.Sequence, k int, cycles bool) int {
	n := seq.Length() - k + 1
	if n < 0 {
		n = 0
	}
	if cycles && seq.Circular() && seq.Length() >= k {
		n = seq.Length()
	}
	return n
}

// streamWindows calls visit for every k-mer window of seq with its
// canonical hash and forward text. Windows containing N are skipped.
// On circular sequences windows wrap across the origin.
func streamWindows(seq *model.Sequence, k int, cycles bool,
	visit func(pos int, hash uint64, kmer string)) {
	total := windows(seq, k, cycles)
	if total == 0 {
		return
	}
	charAt := func(i int) byte {
		if i >= seq.Length() {
			i -= seq.Length()
		}
		return seq.CharAt(i)
	}
	kmer := make([]byte, k)
	hasher := model.NewRollingHasher(k)
	lastN := -1
	for i := 0; i < k; i++ {
		kmer[i] = charAt(i)
		if kmer[i] == 'N' {
			lastN = i
		}
	}
	hasher.Reset(string(kmer))
	ordered := make([]byte, k)
	for pos := 0; ; pos++ {
		if lastN < pos {
			// the ring buffer starts at slot pos%k
			off := pos % k
			copy(ordered, kmer[off:])
			copy(ordered[k-off:], kmer[:off])
			visit(pos, hasher.Hash(), string(ordered))
		}
		if pos+1 >= total {
			break
		}
		out := kmer[pos%k]
		in := charAt(pos + k)
		hasher.Roll(out, in)
		kmer[pos%k] = in
		if in == 'N' {
			lastN = pos + k
		}
	}
}

// canonicalKmer returns the lexicographically smaller of the k-mer
// and its reverse complement, plus the orientation that produced it.
func canonicalKmer(kmer string) (string, int) {
	rc := model.ReverseComplement(kmer)
	if rc < kmer {
		return rc, -1
	}
	return kmer, 1
}

func (a *AnchorFinder) run() error {
	bs := a.BlockSet()
	k := a.OptInt("anchor-size")
	onlyOri := a.OptInt("only-ori")
	elimPalindromes := a.OptBool("palindromes-elimination")
	cycles := a.OptBool("cycles-allowed")
	workers := a.Workers()

	members := 0
	for _, seq := range bs.Seqs() {
		members += windows(seq, k, cycles)
	}
	if members == 0 {
		return nil
	}
	bloom := NewBloomFilter(members, a.OptFloat("bloom-fp-rate"))

	// pass 1: bloom prefilter, sequences streamed in parallel
	var wg sync.WaitGroup
	seqCh := make(chan *model.Sequence)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seq := range seqCh {
				streamWindows(seq, k, cycles,
					func(pos int, hash uint64, kmer string) {
						bloom.TestAndAdd(hash)
					})
			}
		}()
	}
	for _, seq := range bs.Seqs() {
		seqCh <- seq
	}
	close(seqCh)
	wg.Wait()

	if err := a.interrupter.Check(); err != nil {
		return err
	}

	// pass 2: exact reconciliation over sharded tables. Each worker
	// owns the shards congruent to its index and re-streams every
	// sequence, so no locking is needed inside a shard.
	type bucket struct {
		occs []anchorOcc
	}
	tables := make([]map[string]*bucket, workers)
	var wg2 sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg2.Add(1)
		go func(w int) {
			defer wg2.Done()
			table := make(map[string]*bucket)
			tables[w] = table
			for _, seq := range bs.Seqs() {
				streamWindows(seq, k, cycles,
					func(pos int, hash uint64, kmer string) {
						if !bloom.Test(hash) {
							return
						}
						canon, ori := canonicalKmer(kmer)
						switch onlyOri {
						case 1:
							canon, ori = kmer, 1
						case -1:
							canon, ori = model.ReverseComplement(kmer), -1
						}
						if workers > 1 &&
							int(xxhash.Sum64String(canon)%uint64(workers)) != w {
							return
						}
						b := table[canon]
						if b == nil {
							b = &bucket{}
							table[canon] = b
						}
						b.occs = append(b.occs,
							anchorOcc{seq: seq, pos: pos, ori: ori})
					})
			}
		}(w)
	}
	wg2.Wait()

	if err := a.interrupter.Check(); err != nil {
		return err
	}

	// emit buckets with two or more occurrences as anchor blocks
	var mutations BlocksMutations
	for _, table := range tables {
		for canon, b := range table {
			palindrome := canon == model.ReverseComplement(canon)
			if elimPalindromes && palindrome {
				continue
			}
			if !palindrome && len(b.occs) < 2 {
				continue
			}
			block := model.NewBlock()
			for _, occ := range b.occs {
				maxPos := occ.pos + k - 1
				if maxPos >= occ.seq.Length() {
					// a window straddling the origin of a circular
					// sequence is clipped at the end; expansion with
					// cycles regrows it
					maxPos = occ.seq.Length() - 1
				}
				block.Insert(model.NewFragment(occ.seq, occ.pos, maxPos, occ.ori))
				if palindrome && onlyOri == 0 {
					// a palindrome occurs on both strands at once
					block.Insert(model.NewFragment(
						occ.seq, occ.pos, maxPos, -occ.ori))
				}
			}
			if block.Size() < 2 {
				block.Clear()
				continue
			}
			block.SetName(block.CanonicalName())
			mutations.ToInsert = append(mutations.ToInsert, block)
		}
	}
	mutations.Apply(bs)
	return nil
}
