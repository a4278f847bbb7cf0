// Package format reads and writes the line-oriented block-set text
// format and FASTA input.
package format

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/zer0main/npge/internal/model"
)

// ParseError reports malformed input with its location
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// Reader restores a block set from the text format. Records starting
// with '>' carry either a sequence header
// (NAME genome=G chromosome=C circular=0|1) followed by the wrapped
// sequence body, or a fragment header (SEQ_BEGIN_LAST block=NAME,
// optionally norow) followed by the fragment's gapped row.
type Reader struct {
	// RowKind selects the storage of parsed alignment rows
	RowKind model.RowKind

	// StoreKind selects the storage of parsed sequences
	StoreKind model.StoreKind

	// SkipBadRecords makes the reader drop malformed fragment
	// records instead of failing
	SkipBadRecords bool

	file string
}

type record struct {
	header string
	body   []string
	line   int
}

func (r *Reader) readRecords(in io.Reader) ([]record, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	var records []record
	var current *record
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.HasPrefix(text, ">") {
			records = append(records, record{
				header: strings.TrimSpace(text[1:]),
				line:   line,
			})
			current = &records[len(records)-1]
			continue
		}
		if text == "" {
			current = nil
			continue
		}
		if current == nil {
			return nil, &ParseError{r.file, line, "body without a header"}
		}
		current.body = append(current.body, text)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// headerFields splits "NAME key=value ..." into the name and the tags
func headerFields(header string) (string, map[string]string) {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return "", nil
	}
	tags := make(map[string]string)
	for _, field := range fields[1:] {
		field = strings.Trim(field, "\"")
		if eq := strings.IndexByte(field, '='); eq != -1 {
			tags[field[:eq]] = field[eq+1:]
		} else {
			tags[field] = ""
		}
	}
	return fields[0], tags
}

// Read parses records into the block set. Sequences must appear
// before fragments referencing them; fragments of one block are
// grouped by their block=NAME tag.
func (r *Reader) Read(in io.Reader, bs *model.BlockSet) error {
	records, err := r.readRecords(in)
	if err != nil {
		return err
	}
	blocks := make(map[string]*model.Block)
	for _, rec := range records {
		name, tags := headerFields(rec.header)
		if name == "" {
			return &ParseError{r.file, rec.line, "empty record name"}
		}
		if _, isFragment := tags["block"]; !isFragment {
			seq := model.NewSequence(name,
				strings.Join(rec.body, ""), r.StoreKind)
			seq.SetGenome(tags["genome"])
			seq.SetChromosome(tags["chromosome"])
			seq.SetCircular(tags["circular"] == "1")
			bs.AddSequence(seq)
			continue
		}
		if err := r.readFragment(bs, blocks, rec, name, tags); err != nil {
			if r.SkipBadRecords {
				continue
			}
			return err
		}
	}
	for _, block := range blocks {
		bs.Insert(block)
	}
	return bs.Validate()
}

func (r *Reader) readFragment(bs *model.BlockSet,
	blocks map[string]*model.Block, rec record,
	name string, tags map[string]string) error {
	seqName, begin, last, err := model.ParseFragmentID(name)
	if err != nil {
		return &ParseError{r.file, rec.line, err.Error()}
	}
	seq := bs.SeqByName(seqName)
	if seq == nil {
		return &ParseError{r.file, rec.line, "unknown sequence " + seqName}
	}
	f := model.NewFragment(seq, 0, 0, 1)
	if last == -1 {
		// one-base reverse fragment, see Fragment.ID
		f.SetBeginLast(begin, begin)
		f.Inverse()
	} else {
		f.SetBeginLast(begin, last)
	}
	if f.MaxPos() >= seq.Length() {
		return &ParseError{r.file, rec.line, "fragment beyond sequence end"}
	}
	body := strings.Join(rec.body, "")
	_, norow := tags["norow"]
	if !norow {
		if len(body) < f.Length() {
			return &ParseError{r.file, rec.line, "row shorter than fragment"}
		}
		row := model.NewRow(r.RowKind)
		row.Grow(body)
		f.SetRow(row)
	}
	blockName := tags["block"]
	block := blocks[blockName]
	if block == nil {
		block = model.NewBlock()
		block.SetName(blockName)
		blocks[blockName] = block
	}
	block.Insert(f)
	return nil
}

// ReadFile opens and parses a block-set file; a .zst suffix enables
// transparent decompression.
func (r *Reader) ReadFile(path string, bs *model.BlockSet) error {
	r.file = path
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()
	var src io.Reader = in
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(in)
		if err != nil {
			return err
		}
		defer dec.Close()
		src = dec
	}
	return r.Read(src, bs)
}
