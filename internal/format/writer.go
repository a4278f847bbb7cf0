package format

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/zer0main/npge/internal/model"
)

// Writer renders a block set in the text format. Output is canonical:
// blocks are sorted by name, fragments by coordinates, bodies wrapped
// at a fixed width, so write(parse(x)) is stable.
type Writer struct {
	// DumpSeq writes sequence records before the blocks
	DumpSeq bool

	// DumpBlock writes the fragment records
	DumpBlock bool

	// ExportAlignment keeps gaps in fragment bodies
	ExportAlignment bool
}

// NewWriter returns a writer with blocks and alignment enabled
func NewWriter() *Writer {
	return &Writer{DumpBlock: true, ExportAlignment: true}
}

const lineWidth = 60

func wrapTo(w io.Writer, text string) error {
	for i := 0; i < len(text); i += lineWidth {
		end := i + lineWidth
		if end > len(text) {
			end = len(text)
		}
		if _, err := fmt.Fprintln(w, text[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// Write renders the block set
func (wr *Writer) Write(w io.Writer, bs *model.BlockSet) error {
	if wr.DumpSeq {
		for _, seq := range bs.Seqs() {
			if _, err := io.WriteString(w, seq.String()); err != nil {
				return err
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
	}
	if !wr.DumpBlock {
		return nil
	}
	for _, b := range bs.SortedBlocks() {
		if err := wr.writeBlock(w, b); err != nil {
			return err
		}
	}
	return nil
}

func (wr *Writer) writeBlock(w io.Writer, b *model.Block) error {
	name := b.Name()
	if name == "" {
		name = b.CanonicalName()
	}
	for _, f := range b.SortedFragments() {
		header := f.ID() + " block=" + name
		if f.Row() == nil {
			header += " norow"
		}
		if _, err := fmt.Fprintf(w, ">%s\n", header); err != nil {
			return err
		}
		body := f.Str()
		if wr.ExportAlignment && f.Row() != nil {
			body = f.RowStr()
		}
		if err := wrapTo(w, body); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// WriteFile writes a block-set file; a .zst suffix enables
// transparent compression.
func (wr *Writer) WriteFile(path string, bs *model.BlockSet) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	if strings.HasSuffix(path, ".zst") {
		enc, err := zstd.NewWriter(out)
		if err != nil {
			return err
		}
		if err := wr.Write(enc, bs); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	}
	return wr.Write(out, bs)
}
