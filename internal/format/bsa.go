package format

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/zer0main/npge/internal/model"
)

// Block-set alignment textual form: one line per sequence, the
// sequence name followed by tab-separated oriented block references.
// A reverse occurrence is prefixed with '-'; a bare '-' is a gap.

// WriteBSA renders one named block-set alignment
func WriteBSA(w io.Writer, bsa *model.BSA) error {
	for _, row := range bsa.Rows {
		fields := make([]string, 0, len(row.Refs)+1)
		fields = append(fields, row.Seq.Name())
		for _, ref := range row.Refs {
			switch {
			case ref.IsGap():
				fields = append(fields, "-")
			case ref.Ori == -1:
				fields = append(fields, "-"+ref.Block.Name())
			default:
				fields = append(fields, ref.Block.Name())
			}
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// ReadBSA parses a block-set alignment; sequences and blocks are
// resolved against the block set by name.
func ReadBSA(in io.Reader, bs *model.BlockSet) (*model.BSA, error) {
	bsa := model.NewBSA()
	scanner := bufio.NewScanner(in)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), " \t\r")
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		seq := bs.SeqByName(fields[0])
		if seq == nil {
			return nil, &ParseError{"", line, "unknown sequence " + fields[0]}
		}
		row := &model.BSARow{Seq: seq}
		for _, field := range fields[1:] {
			if field == "-" {
				row.Refs = append(row.Refs, model.BSARef{})
				continue
			}
			ori := 1
			name := field
			if strings.HasPrefix(field, "-") {
				ori = -1
				name = field[1:]
			}
			block := bs.BlockByName(name)
			if block == nil {
				return nil, &ParseError{"", line, "unknown block " + name}
			}
			row.Refs = append(row.Refs, model.BSARef{Block: block, Ori: ori})
		}
		bsa.AddRow(row)
	}
	return bsa, scanner.Err()
}
