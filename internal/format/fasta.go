package format

import (
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"

	"github.com/zer0main/npge/internal/model"
)

// descTag extracts key=value tags from a FASTA description
func descTag(desc, key string) string {
	for _, field := range strings.Fields(desc) {
		if strings.HasPrefix(field, key+"=") {
			return field[len(key)+1:]
		}
	}
	return ""
}

// ReadFasta loads FASTA sequences into the block set. Description
// tags genome=, chromosome= and circular= are honored when present.
func ReadFasta(in io.Reader, bs *model.BlockSet, kind model.StoreKind) error {
	// DNAredundant admits N and the other IUPAC codes
	reader := fasta.NewReader(in, linear.NewSeq("", nil, alphabet.DNAredundant))
	for {
		s, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		l := s.(*linear.Seq)
		text := make([]byte, len(l.Seq))
		for i, letter := range l.Seq {
			text[i] = byte(letter)
		}
		seq := model.NewSequence(l.Name(), string(text), kind)
		desc := l.Description()
		seq.SetGenome(descTag(desc, "genome"))
		seq.SetChromosome(descTag(desc, "chromosome"))
		seq.SetCircular(descTag(desc, "circular") == "1")
		bs.AddSequence(seq)
	}
	return nil
}

// ReadFastaFile loads a FASTA file into the block set
func ReadFastaFile(path string, bs *model.BlockSet, kind model.StoreKind) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()
	return ReadFasta(in, bs, kind)
}
