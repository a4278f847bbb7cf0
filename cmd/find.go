package cmd

import (
	"errors"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zer0main/npge/internal/algo"
	"github.com/zer0main/npge/internal/format"
	"github.com/zer0main/npge/internal/model"
)

// findCmd runs the pan-genome pipeline over FASTA inputs.
var findCmd = &cobra.Command{
	Use:                        "find [fasta...]",
	Short:                      "Find homology blocks in the input sequences",
	SuggestionsMinimumDistance: 2,
	Args:                       cobra.MinimumNArgs(1),
	Example:                    "  npge find genomes.fasta -o pangenome.bs",
	Long: `Read genomic sequences from FASTA files, discover anchors,
expand and tile them, and write the resulting block set.`,
	Run: runFind,
}

var (
	findOut     string
	findCompact bool
)

func init() {
	findCmd.Flags().StringVarP(&findOut, "out", "o", "pangenome.bs",
		"output block-set file (.zst compresses)")
	findCmd.Flags().BoolVar(&findCompact, "compact-seqs", true,
		"store sequences packed at 2 bits per base")
	findCmd.Flags().Int("anchor-size", 0, "anchor k-mer length")
	viper.BindPFlag("ANCHOR_SIZE", findCmd.Flags().Lookup("anchor-size"))
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) {
	bs := model.NewBlockSet()
	kind := model.ASCIIStore
	if findCompact {
		kind = model.CompactStore
	}
	for _, path := range args {
		if err := format.ReadFastaFile(path, bs, kind); err != nil {
			log.Printf("failed to read %s: %v", path, err)
			os.Exit(exitError)
		}
	}
	log.Printf("%d sequences loaded", len(bs.Seqs()))

	pipe := algo.NewMakePangenome()
	interrupter := pipe.Interrupter()
	watchSignals(interrupter)
	pipe.SetBS("target", bs)
	if err := pipe.Run(); err != nil {
		if errors.Is(err, algo.ErrInterrupted) {
			log.Printf("interrupted")
			os.Exit(exitError)
		}
		log.Printf("pipeline failed: %v", err)
		os.Exit(exitError)
	}
	log.Printf("%d blocks found", bs.Size())

	w := format.NewWriter()
	w.DumpSeq = true
	if err := w.WriteFile(findOut, bs); err != nil {
		log.Printf("failed to write %s: %v", findOut, err)
		os.Exit(exitError)
	}
}
