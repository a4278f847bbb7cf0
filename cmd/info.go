package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/zer0main/npge/internal/format"
	"github.com/zer0main/npge/internal/model"
)

// infoCmd prints statistics of a block-set file.
var infoCmd = &cobra.Command{
	Use:                        "info [blockset]",
	Short:                      "Print block-set statistics",
	SuggestionsMinimumDistance: 2,
	Args:                       cobra.ExactArgs(1),
	Run:                        runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) {
	bs := model.NewBlockSet()
	r := &format.Reader{RowKind: model.CompactRowKind}
	if err := r.ReadFile(args[0], bs); err != nil {
		log.Printf("failed to read %s: %v", args[0], err)
		os.Exit(exitError)
	}
	fmt.Printf("sequences: %d\n", len(bs.Seqs()))
	fmt.Printf("blocks: %d\n", bs.Size())
	fragments := 0
	identitySum := 0.0
	aligned := 0
	for _, b := range bs.Blocks() {
		fragments += b.Size()
		if b.HasRows() {
			identitySum += b.Identity()
			aligned++
		}
	}
	fmt.Printf("fragments: %d\n", fragments)
	if aligned > 0 {
		fmt.Printf("mean identity: %.4f\n", identitySum/float64(aligned))
	}
}
