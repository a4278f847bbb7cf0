package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/zer0main/npge/internal/algo"
)

// treeCmd prints the processor tree of the standard pipeline.
var treeCmd = &cobra.Command{
	Use:                        "tree",
	Short:                      "Print the processor tree",
	SuggestionsMinimumDistance: 2,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(algo.NewMakePangenome().Tree())
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
}

// watchSignals translates a terminal interrupt into the pipeline's
// cancellation flag; the pipeline unwinds at its next check.
func watchSignals(interrupter *algo.Interrupter) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	go func() {
		<-ch
		interrupter.Interrupt()
	}()
}
