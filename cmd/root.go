// Package cmd is for command line interactions with the npge application
package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zer0main/npge/config"
)

// exit codes: 0 success, 15 script error, 255 option or runtime error
const (
	exitOK          = 0
	exitScriptError = 15
	exitError       = 255
)

var (
	cfgFile   string
	dumpCfg   bool
	debugMode bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "npge",
	Short: `Build a nucleotide pan-genome from genomic sequences.
Discovers blocks of homologous fragments and tiles each input sequence`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(cfgFile); err != nil {
			return err
		}
		if dumpCfg {
			fmt.Print(config.Dump())
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if debugMode {
			panic(err)
		}
		log.Printf("%v", err)
		os.Exit(exitError)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file path")
	rootCmd.PersistentFlags().BoolVarP(&dumpCfg, "dump-config", "g", false,
		"dump current configuration")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false,
		"disable error catching")
	rootCmd.PersistentFlags().Int("workers", 1,
		"number of threads, -1 is all cores")
	viper.BindPFlag("WORKERS", rootCmd.PersistentFlags().Lookup("workers"))
}
