package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// VERSION is the fmhcov release version, bumped by hand alongside tagged
// releases.
const VERSION = "0.1.0"

// RootCmd is the base command when fmhcov is called without subcommands.
var RootCmd = &cobra.Command{
	Use:   "fmhcov",
	Short: "FracMinHash contig coverage/ANI estimator",
	Long: fmt.Sprintf(`fmhcov - FracMinHash contig coverage and ANI estimator

A command-line toolkit for estimating per-contig sequencing coverage and
average nucleotide identity (ANI) of reference genomes against
metagenomic read sets, using FracMinHash k-mer sketching instead of
full alignment.

Version: %s

`, VERSION),
}

// Execute adds all child commands to RootCmd and runs it. Called once by
// main.main().
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	defaultThreads := runtime.NumCPU()
	if defaultThreads > 2 {
		defaultThreads = 2
	}

	RootCmd.PersistentFlags().IntP("threads", "j", defaultThreads, "number of CPUs to use")
	RootCmd.PersistentFlags().BoolP("verbose", "", false, "print verbose information")
	RootCmd.PersistentFlags().BoolP("no-compress", "C", false, "do not gzip-compress sketch files (not recommended)")
	RootCmd.PersistentFlags().IntP("compression-level", "", 6, "gzip compression level for sketch files (accepted but not applied: sketch files use gzip's default level)")
	RootCmd.PersistentFlags().StringP("infile-list", "i", "", "file of newline-delimited input file paths, appended to any given on the command line")
}
