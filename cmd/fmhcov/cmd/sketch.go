package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shenwei356/fmhcov"
)

// sketchCmd implements `fmhcov sketch`: turn one or more samples' reads
// into reusable FracMinHash sketch files (§4.C), so later `fmhcov coverage`
// runs against many reference sets don't have to re-stream the raw reads.
// Grounded on shenwei356-unikmer/unikmer/cmd/count.go for the
// flags-to-sketch-to-file shape, extended to a batch of samples per
// original_source/src/main.rs's sketch subcommand (one invocation sketches
// every sample in a cohort in one pass).
var sketchCmd = &cobra.Command{
	Use:   "sketch [flags]",
	Short: "sketch sample reads into reusable FracMinHash sketch files",
	Run: func(cmd *cobra.Command, args []string) {
		opts := getOptions(cmd)
		k := getFlagPositiveInt(cmd, "kmer-size")
		c := getFlagUint64(cmd, "scale")
		fpr := getFlagFloat64(cmd, "fpr")
		if fpr < 0 || fpr >= 1 {
			checkError(fmt.Errorf("invalid value for fpr: %g, must be in [0, 1)", fpr))
		}
		noDedup := getFlagBool(cmd, "no-dedup")
		maxRAM := getFlagFloat64(cmd, "max-ram")
		outdir := getFlagString(cmd, "outdir")
		namesFile := getFlagString(cmd, "list-sample-names")
		namesInline := getFlagStringSlice(cmd, "sample-names")
		reads := getFlagStringSlice(cmd, "reads")
		mate1 := getFlagStringSlice(cmd, "mate1")
		mate2 := getFlagStringSlice(cmd, "mate2")

		paired := len(mate1) > 0 || len(mate2) > 0
		if paired && len(reads) > 0 {
			checkError(fmt.Errorf("-r/--reads cannot be combined with -1/-2"))
		}
		if paired && len(mate1) != len(mate2) {
			checkError(fmt.Errorf("-1/--mate1 and -2/--mate2 must list the same number of files"))
		}
		numSamples := len(reads)
		if paired {
			numSamples = len(mate1)
		}
		if numSamples == 0 {
			checkError(fmt.Errorf("no input reads given: use -r, or -1/-2 for paired samples"))
		}

		names := resolveSampleNames(namesFile, namesInline, numSamples, func(i int) string {
			if paired {
				return filepath.Base(mate1[i])
			}
			return filepath.Base(reads[i])
		})

		for i := 0; i < numSamples; i++ {
			ramGuard(maxRAM)

			var dedup fmhcov.Deduper
			if !noDedup {
				dedup = fmhcov.NewScalableCuckooDedup(1<<20, fpr)
			}

			var sketch *fmhcov.SampleSketch
			var err error
			if paired {
				checkFilesExist(mate1[i], mate2[i])
				pairs := []fmhcov.FilePair{{Mate1: mate1[i], Mate2: mate2[i]}}
				sketch, err = fmhcov.SketchPairedEnd(names[i], pairs, c, k, dedup)
			} else {
				checkFilesExist(reads[i])
				sketch, err = fmhcov.SketchSingleEnd(names[i], []string{reads[i]}, c, k, dedup)
			}
			checkError(err)

			if opts.Verbose {
				log.Infof("sample %s: %d reads, %d distinct k-mers, mean read length %.1f",
					sketch.SampleName, sketch.NumReads, len(sketch.KmerCounts), sketch.MeanReadLength)
			}

			suffix := ".bcsp"
			if paired {
				suffix = ".paired.bcsp"
			}
			output := filepath.Join(outdir, sketch.SampleName+suffix)
			checkError(fmhcov.SaveSampleSketch(output, sketch, opts.Compress))
		}
	},
}

func init() {
	RootCmd.AddCommand(sketchCmd)

	sketchCmd.Flags().IntP("kmer-size", "k", 31, "k-mer size (21 or 31)")
	sketchCmd.Flags().Int64P("scale", "c", 1000, "FracMinHash sub-sampling rate (keep 1 in c k-mers)")
	sketchCmd.Flags().Float64P("fpr", "", 0.01, "false-positive rate of the scalable cuckoo-filter dedup backend")
	sketchCmd.Flags().StringSliceP("reads", "r", nil, "single-end read file(s), one sample per file")
	sketchCmd.Flags().StringSliceP("mate1", "1", nil, "paired-end mate-1 file(s), one sample per entry")
	sketchCmd.Flags().StringSliceP("mate2", "2", nil, "paired-end mate-2 file(s), matched positionally with --mate1")
	sketchCmd.Flags().StringP("list-sample-names", "l", "", "file of newline-delimited sample names, matched positionally with the input files")
	sketchCmd.Flags().StringSliceP("sample-names", "S", nil, "comma-separated sample names, matched positionally with the input files")
	sketchCmd.Flags().Float64P("max-ram", "", 0, "advisory memory ceiling in GB; sketching pauses under memory pressure instead of failing (0: disabled)")
	sketchCmd.Flags().StringP("outdir", "d", ".", "directory to write sketch files into")
	sketchCmd.Flags().BoolP("no-dedup", "", false, "disable pair-aware near-duplicate-read suppression")
}

// resolveSampleNames picks sample names in priority order: an explicit
// --list-sample-names file, an inline --sample-names list, or else a
// per-index fallback (typically the first input file's basename).
func resolveSampleNames(namesFile string, namesInline []string, n int, fallback func(i int) string) []string {
	var names []string
	if namesFile != "" {
		var err error
		names, err = readLines(namesFile)
		checkError(err)
	} else if len(namesInline) > 0 {
		names = namesInline
	}
	if names != nil && len(names) != n {
		checkError(fmt.Errorf("expected %d sample names, got %d", n, len(names)))
	}
	if names != nil {
		return names
	}
	out := make([]string, n)
	for i := range out {
		out[i] = fallback(i)
	}
	return out
}
