package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/spf13/cobra"

	"github.com/shenwei356/fmhcov"
)

// coverageCmd implements `fmhcov coverage`: estimate per-contig coverage
// and ANI of every contig in a reference FASTA against one or more sample
// sketches, and write the contig×sample coverage matrix. Grounded on
// original_source/src/contain.rs's top-level `contain` orchestration (read
// contigs, read sample sketches, run two-pass inference, print matrix).
var coverageCmd = &cobra.Command{
	Use:   "coverage [flags] CONTIGS.fa [SKETCH.bcsp ...]",
	Short: "estimate contig coverage/ANI against one or more sample sketches",
	Run: func(cmd *cobra.Command, args []string) {
		args = collectInputFiles(cmd, args)
		if len(args) == 0 {
			checkError(fmt.Errorf("a reference CONTIGS.fa file is required"))
		}
		contigsFile := args[0]
		sketchFiles := args[1:]
		if len(sketchFiles) == 0 {
			checkError(fmt.Errorf("at least one sample sketch file is required"))
		}
		checkFilesExist(contigsFile)
		checkFilesExist(sketchFiles...)

		k := getFlagPositiveInt(cmd, "kmer-size")
		c := getFlagUint64(cmd, "scale")
		minSpacing := getFlagInt(cmd, "min-spacing")
		pseudotax := getFlagBool(cmd, "pseudotax")
		minANI := getFlagFloat64(cmd, "min-ani")
		bootstrap := getFlagBool(cmd, "ci")
		noAdjust := getFlagBool(cmd, "no-adjust")
		readSeqID := getFlagBool(cmd, "read-seq-id")
		seed := getFlagInt64(cmd, "seed")
		estimator := parseEstimator(getFlagString(cmd, "estimator"))
		concoct := getFlagBool(cmd, "concoct")
		output := getFlagString(cmd, "output")
		opts := getOptions(cmd)

		records, err := readFastaRecords(contigsFile)
		checkError(err)
		contigs, err := fmhcov.SketchContigsFile(contigsFile, records, c, k, minSpacing)
		checkError(err)

		sampleNames := make([]string, len(sketchFiles))
		samples := make([]*fmhcov.SampleSketch, len(sketchFiles))
		for i, sketchFile := range sketchFiles {
			sketch, err := fmhcov.LoadSampleSketch(sketchFile)
			checkError(err)
			samples[i] = sketch
			sampleNames[i] = sketch.SampleName
		}

		results, err := fmhcov.RunCoverage(contigs, samples, fmhcov.ReassignOptions{
			SampleThreads:       opts.NumCPUs,
			Estimator:           estimator,
			Pseudotax:           pseudotax,
			MinANI:              minANI,
			Bootstrap:           bootstrap,
			Seed:                seed,
			ReadSeqIDCorrection: readSeqID,
			NoAdjust:            noAdjust,
		})
		checkError(err)

		format := fmhcov.FormatMetaBAT2
		if concoct {
			format = fmhcov.FormatCONCOCT
		}

		var w io.Writer = os.Stdout
		if output != "" && output != "-" {
			f, err := os.Create(output)
			checkError(err)
			defer f.Close()
			w = f
		}
		checkError(fmhcov.WriteMatrix(w, contigs, sampleNames, results, format))
	},
}

func init() {
	RootCmd.AddCommand(coverageCmd)

	coverageCmd.Flags().IntP("kmer-size", "k", 31, "k-mer size (21 or 31), must match the sample sketches")
	coverageCmd.Flags().Int64P("scale", "c", 1000, "FracMinHash sub-sampling rate used to sketch the reference contigs")
	coverageCmd.Flags().IntP("min-spacing", "", 0, "minimum base-pair spacing enforced between kept reference k-mers")
	coverageCmd.Flags().StringP("estimator", "e", "mme", "lambda estimator: ratio, mme, mle, or nb")
	coverageCmd.Flags().BoolP("pseudotax", "", false, "use the looser pseudotax ANI floor and enable winner-take-all reassignment")
	coverageCmd.Flags().Float64P("min-ani", "", 0, "override the ANI floor used to drop low-confidence pairs (0: 0.95, or 0.80 with --pseudotax)")
	coverageCmd.Flags().BoolP("no-adjust", "", false, "report naive containment-derived ANI unconditionally, skipping the lambda-based correction")
	coverageCmd.Flags().BoolP("ci", "", false, "compute a bootstrap confidence interval for every reported pair")
	coverageCmd.Flags().BoolP("read-seq-id", "", false, "apply the read-length coverage bias correction")
	coverageCmd.Flags().Int64P("seed", "", 1, "bootstrap random seed")
	coverageCmd.Flags().BoolP("concoct", "", false, "write the CONCOCT/MaxBin matrix layout instead of the MetaBAT2 default")
	coverageCmd.Flags().StringP("output", "o", "-", "output matrix file path (default: stdout)")
}

func parseEstimator(name string) fmhcov.LambdaEstimator {
	switch name {
	case "ratio":
		return fmhcov.LambdaRatio
	case "mme":
		return fmhcov.LambdaMME
	case "mle":
		return fmhcov.LambdaMLEZIP
	case "nb":
		return fmhcov.LambdaNBSearch
	default:
		checkError(fmt.Errorf("unknown --estimator %q, expected ratio, mme, mle, or nb", name))
		return fmhcov.LambdaMME
	}
}

// readFastaRecords streams every record out of a FASTA file into memory as
// fmhcov.FastaRecord values. Reference genomes are small enough (relative
// to the read sets sketched by `fmhcov sketch`) that slurping them whole
// is simpler than threading a streaming reader through NewContigSketch.
func readFastaRecords(file string) ([]fmhcov.FastaRecord, error) {
	reader, err := fastx.NewDefaultReader(file)
	if err != nil {
		return nil, err
	}
	var records []fmhcov.FastaRecord
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		seq := append([]byte(nil), record.Seq.Seq...)
		records = append(records, fmhcov.FastaRecord{
			Name: string(record.Name),
			Seq:  seq,
		})
	}
	return records, nil
}
