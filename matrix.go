package fmhcov

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shenwei356/natsort"
)

// MatrixFormat selects the on-disk layout WriteMatrix produces (§4.H).
type MatrixFormat int

const (
	// FormatMetaBAT2 is the default layout: contigName, contigLength,
	// totalAvgDepth, then one depth column plus one depth-variance
	// column per sample. This is the layout metabat2's --abdFile expects.
	FormatMetaBAT2 MatrixFormat = iota
	// FormatCONCOCT is the coverage-only layout (no length/var columns)
	// that CONCOCT and MaxBin both expect.
	FormatCONCOCT
)

// WriteMatrix writes the contig-by-sample coverage matrix assembled from
// results (results[sampleIndex][contigIndex], as returned by RunCoverage)
// in the requested format. Sample columns are ordered by "human sort" (so
// sample2 sorts before sample10) rather than plain lexical order, and
// contig names are truncated at their first whitespace, matching FASTA
// convention that only the first token of a header is the contig's name.
// Grounded on original_source/src/contain.rs::print_cov_matrix for the
// exact column layout and truncation rule.
func WriteMatrix(w io.Writer, contigs []*ContigSketch, sampleNames []string, results [][]*AniResult, format MatrixFormat) error {
	order := sortedSampleOrder(sampleNames)

	if err := writeHeader(w, sampleNames, order, format); err != nil {
		return err
	}

	for ci, contig := range contigs {
		name := truncateContigName(contig.FirstContigName)
		depths := make([]float64, len(order))
		variances := make([]float64, len(order))
		var total float64
		for col, si := range order {
			res := results[si][ci]
			if res == nil || !res.Included {
				continue
			}
			depths[col] = res.Coverage
			variances[col] = res.Var
			total += res.Coverage
		}

		// missing/excluded samples count as 0 in the average (§4.H), so the
		// divisor is the total sample count, not just the included ones.
		var avg float64
		if len(order) > 0 {
			avg = total / float64(len(order))
		}

		switch format {
		case FormatMetaBAT2:
			fmt.Fprintf(w, "%s\t%d\t%.6f", name, contig.GenomeSize, avg)
			for col := range order {
				fmt.Fprintf(w, "\t%.6f\t%.6f", depths[col], variances[col])
			}
			fmt.Fprint(w, "\n")
		case FormatCONCOCT:
			fmt.Fprint(w, name)
			for col := range order {
				fmt.Fprintf(w, "\t%.6f", depths[col])
			}
			fmt.Fprint(w, "\n")
		}
	}
	return nil
}

func writeHeader(w io.Writer, sampleNames []string, order []int, format MatrixFormat) error {
	var b strings.Builder
	switch format {
	case FormatMetaBAT2:
		b.WriteString("contigName\tcontigLen\ttotalAvgDepth")
		for _, si := range order {
			fmt.Fprintf(&b, "\t%s\t%s-var", sampleNames[si], sampleNames[si])
		}
	case FormatCONCOCT:
		b.WriteString("contig")
		for _, si := range order {
			fmt.Fprintf(&b, "\t%s", sampleNames[si])
		}
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// sortedSampleOrder returns the permutation of sample indices in
// human-sorted (natural) order, so "sample2" precedes "sample10". Library:
// github.com/shenwei356/natsort, already an indirect dependency of the
// teacher used for exactly this purpose elsewhere in the ecosystem.
func sortedSampleOrder(sampleNames []string) []int {
	order := make([]int, len(sampleNames))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return natsort.Compare(sampleNames[order[i]], sampleNames[order[j]])
	})
	return order
}

// truncateContigName keeps only the first whitespace-delimited token of a
// FASTA header, the convention every downstream binner (MetaBAT2, CONCOCT,
// MaxBin) expects for matching matrix rows back to contig sequences.
func truncateContigName(name string) string {
	if i := strings.IndexAny(name, " \t"); i >= 0 {
		return name[:i]
	}
	return name
}
