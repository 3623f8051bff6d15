package fmhcov

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// Per-pair inference tunables from original_source/src/constants.rs,
// carried over unchanged since they encode thresholds tuned against real
// metagenomic read sets rather than anything this port should second-guess.
const (
	// MinANIDefault is the ANI floor below which a contig/sample pair is
	// dropped from the coverage matrix entirely.
	MinANIDefault = 0.95
	// MinANIPseudotaxDefault is the looser floor used in pseudotax mode,
	// where coarser taxonomic matches are still wanted.
	MinANIPseudotaxDefault = 0.80
	// MedianANIThreshold: once the median hit count clears this, the
	// λ-estimator's result is set aside in favor of the plain mean, which
	// is the more reliable estimator at high coverage.
	MedianANIThreshold = 2.0
	// MinimumCountRatio is how many times both the modal count and the
	// count one above it must occur for ratioLambda to accept its estimate.
	MinimumCountRatio = 3.0
	// ANICutoff is a secondary sanity floor applied before the
	// user-configurable MinANI/MinANIPseudotax gate.
	ANICutoff = 0.83
	// SampleSizeCutoff is the minimum number of contig k-mers required
	// before a pair is even attempted.
	SampleSizeCutoff = 50
)

var (
	// ErrIncompatibleK means the contig and sample sketches were built
	// with different k.
	ErrIncompatibleK = errors.New("fmhcov: contig and sample k-mer sizes differ")
	// ErrIncompatibleRate means the sample was sketched at a coarser rate
	// than the contig (sample.c > contig.c), so its k-mer set cannot be a
	// superset of what the contig needs to check containment against.
	ErrIncompatibleRate = errors.New("fmhcov: sample sketch rate is coarser than contig sketch rate")
	// ErrInsufficientSignal means the contig is too short (in selected
	// k-mers) to support a confident estimate.
	ErrInsufficientSignal = errors.New("fmhcov: contig has too few sketched k-mers for inference")
)

// AniResult is the outcome of comparing one contig sketch against one
// sample sketch (§4.F): the estimated coverage, derived ANI, and whether
// the pair cleared the ANI floor to be reported at all.
type AniResult struct {
	SampleName string
	ContigFile string
	ContigName string
	GenomeSize int

	NumContigKmers int
	NumHits        int
	NaiveANI       float64
	FinalANI       float64
	Coverage       float64
	Lambda         float64
	Estimator      LambdaEstimator
	MedianCount    float64

	Var float64

	HasCI      bool
	ANILow     float64
	ANIHigh    float64
	Included   bool
}

// InferOptions configures one Infer call.
type InferOptions struct {
	Estimator  LambdaEstimator
	Pseudotax  bool
	MinANI     float64 // 0 means "use the default for Pseudotax"
	Bootstrap  bool
	Rng        *rand.Rand
	Winner     *WinnerTable // nil disables cross-contig winner filtering
	WinnerPass bool         // true during pass 1 (population), false during pass 2 (final estimate)
	// NoAdjust disables the λ-based ANI correction (steps 5-9 below),
	// reporting the naive containment-derived ANI unconditionally instead.
	NoAdjust bool
}

func (o InferOptions) minANI() float64 {
	if o.MinANI > 0 {
		return o.MinANI
	}
	if o.Pseudotax {
		return MinANIPseudotaxDefault
	}
	return MinANIDefault
}

// Infer runs the full per-pair estimation pipeline of §4.F against one
// contig sketch and one sample sketch, returning an AniResult. Grounded
// almost directly on original_source/src/contain.rs::get_stats, which this
// function mirrors step for step:
//  1. contract check (k and rate compatibility)
//  2. size gate (too few contig k-mers to trust)
//  3. hit collection, optionally filtered through a WinnerTable so a k-mer
//     shared across genomes is only credited to its assigned winner
//  4. naive ANI from raw containment
//  5. outlier trim via a Poisson CDF cutoff at the median of the full
//     count vector
//  6. full per-k-mer count vector (hits and misses both, zeros included)
//  7. λ estimation via the configured estimator
//  8. median-based fallback to the plain mean at high coverage
//  9. final coverage/ANI derivation, correcting containment for the
//     probability a truly-shared k-mer was never observed at all
//  10. ANI floor gate (MinANI/MinANIPseudotax)
//  11. optional bootstrap confidence interval
//  12. result assembly
func Infer(contig *ContigSketch, sample *SampleSketch, opts InferOptions) (*AniResult, error) {
	if contig.K != sample.K {
		return nil, ErrIncompatibleK
	}
	if sample.C > contig.C {
		return nil, ErrIncompatibleRate
	}

	allKmers := contig.AllKmers()
	if len(allKmers) < SampleSizeCutoff {
		return nil, ErrInsufficientSignal
	}

	hits := 0
	counts := make([]float64, 0, len(allKmers))
	for _, km := range allKmers {
		if opts.Winner != nil && !opts.Winner.owns(km, contig) {
			continue
		}
		count := sample.KmerCounts[km]
		if count > 0 {
			hits++
		}
		counts = append(counts, float64(count))
	}

	naiveContainment := float64(hits) / float64(len(allKmers))
	naiveANI := aniFromContainment(naiveContainment, contig.K)

	// var(full). If undefined, the pair carries too little signal to trust
	// any downstream estimate, mirroring the original's `return None` here.
	variance := TruncatedVariance(counts)
	if math.IsNaN(variance) || math.IsInf(variance, 0) {
		return nil, ErrInsufficientSignal
	}

	if opts.NoAdjust {
		result := &AniResult{
			SampleName:     sample.SampleName,
			ContigFile:     contig.FileName,
			ContigName:     contig.FirstContigName,
			GenomeSize:     contig.GenomeSize,
			NumContigKmers: len(allKmers),
			NumHits:        hits,
			NaiveANI:       naiveANI,
			FinalANI:       naiveANI,
			Coverage:       Mean(counts),
			Var:            variance,
			Estimator:      opts.Estimator,
		}
		floor := opts.minANI()
		result.Included = naiveANI >= floor && naiveANI >= ANICutoff
		return result, nil
	}

	// Outlier-trim cutoff is a Poisson(median) tail bound, per §4.F step 6.
	median := medianOf(counts)
	cutoff := float64(PoissonOutlierCutoff(median))
	trimmed := make([]float64, 0, len(counts))
	for _, c := range counts {
		if c <= cutoff {
			trimmed = append(trimmed, c)
		}
	}
	if len(trimmed) == 0 {
		trimmed = counts
	}

	// Estimators always see the full count vector, zeros included (§4.E).
	lambda, ok := opts.Estimator.Estimate(trimmed)
	if !ok {
		lambda = Mean(trimmed)
	}

	coverage := lambda
	if median > MedianANIThreshold {
		coverage = Mean(trimmed)
	}

	adjustedContainment := containmentForCoverage(naiveContainment, coverage)
	finalANI := aniFromContainment(adjustedContainment, contig.K)

	result := &AniResult{
		SampleName:     sample.SampleName,
		ContigFile:     contig.FileName,
		ContigName:     contig.FirstContigName,
		GenomeSize:     contig.GenomeSize,
		NumContigKmers: len(allKmers),
		NumHits:        hits,
		NaiveANI:       naiveANI,
		FinalANI:       finalANI,
		Coverage:       coverage,
		Lambda:         lambda,
		Estimator:      opts.Estimator,
		MedianCount:    median,
		Var:            variance,
	}

	floor := opts.minANI()
	result.Included = finalANI >= floor && finalANI >= ANICutoff

	if opts.Bootstrap && opts.Rng != nil && result.Included {
		estimator := func(sample []float64) (float64, bool) {
			l, ok := opts.Estimator.Estimate(sample)
			if !ok {
				return Mean(sample), true
			}
			return l, true
		}
		if lo, hi, ok := BootstrapCI(trimmed, estimator, opts.Rng); ok {
			loANI := aniFromContainment(containmentForCoverage(naiveContainment, lo), contig.K)
			hiANI := aniFromContainment(containmentForCoverage(naiveContainment, hi), contig.K)
			result.HasCI = true
			result.ANILow, result.ANIHigh = loANI, hiANI
		}
	}

	return result, nil
}

// aniFromContainment converts a FracMinHash containment fraction to an ANI
// estimate, using the standard Mash-distance inversion: a 1/k-scaled,
// log-transformed measure of how much k-mer divergence a given containment
// implies. Grounded on original_source/src/contain.rs::ani_from_lambda's
// containment-to-ANI step.
func aniFromContainment(containment float64, k int) float64 {
	if containment <= 0 {
		return 0
	}
	if containment >= 1 {
		return 1
	}
	return 1 + (1/float64(k))*math.Log(2*containment/(1+containment))
}

// containmentForCoverage corrects observed containment for the chance a
// truly-shared k-mer simply wasn't sequenced: at coverage (λ), a present
// k-mer is observed with probability 1-exp(-λ), so dividing the naive
// containment by that probability estimates the true containment. At very
// low coverage this correction is unstable, so it's capped at 1.
func containmentForCoverage(naiveContainment, coverage float64) float64 {
	if coverage <= 0 {
		return naiveContainment
	}
	pObserved := 1 - math.Exp(-coverage)
	if pObserved <= 0 {
		return naiveContainment
	}
	adjusted := naiveContainment / pObserved
	if adjusted > 1 {
		adjusted = 1
	}
	return adjusted
}

func medianOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
