package fmhcov

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// CutoffPValue is the Poisson-CDF cutoff used to trim outlier k-mer counts
// before estimating coverage (§4.E). A count is treated as an outlier once
// the Poisson(lambda) CDF at that count exceeds this threshold.
const CutoffPValue = 0.9999999999

// VarCutoff is the minimum input length above which TruncatedVariance
// truncates to the lowest fraction of sorted values (varTruncationFraction)
// before computing variance; at or below this length the full input is
// used untouched. Grounded on original_source/src/contain.rs's var()
// (VAR_CUTOFF gates the truncation branch; the 95% fraction is a separate
// literal). The original's concrete VAR_CUTOFF value was not present in
// the retrieved source, so this is an implementation-defined choice picked
// comfortably above SampleSizeCutoff.
const VarCutoff = 100

// varTruncationFraction is the fixed fraction of sorted, ascending values
// kept once VarCutoff is exceeded — the top tail is dropped so a handful
// of very high counts can't dominate the spread estimate. Grounded on
// original_source/src/contain.rs's var(): "data.len()*95/100".
const varTruncationFraction = 0.95

// BootstrapResamples is the number of bootstrap resamples drawn per
// confidence interval (§4.F).
const BootstrapResamples = 100

// BootstrapMinFinite is the minimum number of finite resample estimates
// required before a confidence interval is reported at all.
const BootstrapMinFinite = 50

// Mean is stat.Mean with uniform weights — kept as a named wrapper so
// callers read "fmhcov.Mean" rather than threading a nil weights slice
// through every call site.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// TruncatedVariance computes the variance of xs, dropping the top
// (1-varTruncationFraction) of sorted values first, but only once len(xs)
// exceeds VarCutoff — below that length there's too little data to spare,
// so the full input is used as-is (§4.D).
func TruncatedVariance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	data := xs
	if len(xs) > VarCutoff {
		sorted := append([]float64(nil), xs...)
		sort.Float64s(sorted)
		cut := int(float64(len(sorted)) * varTruncationFraction)
		if cut < 2 {
			cut = len(sorted)
		}
		data = sorted[:cut]
	}
	return stat.Variance(data, nil)
}

// PoissonCDF evaluates the CDF of Poisson(lambda) at k.
func PoissonCDF(k float64, lambda float64) float64 {
	if lambda <= 0 {
		if k >= 0 {
			return 1
		}
		return 0
	}
	return distuv.Poisson{Lambda: lambda}.CDF(k)
}

// PoissonOutlierCutoff returns the largest count whose Poisson(lambda) CDF
// is still below CutoffPValue (0 when lambda <= 0); counts above it are
// treated as outliers and trimmed before the final coverage/ANI estimate
// (§4.E step 3).
func PoissonOutlierCutoff(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	for k := 0.0; k < 1e7; k++ {
		if PoissonCDF(k, lambda) >= CutoffPValue {
			return int(k) - 1
		}
	}
	return int(1e7)
}

// Estimator computes a point statistic from a resampled slice, reporting ok
// = false when the statistic is undefined for that resample (e.g. an
// estimator that failed to converge).
type Estimator func(sample []float64) (value float64, ok bool)

// BootstrapCI draws BootstrapResamples bootstrap resamples of xs (sampling
// with replacement, same size as xs), applies estimate to each, and returns
// the 5th/95th-percentile interval of the finite results. Reports ok = false
// if fewer than BootstrapMinFinite resamples produced a finite estimate —
// below that floor the interval is considered too noisy to report (§4.F).
func BootstrapCI(xs []float64, estimate Estimator, rng *rand.Rand) (lo, hi float64, ok bool) {
	if len(xs) == 0 {
		return 0, 0, false
	}
	results := make([]float64, 0, BootstrapResamples)
	sample := make([]float64, len(xs))
	for i := 0; i < BootstrapResamples; i++ {
		for j := range sample {
			sample[j] = xs[rng.Intn(len(xs))]
		}
		v, estOk := estimate(sample)
		if estOk && !math.IsNaN(v) && !math.IsInf(v, 0) {
			results = append(results, v)
		}
	}
	if len(results) < BootstrapMinFinite {
		return 0, 0, false
	}
	sort.Float64s(results)
	return percentile(results, 0.05), percentile(results, 0.95), true
}

// percentile linearly interpolates the p-th percentile (0<=p<=1) of a slice
// already sorted ascending.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := p * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
