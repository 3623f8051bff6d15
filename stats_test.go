package fmhcov

import (
	"math"
	"math/rand"
	"testing"
)

func TestMean(t *testing.T) {
	if got := Mean([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Fatalf("expected 2.5, got %f", got)
	}
	if got := Mean(nil); got != 0 {
		t.Fatalf("expected 0 for empty input, got %f", got)
	}
}

func TestTruncatedVarianceDropsHighOutliers(t *testing.T) {
	xs := make([]float64, 0, 101)
	for i := 0; i < 100; i++ {
		xs = append(xs, 10)
	}
	xs = append(xs, 1000000) // one extreme outlier, 1% of the data
	v := TruncatedVariance(xs)
	if v > 1 {
		t.Fatalf("expected the outlier to be trimmed, got variance %f", v)
	}
}

func TestPoissonCDFMonotonic(t *testing.T) {
	prev := 0.0
	for k := 0.0; k < 50; k++ {
		cur := PoissonCDF(k, 10)
		if cur < prev {
			t.Fatalf("Poisson CDF should be non-decreasing, got %f after %f", cur, prev)
		}
		prev = cur
	}
	if PoissonCDF(1000, 10) < 0.999 {
		t.Fatalf("CDF should approach 1 far past the mean")
	}
}

func TestPoissonOutlierCutoffIncreasesWithLambda(t *testing.T) {
	low := PoissonOutlierCutoff(5)
	high := PoissonOutlierCutoff(500)
	if high <= low {
		t.Fatalf("expected a higher outlier cutoff for larger lambda: low=%d high=%d", low, high)
	}
}

func TestBootstrapCIContainsMean(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	xs := make([]float64, 200)
	for i := range xs {
		xs[i] = 10 + rng.NormFloat64()
	}
	meanEstimator := func(sample []float64) (float64, bool) { return Mean(sample), true }
	lo, hi, ok := BootstrapCI(xs, meanEstimator, rng)
	if !ok {
		t.Fatalf("expected a confident bootstrap interval for 200 samples")
	}
	if lo > hi {
		t.Fatalf("lo (%f) should not exceed hi (%f)", lo, hi)
	}
	m := Mean(xs)
	if m < lo-5 || m > hi+5 {
		t.Fatalf("sample mean %f wildly outside bootstrap interval [%f, %f]", m, lo, hi)
	}
}

func TestBootstrapCIRejectsTooFewFinite(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	xs := []float64{1, 2, 3}
	alwaysNaN := func(sample []float64) (float64, bool) { return math.NaN(), true }
	_, _, ok := BootstrapCI(xs, alwaysNaN, rng)
	if ok {
		t.Fatalf("expected rejection when every resample estimate is NaN")
	}
}
