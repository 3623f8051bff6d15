package fmhcov

import (
	"math"
	"testing"
)

func TestRatioLambdaAppliesRatioCorrection(t *testing.T) {
	// mode is 5 (count 4), and 6 occurs 3 times — both bins clear
	// MinimumCountRatio, so the ratio correction applies: (3/4)*6.
	counts := []float64{5, 5, 5, 5, 6, 6, 6}
	lambda, ok := ratioLambda(counts)
	want := (3.0 / 4.0) * 6
	if !ok || math.Abs(lambda-want) > 1e-9 {
		t.Fatalf("expected lambda %f, got %f (ok=%v)", want, lambda, ok)
	}
}

func TestRatioLambdaRejectsBelowMinimumCountRatio(t *testing.T) {
	// mode is 5 (count 4), but 6 never occurs (count 0 < MinimumCountRatio).
	counts := []float64{1, 2, 5, 5, 5, 5, 9}
	if _, ok := ratioLambda(counts); ok {
		t.Fatalf("expected rejection when the mode+1 bin is below MinimumCountRatio")
	}
}

func TestRatioLambdaEmpty(t *testing.T) {
	if _, ok := ratioLambda(nil); ok {
		t.Fatalf("expected failure on empty input")
	}
}

func TestMMELambdaUsesVarianceMeanFormula(t *testing.T) {
	counts := []float64{2, 4, 6, 8}
	lambda, ok := mmeLambda(counts)
	if !ok {
		t.Fatalf("expected a usable lambda")
	}
	mean := Mean(counts)
	variance := TruncatedVariance(counts)
	want := variance/mean + mean - 1
	if math.Abs(lambda-want) > 1e-9 {
		t.Fatalf("expected lambda %f, got %f", want, lambda)
	}
}

func TestMLEZIPLambdaConvergesOnPoissonData(t *testing.T) {
	// Roughly Poisson(5)-shaped counts with no real zero-inflation.
	counts := []float64{3, 4, 5, 5, 5, 6, 6, 7, 4, 5, 0, 8, 5, 4, 6}
	lambda, ok := mleZIPLambda(counts)
	if !ok {
		t.Fatalf("expected convergence")
	}
	if lambda <= 0 || math.IsNaN(lambda) {
		t.Fatalf("expected a sane positive lambda, got %f", lambda)
	}
}

func TestNBSearchLambdaFallsBackToMeanWhenNotOverdispersed(t *testing.T) {
	counts := []float64{5, 5, 5, 5, 5}
	lambda, ok := nbSearchLambda(counts)
	if !ok || lambda != 5 {
		t.Fatalf("expected lambda=5 for zero-variance input, got %f", lambda)
	}
}

func TestNBSearchLambdaHandlesOverdispersion(t *testing.T) {
	counts := []float64{1, 1, 1, 2, 50, 1, 2, 1, 60, 1}
	lambda, ok := nbSearchLambda(counts)
	if !ok {
		t.Fatalf("expected a result for over-dispersed counts")
	}
	if lambda <= 0 {
		t.Fatalf("expected a positive lambda, got %f", lambda)
	}
}

func TestBisectFindsRoot(t *testing.T) {
	f := func(x float64) float64 { return x*x - 4 }
	root, ok := bisect(0, 10, f, 100)
	if !ok {
		t.Fatalf("expected bisection to succeed")
	}
	if math.Abs(root-2) > 1e-4 {
		t.Fatalf("expected root near 2, got %f", root)
	}
}

func TestLambdaEstimatorDispatch(t *testing.T) {
	// satisfies ratioLambda's MinimumCountRatio gate (mode 5 and 6 both
	// occur 4 times) as well as the other three estimators.
	counts := []float64{5, 5, 5, 5, 6, 6, 6, 6}
	for _, e := range []LambdaEstimator{LambdaRatio, LambdaMME, LambdaMLEZIP, LambdaNBSearch} {
		if _, ok := e.Estimate(counts); !ok {
			t.Fatalf("estimator %d unexpectedly failed on well-behaved input", e)
		}
	}
}
