package fmhcov

import "math"

// LambdaEstimator names one of the four coverage-rate (λ) estimators of
// §4.D, selectable per run.
type LambdaEstimator int

const (
	// LambdaRatio corrects the modal (most frequent) nonzero count m by how
	// often m+1 occurs relative to m: λ = count(m+1)/count(m) * (m+1) —
	// cheap and robust when coverage is high enough that the mode is a
	// clean signal.
	LambdaRatio LambdaEstimator = iota
	// LambdaMME is the Poisson/negative-binomial method-of-moments
	// estimator: λ is just the mean when the data isn't over-dispersed.
	LambdaMME
	// LambdaMLEZIP fits a zero-inflated Poisson by Newton-Raphson.
	LambdaMLEZIP
	// LambdaNBSearch moment-matches a negative binomial's dispersion and
	// bisects for λ — the estimator of choice when counts are noticeably
	// over-dispersed relative to Poisson.
	LambdaNBSearch
)

// Estimate dispatches to the chosen λ estimator over a set of per-k-mer
// counts. ok is false when the estimator could not produce a usable λ
// (empty input, non-convergence, or a degenerate count distribution).
func (e LambdaEstimator) Estimate(counts []float64) (lambda float64, ok bool) {
	switch e {
	case LambdaRatio:
		return ratioLambda(counts)
	case LambdaMME:
		return mmeLambda(counts)
	case LambdaMLEZIP:
		return mleZIPLambda(counts)
	case LambdaNBSearch:
		return nbSearchLambda(counts)
	default:
		return 0, false
	}
}

// ratioLambda is grounded on original_source/src/contain.rs::ratio_lambda:
// find the modal count m, then correct it by the ratio of how often m+1
// occurs relative to m — count(m+1)/count(m) * (m+1). A Poisson-like count
// distribution's mode sits just below its mean, and this ratio recovers the
// mean from the mode without needing every count in the tail. Both bins
// must individually occur at least MinimumCountRatio times, or the ratio is
// too noisy to trust and the estimate is rejected.
func ratioLambda(counts []float64) (float64, bool) {
	freq := make(map[int]int, len(counts))
	mode := 0
	best := 0
	for _, c := range counts {
		if c <= 0 {
			continue
		}
		ci := int(c)
		freq[ci]++
		if freq[ci] > best {
			best = freq[ci]
			mode = ci
		}
	}
	if best == 0 {
		return 0, false
	}
	countM := float64(freq[mode])
	countM1 := float64(freq[mode+1])
	if countM < MinimumCountRatio || countM1 < MinimumCountRatio {
		return 0, false
	}
	return (countM1 / countM) * float64(mode+1), true
}

// mmeLambda is the negative-binomial/Poisson method-of-moments estimator:
// λ = Var/Mean + Mean - 1, which reduces to the plain mean whenever the
// data is Poisson-consistent (Var == Mean) and grows past it as the data
// over-disperses. Grounded on original_source/src/contain.rs::mme_lambda.
func mmeLambda(counts []float64) (float64, bool) {
	if len(counts) == 0 {
		return 0, false
	}
	mean := Mean(counts)
	if mean <= 0 {
		return 0, false
	}
	variance := TruncatedVariance(counts)
	return variance/mean + mean - 1, true
}

// mleZIPLambda fits a zero-inflated Poisson by Newton-Raphson, following
// original_source/src/contain.rs::mle_zip/newton_raphson. The ZIP model has
// mean = (1-pi)*lambda and zero probability pi + (1-pi)*exp(-lambda); fixing
// the observed mean and zero fraction gives one equation in lambda alone,
// which Newton-Raphson (with a numerically estimated derivative, since the
// closed-form derivative is no simpler to evaluate) solves directly.
func mleZIPLambda(counts []float64) (float64, bool) {
	n := float64(len(counts))
	if n == 0 {
		return 0, false
	}
	mean := Mean(counts)
	if mean <= 0 {
		return 0, false
	}
	var zeros float64
	for _, c := range counts {
		if c == 0 {
			zeros++
		}
	}
	p0 := zeros / n

	f := func(lambda float64) float64 {
		if lambda <= 0 {
			return math.Inf(1)
		}
		return 1 - (mean/lambda)*(1-math.Exp(-lambda)) - p0
	}

	lambda := mean
	const maxIter = 100
	const tol = 1e-9
	for i := 0; i < maxIter; i++ {
		fx := f(lambda)
		if math.Abs(fx) < tol {
			return lambda, true
		}
		h := 1e-6 * math.Max(1, lambda)
		deriv := (f(lambda+h) - f(lambda-h)) / (2 * h)
		if deriv == 0 {
			return lambda, false
		}
		next := lambda - fx/deriv
		if next <= 0 {
			next = lambda / 2
		}
		if math.Abs(next-lambda) < tol {
			return next, true
		}
		lambda = next
	}
	return lambda, false
}

// nbSearchLambda moment-matches a negative binomial's dispersion parameter
// r from the sample mean/variance, then bisects for the λ whose NB(λ, r)
// variance (λ + λ²/r) reproduces the observed variance. When the data is
// not over-dispersed (variance <= mean) there is nothing for the search to
// resolve and λ is just the mean (which is also what mmeLambda returns when
// the variance equals the mean). The exact search
// strategy is implementation-defined (the spec leaves "NB-search" as a
// named but unspecified estimator); bisection is used here because the
// target function is monotonic in λ for fixed r, so it always converges.
// Grounded on original_source/src/contain.rs's NB-based estimator branch.
func nbSearchLambda(counts []float64) (float64, bool) {
	n := len(counts)
	if n == 0 {
		return 0, false
	}
	mean := Mean(counts)
	if mean <= 0 {
		return 0, false
	}
	variance := TruncatedVariance(counts)
	if variance <= mean {
		return mean, true
	}
	r := mean * mean / (variance - mean)
	f := func(lambda float64) float64 { return lambda + lambda*lambda/r - variance }
	lambda, ok := bisect(0, 4*mean+1, f, 200)
	if !ok {
		return mean, true
	}
	return lambda, true
}

// bisect finds a root of f in [lo, hi] assuming f(lo) and f(hi) have
// opposite signs (or one of them is already a root), refining for up to
// iterations steps or until the bracket is smaller than 1e-9.
func bisect(lo, hi float64, f func(float64) float64, iterations int) (float64, bool) {
	flo := f(lo)
	if flo == 0 {
		return lo, true
	}
	fhi := f(hi)
	if fhi == 0 {
		return hi, true
	}
	if (flo > 0) == (fhi > 0) {
		return 0, false
	}
	for i := 0; i < iterations && hi-lo > 1e-9; i++ {
		mid := (lo + hi) / 2
		fm := f(mid)
		if fm == 0 {
			return mid, true
		}
		if (fm > 0) == (flo > 0) {
			lo, flo = mid, fm
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, true
}
