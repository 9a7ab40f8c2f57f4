package model

import "math"

const (
	hypMaxTerms = 100000
	hypEpsilon  = 1e-16
)

// lgamma returns log|Γ(x)|.
func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

// logAddExp computes log(exp(a) + exp(b)) without overflow.
func logAddExp(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	}
	if math.IsInf(b, -1) {
		return a
	}
	m := math.Max(a, b)
	return m + math.Log1p(math.Exp(-math.Abs(a-b)))
}

// hyp2f1 evaluates the Gauss hypergeometric function 2F1(a, b; c; z) by its
// power series. Callers keep 0 <= z < 1, where the series converges.
func hyp2f1(a, b, c, z float64) float64 {
	if z == 0 {
		return 1
	}
	sum, term := 1.0, 1.0
	for n := 0; n < hypMaxTerms; n++ {
		fn := float64(n)
		term *= (a + fn) * (b + fn) / ((c + fn) * (fn + 1)) * z
		sum += term
		if term == 0 || math.Abs(term) <= hypEpsilon*math.Abs(sum) {
			break
		}
	}
	return sum
}
