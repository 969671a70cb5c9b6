package mdo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

const (
	// DefaultQuadratureNodes is the number of Gauss-Legendre nodes of the ground roll integral.
	DefaultQuadratureNodes = 64
	bisectMaxIterations    = 200
)

// Bisect finds a root of f in [lo, hi] by bisection. The bracket is checked before iterating:
// if f(lo) and f(hi) have the same sign, a *BracketError is returned. The search stops when
// the bracket is narrower than tol or f is exactly zero. A NaN inside the bracket stops the search
// with ErrNoConvergence.
func Bisect(f func(float64) float64, lo, hi, tol float64, maxIter int) (float64, error) {
	if maxIter <= 0 {
		maxIter = bisectMaxIterations
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	fLo, fHi := f(lo), f(hi)
	if math.IsNaN(fLo) || math.IsNaN(fHi) || fLo*fHi > 0 {
		return math.NaN(), &BracketError{Lower: lo, Upper: hi, FLower: fLo, FUpper: fHi}
	}
	if fLo == 0 {
		return lo, nil
	}
	if fHi == 0 {
		return hi, nil
	}
	for iteration := 0; iteration < maxIter; iteration++ {
		mid := lo + 0.5*(hi-lo)
		fMid := f(mid)
		if math.IsNaN(fMid) {
			return mid, fmt.Errorf("bisection %w: f(%g) is undefined", ErrNoConvergence, mid)
		}
		if fMid == 0 || 0.5*(hi-lo) < tol {
			return mid, nil
		}
		if math.Signbit(fMid) == math.Signbit(fLo) {
			lo, fLo = mid, fMid
		} else {
			hi = mid
		}
	}
	return lo + 0.5*(hi-lo), fmt.Errorf("bisection %w after %d iterations", ErrNoConvergence, maxIter)
}

// Quadrature integrates f over [a, b] with an n-point Gauss-Legendre rule.
func Quadrature(f func(float64) float64, a, b float64, n int) float64 {
	if n <= 0 {
		n = DefaultQuadratureNodes
	}
	if a == b {
		return 0
	}
	return quad.Fixed(f, a, b, n, quad.Legendre{}, 0)
}
