package modal

import (
	"fmt"
	"math"
)

// Second-mode constants of a clamped-free beam as used on the bench.
const (
	SecondModeBeta = 4.6941
	SecondModeEta  = 0.9825
)

// Shape is a parametric mode-shape model. Parameter slices always start with
// the amplitude A.
type Shape interface {
	Name() string
	NumParams() int
	// Eval returns the model value at normalized height x.
	Eval(x float64, p []float64) float64
	// Gradient writes d Eval / d p into dst (len NumParams).
	Gradient(dst []float64, x float64, p []float64)
	// Initial returns the starting parameters of a fit.
	Initial() []float64
	// Bounds returns per-parameter lower and upper limits (may be infinite).
	Bounds() (lo, hi []float64)
	// Beta returns the wavenumber used with parameters p.
	Beta(p []float64) float64
}

// Eta returns the boundary-condition constant derived from beta:
//
//	eta(b) = (cos b + cosh b) / (sin b + sinh b)
func Eta(beta float64) float64 {
	return (math.Cos(beta) + math.Cosh(beta)) / (math.Sin(beta) + math.Sinh(beta))
}

// etaPrime is d eta / d beta.
func etaPrime(beta float64) float64 {
	n := math.Cos(beta) + math.Cosh(beta)
	d := math.Sin(beta) + math.Sinh(beta)
	dn := -math.Sin(beta) + math.Sinh(beta)
	dd := math.Cos(beta) + math.Cosh(beta)
	return (dn*d - n*dd) / (d * d)
}

// Basis returns the unscaled mode shape cos(bx) - cosh(bx) - eta*(sin(bx) - sinh(bx)).
func Basis(x, beta, eta float64) float64 {
	bx := beta * x
	return math.Cos(bx) - math.Cosh(bx) - eta*(math.Sin(bx)-math.Sinh(bx))
}

// FixedBeta fits the amplitude only.
type FixedBeta struct {
	BetaValue float64
	EtaValue  float64
}

// NewFixedBeta returns the bench second-mode model (b = 4.6941, eta = 0.9825).
func NewFixedBeta() FixedBeta {
	return FixedBeta{BetaValue: SecondModeBeta, EtaValue: SecondModeEta}
}

// Name returns "fixed-beta".
func (FixedBeta) Name() string { return "fixed-beta" }

// NumParams returns 1 (A).
func (FixedBeta) NumParams() int { return 1 }

// Eval returns A*phi(x) at the fixed wavenumber.
func (s FixedBeta) Eval(x float64, p []float64) float64 {
	return p[0] * Basis(x, s.BetaValue, s.EtaValue)
}

// Gradient stores d/dA, which is phi(x) itself.
func (s FixedBeta) Gradient(dst []float64, x float64, _ []float64) {
	dst[0] = Basis(x, s.BetaValue, s.EtaValue)
}

// Initial returns A = 1.
func (FixedBeta) Initial() []float64 { return []float64{1} }

// Bounds leaves A unbounded.
func (FixedBeta) Bounds() (lo, hi []float64) {
	return []float64{math.Inf(-1)}, []float64{math.Inf(1)}
}

// Beta returns the fixed wavenumber.
func (s FixedBeta) Beta([]float64) float64 { return s.BetaValue }

// FreeBeta fits amplitude and wavenumber, p = [A, b].
type FreeBeta struct {
	Lower [2]float64
	Upper [2]float64
	Guess [2]float64
}

// NewFreeBeta returns the bench bounds A in [0.5, 5], b in [4.4, 5.0] with
// initial guess [1, 4.6941].
func NewFreeBeta() FreeBeta {
	return FreeBeta{
		Lower: [2]float64{0.5, 4.4},
		Upper: [2]float64{5, 5.0},
		Guess: [2]float64{1, SecondModeBeta},
	}
}

// Validate checks that the bounds are ordered and contain the guess.
func (s FreeBeta) Validate() error {
	for i := range 2 {
		if !(s.Lower[i] <= s.Upper[i]) {
			return fmt.Errorf("modal: lower bound %v above upper bound %v", s.Lower[i], s.Upper[i])
		}
		if s.Guess[i] < s.Lower[i] || s.Guess[i] > s.Upper[i] {
			return fmt.Errorf("modal: initial guess %v outside [%v, %v]", s.Guess[i], s.Lower[i], s.Upper[i])
		}
	}
	if s.Lower[1] <= 0 {
		return fmt.Errorf("modal: beta lower bound must be > 0: %v", s.Lower[1])
	}
	return nil
}

// Name returns "free-beta".
func (FreeBeta) Name() string { return "free-beta" }

// NumParams returns 2 (A, b).
func (FreeBeta) NumParams() int { return 2 }

// Eval returns A*phi(x) with eta derived from b.
func (FreeBeta) Eval(x float64, p []float64) float64 {
	return p[0] * Basis(x, p[1], Eta(p[1]))
}

// Gradient stores the partial derivatives with respect to A and b, including
// the dependence of eta on b.
func (FreeBeta) Gradient(dst []float64, x float64, p []float64) {
	a, beta := p[0], p[1]
	eta := Eta(beta)
	bx := beta * x
	sin, cos := math.Sincos(bx)
	sinh, cosh := math.Sinh(bx), math.Cosh(bx)

	dst[0] = cos - cosh - eta*(sin-sinh)
	dst[1] = a * (-x*sin - x*sinh - etaPrime(beta)*(sin-sinh) - eta*x*(cos-cosh))
}

// Initial returns the configured guess.
func (s FreeBeta) Initial() []float64 { return []float64{s.Guess[0], s.Guess[1]} }

// Bounds returns the configured box.
func (s FreeBeta) Bounds() (lo, hi []float64) {
	return []float64{s.Lower[0], s.Lower[1]}, []float64{s.Upper[0], s.Upper[1]}
}

// Beta returns the fitted wavenumber p[1].
func (FreeBeta) Beta(p []float64) float64 { return p[1] }
