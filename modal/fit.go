package modal

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	defaultMaxIterations = 200
	defaultTolerance     = 1e-10
	initialDamping       = 1e-3
	maxDamping           = 1e16
	minDamping           = 1e-15
)

// Fit is the result of a mode-shape fit.
type Fit struct {
	Shape      Shape
	Params     []float64
	Positions  []float64
	Values     []float64 // fit input (normalized amplitudes)
	Cost       float64   // 0.5 * sum of squared residuals
	Iterations int
}

// A returns the fitted amplitude coefficient.
func (f Fit) A() float64 {
	if len(f.Params) == 0 {
		return 0
	}
	return f.Params[0]
}

// Beta returns the wavenumber of the fitted curve.
func (f Fit) Beta() float64 {
	if f.Shape == nil {
		return 0
	}
	return f.Shape.Beta(f.Params)
}

// Eval evaluates the fitted curve at normalized height x.
func (f Fit) Eval(x float64) float64 {
	return f.Shape.Eval(x, f.Params)
}

// FitterOption configures a Fitter.
type FitterOption func(*Fitter)

// WithMaxIterations caps the number of accepted or rejected LM steps.
func WithMaxIterations(n int) FitterOption {
	return func(f *Fitter) {
		if n > 0 {
			f.maxIter = n
		}
	}
}

// WithTolerance sets the step, cost and gradient tolerance.
func WithTolerance(tol float64) FitterOption {
	return func(f *Fitter) {
		if tol > 0 {
			f.tol = tol
		}
	}
}

// Fitter runs bounded Levenberg-Marquardt fits of one Shape.
type Fitter struct {
	shape   Shape
	maxIter int
	tol     float64
}

// NewFitter returns a Fitter for shape.
func NewFitter(shape Shape, opts ...FitterOption) (*Fitter, error) {
	if shape == nil {
		return nil, fmt.Errorf("modal: nil shape")
	}
	if v, ok := shape.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	f := &Fitter{shape: shape, maxIter: defaultMaxIterations, tol: defaultTolerance}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// Shape returns the fitted model.
func (f *Fitter) Shape() Shape {
	return f.shape
}

// Fit minimizes sum((values - shape(positions, p))^2) over p within the
// shape bounds.
func (f *Fitter) Fit(positions, values []float64) (Fit, error) {
	n := f.shape.NumParams()
	m := len(positions)
	if m != len(values) || m < n {
		return Fit{}, fmt.Errorf("%w: %d positions, %d values, %d params", ErrInsufficientData, m, len(values), n)
	}
	for i := range values {
		if !isFinite(values[i]) || !isFinite(positions[i]) {
			return Fit{}, fmt.Errorf("%w: non-finite input at %d", ErrInsufficientData, i)
		}
	}

	lo, hi := f.shape.Bounds()
	p := f.shape.Initial()
	clampParams(p, lo, hi)

	res := make([]float64, m)
	cost := f.residuals(res, positions, values, p)
	if !isFinite(cost) {
		return Fit{}, fmt.Errorf("%w: non-finite initial cost", ErrNoConvergence)
	}

	jac := mat.NewDense(m, n, nil)
	grad := make([]float64, n)
	row := make([]float64, n)
	trial := make([]float64, n)
	trialRes := make([]float64, m)
	lambda := initialDamping
	gnorm := math.Inf(1)

	iter := 1
	for ; iter <= f.maxIter; iter++ {
		if cost == 0 {
			return f.result(p, positions, values, cost, iter-1), nil
		}

		for i, x := range positions {
			f.shape.Gradient(row, x, p)
			jac.SetRow(i, row)
		}
		// grad = J^T r: the descent direction for residuals r = y - f(p).
		gv := mat.NewVecDense(n, grad)
		gv.MulVec(jac.T(), mat.NewVecDense(m, res))

		free := freeParams(p, grad, lo, hi)
		gnorm = maxAbsAt(grad, free)
		if len(free) == 0 || gnorm <= f.tol {
			return f.result(p, positions, values, cost, iter-1), nil
		}

		var jtj mat.SymDense
		jtj.SymOuterK(1, jac.T())

		delta, ok := solveDamped(&jtj, grad, free, lambda)
		if !ok {
			lambda *= 10
			if lambda > maxDamping {
				break
			}
			continue
		}

		copy(trial, p)
		for j, idx := range free {
			trial[idx] += delta[j]
		}
		clampParams(trial, lo, hi)

		trialCost := f.residuals(trialRes, positions, values, trial)
		if isFinite(trialCost) && trialCost < cost {
			step := floats.Distance(trial, p, 2)
			scale := floats.Norm(p, 2)
			reduction := cost - trialCost

			copy(p, trial)
			copy(res, trialRes)
			cost = trialCost
			lambda = math.Max(lambda/10, minDamping)

			if step <= f.tol*(scale+f.tol) || reduction <= f.tol*cost {
				return f.result(p, positions, values, cost, iter), nil
			}
			continue
		}

		lambda *= 10
		if lambda > maxDamping {
			break
		}
	}

	// Damping overflow right at a rounding-limited minimum is not a failure.
	if gnorm <= math.Sqrt(f.tol) {
		return f.result(p, positions, values, cost, min(iter, f.maxIter)), nil
	}
	return Fit{}, fmt.Errorf("%w: cost %.3g, gradient %.3g", ErrNoConvergence, cost, gnorm)
}

func (f *Fitter) residuals(dst, positions, values, p []float64) float64 {
	var sum float64
	for i, x := range positions {
		r := values[i] - f.shape.Eval(x, p)
		dst[i] = r
		sum += r * r
	}
	return 0.5 * sum
}

func (f *Fitter) result(p, positions, values []float64, cost float64, iters int) Fit {
	return Fit{
		Shape:      f.shape,
		Params:     append([]float64(nil), p...),
		Positions:  append([]float64(nil), positions...),
		Values:     append([]float64(nil), values...),
		Cost:       cost,
		Iterations: iters,
	}
}

// solveDamped solves (JtJ + lambda*diag(JtJ)) delta = grad restricted to the
// free parameter indices.
func solveDamped(jtj *mat.SymDense, grad []float64, free []int, lambda float64) ([]float64, bool) {
	k := len(free)
	a := mat.NewSymDense(k, nil)
	b := mat.NewVecDense(k, nil)
	for i, fi := range free {
		b.SetVec(i, grad[fi])
		for j := i; j < k; j++ {
			v := jtj.At(fi, free[j])
			if i == j {
				v += lambda * math.Max(v, 1e-12)
			}
			a.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, false
	}
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, b); err != nil {
		return nil, false
	}
	out := make([]float64, k)
	for i := range out {
		out[i] = x.AtVec(i)
	}
	return out, true
}

// freeParams returns indices of parameters not pinned at a bound by the
// current descent direction.
func freeParams(p, grad, lo, hi []float64) []int {
	free := make([]int, 0, len(p))
	for i := range p {
		if p[i] <= lo[i] && grad[i] < 0 {
			continue
		}
		if p[i] >= hi[i] && grad[i] > 0 {
			continue
		}
		free = append(free, i)
	}
	return free
}

func clampParams(p, lo, hi []float64) {
	for i := range p {
		p[i] = math.Min(math.Max(p[i], lo[i]), hi[i])
	}
}

func maxAbsAt(v []float64, idx []int) float64 {
	var m float64
	for _, i := range idx {
		m = math.Max(m, math.Abs(v[i]))
	}
	return m
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
