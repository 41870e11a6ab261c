package modal

import (
	"fmt"

	"github.com/cwbudde/algo-modal/dsp/spectrum"
)

// Estimate is one axis' mode-shape estimate at the dominant bin.
type Estimate struct {
	Amplitudes []float64 // raw per-sensor amplitudes at the dominant bin
	Normalized []float64
	Fit        Fit
}

// Estimator extracts per-sensor amplitudes at the dominant bin, normalizes
// them and fits the mode shape against the sensor positions.
type Estimator struct {
	positions []float64
	amplitude AmplitudeStrategy
	fitter    *Fitter
}

// NewEstimator returns an Estimator for sensors at the given normalized
// heights.
func NewEstimator(positions []float64, amplitude AmplitudeStrategy, fitter *Fitter) (*Estimator, error) {
	if fitter == nil {
		return nil, fmt.Errorf("modal: nil fitter")
	}
	if amplitude == nil {
		amplitude = MagnitudeAmplitude{}
	}
	if len(positions) < fitter.Shape().NumParams() {
		return nil, fmt.Errorf("%w: %d positions for %d params", ErrInsufficientData, len(positions), fitter.Shape().NumParams())
	}
	return &Estimator{
		positions: append([]float64(nil), positions...),
		amplitude: amplitude,
		fitter:    fitter,
	}, nil
}

// Positions returns the sensor heights.
func (e *Estimator) Positions() []float64 {
	return append([]float64(nil), e.positions...)
}

// Strategy returns the amplitude extraction strategy.
func (e *Estimator) Strategy() AmplitudeStrategy {
	return e.amplitude
}

// Estimate fits the mode shape of one analysed axis at bin k.
func (e *Estimator) Estimate(res spectrum.Result, axis, k int) (Estimate, error) {
	bins := res.Bin(axis, k)
	if len(bins) != len(e.positions) {
		return Estimate{}, fmt.Errorf("%w: axis %d has %d sensors, %d positions configured",
			ErrInsufficientData, axis, len(bins), len(e.positions))
	}

	amps := e.amplitude.Extract(bins)
	norm, err := Normalize(amps)
	if err != nil {
		return Estimate{Amplitudes: amps}, err
	}

	fit, err := e.fitter.Fit(e.positions, norm)
	if err != nil {
		return Estimate{Amplitudes: amps, Normalized: norm}, err
	}

	return Estimate{Amplitudes: amps, Normalized: norm, Fit: fit}, nil
}
