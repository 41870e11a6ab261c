package pipeline

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-modal/control"
	"github.com/cwbudde/algo-modal/dsp/spectrum"
	"github.com/cwbudde/algo-modal/modal"
	"github.com/cwbudde/algo-modal/sensor"
	freqstats "github.com/cwbudde/algo-modal/stats/frequency"
	timestats "github.com/cwbudde/algo-modal/stats/time"
)

var errNoControlAxis = errors.New("pipeline: control axis is not tracked")

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPeakPolicy sets the dominant-bin policy. The default is
// spectrum.NewDisambiguatedPeak().
func WithPeakPolicy(p spectrum.PeakPolicy) Option {
	return func(pl *Pipeline) {
		if p != nil {
			pl.peak = p
		}
	}
}

// WithAxes sets the tracked axes and the one that drives the controller.
// The default tracks X and Z and controls on Z.
func WithAxes(ctl sensor.Axis, axes ...sensor.Axis) Option {
	return func(pl *Pipeline) {
		if len(axes) > 0 {
			pl.axes = append([]sensor.Axis(nil), axes...)
		}
		pl.control = ctl
	}
}

// Pipeline runs one analysis cycle on window snapshots.
type Pipeline struct {
	analyzer   *spectrum.Analyzer
	estimator  *modal.Estimator
	controller control.Controller
	peak       spectrum.PeakPolicy
	axes       []sensor.Axis
	control    sensor.Axis
	controlIdx int
}

// New assembles a Pipeline.
func New(analyzer *spectrum.Analyzer, estimator *modal.Estimator, controller control.Controller, opts ...Option) (*Pipeline, error) {
	if analyzer == nil || estimator == nil {
		return nil, fmt.Errorf("pipeline: analyzer and estimator are required")
	}
	if err := controller.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		analyzer:   analyzer,
		estimator:  estimator,
		controller: controller,
		peak:       spectrum.NewDisambiguatedPeak(),
		axes:       []sensor.Axis{sensor.AxisX, sensor.AxisZ},
		control:    sensor.AxisZ,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	p.controlIdx = -1
	for i, a := range p.axes {
		if a == p.control {
			p.controlIdx = i
		}
	}
	if p.controlIdx < 0 {
		return nil, fmt.Errorf("%w: %s", errNoControlAxis, p.control)
	}
	return p, nil
}

// Axes returns the tracked axes in snapshot order.
func (p *Pipeline) Axes() []sensor.Axis {
	return append([]sensor.Axis(nil), p.axes...)
}

// ControlAxis returns the axis that drives the controller.
func (p *Pipeline) ControlAxis() sensor.Axis {
	return p.control
}

// WindowLength returns the number of samples per snapshot column.
func (p *Pipeline) WindowLength() int {
	return p.analyzer.Length()
}

// Controller returns the controller geometry.
func (p *Pipeline) Controller() control.Controller {
	return p.controller
}

// Estimator returns the mode-shape estimator.
func (p *Pipeline) Estimator() *modal.Estimator {
	return p.estimator
}

// Process runs one cycle. snapshots holds one group of sensor columns per
// tracked axis, in Axes order. It returns the state that results from
// committing the computed command; on error the input state is returned
// together with whatever part of the outcome was computed.
func (p *Pipeline) Process(state control.State, snapshots [][][]float64) (control.State, Outcome, error) {
	out := Outcome{ControlAxis: p.control}
	if len(snapshots) != len(p.axes) {
		return state, out, fmt.Errorf("%w: %d axis snapshots, %d axes tracked",
			spectrum.ErrShape, len(snapshots), len(p.axes))
	}

	res, err := p.analyzer.Analyze(snapshots...)
	if err != nil {
		return state, out, err
	}

	out.Peak = p.peak.Select(res.Aggregate, res.Freqs)
	out.MeanMagnitude, out.RMS, out.PeakAccel = levels(res, snapshots)
	out.CentroidHz = freqstats.Centroid(res.Aggregate, res.BinHz)

	out.Axes = make([]AxisFit, len(p.axes))
	for i, axis := range p.axes {
		est, err := p.estimator.Estimate(res, i, out.Peak.Index)
		out.Axes[i] = AxisFit{Axis: axis, Estimate: est, Err: err}
	}

	ctl := out.Axes[p.controlIdx]
	if ctl.Err != nil {
		return state, out, fmt.Errorf("pipeline: %s axis: %w", p.control, ctl.Err)
	}
	out.Fit = ctl.Estimate.Fit
	out.XMax = p.controller.Locate(out.Fit)

	next, cmd := p.controller.Step(state, out.XMax)
	out.Command = cmd
	out.State = next
	return next, out, nil
}

func levels(res spectrum.Result, snapshots [][][]float64) (meanMag, rms, peak float64) {
	var spectra, cols [][]float64
	for ai, group := range snapshots {
		spectra = append(spectra, res.Magnitudes(ai)...)
		for _, col := range group {
			centered := timestats.RemoveDC(col)
			peak = max(peak, timestats.Peak(centered))
			cols = append(cols, centered)
		}
	}
	return freqstats.MeanOfMeans(spectra), timestats.MeanRMS(cols), peak
}
