package pipeline

import (
	"errors"
	"time"

	"github.com/cwbudde/algo-modal/control"
	"github.com/cwbudde/algo-modal/dsp/spectrum"
	"github.com/cwbudde/algo-modal/modal"
	"github.com/cwbudde/algo-modal/sensor"
)

// AxisFit is the mode-shape estimate of one tracked axis.
type AxisFit struct {
	Axis     sensor.Axis
	Estimate modal.Estimate
	Err      error
}

// Outcome describes one completed analysis cycle.
type Outcome struct {
	RunID string
	Cycle int
	Time  time.Time

	Peak          spectrum.Peak
	MeanMagnitude float64 // mean FFT magnitude over every channel
	RMS           float64 // mean RMS of the DC-removed columns
	PeakAccel     float64 // largest |sample| of the DC-removed columns
	CentroidHz    float64 // spectral centroid of the aggregate spectrum

	Axes        []AxisFit
	ControlAxis sensor.Axis
	Fit         modal.Fit // fit of the control axis
	XMax        float64

	Command   control.Command
	State     control.State // state after the step, committed or not
	Committed bool
	Dispatch  error

	Latency time.Duration
}

// Summary is the flat, serializable form of an Outcome.
type Summary struct {
	RunID         string    `json:"run_id"`
	Cycle         int       `json:"cycle"`
	Time          time.Time `json:"time"`
	PeakBin       int       `json:"peak_bin"`
	PeakHz        float64   `json:"peak_hz"`
	MeanMagnitude float64   `json:"mean_magnitude"`
	RMS           float64   `json:"rms"`
	PeakAccel     float64   `json:"peak_accel"`
	CentroidHz    float64   `json:"centroid_hz"`
	Axis          string    `json:"axis"`
	Normalized    []float64 `json:"normalized"`
	A             float64   `json:"a"`
	Beta          float64   `json:"beta"`
	XMax          float64   `json:"x_max"`
	DeltaNorm     float64   `json:"delta_norm"`
	DeltaCM       float64   `json:"delta_cm"`
	DeltaDeg      float64   `json:"delta_deg"`
	StartNorm     float64   `json:"start_norm"`
	Committed     bool      `json:"committed"`
	DispatchError string    `json:"dispatch_error,omitempty"`
	LatencyMS     float64   `json:"latency_ms"`
}

// Summary flattens o for recording and publishing.
func (o Outcome) Summary() Summary {
	s := Summary{
		RunID:         o.RunID,
		Cycle:         o.Cycle,
		Time:          o.Time,
		PeakBin:       o.Peak.Index,
		PeakHz:        o.Peak.Hz,
		MeanMagnitude: o.MeanMagnitude,
		RMS:           o.RMS,
		PeakAccel:     o.PeakAccel,
		CentroidHz:    o.CentroidHz,
		Axis:          o.ControlAxis.String(),
		A:             o.Fit.A(),
		Beta:          o.Fit.Beta(),
		XMax:          o.XMax,
		DeltaNorm:     o.Command.DeltaNorm,
		DeltaCM:       o.Command.Centimeters,
		DeltaDeg:      o.Command.Degrees,
		StartNorm:     o.State.StartNorm,
		Committed:     o.Committed,
		LatencyMS:     float64(o.Latency) / float64(time.Millisecond),
	}
	for _, af := range o.Axes {
		if af.Axis == o.ControlAxis {
			s.Normalized = af.Estimate.Normalized
		}
	}
	if o.Dispatch != nil {
		s.DispatchError = o.Dispatch.Error()
	}
	return s
}

// Skip reasons reported to observers.
const (
	SkipDegenerate    = "degenerate"
	SkipNoConvergence = "no-convergence"
	SkipOther         = "other"
)

// SkipReason classifies a Process error.
func SkipReason(err error) string {
	switch {
	case errors.Is(err, modal.ErrDegenerateSignal):
		return SkipDegenerate
	case errors.Is(err, modal.ErrNoConvergence):
		return SkipNoConvergence
	default:
		return SkipOther
	}
}
