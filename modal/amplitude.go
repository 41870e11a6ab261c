package modal

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-modal/dsp/spectrum"
)

// AmplitudeStrategy reduces the complex bins of each sensor at the dominant
// frequency to one real amplitude per sensor.
type AmplitudeStrategy interface {
	Name() string
	Extract(bins []complex128) []float64
}

// MagnitudeAmplitude uses |X[k]|. Signs are lost, so opposite-phase sensors
// look alike.
type MagnitudeAmplitude struct{}

// Name returns "magnitude".
func (MagnitudeAmplitude) Name() string { return "magnitude" }

// Extract returns |X[k]| per sensor.
func (MagnitudeAmplitude) Extract(bins []complex128) []float64 {
	return spectrum.Magnitude(bins)
}

// RealPartAmplitude uses Re(X[k]). It keeps relative sign but depends on the
// phase of the oscillation within the window.
type RealPartAmplitude struct{}

// Name returns "real-part".
func (RealPartAmplitude) Name() string { return "real-part" }

// Extract returns Re(X[k]) per sensor.
func (RealPartAmplitude) Extract(bins []complex128) []float64 {
	return spectrum.RealPart(bins)
}

// ParseAmplitudeStrategy maps a strategy name to its implementation.
func ParseAmplitudeStrategy(name string) (AmplitudeStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "magnitude":
		return MagnitudeAmplitude{}, nil
	case "real-part", "real":
		return RealPartAmplitude{}, nil
	default:
		return nil, fmt.Errorf("modal: unknown amplitude strategy %q", name)
	}
}

// Normalize divides amps by their largest absolute value. A zero (or
// non-finite) maximum yields ErrDegenerateSignal instead of a division.
func Normalize(amps []float64) ([]float64, error) {
	var peak float64
	for _, a := range amps {
		if v := math.Abs(a); v > peak {
			peak = v
		}
	}
	if peak == 0 || math.IsInf(peak, 0) || math.IsNaN(peak) {
		return nil, ErrDegenerateSignal
	}

	out := make([]float64, len(amps))
	for i, a := range amps {
		out[i] = a / peak
	}
	return out, nil
}
