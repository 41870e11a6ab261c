package spectrum

import (
	"fmt"
	"math"
	"strings"
)

// Peak is the selected dominant frequency bin.
type Peak struct {
	Index int
	Hz    float64
}

// PeakPolicy selects the dominant bin of an aggregate magnitude spectrum.
type PeakPolicy interface {
	Select(aggregate, freqs []float64) Peak
	Name() string
}

// Default disambiguation parameters.
const (
	DefaultMinSeparationHz = 1.0
	DefaultMaskRadius      = 1
)

// DisambiguatedPeak picks the global maximum, masks MaskRadius bins on either
// side of it and looks for the next maximum. The secondary bin is reported
// only when it lies more than MinSeparationHz away from the first; closer
// secondaries are treated as leakage of the first peak. If every bin outside
// the mask is zero the first peak is kept.
type DisambiguatedPeak struct {
	MinSeparationHz float64
	MaskRadius      int
}

// NewDisambiguatedPeak returns the policy with the default 1 Hz separation
// and a +/-1 bin mask.
func NewDisambiguatedPeak() DisambiguatedPeak {
	return DisambiguatedPeak{MinSeparationHz: DefaultMinSeparationHz, MaskRadius: DefaultMaskRadius}
}

// Name implements PeakPolicy.
func (DisambiguatedPeak) Name() string { return "disambiguated" }

// Select implements PeakPolicy.
func (p DisambiguatedPeak) Select(aggregate, freqs []float64) Peak {
	first := Argmax(aggregate)
	if len(aggregate) == 0 {
		return Peak{}
	}

	masked := make([]float64, len(aggregate))
	copy(masked, aggregate)
	lo := max(first-p.MaskRadius, 0)
	hi := min(first+p.MaskRadius, len(masked)-1)
	for i := lo; i <= hi; i++ {
		masked[i] = 0
	}

	second := Argmax(masked)
	// Nothing left outside the mask: there is no competing peak.
	if masked[second] <= 0 {
		return peakAt(first, freqs)
	}

	if math.Abs(freqAt(second, freqs)-freqAt(first, freqs)) > p.MinSeparationHz {
		return peakAt(second, freqs)
	}
	return peakAt(first, freqs)
}

// RawArgmaxPeak reports the global maximum of the aggregate spectrum.
type RawArgmaxPeak struct{}

// Name implements PeakPolicy.
func (RawArgmaxPeak) Name() string { return "raw-argmax" }

// Select implements PeakPolicy.
func (RawArgmaxPeak) Select(aggregate, freqs []float64) Peak {
	return peakAt(Argmax(aggregate), freqs)
}

// ParsePeakPolicy maps a policy name to a PeakPolicy with default parameters.
func ParsePeakPolicy(name string) (PeakPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "disambiguated":
		return NewDisambiguatedPeak(), nil
	case "raw-argmax", "argmax":
		return RawArgmaxPeak{}, nil
	default:
		return nil, fmt.Errorf("spectrum: unknown peak policy %q", name)
	}
}

func peakAt(i int, freqs []float64) Peak {
	return Peak{Index: i, Hz: freqAt(i, freqs)}
}

func freqAt(i int, freqs []float64) float64 {
	if i < 0 || i >= len(freqs) {
		return 0
	}
	return freqs[i]
}
