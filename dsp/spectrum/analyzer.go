package spectrum

import (
	"errors"
	"fmt"
	"math/bits"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-modal/dsp/window"
	timestats "github.com/cwbudde/algo-modal/stats/time"
)

// ErrShape is returned when the columns passed to Analyze do not match the
// analyzer length or are missing.
var ErrShape = errors.New("spectrum: column shape mismatch")

// Channel holds the one-sided spectrum of one sensor column.
type Channel struct {
	Bins      []complex128 // first W/2 FFT bins
	Magnitude []float64    // |Bins|
}

// Result is the spectral analysis of one snapshot.
type Result struct {
	SampleRate float64
	Length     int
	BinHz      float64
	Freqs      []float64   // shared support, ascending, len W/2
	Axes       [][]Channel // [axis][sensor]
	Aggregate  []float64   // sum of every channel magnitude
}

// Bin returns the complex bins of every sensor of one axis at index k.
func (r Result) Bin(axis, k int) []complex128 {
	if axis < 0 || axis >= len(r.Axes) {
		return nil
	}
	out := make([]complex128, len(r.Axes[axis]))
	for s, ch := range r.Axes[axis] {
		if k >= 0 && k < len(ch.Bins) {
			out[s] = ch.Bins[k]
		}
	}
	return out
}

// Magnitudes returns every channel magnitude of one axis.
func (r Result) Magnitudes(axis int) [][]float64 {
	if axis < 0 || axis >= len(r.Axes) {
		return nil
	}
	out := make([][]float64, len(r.Axes[axis]))
	for s, ch := range r.Axes[axis] {
		out[s] = ch.Magnitude
	}
	return out
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*analyzerConfig)

type analyzerConfig struct {
	taper window.Type
}

// WithWindow tapers every DC-removed column with the given window before the
// FFT. Bins are divided by the window's coherent gain so tapered and
// untapered magnitudes stay comparable. The default is rectangular (no taper).
func WithWindow(t window.Type) AnalyzerOption {
	return func(c *analyzerConfig) {
		c.taper = t
	}
}

// Analyzer computes spectra for fixed-length sample windows. An Analyzer is
// not safe for concurrent use; it reuses its FFT plan and scratch buffers.
type Analyzer struct {
	sampleRate float64
	length     int
	taper      []float64
	gain       float64
	plan       *algofft.Plan[complex128]
	in, out    []complex128
	freqs      []float64
}

// NewAnalyzer plans an FFT of length points at sampleRate. length must be a
// power of two >= 4.
func NewAnalyzer(sampleRate float64, length int, opts ...AnalyzerOption) (*Analyzer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("spectrum: sample rate must be > 0: %f", sampleRate)
	}
	if length < 4 || bits.OnesCount(uint(length)) != 1 {
		return nil, fmt.Errorf("spectrum: length must be a power of two >= 4: %d", length)
	}

	cfg := analyzerConfig{taper: window.TypeRectangular}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	plan, err := algofft.NewPlan64(length)
	if err != nil {
		return nil, fmt.Errorf("spectrum: plan fft: %w", err)
	}

	a := &Analyzer{
		sampleRate: sampleRate,
		length:     length,
		plan:       plan,
		in:         make([]complex128, length),
		out:        make([]complex128, length),
		freqs:      Frequencies(length/2, length, sampleRate),
	}
	if cfg.taper != window.TypeRectangular {
		a.taper = window.Generate(cfg.taper, length, window.WithPeriodic())
		if a.gain, err = window.CoherentGain(a.taper); err != nil {
			return nil, fmt.Errorf("spectrum: %s window: %w", cfg.taper, err)
		}
	}

	return a, nil
}

// Length returns the analysis window length W.
func (a *Analyzer) Length() int {
	return a.length
}

// BinHz returns the bin spacing R/W.
func (a *Analyzer) BinHz() float64 {
	return a.sampleRate / float64(a.length)
}

// Analyze computes the spectrum of every column of every axis group. Each
// group holds one column per sensor; every column must have exactly W
// samples. The input columns are not modified.
func (a *Analyzer) Analyze(axes ...[][]float64) (Result, error) {
	if len(axes) == 0 {
		return Result{}, fmt.Errorf("%w: no axes", ErrShape)
	}

	half := a.length / 2
	res := Result{
		SampleRate: a.sampleRate,
		Length:     a.length,
		BinHz:      a.BinHz(),
		Freqs:      append([]float64(nil), a.freqs...),
		Axes:       make([][]Channel, len(axes)),
		Aggregate:  make([]float64, half),
	}

	for ai, cols := range axes {
		if len(cols) == 0 {
			return Result{}, fmt.Errorf("%w: axis %d has no sensors", ErrShape, ai)
		}
		res.Axes[ai] = make([]Channel, len(cols))
		for si, col := range cols {
			if len(col) != a.length {
				return Result{}, fmt.Errorf("%w: axis %d sensor %d has %d samples, want %d",
					ErrShape, ai, si, len(col), a.length)
			}
			ch, err := a.channel(col)
			if err != nil {
				return Result{}, err
			}
			for k, m := range ch.Magnitude {
				res.Aggregate[k] += m
			}
			res.Axes[ai][si] = ch
		}
	}

	return res, nil
}

func (a *Analyzer) channel(col []float64) (Channel, error) {
	sig := timestats.RemoveDC(col)
	if a.taper != nil {
		if err := window.ApplyCoefficientsInPlace(sig, a.taper); err != nil {
			return Channel{}, err
		}
	}

	for i, v := range sig {
		a.in[i] = complex(v, 0)
	}
	if err := a.plan.Forward(a.out, a.in); err != nil {
		return Channel{}, fmt.Errorf("spectrum: forward fft: %w", err)
	}

	bins := make([]complex128, a.length/2)
	copy(bins, a.out)
	if a.taper != nil {
		scale := complex(1/a.gain, 0)
		for k := range bins {
			bins[k] *= scale
		}
	}

	return Channel{Bins: bins, Magnitude: Magnitude(bins)}, nil
}
