package pipeline

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-modal/control"
	"github.com/cwbudde/algo-modal/dsp/spectrum"
	"github.com/cwbudde/algo-modal/internal/testutil"
	"github.com/cwbudde/algo-modal/modal"
)

const (
	benchRate   = 100.0
	benchLength = 512
	firstHz     = 3.125 // bin 16
	secondHz    = 25.0  // bin 128
	secondBin   = 128
)

var benchPositions = []float64{0.3, 0.6, 0.9}

// secondModeAmps evaluates the fixed second-mode shape at the sensors.
func secondModeAmps(scale float64) []float64 {
	out := make([]float64, len(benchPositions))
	for i, x := range benchPositions {
		out[i] = scale * modal.Basis(x, modal.SecondModeBeta, modal.SecondModeEta)
	}
	return out
}

// twoModeColumns superposes a strong first mode and the second mode at
// exact bins on top of a static offset.
func twoModeColumns(secondScale, offset float64, length int) [][]float64 {
	first := testutil.ModalColumns(firstHz, benchRate, offset, []float64{1000, 2000, 3000}, length)
	second := testutil.ModalColumns(secondHz, benchRate, 0, secondModeAmps(secondScale), length)
	for s := range first {
		for i := range first[s] {
			first[s][i] += second[s][i]
		}
	}
	return first
}

// analyticXMax scans |shape| finely over the controller region.
func analyticXMax(region control.Region) float64 {
	best, bestAbs := region.Lo, -1.0
	for x := region.Lo; x <= region.Hi; x += 1e-5 {
		if v := math.Abs(modal.Basis(x, modal.SecondModeBeta, modal.SecondModeEta)); v > bestAbs {
			best, bestAbs = x, v
		}
	}
	return best
}

func newBenchPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	an, err := spectrum.NewAnalyzer(benchRate, benchLength)
	require.NoError(t, err)
	fitter, err := modal.NewFitter(modal.NewFixedBeta())
	require.NoError(t, err)
	est, err := modal.NewEstimator(benchPositions, modal.MagnitudeAmplitude{}, fitter)
	require.NoError(t, err)
	p, err := New(an, est, control.New(), opts...)
	require.NoError(t, err)
	return p
}

type memSink struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (s *memSink) Record(_ context.Context, o Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, o)
	return nil
}

type memStates struct {
	state control.State
	ok    bool
	saves int
}

func (m *memStates) LoadState(context.Context) (control.State, bool, error) {
	return m.state, m.ok, nil
}

func (m *memStates) SaveState(_ context.Context, s control.State) error {
	m.state, m.ok = s, true
	m.saves++
	return nil
}

type countingObserver struct {
	mu                         sync.Mutex
	malformed, cycles          int
	skips                      map[string]int
	dispatchOK, dispatchFailed int
}

func (c *countingObserver) ObserveMalformed() { c.mu.Lock(); c.malformed++; c.mu.Unlock() }

func (c *countingObserver) ObserveSkip(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.skips == nil {
		c.skips = map[string]int{}
	}
	c.skips[reason]++
}

func (c *countingObserver) ObserveDispatch(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.dispatchFailed++
	} else {
		c.dispatchOK++
	}
}

func (c *countingObserver) ObserveCycle(Outcome) { c.mu.Lock(); c.cycles++; c.mu.Unlock() }
