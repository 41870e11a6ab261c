package pipeline

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-modal/control"
	"github.com/cwbudde/algo-modal/dsp/spectrum"
	"github.com/cwbudde/algo-modal/internal/testutil"
	"github.com/cwbudde/algo-modal/modal"
	"github.com/cwbudde/algo-modal/sensor"
)

func TestProcessSecondModeScenario(t *testing.T) {
	p := newBenchPipeline(t)
	x := twoModeColumns(300, 0, benchLength)
	z := twoModeColumns(1000, -16000, benchLength)

	state := control.NewState(control.DefaultStartNorm)
	next, out, err := p.Process(state, [][][]float64{x, z})
	require.NoError(t, err)

	require.Equal(t, secondBin, out.Peak.Index)
	require.InDelta(t, secondHz, out.Peak.Hz, 1e-12)
	require.Len(t, out.Axes, 2)
	for _, af := range out.Axes {
		require.NoError(t, af.Err, "axis %s", af.Axis)
	}

	amps := secondModeAmps(1)
	peak := 0.0
	for _, a := range amps {
		peak = math.Max(peak, math.Abs(a))
	}
	// Magnitudes drop the sign of the (negative) shape.
	require.InDelta(t, -1/peak, out.Fit.A(), 1e-6)

	region := p.Controller().Region
	require.True(t, region.Contains(out.XMax))
	require.InDelta(t, analyticXMax(region), out.XMax, 1.0/float64(control.DefaultGridPoints-1))

	wantDeg := (out.XMax - 0.5) * control.DefaultHeightCM * 360 / control.DefaultPitchCM
	require.InDelta(t, wantDeg, out.Command.Degrees, 1e-9)
	require.Equal(t, out.XMax, next.StartNorm)
	require.Equal(t, 1, next.Steps)
	require.Greater(t, out.MeanMagnitude, 0.0)
	require.Greater(t, out.RMS, 0.0)
}

func TestProcessSignalLevels(t *testing.T) {
	p := newBenchPipeline(t)
	x := twoModeColumns(300, 0, benchLength)
	z := twoModeColumns(1000, -16000, benchLength)

	_, out, err := p.Process(control.NewState(0.5), [][][]float64{x, z})
	require.NoError(t, err)

	// Both modes line up at sample 16: the middle Z sensor sees
	// -2000 + 1000*basis(0.6) there.
	mid := modal.Basis(benchPositions[1], modal.SecondModeBeta, modal.SecondModeEta)
	require.InDelta(t, 2000+1000*math.Abs(mid), out.PeakAccel, 1e-6)

	// Only bins 16 and 128 carry energy; each contributes W/2 per unit amplitude.
	var second float64
	for _, a := range secondModeAmps(1) {
		second += math.Abs(a)
	}
	m1 := 2 * (1000 + 2000 + 3000.0)
	m2 := (300 + 1000) * second
	want := (firstHz*m1 + secondHz*m2) / (m1 + m2)
	require.InDelta(t, want, out.CentroidHz, 1e-6)
	require.Greater(t, out.CentroidHz, firstHz)
	require.Less(t, out.CentroidHz, secondHz)
}

func TestProcessIdempotentUnderNoChange(t *testing.T) {
	p := newBenchPipeline(t)
	snaps := [][][]float64{
		twoModeColumns(300, 0, benchLength),
		twoModeColumns(1000, -16000, benchLength),
	}

	state, first, err := p.Process(control.NewState(0.5), snaps)
	require.NoError(t, err)

	next, second, err := p.Process(state, snaps)
	require.NoError(t, err)
	require.Equal(t, first.XMax, second.XMax)
	require.Equal(t, "0.00", formatDeg(second.Command.Degrees))
	require.Equal(t, state.StartNorm, next.StartNorm)
}

func TestProcessRawArgmaxFollowsFirstMode(t *testing.T) {
	p := newBenchPipeline(t, WithPeakPolicy(spectrum.RawArgmaxPeak{}))
	snaps := [][][]float64{
		twoModeColumns(300, 0, benchLength),
		twoModeColumns(1000, -16000, benchLength),
	}
	_, out, err := p.Process(control.NewState(0.5), snaps)
	require.NoError(t, err)
	require.Equal(t, 16, out.Peak.Index)
}

func TestProcessDegenerateSkips(t *testing.T) {
	p := newBenchPipeline(t, WithAxes(sensor.AxisZ, sensor.AxisZ))
	flat := [][]float64{
		testutil.DC(-16000, benchLength),
		testutil.DC(-16100, benchLength),
		testutil.DC(-15900, benchLength),
	}

	state := control.NewState(0.42)
	got, out, err := p.Process(state, [][][]float64{flat})
	require.ErrorIs(t, err, modal.ErrDegenerateSignal)
	require.Equal(t, SkipDegenerate, SkipReason(err))
	require.Equal(t, state, got)
	require.Equal(t, 0, out.Peak.Index)
}

func TestProcessShapeMismatch(t *testing.T) {
	p := newBenchPipeline(t)
	_, _, err := p.Process(control.NewState(0.5), [][][]float64{twoModeColumns(1, 0, benchLength)})
	require.ErrorIs(t, err, spectrum.ErrShape)
}

func TestNewRejectsUntrackedControlAxis(t *testing.T) {
	an, _ := spectrum.NewAnalyzer(benchRate, benchLength)
	fitter, _ := modal.NewFitter(modal.NewFixedBeta())
	est, _ := modal.NewEstimator(benchPositions, nil, fitter)

	_, err := New(an, est, control.New(), WithAxes(sensor.AxisZ, sensor.AxisX))
	require.ErrorIs(t, err, errNoControlAxis)
}

func TestSkipReason(t *testing.T) {
	require.Equal(t, SkipNoConvergence, SkipReason(modal.ErrNoConvergence))
	require.Equal(t, SkipOther, SkipReason(errors.New("x")))
}

func TestOutcomeSummary(t *testing.T) {
	p := newBenchPipeline(t)
	_, out, err := p.Process(control.NewState(0.5), [][][]float64{
		twoModeColumns(300, 0, benchLength),
		twoModeColumns(1000, -16000, benchLength),
	})
	require.NoError(t, err)
	out.Dispatch = errors.New("port busy")

	s := out.Summary()
	require.Equal(t, "z", s.Axis)
	require.Equal(t, secondBin, s.PeakBin)
	require.Len(t, s.Normalized, 3)
	require.Equal(t, out.Command.Degrees, s.DeltaDeg)
	require.Equal(t, "port busy", s.DispatchError)
	require.Equal(t, out.PeakAccel, s.PeakAccel)
	require.Equal(t, out.CentroidHz, s.CentroidHz)
}

func formatDeg(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
