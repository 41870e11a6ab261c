package render

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-modal/modal"
	"github.com/cwbudde/algo-modal/pipeline"
	"github.com/cwbudde/algo-modal/sensor"
)

func sampleFit(t *testing.T) modal.Fit {
	t.Helper()
	shape := modal.NewFixedBeta()
	positions := []float64{0.3, 0.6, 0.9}
	values := []float64{0.74, 1, 0.145}
	for i := range values {
		values[i] = -values[i]
	}
	f, err := modal.NewFitter(shape)
	require.NoError(t, err)
	fit, err := f.Fit(positions, values)
	require.NoError(t, err)
	return fit
}

func TestWritePNG(t *testing.T) {
	fit := sampleFit(t)
	var buf bytes.Buffer
	err := WritePNG(&buf, Snapshot{
		Title:      "test",
		Reference:  modal.NewFixedBeta(),
		Fit:        fit,
		Positions:  fit.Positions,
		Normalized: fit.Values,
		XMax:       0.504,
	})
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, int(widthIn*dpi), img.Bounds().Dx())
	require.Equal(t, int(heightIn*dpi), img.Bounds().Dy())
}

func TestPlotRejectsBadSnapshot(t *testing.T) {
	_, err := Plot(Snapshot{})
	require.Error(t, err)

	_, err = Plot(Snapshot{Fit: sampleFit(t), Positions: []float64{0.3}, Normalized: nil})
	require.Error(t, err)
}

func TestFileSink(t *testing.T) {
	fit := sampleFit(t)
	o := pipeline.Outcome{
		ControlAxis: sensor.AxisZ,
		Fit:         fit,
		XMax:        0.5,
		Axes: []pipeline.AxisFit{{
			Axis:     sensor.AxisZ,
			Estimate: modal.Estimate{Normalized: fit.Values, Fit: fit},
		}},
	}

	path := filepath.Join(t.TempDir(), "plots", "mode.png")
	sink := NewFile(path)
	require.NoError(t, sink.Record(context.Background(), o))
	require.NoError(t, sink.Record(context.Background(), o))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
