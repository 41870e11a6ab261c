// Package render draws mode-shape snapshots with gonum/plot.
package render

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/cwbudde/algo-modal/modal"
	"github.com/cwbudde/algo-modal/pipeline"
)

const (
	curvePoints = 200
	widthIn     = 6.0
	heightIn    = 4.5
	dpi         = 96
)

var (
	theoryColor = color.RGBA{R: 90, G: 90, B: 90, A: 255}
	fitColor    = color.RGBA{R: 230, G: 126, B: 34, A: 255}
	sensorColor = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	peakColor   = color.RGBA{R: 40, G: 110, B: 200, A: 255}
)

// Snapshot is the data shown in one mode-shape plot.
type Snapshot struct {
	Title      string
	Reference  modal.Shape // theoretical shape, drawn with unit amplitude
	Fit        modal.Fit
	Positions  []float64
	Normalized []float64
	XMax       float64 // marked when in (0, 1]
}

// FromOutcome builds the snapshot of a cycle's control axis.
func FromOutcome(o pipeline.Outcome) Snapshot {
	s := Snapshot{
		Title:     fmt.Sprintf("Mode shape (%s axis, %.2f Hz)", o.ControlAxis, o.Peak.Hz),
		Reference: modal.NewFixedBeta(),
		Fit:       o.Fit,
		Positions: o.Fit.Positions,
		XMax:      o.XMax,
	}
	for _, af := range o.Axes {
		if af.Axis == o.ControlAxis {
			s.Normalized = af.Estimate.Normalized
		}
	}
	return s
}

// Plot builds the plot of s.
func Plot(s Snapshot) (*plot.Plot, error) {
	if s.Fit.Shape == nil {
		return nil, errors.New("render: snapshot has no fitted shape")
	}
	if len(s.Positions) != len(s.Normalized) {
		return nil, fmt.Errorf("render: %d positions, %d amplitudes", len(s.Positions), len(s.Normalized))
	}

	p := plot.New()
	p.Title.Text = s.Title
	p.X.Label.Text = "normalized height"
	p.Y.Label.Text = "relative amplitude"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = -1.2, 1.2
	p.Add(plotter.NewGrid())

	if s.Reference != nil {
		params := s.Reference.Initial()
		params[0] = 1
		ref, err := curve(func(x float64) float64 { return s.Reference.Eval(x, params) })
		if err != nil {
			return nil, err
		}
		ref.Color = theoryColor
		ref.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(ref)
		p.Legend.Add("theoretical", ref)
	}

	fit, err := curve(s.Fit.Eval)
	if err != nil {
		return nil, err
	}
	fit.Color = fitColor
	fit.Width = vg.Points(2)
	p.Add(fit)
	p.Legend.Add(fmt.Sprintf("fit A=%.3f b=%.3f", s.Fit.A(), s.Fit.Beta()), fit)

	if len(s.Positions) > 0 {
		pts := make(plotter.XYs, len(s.Positions))
		for i := range s.Positions {
			pts[i].X, pts[i].Y = s.Positions[i], s.Normalized[i]
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = sensorColor
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(4)
		p.Add(sc)
		p.Legend.Add("sensors", sc)
	}

	if s.XMax > 0 && s.XMax <= 1 {
		mark, err := plotter.NewLine(plotter.XYs{{X: s.XMax, Y: -1.2}, {X: s.XMax, Y: 1.2}})
		if err != nil {
			return nil, err
		}
		mark.Color = peakColor
		p.Add(mark)
		p.Legend.Add(fmt.Sprintf("x_max=%.3f", s.XMax), mark)
	}

	p.Legend.Top = true
	return p, nil
}

func curve(f func(float64) float64) (*plotter.Line, error) {
	pts := make(plotter.XYs, curvePoints)
	for i := range pts {
		x := float64(i) / float64(curvePoints-1)
		y := f(x)
		if math.IsNaN(y) || math.IsInf(y, 0) {
			y = 0
		}
		pts[i].X, pts[i].Y = x, y
	}
	return plotter.NewLine(pts)
}

// WritePNG renders s as PNG to w.
func WritePNG(w io.Writer, s Snapshot) error {
	p, err := Plot(s)
	if err != nil {
		return err
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(dpi),
	)
	p.Draw(draw.New(c))

	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("render: write png: %w", err)
	}
	return nil
}

// File implements pipeline.Sink by rewriting one PNG after every cycle.
type File struct {
	path string
}

// NewFile returns a sink writing to path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Record renders the outcome's control-axis fit. The file is replaced
// atomically so viewers never see a partial image.
func (f *File) Record(_ context.Context, o pipeline.Outcome) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".modeshape-*.png")
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WritePNG(tmp, FromOutcome(o)); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}
