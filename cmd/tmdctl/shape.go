package main

import (
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-modal/control"
	"github.com/cwbudde/algo-modal/modal"
)

func newShapeCmd(opts *options) *cobra.Command {
	var (
		points int
		amp    float64
	)
	cmd := &cobra.Command{
		Use:   "shape",
		Short: "Print the configured mode shape at evenly spaced heights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if points < 2 {
				return fmt.Errorf("--points must be >= 2: %d", points)
			}

			shape := cfg.Shape()
			params := shape.Initial()
			params[0] = amp
			ctl := cfg.Controller()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "x\tphi(x)\t|phi(x)|\tsensor\tregion\n")
			fmt.Fprintf(tw, "-\t------\t--------\t------\t------\n")
			for i := range points {
				x := float64(i) / float64(points-1)
				y := shape.Eval(x, params)
				fmt.Fprintf(tw, "%.3f\t%+.4f\t%.4f\t%s\t%s\n", x, y, math.Abs(y),
					mark(isSensor(x, cfg.Positions)), mark(ctl.Region.Contains(x)))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			xMax := ctl.Locate(curve{shape: shape, params: params})
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s: beta=%.4f eta=%.4f, peak |phi| in [%.2f, %.2f] at x=%.3f\n",
				shape.Name(), shape.Beta(params), eta(shape, params), ctl.Region.Lo, ctl.Region.Hi, xMax)
			return nil
		},
	}
	cmd.Flags().IntVar(&points, "points", 21, "number of heights")
	cmd.Flags().Float64Var(&amp, "amplitude", 1, "mode amplitude A")
	return cmd
}

type curve struct {
	shape  modal.Shape
	params []float64
}

func (c curve) Eval(x float64) float64 { return c.shape.Eval(x, c.params) }

var _ control.Curve = curve{}

func eta(s modal.Shape, p []float64) float64 {
	if fb, ok := s.(modal.FixedBeta); ok {
		return fb.EtaValue
	}
	return modal.Eta(s.Beta(p))
}

func isSensor(x float64, positions []float64) bool {
	for _, p := range positions {
		if math.Abs(p-x) < 1e-9 {
			return true
		}
	}
	return false
}

func mark(b bool) string {
	if b {
		return "*"
	}
	return ""
}
