package control

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Bench defaults.
const (
	DefaultHeightCM   = 85.2
	DefaultPitchCM    = 11.0
	DefaultStartNorm  = 0.5
	DefaultGridPoints = 1000
)

var (
	// ErrInvalidController is returned by Validate for unusable geometry.
	ErrInvalidController = errors.New("control: invalid controller")
	errUnknownPolicy     = errors.New("control: unknown commit policy")
)

// Curve is a fitted mode shape over normalized height.
type Curve interface {
	Eval(x float64) float64
}

// Region is a closed interval of normalized height.
type Region struct {
	Lo, Hi float64
}

// Contains reports whether x lies in [Lo, Hi].
func (r Region) Contains(x float64) bool {
	return x >= r.Lo && x <= r.Hi
}

// State is the controller's memory between cycles.
type State struct {
	StartNorm float64 // last committed damper position, normalized
	Steps     int     // committed steps so far
}

// NewState returns the initial state with the damper at startNorm.
func NewState(startNorm float64) State {
	return State{StartNorm: startNorm}
}

// Command is one incremental actuator move.
type Command struct {
	Target      float64 // new normalized damper position (x_max)
	DeltaNorm   float64
	Centimeters float64
	Degrees     float64
}

// Controller maps peak locations to commands.
type Controller struct {
	Height     float64 // structure height in cm
	PitchCM    float64 // lead-screw travel per revolution in cm
	Region     Region
	GridPoints int
}

// New returns a controller with the bench geometry.
func New() Controller {
	return Controller{
		Height:     DefaultHeightCM,
		PitchCM:    DefaultPitchCM,
		Region:     Region{Lo: 0.3, Hi: 0.7},
		GridPoints: DefaultGridPoints,
	}
}

// Validate checks the controller geometry.
func (c Controller) Validate() error {
	switch {
	case !(c.Height > 0):
		return fmt.Errorf("%w: height %v", ErrInvalidController, c.Height)
	case !(c.PitchCM > 0):
		return fmt.Errorf("%w: pitch %v", ErrInvalidController, c.PitchCM)
	case c.GridPoints < 2:
		return fmt.Errorf("%w: %d grid points", ErrInvalidController, c.GridPoints)
	case c.Region.Lo < 0 || c.Region.Hi > 1 || c.Region.Lo > c.Region.Hi:
		return fmt.Errorf("%w: region [%v, %v]", ErrInvalidController, c.Region.Lo, c.Region.Hi)
	}
	return nil
}

// Grid returns the evaluation grid: GridPoints evenly spaced points on [0, 1].
func (c Controller) Grid() []float64 {
	n := max(c.GridPoints, 2)
	xs := make([]float64, n)
	floats.Span(xs, 0, 1)
	return xs
}

// Locate returns the grid point inside Region with the largest |curve|.
// Ties keep the lowest position. If the grid has no point in the region the
// region midpoint is returned.
func (c Controller) Locate(curve Curve) float64 {
	best, bestAbs := math.NaN(), -1.0
	for _, x := range c.Grid() {
		if !c.Region.Contains(x) {
			continue
		}
		if v := math.Abs(curve.Eval(x)); v > bestAbs {
			best, bestAbs = x, v
		}
	}
	if math.IsNaN(best) {
		return 0.5 * (c.Region.Lo + c.Region.Hi)
	}
	return best
}

// Step computes the command that moves the damper from state.StartNorm to
// xMax and the state that results once the command is committed.
func (c Controller) Step(state State, xMax float64) (State, Command) {
	deltaNorm := xMax - state.StartNorm
	deltaCM := deltaNorm * c.Height
	cmd := Command{
		Target:      xMax,
		DeltaNorm:   deltaNorm,
		Centimeters: deltaCM,
		Degrees:     deltaCM * 360 / c.PitchCM,
	}
	return State{StartNorm: xMax, Steps: state.Steps + 1}, cmd
}

// CommitPolicy decides whether a computed step replaces the controller state.
type CommitPolicy int

const (
	// CommitOnCompute advances the state as soon as the command is computed,
	// even if delivery later fails.
	CommitOnCompute CommitPolicy = iota
	// CommitOnDelivery advances the state only after successful delivery.
	CommitOnDelivery
)

// String returns the policy name accepted by ParseCommitPolicy.
func (p CommitPolicy) String() string {
	switch p {
	case CommitOnCompute:
		return "compute"
	case CommitOnDelivery:
		return "delivery"
	default:
		return fmt.Sprintf("CommitPolicy(%d)", int(p))
	}
}

// ParseCommitPolicy maps "compute" or "delivery" to a policy.
func ParseCommitPolicy(s string) (CommitPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "compute", "on-compute":
		return CommitOnCompute, nil
	case "delivery", "on-delivery":
		return CommitOnDelivery, nil
	default:
		return 0, fmt.Errorf("%w: %q", errUnknownPolicy, s)
	}
}

// Commit returns next when the policy accepts the step, prev otherwise.
func (p CommitPolicy) Commit(prev, next State, deliveryErr error) State {
	if p == CommitOnDelivery && deliveryErr != nil {
		return prev
	}
	return next
}
