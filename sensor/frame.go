package sensor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedFrame is returned for records with the wrong field count or a
// non-numeric field.
var ErrMalformedFrame = errors.New("sensor: malformed frame")

// Axis selects one of the two acceleration axes reported per sensor.
type Axis int

const (
	// AxisX is the first value of each sensor pair.
	AxisX Axis = iota
	// AxisZ is the second value of each sensor pair.
	AxisZ
)

// String returns the lower-case axis name.
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// ParseAxis maps "x"/"z" (any case) to an Axis.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return AxisX, nil
	case "z":
		return AxisZ, nil
	default:
		return 0, fmt.Errorf("sensor: unknown axis %q", s)
	}
}

// Frame is one timestep of readings: 2*Sensors integers, interleaved
// axis-1/axis-2 per sensor position.
type Frame struct {
	values []int
}

// NewFrame wraps interleaved readings. The slice length must be even and > 0.
func NewFrame(values []int) (Frame, error) {
	if len(values) == 0 || len(values)%2 != 0 {
		return Frame{}, fmt.Errorf("%w: %d values", ErrMalformedFrame, len(values))
	}
	v := make([]int, len(values))
	copy(v, values)
	return Frame{values: v}, nil
}

// Sensors returns the number of sensor positions in the frame.
func (f Frame) Sensors() int {
	return len(f.values) / 2
}

// Raw returns a copy of the interleaved readings.
func (f Frame) Raw() []int {
	out := make([]int, len(f.values))
	copy(out, f.values)
	return out
}

// Axis returns the readings of one axis, one value per sensor, as float64.
func (f Frame) Axis(a Axis) []float64 {
	out := make([]float64, f.Sensors())
	for i := range out {
		out[i] = float64(f.values[2*i+int(a)])
	}
	return out
}

// ParseLine parses one record for the given sensor count. Surrounding
// whitespace (including a trailing CR) is ignored.
func ParseLine(line string, sensors int) (Frame, error) {
	if sensors <= 0 {
		return Frame{}, fmt.Errorf("sensor: sensor count must be > 0: %d", sensors)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return Frame{}, fmt.Errorf("%w: empty record", ErrMalformedFrame)
	}

	parts := strings.Split(line, ",")
	if len(parts) != 2*sensors {
		return Frame{}, fmt.Errorf("%w: got %d fields, want %d", ErrMalformedFrame, len(parts), 2*sensors)
	}

	values := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Frame{}, fmt.Errorf("%w: field %d: %w", ErrMalformedFrame, i, err)
		}
		values[i] = v
	}

	return Frame{values: values}, nil
}
