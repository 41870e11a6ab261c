package buffer

import "fmt"

// Window is a fixed-capacity FIFO of sample rows. Each row holds one value per
// sensor. Appending beyond the capacity evicts the oldest row.
//
// Rows are stored in a ring so appends never shift memory.
type Window struct {
	length  int
	sensors int
	data    []float64 // length*sensors, row-major ring
	head    int       // index of the oldest row
	count   int
}

// NewWindow returns an empty Window holding up to length rows of sensors
// values each.
func NewWindow(length, sensors int) (*Window, error) {
	if length <= 0 {
		return nil, fmt.Errorf("buffer: window length must be > 0: %d", length)
	}
	if sensors <= 0 {
		return nil, fmt.Errorf("buffer: sensor count must be > 0: %d", sensors)
	}
	return &Window{
		length:  length,
		sensors: sensors,
		data:    make([]float64, length*sensors),
	}, nil
}

// Length returns the window capacity W.
func (w *Window) Length() int {
	return w.length
}

// Sensors returns the number of columns per row.
func (w *Window) Sensors() int {
	return w.sensors
}

// Len returns the number of rows currently held.
func (w *Window) Len() int {
	return w.count
}

// Ready reports whether the window holds W rows.
func (w *Window) Ready() bool {
	return w.count >= w.length
}

// Append adds one row. The row must have exactly Sensors values; otherwise
// the window is left untouched and an error is returned.
func (w *Window) Append(row []float64) error {
	if len(row) != w.sensors {
		return fmt.Errorf("buffer: row has %d values, want %d", len(row), w.sensors)
	}

	var slot int
	if w.count < w.length {
		slot = (w.head + w.count) % w.length
		w.count++
	} else {
		slot = w.head
		w.head = (w.head + 1) % w.length
	}
	copy(w.data[slot*w.sensors:(slot+1)*w.sensors], row)
	return nil
}

// Snapshot returns the held rows, oldest first, as one freshly allocated
// column per sensor. The window is not modified. Before the window is ready
// the columns are shorter than W.
func (w *Window) Snapshot() [][]float64 {
	cols := make([][]float64, w.sensors)
	for s := range cols {
		cols[s] = make([]float64, w.count)
	}
	for i := 0; i < w.count; i++ {
		row := (w.head + i) % w.length
		base := row * w.sensors
		for s := range cols {
			cols[s][i] = w.data[base+s]
		}
	}
	return cols
}

// Reset discards all rows.
func (w *Window) Reset() {
	w.head = 0
	w.count = 0
}
