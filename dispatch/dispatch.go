// Package dispatch delivers controller commands to the damper actuator.
//
// Every transport sends the same payload: the rotation in degrees formatted
// with two decimals and terminated by a newline.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/cwbudde/algo-modal/control"
)

// Dispatcher delivers one command.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd control.Command) error
}

// FormatCommand returns the wire payload for cmd.
func FormatCommand(cmd control.Command) []byte {
	b := strconv.AppendFloat(nil, cmd.Degrees, 'f', 2, 64)
	return append(b, '\n')
}

// Writer sends commands to an io.Writer, e.g. stdout during replay.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter returns a Writer dispatching to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Dispatch writes the formatted command.
func (d *Writer) Dispatch(ctx context.Context, cmd control.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.w.Write(FormatCommand(cmd)); err != nil {
		return fmt.Errorf("dispatch: write: %w", err)
	}
	return nil
}

// Discard accepts and drops every command.
type Discard struct{}

// Dispatch implements Dispatcher.
func (Discard) Dispatch(context.Context, control.Command) error { return nil }

// Multi fans a command out to several dispatchers. Every dispatcher is tried;
// the first error is returned.
type Multi []Dispatcher

// Dispatch implements Dispatcher.
func (m Multi) Dispatch(ctx context.Context, cmd control.Command) error {
	var first error
	for _, d := range m {
		if err := d.Dispatch(ctx, cmd); err != nil && first == nil {
			first = err
		}
	}
	return first
}
