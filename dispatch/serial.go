package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/cwbudde/algo-modal/control"
	"github.com/cwbudde/algo-modal/internal/serialport"
)

// DefaultSettle is the pause between opening the actuator port and writing.
// Opening the port resets the actuator board.
const DefaultSettle = 2 * time.Second

// SerialOption configures a Serial dispatcher.
type SerialOption func(*Serial)

// WithSettle sets the delay after opening the port in reopen mode.
func WithSettle(d time.Duration) SerialOption {
	return func(s *Serial) {
		if d >= 0 {
			s.settle = d
		}
	}
}

// WithReopen makes every command open, settle, write and close the port.
func WithReopen() SerialOption {
	return func(s *Serial) { s.reopen = true }
}

// WithOpener replaces the port opener.
func WithOpener(open serialport.Opener) SerialOption {
	return func(s *Serial) {
		if open != nil {
			s.open = open
		}
	}
}

// Serial writes commands to the actuator serial port.
type Serial struct {
	cfg    serialport.Config
	open   serialport.Opener
	settle time.Duration
	reopen bool

	mu   sync.Mutex
	port serial.Port
}

// NewSerial returns a Serial dispatcher for cfg. The port is opened lazily.
func NewSerial(cfg serialport.Config, opts ...SerialOption) *Serial {
	s := &Serial{cfg: cfg, open: serialport.Open, settle: DefaultSettle}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Dispatch writes cmd to the port.
func (s *Serial) Dispatch(ctx context.Context, cmd control.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reopen {
		return s.dispatchReopen(ctx, cmd)
	}

	if s.port == nil {
		port, err := s.open(s.cfg)
		if err != nil {
			return err
		}
		s.port = port
	}
	if _, err := s.port.Write(FormatCommand(cmd)); err != nil {
		// Drop the handle so the next command reopens the port.
		_ = s.port.Close()
		s.port = nil
		return fmt.Errorf("dispatch: serial write %s: %w", s.cfg.Name, err)
	}
	return nil
}

func (s *Serial) dispatchReopen(ctx context.Context, cmd control.Command) error {
	port, err := s.open(s.cfg)
	if err != nil {
		return err
	}
	defer port.Close()

	if s.settle > 0 {
		t := time.NewTimer(s.settle)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	if _, err := port.Write(FormatCommand(cmd)); err != nil {
		return fmt.Errorf("dispatch: serial write %s: %w", s.cfg.Name, err)
	}
	return port.Drain()
}

// Close releases a persistent port.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}
