package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-modal/control"
	"github.com/cwbudde/algo-modal/dispatch"
	"github.com/cwbudde/algo-modal/dsp/buffer"
	"github.com/cwbudde/algo-modal/sensor"
)

// DefaultInterval is the minimum spacing between analysis cycles.
const DefaultInterval = 500 * time.Millisecond

// Sink receives every completed cycle, e.g. a history store or a telemetry
// publisher.
type Sink interface {
	Record(ctx context.Context, o Outcome) error
}

// StateStore persists controller state across restarts.
type StateStore interface {
	LoadState(ctx context.Context) (control.State, bool, error)
	SaveState(ctx context.Context, s control.State) error
}

// Observer is notified of loop events. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveMalformed()
	ObserveSkip(reason string)
	ObserveDispatch(err error)
	ObserveCycle(o Outcome)
}

type nopObserver struct{}

func (nopObserver) ObserveMalformed()     {}
func (nopObserver) ObserveSkip(string)    {}
func (nopObserver) ObserveDispatch(error) {}
func (nopObserver) ObserveCycle(Outcome)  {}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver sets the loop observer, e.g. Prometheus metrics.
func WithObserver(o Observer) RunnerOption {
	return func(r *Runner) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithSinks appends outcome sinks.
func WithSinks(sinks ...Sink) RunnerOption {
	return func(r *Runner) {
		for _, s := range sinks {
			if s != nil {
				r.sinks = append(r.sinks, s)
			}
		}
	}
}

// WithStateStore loads the controller state at start and saves every commit.
func WithStateStore(s StateStore) RunnerOption {
	return func(r *Runner) { r.states = s }
}

// WithCommitPolicy sets when a computed step replaces the controller state.
func WithCommitPolicy(p control.CommitPolicy) RunnerOption {
	return func(r *Runner) { r.policy = p }
}

// WithInterval sets the minimum spacing between cycles.
func WithInterval(d time.Duration) RunnerOption {
	return func(r *Runner) { r.gate = NewGate(d) }
}

// WithClock replaces the wall clock used by the gate and outcome timestamps.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithSampleClock derives time from the number of frames read at rate
// frames per second, starting at epoch. Replays use it so that gating
// follows the recording instead of the wall clock.
func WithSampleClock(epoch time.Time, rate float64) RunnerOption {
	return func(r *Runner) {
		if rate > 0 {
			r.now = func() time.Time {
				return epoch.Add(time.Duration(float64(r.frames) / rate * float64(time.Second)))
			}
		}
	}
}

// WithInitialState sets the controller state before the first cycle.
func WithInitialState(s control.State) RunnerOption {
	return func(r *Runner) { r.state = s }
}

// WithRunID sets the identifier stamped on every outcome. The default is a
// random UUID.
func WithRunID(id string) RunnerOption {
	return func(r *Runner) {
		if id != "" {
			r.runID = id
		}
	}
}

// Runner is the single-goroutine event loop. It owns the sliding windows and
// the controller state; neither is shared.
type Runner struct {
	scanner    *sensor.Scanner
	pipeline   *Pipeline
	dispatcher dispatch.Dispatcher
	sensors    int
	windows    []*buffer.Window

	gate     *Gate
	policy   control.CommitPolicy
	state    control.State
	states   StateStore
	sinks    []Sink
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
	runID    string

	frames int
	cycles int
}

// NewRunner returns a Runner reading sensor records from src.
func NewRunner(src io.Reader, p *Pipeline, sensors int, d dispatch.Dispatcher, opts ...RunnerOption) (*Runner, error) {
	if src == nil || p == nil {
		return nil, fmt.Errorf("pipeline: source and pipeline are required")
	}
	if d == nil {
		d = dispatch.Discard{}
	}
	if sensors != len(p.estimator.Positions()) {
		return nil, fmt.Errorf("pipeline: %d sensors, %d positions", sensors, len(p.estimator.Positions()))
	}

	r := &Runner{
		scanner:    sensor.NewScanner(src),
		pipeline:   p,
		dispatcher: d,
		sensors:    sensors,
		gate:       NewGate(DefaultInterval),
		policy:     control.CommitOnCompute,
		state:      control.NewState(control.DefaultStartNorm),
		observer:   nopObserver{},
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
		runID:      uuid.NewString(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	for range p.axes {
		w, err := buffer.NewWindow(p.WindowLength(), sensors)
		if err != nil {
			return nil, err
		}
		r.windows = append(r.windows, w)
	}
	return r, nil
}

// State returns the current controller state.
func (r *Runner) State() control.State {
	return r.state
}

// RunID returns the identifier stamped on outcomes.
func (r *Runner) RunID() string {
	return r.runID
}

// Cycles returns the number of completed cycles.
func (r *Runner) Cycles() int {
	return r.cycles
}

// Run processes records until ctx is canceled or the source is exhausted.
// Cancellation and end of input are not errors.
func (r *Runner) Run(ctx context.Context) error {
	if r.states != nil {
		s, ok, err := r.states.LoadState(ctx)
		if err != nil {
			return fmt.Errorf("pipeline: load state: %w", err)
		}
		if ok {
			r.state = s
			r.logger.Info("resumed controller state", "start_norm", s.StartNorm, "steps", s.Steps)
		}
	}

	r.logger.Info("runner started",
		"run_id", r.runID,
		"window", r.pipeline.WindowLength(),
		"sensors", r.sensors,
		"control_axis", r.pipeline.control.String(),
		"commit", r.policy.String())

	for {
		if err := ctx.Err(); err != nil {
			r.logger.Info("runner stopped", "cycles", r.cycles)
			return nil
		}

		line, err := r.scanner.Next()
		switch {
		case errors.Is(err, sensor.ErrNoData):
			continue
		case errors.Is(err, io.EOF):
			r.logger.Info("input exhausted", "frames", r.frames, "cycles", r.cycles)
			return nil
		case err != nil:
			return fmt.Errorf("pipeline: read: %w", err)
		}

		r.handle(ctx, line)
	}
}

func (r *Runner) handle(ctx context.Context, line string) {
	if line == "" {
		return
	}
	frame, err := sensor.ParseLine(line, r.sensors)
	if err != nil {
		r.observer.ObserveMalformed()
		r.logger.Warn("discarding malformed record", "err", err)
		return
	}
	r.frames++

	for i, axis := range r.pipeline.axes {
		if err := r.windows[i].Append(frame.Axis(axis)); err != nil {
			r.logger.Warn("discarding record", "err", err)
			return
		}
	}

	if !r.windows[0].Ready() {
		return
	}
	now := r.now()
	if !r.gate.Allow(now) {
		return
	}
	r.cycle(ctx, now)
}

func (r *Runner) cycle(ctx context.Context, now time.Time) {
	start := time.Now()

	snaps := make([][][]float64, len(r.windows))
	for i, w := range r.windows {
		snaps[i] = w.Snapshot()
	}

	next, out, err := r.pipeline.Process(r.state, snaps)
	if err != nil {
		reason := SkipReason(err)
		r.observer.ObserveSkip(reason)
		r.logger.Warn("cycle skipped", "reason", reason, "hz", out.Peak.Hz, "err", err)
		return
	}

	r.cycles++
	out.RunID = r.runID
	out.Cycle = r.cycles
	out.Time = now

	out.Dispatch = r.dispatcher.Dispatch(ctx, out.Command)
	r.observer.ObserveDispatch(out.Dispatch)
	if out.Dispatch != nil {
		r.logger.Error("command delivery failed", "deg", out.Command.Degrees, "err", out.Dispatch)
	}

	prev := r.state
	r.state = r.policy.Commit(prev, next, out.Dispatch)
	out.Committed = r.state == next
	if out.Committed && r.states != nil {
		if err := r.states.SaveState(ctx, r.state); err != nil {
			r.logger.Warn("saving controller state failed", "err", err)
		}
	}
	out.Latency = time.Since(start)

	r.log(out)
	for _, s := range r.sinks {
		if err := s.Record(ctx, out); err != nil {
			r.logger.Warn("recording outcome failed", "err", err)
		}
	}
	r.observer.ObserveCycle(out)
}

func (r *Runner) log(out Outcome) {
	attrs := []any{
		"cycle", out.Cycle,
		"hz", out.Peak.Hz,
		"bin", out.Peak.Index,
		"fft_mean", out.MeanMagnitude,
		"rms", out.RMS,
		"peak_accel", out.PeakAccel,
		"centroid_hz", out.CentroidHz,
	}
	for _, af := range out.Axes {
		name := af.Axis.String()
		if af.Err != nil {
			attrs = append(attrs, name+"_err", af.Err.Error())
			continue
		}
		attrs = append(attrs,
			name+"_norm", af.Estimate.Normalized,
			name+"_a", af.Estimate.Fit.A(),
			name+"_beta", af.Estimate.Fit.Beta())
	}
	attrs = append(attrs,
		"x_max", out.XMax,
		"delta_norm", out.Command.DeltaNorm,
		"delta_cm", out.Command.Centimeters,
		"delta_deg", out.Command.Degrees,
		"committed", out.Committed)
	r.logger.Info("cycle", attrs...)
}
