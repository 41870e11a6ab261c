// Package telemetry exports cycle outcomes as Prometheus metrics and MQTT
// messages.
package telemetry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwbudde/algo-modal/pipeline"
)

const namespace = "tmd"

// Metrics implements pipeline.Observer on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	Cycles        prometheus.Counter
	Skips         *prometheus.CounterVec
	Malformed     prometheus.Counter
	Dispatches    *prometheus.CounterVec
	DominantHz    prometheus.Gauge
	Amplitude     *prometheus.GaugeVec
	Beta          *prometheus.GaugeVec
	XMax          prometheus.Gauge
	StartNorm     prometheus.Gauge
	DeltaDegrees  prometheus.Histogram
	MeanMagnitude prometheus.Gauge
	RMS           prometheus.Gauge
	PeakAccel     prometheus.Gauge
	Centroid      prometheus.Gauge
	CycleLatency  prometheus.Histogram
}

// NewMetrics registers every collector on a new registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Cycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Completed analysis cycles",
		}),
		Skips: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_skipped_total",
			Help:      "Analysis cycles skipped, by reason",
		}, []string{"reason"}),
		Malformed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_malformed_total",
			Help:      "Discarded sensor records",
		}),
		Dispatches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Actuator commands, by delivery result",
		}, []string{"result"}),
		DominantHz: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dominant_frequency_hz",
			Help:      "Dominant frequency of the last cycle",
		}),
		Amplitude: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fit_amplitude",
			Help:      "Fitted mode-shape amplitude A, by axis",
		}, []string{"axis"}),
		Beta: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fit_beta",
			Help:      "Fitted wavenumber, by axis",
		}, []string{"axis"}),
		XMax: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "peak_location_norm",
			Help:      "Normalized height of the fitted displacement peak",
		}),
		StartNorm: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "damper_position_norm",
			Help:      "Committed normalized damper position",
		}),
		DeltaDegrees: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_degrees",
			Help:      "Commanded lead-screw rotation per cycle",
			Buckets:   []float64{-1440, -720, -360, -90, -10, 0, 10, 90, 360, 720, 1440},
		}),
		MeanMagnitude: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fft_mean_magnitude",
			Help:      "Mean FFT magnitude over every channel",
		}),
		RMS: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "signal_rms",
			Help:      "Mean RMS of the DC-removed channels",
		}),
		PeakAccel: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "peak_acceleration",
			Help:      "Largest DC-removed sample of the last window",
		}),
		Centroid: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "spectral_centroid_hz",
			Help:      "Centroid of the aggregate spectrum of the last cycle",
		}),
		CycleLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Analysis, dispatch and commit time per cycle",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveMalformed counts a discarded sensor record.
func (m *Metrics) ObserveMalformed() { m.Malformed.Inc() }

// ObserveSkip counts a skipped cycle by reason.
func (m *Metrics) ObserveSkip(reason string) { m.Skips.WithLabelValues(reason).Inc() }

// ObserveDispatch counts a command delivery by result.
func (m *Metrics) ObserveDispatch(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Dispatches.WithLabelValues(result).Inc()
}

// ObserveCycle exports the measurements of a completed cycle. The damper
// position gauge only moves when the new state was committed.
func (m *Metrics) ObserveCycle(o pipeline.Outcome) {
	m.Cycles.Inc()
	m.DominantHz.Set(o.Peak.Hz)
	m.XMax.Set(o.XMax)
	m.DeltaDegrees.Observe(o.Command.Degrees)
	m.MeanMagnitude.Set(o.MeanMagnitude)
	m.RMS.Set(o.RMS)
	m.PeakAccel.Set(o.PeakAccel)
	m.Centroid.Set(o.CentroidHz)
	m.CycleLatency.Observe(o.Latency.Seconds())
	if o.Committed {
		m.StartNorm.Set(o.State.StartNorm)
	}
	for _, af := range o.Axes {
		if af.Err != nil {
			continue
		}
		m.Amplitude.WithLabelValues(af.Axis.String()).Set(af.Estimate.Fit.A())
		m.Beta.WithLabelValues(af.Axis.String()).Set(af.Estimate.Fit.Beta())
	}
}

// Serve exposes /metrics on addr until ctx is canceled.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
