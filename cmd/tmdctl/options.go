package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-modal/config"
	"github.com/cwbudde/algo-modal/control"
	"github.com/cwbudde/algo-modal/dispatch"
	"github.com/cwbudde/algo-modal/dsp/spectrum"
	"github.com/cwbudde/algo-modal/dsp/window"
	"github.com/cwbudde/algo-modal/internal/mqttconn"
	"github.com/cwbudde/algo-modal/internal/serialport"
	"github.com/cwbudde/algo-modal/modal"
	"github.com/cwbudde/algo-modal/pipeline"
	"github.com/cwbudde/algo-modal/render"
	"github.com/cwbudde/algo-modal/store"
	"github.com/cwbudde/algo-modal/telemetry"
)

// options holds flag values shared by the subcommands. Flags override the
// configuration file only when set explicitly.
type options struct {
	configPath string
	logLevel   string

	sensorPort   string
	actuator     string
	actuatorPort string
	interval     time.Duration
	peak         string
	amplitude    string
	model        string
	commit       string
	taper        string
	mqttServer   string
	redisAddr    string
	metricsAddr  string
	plotFile     string
}

func (o *options) bindPersistent(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&o.configPath, "config", "", "YAML configuration file")
	f.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func (o *options) bindPipeline(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.actuator, "actuator", "", "command transport: serial, mqtt, stdout, none")
	f.StringVar(&o.actuatorPort, "actuator-port", "", "actuator serial port")
	f.DurationVar(&o.interval, "interval", 0, "minimum time between analysis cycles")
	f.StringVar(&o.peak, "peak", "", "dominant-bin policy: disambiguated, raw-argmax")
	f.StringVar(&o.amplitude, "amplitude", "", "amplitude extraction: magnitude, real-part")
	f.StringVar(&o.model, "model", "", "mode-shape model: fixed-beta, free-beta")
	f.StringVar(&o.commit, "commit", "", "state commit policy: compute, delivery")
	f.StringVar(&o.taper, "taper", "", "window taper: rectangular, hann, hamming, blackman, flat-top")
	f.StringVar(&o.mqttServer, "mqtt", "", "MQTT broker address (tcp://host:port)")
	f.StringVar(&o.redisAddr, "redis", "", "Redis address for history and controller state")
	f.StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.StringVar(&o.plotFile, "plot-file", "", "rewrite a mode-shape PNG after every cycle")
}

// load reads the configuration file (if any) and applies explicit flags.
func (o *options) load(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return config.Config{}, err
		}
	}

	set := func(name string, apply func()) {
		if fl := cmd.Flags().Lookup(name); fl != nil && fl.Changed {
			apply()
		}
	}
	set("log-level", func() { cfg.LogLevel = o.logLevel })
	set("sensor-port", func() { cfg.Sensor.Port = o.sensorPort })
	set("actuator", func() { cfg.Actuator.Transport = o.actuator })
	set("actuator-port", func() { cfg.Actuator.Serial.Port = o.actuatorPort })
	set("interval", func() { cfg.Analysis.Interval = o.interval })
	set("peak", func() { cfg.Analysis.Peak = o.peak })
	set("amplitude", func() { cfg.Fit.Amplitude = o.amplitude })
	set("model", func() { cfg.Fit.Model = o.model })
	set("commit", func() { cfg.Control.Commit = o.commit })
	set("taper", func() { cfg.Analysis.Taper = o.taper })
	set("mqtt", func() { cfg.MQTT.Server = o.mqttServer })
	set("redis", func() { cfg.Redis.Addr = o.redisAddr })
	set("metrics-addr", func() { cfg.MetricsAddr = o.metricsAddr })
	set("plot-file", func() { cfg.PlotFile = o.plotFile })

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}

// buildPipeline assembles the analysis cycle from cfg.
func buildPipeline(cfg config.Config) (*pipeline.Pipeline, error) {
	taper, err := window.ParseType(cfg.Analysis.Taper)
	if err != nil {
		return nil, err
	}
	analyzer, err := spectrum.NewAnalyzer(cfg.Analysis.SampleRate, cfg.Analysis.Window, spectrum.WithWindow(taper))
	if err != nil {
		return nil, err
	}
	fitter, err := modal.NewFitter(cfg.Shape(), modal.WithMaxIterations(cfg.Fit.MaxIterations))
	if err != nil {
		return nil, err
	}
	amp, err := modal.ParseAmplitudeStrategy(cfg.Fit.Amplitude)
	if err != nil {
		return nil, err
	}
	estimator, err := modal.NewEstimator(cfg.Positions, amp, fitter)
	if err != nil {
		return nil, err
	}
	peak, err := spectrum.ParsePeakPolicy(cfg.Analysis.Peak)
	if err != nil {
		return nil, err
	}
	axes, ctl, err := cfg.Axes()
	if err != nil {
		return nil, err
	}
	return pipeline.New(analyzer, estimator, cfg.Controller(),
		pipeline.WithPeakPolicy(peak),
		pipeline.WithAxes(ctl, axes...))
}

// services holds the optional collaborators of a Runner and closes them in
// reverse order.
type services struct {
	dispatcher dispatch.Dispatcher
	opts       []pipeline.RunnerOption
	metrics    *telemetry.Metrics
	closers    []func() error
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

func buildServices(ctx context.Context, cfg config.Config, out io.Writer, logger *slog.Logger) (*services, error) {
	s := &services{}
	policy, err := control.ParseCommitPolicy(cfg.Control.Commit)
	if err != nil {
		return nil, err
	}
	s.opts = append(s.opts,
		pipeline.WithLogger(logger),
		pipeline.WithCommitPolicy(policy),
		pipeline.WithInitialState(control.NewState(cfg.Control.StartNorm)),
		pipeline.WithInterval(cfg.Analysis.Interval))

	if cfg.MQTT.Server != "" {
		client, err := mqttconn.Dial(ctx, cfg.MQTT.Server, cfg.MQTT.ClientID)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() error { return mqttconn.Close(client) })
		s.opts = append(s.opts, pipeline.WithSinks(telemetry.NewPublisher(client, cfg.MQTT.OutcomeTopic)))
		if cfg.Actuator.Transport == "mqtt" {
			s.dispatcher = dispatch.NewMQTT(client, cfg.Actuator.Topic)
		}
		logger.Info("mqtt connected", "server", cfg.MQTT.Server)
	}

	switch cfg.Actuator.Transport {
	case "serial":
		sopts := []dispatch.SerialOption{dispatch.WithSettle(cfg.Actuator.Settle)}
		if cfg.Actuator.Reopen {
			sopts = append(sopts, dispatch.WithReopen())
		}
		ser := dispatch.NewSerial(serialport.Config{
			Name:        cfg.Actuator.Serial.Port,
			BaudRate:    cfg.Actuator.Serial.Baud,
			ReadTimeout: cfg.Actuator.Serial.ReadTimeout,
		}, sopts...)
		s.closers = append(s.closers, ser.Close)
		s.dispatcher = ser
	case "stdout":
		s.dispatcher = dispatch.NewWriter(out)
	case "none":
		s.dispatcher = dispatch.Discard{}
	}

	if cfg.Redis.Addr != "" {
		rs, err := store.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			store.WithPrefix(cfg.Redis.Prefix),
			store.WithHistory(cfg.Redis.History),
			store.WithTTL(cfg.Redis.TTL))
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, rs.Close)
		s.opts = append(s.opts, pipeline.WithSinks(rs), pipeline.WithStateStore(rs))
		logger.Info("redis connected", "addr", cfg.Redis.Addr)
	}

	if cfg.PlotFile != "" {
		s.opts = append(s.opts, pipeline.WithSinks(render.NewFile(cfg.PlotFile)))
	}

	if cfg.MetricsAddr != "" {
		s.metrics = telemetry.NewMetrics()
		s.opts = append(s.opts, pipeline.WithObserver(s.metrics))
	}
	return s, nil
}

// serveMetrics runs the metrics endpoint until ctx ends.
func serveMetrics(ctx context.Context, addr string, m *telemetry.Metrics, logger *slog.Logger) {
	if m == nil {
		return
	}
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := telemetry.Serve(ctx, addr, m.Handler()); err != nil {
			logger.Error("metrics server stopped", "err", err)
		}
	}()
}
