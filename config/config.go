// Package config holds the bench configuration: defaults mirroring the
// physical setup, YAML loading and validation.
package config

import (
	"errors"
	"fmt"
	"math/bits"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-modal/control"
	"github.com/cwbudde/algo-modal/dsp/spectrum"
	"github.com/cwbudde/algo-modal/dsp/window"
	"github.com/cwbudde/algo-modal/modal"
	"github.com/cwbudde/algo-modal/sensor"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Serial describes a serial port.
type Serial struct {
	Port        string        `yaml:"port"`
	Baud        int           `yaml:"baud"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// Actuator selects and configures command delivery.
type Actuator struct {
	// Transport is "serial", "mqtt", "stdout" or "none".
	Transport string        `yaml:"transport"`
	Serial    Serial        `yaml:"serial"`
	Reopen    bool          `yaml:"reopen"`
	Settle    time.Duration `yaml:"settle"`
	Topic     string        `yaml:"topic"`
}

// Analysis configures windowing and spectral peak selection.
type Analysis struct {
	SampleRate float64       `yaml:"sample_rate"`
	Window     int           `yaml:"window"`
	Interval   time.Duration `yaml:"interval"`
	Taper      string        `yaml:"taper"`
	Peak       string        `yaml:"peak"`
	Axes       []string      `yaml:"axes"`
	Control    string        `yaml:"control_axis"`
}

// Fit configures mode-shape fitting.
type Fit struct {
	// Model is "fixed-beta" or "free-beta".
	Model         string     `yaml:"model"`
	Amplitude     string     `yaml:"amplitude"`
	Beta          float64    `yaml:"beta"`
	Eta           float64    `yaml:"eta"`
	Lower         [2]float64 `yaml:"lower"`
	Upper         [2]float64 `yaml:"upper"`
	Guess         [2]float64 `yaml:"guess"`
	MaxIterations int        `yaml:"max_iterations"`
}

// Control configures the damper controller.
type Control struct {
	HeightCM   float64    `yaml:"height_cm"`
	PitchCM    float64    `yaml:"pitch_cm"`
	StartNorm  float64    `yaml:"start_norm"`
	Region     [2]float64 `yaml:"region"`
	GridPoints int        `yaml:"grid_points"`
	Commit     string     `yaml:"commit"`
}

// MQTT configures the broker connection shared by command delivery and
// telemetry.
type MQTT struct {
	Server       string `yaml:"server"`
	ClientID     string `yaml:"client_id"`
	OutcomeTopic string `yaml:"outcome_topic"`
}

// Redis configures history and state persistence.
type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	History  int           `yaml:"history"`
	TTL      time.Duration `yaml:"ttl"`
}

// Config is the full bench configuration.
type Config struct {
	Sensor      Serial    `yaml:"sensor"`
	Sensors     int       `yaml:"sensors"`
	Positions   []float64 `yaml:"positions"`
	Analysis    Analysis  `yaml:"analysis"`
	Fit         Fit       `yaml:"fit"`
	Control     Control   `yaml:"control"`
	Actuator    Actuator  `yaml:"actuator"`
	MQTT        MQTT      `yaml:"mqtt"`
	Redis       Redis     `yaml:"redis"`
	MetricsAddr string    `yaml:"metrics_addr"`
	PlotFile    string    `yaml:"plot_file"`
	LogLevel    string    `yaml:"log_level"`
}

// Default returns the configuration of the three-sensor bench.
func Default() Config {
	free := modal.NewFreeBeta()
	return Config{
		Sensor: Serial{
			Port:        "/dev/ttyUSB0",
			Baud:        9600,
			ReadTimeout: time.Second,
		},
		Sensors:   3,
		Positions: []float64{0.3, 0.6, 0.9},
		Analysis: Analysis{
			SampleRate: 100,
			Window:     512,
			Interval:   500 * time.Millisecond,
			Taper:      window.TypeRectangular.String(),
			Peak:       "disambiguated",
			Axes:       []string{"x", "z"},
			Control:    "z",
		},
		Fit: Fit{
			Model:         "fixed-beta",
			Amplitude:     "magnitude",
			Beta:          modal.SecondModeBeta,
			Eta:           modal.SecondModeEta,
			Lower:         free.Lower,
			Upper:         free.Upper,
			Guess:         free.Guess,
			MaxIterations: 200,
		},
		Control: Control{
			HeightCM:   control.DefaultHeightCM,
			PitchCM:    control.DefaultPitchCM,
			StartNorm:  control.DefaultStartNorm,
			Region:     [2]float64{0.3, 0.7},
			GridPoints: control.DefaultGridPoints,
			Commit:     control.CommitOnCompute.String(),
		},
		Actuator: Actuator{
			Transport: "serial",
			Serial: Serial{
				Port:        "/dev/ttyACM0",
				Baud:        9600,
				ReadTimeout: time.Second,
			},
			Reopen: true,
			Settle: 2 * time.Second,
			Topic:  "tmd/actuator/command",
		},
		MQTT: MQTT{
			ClientID:     "tmdctl",
			OutcomeTopic: "tmd/outcome",
		},
		Redis: Redis{
			Prefix:  "tmd",
			History: 1000,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal renders cfg as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks every field that the pipeline would otherwise reject at
// construction time.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Sensors < 1 {
		bad("sensors must be >= 1: %d", c.Sensors)
	}
	if len(c.Positions) != c.Sensors {
		bad("%d positions for %d sensors", len(c.Positions), c.Sensors)
	}
	for _, x := range c.Positions {
		if x < 0 || x > 1 {
			bad("position %v outside [0, 1]", x)
		}
	}

	a := c.Analysis
	if !(a.SampleRate > 0) {
		bad("sample_rate must be > 0: %v", a.SampleRate)
	}
	if a.Window < 4 || bits.OnesCount(uint(a.Window)) != 1 {
		bad("window must be a power of two >= 4: %d", a.Window)
	}
	if a.Interval < 0 {
		bad("interval must be >= 0: %v", a.Interval)
	}
	if _, err := window.ParseType(a.Taper); err != nil {
		bad("taper: %v", err)
	}
	if _, err := spectrum.ParsePeakPolicy(a.Peak); err != nil {
		bad("peak: %v", err)
	}
	if _, _, err := c.Axes(); err != nil {
		bad("%v", err)
	}

	f := c.Fit
	if _, err := modal.ParseAmplitudeStrategy(f.Amplitude); err != nil {
		bad("amplitude: %v", err)
	}
	switch f.Model {
	case "fixed-beta":
		if !(f.Beta > 0) {
			bad("beta must be > 0: %v", f.Beta)
		}
	case "free-beta":
		if err := c.FreeBeta().Validate(); err != nil {
			bad("%v", err)
		}
	default:
		bad("unknown fit model %q", f.Model)
	}
	if len(c.Positions) < c.Shape().NumParams() {
		bad("%d positions cannot determine %d parameters", len(c.Positions), c.Shape().NumParams())
	}

	if err := c.Controller().Validate(); err != nil {
		bad("%v", err)
	}
	if _, err := control.ParseCommitPolicy(c.Control.Commit); err != nil {
		bad("%v", err)
	}

	switch c.Actuator.Transport {
	case "serial":
		if c.Actuator.Serial.Port == "" {
			bad("actuator serial port is empty")
		}
	case "mqtt":
		if c.MQTT.Server == "" {
			bad("mqtt transport needs mqtt.server")
		}
	case "stdout", "none":
	default:
		bad("unknown actuator transport %q", c.Actuator.Transport)
	}

	return errors.Join(errs...)
}

// Axes returns the tracked axes and the control axis.
func (c Config) Axes() ([]sensor.Axis, sensor.Axis, error) {
	axes := make([]sensor.Axis, 0, len(c.Analysis.Axes))
	for _, name := range c.Analysis.Axes {
		a, err := sensor.ParseAxis(name)
		if err != nil {
			return nil, 0, err
		}
		axes = append(axes, a)
	}
	if len(axes) == 0 {
		return nil, 0, errors.New("no axes tracked")
	}
	ctl, err := sensor.ParseAxis(c.Analysis.Control)
	if err != nil {
		return nil, 0, err
	}
	for _, a := range axes {
		if a == ctl {
			return axes, ctl, nil
		}
	}
	return nil, 0, fmt.Errorf("control axis %s is not tracked", ctl)
}

// FreeBeta returns the bounded two-parameter model.
func (c Config) FreeBeta() modal.FreeBeta {
	return modal.FreeBeta{Lower: c.Fit.Lower, Upper: c.Fit.Upper, Guess: c.Fit.Guess}
}

// Shape returns the configured mode-shape model.
func (c Config) Shape() modal.Shape {
	if c.Fit.Model == "free-beta" {
		return c.FreeBeta()
	}
	return modal.FixedBeta{BetaValue: c.Fit.Beta, EtaValue: c.Fit.Eta}
}

// Controller returns the configured controller.
func (c Config) Controller() control.Controller {
	return control.Controller{
		Height:     c.Control.HeightCM,
		PitchCM:    c.Control.PitchCM,
		Region:     control.Region{Lo: c.Control.Region[0], Hi: c.Control.Region[1]},
		GridPoints: c.Control.GridPoints,
	}
}
