// Package config loads flexmon configuration from defaults, a YAML file and
// FLEXMON_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/uddhav/creative-thinking/internal/domain"
	"github.com/uddhav/creative-thinking/internal/sensor"
	"github.com/uddhav/creative-thinking/internal/warning"
)

// WarningConfig bounds the early-warning history and throttles measurement.
type WarningConfig struct {
	MaxHistorySize      int           `yaml:"max_history_size" json:"max_history_size" validate:"gt=0"`
	HistoryTTL          time.Duration `yaml:"history_ttl" json:"history_ttl" validate:"gt=0"`
	MeasurementThrottle time.Duration `yaml:"measurement_throttle" json:"measurement_throttle" validate:"gte=0"`
}

// Config is the complete flexmon configuration.
type Config struct {
	DataDir     string        `yaml:"data_dir" json:"data_dir" validate:"required"`
	AlertDir    string        `yaml:"alert_dir" json:"alert_dir" validate:"required"`
	LogLevel    string        `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat   string        `yaml:"log_format" json:"log_format" validate:"oneof=text json"`
	MetricsAddr string        `yaml:"metrics_addr" json:"metrics_addr" validate:"omitempty,hostname_port"`
	Session     string        `yaml:"session" json:"session,omitempty"`
	Warning     WarningConfig `yaml:"warning" json:"warning"`

	// Sensors maps a sensor type to its calibration. Omitted sensitivity
	// and thresholds fall back to the sensor defaults.
	Sensors map[string]sensor.Calibration `yaml:"sensors" json:"sensors" validate:"dive"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	p := GetPaths()
	w := warning.DefaultConfig()
	return &Config{
		DataDir:     p.Data,
		AlertDir:    p.Alerts,
		LogLevel:    "info",
		LogFormat:   "text",
		MetricsAddr: "127.0.0.1:9464",
		Warning: WarningConfig{
			MaxHistorySize:      w.MaxHistorySize,
			HistoryTTL:          w.HistoryTTL,
			MeasurementThrottle: w.MeasurementThrottle,
		},
	}
}

// Load builds the configuration. An empty path reads the default config
// file when it exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = GetPaths().ConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.fillCalibrations()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) fillCalibrations() {
	for name, cal := range c.Sensors {
		def := sensor.DefaultCalibration(sensor.Type(name))
		if cal.Sensitivity == 0 {
			cal.Sensitivity = def.Sensitivity
		}
		if cal.WarningThresholds == (sensor.Thresholds{}) {
			cal.WarningThresholds = def.WarningThresholds
		}
		c.Sensors[name] = cal
	}
}

// Validate checks field ranges and sensor names.
func (c *Config) Validate() error {
	if err := domain.ValidateStruct(c); err != nil {
		return err
	}
	for _, name := range sortedKeys(c.Sensors) {
		if _, err := sensor.New(sensor.Type(name)); err != nil {
			return &domain.ValidationError{Field: "Sensors", Value: name, Rule: "known sensor type"}
		}
	}
	return nil
}

// WarningSystem returns the early-warning configuration.
func (c *Config) WarningSystem() warning.Config {
	return warning.Config{
		MaxHistorySize:      c.Warning.MaxHistorySize,
		HistoryTTL:          c.Warning.HistoryTTL,
		MeasurementThrottle: c.Warning.MeasurementThrottle,
	}
}

// Calibrations returns the configured sensor calibrations keyed by type.
func (c *Config) Calibrations() map[sensor.Type]sensor.Calibration {
	out := make(map[sensor.Type]sensor.Calibration, len(c.Sensors))
	for name, cal := range c.Sensors {
		out[sensor.Type(name)] = cal
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
