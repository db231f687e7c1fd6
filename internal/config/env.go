package config

import (
	"strconv"
	"time"

	"github.com/uddhav/creative-thinking/internal/domain"
)

// Environment variables recognised by Load.
const (
	EnvDataDir             = "FLEXMON_DATA_DIR"
	EnvAlertDir            = "FLEXMON_ALERT_DIR"
	EnvLogLevel            = "FLEXMON_LOG_LEVEL"
	EnvLogFormat           = "FLEXMON_LOG_FORMAT"
	EnvMetricsAddr         = "FLEXMON_METRICS_ADDR"
	EnvSession             = "FLEXMON_SESSION"
	EnvMaxHistorySize      = "FLEXMON_MAX_HISTORY_SIZE"
	EnvHistoryTTL          = "FLEXMON_HISTORY_TTL"
	EnvMeasurementThrottle = "FLEXMON_MEASUREMENT_THROTTLE"
)

type lookupFunc func(string) (string, bool)

func applyEnv(c *Config, lookup lookupFunc) error {
	strs := map[string]*string{
		EnvDataDir:     &c.DataDir,
		EnvAlertDir:    &c.AlertDir,
		EnvLogLevel:    &c.LogLevel,
		EnvLogFormat:   &c.LogFormat,
		EnvMetricsAddr: &c.MetricsAddr,
		EnvSession:     &c.Session,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup(EnvMaxHistorySize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError(EnvMaxHistorySize, v, "integer")
		}
		c.Warning.MaxHistorySize = n
	}
	durations := map[string]*time.Duration{
		EnvHistoryTTL:          &c.Warning.HistoryTTL,
		EnvMeasurementThrottle: &c.Warning.MeasurementThrottle,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return envError(key, v, "duration")
		}
		*dst = d
	}
	return nil
}

func envError(key, value, rule string) error {
	return &domain.ValidationError{Field: key, Value: value, Rule: rule}
}
