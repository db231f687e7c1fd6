package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uddhav/creative-thinking/internal/domain"
	"github.com/uddhav/creative-thinking/internal/sensor"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, GetPaths().Data, cfg.DataDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 100, cfg.Warning.MaxHistorySize)
	assert.Equal(t, time.Hour, cfg.Warning.HistoryTTL)
	assert.Equal(t, 5*time.Second, cfg.Warning.MeasurementThrottle)

	w := cfg.WarningSystem()
	assert.Equal(t, 100, w.MaxHistorySize)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
data_dir: /tmp/flexmon-data
log_format: json
warning:
  history_ttl: 30m
  measurement_throttle: 0s
sensors:
  cognitive:
    noise_filter: 0.05
    historical_weight: 0.5
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/flexmon-data", cfg.DataDir)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 30*time.Minute, cfg.Warning.HistoryTTL)
	assert.Zero(t, cfg.Warning.MeasurementThrottle)
	assert.Equal(t, 100, cfg.Warning.MaxHistorySize)

	cals := cfg.Calibrations()
	require.Contains(t, cals, sensor.TypeCognitive)
	cal := cals[sensor.TypeCognitive]
	assert.InDelta(t, 0.05, cal.NoiseFilter, 1e-9)
	assert.InDelta(t, 1.0, cal.Sensitivity, 1e-9)
	assert.Equal(t, sensor.DefaultCalibration(sensor.TypeCognitive).WarningThresholds, cal.WarningThresholds)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "log_level: debug\nsession: from-file\n")
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvSession, "from-env")
	t.Setenv(EnvMaxHistorySize, "25")
	t.Setenv(EnvMeasurementThrottle, "2s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, "from-env", cfg.Session)
	assert.Equal(t, 25, cfg.Warning.MaxHistorySize)
	assert.Equal(t, 2*time.Second, cfg.Warning.MeasurementThrottle)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		env   map[string]string
		field string
	}{
		{"bad log level", "log_level: loud\n", nil, "LogLevel"},
		{"zero history", "warning:\n  max_history_size: 0\n", nil, "Warning.MaxHistorySize"},
		{"thresholds out of order", "sensors:\n  resource:\n    warning_thresholds: {caution: 0.5, warning: 0.4, critical: 0.9}\n", nil, ""},
		{"unknown sensor", "sensors:\n  telepathy:\n    noise_filter: 0.1\n", nil, "Sensors"},
		{"bad env duration", "", map[string]string{EnvHistoryTTL: "soon"}, EnvHistoryTTL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			require.ErrorIs(t, err, domain.ErrValidation)
			if tt.field != "" {
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.field, verr.Field)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPath(t *testing.T) {
	assert.Equal(t, filepath.Join(GetPaths().Home, "data", "sessions.db"), Path("data", "sessions.db"))
	assert.Same(t, GetPaths(), GetPaths())
}
