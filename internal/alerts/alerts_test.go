package alerts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "alerts")
	m, err := NewManager(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, m.Dir())
	assert.DirExists(t, dir)
}

func TestSendAlert(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	alert := m.Send(LevelCritical, "engine", "s1", "Escape recommended", "Flexibility is critically low", map[string]any{
		"score": 0.12,
	})

	assert.Equal(t, LevelCritical, alert.Level)
	assert.Equal(t, "s1", alert.Session)
	assert.FileExists(t, filepath.Join(dir, alert.ID+".json"))

	data, err := os.ReadFile(filepath.Join(dir, "active.json"))
	require.NoError(t, err)
	var summary struct {
		Count       int  `json:"count"`
		HasCritical bool `json:"has_critical"`
	}
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, 1, summary.Count)
	assert.True(t, summary.HasCritical)

	md, err := os.ReadFile(filepath.Join(dir, "alerts.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "Escape recommended")
	assert.Contains(t, string(md), "**Session:** s1")
}

func TestResolveAlert(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	alert := m.Send(LevelWarning, "engine", "", "Pivot", "Consider pivoting", nil)
	require.Len(t, m.GetActive(), 1)

	assert.True(t, m.Resolve(alert.ID))
	assert.Empty(t, m.GetActive())
	assert.False(t, m.Resolve("alert-missing"))

	md, err := os.ReadFile(filepath.Join(dir, "alerts.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "No active alerts")
}

func TestReloadFromDisk(t *testing.T) {
	dir := t.TempDir()
	m1, err := NewManager(dir)
	require.NoError(t, err)
	m1.Send(LevelWarning, "escalation", "s2", "Level 3", "Re-engagement required", nil)

	m2, err := NewManager(dir)
	require.NoError(t, err)
	active := m2.GetActive()
	require.Len(t, active, 1)
	assert.Equal(t, "Level 3", active[0].Title)
}

func TestMaxAlertsAndRecent(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	m.maxAlerts = 5

	for i := 0; i < 8; i++ {
		m.Send(LevelInfo, "test", "", "n", "m", nil)
	}
	assert.Len(t, m.GetRecent(100), 5)
	assert.Len(t, m.GetRecent(2), 2)
}

func TestRotateOldFiles(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)
	m.maxAlertFiles = 3

	for i := 0; i < 10; i++ {
		m.Send(LevelInfo, "test", "", "n", "m", nil)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var n int
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" && e.Name() != "active.json" {
			n++
		}
	}
	assert.LessOrEqual(t, n, 3)
}
