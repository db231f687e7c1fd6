// Package alerts persists escalation and escape alerts to an alert
// directory: one JSON file per alert, an active.json summary and an
// alerts.md digest that other tools can read.
package alerts

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/uddhav/creative-thinking/internal/logging"
)

// Level represents alert severity
type Level string

const (
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelError    Level = "error"
	LevelCritical Level = "critical"
)

var levelIcons = map[Level]string{
	LevelInfo:     "i",
	LevelWarning:  "!",
	LevelError:    "x",
	LevelCritical: "!!",
}

// Alert represents a raised alert
type Alert struct {
	ID        string         `json:"id"`
	Level     Level          `json:"level"`
	Component string         `json:"component"`
	Session   string         `json:"session,omitempty"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Resolved  bool           `json:"resolved"`
	Context   map[string]any `json:"context,omitempty"`
}

// Manager handles alert creation and persistence
type Manager struct {
	mu            sync.RWMutex
	alertDir      string
	alerts        []Alert
	maxAlerts     int
	maxAlertFiles int
	logger        *slog.Logger
}

// NewManager creates an alert manager rooted at alertDir and loads any
// alerts still listed in active.json.
func NewManager(alertDir string) (*Manager, error) {
	if err := os.MkdirAll(alertDir, 0o755); err != nil {
		return nil, fmt.Errorf("create alert dir: %w", err)
	}
	m := &Manager{
		alertDir:      alertDir,
		alerts:        make([]Alert, 0),
		maxAlerts:     100,
		maxAlertFiles: 100,
		logger:        logging.New("alerts"),
	}
	m.loadFromDisk()
	m.rotateOldFiles()
	return m, nil
}

// Dir returns the alert directory path
func (m *Manager) Dir() string {
	return m.alertDir
}

func (m *Manager) loadFromDisk() {
	data, err := os.ReadFile(filepath.Join(m.alertDir, "active.json"))
	if err != nil {
		return
	}
	var summary struct {
		Alerts []Alert `json:"alerts"`
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		m.logger.Warn("ignoring unreadable active.json", slog.String("error", err.Error()))
		return
	}
	m.alerts = summary.Alerts
}

// Send creates and persists a new alert
func (m *Manager) Send(level Level, component, session, title, message string, ctx map[string]any) Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert := Alert{
		ID:        "alert-" + ulid.Make().String(),
		Level:     level,
		Component: component,
		Session:   session,
		Title:     title,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Context:   ctx,
	}

	m.alerts = append(m.alerts, alert)
	if len(m.alerts) > m.maxAlerts {
		m.alerts = m.alerts[len(m.alerts)-m.maxAlerts:]
	}

	m.persistAlert(alert)
	m.updateActiveAlerts()

	m.logger.Info("alert raised",
		slog.String("id", alert.ID),
		slog.String("level", string(level)),
		slog.String("title", title),
	)
	return alert
}

// Resolve marks an alert as resolved. It reports whether the alert existed.
func (m *Manager) Resolve(alertID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for i := range m.alerts {
		if m.alerts[i].ID == alertID {
			m.alerts[i].Resolved = true
			found = true
			break
		}
	}
	m.updateActiveAlerts()
	return found
}

// GetActive returns all unresolved alerts
func (m *Manager) GetActive() []Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active()
}

// GetRecent returns the most recent alerts
func (m *Manager) GetRecent(count int) []Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if count > len(m.alerts) {
		count = len(m.alerts)
	}
	return append([]Alert(nil), m.alerts[len(m.alerts)-count:]...)
}

func (m *Manager) active() []Alert {
	active := make([]Alert, 0)
	for _, a := range m.alerts {
		if !a.Resolved {
			active = append(active, a)
		}
	}
	return active
}

func (m *Manager) writeFile(name string, data []byte) {
	if err := os.WriteFile(filepath.Join(m.alertDir, name), data, 0o644); err != nil {
		m.logger.Warn("alert write failed", slog.String("file", name), slog.String("error", err.Error()))
	}
}

// persistAlert writes a single alert to a file
func (m *Manager) persistAlert(alert Alert) {
	data, _ := json.MarshalIndent(alert, "", "  ")
	m.writeFile(alert.ID+".json", data)

	if len(m.alerts)%10 == 0 {
		m.rotateOldFiles()
	}
}

// rotateOldFiles removes the oldest alert JSON files beyond maxAlertFiles
func (m *Manager) rotateOldFiles() {
	entries, err := os.ReadDir(m.alertDir)
	if err != nil {
		return
	}

	type alertFile struct {
		name    string
		modTime time.Time
	}
	var files []alertFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "alert-") || filepath.Ext(name) != ".json" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, alertFile{name: name, modTime: info.ModTime()})
	}
	if len(files) <= m.maxAlertFiles {
		return
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].name < files[j].name
		}
		return files[i].modTime.Before(files[j].modTime)
	})
	for _, f := range files[:len(files)-m.maxAlertFiles] {
		_ = os.Remove(filepath.Join(m.alertDir, f.name))
	}
}

// updateActiveAlerts writes active alerts to the summary files
func (m *Manager) updateActiveAlerts() {
	active := m.active()

	summary := struct {
		Count       int       `json:"count"`
		Updated     time.Time `json:"updated"`
		Alerts      []Alert   `json:"alerts"`
		HasCritical bool      `json:"has_critical"`
	}{
		Count:   len(active),
		Updated: time.Now().UTC(),
		Alerts:  active,
	}
	for _, a := range active {
		if a.Level == LevelError || a.Level == LevelCritical {
			summary.HasCritical = true
			break
		}
	}

	data, _ := json.MarshalIndent(summary, "", "  ")
	m.writeFile("active.json", data)
	m.writeDigest(active)
}

// writeDigest writes a human-readable markdown digest of active alerts
func (m *Manager) writeDigest(alerts []Alert) {
	if len(alerts) == 0 {
		m.writeFile("alerts.md", []byte("# Flexibility Alerts\n\nNo active alerts\n"))
		return
	}

	var b strings.Builder
	b.WriteString("# Flexibility Alerts\n\n")
	fmt.Fprintf(&b, "**%d active alert(s)** - Last updated: %s\n\n", len(alerts), time.Now().UTC().Format(time.RFC3339))

	for _, a := range alerts {
		fmt.Fprintf(&b, "## [%s] %s %s\n\n", levelIcons[a.Level], a.Level, a.Title)
		fmt.Fprintf(&b, "**Component:** %s\n", a.Component)
		if a.Session != "" {
			fmt.Fprintf(&b, "**Session:** %s\n", a.Session)
		}
		fmt.Fprintf(&b, "**Time:** %s\n\n", a.Timestamp.Format(time.RFC3339))
		fmt.Fprintf(&b, "%s\n\n", a.Message)

		if len(a.Context) > 0 {
			ctx, _ := json.MarshalIndent(a.Context, "", "  ")
			b.WriteString("**Context:**\n```json\n")
			b.Write(ctx)
			b.WriteString("\n```\n\n")
		}
		b.WriteString("---\n\n")
	}
	m.writeFile("alerts.md", []byte(b.String()))
}
