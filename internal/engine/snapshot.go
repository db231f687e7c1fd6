package engine

import (
	"time"

	"github.com/uddhav/creative-thinking/internal/domain"
	"github.com/uddhav/creative-thinking/internal/escalation"
	"github.com/uddhav/creative-thinking/internal/escape"
	"github.com/uddhav/creative-thinking/internal/warning"
)

// Snapshot is the serializable state of a session.
type Snapshot struct {
	SessionID        string                  `json:"session_id"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
	Context          domain.SessionContext   `json:"context"`
	Memory           *domain.PathMemory      `json:"memory"`
	Engagement       escalation.Metrics      `json:"engagement"`
	EarlyWarning     *warning.State          `json:"early_warning,omitempty"`
	WarningHistory   []warning.ActiveWarning `json:"warning_history,omitempty"`
	EscapeMonitoring escape.Monitoring       `json:"escape_monitoring"`
}

// Snapshot captures the session state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		SessionID:        e.id,
		CreatedAt:        e.createdAt,
		UpdatedAt:        e.now(),
		Context:          e.session,
		Memory:           e.mem.Memory().Clone(),
		Engagement:       e.tracker.Metrics(),
		WarningHistory:   e.warn.WarningHistory(""),
		EscapeMonitoring: e.exec.Monitoring(),
	}
	if st, ok := e.warn.LastState(); ok {
		snap.EarlyWarning = &st
	}
	return snap
}
