package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/uddhav/creative-thinking/internal/engine"
	"github.com/uddhav/creative-thinking/internal/logging"
)

// DBName is the database file created under the data directory.
const DBName = "sessions.db"

var orderColumns = map[string]string{
	"":            "updated_at",
	"created_at":  "created_at",
	"updated_at":  "updated_at",
	"flexibility": "flexibility",
	"id":          "id",
}

// SQLite stores snapshots in a single SQLite database.
type SQLite struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

var _ SnapshotStore = (*SQLite)(nil)

// Open creates the data directory and database if needed.
func Open(dataDir string) (*SQLite, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBName)
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLite{db: db, path: dbPath, logger: logging.New("store")}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		problem TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		flexibility REAL NOT NULL,
		events INTEGER NOT NULL DEFAULT 0,
		snapshot_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.path
}

// Ping verifies the database is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.db.PingContext(ctx)
}

// Close releases the database handle. Further calls return ErrClosed.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQLite) check() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

type row struct {
	problem     string
	flexibility float64
	events      int
	data        []byte
}

func encode(snap engine.Snapshot) (row, error) {
	if strings.TrimSpace(snap.SessionID) == "" {
		return row{}, ErrInvalidID
	}
	if snap.Memory == nil {
		return row{}, fmt.Errorf("session %s: snapshot has no memory", snap.SessionID)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return row{}, fmt.Errorf("encode session %s: %w", snap.SessionID, err)
	}
	return row{
		problem:     snap.Context.Problem,
		flexibility: snap.Memory.Score(),
		events:      len(snap.Memory.History),
		data:        data,
	}, nil
}

// Create stores a new session.
func (s *SQLite) Create(ctx context.Context, snap engine.Snapshot) error {
	if err := s.check(); err != nil {
		return err
	}
	r, err := encode(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, problem, created_at, updated_at, flexibility, events, snapshot_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, snap.SessionID, r.problem, snap.CreatedAt.UTC(), snap.UpdatedAt.UTC(), r.flexibility, r.events, string(r.data))

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && (sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique) {
		return fmt.Errorf("session %s: %w", snap.SessionID, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("create session %s: %w", snap.SessionID, err)
	}
	s.logger.Debug("session created", slog.String("session", snap.SessionID))
	return nil
}

// Save inserts or replaces a session. created_at of an existing row is kept.
func (s *SQLite) Save(ctx context.Context, snap engine.Snapshot) error {
	if err := s.check(); err != nil {
		return err
	}
	r, err := encode(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, problem, created_at, updated_at, flexibility, events, snapshot_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			problem = excluded.problem,
			updated_at = excluded.updated_at,
			flexibility = excluded.flexibility,
			events = excluded.events,
			snapshot_json = excluded.snapshot_json
	`, snap.SessionID, r.problem, snap.CreatedAt.UTC(), snap.UpdatedAt.UTC(), r.flexibility, r.events, string(r.data))
	if err != nil {
		return fmt.Errorf("save session %s: %w", snap.SessionID, err)
	}
	s.logger.Debug("session saved",
		slog.String("session", snap.SessionID),
		slog.Int("events", r.events),
		slog.Float64("flexibility", r.flexibility),
	)
	return nil
}

// Get loads a session by ID.
func (s *SQLite) Get(ctx context.Context, id string) (engine.Snapshot, error) {
	if err := s.check(); err != nil {
		return engine.Snapshot{}, err
	}
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT snapshot_json FROM sessions WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Snapshot{}, NewNotFoundError("session", id)
	}
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("get session %s: %w", id, err)
	}

	var snap engine.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return engine.Snapshot{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return snap, nil
}

// List returns session summaries ordered per the filter.
func (s *SQLite) List(ctx context.Context, filter Filter) ([]Summary, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	col, ok := orderColumns[filter.OrderBy]
	if !ok {
		return nil, fmt.Errorf("list sessions: unsupported order %q", filter.OrderBy)
	}
	dir := "ASC"
	if filter.OrderDesc {
		dir = "DESC"
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, problem, created_at, updated_at, flexibility, events
		FROM sessions ORDER BY %s %s, id ASC LIMIT ? OFFSET ?
	`, col, dir), limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Problem, &sum.CreatedAt, &sum.UpdatedAt, &sum.Flexibility, &sum.Events); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Count returns the number of stored sessions.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// Delete removes a session by ID.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	if err := s.check(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NewNotFoundError("session", id)
	}
	s.logger.Info("session deleted", slog.String("session", id))
	return nil
}
