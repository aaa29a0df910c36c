// Package audit persists the event bus traffic and workflow outcomes to a
// local SQLite database, giving runs a queryable history beyond the bus's
// bounded in-memory history.
package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ShayCichocki/orchid/internal/bus"
	"github.com/ShayCichocki/orchid/pkg/models"
)

// subscriberID is the audit trail's identity on the event bus.
const subscriberID = "audit"

// auditedTypes are the message types the trail records.
var auditedTypes = []models.MessageType{
	models.MessageTaskAssigned,
	models.MessageTaskStarted,
	models.MessageTaskProgress,
	models.MessageTaskCompleted,
	models.MessageTaskFailed,
	models.MessageSystemEvent,
}

// Store wraps an SQLite database holding the audit trail.
type Store struct {
	mu   sync.RWMutex
	conn *sql.DB
	path string
}

// DefaultPath returns the XDG data path for the audit database.
func DefaultPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "orchid", "audit.db")
}

// Open opens (and migrates) the audit database at path, creating parent
// directories as needed. WAL mode is enabled for concurrent reads.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{conn: conn, path: path}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := s.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Messages},
		{2, migrationV2Workflows},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := s.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

const migrationV1Messages = `
CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	sender TEXT NOT NULL,
	recipient TEXT,
	task_id TEXT,
	payload TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_type ON messages(type);
CREATE INDEX IF NOT EXISTS idx_messages_task_id ON messages(task_id);
`

const migrationV2Workflows = `
CREATE TABLE IF NOT EXISTS workflows (
	id TEXT PRIMARY KEY,
	state TEXT NOT NULL,
	degraded INTEGER NOT NULL DEFAULT 0,
	total_steps INTEGER NOT NULL DEFAULT 0,
	parallelized INTEGER NOT NULL DEFAULT 0,
	estimated_minutes INTEGER NOT NULL DEFAULT 0,
	overall_progress REAL NOT NULL DEFAULT 0,
	started_at DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_workflows_state ON workflows(state);
`

// Attach subscribes the store to every audited message type on the bus.
// Recording happens on the bus delivery goroutine; insert failures are
// dropped rather than disrupting delivery to other subscribers.
func (s *Store) Attach(b *bus.Bus) {
	for _, msgType := range auditedTypes {
		b.Subscribe(msgType, subscriberID, func(msg models.Message) {
			_ = s.RecordMessage(msg)
		})
	}
}

// Detach removes the store's subscriptions from the bus.
func (s *Store) Detach(b *bus.Bus) {
	for _, msgType := range auditedTypes {
		b.Unsubscribe(msgType, subscriberID)
	}
}

// RecordMessage persists one bus message.
func (s *Store) RecordMessage(msg models.Message) error {
	payload := ""
	if msg.Payload != nil {
		data, err := json.Marshal(msg.Payload)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		payload = string(data)
	}

	taskID := ""
	if v, ok := msg.Payload["task_id"].(string); ok {
		taskID = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.conn.Exec(`
		INSERT OR IGNORE INTO messages (id, type, sender, recipient, task_id, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, string(msg.Type), msg.Sender, msg.Recipient, taskID, payload, formatTime(msg.Timestamp))
	if err != nil {
		return fmt.Errorf("record message: %w", err)
	}
	return nil
}

// RecordWorkflow persists the outcome of one workflow run.
func (s *Store) RecordWorkflow(result *models.WorkflowResult) error {
	if result == nil || result.WorkflowID == "" {
		return fmt.Errorf("record workflow: missing workflow ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.conn.Exec(`
		INSERT OR REPLACE INTO workflows
			(id, state, degraded, total_steps, parallelized, estimated_minutes, overall_progress, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, result.WorkflowID, string(result.State), boolToInt(result.Degraded),
		result.TotalSteps, boolToInt(result.Parallelized), result.EstimatedMinutes,
		result.OverallProgress, formatTime(result.StartedAt), formatTime(result.FinishedAt))
	if err != nil {
		return fmt.Errorf("record workflow: %w", err)
	}
	return nil
}

// MessageRecord is one persisted bus message.
type MessageRecord struct {
	ID        string
	Type      string
	Sender    string
	Recipient string
	TaskID    string
	Payload   string
	CreatedAt time.Time
}

// Messages returns persisted messages, newest last, capped at limit.
// A taskID filters to one task; empty matches everything.
func (s *Store) Messages(taskID string, limit int) ([]MessageRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, type, sender, recipient, task_id, payload, created_at
		FROM messages
	`
	args := []any{}
	if taskID != "" {
		query += " WHERE task_id = ?"
		args = append(args, taskID)
	}
	query += " ORDER BY created_at ASC LIMIT ?"
	args = append(args, limit)

	s.mu.RLock()
	rows, err := s.conn.Query(query, args...)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var records []MessageRecord
	for rows.Next() {
		var rec MessageRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.Type, &rec.Sender, &rec.Recipient, &rec.TaskID, &rec.Payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		rec.CreatedAt, _ = parseTime(createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// WorkflowRecord is one persisted workflow outcome.
type WorkflowRecord struct {
	ID               string
	State            string
	Degraded         bool
	TotalSteps       int
	Parallelized     bool
	EstimatedMinutes int
	OverallProgress  float64
	StartedAt        time.Time
	FinishedAt       time.Time
}

// Workflows returns persisted workflow outcomes, oldest first.
func (s *Store) Workflows() ([]WorkflowRecord, error) {
	s.mu.RLock()
	rows, err := s.conn.Query(`
		SELECT id, state, degraded, total_steps, parallelized, estimated_minutes, overall_progress, started_at, finished_at
		FROM workflows
		ORDER BY started_at ASC
	`)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("query workflows: %w", err)
	}
	defer rows.Close()

	var records []WorkflowRecord
	for rows.Next() {
		var rec WorkflowRecord
		var degraded, parallelized int
		var startedAt, finishedAt string
		if err := rows.Scan(&rec.ID, &rec.State, &degraded, &rec.TotalSteps, &parallelized,
			&rec.EstimatedMinutes, &rec.OverallProgress, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		rec.Degraded = degraded != 0
		rec.Parallelized = parallelized != 0
		rec.StartedAt, _ = parseTime(startedAt)
		rec.FinishedAt, _ = parseTime(finishedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
