// Package state keeps the history of export runs in SQLite.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DatabaseName is the history file created inside the data directory
const DatabaseName = "dataexporter.db"

// Status is the outcome of an export run
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	// StatusPartial: the walk aborted after some records were extracted
	StatusPartial Status = "partial"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusPartial:
		return true
	default:
		return false
	}
}

// Manager handles export history persistence
type Manager struct {
	db *sql.DB
}

// ExportRecord represents a single export run
type ExportRecord struct {
	ID        int64
	RunID     string
	UserID    string
	Scope     string // "files", "trashbin" or "all"
	StartTime time.Time
	EndTime   time.Time
	Status    Status
	Records   int
	Error     string
}

// Duration is the wall time of the run
func (r ExportRecord) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// NewManager opens the history database inside dataDir
func NewManager(dataDir string) (*Manager, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dataDir, DatabaseName))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one connection avoids "database is locked"
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode and busy timeout: %w", err)
	}

	manager := &Manager{db: db}
	if err := manager.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return manager, nil
}

func (m *Manager) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		scope TEXT NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NOT NULL,
		status TEXT NOT NULL,
		records INTEGER DEFAULT 0,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_exports_user_time ON exports(user_id, start_time DESC);
	CREATE INDEX IF NOT EXISTS idx_exports_status ON exports(status);
	`

	_, err := m.db.Exec(schema)
	return err
}

// SaveExport records an export run and returns its row id
func (m *Manager) SaveExport(record ExportRecord) (int64, error) {
	if !record.Status.IsValid() {
		return 0, fmt.Errorf("invalid status: %s (must be 'success', 'failed', or 'partial')", record.Status)
	}
	if record.UserID == "" {
		return 0, fmt.Errorf("user id cannot be empty")
	}

	res, err := m.db.Exec(`
		INSERT INTO exports (run_id, user_id, scope, start_time, end_time, status, records, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.RunID,
		record.UserID,
		record.Scope,
		record.StartTime,
		record.EndTime,
		string(record.Status),
		record.Records,
		record.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save export record: %w", err)
	}

	return res.LastInsertId()
}

const selectExports = `
	SELECT id, run_id, user_id, scope, start_time, end_time, status, records, error
	FROM exports
`

// GetHistory returns the latest runs for a user, newest first
func (m *Manager) GetHistory(userID string, limit int) ([]ExportRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := m.db.Query(selectExports+`WHERE user_id = ? ORDER BY start_time DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return scanRecords(rows)
}

// GetAllHistory returns the latest runs of every user, newest first
func (m *Manager) GetAllHistory(limit int) ([]ExportRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := m.db.Query(selectExports+`ORDER BY start_time DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query all history: %w", err)
	}
	return scanRecords(rows)
}

// GetLastSuccess returns the newest successful run of a user, or nil
func (m *Manager) GetLastSuccess(userID string) (*ExportRecord, error) {
	row := m.db.QueryRow(selectExports+`WHERE user_id = ? AND status = 'success' ORDER BY start_time DESC LIMIT 1`, userID)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last success: %w", err)
	}
	return &record, nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (ExportRecord, error) {
	var (
		record ExportRecord
		status string
		errMsg sql.NullString
	)
	err := row.Scan(
		&record.ID,
		&record.RunID,
		&record.UserID,
		&record.Scope,
		&record.StartTime,
		&record.EndTime,
		&status,
		&record.Records,
		&errMsg,
	)
	record.Status = Status(status)
	record.Error = errMsg.String
	return record, err
}

func scanRecords(rows *sql.Rows) ([]ExportRecord, error) {
	defer rows.Close()

	var records []ExportRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return records, nil
}
