// ============================================================================
// zuse - Embeddable Command Interpreter
// ============================================================================
//
// Package:     journal
// Description: SQLite command journal. Every command the interpreter runs,
//              synchronous, async or parallel, becomes one row.
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/foundation/utils/filex"
	"github.com/msto63/zuse/foundation/utils/stringx"
	"github.com/msto63/zuse/internal/interpreter"
)

// MaxResultLength caps the stored result text, in runes
const MaxResultLength = 4096

// Entry is one journal row
type Entry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	ThreadID  string        `json:"thread_id"`
	JobID     uint64        `json:"job_id,omitempty"`
	Mode      string        `json:"mode"`
	Command   string        `json:"command"`
	Args      []string      `json:"args,omitempty"`
	Result    string        `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
	ErrorCode string        `json:"error_code,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Failed reports whether the command returned an error
func (e *Entry) Failed() bool { return e.Error != "" }

// Filter defines criteria for Query. Zero fields match everything.
type Filter struct {
	Command    string
	Mode       string
	ThreadID   string
	FailedOnly bool
	Since      time.Time
	Until      time.Time
	Limit      int
	Offset     int
}

// Stats summarizes the journal
type Stats struct {
	Total     int64
	Failed    int64
	ByMode    map[string]int64
	TopFailed map[string]int64
}

// Config holds configuration for the SQLite store
type Config struct {
	Path string
}

// Store persists journal entries in SQLite. It implements
// interpreter.Journal.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the journal database at cfg.Path
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		cfg.Path = "./data/journal.db"
	}
	if cfg.Path != ":memory:" {
		if err := filex.EnsureParentDir(cfg.Path, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, zerror.Wrap(err, "failed to open journal database").
			WithCode(zerror.CodeDatabaseError).
			WithDetail("path", cfg.Path)
	}
	// One connection keeps :memory: databases intact and serializes writers
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, zerror.Wrap(err, "failed to initialize journal schema").
			WithCode(zerror.CodeDatabaseError)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS journal (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		thread_id TEXT NOT NULL,
		job_id INTEGER NOT NULL DEFAULT 0,
		mode TEXT NOT NULL,
		command TEXT NOT NULL,
		args TEXT,
		result TEXT,
		error TEXT,
		error_code TEXT,
		duration_us INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_journal_timestamp ON journal(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_journal_command ON journal(command);
	CREATE INDEX IF NOT EXISTS idx_journal_mode ON journal(mode);
	CREATE INDEX IF NOT EXISTS idx_journal_thread ON journal(thread_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores an interpreter record
func (s *Store) Record(rec interpreter.Record) error {
	e := &Entry{
		Timestamp: rec.Started,
		ThreadID:  rec.ThreadID,
		JobID:     rec.JobID,
		Mode:      string(rec.Mode),
		Command:   rec.Command,
		Args:      rec.Args,
		Result:    rec.Result,
		Duration:  rec.Duration,
	}
	if rec.Err != nil {
		e.Error = rec.Err.Error()
		e.ErrorCode = string(zerror.GetCode(rec.Err))
	}
	return s.Insert(context.Background(), e)
}

// Insert stores e, filling in a missing id and timestamp
func (s *Store) Insert(ctx context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	result := stringx.Truncate(e.Result, MaxResultLength, "...")

	var argsJSON []byte
	if len(e.Args) > 0 {
		argsJSON, _ = json.Marshal(e.Args)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal (id, timestamp, thread_id, job_id, mode, command, args, result, error, error_code, duration_us)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Timestamp.UTC(), e.ThreadID, int64(e.JobID), e.Mode, e.Command, string(argsJSON),
		result, e.Error, e.ErrorCode, e.Duration.Microseconds())
	if err != nil {
		return zerror.Wrap(err, "failed to insert journal entry").
			WithCode(zerror.CodeDatabaseError).
			WithDetail("command", e.Command)
	}
	return nil
}

// Query returns entries matching filter, newest first
func (s *Store) Query(ctx context.Context, filter Filter) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, timestamp, thread_id, job_id, mode, command, args, result, error, error_code, duration_us
		FROM journal WHERE 1=1`
	var args []interface{}

	if filter.Command != "" {
		query += " AND command = ?"
		args = append(args, filter.Command)
	}
	if filter.Mode != "" {
		query += " AND mode = ?"
		args = append(args, filter.Mode)
	}
	if filter.ThreadID != "" {
		query += " AND thread_id = ?"
		args = append(args, filter.ThreadID)
	}
	if filter.FailedOnly {
		query += " AND error <> ''"
	}
	if !filter.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.Since.UTC())
	}
	if !filter.Until.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, filter.Until.UTC())
	}

	query += " ORDER BY timestamp DESC, rowid DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, zerror.Wrap(err, "failed to query journal").WithCode(zerror.CodeDatabaseError)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var jobID, durationUS int64
		var argsJSON, result, errText, errCode sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.ThreadID, &jobID, &e.Mode, &e.Command,
			&argsJSON, &result, &errText, &errCode, &durationUS); err != nil {
			return nil, zerror.Wrap(err, "failed to scan journal entry").WithCode(zerror.CodeDatabaseError)
		}
		e.JobID = uint64(jobID)
		e.Duration = time.Duration(durationUS) * time.Microsecond
		e.Result = result.String
		e.Error = errText.String
		e.ErrorCode = errCode.String
		if argsJSON.String != "" {
			json.Unmarshal([]byte(argsJSON.String), &e.Args)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Stats returns totals per mode and the commands failing most often
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{ByMode: make(map[string]int64), TopFailed: make(map[string]int64)}
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(CASE WHEN error <> '' THEN 1 ELSE 0 END), 0) FROM journal",
	).Scan(&stats.Total, &stats.Failed); err != nil {
		return nil, zerror.Wrap(err, "failed to count journal entries").WithCode(zerror.CodeDatabaseError)
	}

	if err := s.groupCount(ctx, "SELECT mode, COUNT(*) FROM journal GROUP BY mode", stats.ByMode); err != nil {
		return nil, err
	}
	if err := s.groupCount(ctx, `SELECT command, COUNT(*) AS n FROM journal WHERE error <> ''
		GROUP BY command ORDER BY n DESC LIMIT 10`, stats.TopFailed); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) groupCount(ctx context.Context, query string, into map[string]int64) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return zerror.Wrap(err, "failed to group journal entries").WithCode(zerror.CodeDatabaseError)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return zerror.Wrap(err, "failed to scan journal group").WithCode(zerror.CodeDatabaseError)
		}
		into[key] = n
	}
	return rows.Err()
}

// Prune deletes entries older than olderThan and returns how many
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan).UTC()
	res, err := s.db.ExecContext(ctx, "DELETE FROM journal WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, zerror.Wrap(err, "failed to prune journal").WithCode(zerror.CodeDatabaseError)
	}
	return res.RowsAffected()
}

// Vacuum reclaims unused space
func (s *Store) Vacuum(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
