package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	sessionIndexDriver = "sqlite"
	sessionIndexDSNOpt = "?_pragma=busy_timeout(3000)&_pragma=journal_mode(WAL)"
)

// sessionIndex persists a browsable record of past conversations. The
// transcripts themselves stay in memory; the index only keeps enough to
// list and resume sessions.
type sessionIndex struct {
	db *sql.DB
	mu sync.Mutex
}

type sessionIndexRecord struct {
	SessionID     string
	CreatedAt     time.Time
	LastAskedAt   time.Time
	ExchangeCount int64
	LastQuestion  string
}

func newSessionIndex(path string) (*sessionIndex, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("session index: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("session index: create dir: %w", err)
	}
	db, err := sql.Open(sessionIndexDriver, path+sessionIndexDSNOpt)
	if err != nil {
		return nil, fmt.Errorf("session index: open db: %w", err)
	}
	idx := &sessionIndex{db: db}
	if err := idx.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return idx, nil
}

func (s *sessionIndex) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Touch records one answered question for a session, creating the row on
// first use.
func (s *sessionIndex) Touch(sessionID, question string, at time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("session index: session_id is required")
	}
	if at.IsZero() {
		at = time.Now()
	}
	ts := at.UnixMilli()
	question = strings.TrimSpace(question)
	s.mu.Lock()
	defer s.mu.Unlock()
	const q = `
INSERT INTO session_index (
	session_id, created_at, last_asked_at, exchange_count, last_question
) VALUES (?, ?, ?, 1, ?)
ON CONFLICT(session_id) DO UPDATE SET
	last_asked_at = excluded.last_asked_at,
	exchange_count = session_index.exchange_count + 1,
	last_question = CASE
		WHEN excluded.last_question <> '' THEN excluded.last_question
		ELSE session_index.last_question
	END`
	_, err := s.db.ExecContext(context.Background(), q, sessionID, ts, ts, question)
	return err
}

// List returns the most recently used sessions, newest first.
func (s *sessionIndex) List(limit int) ([]sessionIndexRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT session_id, created_at, last_asked_at, exchange_count, last_question
FROM session_index
ORDER BY last_asked_at DESC, created_at DESC
LIMIT ?`
	rows, err := s.db.QueryContext(context.Background(), q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]sessionIndexRecord, 0, limit)
	for rows.Next() {
		var rec sessionIndexRecord
		var createdAt, lastAskedAt int64
		if err := rows.Scan(&rec.SessionID, &createdAt, &lastAskedAt, &rec.ExchangeCount, &rec.LastQuestion); err != nil {
			return nil, err
		}
		rec.CreatedAt = time.UnixMilli(createdAt)
		rec.LastAskedAt = time.UnixMilli(lastAskedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *sessionIndex) migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS session_index (
	session_id TEXT NOT NULL PRIMARY KEY,
	created_at INTEGER NOT NULL,
	last_asked_at INTEGER NOT NULL,
	exchange_count INTEGER NOT NULL DEFAULT 0,
	last_question TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_session_index_last_asked
ON session_index(last_asked_at DESC);`
	_, err := s.db.ExecContext(ctx, ddl)
	if err != nil {
		return fmt.Errorf("session index: migrate: %w", err)
	}
	return nil
}
