package sessionstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/csadvisor/advisor-go/internal/domain/entities"
)

// SQLiteStore persists session logs in a single chat_history table. Row ids
// are autoincrementing, so insertion order is the read order.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS chat_history (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    role       TEXT NOT NULL,
    content    TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_history_session ON chat_history (session_id, id);
`

// NewSQLiteStore opens (creating if needed) the session database at path.
// WAL mode keeps concurrent readers off the writer's back.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating session store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating chat_history table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// History returns the session's turns ordered by row id.
func (s *SQLiteStore) History(ctx context.Context, sessionID string) ([]entities.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content, created_at FROM chat_history WHERE session_id = ? ORDER BY id", sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session history: %w", err)
	}
	defer rows.Close()

	var turns []entities.Turn
	for rows.Next() {
		var turn entities.Turn
		var createdAt string
		if err := rows.Scan(&turn.Role, &turn.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if ts, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
			turn.CreatedAt = ts
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading session history: %w", err)
	}
	return turns, nil
}

// Append inserts one turn; the session record exists as soon as its first
// row does.
func (s *SQLiteStore) Append(ctx context.Context, sessionID string, turn entities.Turn) error {
	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO chat_history (session_id, role, content, created_at) VALUES (?, ?, ?, ?)",
		sessionID, turn.Role, turn.Content, createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("appending turn: %w", err)
	}
	return nil
}
