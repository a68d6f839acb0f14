package session

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store persists session history and per-operation records in SQLite.
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// OperationRecord is one logged pipeline operation.
type OperationRecord struct {
	ID        int64     `json:"id"`
	Operation string    `json:"operation"`
	CharsIn   int       `json:"chars_in"`
	ChunksOut int       `json:"chunks_out"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryEntry is one completed session.
type HistoryEntry struct {
	ID             int64      `json:"id"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	ExchangeCount  int64      `json:"exchange_count"`
	FilesProcessed int64      `json:"files_processed"`
}

// Open opens or creates a SQLite database at the given path.
// If the path is empty, it defaults to ~/.local/share/promptprep/session.db.
func Open(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		path = filepath.Join(home, ".local", "share", "promptprep", "session.db")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TIMESTAMP NOT NULL,
			ended_at TIMESTAMP,
			exchange_count INTEGER NOT NULL DEFAULT 0,
			files_processed INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS operations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER REFERENCES sessions(id) ON DELETE CASCADE,
			operation TEXT NOT NULL,
			chars_in INTEGER NOT NULL DEFAULT 0,
			chunks_out INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_operations_session ON operations(session_id);
	`)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// BeginSession records a new session row and returns its ID.
func (s *Store) BeginSession(startedAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`INSERT INTO sessions (started_at) VALUES (?)`, startedAt)
	if err != nil {
		return 0, fmt.Errorf("begin session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get session id: %w", err)
	}
	return id, nil
}

// EndSession closes a session row with the final counter values.
func (s *Store) EndSession(id int64, stats Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`
		UPDATE sessions SET ended_at = ?, exchange_count = ?, files_processed = ?
		WHERE id = ?`,
		time.Now(), stats.ExchangeCount, stats.FilesProcessed, id,
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("session not found: %d", id)
	}
	return nil
}

// LogOperation appends one operation record for a session.
func (s *Store) LogOperation(sessionID int64, op string, charsIn, chunksOut int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO operations (session_id, operation, chars_in, chunks_out, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		sessionID, op, charsIn, chunksOut, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("log operation: %w", err)
	}
	return nil
}

// RecentOperations returns the latest operation records for a session,
// newest first.
func (s *Store) RecentOperations(sessionID int64, limit int) ([]OperationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(`
		SELECT id, operation, chars_in, chunks_out, created_at
		FROM operations WHERE session_id = ?
		ORDER BY id DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var records []OperationRecord
	for rows.Next() {
		var rec OperationRecord
		if err := rows.Scan(&rec.ID, &rec.Operation, &rec.CharsIn, &rec.ChunksOut, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Reset deletes all recorded sessions and their operations.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM operations; DELETE FROM sessions;`); err != nil {
		return fmt.Errorf("reset history: %w", err)
	}
	return nil
}

// History returns completed and running sessions, newest first.
func (s *Store) History(limit int) ([]HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT id, started_at, ended_at, exchange_count, files_processed
		FROM sessions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		var ended sql.NullTime
		if err := rows.Scan(&entry.ID, &entry.StartedAt, &ended, &entry.ExchangeCount, &entry.FilesProcessed); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if ended.Valid {
			t := ended.Time
			entry.EndedAt = &t
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
