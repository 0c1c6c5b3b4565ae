package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/icebreaker/internal/models"
)

// MemoryPath opens a private in-memory transcript.
const MemoryPath = ":memory:"

// SQLiteStore implements Transcript using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ Transcript = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist. MemoryPath keeps everything in memory.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	inMemory := dbPath == MemoryPath
	if !inMemory {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if inMemory {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath, now: time.Now}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		profile_name TEXT,
		model TEXT NOT NULL,
		nodes INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		question TEXT,
		answer TEXT NOT NULL,
		outcome TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_turns_session_id ON turns(session_id, id);
	`
	_, err := db.Exec(schema)
	return err
}

// RecordSession inserts a session header.
func (s *SQLiteStore) RecordSession(ctx context.Context, rec *models.SessionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, profile_name, model, nodes, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.ProfileName, rec.Model, rec.Nodes, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record session %s: %w", rec.ID, err)
	}
	return nil
}

// GetSession returns a session header by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*models.SessionRecord, error) {
	var rec models.SessionRecord
	var profileName sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, profile_name, model, nodes, created_at
		 FROM sessions WHERE id = ?`, id,
	).Scan(&rec.ID, &profileName, &rec.Model, &rec.Nodes, &rec.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotRecorded, id)
	}
	if err != nil {
		return nil, err
	}
	rec.ProfileName = profileName.String
	return &rec, nil
}

// RecordTurn appends a turn and sets its ID.
func (s *SQLiteStore) RecordTurn(ctx context.Context, turn *models.Turn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = s.now()
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (session_id, kind, question, answer, outcome, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		turn.SessionID, turn.Kind, turn.Question, turn.Answer, turn.Outcome, turn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record turn for %s: %w", turn.SessionID, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		turn.ID = id
	}
	return nil
}

// ListTurns returns a session's turns in insertion order. limit <= 0 returns all.
func (s *SQLiteStore) ListTurns(ctx context.Context, sessionID string, offset, limit int) ([]*models.Turn, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, kind, question, answer, outcome, created_at
		 FROM turns WHERE session_id = ? ORDER BY id LIMIT ? OFFSET ?`,
		sessionID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []*models.Turn
	for rows.Next() {
		var turn models.Turn
		var question sql.NullString
		if err := rows.Scan(&turn.ID, &turn.SessionID, &turn.Kind, &question, &turn.Answer, &turn.Outcome, &turn.CreatedAt); err != nil {
			return nil, err
		}
		turn.Question = question.String
		turns = append(turns, &turn)
	}
	return turns, rows.Err()
}

// CountSessions returns the number of recorded sessions.
func (s *SQLiteStore) CountSessions(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count)
	return count, err
}

// CountTurns returns the number of recorded turns.
func (s *SQLiteStore) CountTurns(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM turns`).Scan(&count)
	return count, err
}

// DiskUsage returns the bytes used by the database and its WAL files.
// In-memory stores report zero.
func (s *SQLiteStore) DiskUsage() (int64, error) {
	if s.path == MemoryPath {
		return 0, nil
	}
	return fileUsage(s.path, s.path+"-wal", s.path+"-shm")
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
