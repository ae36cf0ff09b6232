package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Store keeps answered questions in a local SQLite file. The handle is a
// process-wide singleton; the upsert statement makes concurrent writes for
// the same question safe.
type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("cache path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS historico (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    question TEXT UNIQUE,
    answer TEXT
)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, question string) (string, bool, error) {
	var answer string
	err := s.db.QueryRowContext(ctx, `SELECT answer FROM historico WHERE question = ?`, question).Scan(&answer)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache lookup: %w", err)
	}
	return answer, true, nil
}

func (s *Store) Put(ctx context.Context, question, answer string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO historico (question, answer)
VALUES (?, ?)
ON CONFLICT (question) DO UPDATE SET answer = excluded.answer`, question, answer)
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
