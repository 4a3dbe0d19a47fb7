// Package store keeps a SQLite log of sent and received messages.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Direction tells sent messages from decoded ones
type Direction string

const (
	Sent     Direction = "tx"
	Received Direction = "rx"
)

// Entry is one logged message
type Entry struct {
	ID        int64
	At        time.Time
	Direction Direction
	Text      string
	Morse     string
	WPM       int
	Duration  time.Duration
	Aborted   bool
}

// Store wraps SQLite access for the message log.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate %s: %w", path, err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY,
			at TEXT NOT NULL,
			direction TEXT NOT NULL,
			text TEXT NOT NULL,
			morse TEXT NOT NULL,
			wpm INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			aborted INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_at ON messages(at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// timeLayout is fixed width so text order matches time order
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Insert stores e and returns its ID
func (s *Store) Insert(ctx context.Context, e Entry) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (at, direction, text, morse, wpm, duration_ms, aborted)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.At.UTC().Format(timeLayout),
		string(e.Direction),
		e.Text,
		e.Morse,
		e.WPM,
		e.Duration.Milliseconds(),
		e.Aborted,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// MarkAborted flags a logged transmission as cut short
func (s *Store) MarkAborted(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE messages SET aborted = 1 WHERE id = ?`, id)
	return err
}

// Recent returns up to limit entries, newest first.
// An empty direction matches both.
func (s *Store) Recent(ctx context.Context, limit int, dir Direction) ([]Entry, error) {
	query := `SELECT id, at, direction, text, morse, wpm, duration_ms, aborted FROM messages`
	args := []any{}
	if dir != "" {
		query += ` WHERE direction = ?`
		args = append(args, string(dir))
	}
	query += ` ORDER BY at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			at, direct string
			durationMs int64
		)
		if err := rows.Scan(&e.ID, &at, &direct, &e.Text, &e.Morse, &e.WPM, &durationMs, &e.Aborted); err != nil {
			return nil, err
		}
		e.At, err = time.Parse(timeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", e.ID, err)
		}
		e.Direction = Direction(direct)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}
