// Package store implements the SQLite-backed record store for users,
// projects, goals, actions, and time entries.
//
// Contract notes relied on by the sync engine: all timestamps are stored and
// returned in UTC, updated_at is the conflict-resolution authority, list
// operations exclude soft-deleted records, and slug uniqueness is scoped to
// live records per user.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/elinsky/execution-service/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id              TEXT PRIMARY KEY,
	email           TEXT NOT NULL UNIQUE,
	name            TEXT NOT NULL DEFAULT '',
	hashed_password TEXT NOT NULL,
	created_at      TIMESTAMP NOT NULL,
	updated_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	slug          TEXT NOT NULL,
	title         TEXT NOT NULL,
	area          TEXT NOT NULL DEFAULT '',
	folder        TEXT NOT NULL DEFAULT 'active',
	type          TEXT NOT NULL DEFAULT 'standard',
	content       TEXT NOT NULL DEFAULT '',
	created       DATE NOT NULL,
	started       DATE,
	last_reviewed DATE,
	due           DATE,
	completed     DATE,
	descoped      DATE,
	deleted       INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_projects_user_slug ON projects(user_id, slug);

CREATE TABLE IF NOT EXISTS goals (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	slug          TEXT NOT NULL,
	title         TEXT NOT NULL,
	area          TEXT NOT NULL DEFAULT '',
	folder        TEXT NOT NULL DEFAULT 'active',
	content       TEXT NOT NULL DEFAULT '',
	created       DATE NOT NULL,
	last_reviewed DATE,
	deleted       INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_goals_user_slug ON goals(user_id, slug);

CREATE TABLE IF NOT EXISTS actions (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	text         TEXT NOT NULL,
	context      TEXT NOT NULL DEFAULT '',
	project_slug TEXT,
	state        TEXT NOT NULL DEFAULT 'next',
	action_date  DATE NOT NULL,
	due          DATE,
	defer_until  DATE,
	completed    DATE,
	deleted      INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_actions_user ON actions(user_id);

CREATE TABLE IF NOT EXISTS time_entries (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	project_slug     TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	start_time       TIMESTAMP NOT NULL,
	end_time         TIMESTAMP,
	duration_minutes INTEGER,
	created_at       TIMESTAMP NOT NULL,
	updated_at       TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_time_entries_user ON time_entries(user_id);
`

// Store wraps a sql.DB with record operations.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func newID() string {
	return uuid.NewString()
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// writeTime picks the effective updated_at for a mutation: the override when
// the sync engine supplies one, now otherwise.
func writeTime(override *time.Time) time.Time {
	if override != nil {
		return override.UTC()
	}
	return utcNow()
}

func nullDate(d *models.Date) sql.NullTime {
	if d == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: d.Time, Valid: true}
}

func dateOrNil(nt sql.NullTime) *models.Date {
	if !nt.Valid {
		return nil
	}
	d := models.NewDate(nt.Time)
	return &d
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timeOrNil(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// exists runs a scalar EXISTS-style query and folds sql.ErrNoRows into false.
func (s *Store) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
