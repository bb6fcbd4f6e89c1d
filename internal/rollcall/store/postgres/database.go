// Package postgres stores the directory and attendance ledger in PostgreSQL
// through a pgx connection pool. It is the backend for deployments where
// several scanner stations share one ledger.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx pool using dsn.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the people and attendance_facts tables if needed.
// Mirrors the SQLite migration, with timestamps as TIMESTAMPTZ.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const stmt = `
CREATE TABLE IF NOT EXISTS people (
	person_id  TEXT PRIMARY KEY,
	email      TEXT NOT NULL DEFAULT '',
	first_name TEXT NOT NULL DEFAULT '',
	last_name  TEXT NOT NULL DEFAULT '',
	school_id  TEXT,
	year_level TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_people_school_id ON people(school_id);
CREATE INDEX IF NOT EXISTS idx_people_email ON people(lower(email));
CREATE TABLE IF NOT EXISTS attendance_facts (
	occasion_id TEXT NOT NULL,
	person_id   TEXT NOT NULL,
	status      TEXT NOT NULL CHECK (status IN ('present', 'late', 'absent', 'excused')),
	recorded_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (occasion_id, person_id)
);`
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
