package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	defaultPath        = "./data/rollcall.db"
	defaultBusyTimeout = 5 * time.Second
	pingTimeout        = 3 * time.Second
)

// Config says where the attendance ledger lives and how its connection is
// tuned.
type Config struct {
	Path string // e.g. "./data/rollcall.db"
	Env  string // "dev" | "prod"

	// Memory, when set, opens a named shared-cache in-memory database
	// instead of Path. It lives until the returned *sql.DB is closed.
	Memory string

	// BusyTimeout is how long a statement waits on a lock held by another
	// process, such as a second station on the same file. Zero means 5s.
	BusyTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Path == "" {
		c.Path = defaultPath
	}
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = defaultBusyTimeout
	}
	return c
}

// DSN renders the modernc.org/sqlite connection string for c. Every PRAGMA
// is applied per connection by the driver.
//
// A file ledger runs in WAL so the ledger service can read while a scanner
// station writes. prod trades write latency for a full fsync per commit.
func (c Config) DSN() string {
	c = c.withDefaults()

	pragmas := []string{
		"foreign_keys(1)",
		fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()),
	}
	if c.Memory != "" {
		return "file:" + c.Memory + "?mode=memory&cache=shared&" + joinPragmas(pragmas)
	}

	syncMode := "NORMAL"
	if c.Env == "prod" {
		syncMode = "FULL"
	}
	pragmas = append(pragmas, "journal_mode(WAL)", "synchronous("+syncMode+")")
	return "file:" + c.Path + "?" + joinPragmas(pragmas)
}

func joinPragmas(pragmas []string) string {
	parts := make([]string, len(pragmas))
	for i, p := range pragmas {
		parts[i] = "_pragma=" + p
	}
	return strings.Join(parts, "&")
}

// Open connects to the SQLite ledger described by cfg, creating the parent
// directory of a file ledger if needed, and applies migrations.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	cfg = cfg.withDefaults()

	if cfg.Memory == "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	// One connection. Writes are serialized through Worker, and a shared
	// in-memory database must never be dropped by the pool recycling it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping %s: %w", cfg.location(), err)
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func (c Config) location() string {
	if c.Memory != "" {
		return "memory:" + c.Memory
	}
	return c.Path
}
