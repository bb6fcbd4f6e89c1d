package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BrandonDHaskell/rollcall/internal/config"
	"github.com/BrandonDHaskell/rollcall/internal/db"
	"github.com/BrandonDHaskell/rollcall/internal/logging"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store/postgres"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store/remote"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store/sqlite"
)

var errSeedUnsupported = errors.New("seeding is not supported for the remote backend; seed the ledger service host instead")

// backend bundles the directory and ledger for the configured ledger.backend.
type backend struct {
	name      string
	directory store.DirectoryStore
	ledger    store.LedgerStore
	// seed loads the dev directory. Nil when the backend cannot be seeded.
	seed  func(ctx context.Context) (int, error)
	close func()
}

func (b *backend) Close() {
	if b != nil && b.close != nil {
		b.close()
	}
}

func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	logger = logging.NewComponentLogger(logger, "backend")

	switch cfg.Ledger.Backend {
	case "sqlite":
		sqlDB, err := db.Open(ctx, db.Config{Path: cfg.Ledger.DBPath, Env: cfg.Env})
		if err != nil {
			return nil, fmt.Errorf("open sqlite ledger: %w", err)
		}
		writer := db.NewWorker(sqlDB)
		logger.Info("sqlite ledger opened", "path", cfg.Ledger.DBPath)
		return &backend{
			name:      "sqlite",
			directory: sqlite.NewDirectoryStore(sqlDB, writer),
			ledger:    sqlite.NewLedgerStore(sqlDB, writer),
			seed: func(ctx context.Context) (int, error) {
				return db.SeedDev(ctx, sqlDB, db.SeedDevOptions{})
			},
			close: func() {
				writer.Close()
				_ = sqlDB.Close()
			},
		}, nil

	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.Ledger.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres ledger: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("postgres ledger opened")
		dir := postgres.NewDirectoryStore(pool)
		return &backend{
			name:      "postgres",
			directory: dir,
			ledger:    postgres.NewLedgerStore(pool),
			seed: func(ctx context.Context) (int, error) {
				return seedWriter(ctx, dir)
			},
			close: pool.Close,
		}, nil

	case "remote":
		client, err := remote.New(remote.Options{
			BaseURL: cfg.Ledger.RemoteURL,
			Format:  cfg.Ledger.RemoteFormat,
			Timeout: time.Duration(cfg.Ledger.RequestTimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("remote ledger configured", "url", cfg.Ledger.RemoteURL, "format", cfg.Ledger.RemoteFormat)
		return &backend{
			name:      "remote",
			directory: client,
			ledger:    client,
		}, nil
	}
	return nil, fmt.Errorf("ledger.backend: unsupported value %q", cfg.Ledger.Backend)
}

func seedWriter(ctx context.Context, w store.PersonWriter) (int, error) {
	n := 0
	for _, p := range db.DevPeople {
		if err := w.UpsertPerson(ctx, p); err != nil {
			return n, fmt.Errorf("seed person %s: %w", p.ID, err)
		}
		n++
	}
	return n, nil
}
