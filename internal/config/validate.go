package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

func (c *Config) normalize() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env != "dev" && c.Env != "prod" {
		// fail-soft: treat unknown as dev
		c.Env = "dev"
	}
	c.Ledger.Backend = strings.ToLower(strings.TrimSpace(c.Ledger.Backend))
	c.Ledger.DuplicatePolicy = strings.ToLower(strings.TrimSpace(c.Ledger.DuplicatePolicy))
	c.Ledger.RemoteFormat = strings.ToLower(strings.TrimSpace(c.Ledger.RemoteFormat))
	c.Ledger.RemoteURL = strings.TrimRight(strings.TrimSpace(c.Ledger.RemoteURL), "/")
	c.Scan.Mode = strings.ToLower(strings.TrimSpace(c.Scan.Mode))
	c.Scan.Device = strings.TrimSpace(c.Scan.Device)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	var err error
	if c.Ledger.DBPath, err = expandPath(c.Ledger.DBPath); err != nil {
		return fmt.Errorf("ledger.db_path: %w", err)
	}
	if c.Scan.LockDir, err = expandPath(c.Scan.LockDir); err != nil {
		return fmt.Errorf("scan.lock_dir: %w", err)
	}
	if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLedger(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateLedger() error {
	switch c.Ledger.Backend {
	case "sqlite":
		if c.Ledger.DBPath == "" {
			return errors.New("ledger.db_path must be set for the sqlite backend")
		}
	case "postgres":
		if strings.TrimSpace(c.Ledger.PostgresDSN) == "" {
			return errors.New("ledger.postgres_dsn must be set for the postgres backend (or ROLLCALL_POSTGRES_DSN)")
		}
	case "remote":
		u, err := url.Parse(c.Ledger.RemoteURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("ledger.remote_url must be an absolute URL, got %q", c.Ledger.RemoteURL)
		}
	default:
		return fmt.Errorf("ledger.backend: unsupported value %q (sqlite, postgres, remote)", c.Ledger.Backend)
	}
	if !c.Policy().Valid() {
		return fmt.Errorf("ledger.duplicate_policy: unsupported value %q (reject, overwrite)", c.Ledger.DuplicatePolicy)
	}
	if c.Ledger.RemoteFormat != "json" && c.Ledger.RemoteFormat != "protobuf" {
		return fmt.Errorf("ledger.remote_format: unsupported value %q (json, protobuf)", c.Ledger.RemoteFormat)
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.Mode != "single" && c.Scan.Mode != "batch" {
		return fmt.Errorf("scan.mode: unsupported value %q (single, batch)", c.Scan.Mode)
	}
	if len(c.Scan.DeviceGlobs) == 0 {
		return errors.New("scan.device_globs must list at least one pattern")
	}
	if c.Scan.BaudRate <= 0 {
		return errors.New("scan.baud_rate must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format: unsupported value %q (console, json)", c.Logging.Format)
	}
	return nil
}
