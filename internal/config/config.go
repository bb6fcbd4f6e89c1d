package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

//go:embed sample_config.toml
var sampleConfig string

// Ledger selects where people are looked up and attendance is written.
type Ledger struct {
	Backend         string `toml:"backend"`          // "sqlite" | "postgres" | "remote"
	DuplicatePolicy string `toml:"duplicate_policy"` // "reject" | "overwrite"
	DBPath          string `toml:"db_path"`
	PostgresDSN     string `toml:"postgres_dsn"`
	RemoteURL       string `toml:"remote_url"`
	RemoteFormat    string `toml:"remote_format"` // "json" | "protobuf"
	// RequestTimeoutSeconds bounds each remote call. 0 = no timeout.
	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`
}

// Scan configures the check-in session and the scanner hardware.
type Scan struct {
	Mode   string `toml:"mode"`   // "single" | "batch"
	Device string `toml:"device"` // device id or label; empty = back/rear heuristic
	// DeviceGlobs lists the device nodes treated as line scanners.
	DeviceGlobs    []string `toml:"device_globs"`
	BaudRate       int      `toml:"baud_rate"`
	LockDir        string   `toml:"lock_dir"`
	VerifyEmbedded bool     `toml:"verify_embedded"`
}

type Server struct {
	HTTPAddr string `toml:"http_addr"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// Config is the full rollcall configuration.
type Config struct {
	Env     string  `toml:"env"` // "dev" | "prod"
	Ledger  Ledger  `toml:"ledger"`
	Scan    Scan    `toml:"scan"`
	Server  Server  `toml:"server"`
	Logging Logging `toml:"logging"`
}

// Load reads defaults, the config file at path (or the default locations when
// path is empty), and ROLLCALL_* overrides. It returns the resolved file path
// and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// SampleConfig returns a commented config file with every key at its default.
func SampleConfig() string { return sampleConfig }

// Policy returns the configured duplicate policy.
func (c *Config) Policy() types.DuplicatePolicy {
	return types.DuplicatePolicy(c.Ledger.DuplicatePolicy)
}

// IsProd reports whether rollcall runs against production data.
func (c *Config) IsProd() bool { return c.Env == "prod" }

// DefaultConfigPath returns the per-user config file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/rollcall/config.toml")
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv("ROLLCALL_CONFIG"))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("rollcall.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func expandPath(p string) (string, error) {
	if p == "" {
		return p, nil
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if p == "~" {
			p = home
		} else if len(p) > 1 && p[1] == '/' {
			p = filepath.Join(home, p[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}
