package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/BrandonDHaskell/rollcall/internal/config"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

// isolate points HOME and the working directory at empty temp dirs so no
// real config file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("ROLLCALL_CONFIG", "")
	t.Chdir(t.TempDir())
	return home
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rollcall.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected no config file")
	}
	if !strings.HasSuffix(resolved, filepath.Join(".config", "rollcall", "config.toml")) {
		t.Errorf("unexpected resolved path %q", resolved)
	}
	if cfg.Ledger.Backend != "sqlite" {
		t.Errorf("expected sqlite backend, got %q", cfg.Ledger.Backend)
	}
	if cfg.Policy() != types.PolicyReject {
		t.Errorf("expected reject policy, got %q", cfg.Policy())
	}
	if cfg.Scan.Mode != "single" {
		t.Errorf("expected single mode, got %q", cfg.Scan.Mode)
	}
	if cfg.Scan.VerifyEmbedded {
		t.Error("expected verify_embedded off by default")
	}
	if !filepath.IsAbs(cfg.Ledger.DBPath) {
		t.Errorf("expected db path expanded to absolute, got %q", cfg.Ledger.DBPath)
	}
	if cfg.IsProd() {
		t.Error("expected dev env by default")
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
env = "prod"

[ledger]
backend = "postgres"
postgres_dsn = "postgres://file"
duplicate_policy = "overwrite"

[scan]
mode = "batch"
device = "Back Camera"
verify_embedded = true
`)
	t.Setenv("ROLLCALL_POSTGRES_DSN", "postgres://env")
	t.Setenv("ROLLCALL_DEVICE_GLOBS", "/dev/ttyS*, /dev/ttyACM*")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %q to be used, got %q (exists=%v)", path, resolved, exists)
	}
	if !cfg.IsProd() {
		t.Error("expected prod env from file")
	}
	if cfg.Ledger.PostgresDSN != "postgres://env" {
		t.Errorf("expected env to override dsn, got %q", cfg.Ledger.PostgresDSN)
	}
	if cfg.Policy() != types.PolicyOverwrite {
		t.Errorf("expected overwrite, got %q", cfg.Policy())
	}
	if cfg.Scan.Mode != "batch" || cfg.Scan.Device != "Back Camera" || !cfg.Scan.VerifyEmbedded {
		t.Errorf("unexpected scan section: %+v", cfg.Scan)
	}
	if len(cfg.Scan.DeviceGlobs) != 2 || cfg.Scan.DeviceGlobs[0] != "/dev/ttyS*" {
		t.Errorf("unexpected device globs: %v", cfg.Scan.DeviceGlobs)
	}
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "[server]\nhttp_addr = \":9999\"\n")
	t.Setenv("ROLLCALL_CONFIG", path)

	cfg, _, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || cfg.Server.HTTPAddr != ":9999" {
		t.Errorf("expected :9999 from ROLLCALL_CONFIG file, got %q (exists=%v)", cfg.Server.HTTPAddr, exists)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
		env  map[string]string
		want string
	}{
		{name: "unknown backend", body: "[ledger]\nbackend = \"mongo\"\n", want: "ledger.backend"},
		{name: "postgres without dsn", body: "[ledger]\nbackend = \"postgres\"\n", want: "postgres_dsn"},
		{name: "remote without url", body: "[ledger]\nbackend = \"remote\"\n", want: "remote_url"},
		{name: "bad policy", env: map[string]string{"ROLLCALL_DUPLICATE_POLICY": "ignore"}, want: "duplicate_policy"},
		{name: "bad mode", body: "[scan]\nmode = \"loop\"\n", want: "scan.mode"},
		{name: "bad log format", body: "[logging]\nformat = \"xml\"\n", want: "logging.format"},
		{name: "unknown key", body: "[scan]\ncamera = \"x\"\n", want: "parse config"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			path := ""
			if tc.body != "" {
				path = writeConfig(t, tc.body)
			}
			_, _, _, err := config.Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, _, _, err := config.Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	var cfg config.Config
	if err := toml.Unmarshal([]byte(config.SampleConfig()), &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	def := config.Default()
	if cfg.Ledger.Backend != def.Ledger.Backend || cfg.Ledger.DuplicatePolicy != def.Ledger.DuplicatePolicy {
		t.Errorf("sample ledger section drifted from defaults: %+v", cfg.Ledger)
	}
	if cfg.Scan.Mode != def.Scan.Mode || cfg.Scan.BaudRate != def.Scan.BaudRate {
		t.Errorf("sample scan section drifted from defaults: %+v", cfg.Scan)
	}
	if cfg.Server.HTTPAddr != def.Server.HTTPAddr {
		t.Errorf("sample http_addr %q, default %q", cfg.Server.HTTPAddr, def.Server.HTTPAddr)
	}
}
