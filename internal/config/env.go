package config

import (
	"os"
	"strconv"
	"strings"
)

// applyEnv overrides file values with ROLLCALL_* variables that are set.
func (c *Config) applyEnv() {
	c.Env = strings.ToLower(getenvDefault("ROLLCALL_ENV", c.Env))

	c.Ledger.Backend = getenvDefault("ROLLCALL_LEDGER_BACKEND", c.Ledger.Backend)
	c.Ledger.DuplicatePolicy = getenvDefault("ROLLCALL_DUPLICATE_POLICY", c.Ledger.DuplicatePolicy)
	c.Ledger.DBPath = getenvDefault("ROLLCALL_DB_PATH", c.Ledger.DBPath)
	c.Ledger.PostgresDSN = getenvDefault("ROLLCALL_POSTGRES_DSN", c.Ledger.PostgresDSN)
	c.Ledger.RemoteURL = getenvDefault("ROLLCALL_REMOTE_URL", c.Ledger.RemoteURL)
	c.Ledger.RemoteFormat = getenvDefault("ROLLCALL_REMOTE_FORMAT", c.Ledger.RemoteFormat)
	c.Ledger.RequestTimeoutSeconds = getenvInt("ROLLCALL_REQUEST_TIMEOUT_SECONDS", c.Ledger.RequestTimeoutSeconds)

	c.Scan.Mode = getenvDefault("ROLLCALL_SCAN_MODE", c.Scan.Mode)
	c.Scan.Device = getenvDefault("ROLLCALL_SCAN_DEVICE", c.Scan.Device)
	if globs := splitCSV(os.Getenv("ROLLCALL_DEVICE_GLOBS")); len(globs) > 0 {
		c.Scan.DeviceGlobs = globs
	}
	c.Scan.BaudRate = getenvInt("ROLLCALL_SCAN_BAUD_RATE", c.Scan.BaudRate)
	c.Scan.LockDir = getenvDefault("ROLLCALL_LOCK_DIR", c.Scan.LockDir)
	c.Scan.VerifyEmbedded = getenvBool("ROLLCALL_VERIFY_EMBEDDED", c.Scan.VerifyEmbedded)

	c.Server.HTTPAddr = getenvDefault("ROLLCALL_HTTP_ADDR", c.Server.HTTPAddr)

	c.Logging.Level = getenvDefault("ROLLCALL_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getenvDefault("ROLLCALL_LOG_FORMAT", c.Logging.Format)
	c.Logging.File = getenvDefault("ROLLCALL_LOG_FILE", c.Logging.File)
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return strings.EqualFold(v, "true") || v == "1"
}

func splitCSV(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
