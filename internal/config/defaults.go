package config

import (
	"os"
	"path/filepath"
)

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Env: "dev",
		Ledger: Ledger{
			Backend:         "sqlite",
			DuplicatePolicy: "reject",
			DBPath:          "./data/rollcall.db",
			RemoteFormat:    "json",

			RequestTimeoutSeconds: 10,
		},
		Scan: Scan{
			Mode:        "single",
			DeviceGlobs: []string{"/dev/ttyACM*", "/dev/ttyUSB*"},
			BaudRate:    9600,
			LockDir:     filepath.Join(os.TempDir(), "rollcall"),
		},
		Server: Server{
			HTTPAddr: ":8080",
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}
