// Package config loads rollcall configuration.
//
// Values come from built-in defaults, then an optional TOML file, then
// ROLLCALL_* environment variables, and are validated last. Each layer only
// overrides the keys it sets.
package config
