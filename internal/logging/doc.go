// Package logging builds the slog loggers used across rollcall.
//
// It owns the console and JSON handlers and the standard attribute keys, so
// scan sessions, the ledger service and the CLI all emit the same shape.
// NewNop is for tests and wiring that cannot fail.
package logging
