package logging

import "log/slog"

// Standard structured logging keys.
const (
	FieldComponent  = "component"
	FieldSessionID  = "session_id"
	FieldOccasionID = "occasion_id"
	FieldPersonID   = "person_id"
	FieldDevice     = "device"
	FieldState      = "state"
	FieldKind       = "kind"
	FieldIntent     = "intent"
	FieldPolicy     = "policy"
)

// Error returns an attribute carrying err under the "error" key.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}
