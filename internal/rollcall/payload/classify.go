package payload

import (
	"encoding/json"
	"strings"
	"time"
)

// Classify maps raw decoded text to an Intent. It never fails: empty or
// unusable input yields Invalid.
//
// Order matters. Digits-only input is always a card number, even if it would
// also parse as a JSON number.
func Classify(raw string) Intent {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Invalid{Reason: "empty payload"}
	}
	if isDigits(s) {
		return NumericID{Value: s}
	}
	if strings.HasPrefix(s, "{") {
		return classifyStructured(s)
	}
	return TextID{Value: s}
}

// embedded is the JSON shape produced by Encode.
type embedded struct {
	ID        json.RawMessage `json:"id"`
	Email     string          `json:"email"`
	Timestamp string          `json:"timestamp"`
}

func classifyStructured(s string) Intent {
	var e embedded
	if err := json.Unmarshal([]byte(s), &e); err != nil {
		return Invalid{Reason: "malformed structured payload: " + err.Error()}
	}

	id := identityKey(e.ID)
	if id == "" {
		return Invalid{Reason: "structured payload has no id"}
	}

	out := SelfDescribing{
		ID:    id,
		Email: strings.TrimSpace(e.Email),
	}
	if ts := strings.TrimSpace(e.Timestamp); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			u := t.UTC()
			out.IssuedAt = &u
		}
	}
	return out
}

// identityKey accepts the id as either a JSON string or a JSON number.
func identityKey(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
