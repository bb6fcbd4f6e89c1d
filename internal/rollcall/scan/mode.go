package scan

import (
	"fmt"
	"strings"
)

// Mode decides what a session does after a successful record.
type Mode string

const (
	// ModeSingle closes the session after the first recorded check-in.
	ModeSingle Mode = "single"
	// ModeBatch goes back to scanning for the next person.
	ModeBatch Mode = "batch"
)

// ParseMode reads a mode name, ignoring case and surrounding space. An empty
// string means single.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeSingle, nil
	case ModeSingle, ModeBatch:
		return m, nil
	default:
		return "", fmt.Errorf("scan mode %q: must be single or batch", s)
	}
}
