package payload

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

var ErrMissingID = errors.New("person id is required")

// Encode produces the self-describing payload printed on a person's QR code.
// Classify reads it back as SelfDescribing.
func Encode(p types.PersonIdentity, issuedAt time.Time) (string, error) {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return "", ErrMissingID
	}
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}
	b, err := json.Marshal(struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		Timestamp string `json:"timestamp"`
	}{
		ID:        id,
		Email:     strings.TrimSpace(p.Email),
		Timestamp: issuedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
