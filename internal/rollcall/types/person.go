package types

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PersonIdentity is an immutable snapshot of someone who can be checked in.
// It comes either from the directory or straight out of a self-describing
// QR payload.
type PersonIdentity struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	SchoolID  string `json:"school_id,omitempty"`
	YearLevel string `json:"year_level,omitempty"`
}

var titleCaser = cases.Title(language.Und)

// DisplayName renders the name parts for the operator prompt, falling back to
// the email and then the id when no name is known.
func (p PersonIdentity) DisplayName() string {
	name := strings.TrimSpace(strings.Join([]string{
		strings.TrimSpace(p.FirstName),
		strings.TrimSpace(p.LastName),
	}, " "))
	if name != "" {
		return titleCaser.String(strings.ToLower(name))
	}
	if p.Email != "" {
		return p.Email
	}
	return p.ID
}
