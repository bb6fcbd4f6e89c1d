package payload

import "time"

// Intent is the classified meaning of a scanned payload. The concrete types
// are SelfDescribing, NumericID, TextID and Invalid.
type Intent interface {
	isIntent()
	// Kind returns a short stable name for logs.
	Kind() string
}

// SelfDescribing carries an identity embedded in the code itself, as issued
// by Encode.
type SelfDescribing struct {
	ID       string
	Email    string
	IssuedAt *time.Time
}

// NumericID is a digits-only payload, read as a school identifier printed on
// a physical card.
type NumericID struct {
	Value string
}

// TextID is any other non-empty text, normally an email address.
type TextID struct {
	Value string
}

// Invalid is a payload that cannot name anybody.
type Invalid struct {
	Reason string
}

func (SelfDescribing) isIntent() {}
func (NumericID) isIntent()      {}
func (TextID) isIntent()         {}
func (Invalid) isIntent()        {}

func (SelfDescribing) Kind() string { return "self_describing" }
func (NumericID) Kind() string      { return "numeric_id" }
func (TextID) Kind() string         { return "text_id" }
func (Invalid) Kind() string        { return "invalid" }
