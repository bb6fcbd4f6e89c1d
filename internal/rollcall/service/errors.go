package service

import (
	"errors"
	"fmt"
)

// Kind classifies a check-in failure so the host UI can render it and the
// session can decide whether to keep scanning.
type Kind string

const (
	KindCameraUnavailable    Kind = "camera_unavailable"
	KindDecodeInvalid        Kind = "decode_invalid"
	KindIdentityNotFound     Kind = "identity_not_found"
	KindDirectoryUnavailable Kind = "directory_unavailable"
	KindDuplicateAttendance  Kind = "duplicate_attendance"
	KindPersistenceFailure   Kind = "persistence_failure"
	KindCancelled            Kind = "cancelled"
)

// Fatal reports whether an error of this kind ends the scan session.
func (k Kind) Fatal() bool {
	return k == KindCameraUnavailable || k == KindCancelled
}

var (
	ErrInvalidOccasionID = errors.New("occasion_id is required")
	ErrInvalidPersonID   = errors.New("person_id is required")
)

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrCameraUnavailable    = &Error{Kind: KindCameraUnavailable}
	ErrDecodeInvalid        = &Error{Kind: KindDecodeInvalid}
	ErrIdentityNotFound     = &Error{Kind: KindIdentityNotFound}
	ErrDirectoryUnavailable = &Error{Kind: KindDirectoryUnavailable}
	ErrDuplicateAttendance  = &Error{Kind: KindDuplicateAttendance}
	ErrPersistenceFailure   = &Error{Kind: KindPersistenceFailure}
	ErrCancelled            = &Error{Kind: KindCancelled}
)

// Error is a classified check-in failure. Message is operator-facing; Err is
// the underlying cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// NewError builds a classified error for packages that sit above service.
func NewError(kind Kind, err error, format string, args ...any) *Error {
	return newError(kind, err, format, args...)
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind, so callers can write
// errors.Is(err, service.ErrIdentityNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// ErrorKind exposes the kind as a plain string for classifiers that do not
// import this package.
func (e *Error) ErrorKind() string { return string(e.Kind) }

// KindOf extracts the Kind from err, if err carries one.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
