package store

import (
	"context"
	"errors"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

// ErrConflict is returned by InsertFact when a fact already exists for the
// same (occasion, person) key.
var ErrConflict = errors.New("attendance fact already exists")

// LedgerStore persists attendance facts. Both writes are single atomic
// operations; neither checks for an existing row in a separate round trip.
type LedgerStore interface {
	// InsertFact stores fact or returns ErrConflict, leaving the existing row untouched.
	InsertFact(ctx context.Context, fact types.AttendanceFact) error
	// UpsertFact stores fact, replacing status and timestamp of any existing row.
	UpsertFact(ctx context.Context, fact types.AttendanceFact) error
	ListByOccasion(ctx context.Context, occasionID string) ([]types.AttendanceFact, error)
}
