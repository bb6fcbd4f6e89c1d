package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

type RecorderOptions struct {
	// Policy defaults to types.PolicyReject.
	Policy types.DuplicatePolicy
	// Now defaults to time.Now.
	Now func() time.Time
}

// AttendanceRecorder writes presence facts to the ledger. Each Record call is
// exactly one ledger write; there is no read-before-write, so two stations
// scanning the same person race only inside the ledger's key constraint.
type AttendanceRecorder struct {
	ledger store.LedgerStore
	policy types.DuplicatePolicy
	now    func() time.Time
}

func NewAttendanceRecorder(ledger store.LedgerStore, opts RecorderOptions) *AttendanceRecorder {
	policy := opts.Policy
	if !policy.Valid() {
		policy = types.PolicyReject
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &AttendanceRecorder{ledger: ledger, policy: policy, now: now}
}

func (r *AttendanceRecorder) Policy() types.DuplicatePolicy { return r.policy }

// Record marks personID present at occasionID. Failures come back as
// *Error of kind DuplicateAttendance (reject policy only) or
// PersistenceFailure. Nothing is retried here.
func (r *AttendanceRecorder) Record(ctx context.Context, occasionID, personID string) (types.AttendanceFact, error) {
	occasionID = strings.TrimSpace(occasionID)
	personID = strings.TrimSpace(personID)
	if occasionID == "" {
		return types.AttendanceFact{}, ErrInvalidOccasionID
	}
	if personID == "" {
		return types.AttendanceFact{}, ErrInvalidPersonID
	}

	fact := types.AttendanceFact{
		OccasionID: occasionID,
		PersonID:   personID,
		Status:     types.StatusPresent,
		RecordedAt: r.now().UTC(),
	}

	var err error
	switch r.policy {
	case types.PolicyOverwrite:
		err = r.ledger.UpsertFact(ctx, fact)
	default:
		err = r.ledger.InsertFact(ctx, fact)
	}

	switch {
	case err == nil:
		return fact, nil
	case errors.Is(err, store.ErrConflict):
		return types.AttendanceFact{}, newError(KindDuplicateAttendance, nil,
			"%s is already checked in to %s", personID, occasionID)
	default:
		return types.AttendanceFact{}, newError(KindPersistenceFailure, err, "could not record attendance")
	}
}
