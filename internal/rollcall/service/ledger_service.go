package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

var (
	ErrInvalidLookup     = errors.New("exactly one of school_id, email or id is required")
	ErrInvalidStatus     = errors.New("status must be present, late, absent or excused")
	ErrInvalidRecordedAt = errors.New("recorded_at must be RFC3339")
	ErrInvalidPolicy     = errors.New("policy must be reject or overwrite")
)

// PeopleQuery selects directory rows by exactly one key.
type PeopleQuery struct {
	SchoolID string
	Email    string
	ID       string
}

// LedgerService is the server side of the directory and ledger contract. It
// backs the HTTP API that remote check-in stations talk to.
type LedgerService struct {
	directory store.DirectoryStore
	ledger    store.LedgerStore
	policy    types.DuplicatePolicy
	now       func() time.Time
}

// NewLedgerService builds the service. policy applies to writes that do not
// name one.
func NewLedgerService(dir store.DirectoryStore, ledger store.LedgerStore, policy types.DuplicatePolicy, now func() time.Time) *LedgerService {
	if !policy.Valid() {
		policy = types.PolicyReject
	}
	if now == nil {
		now = time.Now
	}
	return &LedgerService{directory: dir, ledger: ledger, policy: policy, now: now}
}

func (s *LedgerService) Now() time.Time { return s.now().UTC() }

// FindPeople returns zero or more people matching q.
func (s *LedgerService) FindPeople(ctx context.Context, q PeopleQuery) ([]types.PersonIdentity, error) {
	keys := 0
	for _, v := range []string{q.SchoolID, q.Email, q.ID} {
		if strings.TrimSpace(v) != "" {
			keys++
		}
	}
	if keys != 1 {
		return nil, ErrInvalidLookup
	}

	var (
		people []types.PersonIdentity
		err    error
	)
	switch {
	case q.SchoolID != "":
		people, err = s.directory.FindBySchoolID(ctx, strings.TrimSpace(q.SchoolID))
	case q.Email != "":
		people, err = s.directory.FindByEmail(ctx, strings.TrimSpace(q.Email))
	default:
		people, err = s.directory.FindByID(ctx, strings.TrimSpace(q.ID))
	}
	if err != nil {
		return nil, fmt.Errorf("FindPeople: %w", err)
	}
	if people == nil {
		people = []types.PersonIdentity{}
	}
	return people, nil
}

// Write stores one attendance fact under policy (the service default when
// empty). A reject-policy conflict returns an error matching store.ErrConflict.
func (s *LedgerService) Write(ctx context.Context, req types.AttendanceRequest, policy types.DuplicatePolicy) (types.AttendanceFact, error) {
	if policy == "" {
		policy = s.policy
	}
	if !policy.Valid() {
		return types.AttendanceFact{}, ErrInvalidPolicy
	}

	fact, err := s.factFromRequest(req)
	if err != nil {
		return types.AttendanceFact{}, err
	}

	switch policy {
	case types.PolicyOverwrite:
		err = s.ledger.UpsertFact(ctx, fact)
	default:
		err = s.ledger.InsertFact(ctx, fact)
	}
	if err != nil {
		return types.AttendanceFact{}, fmt.Errorf("Write %s/%s: %w", fact.OccasionID, fact.PersonID, err)
	}
	return fact, nil
}

// List returns the facts recorded for an occasion, oldest first.
func (s *LedgerService) List(ctx context.Context, occasionID string) ([]types.AttendanceFact, error) {
	occasionID = strings.TrimSpace(occasionID)
	if occasionID == "" {
		return nil, ErrInvalidOccasionID
	}
	facts, err := s.ledger.ListByOccasion(ctx, occasionID)
	if err != nil {
		return nil, fmt.Errorf("List %s: %w", occasionID, err)
	}
	if facts == nil {
		facts = []types.AttendanceFact{}
	}
	return facts, nil
}

func (s *LedgerService) factFromRequest(req types.AttendanceRequest) (types.AttendanceFact, error) {
	fact := types.AttendanceFact{
		OccasionID: strings.TrimSpace(req.OccasionID),
		PersonID:   strings.TrimSpace(req.PersonID),
		Status:     types.AttendanceStatus(strings.ToLower(strings.TrimSpace(req.Status))),
	}
	if fact.OccasionID == "" {
		return fact, ErrInvalidOccasionID
	}
	if fact.PersonID == "" {
		return fact, ErrInvalidPersonID
	}
	if fact.Status == "" {
		fact.Status = types.StatusPresent
	}
	if !fact.Status.Valid() {
		return fact, ErrInvalidStatus
	}

	if ts := strings.TrimSpace(req.RecordedAt); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return fact, ErrInvalidRecordedAt
		}
		fact.RecordedAt = t.UTC()
	} else {
		fact.RecordedAt = s.Now()
	}
	return fact, nil
}
