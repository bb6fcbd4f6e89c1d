package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

type factKey struct {
	occasionID string
	personID   string
}

// LedgerStore is an in-memory attendance ledger. The map key enforces the
// same (occasion, person) uniqueness as the SQL schemas.
type LedgerStore struct {
	mu    sync.Mutex
	facts map[factKey]types.AttendanceFact
	// writes counts every InsertFact/UpsertFact call, successful or not.
	writes int
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{facts: make(map[factKey]types.AttendanceFact)}
}

func (s *LedgerStore) InsertFact(_ context.Context, fact types.AttendanceFact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	k := factKey{fact.OccasionID, fact.PersonID}
	if _, ok := s.facts[k]; ok {
		return store.ErrConflict
	}
	s.facts[k] = fact
	return nil
}

func (s *LedgerStore) UpsertFact(_ context.Context, fact types.AttendanceFact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	s.facts[factKey{fact.OccasionID, fact.PersonID}] = fact
	return nil
}

func (s *LedgerStore) ListByOccasion(_ context.Context, occasionID string) ([]types.AttendanceFact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.AttendanceFact
	for k, f := range s.facts {
		if k.occasionID == occasionID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}

// Facts returns a copy of all stored facts.  Test-only helper.
func (s *LedgerStore) Facts() []types.AttendanceFact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.AttendanceFact, 0, len(s.facts))
	for _, f := range s.facts {
		out = append(out, f)
	}
	return out
}

// Writes reports how many write calls reached the store.  Test-only helper.
func (s *LedgerStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
