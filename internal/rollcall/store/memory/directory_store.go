package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

// DirectoryStore is an in-memory people directory for tests and dev runs.
type DirectoryStore struct {
	mu     sync.RWMutex
	people []types.PersonIdentity
}

// NewDirectoryStore loads people, skipping any row without an id.
func NewDirectoryStore(people []types.PersonIdentity) *DirectoryStore {
	s := &DirectoryStore{}
	for _, p := range people {
		_ = s.UpsertPerson(context.Background(), p)
	}
	return s
}

func (s *DirectoryStore) UpsertPerson(_ context.Context, p types.PersonIdentity) error {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return store.ErrMissingPersonID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.people {
		if s.people[i].ID == p.ID {
			s.people[i] = p
			return nil
		}
	}
	s.people = append(s.people, p)
	return nil
}

func (s *DirectoryStore) FindBySchoolID(_ context.Context, schoolID string) ([]types.PersonIdentity, error) {
	return s.find(func(p types.PersonIdentity) bool { return p.SchoolID == schoolID }), nil
}

func (s *DirectoryStore) FindByEmail(_ context.Context, email string) ([]types.PersonIdentity, error) {
	return s.find(func(p types.PersonIdentity) bool { return strings.EqualFold(p.Email, email) }), nil
}

func (s *DirectoryStore) FindByID(_ context.Context, id string) ([]types.PersonIdentity, error) {
	return s.find(func(p types.PersonIdentity) bool { return p.ID == id }), nil
}

func (s *DirectoryStore) find(match func(types.PersonIdentity) bool) []types.PersonIdentity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.PersonIdentity
	for _, p := range s.people {
		if match(p) {
			out = append(out, p)
		}
	}
	return out
}
