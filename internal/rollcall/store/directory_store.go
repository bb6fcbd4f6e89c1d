package store

import (
	"context"
	"errors"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

// DirectoryStore is a keyed, read-only view of the people directory. Each
// lookup returns every matching row; callers decide what zero or several
// matches mean.
type DirectoryStore interface {
	FindBySchoolID(ctx context.Context, schoolID string) ([]types.PersonIdentity, error)
	FindByEmail(ctx context.Context, email string) ([]types.PersonIdentity, error)
	FindByID(ctx context.Context, id string) ([]types.PersonIdentity, error)
}

// ErrMissingPersonID is returned by UpsertPerson for a row whose id is blank.
var ErrMissingPersonID = errors.New("person id is required")

// PersonWriter adds or refreshes directory rows. Only the dev seeder and the
// tests use it; the check-in engine never writes to the directory.
type PersonWriter interface {
	UpsertPerson(ctx context.Context, p types.PersonIdentity) error
}
