package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

// DevPeople is the starter directory loaded by SeedDev when no explicit list
// is given.
var DevPeople = []types.PersonIdentity{
	{ID: "dev-0001", Email: "ada.lovelace@example.edu", FirstName: "ada", LastName: "lovelace", SchoolID: "1234567890", YearLevel: "12"},
	{ID: "dev-0002", Email: "alan.turing@example.edu", FirstName: "alan", LastName: "turing", SchoolID: "2234567890", YearLevel: "11"},
	{ID: "dev-0003", Email: "grace.hopper@example.edu", FirstName: "grace", LastName: "hopper", SchoolID: "3234567890", YearLevel: "10"},
}

type SeedDevOptions struct {
	People []types.PersonIdentity
}

// SeedDev upserts a starter set of people into the directory tables. A row
// without an id stops the seed with store.ErrMissingPersonID; rows before it
// stay written.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) (int, error) {
	people := opt.People
	if len(people) == 0 {
		people = DevPeople
	}
	now := time.Now().UTC().UnixMilli()

	n := 0
	for i, p := range people {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return n, fmt.Errorf("seed person %d: %w", i, store.ErrMissingPersonID)
		}
		if _, err := db.ExecContext(ctx, `
INSERT INTO people(
  person_id, email, first_name, last_name, school_id, year_level,
  created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, ?)
ON CONFLICT(person_id) DO UPDATE SET
  email = excluded.email,
  first_name = excluded.first_name,
  last_name = excluded.last_name,
  school_id = excluded.school_id,
  year_level = excluded.year_level,
  updated_at_ms = excluded.updated_at_ms;
`, id, p.Email, p.FirstName, p.LastName, p.SchoolID, p.YearLevel, now, now); err != nil {
			return n, fmt.Errorf("seed person %s: %w", id, err)
		}
		n++
	}
	return n, nil
}
