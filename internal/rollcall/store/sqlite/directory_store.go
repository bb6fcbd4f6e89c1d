package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/BrandonDHaskell/rollcall/internal/db"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

type DirectoryStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewDirectoryStore(db *sql.DB, writer *dbpkg.Worker) *DirectoryStore {
	return &DirectoryStore{db: db, writer: writer}
}

const selectPeople = `
SELECT person_id, email, first_name, last_name,
       COALESCE(school_id, ''), COALESCE(year_level, '')
FROM people
`

func (s *DirectoryStore) FindBySchoolID(ctx context.Context, schoolID string) ([]types.PersonIdentity, error) {
	return s.query(ctx, "FindBySchoolID", selectPeople+`WHERE school_id = ?;`, strings.TrimSpace(schoolID))
}

// FindByEmail matches case-insensitively; addresses typed on phones rarely
// agree on capitalisation with the directory.
func (s *DirectoryStore) FindByEmail(ctx context.Context, email string) ([]types.PersonIdentity, error) {
	return s.query(ctx, "FindByEmail", selectPeople+`WHERE email = ? COLLATE NOCASE;`, strings.TrimSpace(email))
}

func (s *DirectoryStore) FindByID(ctx context.Context, id string) ([]types.PersonIdentity, error) {
	return s.query(ctx, "FindByID", selectPeople+`WHERE person_id = ?;`, strings.TrimSpace(id))
}

func (s *DirectoryStore) query(ctx context.Context, op, q string, arg string) ([]types.PersonIdentity, error) {
	if arg == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", op, err)
	}
	defer rows.Close()

	var out []types.PersonIdentity
	for rows.Next() {
		var p types.PersonIdentity
		if err := rows.Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.SchoolID, &p.YearLevel); err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", op, err)
	}
	return out, nil
}

// UpsertPerson inserts or refreshes one directory row.
func (s *DirectoryStore) UpsertPerson(ctx context.Context, p types.PersonIdentity) error {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return store.ErrMissingPersonID
	}
	ms := time.Now().UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
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
`, id, strings.TrimSpace(p.Email), p.FirstName, p.LastName,
			strings.TrimSpace(p.SchoolID), p.YearLevel, ms, ms); err != nil {
			return fmt.Errorf("UpsertPerson %s: %w", id, err)
		}
		return nil
	})
}
