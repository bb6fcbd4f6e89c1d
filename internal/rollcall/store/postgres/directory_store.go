package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

type DirectoryStore struct {
	pool *pgxpool.Pool
}

func NewDirectoryStore(pool *pgxpool.Pool) *DirectoryStore {
	return &DirectoryStore{pool: pool}
}

const selectPeople = `
	SELECT person_id, email, first_name, last_name,
	       COALESCE(school_id, ''), COALESCE(year_level, '')
	FROM people `

func (s *DirectoryStore) FindBySchoolID(ctx context.Context, schoolID string) ([]types.PersonIdentity, error) {
	return s.query(ctx, "FindBySchoolID", selectPeople+`WHERE school_id = $1`, strings.TrimSpace(schoolID))
}

func (s *DirectoryStore) FindByEmail(ctx context.Context, email string) ([]types.PersonIdentity, error) {
	return s.query(ctx, "FindByEmail", selectPeople+`WHERE lower(email) = lower($1)`, strings.TrimSpace(email))
}

func (s *DirectoryStore) FindByID(ctx context.Context, id string) ([]types.PersonIdentity, error) {
	return s.query(ctx, "FindByID", selectPeople+`WHERE person_id = $1`, strings.TrimSpace(id))
}

func (s *DirectoryStore) query(ctx context.Context, op, q, arg string) ([]types.PersonIdentity, error) {
	if arg == "" {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, q, arg)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", op, err)
	}
	people, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.PersonIdentity, error) {
		var p types.PersonIdentity
		err := row.Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.SchoolID, &p.YearLevel)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("%s scan: %w", op, err)
	}
	return people, nil
}

func (s *DirectoryStore) UpsertPerson(ctx context.Context, p types.PersonIdentity) error {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return store.ErrMissingPersonID
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO people (person_id, email, first_name, last_name, school_id, year_level)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
		ON CONFLICT (person_id) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			school_id = EXCLUDED.school_id,
			year_level = EXCLUDED.year_level,
			updated_at = now()
	`, id, strings.TrimSpace(p.Email), p.FirstName, p.LastName, strings.TrimSpace(p.SchoolID), p.YearLevel)
	if err != nil {
		return fmt.Errorf("upsert person %s: %w", id, err)
	}
	return nil
}
