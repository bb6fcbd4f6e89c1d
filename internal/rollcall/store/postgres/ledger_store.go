package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

// uniqueViolation is the SQLSTATE for a duplicate primary key.
const uniqueViolation = "23505"

type LedgerStore struct {
	pool *pgxpool.Pool
}

func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// InsertFact relies on ON CONFLICT DO NOTHING; a zero row count means the
// key already existed. A raw 23505 (e.g. from a trigger-based schema) is
// mapped the same way.
func (s *LedgerStore) InsertFact(ctx context.Context, fact types.AttendanceFact) error {
	fact = normalizeFact(fact)
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO attendance_facts (occasion_id, person_id, status, recorded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (occasion_id, person_id) DO NOTHING
	`, fact.OccasionID, fact.PersonID, string(fact.Status), fact.RecordedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("insert attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrConflict
	}
	return nil
}

func (s *LedgerStore) UpsertFact(ctx context.Context, fact types.AttendanceFact) error {
	fact = normalizeFact(fact)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO attendance_facts (occasion_id, person_id, status, recorded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (occasion_id, person_id) DO UPDATE SET
			status = EXCLUDED.status,
			recorded_at = EXCLUDED.recorded_at
	`, fact.OccasionID, fact.PersonID, string(fact.Status), fact.RecordedAt)
	if err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

func (s *LedgerStore) ListByOccasion(ctx context.Context, occasionID string) ([]types.AttendanceFact, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT occasion_id, person_id, status, recorded_at
		FROM attendance_facts
		WHERE occasion_id = $1
		ORDER BY recorded_at, person_id
	`, occasionID)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	facts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.AttendanceFact, error) {
		var (
			f      types.AttendanceFact
			status string
		)
		err := row.Scan(&f.OccasionID, &f.PersonID, &status, &f.RecordedAt)
		f.Status = types.AttendanceStatus(status)
		f.RecordedAt = f.RecordedAt.UTC()
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan attendance: %w", err)
	}
	return facts, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func normalizeFact(f types.AttendanceFact) types.AttendanceFact {
	if f.RecordedAt.IsZero() {
		f.RecordedAt = time.Now()
	}
	f.RecordedAt = f.RecordedAt.UTC()
	if f.Status == "" {
		f.Status = types.StatusPresent
	}
	return f
}
