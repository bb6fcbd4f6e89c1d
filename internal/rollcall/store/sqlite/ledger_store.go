package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/BrandonDHaskell/rollcall/internal/db"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

type LedgerStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewLedgerStore(db *sql.DB, writer *dbpkg.Worker) *LedgerStore {
	return &LedgerStore{db: db, writer: writer}
}

// InsertFact writes fact with ON CONFLICT DO NOTHING; zero affected rows
// means the key already existed and is reported as store.ErrConflict. The
// existence check and the write are one statement.
func (s *LedgerStore) InsertFact(ctx context.Context, fact types.AttendanceFact) error {
	fact = normalizeFact(fact)

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO attendance_facts(occasion_id, person_id, status, recorded_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT(occasion_id, person_id) DO NOTHING;
`, fact.OccasionID, fact.PersonID, string(fact.Status), fact.RecordedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("InsertFact insert: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("InsertFact rows affected: %w", err)
		}
		if n == 0 {
			return store.ErrConflict
		}
		return nil
	})
}

func (s *LedgerStore) UpsertFact(ctx context.Context, fact types.AttendanceFact) error {
	fact = normalizeFact(fact)

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO attendance_facts(occasion_id, person_id, status, recorded_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT(occasion_id, person_id) DO UPDATE SET
  status = excluded.status,
  recorded_at_ms = excluded.recorded_at_ms;
`, fact.OccasionID, fact.PersonID, string(fact.Status), fact.RecordedAt.UnixMilli()); err != nil {
			return fmt.Errorf("UpsertFact: %w", err)
		}
		return nil
	})
}

func (s *LedgerStore) ListByOccasion(ctx context.Context, occasionID string) ([]types.AttendanceFact, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT occasion_id, person_id, status, recorded_at_ms
FROM attendance_facts
WHERE occasion_id = ?
ORDER BY recorded_at_ms, person_id;
`, occasionID)
	if err != nil {
		return nil, fmt.Errorf("ListByOccasion query: %w", err)
	}
	defer rows.Close()

	var out []types.AttendanceFact
	for rows.Next() {
		var (
			f      types.AttendanceFact
			status string
			ms     int64
		)
		if err := rows.Scan(&f.OccasionID, &f.PersonID, &status, &ms); err != nil {
			return nil, fmt.Errorf("ListByOccasion scan: %w", err)
		}
		f.Status = types.AttendanceStatus(status)
		f.RecordedAt = time.UnixMilli(ms).UTC()
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByOccasion rows: %w", err)
	}
	return out, nil
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
