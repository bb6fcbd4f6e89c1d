package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

func (c *Client) InsertFact(ctx context.Context, fact types.AttendanceFact) error {
	status, err := c.writeFact(ctx, fact, types.PolicyReject)
	if status == http.StatusConflict {
		return store.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("InsertFact: %w", err)
	}
	return nil
}

func (c *Client) UpsertFact(ctx context.Context, fact types.AttendanceFact) error {
	if _, err := c.writeFact(ctx, fact, types.PolicyOverwrite); err != nil {
		return fmt.Errorf("UpsertFact: %w", err)
	}
	return nil
}

func (c *Client) writeFact(ctx context.Context, fact types.AttendanceFact, policy types.DuplicatePolicy) (int, error) {
	req := types.AttendanceRequest{
		OccasionID: fact.OccasionID,
		PersonID:   fact.PersonID,
		Status:     string(fact.Status),
	}
	if !fact.RecordedAt.IsZero() {
		req.RecordedAt = fact.RecordedAt.UTC().Format(time.RFC3339Nano)
	}

	var ar types.AttendanceResponse
	status, err := c.do(ctx, http.MethodPost, "/v1/attendance", url.Values{"policy": {string(policy)}}, req, &ar)
	if err != nil {
		return status, err
	}
	if !ar.OK {
		return status, errors.New("ledger service did not acknowledge the write")
	}
	return status, nil
}

func (c *Client) ListByOccasion(ctx context.Context, occasionID string) ([]types.AttendanceFact, error) {
	var lr types.AttendanceListResponse
	path := "/v1/occasions/" + occasionID + "/attendance"
	if _, err := c.do(ctx, http.MethodGet, path, nil, nil, &lr); err != nil {
		return nil, fmt.Errorf("ListByOccasion %s: %w", occasionID, err)
	}
	return lr.Facts, nil
}
