package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

func (c *Client) FindBySchoolID(ctx context.Context, schoolID string) ([]types.PersonIdentity, error) {
	return c.findPeople(ctx, "school_id", schoolID)
}

func (c *Client) FindByEmail(ctx context.Context, email string) ([]types.PersonIdentity, error) {
	return c.findPeople(ctx, "email", email)
}

func (c *Client) FindByID(ctx context.Context, id string) ([]types.PersonIdentity, error) {
	return c.findPeople(ctx, "id", id)
}

func (c *Client) findPeople(ctx context.Context, key, value string) ([]types.PersonIdentity, error) {
	var pr types.PeopleResponse
	if _, err := c.do(ctx, http.MethodGet, "/v1/people", url.Values{key: {value}}, nil, &pr); err != nil {
		return nil, fmt.Errorf("FindPeople %s: %w", key, err)
	}
	return pr.People, nil
}
