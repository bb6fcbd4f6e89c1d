package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/payload"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/service"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store/memory"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

var ada = types.PersonIdentity{
	ID:        "p-ada",
	Email:     "ada@example.edu",
	FirstName: "Ada",
	LastName:  "Lovelace",
	SchoolID:  "1234567890",
	YearLevel: "12",
}

// countingDirectory wraps a directory and counts lookups.
type countingDirectory struct {
	*memory.DirectoryStore
	calls int
	err   error
}

func (d *countingDirectory) FindBySchoolID(ctx context.Context, v string) ([]types.PersonIdentity, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.DirectoryStore.FindBySchoolID(ctx, v)
}

func (d *countingDirectory) FindByEmail(ctx context.Context, v string) ([]types.PersonIdentity, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.DirectoryStore.FindByEmail(ctx, v)
}

func (d *countingDirectory) FindByID(ctx context.Context, v string) ([]types.PersonIdentity, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.DirectoryStore.FindByID(ctx, v)
}

func newDirectory(people ...types.PersonIdentity) *countingDirectory {
	return &countingDirectory{DirectoryStore: memory.NewDirectoryStore(people)}
}

// ── Numeric and text identifiers ─────────────────────────────────────────────

func TestResolve_NumericID_LooksUpSchoolID(t *testing.T) {
	dir := newDirectory(ada)
	r := service.NewIdentityResolver(dir, service.ResolverOptions{})

	got, err := r.Resolve(context.Background(), payload.Classify("1234567890"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != ada {
		t.Errorf("expected %+v, got %+v", ada, got)
	}
	if dir.calls != 1 {
		t.Errorf("expected exactly 1 directory lookup, got %d", dir.calls)
	}
}

func TestResolve_TextID_LooksUpEmail(t *testing.T) {
	dir := newDirectory(ada)
	r := service.NewIdentityResolver(dir, service.ResolverOptions{})

	got, err := r.Resolve(context.Background(), payload.Classify("ada@example.edu"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.ID != ada.ID {
		t.Errorf("expected %s, got %s", ada.ID, got.ID)
	}
}

func TestResolve_TextID_NoRows_IdentityNotFound(t *testing.T) {
	dir := newDirectory(ada)
	r := service.NewIdentityResolver(dir, service.ResolverOptions{})

	_, err := r.Resolve(context.Background(), payload.Classify("not-json-not-digits"))
	if !errors.Is(err, service.ErrIdentityNotFound) {
		t.Fatalf("expected IdentityNotFound, got %v", err)
	}
	if dir.calls != 1 {
		t.Errorf("expected exactly 1 directory lookup, got %d", dir.calls)
	}
}

func TestResolve_SeveralRows_DirectoryUnavailable(t *testing.T) {
	twin := ada
	twin.ID = "p-twin"
	r := service.NewIdentityResolver(newDirectory(ada, twin), service.ResolverOptions{})

	_, err := r.Resolve(context.Background(), payload.NumericID{Value: "1234567890"})
	if !errors.Is(err, service.ErrDirectoryUnavailable) {
		t.Fatalf("expected DirectoryUnavailable, got %v", err)
	}
}

func TestResolve_LookupFailure_DirectoryUnavailable(t *testing.T) {
	dir := newDirectory(ada)
	dir.err = errors.New("connection refused")
	r := service.NewIdentityResolver(dir, service.ResolverOptions{})

	_, err := r.Resolve(context.Background(), payload.TextID{Value: "ada@example.edu"})
	if !errors.Is(err, service.ErrDirectoryUnavailable) {
		t.Fatalf("expected DirectoryUnavailable, got %v", err)
	}
	if errors.Is(err, service.ErrIdentityNotFound) {
		t.Error("a service failure must stay distinct from a miss")
	}
	if !errors.Is(err, dir.err) {
		t.Error("expected the transport error to be wrapped")
	}
}

// ── Self-describing payloads ─────────────────────────────────────────────────

func TestResolve_SelfDescribing_TrustedWithoutLookup(t *testing.T) {
	dir := newDirectory()
	r := service.NewIdentityResolver(dir, service.ResolverOptions{})

	got, err := r.Resolve(context.Background(), payload.SelfDescribing{ID: "p-42", Email: "x@example.edu"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.ID != "p-42" || got.Email != "x@example.edu" {
		t.Errorf("unexpected identity %+v", got)
	}
	if dir.calls != 0 {
		t.Errorf("expected no directory round trip, got %d", dir.calls)
	}
}

func TestResolve_SelfDescribing_VerifiedAgainstDirectory(t *testing.T) {
	dir := newDirectory(ada)
	r := service.NewIdentityResolver(dir, service.ResolverOptions{VerifyEmbedded: true})

	got, err := r.Resolve(context.Background(), payload.SelfDescribing{ID: ada.ID, Email: "stale@example.edu"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Email != ada.Email {
		t.Errorf("expected directory email %q, got %q", ada.Email, got.Email)
	}
	if dir.calls != 1 {
		t.Errorf("expected 1 lookup, got %d", dir.calls)
	}
}

func TestResolve_SelfDescribing_VerifiedUnknown(t *testing.T) {
	r := service.NewIdentityResolver(newDirectory(ada), service.ResolverOptions{VerifyEmbedded: true})

	_, err := r.Resolve(context.Background(), payload.SelfDescribing{ID: "forged"})
	if !errors.Is(err, service.ErrIdentityNotFound) {
		t.Fatalf("expected IdentityNotFound, got %v", err)
	}
}

func TestResolve_SelfDescribing_EmptyID(t *testing.T) {
	r := service.NewIdentityResolver(newDirectory(), service.ResolverOptions{})

	_, err := r.Resolve(context.Background(), payload.SelfDescribing{ID: "  "})
	if !errors.Is(err, service.ErrDecodeInvalid) {
		t.Fatalf("expected DecodeInvalid, got %v", err)
	}
}

func TestResolve_Invalid(t *testing.T) {
	dir := newDirectory()
	r := service.NewIdentityResolver(dir, service.ResolverOptions{})

	_, err := r.Resolve(context.Background(), payload.Classify(""))
	if !errors.Is(err, service.ErrDecodeInvalid) {
		t.Fatalf("expected DecodeInvalid, got %v", err)
	}
	if dir.calls != 0 {
		t.Errorf("expected no lookup for an invalid payload, got %d", dir.calls)
	}
}
