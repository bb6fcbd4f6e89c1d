package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store/memory"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

func TestDirectoryStore_UpsertPerson_BlankIDRejected(t *testing.T) {
	ds := memory.NewDirectoryStore(nil)
	ctx := context.Background()

	err := ds.UpsertPerson(ctx, types.PersonIdentity{ID: " ", Email: "ghost@example.edu"})
	if !errors.Is(err, store.ErrMissingPersonID) {
		t.Fatalf("expected ErrMissingPersonID, got %v", err)
	}

	got, err := ds.FindByEmail(ctx, "ghost@example.edu")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected nothing stored, got %+v", got)
	}
}

func TestDirectoryStore_UpsertPerson_TrimsAndRefreshes(t *testing.T) {
	ds := memory.NewDirectoryStore([]types.PersonIdentity{
		{ID: "p-1", Email: "old@example.edu"},
		{ID: "", Email: "skipped@example.edu"},
	})
	ctx := context.Background()

	if err := ds.UpsertPerson(ctx, types.PersonIdentity{ID: " p-1 ", Email: "new@example.edu"}); err != nil {
		t.Fatalf("UpsertPerson: %v", err)
	}

	got, err := ds.FindByID(ctx, "p-1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(got) != 1 || got[0].Email != "new@example.edu" {
		t.Fatalf("expected one refreshed row, got %+v", got)
	}
	if got, _ := ds.FindByEmail(ctx, "skipped@example.edu"); len(got) != 0 {
		t.Errorf("expected row without id to be skipped, got %+v", got)
	}
}
