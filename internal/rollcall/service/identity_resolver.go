package service

import (
	"context"
	"strings"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/payload"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

type ResolverOptions struct {
	// VerifyEmbedded makes self-describing payloads go through a directory
	// lookup by id instead of being trusted as printed.
	VerifyEmbedded bool
}

// IdentityResolver turns a classified payload into a person. It reads from
// the directory at most once per call and never writes.
type IdentityResolver struct {
	directory store.DirectoryStore
	opts      ResolverOptions
}

func NewIdentityResolver(dir store.DirectoryStore, opts ResolverOptions) *IdentityResolver {
	return &IdentityResolver{directory: dir, opts: opts}
}

func (r *IdentityResolver) Resolve(ctx context.Context, intent payload.Intent) (types.PersonIdentity, error) {
	switch in := intent.(type) {
	case payload.SelfDescribing:
		return r.resolveEmbedded(ctx, in)
	case payload.NumericID:
		return r.lookup(ctx, "school id", in.Value, r.directory.FindBySchoolID)
	case payload.TextID:
		return r.lookup(ctx, "email", in.Value, r.directory.FindByEmail)
	case payload.Invalid:
		return types.PersonIdentity{}, newError(KindDecodeInvalid, nil, "unreadable code: %s", in.Reason)
	default:
		return types.PersonIdentity{}, newError(KindDecodeInvalid, nil, "unsupported payload kind %T", intent)
	}
}

func (r *IdentityResolver) resolveEmbedded(ctx context.Context, in payload.SelfDescribing) (types.PersonIdentity, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return types.PersonIdentity{}, newError(KindDecodeInvalid, nil, "code carries no identity")
	}
	if r.opts.VerifyEmbedded {
		return r.lookup(ctx, "id", id, r.directory.FindByID)
	}
	return types.PersonIdentity{ID: id, Email: in.Email}, nil
}

type finder func(ctx context.Context, key string) ([]types.PersonIdentity, error)

func (r *IdentityResolver) lookup(ctx context.Context, field, key string, find finder) (types.PersonIdentity, error) {
	people, err := find(ctx, key)
	if err != nil {
		return types.PersonIdentity{}, newError(KindDirectoryUnavailable, err, "directory lookup by %s failed", field)
	}
	switch len(people) {
	case 0:
		return types.PersonIdentity{}, newError(KindIdentityNotFound, nil, "no person with %s %q", field, key)
	case 1:
		return people[0], nil
	default:
		// Keys are meant to be unique; several rows is a directory fault, not
		// something the operator can pick between.
		return types.PersonIdentity{}, newError(KindDirectoryUnavailable, nil,
			"directory returned %d people for %s %q", len(people), field, key)
	}
}
