// Package auth verifies operator tokens and carries the acting party
// through request context.
package auth

import (
	"context"

	apperrors "github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/errors"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
)

// Role names what an authenticated operator is allowed to do.
type Role string

const (
	// RoleFactory registers units and dispatches units and parts.
	RoleFactory Role = "factory"
	// RoleDealer transfers and sells units it holds.
	RoleDealer Role = "dealer"
	// RoleSubDealer sells units it holds.
	RoleSubDealer Role = "subdealer"
	// RoleServiceCenter opens visits and replaces parts from its own stock.
	RoleServiceCenter Role = "service_center"
	// RoleAdmin can read everything and perform any operation.
	RoleAdmin Role = "admin"
)

// Actor is an authenticated operator. Party is the holder the actor acts
// for; admins have no party.
type Actor struct {
	ID    string
	Role  Role
	Party domain.HolderRef
}

// ActsFor reports whether the actor operates on behalf of the given party.
// Admins act for every party.
func (a Actor) ActsFor(party domain.HolderRef) bool {
	if a.Role == RoleAdmin {
		return true
	}
	return a.Party.Equal(party)
}

type contextKey struct{}

// ContextWithActor returns a context carrying the actor.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// ActorFromContext extracts the actor placed by the auth middleware.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(contextKey{}).(Actor)
	return actor, ok
}

// RequireActor extracts the actor or fails with a missing-credentials error.
func RequireActor(ctx context.Context) (Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.ID == "" {
		return Actor{}, apperrors.New(apperrors.CodeActorMissing, "request has no authenticated actor")
	}
	return actor, nil
}
