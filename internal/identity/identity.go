// Package identity resolves the user behind the current session and manages
// the session lifecycle (login, registration, logout).
package identity

import (
	"context"
	"strings"

	"taskboard/internal/service"
	"taskboard/internal/session"
)

// Users is the subset of service.Service needed to resolve an identity.
type Users interface {
	DecodeToken(ctx context.Context, token string) (int, error)
	GetUser(ctx context.Context, id int) (service.User, error)
}

// Resolver derives the current identity from the session token.
// Nothing is cached: the session may change between calls.
type Resolver struct {
	session *session.Store
	users   Users
}

// NewResolver creates a Resolver.
func NewResolver(sess *session.Store, users Users) *Resolver {
	return &Resolver{session: sess, users: users}
}

// Resolve returns the fully resolved identity of the session holder.
// Fails with service.NoSession, without any remote call, when no token is held.
func (r *Resolver) Resolve(ctx context.Context) (service.Identity, error) {
	token, ok := r.session.Token()
	if !ok {
		return service.Identity{}, service.Fail(service.NoSession, "not logged in (run: taskboard login)")
	}

	id, err := r.users.DecodeToken(ctx, token)
	if err != nil {
		return service.Identity{}, err
	}

	user, err := r.users.GetUser(ctx, id)
	if err != nil {
		return service.Identity{}, err
	}
	if strings.TrimSpace(user.Name) == "" {
		return service.Identity{}, service.Fail(service.RemoteRejected, "user %d has no name", id)
	}
	return service.Identity{ID: id, Name: user.Name}, nil
}
