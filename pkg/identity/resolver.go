package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	idmerrors "github.com/tendant/device-idm/pkg/errors"
	"github.com/tendant/device-idm/pkg/session"
)

const (
	MsgNoUsername   = "could not get a valid username from the context"
	MsgUserNotFound = "user does not exist or inactive"
)

// Resolver finds the active user an authentication attempt belongs to.
type Resolver struct {
	repo Repository
}

// NewResolver creates a resolver over repo.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the active user named by the attempt's username.
func (r *Resolver) Resolve(ctx context.Context, state session.State) (User, error) {
	username, _ := state.GetString(session.UsernameKey)
	return r.ResolveUsername(ctx, username)
}

// ResolveUsername returns the active user with the given username.
func (r *Resolver) ResolveUsername(ctx context.Context, username string) (User, error) {
	if strings.TrimSpace(username) == "" {
		return User{}, idmerrors.New(idmerrors.ErrCodeIdentityResolution, MsgNoUsername)
	}

	user, err := r.repo.FindUserByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		slog.Debug("User not found during resolution", "username", username)
		return User{}, idmerrors.New(idmerrors.ErrCodeIdentityResolution, MsgUserNotFound)
	}
	if err != nil {
		slog.Error("Failed to look up user", "username", username, "error", err)
		return User{}, idmerrors.Wrap(err, idmerrors.ErrCodeInternal, "failed to look up user")
	}
	if !user.Active {
		slog.Debug("User inactive during resolution", "username", username)
		return User{}, idmerrors.New(idmerrors.ErrCodeIdentityResolution, MsgUserNotFound)
	}
	return user, nil
}
