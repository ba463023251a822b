package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/device-idm/pkg/identity"
)

// UserInfo describes one bootstrapped identity
type UserInfo struct {
	ID       uuid.UUID
	Username string
	Created  bool // true if created, false if it already existed
}

// UsersResult contains the result of the user bootstrap
type UsersResult struct {
	Users []UserInfo
}

// CreatedCount counts how many users were newly created
func (r *UsersResult) CreatedCount() int {
	count := 0
	for _, u := range r.Users {
		if u.Created {
			count++
		}
	}
	return count
}

// EnsureUsers makes sure an active identity exists for every username so
// devices can be registered against it. Blank and repeated names are skipped.
func EnsureUsers(ctx context.Context, repo identity.Repository, usernames []string) (*UsersResult, error) {
	if repo == nil {
		return nil, fmt.Errorf("identity repository is required")
	}

	result := &UsersResult{}
	seen := make(map[string]bool, len(usernames))

	for _, raw := range usernames {
		username := strings.TrimSpace(raw)
		if username == "" || seen[username] {
			continue
		}
		seen[username] = true

		existing, err := repo.FindUserByUsername(ctx, username)
		if err == nil {
			slog.Info("User already exists", "username", username, "id", existing.ID)
			result.Users = append(result.Users, UserInfo{ID: existing.ID, Username: username})
			continue
		}
		if !errors.Is(err, identity.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to look up user %s: %w", username, err)
		}

		created, err := repo.CreateUser(ctx, username, true)
		if err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", username, err)
		}

		slog.Info("User created", "username", username, "id", created.ID)
		result.Users = append(result.Users, UserInfo{ID: created.ID, Username: username, Created: true})
	}

	return result, nil
}
