package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// User is an identity that device records belong to.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository defines identity storage operations.
type Repository interface {
	CreateUser(ctx context.Context, username string, active bool) (User, error)
	FindUserByUsername(ctx context.Context, username string) (User, error)

	// GetAttribute returns the committed values of a multi-valued attribute.
	// A missing attribute yields an empty slice, not an error.
	GetAttribute(ctx context.Context, userID uuid.UUID, name string) ([]string, error)

	// SetAttribute stages a full replacement of the attribute values.
	SetAttribute(ctx context.Context, userID uuid.UUID, name string, values []string) error

	// Commit persists every attribute staged for the user.
	Commit(ctx context.Context, userID uuid.UUID) error
}

// pendingWrites holds attribute values staged by SetAttribute until Commit.
type pendingWrites struct {
	mu     sync.Mutex
	writes map[uuid.UUID]map[string][]string
}

func (p *pendingWrites) stage(userID uuid.UUID, name string, values []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writes == nil {
		p.writes = make(map[uuid.UUID]map[string][]string)
	}
	if p.writes[userID] == nil {
		p.writes[userID] = make(map[string][]string)
	}
	p.writes[userID][name] = uniqueStrings(values)
}

// take removes and returns the writes staged for userID.
func (p *pendingWrites) take(userID uuid.UUID) map[string][]string {
	p.mu.Lock()
	defer p.mu.Unlock()

	staged := p.writes[userID]
	delete(p.writes, userID)
	return staged
}

// restore puts writes back after a failed commit so a retry can flush them.
func (p *pendingWrites) restore(userID uuid.UUID, staged map[string][]string) {
	for name, values := range staged {
		p.stage(userID, name, values)
	}
}

// uniqueStrings drops duplicates, keeping first-seen order.
func uniqueStrings(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
