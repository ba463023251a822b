package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultAttemptTTL bounds how long a suspended attempt waits for its callback.
const DefaultAttemptTTL = 5 * time.Minute

// ErrAttemptNotFound is returned when an attempt is unknown or has expired.
var ErrAttemptNotFound = errors.New("authentication attempt not found or expired")

// Attempt is a suspended authentication attempt waiting for a client callback.
type Attempt struct {
	ID        uuid.UUID `json:"id"`
	Node      string    `json:"node"`
	State     State     `json:"state"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the attempt can no longer be resumed.
func (a Attempt) IsExpired() bool {
	return !a.ExpiresAt.IsZero() && time.Now().UTC().After(a.ExpiresAt)
}

// Store keeps suspended attempts between request/response round trips.
type Store interface {
	Save(ctx context.Context, attempt Attempt) error
	Load(ctx context.Context, id uuid.UUID) (Attempt, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
