package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemStore implements Store with a map. Expired attempts are dropped lazily.
type InMemStore struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]Attempt
	ttl      time.Duration
}

// NewInMemStore creates an in-memory attempt store. A non-positive ttl
// falls back to DefaultAttemptTTL.
func NewInMemStore(ttl time.Duration) *InMemStore {
	if ttl <= 0 {
		ttl = DefaultAttemptTTL
	}
	return &InMemStore{
		attempts: make(map[uuid.UUID]Attempt),
		ttl:      ttl,
	}
}

// Save stores the attempt and resets its expiry.
func (s *InMemStore) Save(ctx context.Context, attempt Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt.ExpiresAt = time.Now().UTC().Add(s.ttl)
	s.attempts[attempt.ID] = attempt
	slog.Debug("Attempt saved", "attemptID", attempt.ID, "node", attempt.Node)
	return nil
}

// Load returns the attempt or ErrAttemptNotFound.
func (s *InMemStore) Load(ctx context.Context, id uuid.UUID) (Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt, ok := s.attempts[id]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	if attempt.IsExpired() {
		delete(s.attempts, id)
		slog.Debug("Attempt expired", "attemptID", id)
		return Attempt{}, ErrAttemptNotFound
	}
	return attempt, nil
}

// Delete removes the attempt. Deleting an unknown attempt is not an error.
func (s *InMemStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.attempts, id)
	return nil
}
