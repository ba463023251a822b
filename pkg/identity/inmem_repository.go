package identity

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"
)

// InMemoryRepository implements Repository using in-memory maps
type InMemoryRepository struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]User
	usernames  map[string]uuid.UUID
	attributes map[uuid.UUID]map[string][]string
	pending    pendingWrites
}

// NewInMemoryRepository creates a new in-memory identity repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users:      make(map[uuid.UUID]User),
		usernames:  make(map[string]uuid.UUID),
		attributes: make(map[uuid.UUID]map[string][]string),
	}
}

// CreateUser creates a new user
func (r *InMemoryRepository) CreateUser(ctx context.Context, username string, active bool) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.usernames[username]; exists {
		return User{}, ErrUserAlreadyExists
	}

	user := User{
		ID:        uuid.New(),
		Username:  username,
		Active:    active,
		CreatedAt: time.Now().UTC(),
	}
	r.users[user.ID] = user
	r.usernames[username] = user.ID
	slog.Debug("User created", "username", username, "userID", user.ID)
	return user, nil
}

// SetActive flips the active flag of a user
func (r *InMemoryRepository) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.Active = active
	r.users[userID] = user
	return nil
}

// FindUserByUsername looks up a user by username
func (r *InMemoryRepository) FindUserByUsername(ctx context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.usernames[username]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return r.users[id], nil
}

// GetAttribute returns a copy of the committed attribute values
func (r *InMemoryRepository) GetAttribute(ctx context.Context, userID uuid.UUID, name string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.users[userID]; !ok {
		return nil, ErrUserNotFound
	}
	values := r.attributes[userID][name]
	return append([]string{}, values...), nil
}

// SetAttribute stages attribute values until Commit
func (r *InMemoryRepository) SetAttribute(ctx context.Context, userID uuid.UUID, name string, values []string) error {
	r.mu.RLock()
	_, ok := r.users[userID]
	r.mu.RUnlock()
	if !ok {
		return ErrUserNotFound
	}

	r.pending.stage(userID, name, values)
	return nil
}

// Commit applies staged attribute values
func (r *InMemoryRepository) Commit(ctx context.Context, userID uuid.UUID) error {
	staged := r.pending.take(userID)
	if len(staged) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return ErrUserNotFound
	}
	if r.attributes[userID] == nil {
		r.attributes[userID] = make(map[string][]string)
	}
	for name, values := range staged {
		r.attributes[userID][name] = values
	}
	slog.Debug("Attributes committed", "userID", userID, "attributes", sortedKeys(staged))
	return nil
}

func sortedKeys(m map[string][]string) []string {
	keys := maps.Keys(m)
	sort.Strings(keys)
	return keys
}
