package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"
)

const identitiesFile = "identities.json"

// FileRepository implements Repository using file-based storage
type FileRepository struct {
	dataDir string
	users   map[uuid.UUID]*fileUser
	mutex   sync.RWMutex
	pending pendingWrites
}

type fileUser struct {
	User
	Attributes map[string][]string `json:"attributes,omitempty"`
}

// identityData represents the structure of data stored in the JSON file
type identityData struct {
	Users []*fileUser `json:"users"`
}

// NewFileRepository creates a new file-based identity repository
func NewFileRepository(dataDir string) (*FileRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileRepository{
		dataDir: dataDir,
		users:   make(map[uuid.UUID]*fileUser),
	}

	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

// CreateUser creates a new user
func (r *FileRepository) CreateUser(ctx context.Context, username string, active bool) (User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.findByUsername(username); ok {
		return User{}, ErrUserAlreadyExists
	}

	user := User{
		ID:        uuid.New(),
		Username:  username,
		Active:    active,
		CreatedAt: time.Now().UTC(),
	}
	r.users[user.ID] = &fileUser{User: user}

	if err := r.save(); err != nil {
		delete(r.users, user.ID)
		return User{}, fmt.Errorf("failed to save: %w", err)
	}

	return user, nil
}

// FindUserByUsername looks up a user by username
func (r *FileRepository) FindUserByUsername(ctx context.Context, username string) (User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	u, ok := r.findByUsername(username)
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u.User, nil
}

// GetAttribute returns a copy of the committed attribute values
func (r *FileRepository) GetAttribute(ctx context.Context, userID uuid.UUID, name string) ([]string, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	u, ok := r.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return append([]string{}, u.Attributes[name]...), nil
}

// SetAttribute stages attribute values until Commit
func (r *FileRepository) SetAttribute(ctx context.Context, userID uuid.UUID, name string, values []string) error {
	r.mutex.RLock()
	_, ok := r.users[userID]
	r.mutex.RUnlock()
	if !ok {
		return ErrUserNotFound
	}

	r.pending.stage(userID, name, values)
	return nil
}

// Commit writes staged attribute values to disk
func (r *FileRepository) Commit(ctx context.Context, userID uuid.UUID) error {
	staged := r.pending.take(userID)
	if len(staged) == 0 {
		return nil
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return ErrUserNotFound
	}

	previous := u.Attributes
	next := make(map[string][]string, len(previous)+len(staged))
	for name, values := range previous {
		next[name] = values
	}
	for name, values := range staged {
		next[name] = values
	}
	u.Attributes = next

	if err := r.save(); err != nil {
		u.Attributes = previous
		r.pending.restore(userID, staged)
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

func (r *FileRepository) findByUsername(username string) (*fileUser, bool) {
	for _, u := range r.users {
		if u.Username == username {
			return u, true
		}
	}
	return nil, false
}

// load reads identity data from file
func (r *FileRepository) load() error {
	filePath := filepath.Join(r.dataDir, identitiesFile)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	var idData identityData
	if err := json.Unmarshal(data, &idData); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	r.users = make(map[uuid.UUID]*fileUser, len(idData.Users))
	for _, u := range idData.Users {
		r.users[u.ID] = u
	}

	return nil
}

// save writes identity data to file atomically
func (r *FileRepository) save() error {
	ids := maps.Keys(r.users)
	sort.Slice(ids, func(i, j int) bool {
		return r.users[ids[i]].Username < r.users[ids[j]].Username
	})

	users := make([]*fileUser, 0, len(ids))
	for _, id := range ids {
		users = append(users, r.users[id])
	}

	jsonData, err := json.MarshalIndent(identityData{Users: users}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tempFile := filepath.Join(r.dataDir, identitiesFile+".tmp")
	if err := os.WriteFile(tempFile, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	finalFile := filepath.Join(r.dataDir, identitiesFile)
	if err := os.Rename(tempFile, finalFile); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}
