package device

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tendant/device-idm/pkg/deviceattr"
	"github.com/tendant/device-idm/pkg/identity"
	"github.com/tendant/device-idm/pkg/session"
)

type fixture struct {
	repo     *identity.InMemoryRepository
	resolver *identity.Resolver
	records  *IdentityRecordRepository
	user     identity.User
}

func newFixture(t *testing.T, stored ...string) *fixture {
	t.Helper()
	ctx := context.Background()

	repo := identity.NewInMemoryRepository()
	user, err := repo.CreateUser(ctx, "alice", true)
	require.NoError(t, err)

	f := &fixture{
		repo:     repo,
		resolver: identity.NewResolver(repo),
		records:  NewRecordRepository(repo),
		user:     user,
	}
	if len(stored) > 0 {
		require.NoError(t, f.records.SetRecords(ctx, user.ID, stored))
		require.NoError(t, f.records.Commit(ctx, user.ID))
	}
	return f
}

func (f *fixture) stored(t *testing.T) []string {
	t.Helper()
	records, err := f.records.Records(context.Background(), f.user.ID)
	require.NoError(t, err)
	return records
}

// collected builds session state the way the collector leaves it.
func collected(username, identifier string, fields map[deviceattr.Kind]string) session.State {
	state := session.NewState()
	if username != "" {
		state = state.WithString(session.UsernameKey, username)
	}
	if identifier != "" {
		state = state.WithString(deviceattr.Identifier.SessionKey(), identifier)
	}
	for kind, raw := range fields {
		state = state.With(kind.SessionKey(), json.RawMessage(raw))
	}
	return state
}

// failingRecords fails reads or writes on demand.
type failingRecords struct {
	records   []string
	readErr   error
	stageErr  error
	commitErr error
}

var errBackend = errors.New("backend unavailable")

func (f *failingRecords) Records(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return f.records, f.readErr
}

func (f *failingRecords) SetRecords(ctx context.Context, userID uuid.UUID, records []string) error {
	return f.stageErr
}

func (f *failingRecords) Commit(ctx context.Context, userID uuid.UUID) error {
	return f.commitErr
}
