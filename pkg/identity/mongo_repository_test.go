package identity

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMongoRepository(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx := context.Background()
	client, err := ConnectMongo(ctx, uri)
	require.NoError(t, err)

	db := client.Database("device_idm_test_" + uuid.NewString()[:8])
	defer func() {
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	}()

	repo := NewMongoRepository(db)
	require.NoError(t, repo.EnsureIndexes(ctx))
	exerciseRepository(t, repo)

	t.Run("CommitForUnknownUser", func(t *testing.T) {
		id := uuid.New()
		require.NoError(t, repo.SetAttribute(ctx, id, "deviceAttributes", []string{"x"}))
		assert.ErrorIs(t, repo.Commit(ctx, id), ErrUserNotFound)
	})

	t.Run("UnknownUserAttribute", func(t *testing.T) {
		_, err := repo.GetAttribute(ctx, uuid.New(), "deviceAttributes")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
