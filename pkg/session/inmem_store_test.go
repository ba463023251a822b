package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemStore(time.Minute)

	attempt := Attempt{
		ID:    uuid.New(),
		Node:  "collect",
		State: NewState().WithString(UsernameKey, "bob"),
	}

	t.Run("SaveAndLoad", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, attempt))

		loaded, err := store.Load(ctx, attempt.ID)
		require.NoError(t, err)
		assert.Equal(t, "collect", loaded.Node)
		assert.False(t, loaded.ExpiresAt.IsZero())
		username, _ := loaded.State.GetString(UsernameKey)
		assert.Equal(t, "bob", username)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, attempt.ID))
		_, err := store.Load(ctx, attempt.ID)
		assert.ErrorIs(t, err, ErrAttemptNotFound)
	})

	t.Run("DeleteUnknown", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, uuid.New()))
	})
}

func TestInMemStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewInMemStore(time.Millisecond)

	attempt := Attempt{ID: uuid.New(), Node: "collect"}
	require.NoError(t, store.Save(ctx, attempt))

	time.Sleep(10 * time.Millisecond)

	_, err := store.Load(ctx, attempt.ID)
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestNewInMemStoreDefaultTTL(t *testing.T) {
	store := NewInMemStore(0)
	assert.Equal(t, DefaultAttemptTTL, store.ttl)
}
