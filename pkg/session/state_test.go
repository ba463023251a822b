package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateWithIsCopyOnWrite(t *testing.T) {
	base := NewState().WithString(UsernameKey, "bob")
	next := base.With("device.profile", json.RawMessage(`{"platform":"ios"}`))

	assert.False(t, base.IsDefined("device.profile"))
	assert.True(t, next.IsDefined("device.profile"))
	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, next.Len())

	username, ok := next.GetString(UsernameKey)
	assert.True(t, ok)
	assert.Equal(t, "bob", username)
}

func TestStateWithCopiesValueBytes(t *testing.T) {
	raw := json.RawMessage(`"abc"`)
	s := NewState().With("k", raw)
	raw[1] = 'x'

	v, _ := s.Get("k")
	assert.Equal(t, `"abc"`, string(v))
}

func TestStateIsDefined(t *testing.T) {
	s := NewState().
		With("null", json.RawMessage(`null`)).
		With("empty", json.RawMessage(`""`))

	assert.False(t, s.IsDefined("null"))
	assert.True(t, s.IsDefined("empty"))
	assert.False(t, s.IsDefined("missing"))
}

func TestStateGetStringRejectsNonString(t *testing.T) {
	s := NewState().With("n", json.RawMessage(`42`))
	_, ok := s.GetString("n")
	assert.False(t, ok)
	_, ok = s.GetString("missing")
	assert.False(t, ok)
}

func TestStateWithValue(t *testing.T) {
	s, err := NewState().WithValue("loc", map[string]float64{"latitude": 1.5})
	require.NoError(t, err)
	v, ok := s.Get("loc")
	require.True(t, ok)
	assert.JSONEq(t, `{"latitude":1.5}`, string(v))

	_, err = NewState().WithValue("bad", make(chan int))
	assert.Error(t, err)
}

func TestStateJSON(t *testing.T) {
	data, err := json.Marshal(NewState())
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	s := NewState().WithString(UsernameKey, "alice")
	data, err = json.Marshal(s)
	require.NoError(t, err)

	var decoded State
	require.NoError(t, json.Unmarshal(data, &decoded))
	username, ok := decoded.GetString(UsernameKey)
	assert.True(t, ok)
	assert.Equal(t, "alice", username)
}
