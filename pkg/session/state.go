// Package session holds the per-attempt state of an authentication tree.
//
// State is an immutable snapshot of string keys to raw JSON values. Mutating
// operations return a new snapshot, so a step can never alter the state another
// step (or a stored attempt) still holds.
package session

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UsernameKey is the state key holding the username of the attempt.
const UsernameKey = "username"

// State is an immutable key/value snapshot.
type State struct {
	values map[string]json.RawMessage
}

// NewState returns an empty snapshot.
func NewState() State {
	return State{}
}

// Get returns the raw JSON value stored under key.
func (s State) Get(key string) (json.RawMessage, bool) {
	v, ok := s.values[key]
	return v, ok
}

// IsDefined reports whether key holds a non-null value.
func (s State) IsDefined(key string) bool {
	v, ok := s.values[key]
	return ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// GetString returns the value under key when it is a JSON string.
func (s State) GetString(key string) (string, bool) {
	v, ok := s.values[key]
	if !ok {
		return "", false
	}
	var str string
	if err := json.Unmarshal(v, &str); err != nil {
		return "", false
	}
	return str, true
}

// With returns a copy of s with key set to the raw JSON value.
func (s State) With(key string, value json.RawMessage) State {
	next := make(map[string]json.RawMessage, len(s.values)+1)
	for k, v := range s.values {
		next[k] = v
	}
	next[key] = append(json.RawMessage(nil), value...)
	return State{values: next}
}

// WithString returns a copy of s with key set to a JSON string.
func (s State) WithString(key, value string) State {
	raw, _ := json.Marshal(value)
	return s.With(key, raw)
}

// WithValue marshals value and returns a copy of s with key set to it.
func (s State) WithValue(key string, value interface{}) (State, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return s, fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.With(key, raw), nil
}

// Len returns the number of keys in s.
func (s State) Len() int {
	return len(s.values)
}

// MarshalJSON encodes s as a JSON object.
func (s State) MarshalJSON() ([]byte, error) {
	if s.values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.values)
}

// UnmarshalJSON decodes a JSON object into s.
func (s *State) UnmarshalJSON(data []byte) error {
	var values map[string]json.RawMessage
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	s.values = values
	return nil
}
