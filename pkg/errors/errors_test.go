package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCodeThroughWrapping(t *testing.T) {
	base := MissingIdentifier()
	wrapped := fmt.Errorf("store step: %w", base)

	assert.True(t, IsCode(wrapped, ErrCodeMissingIdentifier))
	assert.False(t, IsCode(wrapped, ErrCodeProfileRequired))
	assert.Equal(t, ErrCodeMissingIdentifier, GetCode(wrapped))
	assert.Equal(t, "device identifier cannot be found from the context", GetMessage(wrapped))
}

func TestGetCodeDefaultsToInternal(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, ErrCodeInternal, GetCode(err))
	assert.Equal(t, "boom", GetMessage(err))
}

func TestPersistenceKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Persistence(cause, "failed to store device records")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[PERSISTENCE_ERROR] failed to store device records: disk full", err.Error())
}

func TestPayloadFormatWithoutCause(t *testing.T) {
	err := PayloadFormat(nil, "identifier is required")
	assert.Equal(t, ErrCodePayloadFormat, err.Code)
	assert.Nil(t, err.Err)
}

func TestMapErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeMissingIdentifier, http.StatusBadRequest},
		{ErrCodeProfileRequired, http.StatusBadRequest},
		{ErrCodeLocationRequired, http.StatusBadRequest},
		{ErrCodePayloadFormat, http.StatusBadRequest},
		{ErrCodeIdentityResolution, http.StatusUnauthorized},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodePersistence, http.StatusInternalServerError},
		{ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorCodeToHTTPStatus(tt.code))
		})
	}
}
