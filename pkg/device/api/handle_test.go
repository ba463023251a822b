package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/device-idm/pkg/device"
	"github.com/tendant/device-idm/pkg/deviceattr"
	"github.com/tendant/device-idm/pkg/identity"
)

const testSecret = "test-secret"

func setupHandler(t *testing.T) (http.Handler, *jwtauth.JWTAuth) {
	t.Helper()
	ctx := context.Background()

	repo := identity.NewInMemoryRepository()
	user, err := repo.CreateUser(ctx, "alice", true)
	require.NoError(t, err)

	records := device.NewRecordRepository(repo)
	require.NoError(t, records.SetRecords(ctx, user.ID, []string{
		`{"identifier":"phone","profile":{"a":1},"location":{"latitude":1.5,"longitude":2.5}}`,
		`{"identifier":"tablet","publicKey":"k"}`,
		`garbage`,
	}))
	require.NoError(t, records.Commit(ctx, user.ID))

	store := device.NewStore(identity.NewResolver(repo), records, deviceattr.Collectable)
	tokenAuth := jwtauth.New("HS256", []byte(testSecret), nil)
	return Handler(NewDeviceHandler(store), tokenAuth), tokenAuth
}

func token(t *testing.T, tokenAuth *jwtauth.JWTAuth, claims map[string]interface{}) string {
	t.Helper()
	_, tokenString, err := tokenAuth.Encode(claims)
	require.NoError(t, err)
	return tokenString
}

func do(handler http.Handler, method, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestListDevices(t *testing.T) {
	handler, tokenAuth := setupHandler(t)

	rr := do(handler, http.MethodGet, "/users/alice/devices", token(t, tokenAuth, map[string]interface{}{"sub": "alice"}))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp ListDevicesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 1, resp.Unparseable)
	require.Len(t, resp.Devices, 2)
	assert.Equal(t, "phone", resp.Devices[0].Identifier)
	assert.True(t, resp.Devices[0].HasProfile)
	require.NotNil(t, resp.Devices[0].Location)
	assert.Equal(t, 1.5, resp.Devices[0].Location.Latitude)
	assert.Equal(t, "tablet", resp.Devices[1].Identifier)
	assert.True(t, resp.Devices[1].HasPublicKey)
	assert.Nil(t, resp.Devices[1].Location)
}

func TestListDevices_Authorization(t *testing.T) {
	handler, tokenAuth := setupHandler(t)

	t.Run("NoToken", func(t *testing.T) {
		rr := do(handler, http.MethodGet, "/users/alice/devices", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other := jwtauth.New("HS256", []byte("other-secret"), nil)
		rr := do(handler, http.MethodGet, "/users/alice/devices", token(t, other, map[string]interface{}{"sub": "alice"}))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("OtherUser", func(t *testing.T) {
		rr := do(handler, http.MethodGet, "/users/alice/devices", token(t, tokenAuth, map[string]interface{}{"sub": "bob"}))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("Admin", func(t *testing.T) {
		rr := do(handler, http.MethodGet, "/users/alice/devices", token(t, tokenAuth, map[string]interface{}{"sub": "root", "admin": true}))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		rr := do(handler, http.MethodGet, "/users/carol/devices", token(t, tokenAuth, map[string]interface{}{"sub": "carol"}))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, identity.MsgUserNotFound, resp.Message)
		assert.Equal(t, "IDENTITY_RESOLUTION_ERROR", resp.Error)
	})
}

func TestRemoveDevice(t *testing.T) {
	handler, tokenAuth := setupHandler(t)
	bearer := token(t, tokenAuth, map[string]interface{}{"sub": "alice"})

	rr := do(handler, http.MethodDelete, "/users/alice/devices/phone", bearer)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp RemoveDeviceResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Removed)

	rr = do(handler, http.MethodDelete, "/users/alice/devices/phone", bearer)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(handler, http.MethodGet, "/users/alice/devices", bearer)
	require.Equal(t, http.StatusOK, rr.Code)
	var list ListDevicesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list.Devices, 1)
	assert.Equal(t, 1, list.Unparseable, "malformed entries survive removal")
}
