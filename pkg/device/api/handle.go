package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/jinzhu/copier"

	"github.com/tendant/device-idm/pkg/device"
	idmerrors "github.com/tendant/device-idm/pkg/errors"
)

// DeviceHandler handles HTTP requests for device management
type DeviceHandler struct {
	store *device.Store
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(store *device.Store) *DeviceHandler {
	return &DeviceHandler{
		store: store,
	}
}

// DeviceResponse describes one stored device
type DeviceResponse struct {
	Identifier   string           `json:"identifier"`
	HasProfile   bool             `json:"has_profile"`
	HasPublicKey bool             `json:"has_public_key"`
	Location     *device.Location `json:"location,omitempty"`
}

// ListDevicesResponse represents the response body for listing devices
type ListDevicesResponse struct {
	Status      string           `json:"status"`
	Message     string           `json:"message"`
	Devices     []DeviceResponse `json:"devices"`
	Unparseable int              `json:"unparseable"`
}

// RemoveDeviceResponse represents the response body for removing a device
type RemoveDeviceResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Removed int    `json:"removed"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ListDevices handles listing the stored devices of a user
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if !authorized(r, username) {
		renderErrorResponse(w, r, http.StatusForbidden, "Permission denied", "You don't have permission to view devices for this user")
		return
	}

	summaries, unparseable, err := h.store.Devices(r.Context(), username)
	if err != nil {
		slog.Error("Failed to get devices", "username", username, "error", err)
		renderError(w, r, err)
		return
	}

	devices := make([]DeviceResponse, 0, len(summaries))
	for _, s := range summaries {
		var resp DeviceResponse
		copier.Copy(&resp, &s)
		devices = append(devices, resp)
	}

	response := ListDevicesResponse{
		Status:      "success",
		Message:     "Devices retrieved successfully",
		Devices:     devices,
		Unparseable: unparseable,
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, response)
}

// RemoveDevice handles removing every record of one device
func (h *DeviceHandler) RemoveDevice(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	identifier := chi.URLParam(r, "identifier")
	if identifier == "" {
		renderErrorResponse(w, r, http.StatusBadRequest, "Missing required parameter", "identifier is required")
		return
	}
	if !authorized(r, username) {
		renderErrorResponse(w, r, http.StatusForbidden, "Permission denied", "You don't have permission to remove devices for this user")
		return
	}

	removed, err := h.store.Remove(r.Context(), username, identifier)
	if err != nil {
		slog.Error("Failed to remove device", "username", username, "identifier", identifier, "error", err)
		renderError(w, r, err)
		return
	}

	response := RemoveDeviceResponse{
		Status:  "success",
		Message: "Device removed successfully",
		Removed: removed,
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, response)
}

// Handler returns a http.Handler for the device API. Every route requires a
// bearer token verified by tokenAuth. middlewares run after authentication.
func Handler(h *DeviceHandler, tokenAuth *jwtauth.JWTAuth, middlewares ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))
		r.Use(middlewares...)

		r.Get("/users/{username}/devices", h.ListDevices)
		r.Delete("/users/{username}/devices/{identifier}", h.RemoveDevice)
	})

	return r
}

// authorized allows a token whose subject is username, or an admin token.
func authorized(r *http.Request, username string) bool {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return false
	}
	if admin, ok := claims["admin"].(bool); ok && admin {
		return true
	}
	sub, _ := claims["sub"].(string)
	return sub != "" && sub == username
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	renderErrorResponse(w, r, idmerrors.MapErrorCodeToHTTPStatus(idmerrors.GetCode(err)), idmerrors.GetMessage(err), string(idmerrors.GetCode(err)))
}

// renderErrorResponse renders an error response with the given status code and message
func renderErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, message, errorDetail string) {
	response := ErrorResponse{
		Status:  "error",
		Message: message,
	}

	if errorDetail != "" {
		response.Error = errorDetail
	}

	render.Status(r, statusCode)
	render.JSON(w, r, response)
}
