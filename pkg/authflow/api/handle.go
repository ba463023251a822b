package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/device-idm/pkg/authflow"
	idmerrors "github.com/tendant/device-idm/pkg/errors"
)

// Handle serves the authentication round trip
type Handle struct {
	executor *authflow.Executor
}

func NewHandle(executor *authflow.Executor) Handle {
	return Handle{executor: executor}
}

// AuthenticateRequest starts an attempt (username) or resumes one (attempt_id)
type AuthenticateRequest struct {
	AttemptID     string `json:"attempt_id,omitempty"`
	Username      string `json:"username,omitempty"`
	CallbackValue string `json:"callback_value,omitempty"`
}

// AuthenticateResponse reports the state of the attempt
type AuthenticateResponse struct {
	AttemptID string `json:"attempt_id"`
	Status    string `json:"status"`
	Callback  string `json:"callback,omitempty"`
	Message   string `json:"message,omitempty"`
	Code      string `json:"code,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Authenticate handles POST /authenticate
func (h Handle) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req AuthenticateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request body", "error", err)
		renderErrorResponse(w, r, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	var (
		result authflow.Result
		err    error
	)
	switch {
	case req.AttemptID != "":
		attemptID, parseErr := uuid.Parse(req.AttemptID)
		if parseErr != nil {
			renderErrorResponse(w, r, http.StatusBadRequest, "Invalid attempt ID", parseErr.Error())
			return
		}
		result, err = h.executor.Resume(r.Context(), attemptID, req.CallbackValue)
	case strings.TrimSpace(req.Username) != "":
		result, err = h.executor.Start(r.Context(), req.Username)
	default:
		renderErrorResponse(w, r, http.StatusBadRequest, "Missing required field", "username or attempt_id is required")
		return
	}

	if err != nil {
		slog.Error("Authentication failed", "attemptID", req.AttemptID, "error", err)
		code := idmerrors.GetCode(err)
		renderErrorResponse(w, r, idmerrors.MapErrorCodeToHTTPStatus(code), idmerrors.GetMessage(err), string(code))
		return
	}

	response := AuthenticateResponse{
		AttemptID: result.AttemptID.String(),
		Status:    string(result.Status),
		Callback:  result.Callback,
		Message:   result.Message,
		Code:      string(result.Code),
	}

	status := http.StatusOK
	switch result.Status {
	case authflow.StatusFailure:
		status = http.StatusUnauthorized
	case authflow.StatusError:
		status = idmerrors.MapErrorCodeToHTTPStatus(result.Code)
	}
	render.Status(r, status)
	render.JSON(w, r, response)
}

// Handler returns a http.Handler for the authentication API
func Handler(h Handle) http.Handler {
	r := chi.NewRouter()
	r.Post("/authenticate", h.Authenticate)
	return r
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
