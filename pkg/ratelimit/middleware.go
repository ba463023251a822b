package ratelimit

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	idmerrors "github.com/tendant/device-idm/pkg/errors"
)

// KeyFunc extracts the rate limit key of a request. An empty key is not limited.
type KeyFunc func(r *http.Request) string

// ErrorResponse is the body of a 429 response
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Middleware rejects requests whose key has run out of tokens
type Middleware struct {
	limiter    *Limiter
	key        KeyFunc
	name       string
	retryAfter int
}

// NewMiddleware limits requests by key. name labels the limit in logs.
func NewMiddleware(name string, limiter *Limiter, key KeyFunc) *Middleware {
	retryAfter := 60
	if limiter.perMinute > 0 {
		retryAfter = int(math.Ceil(60 / limiter.perMinute))
	}
	return &Middleware{
		limiter:    limiter,
		key:        key,
		name:       name,
		retryAfter: retryAfter,
	}
}

// Handler returns the rate limiting middleware handler
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := m.key(r)
		if key == "" || m.limiter.Allow(key) {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limiter.Capacity()))
			next.ServeHTTP(w, r)
			return
		}

		slog.Warn("Rate limit exceeded", "limit", m.name, "key", key, "method", r.Method, "path", r.URL.Path)

		err := idmerrors.RateLimited(m.name)
		w.Header().Set("Retry-After", strconv.Itoa(m.retryAfter))
		render.Status(r, err.HTTPStatusCode())
		render.JSON(w, r, ErrorResponse{
			Status:  "error",
			Message: err.Message,
			Error:   string(err.Code),
		})
	})
}

// ClientIP keys requests by remote address. Mount chi's middleware.RealIP in
// front of it when the service runs behind a proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// TokenSubject keys requests by the "sub" claim of a verified JWT. It must run
// after jwtauth.Verifier.
func TokenSubject(r *http.Request) string {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil || claims == nil {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}
