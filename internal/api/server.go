// Package api provides the HTTP API for the campaign tracker.
// GET endpoints are public (anyone can follow the war).
// POST endpoints mutate state and require a signed-in player; season
// administration and recalculation additionally require an administrator.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/talgya/ashes-void/internal/apperr"
	"github.com/talgya/ashes-void/internal/auth"
	"github.com/talgya/ashes-void/internal/campaign"
	"github.com/talgya/ashes-void/internal/engine"
)

const maxBodyBytes = 1 << 20

// Server serves the campaign over HTTP.
type Server struct {
	Service  *campaign.Service
	Accounts auth.Accounts
	Tokens   auth.Tokens
	Eng      *engine.Engine // optional, reported by /status
	Addr     string

	CORSOrigins  []string
	LoginLimiter *RateLimiter // nil disables limiting
}

// Handler builds the routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.getOnly(s.handleStatus))
	mux.HandleFunc("/api/v1/map", s.getOnly(s.handleMapRoutes))
	mux.HandleFunc("/api/v1/map/", s.getOnly(s.handleMapRoutes))
	mux.HandleFunc("/api/v1/score", s.getOnly(s.handleScore))
	mux.HandleFunc("/api/v1/categories", s.getOnly(s.handleCategories))
	mux.HandleFunc("/api/v1/battles", s.handleBattles)
	mux.HandleFunc("/api/v1/seasons", s.handleSeasons)

	// Accounts (POST, rate limited per client IP).
	mux.HandleFunc("/api/v1/accounts", s.rateLimited(s.postOnly(s.handleRegister)))
	mux.HandleFunc("/api/v1/login", s.rateLimited(s.postOnly(s.handleLogin)))
	mux.HandleFunc("/api/v1/logout", s.postOnly(s.handleLogout))
	mux.HandleFunc("/api/v1/me", s.getOnly(s.authenticated(s.handleMe)))

	// Player endpoints (POST, require a session).
	mux.HandleFunc("/api/v1/battles/delete", s.postOnly(s.authenticated(s.handleDeleteBattles)))

	// Admin endpoints (POST, require an administrator session).
	mux.HandleFunc("/api/v1/recalculate", s.postOnly(s.adminOnly(s.handleRecalculate)))

	return corsMiddleware(s.CORSOrigins, mux)
}

// Start begins serving the HTTP API in a goroutine. Shut the returned
// server down to stop it.
func (s *Server) Start() *http.Server {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", s.Addr, "admins", s.Service.Admins.Len())

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// "*" allows any origin, but only listed origins may send the session
// cookie; the rest must use a bearer token. Localhost dev servers are
// always listed.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	anyOrigin := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		switch origin {
		case "":
		case "*":
			anyOrigin = true
		default:
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (anyOrigin || allowedOrigins[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if allowedOrigins[origin] {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type principalHandler func(w http.ResponseWriter, r *http.Request, p auth.Principal)

// principal resolves the caller from the Authorization header or the session cookie.
func (s *Server) principal(r *http.Request) (auth.Principal, error) {
	token := ""
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimPrefix(h, "Bearer ")
	} else if c, err := r.Cookie(auth.CookieName); err == nil {
		token = c.Value
	}
	return s.Tokens.Parse(token)
}

// authenticated wraps a handler to require a valid session.
func (s *Server) authenticated(next principalHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.principal(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next(w, r, p)
	}
}

// adminOnly wraps a handler to require an administrator session.
func (s *Server) adminOnly(next principalHandler) http.HandlerFunc {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, p auth.Principal) {
		if !s.Service.Admins.IsAdmin(p) {
			writeError(w, r, apperr.New(apperr.CodePermissionDenied, "administrators only"))
			return
		}
		next(w, r, p)
	})
}

func (s *Server) getOnly(next http.HandlerFunc) http.HandlerFunc {
	return methodOnly(http.MethodGet, next)
}

func (s *Server) postOnly(next http.HandlerFunc) http.HandlerFunc {
	return methodOnly(http.MethodPost, next)
}

func methodOnly(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			writeJSONStatus(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		next(w, r)
	}
}

func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	if s.LoginLimiter == nil {
		return next
	}
	return RateLimitMiddleware(s.LoginLimiter, next)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Wrap(apperr.CodeInvalidArgument, "invalid json: "+err.Error(), err)
	}
	return nil
}

// writeError maps a coded error onto its HTTP status. Uncoded errors are
// logged and reported as internal.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.CodeOf(err)
	status := code.HTTPStatus()
	if errors.Is(err, context.Canceled) {
		return
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	body := map[string]any{"error": apperr.MessageOf(err)}
	if code != apperr.CodeUnknown {
		body["code"] = code
	}
	var ae *apperr.Error
	if errors.As(err, &ae) && len(ae.Metadata) > 0 {
		body["details"] = ae.Metadata
	}
	writeJSONStatus(w, status, body)
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
