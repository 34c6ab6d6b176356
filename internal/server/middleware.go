package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/storefront/internal/repository"
	"github.com/dmitrymomot/storefront/pkg/api"
	"github.com/dmitrymomot/storefront/pkg/logger"
)

const maxStackSize = 4096

// HandlerFunc is an HTTP handler that reports failures as errors.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

type userKey struct{}

// currentUser returns the account authenticated by the session cookie.
func currentUser(ctx context.Context) (repository.User, bool) {
	u, ok := ctx.Value(userKey{}).(repository.User)
	return u, ok
}

// handle adapts fn to http.HandlerFunc, rendering returned errors.
func (s *Server) handle(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			s.renderError(w, r, err)
		}
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	httpErr := AsHTTPError(err)
	if httpErr == nil {
		httpErr = ErrInternal("Internal server error", WithError(err))
	}

	if httpErr.Code >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			slog.Int("status", httpErr.Code),
			slog.Any("error", err),
		)
	}

	writeJSON(w, httpErr.Code, map[string]string{
		"error":     httpErr.Message,
		"requestId": logger.RequestID(r.Context()),
	})
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(api.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(api.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			stack := debug.Stack()
			if len(stack) > maxStackSize {
				stack = stack[:maxStackSize]
			}
			s.logger.ErrorContext(r.Context(), "panic recovered",
				slog.Any("panic", rec),
				slog.String("stack", string(stack)),
			)
			s.renderError(w, r, ErrInternal("Internal server error", WithError(fmt.Errorf("panic: %v", rec))))
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.logger.InfoContext(r.Context(), "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

// authenticate attaches the account of a valid session cookie to the
// request context. Requests without one continue anonymously.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := s.cookies.Get(r, api.TokenCookie)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := s.tokens.Parse(raw)
		if err != nil {
			s.logger.DebugContext(r.Context(), "session token rejected", slog.Any("error", err))
			next.ServeHTTP(w, r)
			return
		}

		u, err := s.repo.UserByUsername(r.Context(), claims.Subject)
		if err != nil || !u.Enabled {
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				s.logger.ErrorContext(r.Context(), "session lookup failed", slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, u)
		ctx = logger.WithUsername(ctx, u.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAuth(fn HandlerFunc) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		if _, ok := currentUser(r.Context()); !ok {
			return ErrUnauthorized("Authentication required")
		}
		return fn(w, r)
	}
}

func (s *Server) requireAdmin(fn HandlerFunc) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		u, ok := currentUser(r.Context())
		if !ok {
			return ErrUnauthorized("Authentication required")
		}
		if !u.IsAdmin() {
			return ErrForbidden("Access denied")
		}
		return fn(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
