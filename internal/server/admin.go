package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/storefront/internal/repository"
)

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) error {
	users, err := s.repo.ListUsers(r.Context())
	if err != nil {
		return ErrInternal("Failed to retrieve users", WithError(err))
	}
	writeJSON(w, http.StatusOK, toAPIUsers(users))
	return nil
}

func (s *Server) enableUser(w http.ResponseWriter, r *http.Request) error {
	return s.userAction(w, r, "User enabled", func(id int64) error {
		return s.repo.SetEnabled(r.Context(), id, true)
	})
}

func (s *Server) disableUser(w http.ResponseWriter, r *http.Request) error {
	return s.userAction(w, r, "User disabled", func(id int64) error {
		return s.repo.SetEnabled(r.Context(), id, false)
	})
}

func (s *Server) makeAdmin(w http.ResponseWriter, r *http.Request) error {
	return s.userAction(w, r, "User promoted to admin", func(id int64) error {
		return s.repo.SetRole(r.Context(), id, repository.RoleAdmin)
	})
}

func (s *Server) userAction(w http.ResponseWriter, r *http.Request, done string, fn func(int64) error) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	err = fn(id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound("User not found")
	}
	if err != nil {
		return ErrInternal("User update failed", WithError(err))
	}
	s.logger.InfoContext(r.Context(), "user updated",
		slog.Int64("user_id", id),
		slog.String("result", done),
	)
	writeText(w, http.StatusOK, done)
	return nil
}
