package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/storefront/internal/notify"
	"github.com/dmitrymomot/storefront/internal/repository"
	"github.com/dmitrymomot/storefront/pkg/api"
)

const (
	msgRegistered      = "User registered! Check email to verify."
	msgRegisteredReady = "User registered! You can now login."
	msgBadCredentials  = "Wrong username or password"
	msgNotVerified     = "Account not verified. Check your email!"
	msgVerified        = "Account verified! You can now login."
	msgLoggedOut       = "Logged out successfully"
)

// dummyHash keeps failed lookups as slow as failed password checks.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("storefront"), bcrypt.MinCost)

func (s *Server) register(w http.ResponseWriter, r *http.Request) error {
	var in api.Credentials
	if err := decodeJSON(w, r, &in); err != nil {
		return err
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Password == "" {
		return ErrBadRequest("Username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return ErrBadRequest("Registration failed", WithError(err))
	}

	u, err := s.repo.CreateUser(r.Context(), repository.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         repository.RoleUser,
		Enabled:      s.cfg.AutoVerify,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return ErrBadRequest("Username already taken!")
	}
	if err != nil {
		return ErrInternal("Registration failed", WithError(err))
	}

	s.logger.InfoContext(r.Context(), "user registered", slog.String("username", u.Username))

	if s.cfg.AutoVerify {
		writeText(w, http.StatusOK, msgRegisteredReady)
		return nil
	}
	token, err := s.tokens.IssueVerification(u, s.verifyTTL())
	if err != nil {
		return ErrInternal("Registration failed", WithError(err))
	}
	verifyURL := fmt.Sprintf("%s/api/auth/verify/%d?%s",
		strings.TrimRight(s.cfg.PublicURL, "/"), u.ID, url.Values{"token": {token}}.Encode())
	s.sendEmail(r.Context(), notify.Welcome(u.Email, u.Username, verifyURL))
	writeText(w, http.StatusOK, msgRegistered)
	return nil
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) error {
	var in api.Credentials
	if err := decodeJSON(w, r, &in); err != nil {
		return err
	}

	u, err := s.repo.UserByUsername(r.Context(), strings.TrimSpace(in.Username))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return ErrInternal("Login failed", WithError(err))
	}
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(in.Password))
		return ErrUnauthorized(msgBadCredentials)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return ErrUnauthorized(msgBadCredentials)
	}
	if !u.Enabled {
		return ErrUnauthorized(msgNotVerified)
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return ErrInternal("Login failed", WithError(err))
	}
	s.cookies.Set(w, api.TokenCookie, token, s.tokens.MaxAge())
	s.cookies.SetReadable(w, api.UsernameCookie, u.Username, s.tokens.MaxAge())

	s.logger.InfoContext(r.Context(), "login successful", slog.String("username", u.Username))
	s.sendEmail(r.Context(), notify.NewLogin(u.Email, u.Username))

	writeJSON(w, http.StatusOK, api.LoginResponse{
		Message:  "Login successful",
		Username: u.Username,
		Role:     u.Role,
		Roles:    []string{u.Role},
	})
	return nil
}

func (s *Server) logout(w http.ResponseWriter, _ *http.Request) error {
	s.cookies.Expire(w, api.TokenCookie, api.UsernameCookie)
	writeText(w, http.StatusOK, msgLoggedOut)
	return nil
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return ErrBadRequest("Verification failed", WithError(err))
	}
	claims, err := s.tokens.ParseVerification(r.URL.Query().Get("token"))
	if err != nil {
		return ErrBadRequest("Verification failed", WithError(err))
	}
	if claims.UserID != id {
		return ErrBadRequest("Verification failed", WithError(ErrInvalidToken))
	}
	if err := s.repo.SetEnabled(r.Context(), id, true); err != nil {
		return ErrBadRequest("Verification failed", WithError(err))
	}
	s.logger.InfoContext(r.Context(), "user verified", slog.Int64("user_id", id))
	writeText(w, http.StatusOK, msgVerified)
	return nil
}

func (s *Server) verifyTTL() time.Duration {
	if s.cfg.VerifyTTL > 0 {
		return s.cfg.VerifyTTL
	}
	return 24 * time.Hour
}

func (s *Server) check(w http.ResponseWriter, r *http.Request) error {
	u, ok := currentUser(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, api.AuthStatus{})
		return nil
	}
	writeJSON(w, http.StatusOK, api.AuthStatus{
		Authenticated: true,
		Username:      u.Username,
		Enabled:       u.Enabled,
		Role:          u.Role,
	})
	return nil
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) error {
	u, _ := currentUser(r.Context())
	writeJSON(w, http.StatusOK, api.Identity{
		Username: u.Username,
		Role:     u.Role,
		Roles:    []string{u.Role},
		Enabled:  u.Enabled,
	})
	return nil
}
