package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/storefront/internal/notify"
	"github.com/dmitrymomot/storefront/internal/repository"
	"github.com/dmitrymomot/storefront/pkg/cookie"
	"github.com/dmitrymomot/storefront/pkg/health"
)

// Server serves the storefront HTTP API.
type Server struct {
	repo     repository.Repository
	tokens   *Tokens
	cookies  *cookie.Manager
	mail     notify.Dispatcher
	logger   *slog.Logger
	checks   health.Checks
	cfg      Config
	hashCost int
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDispatcher sets where account e-mails go. Defaults to the log.
func WithDispatcher(d notify.Dispatcher) Option {
	return func(s *Server) {
		if d != nil {
			s.mail = d
		}
	}
}

// WithHealthChecks adds readiness checks served at /health/ready.
func WithHealthChecks(checks health.Checks) Option {
	return func(s *Server) {
		for name, fn := range checks {
			s.checks[name] = fn
		}
	}
}

// WithHashCost sets the bcrypt cost for new passwords.
func WithHashCost(cost int) Option {
	return func(s *Server) {
		s.hashCost = cost
	}
}

// New creates a server over repo.
func New(repo repository.Repository, cfg Config, opts ...Option) (*Server, error) {
	tokens, err := NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	s := &Server{
		repo:     repo,
		tokens:   tokens,
		cookies:  cookie.New(cookie.WithSecure(cfg.SecureCookies)),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		checks:   health.Checks{},
		cfg:      cfg,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.mail == nil {
		renderer, err := notify.NewRenderer()
		if err != nil {
			return nil, err
		}
		s.mail = notify.NewMailer(renderer, notify.NewLogSender(s.logger))
	}
	return s, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID, s.recoverer, s.requestLogger, cors(s.cfg.CORSOrigins), s.authenticate)

	r.NotFound(s.handle(func(http.ResponseWriter, *http.Request) error {
		return ErrNotFound("Not found")
	}))
	r.MethodNotAllowed(s.handle(func(http.ResponseWriter, *http.Request) error {
		return NewHTTPError(http.StatusMethodNotAllowed, "Method not allowed")
	}))

	r.Get("/health/live", health.LivenessHandler())
	r.Get("/health/ready", health.ReadinessHandler(s.checks, health.WithLogger(s.logger)))

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", s.handle(s.register))
		r.Post("/login", s.handle(s.login))
		r.Post("/logout", s.handle(s.logout))
		r.Get("/verify/{id}", s.handle(s.verify))
		r.Get("/check", s.handle(s.check))
		r.Get("/me", s.handle(s.requireAuth(s.me)))
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", s.handle(s.listProducts))
		r.Get("/{id}", s.handle(s.getProduct))
		r.Post("/", s.handle(s.requireAdmin(s.createProduct)))
		r.Put("/{id}", s.handle(s.requireAdmin(s.updateProduct)))
		r.Delete("/{id}", s.handle(s.requireAdmin(s.deleteProduct)))
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/checkout", s.handle(s.requireAuth(s.checkout)))
		r.Get("/me", s.handle(s.requireAuth(s.myOrders)))
		r.Get("/", s.handle(s.requireAdmin(s.allOrders)))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Get("/users", s.handle(s.requireAdmin(s.listUsers)))
		r.Post("/users/{id}/enable", s.handle(s.requireAdmin(s.enableUser)))
		r.Post("/users/{id}/disable", s.handle(s.requireAdmin(s.disableUser)))
		r.Post("/users/{id}/make-admin", s.handle(s.requireAdmin(s.makeAdmin)))
	})

	return r
}

// Seed creates the configured admin account if it does not exist yet.
func (s *Server) Seed(ctx context.Context) error {
	name := strings.TrimSpace(s.cfg.AdminUsername)
	if name == "" || s.cfg.AdminPassword == "" {
		return nil
	}

	_, err := s.repo.UserByUsername(ctx, name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.AdminPassword), s.hashCost)
	if err != nil {
		return err
	}
	_, err = s.repo.CreateUser(ctx, repository.User{
		Username:     name,
		Email:        s.cfg.AdminEmail,
		PasswordHash: string(hash),
		Role:         repository.RoleAdmin,
		Enabled:      true,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil
	}
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "admin account created", slog.String("username", name))
	return nil
}

// sendEmail hands msg to the dispatcher; failures are logged, never surfaced.
func (s *Server) sendEmail(ctx context.Context, msg notify.Message) {
	if msg.To == "" {
		s.logger.DebugContext(ctx, "email skipped, no address", slog.String("template", msg.Template))
		return
	}
	if err := s.mail.Dispatch(context.WithoutCancel(ctx), msg); err != nil {
		s.logger.ErrorContext(ctx, "email dispatch failed",
			slog.String("template", msg.Template),
			slog.Any("error", err),
		)
	}
}
