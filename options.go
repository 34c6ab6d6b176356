package storefront

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/dmitrymomot/storefront/pkg/kv"
)

// RoleStrategy selects how the admin role of a cookie session is determined.
type RoleStrategy string

const (
	// RoleProbe treats access to the admin user listing as proof of the
	// admin role.
	RoleProbe RoleStrategy = "probe"
	// RoleClaims reads the role reported by /api/auth/check.
	RoleClaims RoleStrategy = "claims"
)

// Option configures a Client.
type Option func(*options)

type options struct {
	store       kv.Store
	httpClient  *http.Client
	logger      *slog.Logger
	breaker     *gobreaker.Settings
	userAgent   string
	roles       RoleStrategy
	closers     []func() error
	timeout     time.Duration
	idempotency bool
}

// WithStore sets the store for the session cache, cart and cookies.
// Defaults to an in-memory store.
func WithStore(s kv.Store) Option {
	return func(o *options) {
		if s != nil {
			o.store = s
		}
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
// The client is copied; its Jar is replaced by the persistent cookie jar.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithLogger sets the logger shared by all components.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRoleStrategy selects the admin role query. Defaults to RoleProbe.
func WithRoleStrategy(s RoleStrategy) Option {
	return func(o *options) {
		if s != "" {
			o.roles = s
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithBreaker places a circuit breaker in front of the API transport.
func WithBreaker(st gobreaker.Settings) Option {
	return func(o *options) {
		o.breaker = &st
	}
}

// WithIdempotencyKeys makes checkout send an Idempotency-Key header.
func WithIdempotencyKeys() Option {
	return func(o *options) {
		o.idempotency = true
	}
}

// WithUserAgent overrides the User-Agent sent with every call.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// withCloser registers a function run by Client.Close.
func withCloser(fn func() error) Option {
	return func(o *options) {
		o.closers = append(o.closers, fn)
	}
}
