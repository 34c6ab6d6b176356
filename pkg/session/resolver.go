package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/storefront/pkg/api"
	"github.com/dmitrymomot/storefront/pkg/kv"
)

// Cache keys owned by the resolver.
var (
	UsernameKey = kv.String("username")
	AdminKey    = kv.Bool("isAdmin")
)

const (
	maxResolveAttempts  = 3
	defaultQueryTimeout = 15 * time.Second
)

// Cookies is the cookie runtime the resolver reads and expires.
type Cookies interface {
	Value(name string) (string, bool)
	Expire(ctx context.Context, names ...string) error
}

// Resolver derives the current Session from the identity cache and the
// session cookies.
//
// Resolutions that need the network are coalesced, and every cache write is
// tagged with the generation it was started in. Invalidate and Remember
// advance the generation, so an in-flight probe that finishes after a
// logout or login never overwrites the newer state. A shared role query
// outlives the caller that started it; each caller waits on its own context.
type Resolver struct {
	cache        *kv.Slice
	cookies      Cookies
	roles        RoleQuery
	logger       *slog.Logger
	group        singleflight.Group
	queryTimeout time.Duration
	gen          atomic.Uint64
	mu           sync.Mutex
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithQueryTimeout bounds a shared role query.
func WithQueryTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.queryTimeout = d
		}
	}
}

// NewResolver creates a resolver over store and cookies.
// The resolver only touches the username and isAdmin keys of store.
func NewResolver(store kv.Store, cookies Cookies, roles RoleQuery, opts ...Option) *Resolver {
	r := &Resolver{
		cache:   kv.NewSlice(store, UsernameKey, AdminKey),
		cookies: cookies,
		roles:   roles,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),

		queryTimeout: defaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the current session. A cached identity is returned without
// network I/O. Errors are storage failures only.
func (r *Resolver) Resolve(ctx context.Context) (Session, error) {
	for attempt := 1; ; attempt++ {
		s, stale, err := r.resolveOnce(ctx)
		if err != nil || !stale || attempt == maxResolveAttempts {
			return s, err
		}
		r.logger.DebugContext(ctx, "session resolution superseded, retrying", slog.Int("attempt", attempt))
	}
}

func (r *Resolver) resolveOnce(ctx context.Context) (Session, bool, error) {
	gen := r.gen.Load()

	entry, err := r.readCache(ctx)
	if err != nil {
		return Session{}, false, err
	}

	token, _ := r.cookies.Value(api.TokenCookie)
	username, _ := r.cookies.Value(api.UsernameCookie)
	ev := Evidence{
		Cache:   entry,
		Cookies: CookieEvidence{Token: token != "", Username: username},
	}

	switch Classify(ev.Cache, ev.Cookies) {
	case StateCacheHit:
		return Resolve(ev), false, nil

	case StateUnauthenticated:
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.gen.Load() != gen {
			return Resolve(ev), true, nil
		}
		if err := r.cache.Clear(ctx); err != nil {
			return Session{}, false, fmt.Errorf("session: clear stale cache: %w", err)
		}
		return Resolve(ev), false, nil
	}

	if err := ctx.Err(); err != nil {
		return Session{}, false, err
	}

	key := fmt.Sprintf("%d/%s", gen, username)
	ch := r.group.DoChan(key, func() (any, error) {
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.queryTimeout)
		defer cancel()
		return r.roles.Query(qctx), nil
	})
	select {
	case <-ctx.Done():
		return Session{}, false, ctx.Err()
	case res := <-ch:
		ev.Role = res.Val.(RoleResult)
	}
	s := Resolve(ev)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen.Load() != gen {
		return s, true, nil
	}
	if err := r.writeCache(ctx, s.Identity, s.HasRole(RoleAdmin)); err != nil {
		return Session{}, false, err
	}

	r.logger.DebugContext(ctx, "session verified from cookies",
		slog.String("username", s.Identity),
		slog.Bool("admin", s.HasRole(RoleAdmin)),
	)
	return s, false, nil
}

// Remember caches an identity established by a login.
func (r *Resolver) Remember(ctx context.Context, username string, admin bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen.Add(1)
	return r.writeCache(ctx, username, admin)
}

// Invalidate forgets the cached identity and expires the session cookies.
func (r *Resolver) Invalidate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen.Add(1)
	return errors.Join(
		r.cache.Clear(ctx),
		r.cookies.Expire(ctx, api.TokenCookie, api.UsernameCookie),
	)
}

// Generation returns the current cache generation.
func (r *Resolver) Generation() uint64 {
	return r.gen.Load()
}

func (r *Resolver) readCache(ctx context.Context) (CacheEntry, error) {
	var entry CacheEntry

	name, err := kv.Get(ctx, r.cache, UsernameKey)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		return entry, nil
	case err != nil:
		return entry, fmt.Errorf("session: read cache: %w", err)
	}
	entry.Username = name

	admin, err := kv.Get(ctx, r.cache, AdminKey)
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return entry, fmt.Errorf("session: read cache: %w", err)
	}
	entry.Admin = admin
	return entry, nil
}

// writeCache stores the identity. Callers hold r.mu.
func (r *Resolver) writeCache(ctx context.Context, username string, admin bool) error {
	if err := kv.Set(ctx, r.cache, UsernameKey, username); err != nil {
		return fmt.Errorf("session: write cache: %w", err)
	}
	if err := kv.Set(ctx, r.cache, AdminKey, admin); err != nil {
		return fmt.Errorf("session: write cache: %w", err)
	}
	return nil
}
