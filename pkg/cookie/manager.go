package cookie

import (
	"errors"
	"net/http"
	"time"
)

// ErrNotFound is returned when a requested cookie is absent.
var ErrNotFound = errors.New("cookie: not found")

// Manager writes cookies with shared attributes.
type Manager struct {
	domain   string
	path     string
	sameSite http.SameSite
	secure   bool
	httpOnly bool
}

// Option configures the Manager.
type Option func(*Manager)

// New creates a cookie Manager with the given options.
func New(opts ...Option) *Manager {
	m := &Manager{
		path:     "/",
		httpOnly: true,
		sameSite: http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithDomain sets the cookie domain.
func WithDomain(domain string) Option {
	return func(m *Manager) {
		m.domain = domain
	}
}

// WithPath sets the cookie path.
func WithPath(path string) Option {
	return func(m *Manager) {
		m.path = path
	}
}

// WithSecure sets the Secure flag.
func WithSecure(secure bool) Option {
	return func(m *Manager) {
		m.secure = secure
	}
}

// WithSameSite sets the SameSite attribute.
func WithSameSite(ss http.SameSite) Option {
	return func(m *Manager) {
		m.sameSite = ss
	}
}

// Get returns a cookie value from the request.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrNotFound
		}
		return "", err
	}
	return c.Value, nil
}

// Set writes an HttpOnly cookie living maxAge seconds.
func (m *Manager) Set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, m.cookie(name, value, maxAge, m.httpOnly))
}

// SetReadable writes a cookie that client scripts can read.
func (m *Manager) SetReadable(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, m.cookie(name, value, maxAge, false))
}

// Expire instructs the client to drop the named cookies.
func (m *Manager) Expire(w http.ResponseWriter, names ...string) {
	for _, name := range names {
		c := m.cookie(name, "", -1, m.httpOnly)
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
}

func (m *Manager) cookie(name, value string, maxAge int, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.path,
		Domain:   m.domain,
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: httpOnly,
		SameSite: m.sameSite,
	}
}
