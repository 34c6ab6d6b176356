package cookie

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/dmitrymomot/storefront/pkg/kv"
)

// ErrInvalidOrigin is returned when the jar origin is not an absolute URL.
var ErrInvalidOrigin = errors.New("cookie: invalid origin")

// StorageKey is the kv entry holding persisted cookies.
var StorageKey = kv.JSON[[]Record]("cookies")

// Record is the persisted form of a cookie.
type Record struct {
	Expires  time.Time `json:"expires,omitzero"`
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain,omitempty"`
	Path     string    `json:"path,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HTTPOnly bool      `json:"http_only,omitempty"`
}

func (r Record) expired(now time.Time) bool {
	return !r.Expires.IsZero() && !r.Expires.After(now)
}

func (r Record) httpCookie() *http.Cookie {
	return &http.Cookie{
		Name:     r.Name,
		Value:    r.Value,
		Domain:   r.Domain,
		Path:     r.Path,
		Expires:  r.Expires,
		Secure:   r.Secure,
		HttpOnly: r.HTTPOnly,
	}
}

// Jar is an http.CookieJar scoped to a single origin whose cookies are
// persisted in a kv.Store.
type Jar struct {
	inner   *cookiejar.Jar
	origin  *url.URL
	slice   *kv.Slice
	logger  *slog.Logger
	now     func() time.Time
	records map[string]Record
	mu      sync.Mutex
}

// JarOption configures a Jar.
type JarOption func(*Jar)

// WithJarLogger sets the logger used to report persistence failures.
func WithJarLogger(l *slog.Logger) JarOption {
	return func(j *Jar) {
		if l != nil {
			j.logger = l
		}
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) JarOption {
	return func(j *Jar) {
		if now != nil {
			j.now = now
		}
	}
}

// NewJar creates a jar for origin and restores cookies persisted in store.
// A nil store keeps cookies in memory only.
func NewJar(ctx context.Context, origin string, store kv.Store, opts ...JarOption) (*Jar, error) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Join(ErrInvalidOrigin, err)
	}

	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	if store == nil {
		store = kv.NewMemory()
	}

	j := &Jar{
		inner:   inner,
		origin:  &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"},
		slice:   kv.NewSlice(store, StorageKey),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
		records: make(map[string]Record),
	}
	for _, opt := range opts {
		opt(j)
	}

	if err := j.restore(ctx); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Jar) restore(ctx context.Context) error {
	saved, err := kv.Get(ctx, j.slice, StorageKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if errors.Is(err, kv.ErrDecode) {
		j.logger.WarnContext(ctx, "discarding unreadable cookie state", slog.Any("error", err))
		return nil
	}
	if err != nil {
		return err
	}

	now := j.now()
	cookies := make([]*http.Cookie, 0, len(saved))
	for _, r := range saved {
		if r.expired(now) {
			continue
		}
		j.records[r.Name] = r
		cookies = append(cookies, r.httpCookie())
	}
	j.inner.SetCookies(j.origin, cookies)
	return nil
}

// Origin returns the URL the jar is scoped to.
func (j *Jar) Origin() *url.URL {
	u := *j.origin
	return &u
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.inner.SetCookies(u, cookies)
	if u.Host != j.origin.Host {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	for _, c := range cookies {
		r := Record{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}
		if c.MaxAge > 0 {
			r.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		if c.MaxAge < 0 || r.expired(now) {
			delete(j.records, c.Name)
			continue
		}
		j.records[c.Name] = r
	}

	if err := j.persist(context.Background()); err != nil {
		j.logger.Error("failed to persist cookies", slog.Any("error", err))
	}
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.inner.Cookies(u)
}

// Value returns the value of a live cookie for the jar origin.
func (j *Jar) Value(name string) (string, bool) {
	for _, c := range j.inner.Cookies(j.origin) {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// Has reports whether every named cookie is present.
func (j *Jar) Has(names ...string) bool {
	for _, n := range names {
		if _, ok := j.Value(n); !ok {
			return false
		}
	}
	return true
}

// Expire drops the named cookies by setting an already-past expiry.
func (j *Jar) Expire(ctx context.Context, names ...string) error {
	past := time.Unix(0, 0)
	expired := make([]*http.Cookie, 0, len(names))

	j.mu.Lock()
	defer j.mu.Unlock()

	for _, n := range names {
		path := "/"
		if r, ok := j.records[n]; ok && r.Path != "" {
			path = r.Path
		}
		expired = append(expired, &http.Cookie{Name: n, Path: path, Expires: past})
		delete(j.records, n)
	}
	j.inner.SetCookies(j.origin, expired)

	return j.persist(ctx)
}

// persist writes the current records. Callers hold j.mu.
func (j *Jar) persist(ctx context.Context) error {
	if len(j.records) == 0 {
		return kv.Delete(ctx, j.slice, StorageKey)
	}
	out := make([]Record, 0, len(j.records))
	for _, r := range j.records {
		out = append(out, r)
	}
	return kv.Set(ctx, j.slice, StorageKey, out)
}
