package session

import "slices"

// Role is a privilege held by a session.
type Role string

// RoleAdmin grants access to product management and user administration.
const RoleAdmin Role = "admin"

// Source records where a session was derived from.
type Source int

const (
	SourceNone Source = iota
	SourceCached
	SourceCookieVerified
)

func (s Source) String() string {
	switch s {
	case SourceCached:
		return "cached"
	case SourceCookieVerified:
		return "cookie"
	default:
		return "none"
	}
}

// Session is the resolved view of the current user.
// Roles is non-empty only when Source is not SourceNone.
type Session struct {
	Identity string
	Roles    []Role
	Source   Source
}

// Authenticated reports whether the session carries an identity.
func (s Session) Authenticated() bool {
	return s.Source != SourceNone && s.Identity != ""
}

// HasRole reports whether r is among the session roles.
func (s Session) HasRole(r Role) bool {
	return slices.Contains(s.Roles, r)
}

// State is the outcome of classifying the available evidence.
type State int

const (
	StateUnknown State = iota
	StateCacheHit
	StateCookieVerified
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateCacheHit:
		return "cache_hit"
	case StateCookieVerified:
		return "cookie_verified"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// CacheEntry is the fast-path identity cache.
type CacheEntry struct {
	Username string
	Admin    bool
}

// Present reports whether the cache holds an identity.
func (c CacheEntry) Present() bool {
	return c.Username != ""
}

// CookieEvidence describes the session cookies currently held.
type CookieEvidence struct {
	Username string
	Token    bool
}

// Complete reports whether both the token and the username cookie are set.
func (c CookieEvidence) Complete() bool {
	return c.Token && c.Username != ""
}

// RoleResult is the answer of a RoleQuery.
type RoleResult int

const (
	RoleUnknown RoleResult = iota
	RoleGranted
	RoleDenied
)

// Evidence is everything a resolution is decided from.
type Evidence struct {
	Cache   CacheEntry
	Cookies CookieEvidence
	Role    RoleResult
}

// Classify applies the precedence rule: a cached identity wins, then a
// complete pair of session cookies, otherwise the caller is unauthenticated.
func Classify(cache CacheEntry, cookies CookieEvidence) State {
	switch {
	case cache.Present():
		return StateCacheHit
	case cookies.Complete():
		return StateCookieVerified
	default:
		return StateUnauthenticated
	}
}

// Resolve builds the session for the given evidence. For cookie sessions
// only RoleGranted yields the admin role; unknown counts as denied.
func Resolve(ev Evidence) Session {
	switch Classify(ev.Cache, ev.Cookies) {
	case StateCacheHit:
		s := Session{Identity: ev.Cache.Username, Source: SourceCached}
		if ev.Cache.Admin {
			s.Roles = []Role{RoleAdmin}
		}
		return s
	case StateCookieVerified:
		s := Session{Identity: ev.Cookies.Username, Source: SourceCookieVerified}
		if ev.Role == RoleGranted {
			s.Roles = []Role{RoleAdmin}
		}
		return s
	default:
		return Session{Source: SourceNone}
	}
}
