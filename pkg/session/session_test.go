package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/api"
	"github.com/dmitrymomot/storefront/pkg/session"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		cache   session.CacheEntry
		cookies session.CookieEvidence
		want    session.State
	}{
		{name: "empty", want: session.StateUnauthenticated},
		{name: "cache wins over cookies", cache: session.CacheEntry{Username: "a"}, cookies: session.CookieEvidence{Token: true, Username: "b"}, want: session.StateCacheHit},
		{name: "both cookies", cookies: session.CookieEvidence{Token: true, Username: "b"}, want: session.StateCookieVerified},
		{name: "token only", cookies: session.CookieEvidence{Token: true}, want: session.StateUnauthenticated},
		{name: "username only", cookies: session.CookieEvidence{Username: "b"}, want: session.StateUnauthenticated},
		{name: "cached admin flag without username", cache: session.CacheEntry{Admin: true}, want: session.StateUnauthenticated},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, session.Classify(tc.cache, tc.cookies))
		})
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("cache hit keeps cached admin flag", func(t *testing.T) {
		t.Parallel()

		s := session.Resolve(session.Evidence{Cache: session.CacheEntry{Username: "alice", Admin: true}, Role: session.RoleDenied})
		require.Equal(t, "alice", s.Identity)
		require.Equal(t, session.SourceCached, s.Source)
		require.True(t, s.HasRole(session.RoleAdmin))
	})

	t.Run("cookie session needs a granted role", func(t *testing.T) {
		t.Parallel()

		cookies := session.CookieEvidence{Token: true, Username: "bob"}
		for role, admin := range map[session.RoleResult]bool{
			session.RoleGranted: true,
			session.RoleDenied:  false,
			session.RoleUnknown: false,
		} {
			s := session.Resolve(session.Evidence{Cookies: cookies, Role: role})
			require.Equal(t, "bob", s.Identity)
			require.Equal(t, session.SourceCookieVerified, s.Source)
			require.Equal(t, admin, s.HasRole(session.RoleAdmin))
		}
	})

	t.Run("unauthenticated never carries roles", func(t *testing.T) {
		t.Parallel()

		s := session.Resolve(session.Evidence{Role: session.RoleGranted})
		require.Empty(t, s.Identity)
		require.Empty(t, s.Roles)
		require.Equal(t, session.SourceNone, s.Source)
		require.False(t, s.Authenticated())
	})
}

type fakeProber bool

func (p fakeProber) ProbeAdmin(context.Context) bool { return bool(p) }

type fakeClaims struct {
	err    error
	status api.AuthStatus
}

func (c fakeClaims) Check(context.Context) (api.AuthStatus, error) { return c.status, c.err }

func TestRoleQueries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	require.Equal(t, session.RoleGranted, session.ProbeQuery{Prober: fakeProber(true)}.Query(ctx))
	require.Equal(t, session.RoleDenied, session.ProbeQuery{Prober: fakeProber(false)}.Query(ctx))
	require.Equal(t, session.RoleDenied, session.ProbeQuery{}.Query(ctx))

	admin := fakeClaims{status: api.AuthStatus{Authenticated: true, Role: api.RoleAdmin}}
	user := fakeClaims{status: api.AuthStatus{Authenticated: true, Role: api.RoleUser}}
	anon := fakeClaims{status: api.AuthStatus{Role: api.RoleAdmin}}
	broken := fakeClaims{err: errors.New("boom")}

	require.Equal(t, session.RoleGranted, session.ClaimsQuery{Source: admin}.Query(ctx))
	require.Equal(t, session.RoleDenied, session.ClaimsQuery{Source: user}.Query(ctx))
	require.Equal(t, session.RoleDenied, session.ClaimsQuery{Source: anon}.Query(ctx))
	require.Equal(t, session.RoleUnknown, session.ClaimsQuery{Source: broken}.Query(ctx))
}
