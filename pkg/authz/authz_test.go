package authz_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/authz"
	"github.com/dmitrymomot/storefront/pkg/session"
)

func TestIsPrivileged(t *testing.T) {
	t.Parallel()

	admin := session.Session{Identity: "root", Roles: []session.Role{session.RoleAdmin}, Source: session.SourceCached}
	user := session.Session{Identity: "bob", Source: session.SourceCookieVerified}
	anon := session.Session{}

	require.True(t, authz.IsPrivileged(admin))
	require.False(t, authz.IsPrivileged(user))
	require.False(t, authz.IsPrivileged(anon))

	require.NoError(t, authz.Require(admin))
	require.ErrorIs(t, authz.Require(user), authz.ErrForbidden)
}
