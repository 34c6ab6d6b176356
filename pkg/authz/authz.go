// Package authz decides whether a session may reach privileged actions.
// The decision is advisory; the server enforces authorization on its own.
package authz

import (
	"errors"

	"github.com/dmitrymomot/storefront/pkg/session"
)

// ErrForbidden is returned by Require for non-privileged sessions.
var ErrForbidden = errors.New("authz: admin role required")

// IsPrivileged reports whether the session holds the admin role.
func IsPrivileged(s session.Session) bool {
	return s.HasRole(session.RoleAdmin)
}

// Require returns ErrForbidden unless the session is privileged.
func Require(s session.Session) error {
	if !IsPrivileged(s) {
		return ErrForbidden
	}
	return nil
}
