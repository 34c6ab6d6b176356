package session

import (
	"context"

	"github.com/dmitrymomot/storefront/pkg/api"
)

// RoleQuery determines whether a cookie session holds the admin role.
// The set of implementations is closed: ProbeQuery and ClaimsQuery.
type RoleQuery interface {
	Query(ctx context.Context) RoleResult
	sealed()
}

// Prober calls an endpoint gated to administrators.
type Prober interface {
	ProbeAdmin(ctx context.Context) bool
}

// ClaimsSource reports the role the server associates with the session.
type ClaimsSource interface {
	Check(ctx context.Context) (api.AuthStatus, error)
}

// ProbeQuery infers the admin role from the success of a privileged call.
// Any failure, including an unreachable server, is a denial.
type ProbeQuery struct {
	Prober Prober
}

func (q ProbeQuery) Query(ctx context.Context) RoleResult {
	if q.Prober != nil && q.Prober.ProbeAdmin(ctx) {
		return RoleGranted
	}
	return RoleDenied
}

func (ProbeQuery) sealed() {}

// ClaimsQuery reads the role claim from the session check endpoint.
type ClaimsQuery struct {
	Source ClaimsSource
}

func (q ClaimsQuery) Query(ctx context.Context) RoleResult {
	if q.Source == nil {
		return RoleDenied
	}
	st, err := q.Source.Check(ctx)
	if err != nil {
		return RoleUnknown
	}
	if st.Authenticated && st.Role == api.RoleAdmin {
		return RoleGranted
	}
	return RoleDenied
}

func (ClaimsQuery) sealed() {}
