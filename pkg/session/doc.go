// Package session resolves who the current user is from two sources of
// truth: a fast local cache and the server-issued session cookies.
//
// Resolution follows a fixed precedence, expressed by the pure functions
// Classify and Resolve:
//
//  1. A cached username wins. Its cached admin flag is trusted without a
//     network call until the cache is invalidated.
//  2. Otherwise, when both the JWT and username cookies are present, the
//     username cookie is taken as the identity and a RoleQuery decides the
//     admin role. The result is written back to the cache.
//  3. Otherwise the caller is unauthenticated and any stale cache is cleared.
//
// Two RoleQuery variants exist. ProbeQuery calls an admin-only endpoint and
// treats success as the admin role. ClaimsQuery reads the role claim of the
// session check endpoint.
package session
