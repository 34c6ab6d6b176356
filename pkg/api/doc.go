// Package api is a typed client for the storefront HTTP contract.
//
// Every call carries the cookie jar of the underlying http.Client, so the
// session established by Login is sent with all later requests.
//
// Failures are reported as *Error values classified by Kind. Read paths
// that have a safe default (product listing, the privilege probe, identity
// lookups) swallow auth and transport failures and return that default;
// write paths always surface the structured error:
//
//	products, err := c.ListProducts(ctx) // empty, nil on 401/403 or network failure
//	order, err := c.Checkout(ctx, req, "")
//	if errors.Is(err, api.ErrTransport) {
//		// retry later
//	}
//
// A circuit breaker can be placed in front of the transport with WithBreaker;
// while it is open, calls fail fast with KindTransport.
package api
