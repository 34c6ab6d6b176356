// Package checkout submits a cart as an order.
//
// A Coordinator moves through Idle → Submitting → Succeeded or Failed. The
// cart is cleared only after the server confirms the order, so a failed or
// unreachable checkout can simply be retried. Submissions are not retried
// automatically.
//
// Without WithIdempotencyKeys a retried submission may create a duplicate
// order on the server.
package checkout
