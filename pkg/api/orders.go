package api

import (
	"context"
	"net/http"
)

// Checkout places an order. A non-empty idempotencyKey is sent in the
// Idempotency-Key header.
func (c *Client) Checkout(ctx context.Context, req OrderRequest, idempotencyKey string) (*Order, error) {
	const op = "checkout"
	if len(req.Items) == 0 {
		return nil, validationError(op, "cart is empty")
	}
	for _, it := range req.Items {
		if it.Quantity < 1 {
			return nil, validationError(op, "quantities must be positive")
		}
	}

	cl := call{op: op, method: http.MethodPost, path: "/api/orders/checkout", body: req}
	if idempotencyKey != "" {
		cl.header = http.Header{IdempotencyHeader: []string{idempotencyKey}}
	}

	var out Order
	if err := c.send(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyOrders lists the caller's orders.
func (c *Client) MyOrders(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := c.send(ctx, call{op: "my orders", method: http.MethodGet, path: "/api/orders/me"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AllOrders lists every order. Requires the admin role.
func (c *Client) AllOrders(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := c.send(ctx, call{op: "all orders", method: http.MethodGet, path: "/api/orders"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
