package api

import (
	"context"
	"fmt"
	"net/http"
)

// ProbeAdmin calls the admin-only user listing and reports whether it
// succeeded. Every failure, including transport errors, reads as false.
func (c *Client) ProbeAdmin(ctx context.Context) bool {
	resp, err := c.do(ctx, call{op: "probe admin", method: http.MethodGet, path: "/api/admin/users"})
	return err == nil && resp.ok()
}

// ListUsers returns every account. Requires the admin role.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	if err := c.send(ctx, call{op: "list users", method: http.MethodGet, path: "/api/admin/users"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EnableUser activates an account.
func (c *Client) EnableUser(ctx context.Context, id int64) (string, error) {
	return c.userAction(ctx, "enable user", id, "enable")
}

// DisableUser deactivates an account.
func (c *Client) DisableUser(ctx context.Context, id int64) (string, error) {
	return c.userAction(ctx, "disable user", id, "disable")
}

// MakeAdmin grants the admin role.
func (c *Client) MakeAdmin(ctx context.Context, id int64) (string, error) {
	return c.userAction(ctx, "make admin", id, "make-admin")
}

func (c *Client) userAction(ctx context.Context, op string, id int64, action string) (string, error) {
	return c.sendText(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   fmt.Sprintf("/api/admin/users/%d/%s", id, action),
	})
}
