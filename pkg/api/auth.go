package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Register creates an account and returns the server's message.
func (c *Client) Register(ctx context.Context, cr Credentials) (string, error) {
	const op = "register"
	if strings.TrimSpace(cr.Username) == "" || cr.Password == "" {
		return "", validationError(op, "username and password are required")
	}
	return c.sendText(ctx, call{op: op, method: http.MethodPost, path: "/api/auth/register", body: cr})
}

// Login authenticates and lets the server set the session cookies.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	const op = "login"
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, validationError(op, "username and password are required")
	}

	var out LoginResponse
	err := c.send(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   Credentials{Username: username, Password: password},
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Username == "" {
		out.Username = username
	}
	return &out, nil
}

// Logout ends the server session.
func (c *Client) Logout(ctx context.Context) error {
	return c.send(ctx, call{op: "logout", method: http.MethodPost, path: "/api/auth/logout"}, nil)
}

// Me returns the authenticated identity, or nil when there is none.
func (c *Client) Me(ctx context.Context) (*Identity, error) {
	var out Identity
	err := c.send(ctx, call{op: "me", method: http.MethodGet, path: "/api/auth/me"}, &out)
	if isQuiet(err) || isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if out.Username == "" {
		return nil, nil
	}
	return &out, nil
}

// Check returns the server's view of the session. Auth and transport
// failures yield an unauthenticated status.
func (c *Client) Check(ctx context.Context) (AuthStatus, error) {
	var out AuthStatus
	err := c.send(ctx, call{op: "check", method: http.MethodGet, path: "/api/auth/check"}, &out)
	if isQuiet(err) {
		return AuthStatus{}, nil
	}
	if err != nil {
		return AuthStatus{}, err
	}
	return out, nil
}

// Verify confirms the e-mail address of a user with the token from the
// verification link.
func (c *Client) Verify(ctx context.Context, userID int64, token string) (string, error) {
	if token == "" {
		return "", &Error{Kind: KindValidation, Op: "verify", Message: "verification token is required"}
	}
	return c.sendText(ctx, call{
		op:     "verify",
		method: http.MethodGet,
		path:   fmt.Sprintf("/api/auth/verify/%d", userID),
		query:  url.Values{"token": {token}},
	})
}

func isNotFound(err error) bool {
	e, ok := AsError(err)
	return ok && e.Status == http.StatusNotFound
}
