package api

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Session cookie names.
const (
	TokenCookie    = "JWT"
	UsernameCookie = "username"
)

// Role names as issued by the server.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// Credentials is the body of register and login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Message  string   `json:"message,omitempty"`
	Username string   `json:"username"`
	Role     string   `json:"role,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// IsAdmin reports whether the response grants the admin role.
func (r LoginResponse) IsAdmin() bool {
	return r.Role == RoleAdmin || slices.Contains(r.Roles, RoleAdmin)
}

// Identity describes the caller as seen by the server.
type Identity struct {
	Username string   `json:"username"`
	Role     string   `json:"role"`
	Roles    []string `json:"roles,omitempty"`
	Enabled  bool     `json:"enabled"`
}

// AuthStatus is the body of /api/auth/check.
type AuthStatus struct {
	Username      string `json:"username,omitempty"`
	Role          string `json:"role,omitempty"`
	Authenticated bool   `json:"authenticated"`
	Enabled       bool   `json:"enabled"`
}

// Product is a catalog entry.
type Product struct {
	Price       decimal.Decimal `json:"price"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ID          int64           `json:"id,omitempty"`
	Stock       int             `json:"stock"`
}

// OrderLine is one requested product in a checkout.
type OrderLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// OrderRequest is the checkout body.
type OrderRequest struct {
	Items []OrderLine `json:"items"`
}

// OrderItem is a priced line of a placed order.
type OrderItem struct {
	Price       decimal.Decimal `json:"price"`
	ProductName string          `json:"productName"`
	ProductID   int64           `json:"productId"`
	Quantity    int             `json:"quantity"`
}

// Order is the checkout confirmation and order history entry.
type Order struct {
	CreatedAt time.Time       `json:"createdAt"`
	Total     decimal.Decimal `json:"total"`
	User      string          `json:"user"`
	Items     []OrderItem     `json:"items"`
	ID        int64           `json:"id"`
}

// User is an account as listed by the admin endpoints.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	ID       int64  `json:"id"`
	Enabled  bool   `json:"enabled"`
}
