package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Roles stored on accounts.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// User is a stored account.
type User struct {
	CreatedAt    time.Time
	Username     string
	Email        string
	PasswordHash string
	Role         string
	ID           int64
	Enabled      bool
}

// IsAdmin reports whether the account holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Product is a catalog entry.
type Product struct {
	Price       decimal.Decimal
	Name        string
	Description string
	ID          int64
	Stock       int
}

// OrderLine is a requested product and quantity.
type OrderLine struct {
	ProductID int64
	Quantity  int
}

// OrderItem is a line of a placed order, priced at checkout time.
type OrderItem struct {
	Price       decimal.Decimal
	ProductName string
	ProductID   int64
	Quantity    int
}

// Order is a placed order.
type Order struct {
	CreatedAt time.Time
	Total     decimal.Decimal
	Username  string
	Items     []OrderItem
	ID        int64
}

// Users stores accounts.
type Users interface {
	CreateUser(ctx context.Context, u User) (User, error)
	UserByID(ctx context.Context, id int64) (User, error)
	UserByUsername(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	SetEnabled(ctx context.Context, id int64, enabled bool) error
	SetRole(ctx context.Context, id int64, role string) error
}

// Products stores the catalog.
type Products interface {
	ListProducts(ctx context.Context) ([]Product, error)
	Product(ctx context.Context, id int64) (Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, p Product) (Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// Orders stores placed orders.
type Orders interface {
	// PlaceOrder prices the lines, decrements stock and stores the order
	// atomically. A non-empty key that was already used by the same user
	// returns the order placed with it instead of placing a new one.
	PlaceOrder(ctx context.Context, username string, lines []OrderLine, key string) (Order, error)
	OrdersByUser(ctx context.Context, username string) ([]Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
}

// Repository is the full persistence contract.
type Repository interface {
	Users
	Products
	Orders
}

// Total sums price times quantity over items.
func Total(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// ValidateLines checks that an order has lines with positive quantities.
func ValidateLines(lines []OrderLine) error {
	if len(lines) == 0 {
		return ErrEmptyOrder
	}
	for _, l := range lines {
		if l.Quantity < 1 {
			return ErrInvalidQuantity
		}
	}
	return nil
}
