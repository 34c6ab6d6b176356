package repository

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("repository: not found")
	ErrDuplicate         = errors.New("repository: already exists")
	ErrEmptyOrder        = errors.New("repository: order has no items")
	ErrInvalidQuantity   = errors.New("repository: quantity must be positive")
	ErrInsufficientStock = errors.New("repository: insufficient stock")
)

// StockError reports the product that could not cover an order line.
type StockError struct {
	ProductName string
	ProductID   int64
}

func (e *StockError) Error() string {
	return fmt.Sprintf("Not enough stock for product %s", e.ProductName)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}
