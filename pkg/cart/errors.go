package cart

import "errors"

var (
	ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")
	ErrInvalidProduct  = errors.New("cart: invalid product")
	ErrIndexOutOfRange = errors.New("cart: index out of range")
	ErrPersist         = errors.New("cart: failed to persist cart")
)
