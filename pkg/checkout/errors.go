package checkout

import "errors"

var (
	ErrEmptyCart      = errors.New("checkout: cart is empty")
	ErrInProgress     = errors.New("checkout: submission already in progress")
	ErrFailed         = errors.New("checkout: submission failed")
	ErrCartNotCleared = errors.New("checkout: order placed but cart was not cleared")
)

// Failure is returned when the server rejects or never receives the order.
// The cart is left untouched.
type Failure struct {
	Err     error
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() []error {
	return []error{ErrFailed, f.Err}
}
