package domain

import (
	"errors"
	"fmt"
)

// Business-rule errors. Each of these aborts a settlement atomically; none
// of them leave partial state behind.
var (
	ErrEmptyOrder          = errors.New("cannot settle an empty order")
	ErrProductNotFound     = errors.New("product not found")
	ErrInsufficientPayment = errors.New("insufficient payment amount")
	ErrInvalidAdjustment   = errors.New("invalid stock adjustment")
	ErrInvalidDiscount     = errors.New("discount must be between 0 and 100")
	ErrInvalidPayment      = errors.New("unknown payment method")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotCompleted   = errors.New("order is not completed")
	ErrNoReturnItems       = errors.New("no items selected for return")
	ErrItemReturned        = errors.New("order item already returned")
	ErrCustomerNotFound    = errors.New("customer not found")
)

// InsufficientStockError names the offending product so the till can tell
// the cashier which line to fix.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (need %d, have %d)", e.ProductID, e.Requested, e.Available)
}

// IsBusinessError reports whether err is one of the validation/stock errors
// a caller should surface as a rejected request rather than a server fault.
func IsBusinessError(err error) bool {
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		return true
	}
	for _, known := range []error{
		ErrEmptyOrder, ErrProductNotFound, ErrInsufficientPayment,
		ErrInvalidAdjustment, ErrInvalidDiscount, ErrInvalidPayment,
		ErrOrderNotFound, ErrOrderNotCompleted, ErrNoReturnItems,
		ErrItemReturned, ErrCustomerNotFound,
	} {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}
