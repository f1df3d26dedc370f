package domain

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
)

// ValidationError reports a request that is malformed before any storage
// work begins. Field may be empty for shape-level failures.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// ProductNotFoundError identifies which line referenced a missing product.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product id %d does not exist", e.ProductID)
}

func (e *ProductNotFoundError) Is(target error) bool { return target == ErrProductNotFound }

// InsufficientStockError identifies the offending product and how far
// short the stock fell. The caller may retry with a reduced quantity.
type InsufficientStockError struct {
	ProductID int64
	Stock     int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product id %d (have %d, want %d)", e.ProductID, e.Stock, e.Requested)
}

// ProductInUseError is returned when deleting a product that committed
// orders still reference.
type ProductInUseError struct {
	ProductID int64
}

func (e *ProductInUseError) Error() string {
	return fmt.Sprintf("product id %d is referenced by existing orders", e.ProductID)
}
