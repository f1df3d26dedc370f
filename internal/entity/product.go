package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Stock is the authoritative on-hand count;
// it is only decremented through the ledger's reservation path.
type Product struct {
	ID        int64
	Name      string
	Price     decimal.Decimal
	Stock     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

var minPrice = decimal.New(1, -2) // 0.01

func (p *Product) Validate() error {
	if len(strings.TrimSpace(p.Name)) < 3 {
		return &ValidationError{Field: "name", Reason: "name must be at least 3 characters"}
	}
	if p.Price.LessThan(minPrice) {
		return &ValidationError{Field: "price", Reason: "price must be at least 0.01"}
	}
	if p.Stock < 0 {
		return &ValidationError{Field: "stock", Reason: "stock must not be negative"}
	}
	return nil
}
