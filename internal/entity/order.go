package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is immutable once committed: there is no update or delete path.
type Order struct {
	ID           string
	CustomerName string
	OrderDate    time.Time
	Lines        []OrderLine
	CreatedAt    time.Time
}

// OrderLine pins the unit price the product carried at commit time.
// The product's live price may change later; the line's never does.
type OrderLine struct {
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
