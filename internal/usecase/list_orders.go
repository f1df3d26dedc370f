package usecase

import (
	"context"

	domain "github.com/Rizki-Rahmadani/management-product/internal/entity"
)

// ListOrders is the read path. Totals are computed, not stored; the
// reader's isolation guarantees a half-committed order is never visible.
type ListOrders struct {
	query OrderReader
}

func NewListOrders(query OrderReader) *ListOrders {
	return &ListOrders{query: query}
}

func (uc *ListOrders) Execute(ctx context.Context) ([]domain.Order, error) {
	return uc.query.List(ctx)
}
