package kafka

import (
	"context"
	"errors"
	"log/slog"

	domain "github.com/Rizki-Rahmadani/management-product/internal/entity"
	"github.com/Rizki-Rahmadani/management-product/internal/usecase"
)

// StockReplenishedHandler applies warehouse intake events to the catalog.
type StockReplenishedHandler struct {
	Catalog *usecase.Catalog
	Log     *slog.Logger
}

func NewStockReplenishedHandler(catalog *usecase.Catalog, log *slog.Logger) *StockReplenishedHandler {
	return &StockReplenishedHandler{Catalog: catalog, Log: log}
}

func (h *StockReplenishedHandler) Handle(ctx context.Context, ev usecase.StockReplenishedMsg) error {
	err := h.Catalog.Replenish(ctx, ev.ProductID, ev.Quantity)
	if err == nil {
		h.Log.Info("stock replenished",
			"product_id", ev.ProductID, "quantity", ev.Quantity, "source", ev.Source)
		return nil
	}

	// A replenishment for an unknown or malformed product cannot succeed
	// on retry; drop it instead of wedging the partition.
	var vErr *domain.ValidationError
	if errors.Is(err, domain.ErrProductNotFound) || errors.As(err, &vErr) {
		h.Log.Warn("dropping unusable replenishment event",
			"product_id", ev.ProductID, "quantity", ev.Quantity, "err", err)
		return nil
	}
	return err
}
