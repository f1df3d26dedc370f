package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/Rizki-Rahmadani/management-product/internal/entity"
	"github.com/google/uuid"
)

var ErrDuplicate = errors.New("duplicate idempotency key")

// ChannelOrderPlaced is the outbox channel drained to RabbitMQ.
const ChannelOrderPlaced = "order.placed.v1"

type LineRequest struct {
	ProductID int64
	Quantity  int
}

type SubmitOrderInput struct {
	CustomerName   string
	OrderDate      time.Time
	IdempotencyKey string
	Lines          []LineRequest
}

// SubmitOrder commits an order against the inventory ledger with
// all-or-nothing semantics: either every line is persisted and every
// stock decrement applied, or nothing is.
type SubmitOrder struct {
	store Store
	query OrderReader
	idem  IdempotencyStore
}

func NewSubmitOrder(store Store, query OrderReader, idem IdempotencyStore) *SubmitOrder {
	return &SubmitOrder{store: store, query: query, idem: idem}
}

func (uc *SubmitOrder) Execute(ctx context.Context, in SubmitOrderInput) (*domain.Order, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	// Fast path: a retried submission returns the order it already created.
	if in.IdempotencyKey != "" {
		if id, ok, _ := uc.idem.Recall(ctx, "orders", in.IdempotencyKey); ok {
			return uc.query.GetByID(ctx, id)
		}
		ok, err := uc.idem.TryLock(ctx, "orders", in.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrDuplicate
		}
	}

	order := &domain.Order{
		ID:           uuid.NewString(),
		CustomerName: strings.TrimSpace(in.CustomerName),
		OrderDate:    in.OrderDate,
	}

	err := uc.store.WithinTx(ctx, func(tx OrderTx) error {
		if err := tx.InsertOrder(ctx, order.ID, order.CustomerName, order.OrderDate); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		// Lines reserve in listed order. Repeated product ids are
		// independent reservations; their quantities are not merged.
		for _, req := range in.Lines {
			snap, err := tx.ReserveStock(ctx, req.ProductID, req.Quantity)
			if err != nil {
				return err
			}
			line := domain.OrderLine{
				ProductID:   snap.ID,
				ProductName: snap.Name,
				Quantity:    req.Quantity,
				UnitPrice:   snap.UnitPrice,
			}
			if err := tx.InsertLine(ctx, order.ID, line); err != nil {
				return fmt.Errorf("insert line: %w", err)
			}
			order.Lines = append(order.Lines, line)
		}

		payload, err := json.Marshal(OrderPlacedMsg{
			OrderID:      order.ID,
			CustomerName: order.CustomerName,
			Total:        order.Total().StringFixed(2),
			LineCount:    len(order.Lines),
		})
		if err != nil {
			return fmt.Errorf("marshal outbox payload: %w", err)
		}
		return tx.InsertOutbox(ctx, ChannelOrderPlaced, payload)
	})
	if err != nil {
		// Nothing was persisted; lines built above are discarded with the
		// tx, and the fence is released so the same key can retry.
		if in.IdempotencyKey != "" {
			_ = uc.idem.Unlock(ctx, "orders", in.IdempotencyKey)
		}
		return nil, err
	}

	if in.IdempotencyKey != "" {
		_ = uc.idem.Remember(ctx, "orders", in.IdempotencyKey, order.ID)
	}
	return order, nil
}

// validateInput re-checks shape invariants even though the HTTP layer
// binds and validates first.
func validateInput(in SubmitOrderInput) error {
	if len(strings.TrimSpace(in.CustomerName)) < 3 {
		return &domain.ValidationError{Field: "customer_name", Reason: "customer name must be at least 3 characters"}
	}
	if in.OrderDate.IsZero() {
		return &domain.ValidationError{Field: "order_date", Reason: "order date must be a valid date"}
	}
	if len(in.Lines) == 0 {
		return &domain.ValidationError{Field: "items", Reason: "at least one item is required"}
	}
	for i, l := range in.Lines {
		if l.ProductID <= 0 {
			return &domain.ValidationError{Field: fmt.Sprintf("items[%d].product_id", i), Reason: "product id is required"}
		}
		if l.Quantity < 1 {
			return &domain.ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Reason: "quantity must be at least 1"}
		}
	}
	return nil
}
