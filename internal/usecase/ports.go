package usecase

import (
	"context"
	"time"

	domain "github.com/Rizki-Rahmadani/management-product/internal/entity"
	"github.com/shopspring/decimal"
)

// ProductSnapshot is what a reservation reads under the row lock: the
// product as it was at the instant its stock was decremented.
type ProductSnapshot struct {
	ID        int64
	Name      string
	UnitPrice decimal.Decimal
}

// OrderTx is the slice of the store visible inside one order transaction.
// Every call sees and mutates the same transactional view; nothing becomes
// visible to other readers until the enclosing WithinTx commits.
type OrderTx interface {
	// InsertOrder creates the order header so lines have a stable id to
	// reference.
	InsertOrder(ctx context.Context, id, customerName string, orderDate time.Time) error

	// ReserveStock locks the product row, verifies stock >= qty and writes
	// the decrement. Returns domain.ProductNotFoundError or
	// domain.InsufficientStockError on the respective failures.
	ReserveStock(ctx context.Context, productID int64, qty int) (ProductSnapshot, error)

	InsertLine(ctx context.Context, orderID string, line domain.OrderLine) error

	// InsertOutbox stages an event row that commits or rolls back together
	// with the order.
	InsertOutbox(ctx context.Context, channel string, payload []byte) error
}

// Store runs fn inside one transaction. A nil return from fn commits at
// that single point; any error (or panic) rolls everything back.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx OrderTx) error) error
}

// OrderReader is the read path: committed orders with their lines.
type OrderReader interface {
	List(ctx context.Context) ([]domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}

// ProductRepo is the catalog surface outside the order transaction.
type ProductRepo interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error

	// Restock increments stock; used by the replenishment consumer.
	Restock(ctx context.Context, productID int64, qty int) error
}

// CatalogCache fronts the product list read path.
type CatalogCache interface {
	Get(ctx context.Context) ([]domain.Product, bool, error)
	Set(ctx context.Context, products []domain.Product) error
	Invalidate(ctx context.Context) error
}

// OutboxRow is the persistence shape of a staged event (kept out of the
// domain, same as the other records here).
type OutboxRow struct {
	ID         int64
	Channel    string
	Payload    []byte
	RetryCount int
}

// OutboxRepo is the drain side of the outbox; the insert side lives on
// OrderTx so it shares the order transaction.
type OutboxRepo interface {
	ClaimPending(ctx context.Context, limit int) ([]OutboxRow, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, nextAttempt time.Time) error
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)

	// Unlock releases a fence taken by TryLock without recording a value,
	// so the same key can be retried after a failed attempt.
	Unlock(ctx context.Context, scope, key string) error

	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}
