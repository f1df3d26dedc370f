package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/Rizki-Rahmadani/management-product/internal/entity"
	"github.com/Rizki-Rahmadani/management-product/internal/usecase"
)

// MySQLStore runs order transactions. Rollback happens on every exit path
// that is not the single commit point, including panics.
type MySQLStore struct{ db *sql.DB }

func NewMySQLStore(db *sql.DB) *MySQLStore { return &MySQLStore{db: db} }

func (s *MySQLStore) WithinTx(ctx context.Context, fn func(tx usecase.OrderTx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&mysqlOrderTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

type mysqlOrderTx struct{ tx *sql.Tx }

func (t *mysqlOrderTx) InsertOrder(ctx context.Context, id, customerName string, orderDate time.Time) error {
	_, err := t.tx.ExecContext(ctx, `
INSERT INTO orders (id,customer_name,order_date,created_at,updated_at)
VALUES (?,?,?,NOW(),NOW())
`, id, customerName, orderDate)
	return err
}

// ReserveStock takes the row lock first; the lock is held until the
// enclosing transaction ends, so a concurrent reservation on the same
// product blocks here rather than reading a stale count.
func (t *mysqlOrderTx) ReserveStock(ctx context.Context, productID int64, qty int) (usecase.ProductSnapshot, error) {
	row := t.tx.QueryRowContext(ctx, `
SELECT id,name,price,stock FROM products WHERE id=? FOR UPDATE`, productID)

	var snap usecase.ProductSnapshot
	var stock int
	if err := row.Scan(&snap.ID, &snap.Name, &snap.UnitPrice, &stock); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return usecase.ProductSnapshot{}, &domain.ProductNotFoundError{ProductID: productID}
		}
		return usecase.ProductSnapshot{}, err
	}
	if stock < qty {
		return usecase.ProductSnapshot{}, &domain.InsufficientStockError{
			ProductID: productID,
			Stock:     stock,
			Requested: qty,
		}
	}

	if _, err := t.tx.ExecContext(ctx, `
UPDATE products SET stock = stock - ?, updated_at = NOW() WHERE id = ?`, qty, productID); err != nil {
		return usecase.ProductSnapshot{}, fmt.Errorf("decrement stock: %w", err)
	}
	return snap, nil
}

func (t *mysqlOrderTx) InsertLine(ctx context.Context, orderID string, line domain.OrderLine) error {
	_, err := t.tx.ExecContext(ctx, `
INSERT INTO order_items (order_id,product_id,quantity,price,created_at,updated_at)
VALUES (?,?,?,?,NOW(),NOW())
`, orderID, line.ProductID, line.Quantity, line.UnitPrice)
	return err
}

func (t *mysqlOrderTx) InsertOutbox(ctx context.Context, channel string, payload []byte) error {
	_, err := t.tx.ExecContext(ctx, `
INSERT INTO outbox (channel,payload,status,retry_count,next_attempt_at,created_at)
VALUES (?, ?, 'PENDING', 0, NOW(), NOW())
`, channel, payload)
	return err
}

var _ usecase.Store = (*MySQLStore)(nil)
