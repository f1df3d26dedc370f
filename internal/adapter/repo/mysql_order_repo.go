package repo

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/Rizki-Rahmadani/management-product/internal/entity"
	"github.com/Rizki-Rahmadani/management-product/internal/usecase"
	"github.com/shopspring/decimal"
)

// MySQLOrderRepo is the committed-order read path. Orders are written only
// through MySQLStore.WithinTx, so a row visible here is always complete.
type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

func (r *MySQLOrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT o.id, o.customer_name, o.order_date, o.created_at,
       i.product_id, p.name, i.quantity, i.price
FROM orders o
JOIN order_items i ON i.order_id = o.id
JOIN products p    ON p.id = i.product_id
ORDER BY o.created_at, o.id, i.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders, err := scanOrderRows(rows)
	if err != nil {
		return nil, err
	}
	return orders, rows.Err()
}

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT o.id, o.customer_name, o.order_date, o.created_at,
       i.product_id, p.name, i.quantity, i.price
FROM orders o
JOIN order_items i ON i.order_id = o.id
JOIN products p    ON p.id = i.product_id
WHERE o.id = ?
ORDER BY i.id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders, err := scanOrderRows(rows)
	if err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, domain.ErrOrderNotFound
	}
	return &orders[0], nil
}

// scanOrderRows folds joined rows into orders, preserving line order.
func scanOrderRows(rows *sql.Rows) ([]domain.Order, error) {
	var (
		orders []domain.Order
		index  = map[string]int{}
	)
	for rows.Next() {
		var (
			id, customerName string
			orderDate        time.Time
			createdAt        time.Time
			productID        int64
			productName      string
			quantity         int
			price            decimal.Decimal
		)
		if err := rows.Scan(&id, &customerName, &orderDate, &createdAt,
			&productID, &productName, &quantity, &price); err != nil {
			return nil, err
		}
		pos, ok := index[id]
		if !ok {
			orders = append(orders, domain.Order{
				ID:           id,
				CustomerName: customerName,
				OrderDate:    orderDate,
				CreatedAt:    createdAt,
			})
			pos = len(orders) - 1
			index[id] = pos
		}
		orders[pos].Lines = append(orders[pos].Lines, domain.OrderLine{
			ProductID:   productID,
			ProductName: productName,
			Quantity:    quantity,
			UnitPrice:   price,
		})
	}
	return orders, nil
}

var _ usecase.OrderReader = (*MySQLOrderRepo)(nil)
