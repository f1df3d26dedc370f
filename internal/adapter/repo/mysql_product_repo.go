package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/Rizki-Rahmadani/management-product/internal/entity"
	"github.com/Rizki-Rahmadani/management-product/internal/usecase"
	"github.com/go-sql-driver/mysql"
)

// mysqlErrRowIsReferenced: foreign key restriction on delete (order_items
// references products with ON DELETE RESTRICT).
const mysqlErrRowIsReferenced = 1451

type MySQLProductRepo struct{ db *sql.DB }

func NewMySQLProductRepo(db *sql.DB) *MySQLProductRepo { return &MySQLProductRepo{db: db} }

func (r *MySQLProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id,name,price,stock,created_at,updated_at FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *MySQLProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id,name,price,stock,created_at,updated_at FROM products WHERE id=?`, id)
	var p domain.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.ProductNotFoundError{ProductID: id}
		}
		return nil, err
	}
	return &p, nil
}

func (r *MySQLProductRepo) Create(ctx context.Context, p *domain.Product) error {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO products (name,price,stock,created_at,updated_at)
VALUES (?,?,?,NOW(),NOW())
`, p.Name, p.Price, p.Stock)
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (r *MySQLProductRepo) Update(ctx context.Context, p *domain.Product) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE products SET name=?, price=?, stock=?, updated_at=NOW() WHERE id=?`,
		p.Name, p.Price, p.Stock, p.ID,
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Could also be a no-op update of an existing row; re-check.
		if _, err := r.GetByID(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *MySQLProductRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id=?`, id)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlErrRowIsReferenced {
			return &domain.ProductInUseError{ProductID: id}
		}
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &domain.ProductNotFoundError{ProductID: id}
	}
	return nil
}

// Restock is a plain guarded increment; no row lock is needed because the
// update is a single atomic statement.
func (r *MySQLProductRepo) Restock(ctx context.Context, productID int64, qty int) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE products SET stock = stock + ?, updated_at = NOW() WHERE id = ?`, qty, productID)
	if err != nil {
		return fmt.Errorf("restock: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &domain.ProductNotFoundError{ProductID: productID}
	}
	return nil
}

var _ usecase.ProductRepo = (*MySQLProductRepo)(nil)
