package usecase

import (
	"context"

	domain "github.com/Rizki-Rahmadani/management-product/internal/entity"
)

// Catalog covers product CRUD. Stock mutation here is limited to direct
// catalog edits and replenishment; order-driven decrements go through the
// ledger inside the order transaction.
type Catalog struct {
	repo  ProductRepo
	cache CatalogCache
}

func NewCatalog(repo ProductRepo, cache CatalogCache) *Catalog {
	return &Catalog{repo: repo, cache: cache}
}

func (uc *Catalog) List(ctx context.Context) ([]domain.Product, error) {
	if uc.cache != nil {
		if products, ok, err := uc.cache.Get(ctx); err == nil && ok {
			return products, nil
		}
	}
	products, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if uc.cache != nil {
		_ = uc.cache.Set(ctx, products)
	}
	return products, nil
}

func (uc *Catalog) Create(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := uc.repo.Create(ctx, p); err != nil {
		return err
	}
	uc.invalidate(ctx)
	return nil
}

func (uc *Catalog) Update(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := uc.repo.Update(ctx, p); err != nil {
		return err
	}
	uc.invalidate(ctx)
	return nil
}

func (uc *Catalog) Delete(ctx context.Context, id int64) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.invalidate(ctx)
	return nil
}

// Replenish adds received stock to a product. Fed by the warehouse
// replenishment topic.
func (uc *Catalog) Replenish(ctx context.Context, productID int64, qty int) error {
	if qty < 1 {
		return &domain.ValidationError{Field: "quantity", Reason: "quantity must be at least 1"}
	}
	if err := uc.repo.Restock(ctx, productID, qty); err != nil {
		return err
	}
	uc.invalidate(ctx)
	return nil
}

// Cache invalidation is best-effort; a stale list self-heals at TTL.
func (uc *Catalog) invalidate(ctx context.Context) {
	if uc.cache != nil {
		_ = uc.cache.Invalidate(ctx)
	}
}
