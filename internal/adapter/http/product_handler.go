package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	domain "github.com/Rizki-Rahmadani/management-product/internal/entity"
	"github.com/Rizki-Rahmadani/management-product/internal/logging"
	"github.com/Rizki-Rahmadani/management-product/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	catalog *usecase.Catalog
}

func NewProductHandler(catalog *usecase.Catalog) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

type productReq struct {
	Name  string          `json:"name" binding:"required,min=3"`
	Price decimal.Decimal `json:"price" binding:"required"`
	Stock *int            `json:"stock" binding:"required,min=0"`
}

type productResp struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Stock int    `json:"stock"`
}

func toProductResp(p *domain.Product) productResp {
	return productResp{ID: p.ID, Name: p.Name, Price: p.Price.StringFixed(2), Stock: p.Stock}
}

// ListProducts handles GET /api/products.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	products, err := h.catalog.List(ctx)
	if err != nil {
		logging.From(c).Error("list products failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	out := make([]productResp, 0, len(products))
	for i := range products {
		out = append(out, toProductResp(&products[i]))
	}
	c.JSON(http.StatusOK, out)
}

// CreateProduct handles POST /api/products.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": err.Error()})
		return
	}

	p := &domain.Product{Name: req.Name, Price: req.Price, Stock: *req.Stock}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.catalog.Create(ctx, p); err != nil {
		h.writeCatalogError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductResp(p))
}

// UpdateProduct handles PUT /api/products/:id.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": err.Error()})
		return
	}

	p := &domain.Product{ID: id, Name: req.Name, Price: req.Price, Stock: *req.Stock}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.catalog.Update(ctx, p); err != nil {
		h.writeCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResp(p))
}

// DeleteProduct handles DELETE /api/products/:id.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.catalog.Delete(ctx, id); err != nil {
		h.writeCatalogError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) writeCatalogError(c *gin.Context, err error) {
	var (
		vErr  *domain.ValidationError
		nfErr *domain.ProductNotFoundError
		iuErr *domain.ProductInUseError
	)
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{errorKey(vErr): vErr.Reason}})
	case errors.As(err, &nfErr):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.As(err, &iuErr):
		c.JSON(http.StatusConflict, gin.H{"error": iuErr.Error()})
	default:
		logging.From(c).Error("catalog operation failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "catalog operation failed"})
	}
}
