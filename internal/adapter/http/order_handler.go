package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	domain "github.com/Rizki-Rahmadani/management-product/internal/entity"
	"github.com/Rizki-Rahmadani/management-product/internal/logging"
	"github.com/Rizki-Rahmadani/management-product/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders committed successfully",
	})
	ordersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_rejected_total",
		Help: "Order submissions rejected, by reason",
	}, []string{"reason"})
)

type OrderHandler struct {
	submit *usecase.SubmitOrder
	list   *usecase.ListOrders
}

func NewOrderHandler(submit *usecase.SubmitOrder, list *usecase.ListOrders) *OrderHandler {
	return &OrderHandler{submit: submit, list: list}
}

type orderItemReq struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

type createOrderReq struct {
	CustomerName string         `json:"customer_name" binding:"required,min=3"`
	OrderDate    string         `json:"order_date" binding:"required"`
	Items        []orderItemReq `json:"items" binding:"required,min=1,dive"`
}

type orderItemResp struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
	Subtotal    string `json:"subtotal"`
}

type orderResp struct {
	ID           string          `json:"id"`
	CustomerName string          `json:"customer_name"`
	OrderDate    string          `json:"order_date"`
	Items        []orderItemResp `json:"items"`
	Total        string          `json:"total"`
}

func toOrderResp(o *domain.Order) orderResp {
	resp := orderResp{
		ID:           o.ID,
		CustomerName: o.CustomerName,
		OrderDate:    o.OrderDate.Format("2006-01-02"),
		Items:        make([]orderItemResp, 0, len(o.Lines)),
		Total:        o.Total().StringFixed(2),
	}
	for _, l := range o.Lines {
		resp.Items = append(resp.Items, orderItemResp{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			Price:       l.UnitPrice.StringFixed(2),
			Subtotal:    l.Subtotal().StringFixed(2),
		})
	}
	return resp
}

// SubmitOrder handles POST /api/orders.
func (h *OrderHandler) SubmitOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		ordersRejected.WithLabelValues("validation").Inc()
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": err.Error()})
		return
	}
	orderDate, err := time.Parse("2006-01-02", req.OrderDate)
	if err != nil {
		ordersRejected.WithLabelValues("validation").Inc()
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{"order_date": "order date must be a valid date"}})
		return
	}

	in := usecase.SubmitOrderInput{
		CustomerName:   req.CustomerName,
		OrderDate:      orderDate,
		IdempotencyKey: c.GetHeader("X-Idempotency-Key"),
		Lines:          make([]usecase.LineRequest, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		in.Lines = append(in.Lines, usecase.LineRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	order, err := h.submit.Execute(ctx, in)
	if err != nil {
		h.writeSubmitError(c, err)
		return
	}

	ordersPlaced.Inc()
	c.JSON(http.StatusCreated, toOrderResp(order))
}

// errorKey keeps the field-error map keyed even for shape-level
// failures that name no field.
func errorKey(vErr *domain.ValidationError) string {
	if vErr.Field == "" {
		return "request"
	}
	return vErr.Field
}

func (h *OrderHandler) writeSubmitError(c *gin.Context, err error) {
	var (
		vErr  *domain.ValidationError
		nfErr *domain.ProductNotFoundError
		isErr *domain.InsufficientStockError
	)
	switch {
	case errors.As(err, &vErr):
		ordersRejected.WithLabelValues("validation").Inc()
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{errorKey(vErr): vErr.Reason}})
	case errors.As(err, &nfErr):
		ordersRejected.WithLabelValues("product_not_found").Inc()
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": nfErr.Error()})
	case errors.As(err, &isErr):
		ordersRejected.WithLabelValues("insufficient_stock").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": isErr.Error()})
	case errors.Is(err, usecase.ErrDuplicate):
		ordersRejected.WithLabelValues("duplicate").Inc()
		c.JSON(http.StatusConflict, gin.H{"error": "duplicate submission"})
	default:
		ordersRejected.WithLabelValues("storage").Inc()
		logging.From(c).Error("order submit failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create order"})
	}
}

// ListOrders handles GET /api/orders.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	orders, err := h.list.Execute(ctx)
	if err != nil {
		logging.From(c).Error("list orders failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	out := make([]orderResp, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResp(&orders[i]))
	}
	c.JSON(http.StatusOK, out)
}
