package http

import (
	"github.com/Rizki-Rahmadani/management-product/internal/adapter/http/middleware"
	"github.com/Rizki-Rahmadani/management-product/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(ph *ProductHandler, oh *OrderHandler, th *TokenHandler, authz *middleware.Authz) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	l := logging.New("http")
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/v1/token", th.IssueToken)

	api := r.Group("/api")
	{
		api.GET("/products", authz.Require("products.read"), ph.ListProducts)
		api.POST("/products", authz.Require("products.write"), ph.CreateProduct)
		api.PUT("/products/:id", authz.Require("products.write"), ph.UpdateProduct)
		api.DELETE("/products/:id", authz.Require("products.write"), ph.DeleteProduct)

		api.GET("/orders", authz.Require("orders.read"), oh.ListOrders)
		api.POST("/orders", authz.Require("orders.write"), oh.SubmitOrder)
	}

	return r
}
