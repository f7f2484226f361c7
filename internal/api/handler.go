package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/coderkeshav-yt/naturalpuff/internal/payment"
	"github.com/coderkeshav-yt/naturalpuff/internal/service"
	"github.com/coderkeshav-yt/naturalpuff/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// CheckoutScript serves the hosted checkout script to the storefront
type CheckoutScript interface {
	Initialize(ctx context.Context) bool
	Script() ([]byte, bool)
}

// ReadinessCheck reports whether a dependency is reachable
type ReadinessCheck func(ctx context.Context) error

// Options wires the handler to its services
type Options struct {
	Checkout     *service.CheckoutOrchestrator
	Orders       *service.OrderService
	Coupons      *service.CouponAdmin
	Products     *service.ProductAdmin
	Webhooks     *service.WebhookService
	Script       CheckoutScript
	OrderCreator payment.RemoteOrderCreator
	Checks       map[string]ReadinessCheck
	AdminToken   string
}

// Handler contains HTTP handlers
type Handler struct {
	checkout     *service.CheckoutOrchestrator
	orders       *service.OrderService
	coupons      *service.CouponAdmin
	products     *service.ProductAdmin
	webhooks     *service.WebhookService
	script       CheckoutScript
	orderCreator payment.RemoteOrderCreator
	checks       map[string]ReadinessCheck
	adminToken   string
	logger       *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(opts Options) *Handler {
	return &Handler{
		checkout:     opts.Checkout,
		orders:       opts.Orders,
		coupons:      opts.Coupons,
		products:     opts.Products,
		webhooks:     opts.Webhooks,
		script:       opts.Script,
		orderCreator: opts.OrderCreator,
		checks:       opts.Checks,
		adminToken:   opts.AdminToken,
		logger:       util.ComponentLogger("http"),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Paths kept from the serverless deployment
	router.Any("/api/create-razorpay-order", h.createRazorpayOrder)
	router.Any("/api/webhooks/razorpay", h.razorpayWebhook)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/payments/checkout.js", h.checkoutScript)

		v1.POST("/checkout", h.startCheckout)
		v1.GET("/checkout/:id", h.getCheckout)
		v1.PUT("/checkout/:id/customer", h.submitCustomer)
		v1.GET("/checkout/:id/shipping-rates", h.shippingRates)
		v1.PUT("/checkout/:id/shipping", h.selectShipping)
		v1.POST("/checkout/:id/coupon", h.applyCoupon)
		v1.DELETE("/checkout/:id/coupon", h.removeCoupon)
		v1.POST("/checkout/:id/orders", h.placeOrder)

		v1.GET("/orders/:id", h.getOrder)
		v1.POST("/orders/:id/payment", h.confirmPayment)
	}

	admin := v1.Group("/admin", h.requireAdmin)
	{
		admin.GET("/coupons", h.listCoupons)
		admin.POST("/coupons", h.createCoupon)
		admin.PUT("/coupons/:id", h.updateCoupon)
		admin.PATCH("/coupons/:id/active", h.setCouponActive)
		admin.DELETE("/coupons/:id", h.deleteCoupon)
		admin.GET("/products", h.listProducts)
		admin.GET("/products/:id", h.getProduct)
		admin.POST("/products", h.createProduct)
		admin.PUT("/products/:id", h.updateProduct)
		admin.DELETE("/products/:id", h.deleteProduct)
		admin.GET("/orders", h.listOrders)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready only when every dependency answers
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// writeError maps service errors onto status codes. Unexpected errors are
// logged and answered with a generic message.
func (h *Handler) writeError(c *gin.Context, err error) {
	var gwErr *payment.GatewayError

	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
	case errors.Is(err, service.ErrCouponRejected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrShippingNotSelected):
		c.JSON(http.StatusConflict, gin.H{"error": "Please select a shipping method"})
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrCheckoutBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrCouponNotFound),
		errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidSignature), errors.Is(err, service.ErrPaymentMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &gwErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": gwErr.Error()})
	default:
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
	}
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}

func idParam(c *gin.Context, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + " ID"})
		return 0, false
	}
	return id, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
