package api

import (
	"errors"
	"net/http"

	"github.com/coderkeshav-yt/naturalpuff/internal/payment"
	"github.com/coderkeshav-yt/naturalpuff/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	signatureHeader = "X-Razorpay-Signature"
	eventIDHeader   = "X-Razorpay-Event-Id"
)

func allowCORS(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+signatureHeader)
}

// postOnly answers preflight and wrong-method requests. It reports whether
// the request should be handled.
func postOnly(c *gin.Context) bool {
	allowCORS(c)
	switch c.Request.Method {
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
		return false
	case http.MethodPost:
		return true
	default:
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
		return false
	}
}

type createRazorpayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes"`
}

// createRazorpayOrder creates a gateway order with the server-held secret.
// Amount is in paise.
func (h *Handler) createRazorpayOrder(c *gin.Context) {
	if !postOnly(c) {
		return
	}

	var req createRazorpayOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 || req.Currency == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount and currency are required"})
		return
	}

	order, err := h.orderCreator.CreateOrder(c.Request.Context(), payment.RemoteOrderRequest{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		h.logger.Error("Gateway order creation failed", zap.Error(err))
		msg := "Failed to create order"
		var gwErr *payment.GatewayError
		if errors.As(err, &gwErr) && gwErr.Description != "" {
			msg = gwErr.Description
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

// razorpayWebhook verifies and forwards gateway notifications
func (h *Handler) razorpayWebhook(c *gin.Context) {
	if !postOnly(c) {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read request body"})
		return
	}

	signature := c.GetHeader(signatureHeader)
	if signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing signature"})
		return
	}

	res, err := h.webhooks.Handle(c.Request.Context(), body, signature, c.GetHeader(eventIDHeader))
	switch {
	case errors.Is(err, service.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	case err != nil:
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Webhook processed",
		"event":   res.Event,
		"action":  res.Action,
	})
}

// checkoutScript serves the hosted checkout script loaded once per process
func (h *Handler) checkoutScript(c *gin.Context) {
	if !h.script.Initialize(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payment system is unavailable. Please try again later."})
		return
	}
	script, _ := h.script.Script()
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", script)
}
