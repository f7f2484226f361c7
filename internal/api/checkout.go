package api

import (
	"net/http"

	"github.com/coderkeshav-yt/naturalpuff/internal/models"
	"github.com/coderkeshav-yt/naturalpuff/internal/payment"

	"github.com/gin-gonic/gin"
)

// checkoutIDHeader names the checkout session that placed an order. It is
// the only key to the order's confirmation view and payment callback.
const checkoutIDHeader = "X-Checkout-Id"

func checkoutID(c *gin.Context) string {
	if id := c.GetHeader(checkoutIDHeader); id != "" {
		return id
	}
	return c.Query("checkout_id")
}

type startCheckoutRequest struct {
	UserID *string           `json:"user_id"`
	Items  []models.CartItem `json:"items" binding:"required,min=1,dive"`
}

type selectShippingRequest struct {
	CourierCode   string `json:"courier_code" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"omitempty,oneof=cod online"`
}

type couponRequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *Handler) startCheckout(c *gin.Context) {
	var req startCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	sess, err := h.checkout.Start(c.Request.Context(), req.UserID, req.Items)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess.View())
}

func (h *Handler) getCheckout(c *gin.Context) {
	sess, err := h.checkout.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

func (h *Handler) submitCustomer(c *gin.Context) {
	var info models.CustomerInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		bindError(c, err)
		return
	}

	sess, err := h.checkout.SubmitCustomerInfo(c.Request.Context(), c.Param("id"), info)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

func (h *Handler) shippingRates(c *gin.Context) {
	options, err := h.checkout.ShippingRates(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"couriers": options})
}

func (h *Handler) selectShipping(c *gin.Context) {
	var req selectShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	sess, err := h.checkout.SelectShipping(c.Request.Context(), c.Param("id"), req.CourierCode, req.PaymentMethod)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

func (h *Handler) applyCoupon(c *gin.Context) {
	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	sess, err := h.checkout.ApplyCoupon(c.Request.Context(), c.Param("id"), req.Code)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

func (h *Handler) removeCoupon(c *gin.Context) {
	sess, err := h.checkout.RemoveCoupon(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

func (h *Handler) placeOrder(c *gin.Context) {
	res, err := h.checkout.PlaceOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// getOrder serves the order confirmation view
func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := idParam(c, "order")
	if !ok {
		return
	}

	details, err := h.orders.GetOrder(c.Request.Context(), orderID, checkoutID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// confirmPayment receives the hosted checkout's success tuple
func (h *Handler) confirmPayment(c *gin.Context) {
	orderID, ok := idParam(c, "order")
	if !ok {
		return
	}

	var conf payment.PaymentConfirmation
	if err := c.ShouldBindJSON(&conf); err != nil {
		bindError(c, err)
		return
	}

	order, err := h.checkout.ConfirmPayment(c.Request.Context(), orderID, checkoutID(c), conf)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Payment successful! Your order has been confirmed.",
		"order":   order,
	})
}
