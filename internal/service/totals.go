package service

import "github.com/coderkeshav-yt/naturalpuff/internal/models"

// Totals is the price breakdown of a cart in whole rupees
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Shipping int64 `json:"shipping"`
	Total    int64 `json:"total"`
}

// Subtotal sums price times quantity over the cart
func Subtotal(items []models.CartItem) int64 {
	var sum int64
	for _, item := range items {
		sum += item.Price * int64(item.Quantity)
	}
	return sum
}

// CalculateTotals derives the breakdown from the cart, the applied coupon
// and the shipping cost. The discount is recomputed against the current
// subtotal so it can never exceed it.
func CalculateTotals(items []models.CartItem, coupon *AppliedCoupon, shippingCost int64) Totals {
	t := Totals{
		Subtotal: Subtotal(items),
		Shipping: shippingCost,
	}
	if coupon != nil {
		t.Discount = DiscountFor(t.Subtotal, coupon.DiscountPercent)
	}
	t.Total = t.Subtotal - t.Discount + t.Shipping
	return t
}
