package service

import (
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/coderkeshav-yt/naturalpuff/internal/models"
)

// CheckoutState is the position of a session in the checkout flow
type CheckoutState string

const (
	StateCollectingInfo    CheckoutState = "collecting_info"
	StateReviewingShipping CheckoutState = "reviewing_shipping"
	StateSubmitting        CheckoutState = "submitting"
	StateSucceeded         CheckoutState = "succeeded"
	StateFailed            CheckoutState = "failed"
)

// ShippingSelection is the courier picked for the order. Cost comes from
// the rate resolver.
type ShippingSelection struct {
	CourierCode   string `json:"courier_code"`
	CourierName   string `json:"courier_name"`
	Cost          int64  `json:"cost"`
	EstimatedDays string `json:"estimated_delivery_days,omitempty"`
}

// CheckoutSession is one shopper's checkout attempt
type CheckoutSession struct {
	ID            string               `json:"id"`
	UserID        *string              `json:"user_id,omitempty"`
	Items         []models.CartItem    `json:"items"`
	Customer      *models.CustomerInfo `json:"customer,omitempty"`
	Coupon        *AppliedCoupon       `json:"coupon,omitempty"`
	Shipping      *ShippingSelection   `json:"shipping,omitempty"`
	PaymentMethod string               `json:"payment_method"`
	State         CheckoutState        `json:"state"`
	LastError     string               `json:"last_error,omitempty"`
	OrderID       int64                `json:"order_id,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// Totals recomputes the price breakdown of the session
func (s *CheckoutSession) Totals() Totals {
	var shippingCost int64
	if s.Shipping != nil {
		shippingCost = s.Shipping.Cost
	}
	return CalculateTotals(s.Items, s.Coupon, shippingCost)
}

func (s *CheckoutSession) editable() bool {
	switch s.State {
	case StateCollectingInfo, StateReviewingShipping, StateFailed:
		return true
	}
	return false
}

// SessionView is the session as returned to the storefront
type SessionView struct {
	*CheckoutSession
	Totals Totals `json:"totals"`
}

// View pairs the session with its current totals
func (s *CheckoutSession) View() SessionView {
	return SessionView{CheckoutSession: s, Totals: s.Totals()}
}

var (
	pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	phonePattern   = regexp.MustCompile(`^\+?[0-9]{10,13}$`)
)

// NormalizeCustomerInfo trims every field and checks the form rules: all
// fields present, a 6-digit pincode and a well-formed email.
func NormalizeCustomerInfo(info models.CustomerInfo) (models.CustomerInfo, error) {
	info = models.CustomerInfo{
		Name:    strings.TrimSpace(info.Name),
		Email:   strings.TrimSpace(info.Email),
		Phone:   strings.ReplaceAll(strings.TrimSpace(info.Phone), " ", ""),
		Address: strings.TrimSpace(info.Address),
		City:    strings.TrimSpace(info.City),
		State:   strings.TrimSpace(info.State),
		Pincode: strings.TrimSpace(info.Pincode),
	}

	required := []struct {
		field, value string
	}{
		{"name", info.Name},
		{"email", info.Email},
		{"phone", info.Phone},
		{"address", info.Address},
		{"city", info.City},
		{"state", info.State},
		{"pincode", info.Pincode},
	}
	for _, r := range required {
		if r.value == "" {
			return info, invalid(r.field, "is required")
		}
	}

	if !pincodePattern.MatchString(info.Pincode) {
		return info, invalid("pincode", "must be a 6-digit postal code")
	}
	if addr, err := mail.ParseAddress(info.Email); err != nil || addr.Address != info.Email {
		return info, invalid("email", "is not a valid email address")
	}
	if !phonePattern.MatchString(info.Phone) {
		return info, invalid("phone", "is not a valid phone number")
	}
	return info, nil
}

// ValidateCart checks the cart lines before a session is opened
func ValidateCart(items []models.CartItem) error {
	if len(items) == 0 {
		return invalid("items", "cart is empty")
	}
	for _, item := range items {
		if item.ProductID <= 0 {
			return invalid("items", "product id is required")
		}
		if item.Quantity < 1 {
			return invalid("items", "quantity must be at least 1")
		}
		if item.Price < 0 {
			return invalid("items", "price must not be negative")
		}
	}
	return nil
}
