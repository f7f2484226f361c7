package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrCouponRejected      = errors.New("coupon rejected")
	ErrCouponInvalid       = errors.New("coupon invalid")
	ErrCouponExpired       = errors.New("coupon expired")
	ErrInvalidTransition   = errors.New("invalid checkout transition")
	ErrShippingNotSelected = errors.New("shipping method not selected")
	ErrCheckoutBusy        = errors.New("order placement already in progress")
	ErrSessionNotFound     = errors.New("checkout session not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrPaymentMismatch     = errors.New("payment does not match order")
	ErrInvalidSignature    = errors.New("invalid signature")
)

// Shopper-facing coupon messages
const (
	CouponInvalidMessage = "The coupon code you entered is invalid or has expired."
	CouponExpiredMessage = "This coupon has expired."
)

// ValidationError names the offending field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// CouponRejectedError carries the message shown next to the coupon field.
// Kind is ErrCouponInvalid or ErrCouponExpired.
type CouponRejectedError struct {
	Kind   error
	Reason string
}

func (e *CouponRejectedError) Error() string {
	return e.Reason
}

func (e *CouponRejectedError) Is(target error) bool {
	return target == ErrCouponRejected || target == e.Kind
}

// PlacementError reports the saga step that aborted order placement
type PlacementError struct {
	Step string
	Err  error
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("order placement failed at %s: %v", e.Step, e.Err)
}

func (e *PlacementError) Unwrap() error {
	return e.Err
}
