package service

import (
	"context"
	"strings"
	"time"

	"github.com/coderkeshav-yt/naturalpuff/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AppliedCoupon is a validated coupon bound to a subtotal
type AppliedCoupon struct {
	Code            string `json:"code"`
	DiscountPercent int    `json:"discount_percent"`
	DiscountAmount  int64  `json:"discount_amount"`
}

// CouponValidator checks coupon codes at checkout
type CouponValidator struct {
	coupons CouponRepository
	now     func() time.Time
	logger  *zap.Logger
}

// NewCouponValidator creates a coupon validator
func NewCouponValidator(coupons CouponRepository) *CouponValidator {
	return &CouponValidator{
		coupons: coupons,
		now:     time.Now,
		logger:  util.ComponentLogger("coupon-validator"),
	}
}

// NormalizeCouponCode trims and upper-cases a code
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// DiscountFor returns round(subtotal * percent / 100), halves away from zero
func DiscountFor(subtotal int64, percent int) int64 {
	return decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(int64(percent))).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

// Apply validates code and computes its discount against subtotal
func (v *CouponValidator) Apply(ctx context.Context, code string, subtotal int64) (*AppliedCoupon, error) {
	ctx, span := util.StartSpan(ctx, "CouponValidator.Apply")
	defer span.End()

	code = NormalizeCouponCode(code)
	if code == "" {
		return nil, invalid("code", "coupon code is required")
	}
	if subtotal < 0 {
		return nil, invalid("subtotal", "subtotal must not be negative")
	}

	coupon, err := v.coupons.GetActiveCouponByCode(ctx, code)
	if err != nil {
		// Lookup failures read the same as an unknown code to the shopper
		v.logger.Info("Coupon lookup rejected", zap.String("code", code), zap.Error(err))
		util.CouponApplicationsTotal.WithLabelValues("invalid").Inc()
		return nil, &CouponRejectedError{Kind: ErrCouponInvalid, Reason: CouponInvalidMessage}
	}

	if !coupon.Applicable(v.now()) {
		if !coupon.IsActive {
			util.CouponApplicationsTotal.WithLabelValues("invalid").Inc()
			return nil, &CouponRejectedError{Kind: ErrCouponInvalid, Reason: CouponInvalidMessage}
		}
		util.CouponApplicationsTotal.WithLabelValues("expired").Inc()
		return nil, &CouponRejectedError{Kind: ErrCouponExpired, Reason: CouponExpiredMessage}
	}

	util.CouponApplicationsTotal.WithLabelValues("applied").Inc()
	return &AppliedCoupon{
		Code:            coupon.Code,
		DiscountPercent: coupon.DiscountPercent,
		DiscountAmount:  DiscountFor(subtotal, coupon.DiscountPercent),
	}, nil
}
