package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coderkeshav-yt/naturalpuff/internal/models"
	"github.com/coderkeshav-yt/naturalpuff/internal/store"
	"github.com/coderkeshav-yt/naturalpuff/internal/util"

	"go.uber.org/zap"
)

// ErrCouponNotFound is returned for admin operations on a missing coupon
var ErrCouponNotFound = errors.New("coupon not found")

// CouponInput is the editable part of a coupon
type CouponInput struct {
	Code            string     `json:"code" binding:"required"`
	DiscountPercent int        `json:"discount_percent" binding:"required"`
	IsActive        *bool      `json:"is_active"`
	ExpiresAt       *time.Time `json:"expires_at"`
}

// CouponAdmin manages the coupon table for administrators
type CouponAdmin struct {
	coupons CouponRepository
	logger  *zap.Logger
}

// NewCouponAdmin creates a coupon admin service
func NewCouponAdmin(coupons CouponRepository) *CouponAdmin {
	return &CouponAdmin{
		coupons: coupons,
		logger:  util.ComponentLogger("coupon-admin"),
	}
}

// build validates in. active is used when in leaves is_active out.
func (a *CouponAdmin) build(in CouponInput, active bool) (*models.Coupon, error) {
	code := NormalizeCouponCode(in.Code)
	if code == "" {
		return nil, invalid("code", "is required")
	}
	if in.DiscountPercent < 1 || in.DiscountPercent > 100 {
		return nil, invalid("discount_percent", "must be between 1 and 100")
	}
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return &models.Coupon{
		Code:            code,
		DiscountPercent: in.DiscountPercent,
		IsActive:        active,
		ExpiresAt:       in.ExpiresAt,
	}, nil
}

// List returns every coupon, newest first
func (a *CouponAdmin) List(ctx context.Context) ([]models.Coupon, error) {
	return a.coupons.ListCoupons(ctx)
}

// Create adds a coupon
func (a *CouponAdmin) Create(ctx context.Context, in CouponInput, createdBy *string) (*models.Coupon, error) {
	coupon, err := a.build(in, true)
	if err != nil {
		return nil, err
	}
	coupon.CreatedBy = createdBy

	if err := a.coupons.CreateCoupon(ctx, coupon); err != nil {
		return nil, a.mapErr(err)
	}
	a.logger.Info("Coupon created", zap.String("code", coupon.Code), zap.Int("discount_percent", coupon.DiscountPercent))
	return coupon, nil
}

// Update replaces the editable fields of a coupon. An omitted is_active
// keeps the stored state.
func (a *CouponAdmin) Update(ctx context.Context, id int64, in CouponInput) (*models.Coupon, error) {
	current, err := a.coupons.GetCouponByID(ctx, id)
	if err != nil {
		return nil, a.mapErr(err)
	}
	coupon, err := a.build(in, current.IsActive)
	if err != nil {
		return nil, err
	}
	coupon.ID = id
	coupon.CreatedAt = current.CreatedAt
	coupon.CreatedBy = current.CreatedBy

	if err := a.coupons.UpdateCoupon(ctx, coupon); err != nil {
		return nil, a.mapErr(err)
	}
	a.logger.Info("Coupon updated", zap.Int64("coupon_id", id), zap.String("code", coupon.Code))
	return coupon, nil
}

// SetActive toggles a coupon on or off
func (a *CouponAdmin) SetActive(ctx context.Context, id int64, active bool) error {
	if err := a.coupons.SetCouponActive(ctx, id, active); err != nil {
		return a.mapErr(err)
	}
	a.logger.Info("Coupon toggled", zap.Int64("coupon_id", id), zap.Bool("active", active))
	return nil
}

// Delete removes a coupon
func (a *CouponAdmin) Delete(ctx context.Context, id int64) error {
	if err := a.coupons.DeleteCoupon(ctx, id); err != nil {
		return a.mapErr(err)
	}
	a.logger.Info("Coupon deleted", zap.Int64("coupon_id", id))
	return nil
}

func (a *CouponAdmin) mapErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrCouponNotFound
	case errors.Is(err, store.ErrDuplicate):
		return invalid("code", "a coupon with this code already exists")
	default:
		return fmt.Errorf("coupon store: %w", err)
	}
}
