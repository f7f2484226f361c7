package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/coderkeshav-yt/naturalpuff/internal/models"
)

// GetActiveCouponByCode looks up one active coupon by exact code. Expiry is
// left to the caller.
func (s *Store) GetActiveCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := s.db.GetContext(ctx, &coupon,
		"SELECT * FROM coupons WHERE code = $1 AND is_active = TRUE LIMIT 1", code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("coupon %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// GetCouponByID loads one coupon regardless of state
func (s *Store) GetCouponByID(ctx context.Context, id int64) (*models.Coupon, error) {
	var coupon models.Coupon
	err := s.db.GetContext(ctx, &coupon, "SELECT * FROM coupons WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("coupon %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// ListCoupons returns all coupons, newest first
func (s *Store) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	coupons := []models.Coupon{}
	err := s.db.SelectContext(ctx, &coupons, "SELECT * FROM coupons ORDER BY created_at DESC")
	return coupons, err
}

// CreateCoupon inserts a coupon
func (s *Store) CreateCoupon(ctx context.Context, coupon *models.Coupon) error {
	query := `
		INSERT INTO coupons (code, discount_percent, is_active, expires_at, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := s.db.QueryRowxContext(ctx, query,
		coupon.Code, coupon.DiscountPercent, coupon.IsActive, coupon.ExpiresAt, coupon.CreatedBy,
	).Scan(&coupon.ID, &coupon.CreatedAt)
	return mapUniqueViolation(err, "coupon "+coupon.Code)
}

// UpdateCoupon overwrites the editable columns of a coupon
func (s *Store) UpdateCoupon(ctx context.Context, coupon *models.Coupon) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE coupons SET code = $1, discount_percent = $2, is_active = $3, expires_at = $4 WHERE id = $5",
		coupon.Code, coupon.DiscountPercent, coupon.IsActive, coupon.ExpiresAt, coupon.ID)
	if err != nil {
		return mapUniqueViolation(err, "coupon "+coupon.Code)
	}
	return expectAffected(res, "coupon", coupon.ID)
}

// SetCouponActive enables or disables a coupon
func (s *Store) SetCouponActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE coupons SET is_active = $1 WHERE id = $2", active, id)
	if err != nil {
		return err
	}
	return expectAffected(res, "coupon", id)
}

// DeleteCoupon removes a coupon
func (s *Store) DeleteCoupon(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM coupons WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectAffected(res, "coupon", id)
}

func expectAffected(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return nil
}
