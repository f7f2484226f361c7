package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coderkeshav-yt/naturalpuff/internal/models"
)

// CreateOrder inserts the order header and fills in its generated columns
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (user_id, total_amount, shipping_address, status, payment_details, checkout_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	return s.db.QueryRowxContext(ctx, query,
		order.UserID, order.TotalAmount, order.ShippingAddress, order.Status, order.PaymentDetails, order.CheckoutID,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

// DeleteOrder removes an order header; items cascade
func (s *Store) DeleteOrder(ctx context.Context, orderID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", orderID)
	return err
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByGatewayOrderID finds the order bound to a remote payment order
func (s *Store) GetOrderByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE payment_details->>'razorpay_order_id' = $1 LIMIT 1", gatewayOrderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order for gateway order %s: %w", gatewayOrderID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns the most recent orders first
func (s *Store) ListOrders(ctx context.Context, limit int) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders ORDER BY created_at DESC LIMIT $1", limit)
	return orders, err
}

// MergePaymentDetails shallow-merges patch into the order's payment metadata.
// A non-empty status also replaces the order status.
func (s *Store) MergePaymentDetails(ctx context.Context, orderID int64, status string, patch map[string]interface{}) error {
	raw, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to marshal payment patch: %w", err)
	}

	var res sql.Result
	if status == "" {
		res, err = s.db.ExecContext(ctx,
			"UPDATE orders SET payment_details = payment_details || $1::jsonb, updated_at = NOW() WHERE id = $2",
			string(raw), orderID)
	} else {
		res, err = s.db.ExecContext(ctx,
			"UPDATE orders SET status = $1, payment_details = payment_details || $2::jsonb, updated_at = NOW() WHERE id = $3",
			status, string(raw), orderID)
	}
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	return nil
}

// CreateOrderItems inserts all items of an order in a single statement
func (s *Store) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (order_id, product_id, quantity, price, product_name)
		VALUES (:order_id, :product_id, :quantity, :price, :product_name)`

	_, err := s.db.NamedExecContext(ctx, query, items)
	return err
}

// GetOrderItemsByOrderID retrieves all items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}
