package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/coderkeshav-yt/naturalpuff/internal/models"
	"github.com/coderkeshav-yt/naturalpuff/internal/store"
	"github.com/coderkeshav-yt/naturalpuff/internal/util"
)

const maxOrderListLimit = 200

// OrderDetails is an order with its line items
type OrderDetails struct {
	*models.Order
	Items []models.OrderItem `json:"items"`
}

// OrderService reads placed orders
type OrderService struct {
	orders OrderRepository
}

// NewOrderService creates a new order service
func NewOrderService(orders OrderRepository) *OrderService {
	return &OrderService{orders: orders}
}

// placedBy reports whether checkoutID is the session that placed order.
// Orders from other sessions read as missing.
func placedBy(order *models.Order, checkoutID string) bool {
	return checkoutID != "" && order.CheckoutID != "" &&
		subtle.ConstantTimeCompare([]byte(order.CheckoutID), []byte(checkoutID)) == 1
}

// GetOrder retrieves an order with its items for the checkout that placed it
func (s *OrderService) GetOrder(ctx context.Context, orderID int64, checkoutID string) (*OrderDetails, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !placedBy(order, checkoutID)) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, util.FailSpan(span, fmt.Errorf("failed to get order: %w", err))
	}

	items, err := s.orders.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, util.FailSpan(span, fmt.Errorf("failed to get order items: %w", err))
	}
	return &OrderDetails{Order: order, Items: items}, nil
}

// ListRecent returns the newest orders
func (s *OrderService) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 || limit > maxOrderListLimit {
		limit = maxOrderListLimit
	}
	return s.orders.ListOrders(ctx, limit)
}
