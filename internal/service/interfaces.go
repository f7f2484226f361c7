package service

import (
	"context"
	"time"

	"github.com/coderkeshav-yt/naturalpuff/internal/models"
	"github.com/coderkeshav-yt/naturalpuff/internal/payment"
	"github.com/coderkeshav-yt/naturalpuff/internal/shipping"
)

// CouponRepository is the coupon table
type CouponRepository interface {
	GetActiveCouponByCode(ctx context.Context, code string) (*models.Coupon, error)
	GetCouponByID(ctx context.Context, id int64) (*models.Coupon, error)
	ListCoupons(ctx context.Context) ([]models.Coupon, error)
	CreateCoupon(ctx context.Context, coupon *models.Coupon) error
	UpdateCoupon(ctx context.Context, coupon *models.Coupon) error
	SetCouponActive(ctx context.Context, id int64, active bool) error
	DeleteCoupon(ctx context.Context, id int64) error
}

// OrderRepository is the order and order item tables
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	DeleteOrder(ctx context.Context, orderID int64) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	ListOrders(ctx context.Context, limit int) ([]models.Order, error)
	MergePaymentDetails(ctx context.Context, orderID int64, status string, patch map[string]interface{}) error
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
}

// ProductCatalog resolves cart lines against the product table
type ProductCatalog interface {
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
}

// ProductRepository is the product table as administrators edit it
type ProductRepository interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

// SessionStore keeps checkout sessions between requests
type SessionStore interface {
	SaveSession(ctx context.Context, id string, v interface{}, ttl time.Duration) error
	LoadSession(ctx context.Context, id string, dst interface{}) error
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

// EventDeduper remembers delivered webhook event ids
type EventDeduper interface {
	MarkEventSeen(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	ForgetEvent(ctx context.Context, eventID string) error
}

// PaymentGateway is the hosted checkout adapter
type PaymentGateway interface {
	CreateRemoteOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*payment.RemoteOrder, error)
	OpenCheckout(ctx context.Context, req payment.CheckoutRequest, onSuccess payment.SuccessFunc, onError payment.ErrorFunc) (*payment.CheckoutOptions, *payment.PaymentHandle, error)
	ResolvePayment(ctx context.Context, conf payment.PaymentConfirmation) (bool, error)
	RejectPayment(ctx context.Context, gatewayOrderID string, cause error) bool
}

// ShippingProvider quotes couriers and accepts shipment orders
type ShippingProvider interface {
	Rates(ctx context.Context, q shipping.RateQuery) ([]shipping.CourierOption, error)
	CreateOrder(ctx context.Context, order shipping.FulfillmentOrder) (*shipping.FulfillmentResult, error)
}

// OrderEventPublisher announces order lifecycle events
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error
}

// PaymentEventPublisher forwards gateway notifications to the payment topic
type PaymentEventPublisher interface {
	PublishPaymentCaptured(ctx context.Context, event *models.PaymentCapturedEvent) error
	PublishPaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error
}
