package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Product is the catalog row checkout validates cart lines against
type Product struct {
	ID              int64     `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Description     string    `db:"description" json:"description"`
	Details         string    `db:"details" json:"details"`
	NutritionalInfo string    `db:"nutritional_info" json:"nutritional_info"`
	Category        string    `db:"category" json:"category"`
	Price           int64     `db:"price" json:"price"`
	Stock           int       `db:"stock" json:"stock"`
	ImageURL        string    `db:"image_url" json:"image_url"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// CartItem is a line in the shopper's cart. Prices are whole rupees.
type CartItem struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Price     int64  `json:"price" binding:"min=0"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	Image     string `json:"image,omitempty"`
}

// Coupon is a percentage discount code
type Coupon struct {
	ID              int64      `db:"id" json:"id"`
	Code            string     `db:"code" json:"code"`
	DiscountPercent int        `db:"discount_percent" json:"discount_percent"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	ExpiresAt       *time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	CreatedBy       *string    `db:"created_by" json:"created_by"`
}

// Applicable reports whether the coupon can be redeemed at now.
func (c *Coupon) Applicable(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	return c.ExpiresAt == nil || c.ExpiresAt.After(now)
}

// CustomerInfo is collected once per checkout attempt
type CustomerInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// ShippingAddress is the snapshot stored on the order row
type ShippingAddress CustomerInfo

func (a ShippingAddress) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *ShippingAddress) Scan(src interface{}) error {
	return scanJSON(src, a)
}

// PaymentDetails is the payment metadata blob on the order row. Gateway fields
// are filled in as the online payment progresses.
type PaymentDetails struct {
	PaymentMethod     string  `json:"payment_method"`
	Subtotal          int64   `json:"subtotal"`
	Discount          int64   `json:"discount"`
	ShippingCost      int64   `json:"shipping_cost"`
	CouponCode        *string `json:"coupon_code"`
	CourierCode       string  `json:"courier_code"`
	Pincode           string  `json:"pincode"`
	DeliveryMethod    string  `json:"delivery_method,omitempty"`
	RazorpayOrderID   string  `json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID string  `json:"razorpay_payment_id,omitempty"`
	RazorpaySignature string  `json:"razorpay_signature,omitempty"`
	PaymentStatus     string  `json:"payment_status,omitempty"`
	PaymentDate       string  `json:"payment_date,omitempty"`
	LastPaymentError  string  `json:"last_payment_error,omitempty"`
}

func (p PaymentDetails) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *PaymentDetails) Scan(src interface{}) error {
	return scanJSON(src, p)
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
}

// Order represents a placed order
type Order struct {
	ID              int64           `db:"id" json:"id"`
	UserID          *string         `db:"user_id" json:"user_id"`
	TotalAmount     int64           `db:"total_amount" json:"total_amount"`
	ShippingAddress ShippingAddress `db:"shipping_address" json:"shipping_address"`
	Status          string          `db:"status" json:"status"`
	PaymentDetails  PaymentDetails  `db:"payment_details" json:"payment_details"`
	CheckoutID      string          `db:"checkout_id" json:"-"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderItem is a snapshot of a cart line at order time
type OrderItem struct {
	ID          int64  `db:"id" json:"id"`
	OrderID     int64  `db:"order_id" json:"order_id"`
	ProductID   int64  `db:"product_id" json:"product_id"`
	Quantity    int    `db:"quantity" json:"quantity"`
	Price       int64  `db:"price" json:"price"`
	ProductName string `db:"product_name" json:"product_name"`
}

// Order statuses
const (
	OrderStatusPending        = "pending"
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusPaid           = "paid"
)

// Payment methods
const (
	PaymentMethodCOD    = "cod"
	PaymentMethodOnline = "online"
)

// Payment statuses recorded in PaymentDetails
const (
	PaymentStatusPaid   = "paid"
	PaymentStatusFailed = "failed"
)
