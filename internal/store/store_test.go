package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/coderkeshav-yt/naturalpuff/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db), mock
}

var couponColumns = []string{"id", "code", "discount_percent", "is_active", "expires_at", "created_at", "created_by"}

func TestGetActiveCouponByCode(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM coupons WHERE code = $1 AND is_active = TRUE LIMIT 1")).
		WithArgs("SAVE10").
		WillReturnRows(sqlmock.NewRows(couponColumns).
			AddRow(1, "SAVE10", 10, true, nil, created, nil))

	coupon, err := s.GetActiveCouponByCode(context.Background(), "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", coupon.Code)
	assert.Equal(t, 10, coupon.DiscountPercent)
	assert.Nil(t, coupon.ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActiveCouponByCodeNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT \\* FROM coupons").
		WithArgs("NOPE").
		WillReturnRows(sqlmock.NewRows(couponColumns))

	_, err := s.GetActiveCouponByCode(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateOrder(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(nil, int64(590), sqlmock.AnyArg(), models.OrderStatusPending, sqlmock.AnyArg(), "sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(42, now, now))

	order := &models.Order{
		TotalAmount:     590,
		ShippingAddress: models.ShippingAddress{Name: "Asha", Pincode: "560001"},
		Status:          models.OrderStatusPending,
		PaymentDetails:  models.PaymentDetails{PaymentMethod: models.PaymentMethodCOD, Subtotal: 600},
		CheckoutID:      "sess-1",
	}

	require.NoError(t, s.CreateOrder(context.Background(), order))
	assert.Equal(t, int64(42), order.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderItemsSingleStatement(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(int64(7), int64(1), 2, int64(149), "Peri Peri",
			int64(7), int64(2), 1, int64(199), "Raw Makhana").
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := s.CreateOrderItems(context.Background(), []models.OrderItem{
		{OrderID: 7, ProductID: 1, Quantity: 2, Price: 149, ProductName: "Peri Peri"},
		{OrderID: 7, ProductID: 2, Quantity: 1, Price: 199, ProductName: "Raw Makhana"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMergePaymentDetailsWithStatus(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = $1, payment_details = payment_details || $2::jsonb")).
		WithArgs(models.OrderStatusPaid, `{"payment_status":"paid"}`, int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.MergePaymentDetails(context.Background(), 9, models.OrderStatusPaid,
		map[string]interface{}{"payment_status": "paid"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMergePaymentDetailsMissingOrder(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET payment_details = payment_details || $1::jsonb")).
		WithArgs(`{"razorpay_order_id":"order_X"}`, int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.MergePaymentDetails(context.Background(), 404, "",
		map[string]interface{}{"razorpay_order_id": "order_X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCouponNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM coupons WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.DeleteCoupon(context.Background(), 3), ErrNotFound)
}

func TestPaymentDetailsScan(t *testing.T) {
	var details models.PaymentDetails
	require.NoError(t, details.Scan([]byte(`{"payment_method":"online","subtotal":600,"razorpay_order_id":"order_1"}`)))
	assert.Equal(t, models.PaymentMethodOnline, details.PaymentMethod)
	assert.Equal(t, int64(600), details.Subtotal)
	assert.Equal(t, "order_1", details.RazorpayOrderID)
}

func TestCreateCouponDuplicateCode(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO coupons")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := s.CreateCoupon(context.Background(), &models.Coupon{Code: "SAVE20", DiscountPercent: 20, IsActive: true})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCreateProduct(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO products").
		WithArgs("Peri Peri", "Roasted makhana", "", "", "flavoured", int64(149), 100, "https://cdn.example.com/p.jpg").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(7, now))

	product := &models.Product{
		Name:        "Peri Peri",
		Description: "Roasted makhana",
		Category:    "flavoured",
		Price:       149,
		Stock:       100,
		ImageURL:    "https://cdn.example.com/p.jpg",
	}
	require.NoError(t, s.CreateProduct(context.Background(), product))
	assert.Equal(t, int64(7), product.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProductNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE products").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateProduct(context.Background(), &models.Product{ID: 11, Name: "Gone"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProductNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.DeleteProduct(context.Background(), 5), ErrNotFound)
}
