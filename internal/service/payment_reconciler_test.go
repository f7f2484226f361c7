package service

import (
	"context"
	"testing"

	"github.com/coderkeshav-yt/naturalpuff/internal/broker"
	"github.com/coderkeshav-yt/naturalpuff/internal/models"
	"github.com/coderkeshav-yt/naturalpuff/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPendingOrder(t *testing.T, orders *fakeOrders, gatewayOrderID string) int64 {
	t.Helper()
	order := &models.Order{
		TotalAmount: 590,
		Status:      models.OrderStatusPendingPayment,
		CheckoutID:  "sess-" + gatewayOrderID,
		PaymentDetails: models.PaymentDetails{
			PaymentMethod:   models.PaymentMethodOnline,
			RazorpayOrderID: gatewayOrderID,
		},
	}
	require.NoError(t, orders.CreateOrder(context.Background(), order))
	return order.ID
}

func TestHandlePaymentCapturedMarksPaid(t *testing.T) {
	orders := newFakeOrders()
	pub := &fakePublisher{}
	r := NewPaymentReconciler(orders, newFakeGateway(), pub)
	id := seedPendingOrder(t, orders, "order_A")

	err := r.HandlePaymentCaptured(context.Background(), &models.PaymentCapturedEvent{
		BaseEvent:      broker.NewBaseEvent(models.EventTypePaymentCaptured),
		GatewayOrderID: "order_A",
		PaymentID:      "pay_A",
	})
	require.NoError(t, err)

	order, err := orders.GetOrderByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, "pay_A", order.PaymentDetails.RazorpayPaymentID)
	assert.Len(t, pub.paid, 1)
}

func TestHandlePaymentCapturedIsIdempotent(t *testing.T) {
	orders := newFakeOrders()
	pub := &fakePublisher{}
	r := NewPaymentReconciler(orders, newFakeGateway(), pub)
	seedPendingOrder(t, orders, "order_A")

	event := &models.PaymentCapturedEvent{GatewayOrderID: "order_A", PaymentID: "pay_A"}
	require.NoError(t, r.HandlePaymentCaptured(context.Background(), event))
	require.NoError(t, r.HandlePaymentCaptured(context.Background(), event))

	assert.Equal(t, 1, orders.merges)
	assert.Len(t, pub.paid, 1)
}

func TestHandlePaymentCapturedResolvesLiveHandle(t *testing.T) {
	orders := newFakeOrders()
	gw := newFakeGateway()
	r := NewPaymentReconciler(orders, gw, &fakePublisher{})
	id := seedPendingOrder(t, orders, "order_A")

	var resolved bool
	_, _, err := gw.OpenCheckout(context.Background(), payment.CheckoutRequest{GatewayOrderID: "order_A"},
		func(ctx context.Context, conf payment.PaymentConfirmation) error {
			resolved = true
			return r.MarkPaid(ctx, id, conf)
		},
		func(context.Context, error) {})
	require.NoError(t, err)

	require.NoError(t, r.HandlePaymentCaptured(context.Background(), &models.PaymentCapturedEvent{GatewayOrderID: "order_A", PaymentID: "pay_A"}))
	assert.True(t, resolved)

	order, err := orders.GetOrderByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
}

func TestHandlePaymentCapturedUnknownOrder(t *testing.T) {
	r := NewPaymentReconciler(newFakeOrders(), newFakeGateway(), &fakePublisher{})

	err := r.HandlePaymentCaptured(context.Background(), &models.PaymentCapturedEvent{GatewayOrderID: "order_missing"})
	assert.NoError(t, err)
}

func TestHandlePaymentFailedRecordsError(t *testing.T) {
	orders := newFakeOrders()
	r := NewPaymentReconciler(orders, newFakeGateway(), &fakePublisher{})
	id := seedPendingOrder(t, orders, "order_B")

	err := r.HandlePaymentFailed(context.Background(), &models.PaymentFailedEvent{
		GatewayOrderID: "order_B",
		PaymentID:      "pay_B",
		Reason:         "Payment was declined by the bank",
	})
	require.NoError(t, err)

	order, err := orders.GetOrderByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPendingPayment, order.Status)
	assert.Equal(t, models.PaymentStatusFailed, order.PaymentDetails.PaymentStatus)
	assert.Equal(t, "Payment was declined by the bank", order.PaymentDetails.LastPaymentError)
}

func TestAbandonedCheckoutIsRecorded(t *testing.T) {
	orders := newFakeOrders()
	r := NewPaymentReconciler(orders, newFakeGateway(), &fakePublisher{})
	id := seedPendingOrder(t, orders, "order_C")

	r.RecordPaymentError(context.Background(), id, payment.ErrCheckoutAbandoned)

	order, err := orders.GetOrderByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "abandoned", order.PaymentDetails.PaymentStatus)
	assert.Equal(t, models.OrderStatusPendingPayment, order.Status)
}
