package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coderkeshav-yt/naturalpuff/internal/broker"
	"github.com/coderkeshav-yt/naturalpuff/internal/models"
	"github.com/coderkeshav-yt/naturalpuff/internal/payment"
	"github.com/coderkeshav-yt/naturalpuff/internal/store"
	"github.com/coderkeshav-yt/naturalpuff/internal/util"

	"go.uber.org/zap"
)

// PaymentReconciler brings order rows in line with what the gateway reports
type PaymentReconciler struct {
	orders    OrderRepository
	gateway   PaymentGateway
	publisher OrderEventPublisher
	now       func() time.Time
	logger    *zap.Logger
}

// NewPaymentReconciler creates a new payment reconciler
func NewPaymentReconciler(orders OrderRepository, gateway PaymentGateway, publisher OrderEventPublisher) *PaymentReconciler {
	return &PaymentReconciler{
		orders:    orders,
		gateway:   gateway,
		publisher: publisher,
		now:       time.Now,
		logger:    util.ComponentLogger("payment-reconciler"),
	}
}

// MarkPaid moves the order to paid and stamps the gateway identifiers.
// An order that is already paid is left alone.
func (r *PaymentReconciler) MarkPaid(ctx context.Context, orderID int64, conf payment.PaymentConfirmation) error {
	ctx, span := util.StartSpan(ctx, "PaymentReconciler.MarkPaid")
	defer span.End()

	order, err := r.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		util.PaymentReconcileFailures.Inc()
		return util.FailSpan(span, fmt.Errorf("failed to load order %d: %w", orderID, err))
	}
	if order.Status == models.OrderStatusPaid {
		r.logger.Info("Order already paid", zap.Int64("order_id", orderID))
		return nil
	}

	patch := map[string]interface{}{
		"razorpay_order_id":   conf.GatewayOrderID,
		"razorpay_payment_id": conf.PaymentID,
		"payment_status":      models.PaymentStatusPaid,
		"payment_date":        r.now().UTC().Format(time.RFC3339),
	}
	if conf.Signature != "" {
		patch["razorpay_signature"] = conf.Signature
	}

	if err := r.orders.MergePaymentDetails(ctx, orderID, models.OrderStatusPaid, patch); err != nil {
		// The gateway already holds the money at this point
		util.PaymentReconcileFailures.Inc()
		r.logger.Error("Failed to record captured payment",
			zap.Int64("order_id", orderID),
			zap.String("payment_id", conf.PaymentID),
			zap.Error(err))
		return util.FailSpan(span, fmt.Errorf("failed to record payment for order %d: %w", orderID, err))
	}

	util.OrdersPaidTotal.Inc()
	r.logger.Info("Order paid",
		zap.Int64("order_id", orderID),
		zap.String("gateway_order_id", conf.GatewayOrderID),
		zap.String("payment_id", conf.PaymentID))

	event := &models.OrderPaidEvent{
		BaseEvent:      broker.NewBaseEvent(models.EventTypeOrderPaid),
		OrderID:        orderID,
		GatewayOrderID: conf.GatewayOrderID,
		PaymentID:      conf.PaymentID,
	}
	if err := r.publisher.PublishOrderPaid(ctx, event); err != nil {
		r.logger.Error("Failed to publish OrderPaid event", zap.Int64("order_id", orderID), zap.Error(err))
	}
	return nil
}

// RecordPaymentError notes a failed or abandoned payment on the order. The
// order stays pending_payment so the shopper can pay later.
func (r *PaymentReconciler) RecordPaymentError(ctx context.Context, orderID int64, cause error) {
	ctx, span := util.StartSpan(ctx, "PaymentReconciler.RecordPaymentError")
	defer span.End()

	status := models.PaymentStatusFailed
	if errors.Is(cause, payment.ErrCheckoutAbandoned) {
		status = "abandoned"
	}
	patch := map[string]interface{}{
		"payment_status":     status,
		"last_payment_error": cause.Error(),
	}
	if err := r.orders.MergePaymentDetails(ctx, orderID, "", patch); err != nil {
		util.PaymentReconcileFailures.Inc()
		r.logger.Error("Failed to record payment error",
			zap.Int64("order_id", orderID),
			zap.Error(err))
		return
	}
	r.logger.Warn("Payment did not complete",
		zap.Int64("order_id", orderID),
		zap.String("payment_status", status),
		zap.Error(cause))
}

// HandlePaymentCaptured applies a captured-payment notification. A live
// checkout handle is completed first so its own callback marks the order.
func (r *PaymentReconciler) HandlePaymentCaptured(ctx context.Context, event *models.PaymentCapturedEvent) error {
	ctx, span := util.StartSpan(ctx, "PaymentReconciler.HandlePaymentCaptured")
	defer span.End()

	r.logger.Info("Handling captured payment",
		zap.String("gateway_order_id", event.GatewayOrderID),
		zap.String("payment_id", event.PaymentID))

	conf := payment.PaymentConfirmation{
		PaymentID:      event.PaymentID,
		GatewayOrderID: event.GatewayOrderID,
	}
	if handled, err := r.gateway.ResolvePayment(ctx, conf); handled {
		return err
	}

	order, err := r.orders.GetOrderByGatewayOrderID(ctx, event.GatewayOrderID)
	if errors.Is(err, store.ErrNotFound) {
		r.logger.Warn("No order for captured payment", zap.String("gateway_order_id", event.GatewayOrderID))
		return nil
	}
	if err != nil {
		return util.FailSpan(span, fmt.Errorf("failed to find order for %s: %w", event.GatewayOrderID, err))
	}
	return r.MarkPaid(ctx, order.ID, conf)
}

// HandlePaymentFailed applies a failed-payment notification
func (r *PaymentReconciler) HandlePaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error {
	ctx, span := util.StartSpan(ctx, "PaymentReconciler.HandlePaymentFailed")
	defer span.End()

	reason := event.Reason
	if reason == "" {
		reason = "payment failed"
	}
	cause := errors.New(reason)

	if r.gateway.RejectPayment(ctx, event.GatewayOrderID, cause) {
		return nil
	}

	order, err := r.orders.GetOrderByGatewayOrderID(ctx, event.GatewayOrderID)
	if errors.Is(err, store.ErrNotFound) {
		r.logger.Warn("No order for failed payment", zap.String("gateway_order_id", event.GatewayOrderID))
		return nil
	}
	if err != nil {
		return util.FailSpan(span, fmt.Errorf("failed to find order for %s: %w", event.GatewayOrderID, err))
	}
	if order.Status == models.OrderStatusPaid {
		return nil
	}
	r.RecordPaymentError(ctx, order.ID, cause)
	return nil
}
