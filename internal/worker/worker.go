package worker

import (
	"context"

	"github.com/coderkeshav-yt/naturalpuff/internal/broker"
	"github.com/coderkeshav-yt/naturalpuff/internal/models"
	"github.com/coderkeshav-yt/naturalpuff/internal/util"

	"go.uber.org/zap"
)

// MessageSource is a topic subscription
type MessageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// PaymentEventHandler applies payment notifications to orders
type PaymentEventHandler interface {
	HandlePaymentCaptured(ctx context.Context, event *models.PaymentCapturedEvent) error
	HandlePaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error
}

// PaymentWorker consumes the payment topic and reconciles orders. A failing
// event is retried and then parked on the dead-letter topic.
type PaymentWorker struct {
	consumer MessageSource
	handle   broker.MessageHandler
	logger   *zap.Logger
}

// NewPaymentWorker creates a new payment worker
func NewPaymentWorker(consumer MessageSource, handler PaymentEventHandler, deadLetter broker.DeadLetterWriter, retry broker.RetryPolicy) *PaymentWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnPaymentCaptured(handler.HandlePaymentCaptured)
	eventHandler.OnPaymentFailed(handler.HandlePaymentFailed)

	logger := util.ComponentLogger("payment-worker")
	return &PaymentWorker{
		consumer: consumer,
		handle:   broker.WithRetry(eventHandler.HandleMessage, retry, deadLetter, logger),
		logger:   logger,
	}
}

// Start blocks consuming until ctx is cancelled
func (w *PaymentWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting payment worker")
	return w.consumer.StartConsuming(ctx, w.handle)
}

// Stop closes the subscription
func (w *PaymentWorker) Stop() error {
	w.logger.Info("Stopping payment worker")
	return w.consumer.Close()
}
