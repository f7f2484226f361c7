package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coderkeshav-yt/naturalpuff/internal/broker"
	"github.com/coderkeshav-yt/naturalpuff/internal/models"
	"github.com/coderkeshav-yt/naturalpuff/internal/payment"
	"github.com/coderkeshav-yt/naturalpuff/internal/util"

	"go.uber.org/zap"
)

// Razorpay webhook event names
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventOrderPaid       = "order.paid"
)

// Webhook outcomes
const (
	WebhookForwarded = "forwarded"
	WebhookIgnored   = "ignored"
	WebhookDuplicate = "duplicate"
)

// WebhookResult tells the caller what happened to a verified delivery
type WebhookResult struct {
	Event  string `json:"event"`
	Action string `json:"action"`
}

type razorpayEntity struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	ErrorDescription string `json:"error_description"`
}

type razorpayWebhook struct {
	Event   string `json:"event"`
	Payload struct {
		Payment *struct {
			Entity razorpayEntity `json:"entity"`
		} `json:"payment"`
		Order *struct {
			Entity razorpayEntity `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

// WebhookService verifies gateway notifications and forwards them to the
// payment topic
type WebhookService struct {
	secret    string
	dedupe    EventDeduper
	dedupeTTL time.Duration
	publisher PaymentEventPublisher
	logger    *zap.Logger
}

// NewWebhookService creates a new webhook service
func NewWebhookService(secret string, dedupe EventDeduper, dedupeTTL time.Duration, publisher PaymentEventPublisher) *WebhookService {
	return &WebhookService{
		secret:    secret,
		dedupe:    dedupe,
		dedupeTTL: dedupeTTL,
		publisher: publisher,
		logger:    util.ComponentLogger("webhook"),
	}
}

// Handle verifies the raw payload against its signature header and forwards
// the payment outcome. Nothing in the payload is trusted before the
// signature matches.
func (w *WebhookService) Handle(ctx context.Context, body []byte, signature, eventID string) (*WebhookResult, error) {
	ctx, span := util.StartSpan(ctx, "WebhookService.Handle")
	defer span.End()

	if signature == "" {
		util.WebhookEventsTotal.WithLabelValues("missing_signature").Inc()
		return nil, fmt.Errorf("%w: signature header is missing", ErrInvalidSignature)
	}
	if !payment.VerifyWebhookSignature(body, signature, w.secret) {
		util.WebhookEventsTotal.WithLabelValues("bad_signature").Inc()
		w.logger.Warn("Webhook signature mismatch", zap.String("event_id", eventID))
		return nil, ErrInvalidSignature
	}

	var hook razorpayWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		util.WebhookEventsTotal.WithLabelValues("malformed").Inc()
		return nil, invalid("payload", "is not valid JSON")
	}
	result := &WebhookResult{Event: hook.Event}

	if hook.Event != EventPaymentCaptured && hook.Event != EventOrderPaid && hook.Event != EventPaymentFailed {
		util.WebhookEventsTotal.WithLabelValues(WebhookIgnored).Inc()
		w.logger.Info("Ignoring webhook event", zap.String("event", hook.Event))
		result.Action = WebhookIgnored
		return result, nil
	}

	if eventID != "" {
		first, err := w.dedupe.MarkEventSeen(ctx, eventID, w.dedupeTTL)
		if err != nil {
			w.logger.Warn("Webhook de-duplication unavailable", zap.String("event_id", eventID), zap.Error(err))
		} else if !first {
			util.WebhookEventsTotal.WithLabelValues(WebhookDuplicate).Inc()
			result.Action = WebhookDuplicate
			return result, nil
		}
	}

	if err := w.forward(ctx, &hook); err != nil {
		util.WebhookEventsTotal.WithLabelValues("publish_failed").Inc()
		if eventID != "" {
			if ferr := w.dedupe.ForgetEvent(context.WithoutCancel(ctx), eventID); ferr != nil {
				w.logger.Error("Failed to forget webhook event", zap.String("event_id", eventID), zap.Error(ferr))
			}
		}
		return nil, util.FailSpan(span, err)
	}

	util.WebhookEventsTotal.WithLabelValues(WebhookForwarded).Inc()
	w.logger.Info("Webhook forwarded", zap.String("event", hook.Event), zap.String("event_id", eventID))
	result.Action = WebhookForwarded
	return result, nil
}

func (w *WebhookService) forward(ctx context.Context, hook *razorpayWebhook) error {
	var pay, order razorpayEntity
	if hook.Payload.Payment != nil {
		pay = hook.Payload.Payment.Entity
	}
	if hook.Payload.Order != nil {
		order = hook.Payload.Order.Entity
	}

	gatewayOrderID := pay.OrderID
	if gatewayOrderID == "" {
		gatewayOrderID = order.ID
	}
	if gatewayOrderID == "" {
		return invalid("payload", "no gateway order id")
	}

	if hook.Event == EventPaymentFailed {
		return w.publisher.PublishPaymentFailed(ctx, &models.PaymentFailedEvent{
			BaseEvent:      broker.NewBaseEvent(models.EventTypePaymentFailed),
			GatewayOrderID: gatewayOrderID,
			PaymentID:      pay.ID,
			Reason:         pay.ErrorDescription,
		})
	}

	amount, currency := pay.Amount, pay.Currency
	if amount == 0 {
		amount, currency = order.Amount, order.Currency
	}
	return w.publisher.PublishPaymentCaptured(ctx, &models.PaymentCapturedEvent{
		BaseEvent:      broker.NewBaseEvent(models.EventTypePaymentCaptured),
		GatewayOrderID: gatewayOrderID,
		PaymentID:      pay.ID,
		Amount:         amount,
		Currency:       currency,
	})
}
