package service

import (
	"context"
	"testing"
	"time"

	"github.com/coderkeshav-yt/naturalpuff/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec"

const capturedPayload = `{"entity":"event","event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1","amount":59000,"currency":"INR","status":"captured"}}}}`

func newWebhookService() (*WebhookService, *fakeSessions, *fakePublisher) {
	dedupe := newFakeSessions()
	pub := &fakePublisher{}
	return NewWebhookService(webhookSecret, dedupe, 24*time.Hour, pub), dedupe, pub
}

func TestWebhookForwardsCapturedPayment(t *testing.T) {
	w, _, pub := newWebhookService()
	body := []byte(capturedPayload)

	res, err := w.Handle(context.Background(), body, payment.Sign(body, webhookSecret), "evt_1")
	require.NoError(t, err)
	assert.Equal(t, &WebhookResult{Event: EventPaymentCaptured, Action: WebhookForwarded}, res)

	require.Len(t, pub.captured, 1)
	assert.Equal(t, "order_1", pub.captured[0].GatewayOrderID)
	assert.Equal(t, "pay_1", pub.captured[0].PaymentID)
	assert.Equal(t, int64(59000), pub.captured[0].Amount)
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	w, _, pub := newWebhookService()

	_, err := w.Handle(context.Background(), []byte(capturedPayload), "", "evt_1")
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Empty(t, pub.captured)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	w, _, pub := newWebhookService()
	body := []byte(capturedPayload)

	_, err := w.Handle(context.Background(), body, payment.Sign(body, "wrong"), "evt_1")
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Empty(t, pub.captured)
}

func TestWebhookDuplicateDelivery(t *testing.T) {
	w, _, pub := newWebhookService()
	body := []byte(capturedPayload)
	sig := payment.Sign(body, webhookSecret)

	_, err := w.Handle(context.Background(), body, sig, "evt_1")
	require.NoError(t, err)
	res, err := w.Handle(context.Background(), body, sig, "evt_1")
	require.NoError(t, err)

	assert.Equal(t, WebhookDuplicate, res.Action)
	assert.Len(t, pub.captured, 1)
}

func TestWebhookPublishFailureAllowsRedelivery(t *testing.T) {
	w, dedupe, pub := newWebhookService()
	body := []byte(capturedPayload)
	sig := payment.Sign(body, webhookSecret)

	pub.err = errBoom
	_, err := w.Handle(context.Background(), body, sig, "evt_1")
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, dedupe.seen["evt_1"])

	pub.err = nil
	res, err := w.Handle(context.Background(), body, sig, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, WebhookForwarded, res.Action)
}

func TestWebhookPaymentFailed(t *testing.T) {
	w, _, pub := newWebhookService()
	body := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_2","order_id":"order_2","status":"failed","error_description":"Card declined"}}}}`)

	_, err := w.Handle(context.Background(), body, payment.Sign(body, webhookSecret), "")
	require.NoError(t, err)
	require.Len(t, pub.failed, 1)
	assert.Equal(t, "Card declined", pub.failed[0].Reason)
}

func TestWebhookOrderPaidUsesOrderEntity(t *testing.T) {
	w, _, pub := newWebhookService()
	body := []byte(`{"event":"order.paid","payload":{"order":{"entity":{"id":"order_3","amount":10000,"currency":"INR"}},"payment":{"entity":{"id":"pay_3","order_id":"order_3"}}}}`)

	_, err := w.Handle(context.Background(), body, payment.Sign(body, webhookSecret), "")
	require.NoError(t, err)
	require.Len(t, pub.captured, 1)
	assert.Equal(t, int64(10000), pub.captured[0].Amount)
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	w, _, pub := newWebhookService()
	body := []byte(`{"event":"refund.created","payload":{}}`)

	res, err := w.Handle(context.Background(), body, payment.Sign(body, webhookSecret), "evt_9")
	require.NoError(t, err)
	assert.Equal(t, WebhookIgnored, res.Action)
	assert.Empty(t, pub.captured)
	assert.Empty(t, pub.failed)
}
