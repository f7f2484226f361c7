package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutSessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_started_total",
		Help: "Total number of checkout sessions started",
	})

	OrdersPlacedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders placed",
	}, []string{"payment_method"})

	OrdersPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_paid_total",
		Help: "Total number of orders marked paid",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed order placements",
	}, []string{"reason"})

	OrderPlacementLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_placement_latency_seconds",
		Help:    "Latency of order placement",
		Buckets: prometheus.DefBuckets,
	})

	CouponApplicationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_applications_total",
		Help: "Coupon application attempts by result",
	}, []string{"result"})

	SagaStepFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_saga_step_failures_total",
		Help: "Checkout saga step failures by step and policy",
	}, []string{"step", "policy"})

	FulfillmentFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fulfillment_failures_total",
		Help: "Total number of failed fulfillment requests",
	})

	GatewayOrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_orders_created_total",
		Help: "Total number of remote payment orders created",
	})

	GatewayErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_errors_total",
		Help: "Payment gateway errors by operation",
	}, []string{"operation"})

	GatewayRequestLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gateway_request_latency_seconds",
		Help:    "Latency of payment gateway requests",
		Buckets: prometheus.DefBuckets,
	})

	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Payment webhook notifications by result",
	}, []string{"result"})

	PaymentReconcileFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_reconcile_failures_total",
		Help: "Payments taken by the gateway that could not be recorded on the order",
	})

	MessageRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_message_retries_total",
		Help: "Handler retries of consumed messages by topic",
	}, []string{"topic"})

	MessagesDeadLetteredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_messages_dead_lettered_total",
		Help: "Consumed messages parked on the dead-letter topic",
	}, []string{"topic"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
