package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coderkeshav-yt/naturalpuff/internal/util"

	"go.uber.org/zap"
)

var (
	// ErrGatewayUnavailable means the hosted checkout could not be prepared
	ErrGatewayUnavailable = errors.New("payment gateway is not available")
	// ErrCheckoutAbandoned fires on a pending payment nobody completed in time
	ErrCheckoutAbandoned = errors.New("checkout abandoned")
)

// Prefill is customer data shown pre-filled in the hosted checkout
type Prefill struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// CheckoutOptions is everything the storefront needs to open the hosted
// payment UI. Key is the public key id.
type CheckoutOptions struct {
	Key         string            `json:"key"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	OrderID     string            `json:"order_id"`
	Prefill     Prefill           `json:"prefill"`
	Notes       map[string]string `json:"notes,omitempty"`
	Theme       struct {
		Color string `json:"color,omitempty"`
	} `json:"theme"`
	ScriptURL string `json:"script_url"`
}

// CheckoutRequest describes the payment a checkout UI is opened for.
// Amount is in whole currency units.
type CheckoutRequest struct {
	GatewayOrderID string
	Amount         int64
	Currency       string
	Description    string
	Prefill        Prefill
	Notes          map[string]string
}

// PaymentConfirmation is the tuple the hosted UI reports on success
type PaymentConfirmation struct {
	PaymentID      string `json:"razorpay_payment_id" binding:"required"`
	GatewayOrderID string `json:"razorpay_order_id" binding:"required"`
	Signature      string `json:"razorpay_signature" binding:"required"`
}

// SuccessFunc and ErrorFunc are the asynchronous completion callbacks
type (
	SuccessFunc func(ctx context.Context, conf PaymentConfirmation) error
	ErrorFunc   func(ctx context.Context, err error)
)

// PaymentOutcome is how a pending payment finished
type PaymentOutcome struct {
	Confirmation *PaymentConfirmation
	Err          error
}

// PaymentHandle is a future for one opened checkout. It completes once.
type PaymentHandle struct {
	GatewayOrderID string

	once      sync.Once
	done      chan struct{}
	outcome   PaymentOutcome
	onSuccess SuccessFunc
	onError   ErrorFunc
	timer     *time.Timer
}

// Done is closed when the payment completes, fails or is abandoned
func (h *PaymentHandle) Done() <-chan struct{} {
	return h.done
}

// Outcome returns the result once Done is closed
func (h *PaymentHandle) Outcome() (PaymentOutcome, bool) {
	select {
	case <-h.done:
		return h.outcome, true
	default:
		return PaymentOutcome{}, false
	}
}

// Gateway adapts the hosted payment provider for the checkout flow
type Gateway struct {
	loader          *ScriptLoader
	creator         RemoteOrderCreator
	keyID           string
	storeName       string
	themeColor      string
	scriptURL       string
	checkoutTimeout time.Duration
	logger          *zap.Logger

	mu      sync.Mutex
	pending map[string]*PaymentHandle
}

// GatewayConfig holds the public settings of the hosted checkout
type GatewayConfig struct {
	KeyID           string
	StoreName       string
	ThemeColor      string
	ScriptURL       string
	CheckoutTimeout time.Duration
}

// NewGateway creates a gateway adapter
func NewGateway(loader *ScriptLoader, creator RemoteOrderCreator, cfg GatewayConfig) *Gateway {
	return &Gateway{
		loader:          loader,
		creator:         creator,
		keyID:           cfg.KeyID,
		storeName:       cfg.StoreName,
		themeColor:      cfg.ThemeColor,
		scriptURL:       cfg.ScriptURL,
		checkoutTimeout: cfg.CheckoutTimeout,
		logger:          util.ComponentLogger("payment-gateway"),
		pending:         make(map[string]*PaymentHandle),
	}
}

// Initialize ensures the hosted checkout script is available
func (g *Gateway) Initialize(ctx context.Context) bool {
	ok := g.loader.Initialize(ctx)
	if !ok {
		g.logger.Warn("Checkout script failed to load", zap.Error(g.loader.LastError()))
	}
	return ok
}

// Script returns the loaded checkout script
func (g *Gateway) Script() ([]byte, bool) {
	return g.loader.Script()
}

// CreateRemoteOrder creates the gateway order for amount whole currency units
func (g *Gateway) CreateRemoteOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*RemoteOrder, error) {
	ctx, span := util.StartSpan(ctx, "Gateway.CreateRemoteOrder")
	defer span.End()

	order, err := g.creator.CreateOrder(ctx, RemoteOrderRequest{
		Amount:   amount * 100,
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		util.GatewayErrorsTotal.WithLabelValues("create_order").Inc()
		return nil, util.FailSpan(span, err)
	}

	util.GatewayOrdersCreated.Inc()
	g.logger.Info("Gateway order created",
		zap.String("gateway_order_id", order.ID),
		zap.Int64("amount", order.Amount))
	return order, nil
}

// OpenCheckout registers a pending payment and returns the options the
// storefront opens the hosted UI with. Completion arrives later through
// onSuccess or onError; callers must not wait for it.
func (g *Gateway) OpenCheckout(ctx context.Context, req CheckoutRequest, onSuccess SuccessFunc, onError ErrorFunc) (*CheckoutOptions, *PaymentHandle, error) {
	if g.keyID == "" {
		return nil, nil, fmt.Errorf("%w: public key is not configured", ErrGatewayUnavailable)
	}
	if !g.Initialize(ctx) {
		util.GatewayErrorsTotal.WithLabelValues("open_checkout").Inc()
		return nil, nil, fmt.Errorf("%w: checkout script failed to load", ErrGatewayUnavailable)
	}

	h := &PaymentHandle{
		GatewayOrderID: req.GatewayOrderID,
		done:           make(chan struct{}),
		onSuccess:      onSuccess,
		onError:        onError,
	}

	g.mu.Lock()
	if prev, ok := g.pending[req.GatewayOrderID]; ok {
		g.mu.Unlock()
		return nil, prev, fmt.Errorf("checkout already open for %s", req.GatewayOrderID)
	}
	g.pending[req.GatewayOrderID] = h
	// the timer is set under mu so take always sees it
	if g.checkoutTimeout > 0 {
		h.timer = time.AfterFunc(g.checkoutTimeout, func() {
			g.RejectPayment(context.Background(), req.GatewayOrderID, ErrCheckoutAbandoned)
		})
	}
	g.mu.Unlock()

	opts := &CheckoutOptions{
		Key:         g.keyID,
		Amount:      req.Amount * 100,
		Currency:    req.Currency,
		Name:        g.storeName,
		Description: req.Description,
		OrderID:     req.GatewayOrderID,
		Prefill:     req.Prefill,
		Notes:       req.Notes,
		ScriptURL:   g.scriptURL,
	}
	opts.Theme.Color = g.themeColor
	return opts, h, nil
}

func (g *Gateway) take(gatewayOrderID string) *PaymentHandle {
	g.mu.Lock()
	defer g.mu.Unlock()
	h, ok := g.pending[gatewayOrderID]
	if !ok {
		return nil
	}
	delete(g.pending, gatewayOrderID)
	if h.timer != nil {
		h.timer.Stop()
	}
	return h
}

// ResolvePayment completes the pending payment for conf.GatewayOrderID and
// runs its success callback. handled is false when nothing was pending.
func (g *Gateway) ResolvePayment(ctx context.Context, conf PaymentConfirmation) (handled bool, err error) {
	h := g.take(conf.GatewayOrderID)
	if h == nil {
		return false, nil
	}

	h.once.Do(func() {
		if h.onSuccess != nil {
			err = h.onSuccess(ctx, conf)
		}
		h.outcome = PaymentOutcome{Confirmation: &conf, Err: err}
		close(h.done)
	})
	return true, err
}

// RejectPayment fails the pending payment and runs its error callback
func (g *Gateway) RejectPayment(ctx context.Context, gatewayOrderID string, cause error) bool {
	h := g.take(gatewayOrderID)
	if h == nil {
		return false
	}

	h.once.Do(func() {
		if h.onError != nil {
			h.onError(ctx, cause)
		}
		h.outcome = PaymentOutcome{Err: cause}
		close(h.done)
	})
	return true
}

// Pending reports how many checkouts await completion
func (g *Gateway) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}
