package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/coderkeshav-yt/naturalpuff/internal/broker"
	"github.com/coderkeshav-yt/naturalpuff/internal/models"
	"github.com/coderkeshav-yt/naturalpuff/internal/payment"
	"github.com/coderkeshav-yt/naturalpuff/internal/redisclient"
	"github.com/coderkeshav-yt/naturalpuff/internal/shipping"
	"github.com/coderkeshav-yt/naturalpuff/internal/store"
	"github.com/coderkeshav-yt/naturalpuff/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Shopper-facing outcome messages
const (
	MessageCODPlaced          = "Your order has been placed successfully. We'll ship it soon!"
	MessageCODShippingIssue   = "Your order has been placed, but there was an issue with the shipping system. We'll contact you soon."
	MessageCompletePayment    = "Complete the payment to confirm your order."
	MessagePaymentUnavailable = "Your order has been created, but there was an issue with the payment system. You can pay later from your orders page."
	MessageCheckoutNotOpened  = "Your order has been created but payment couldn't be initialized. You can pay later from your orders page."
)

const (
	stepPersistOrder       = "persist_order"
	stepPersistItems       = "persist_order_items"
	stepRequestFulfillment = "request_fulfillment"
	stepCreateGatewayOrder = "create_gateway_order"
	stepAttachGatewayOrder = "attach_gateway_order"
	stepOpenCheckout       = "open_checkout"
	stepPublishPlaced      = "publish_order_placed"

	groupPayment = "payment"
)

// CheckoutConfig holds the business settings of the checkout flow
type CheckoutConfig struct {
	Currency              string
	KeySecret             string
	SessionTTL            time.Duration
	LockTTL               time.Duration
	PickupLocation        string
	PackageWeight         float64
	RollbackOnItemFailure bool
}

// PlaceOrderResult is what the shopper sees after submitting
type PlaceOrderResult struct {
	OrderID        int64                    `json:"order_id"`
	CheckoutID     string                   `json:"checkout_id"`
	Status         string                   `json:"status"`
	PaymentMethod  string                   `json:"payment_method"`
	Message        string                   `json:"message"`
	PaymentPending bool                     `json:"payment_pending"`
	Checkout       *payment.CheckoutOptions `json:"checkout,omitempty"`
	Totals         Totals                   `json:"totals"`
	Warnings       []string                 `json:"warnings,omitempty"`
}

// CheckoutOrchestrator drives a checkout session from cart to placed order
type CheckoutOrchestrator struct {
	sessions   SessionStore
	catalog    ProductCatalog
	orders     OrderRepository
	coupons    *CouponValidator
	gateway    PaymentGateway
	shipper    ShippingProvider
	publisher  OrderEventPublisher
	reconciler *PaymentReconciler
	cfg        CheckoutConfig
	now        func() time.Time
	logger     *zap.Logger
}

// NewCheckoutOrchestrator creates a new checkout orchestrator
func NewCheckoutOrchestrator(
	sessions SessionStore,
	catalog ProductCatalog,
	orders OrderRepository,
	coupons *CouponValidator,
	gateway PaymentGateway,
	shipper ShippingProvider,
	publisher OrderEventPublisher,
	reconciler *PaymentReconciler,
	cfg CheckoutConfig,
) *CheckoutOrchestrator {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = time.Minute
	}
	return &CheckoutOrchestrator{
		sessions:   sessions,
		catalog:    catalog,
		orders:     orders,
		coupons:    coupons,
		gateway:    gateway,
		shipper:    shipper,
		publisher:  publisher,
		reconciler: reconciler,
		cfg:        cfg,
		now:        time.Now,
		logger:     util.ComponentLogger("checkout"),
	}
}

// Start opens a checkout session for a validated cart. Names and prices are
// taken from the catalog.
func (o *CheckoutOrchestrator) Start(ctx context.Context, userID *string, items []models.CartItem) (*CheckoutSession, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutOrchestrator.Start")
	defer span.End()

	if err := ValidateCart(items); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := o.catalog.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, util.FailSpan(span, fmt.Errorf("failed to load products: %w", err))
	}
	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	cart := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, invalid("items", fmt.Sprintf("product %d does not exist", item.ProductID))
		}
		item.Name = p.Name
		item.Price = p.Price
		if item.Image == "" {
			item.Image = p.ImageURL
		}
		cart = append(cart, item)
	}

	now := o.now()
	sess := &CheckoutSession{
		ID:            uuid.New().String(),
		UserID:        userID,
		Items:         cart,
		PaymentMethod: models.PaymentMethodOnline,
		State:         StateCollectingInfo,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := o.save(ctx, sess); err != nil {
		return nil, err
	}

	util.CheckoutSessionsStarted.Inc()
	o.logger.Info("Checkout started", zap.String("session_id", sess.ID), zap.Int("items", len(cart)))
	return sess, nil
}

// Get returns a session
func (o *CheckoutOrchestrator) Get(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	return o.load(ctx, sessionID)
}

// SubmitCustomerInfo validates the customer form and moves the session on
// to shipping review. A failed attempt can be retried from here.
func (o *CheckoutOrchestrator) SubmitCustomerInfo(ctx context.Context, sessionID string, info models.CustomerInfo) (*CheckoutSession, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutOrchestrator.SubmitCustomerInfo")
	defer span.End()

	sess, err := o.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.State != StateCollectingInfo && sess.State != StateFailed {
		return nil, fmt.Errorf("%w: cannot submit customer info while %s", ErrInvalidTransition, sess.State)
	}

	info, err = NormalizeCustomerInfo(info)
	if err != nil {
		return nil, err
	}

	if sess.Customer != nil && sess.Customer.Pincode != info.Pincode {
		// Quotes were for the old pincode
		sess.Shipping = nil
	}
	sess.Customer = &info
	sess.State = StateReviewingShipping
	sess.LastError = ""
	if err := o.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// ShippingRates quotes couriers for the session's delivery pincode
func (o *CheckoutOrchestrator) ShippingRates(ctx context.Context, sessionID string) ([]shipping.CourierOption, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutOrchestrator.ShippingRates")
	defer span.End()

	sess, err := o.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.State != StateReviewingShipping || sess.Customer == nil {
		return nil, fmt.Errorf("%w: customer info is required before shipping", ErrInvalidTransition)
	}
	return o.rates(ctx, sess, sess.PaymentMethod)
}

func (o *CheckoutOrchestrator) rates(ctx context.Context, sess *CheckoutSession, method string) ([]shipping.CourierOption, error) {
	return o.shipper.Rates(ctx, shipping.RateQuery{
		DeliveryPincode: sess.Customer.Pincode,
		Weight:          o.cfg.PackageWeight,
		COD:             method == models.PaymentMethodCOD,
	})
}

// SelectShipping picks a courier the resolver currently offers, together
// with the payment method the quote depends on
func (o *CheckoutOrchestrator) SelectShipping(ctx context.Context, sessionID, courierCode, method string) (*CheckoutSession, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutOrchestrator.SelectShipping")
	defer span.End()

	if method == "" {
		method = models.PaymentMethodOnline
	}
	if method != models.PaymentMethodCOD && method != models.PaymentMethodOnline {
		return nil, invalid("payment_method", "must be cod or online")
	}
	if courierCode == "" {
		return nil, invalid("courier_code", "is required")
	}

	sess, err := o.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.State != StateReviewingShipping || sess.Customer == nil {
		return nil, fmt.Errorf("%w: customer info is required before shipping", ErrInvalidTransition)
	}

	options, err := o.rates(ctx, sess, method)
	if err != nil {
		return nil, util.FailSpan(span, fmt.Errorf("failed to fetch shipping rates: %w", err))
	}

	var chosen *shipping.CourierOption
	for i := range options {
		if options[i].Code == courierCode {
			chosen = &options[i]
			break
		}
	}
	if chosen == nil {
		return nil, invalid("courier_code", "courier does not serve this pincode")
	}

	sess.Shipping = &ShippingSelection{
		CourierCode:   chosen.Code,
		CourierName:   chosen.Name,
		Cost:          chosen.Cost,
		EstimatedDays: chosen.EstimatedDays,
	}
	sess.PaymentMethod = method
	if err := o.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// ApplyCoupon validates a coupon against the session subtotal
func (o *CheckoutOrchestrator) ApplyCoupon(ctx context.Context, sessionID, code string) (*CheckoutSession, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutOrchestrator.ApplyCoupon")
	defer span.End()

	sess, err := o.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.editable() {
		return nil, fmt.Errorf("%w: coupons cannot change while %s", ErrInvalidTransition, sess.State)
	}

	applied, err := o.coupons.Apply(ctx, code, Subtotal(sess.Items))
	if err != nil {
		return nil, err
	}
	sess.Coupon = applied
	if err := o.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// RemoveCoupon clears any applied coupon. Removing twice is harmless.
func (o *CheckoutOrchestrator) RemoveCoupon(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	sess, err := o.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.editable() {
		return nil, fmt.Errorf("%w: coupons cannot change while %s", ErrInvalidTransition, sess.State)
	}
	if sess.Coupon == nil {
		return sess, nil
	}
	sess.Coupon = nil
	if err := o.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// PlaceOrder persists the order and starts payment or fulfillment. It
// returns without waiting for online payment to complete.
func (o *CheckoutOrchestrator) PlaceOrder(ctx context.Context, sessionID string) (*PlaceOrderResult, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutOrchestrator.PlaceOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.OrderPlacementLatency.Observe(time.Since(start).Seconds())
	}()

	sess, err := o.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.State != StateReviewingShipping || sess.Customer == nil {
		return nil, fmt.Errorf("%w: cannot place order while %s", ErrInvalidTransition, sess.State)
	}
	if sess.Shipping == nil || sess.Shipping.CourierCode == "" || sess.Shipping.Cost <= 0 {
		return nil, ErrShippingNotSelected
	}

	lockKey := "checkout:" + sess.ID
	locked, err := o.sessions.AcquireLock(ctx, lockKey, o.cfg.LockTTL)
	if err != nil {
		return nil, util.FailSpan(span, fmt.Errorf("failed to acquire checkout lock: %w", err))
	}
	if !locked {
		return nil, ErrCheckoutBusy
	}
	defer func() {
		if err := o.sessions.ReleaseLock(context.WithoutCancel(ctx), lockKey); err != nil {
			o.logger.Error("Failed to release checkout lock", zap.String("session_id", sess.ID), zap.Error(err))
		}
	}()

	sess.State = StateSubmitting
	if err := o.save(ctx, sess); err != nil {
		return nil, err
	}

	run := &placement{o: o, sess: sess, totals: sess.Totals()}
	result := run.saga().Execute(ctx)

	if result.Err != nil {
		util.OrdersFailedTotal.WithLabelValues(failedStep(result.Err)).Inc()
		sess.State = StateFailed
		sess.LastError = result.Err.Error()
		if err := o.save(context.WithoutCancel(ctx), sess); err != nil {
			o.logger.Error("Failed to save failed session", zap.String("session_id", sess.ID), zap.Error(err))
		}
		return nil, result.Err
	}

	util.OrdersPlacedTotal.WithLabelValues(sess.PaymentMethod).Inc()

	sess.State = StateSucceeded
	sess.OrderID = run.order.ID
	sess.Items = nil
	sess.Coupon = nil
	sess.LastError = ""
	if err := o.save(context.WithoutCancel(ctx), sess); err != nil {
		// The order exists; the session is only a convenience from here on
		o.logger.Error("Failed to save placed session", zap.String("session_id", sess.ID), zap.Error(err))
	}

	out := run.outcome(result)
	o.logger.Info("Order placed",
		zap.Int64("order_id", out.OrderID),
		zap.String("payment_method", out.PaymentMethod),
		zap.Strings("warnings", out.Warnings))
	return out, nil
}

// ConfirmPayment handles the success tuple the hosted checkout reports to
// the storefront. Only the checkout that placed the order may confirm it, and
// the signature is checked before anything is updated.
func (o *CheckoutOrchestrator) ConfirmPayment(ctx context.Context, orderID int64, checkoutID string, conf payment.PaymentConfirmation) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutOrchestrator.ConfirmPayment")
	defer span.End()

	order, err := o.orders.GetOrderByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !placedBy(order, checkoutID)) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, util.FailSpan(span, fmt.Errorf("failed to load order: %w", err))
	}

	recorded := order.PaymentDetails.RazorpayOrderID
	if recorded != "" && recorded != conf.GatewayOrderID {
		return nil, ErrPaymentMismatch
	}
	if !payment.VerifyPaymentSignature(conf.GatewayOrderID, conf.PaymentID, conf.Signature, o.cfg.KeySecret) {
		o.logger.Warn("Payment signature mismatch",
			zap.Int64("order_id", orderID),
			zap.String("gateway_order_id", conf.GatewayOrderID))
		return nil, ErrInvalidSignature
	}

	handled, err := o.gateway.ResolvePayment(ctx, conf)
	if !handled {
		if recorded == "" {
			return nil, ErrPaymentMismatch
		}
		err = o.reconciler.MarkPaid(ctx, orderID, conf)
	}
	if err != nil {
		return nil, err
	}

	return o.orders.GetOrderByID(ctx, orderID)
}

func (o *CheckoutOrchestrator) load(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	var sess CheckoutSession
	err := o.sessions.LoadSession(ctx, sessionID, &sess)
	if errors.Is(err, redisclient.ErrSessionNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (o *CheckoutOrchestrator) save(ctx context.Context, sess *CheckoutSession) error {
	sess.UpdatedAt = o.now()
	return o.sessions.SaveSession(ctx, sess.ID, sess, o.cfg.SessionTTL)
}

func failedStep(err error) string {
	var pe *PlacementError
	if errors.As(err, &pe) {
		return pe.Step
	}
	return "unknown"
}

// placement carries the state of one PlaceOrder saga run
type placement struct {
	o        *CheckoutOrchestrator
	sess     *CheckoutSession
	totals   Totals
	order    *models.Order
	items    []models.OrderItem
	remote   *payment.RemoteOrder
	checkout *payment.CheckoutOptions
}

func (p *placement) saga() *Saga {
	s := NewSaga("place_order", p.o.logger)

	s.AddStep(SagaStep{
		Name:       stepPersistOrder,
		Policy:     PolicyAbort,
		Action:     p.persistOrder,
		Compensate: p.discardOrder,
	})
	s.AddStep(SagaStep{
		Name:   stepPersistItems,
		Policy: PolicyAbort,
		Action: p.persistItems,
	})

	if p.sess.PaymentMethod == models.PaymentMethodCOD {
		s.AddStep(SagaStep{
			Name:   stepRequestFulfillment,
			Policy: PolicyContinue,
			Action: p.requestFulfillment,
		})
	} else {
		s.AddStep(SagaStep{
			Name:   stepCreateGatewayOrder,
			Policy: PolicyHalt,
			Group:  groupPayment,
			Action: p.createGatewayOrder,
		})
		s.AddStep(SagaStep{
			Name:   stepAttachGatewayOrder,
			Policy: PolicyContinue,
			Group:  groupPayment,
			Action: p.attachGatewayOrder,
		})
		s.AddStep(SagaStep{
			Name:   stepOpenCheckout,
			Policy: PolicyHalt,
			Group:  groupPayment,
			Action: p.openCheckout,
		})
	}

	s.AddStep(SagaStep{
		Name:   stepPublishPlaced,
		Policy: PolicyContinue,
		Action: p.publishPlaced,
	})
	return s
}

func (p *placement) persistOrder(ctx context.Context) error {
	sess := p.sess
	status := models.OrderStatusPendingPayment
	if sess.PaymentMethod == models.PaymentMethodCOD {
		status = models.OrderStatusPending
	}

	var couponCode *string
	if sess.Coupon != nil {
		code := sess.Coupon.Code
		couponCode = &code
	}

	p.order = &models.Order{
		UserID:          sess.UserID,
		TotalAmount:     p.totals.Total,
		ShippingAddress: models.ShippingAddress(*sess.Customer),
		Status:          status,
		CheckoutID:      sess.ID,
		PaymentDetails: models.PaymentDetails{
			PaymentMethod:  sess.PaymentMethod,
			Subtotal:       p.totals.Subtotal,
			Discount:       p.totals.Discount,
			ShippingCost:   p.totals.Shipping,
			CouponCode:     couponCode,
			CourierCode:    sess.Shipping.CourierCode,
			Pincode:        sess.Customer.Pincode,
			DeliveryMethod: sess.Shipping.CourierName,
		},
	}
	if err := p.o.orders.CreateOrder(ctx, p.order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (p *placement) discardOrder(ctx context.Context) error {
	if !p.o.cfg.RollbackOnItemFailure {
		p.o.logger.Warn("Keeping order without items", zap.Int64("order_id", p.order.ID))
		return nil
	}
	p.o.logger.Info("Rolling back order header", zap.Int64("order_id", p.order.ID))
	return p.o.orders.DeleteOrder(ctx, p.order.ID)
}

func (p *placement) persistItems(ctx context.Context) error {
	p.items = make([]models.OrderItem, 0, len(p.sess.Items))
	for _, item := range p.sess.Items {
		p.items = append(p.items, models.OrderItem{
			OrderID:     p.order.ID,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			Price:       item.Price,
			ProductName: item.Name,
		})
	}
	if err := p.o.orders.CreateOrderItems(ctx, p.items); err != nil {
		return fmt.Errorf("failed to create order items: %w", err)
	}
	return nil
}

func (p *placement) requestFulfillment(ctx context.Context) error {
	sess := p.sess
	cust := sess.Customer

	items := make([]shipping.FulfillmentItem, 0, len(sess.Items))
	for _, item := range sess.Items {
		items = append(items, shipping.FulfillmentItem{
			Name:         item.Name,
			SKU:          "ITEM" + strconv.FormatInt(item.ProductID, 10),
			Units:        item.Quantity,
			SellingPrice: item.Price,
		})
	}

	req := shipping.FulfillmentOrder{
		OrderDBID:           p.order.ID,
		OrderID:             fmt.Sprintf("NP%d", p.order.ID),
		OrderDate:           p.o.now().Format("2006-01-02 15:04"),
		PickupLocation:      p.o.cfg.PickupLocation,
		BillingCustomerName: cust.Name,
		BillingAddress:      cust.Address,
		BillingCity:         cust.City,
		BillingPincode:      cust.Pincode,
		BillingState:        cust.State,
		BillingCountry:      "India",
		BillingEmail:        cust.Email,
		BillingPhone:        cust.Phone,
		ShippingIsBilling:   true,
		PaymentMethod:       "COD",
		ShippingCharges:     p.totals.Shipping,
		TotalDiscount:       p.totals.Discount,
		SubTotal:            p.totals.Subtotal,
		Length:              10,
		Breadth:             10,
		Height:              10,
		Weight:              p.o.cfg.PackageWeight,
		OrderItems:          items,
	}

	res, err := p.o.shipper.CreateOrder(ctx, req)
	if err != nil {
		util.FulfillmentFailuresTotal.Inc()
		return err
	}
	p.o.logger.Info("Fulfillment requested",
		zap.Int64("order_id", p.order.ID),
		zap.Int64("shipment_id", res.ShipmentID))
	return nil
}

func (p *placement) createGatewayOrder(ctx context.Context) error {
	cust := p.sess.Customer
	notes := map[string]string{
		"order_id":       strconv.FormatInt(p.order.ID, 10),
		"customer_name":  cust.Name,
		"customer_email": cust.Email,
	}
	remote, err := p.o.gateway.CreateRemoteOrder(ctx, p.totals.Total, p.o.cfg.Currency,
		fmt.Sprintf("receipt_%d", p.order.ID), notes)
	if err != nil {
		return err
	}
	p.remote = remote
	return nil
}

func (p *placement) attachGatewayOrder(ctx context.Context) error {
	return p.o.orders.MergePaymentDetails(ctx, p.order.ID, "", map[string]interface{}{
		"razorpay_order_id": p.remote.ID,
	})
}

func (p *placement) openCheckout(ctx context.Context) error {
	orderID := p.order.ID
	cust := p.sess.Customer
	reconciler := p.o.reconciler

	opts, _, err := p.o.gateway.OpenCheckout(ctx, payment.CheckoutRequest{
		GatewayOrderID: p.remote.ID,
		Amount:         p.totals.Total,
		Currency:       p.o.cfg.Currency,
		Description:    fmt.Sprintf("Payment for order #%d", orderID),
		Prefill: payment.Prefill{
			Name:    cust.Name,
			Email:   cust.Email,
			Contact: cust.Phone,
		},
		Notes: map[string]string{"order_id": strconv.FormatInt(orderID, 10)},
	},
		func(ctx context.Context, conf payment.PaymentConfirmation) error {
			return reconciler.MarkPaid(ctx, orderID, conf)
		},
		func(ctx context.Context, err error) {
			reconciler.RecordPaymentError(ctx, orderID, err)
		},
	)
	if err != nil {
		return err
	}
	p.checkout = opts
	return nil
}

func (p *placement) publishPlaced(ctx context.Context) error {
	items := make([]models.OrderItemData, 0, len(p.items))
	for _, item := range p.items {
		items = append(items, models.OrderItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}
	return p.o.publisher.PublishOrderPlaced(ctx, &models.OrderPlacedEvent{
		BaseEvent:     broker.NewBaseEvent(models.EventTypeOrderPlaced),
		OrderID:       p.order.ID,
		UserID:        p.order.UserID,
		TotalAmount:   p.order.TotalAmount,
		PaymentMethod: p.order.PaymentDetails.PaymentMethod,
		Status:        p.order.Status,
		Items:         items,
	})
}

func (p *placement) outcome(result *SagaResult) *PlaceOrderResult {
	out := &PlaceOrderResult{
		OrderID:       p.order.ID,
		CheckoutID:    p.sess.ID,
		Status:        p.order.Status,
		PaymentMethod: p.sess.PaymentMethod,
		Totals:        p.totals,
	}
	for _, f := range result.Failures {
		out.Warnings = append(out.Warnings, f.Step)
	}

	if p.sess.PaymentMethod == models.PaymentMethodCOD {
		out.Message = MessageCODPlaced
		if result.Failed(stepRequestFulfillment) {
			out.Message = MessageCODShippingIssue
		}
		return out
	}

	out.PaymentPending = true
	switch {
	case result.Failed(stepCreateGatewayOrder):
		out.Message = MessagePaymentUnavailable
	case result.Failed(stepOpenCheckout):
		out.Message = MessageCheckoutNotOpened
	default:
		out.Message = MessageCompletePayment
		out.Checkout = p.checkout
	}
	return out
}
