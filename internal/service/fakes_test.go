package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coderkeshav-yt/naturalpuff/internal/models"
	"github.com/coderkeshav-yt/naturalpuff/internal/payment"
	"github.com/coderkeshav-yt/naturalpuff/internal/redisclient"
	"github.com/coderkeshav-yt/naturalpuff/internal/shipping"
	"github.com/coderkeshav-yt/naturalpuff/internal/store"
)

type fakeSessions struct {
	mu       sync.Mutex
	data     map[string][]byte
	locks    map[string]bool
	seen     map[string]bool
	seenErr  error
	lockHeld bool
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		data:  make(map[string][]byte),
		locks: make(map[string]bool),
		seen:  make(map[string]bool),
	}
}

func (f *fakeSessions) SaveSession(_ context.Context, id string, v interface{}, _ time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[id] = b
	return nil
}

func (f *fakeSessions) LoadSession(_ context.Context, id string, dst interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.data[id]
	if !ok {
		return redisclient.ErrSessionNotFound
	}
	return json.Unmarshal(b, dst)
}

func (f *fakeSessions) AcquireLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lockHeld || f.locks[key] {
		return false, nil
	}
	f.locks[key] = true
	return true, nil
}

func (f *fakeSessions) ReleaseLock(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.locks, key)
	return nil
}

func (f *fakeSessions) MarkEventSeen(_ context.Context, id string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seenErr != nil {
		return false, f.seenErr
	}
	if f.seen[id] {
		return false, nil
	}
	f.seen[id] = true
	return true, nil
}

func (f *fakeSessions) ForgetEvent(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.seen, id)
	return nil
}

type fakeCatalog struct {
	products map[int64]models.Product
	nextID   int64
	err      error
}

func newFakeCatalog(products ...models.Product) *fakeCatalog {
	c := &fakeCatalog{products: make(map[int64]models.Product)}
	for _, p := range products {
		c.products[p.ID] = p
		if p.ID > c.nextID {
			c.nextID = p.ID
		}
	}
	return c
}

func (c *fakeCatalog) ListProducts(context.Context) ([]models.Product, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := []models.Product{}
	for _, p := range c.products {
		out = append(out, p)
	}
	return out, nil
}

func (c *fakeCatalog) GetProductByID(_ context.Context, id int64) (*models.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	return &p, nil
}

func (c *fakeCatalog) CreateProduct(_ context.Context, p *models.Product) error {
	if c.err != nil {
		return c.err
	}
	c.nextID++
	p.ID = c.nextID
	p.CreatedAt = time.Now()
	c.products[p.ID] = *p
	return nil
}

func (c *fakeCatalog) UpdateProduct(_ context.Context, p *models.Product) error {
	if _, ok := c.products[p.ID]; !ok {
		return fmt.Errorf("product %d: %w", p.ID, store.ErrNotFound)
	}
	c.products[p.ID] = *p
	return nil
}

func (c *fakeCatalog) DeleteProduct(_ context.Context, id int64) error {
	if _, ok := c.products[id]; !ok {
		return fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	delete(c.products, id)
	return nil
}

func (c *fakeCatalog) GetProductsByIDs(_ context.Context, ids []int64) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeOrders struct {
	mu        sync.Mutex
	nextID    int64
	orders    map[int64]*models.Order
	items     map[int64][]models.OrderItem
	deleted   []int64
	createErr error
	itemsErr  error
	mergeErr  error
	merges    int
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{
		nextID: 100,
		orders: make(map[int64]*models.Order),
		items:  make(map[int64][]models.OrderItem),
	}
}

func (f *fakeOrders) CreateOrder(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	order.ID = f.nextID
	order.CreatedAt = time.Now()
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrders) DeleteOrder(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.orders, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeOrders) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, store.ErrNotFound)
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) GetOrderByGatewayOrderID(_ context.Context, gid string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.PaymentDetails.RazorpayOrderID == gid {
			cp := *o
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("gateway order %s: %w", gid, store.ErrNotFound)
}

func (f *fakeOrders) ListOrders(_ context.Context, limit int) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Order{}
	for _, o := range f.orders {
		if len(out) == limit {
			break
		}
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrders) MergePaymentDetails(_ context.Context, id int64, status string, patch map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.merges++
	if f.mergeErr != nil {
		return f.mergeErr
	}
	o, ok := f.orders[id]
	if !ok {
		return fmt.Errorf("order %d: %w", id, store.ErrNotFound)
	}

	raw, err := json.Marshal(o.PaymentDetails)
	if err != nil {
		return err
	}
	merged := map[string]interface{}{}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return err
	}
	for k, v := range patch {
		merged[k] = v
	}
	raw, err = json.Marshal(merged)
	if err != nil {
		return err
	}
	var details models.PaymentDetails
	if err := json.Unmarshal(raw, &details); err != nil {
		return err
	}
	o.PaymentDetails = details
	if status != "" {
		o.Status = status
	}
	return nil
}

func (f *fakeOrders) CreateOrderItems(_ context.Context, items []models.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.itemsErr != nil {
		return f.itemsErr
	}
	for _, item := range items {
		f.items[item.OrderID] = append(f.items[item.OrderID], item)
	}
	return nil
}

func (f *fakeOrders) GetOrderItemsByOrderID(_ context.Context, id int64) ([]models.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id], nil
}

func (f *fakeOrders) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

type fakeCoupons struct {
	coupons map[string]*models.Coupon
	byID    map[int64]*models.Coupon
	err     error
}

func newFakeCoupons(coupons ...models.Coupon) *fakeCoupons {
	f := &fakeCoupons{coupons: make(map[string]*models.Coupon), byID: make(map[int64]*models.Coupon)}
	for i := range coupons {
		c := coupons[i]
		f.coupons[c.Code] = &c
		f.byID[c.ID] = &c
	}
	return f
}

func (f *fakeCoupons) GetActiveCouponByCode(_ context.Context, code string) (*models.Coupon, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.coupons[code]
	if !ok || !c.IsActive {
		return nil, fmt.Errorf("coupon %s: %w", code, store.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCoupons) GetCouponByID(_ context.Context, id int64) (*models.Coupon, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("coupon %d: %w", id, store.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCoupons) ListCoupons(_ context.Context) ([]models.Coupon, error) {
	out := []models.Coupon{}
	for _, c := range f.byID {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCoupons) CreateCoupon(_ context.Context, c *models.Coupon) error {
	if _, ok := f.coupons[c.Code]; ok {
		return fmt.Errorf("coupon %s: %w", c.Code, store.ErrDuplicate)
	}
	c.ID = int64(len(f.byID) + 1)
	c.CreatedAt = time.Now()
	cp := *c
	f.coupons[c.Code] = &cp
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeCoupons) UpdateCoupon(_ context.Context, c *models.Coupon) error {
	old, ok := f.byID[c.ID]
	if !ok {
		return fmt.Errorf("coupon %d: %w", c.ID, store.ErrNotFound)
	}
	delete(f.coupons, old.Code)
	cp := *c
	f.coupons[c.Code] = &cp
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeCoupons) SetCouponActive(_ context.Context, id int64, active bool) error {
	c, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("coupon %d: %w", id, store.ErrNotFound)
	}
	c.IsActive = active
	return nil
}

func (f *fakeCoupons) DeleteCoupon(_ context.Context, id int64) error {
	c, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("coupon %d: %w", id, store.ErrNotFound)
	}
	delete(f.byID, id)
	delete(f.coupons, c.Code)
	return nil
}

type pendingCheckout struct {
	onSuccess payment.SuccessFunc
	onError   payment.ErrorFunc
}

type fakeGateway struct {
	mu        sync.Mutex
	createErr error
	openErr   error
	created   []int64
	pending   map[string]pendingCheckout
	nextID    int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{pending: make(map[string]pendingCheckout)}
}

func (g *fakeGateway) CreateRemoteOrder(_ context.Context, amount int64, currency, receipt string, _ map[string]string) (*payment.RemoteOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.nextID++
	g.created = append(g.created, amount)
	return &payment.RemoteOrder{
		ID:       fmt.Sprintf("order_%d", g.nextID),
		Amount:   amount * 100,
		Currency: currency,
		Receipt:  receipt,
	}, nil
}

func (g *fakeGateway) OpenCheckout(_ context.Context, req payment.CheckoutRequest, onSuccess payment.SuccessFunc, onError payment.ErrorFunc) (*payment.CheckoutOptions, *payment.PaymentHandle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.openErr != nil {
		return nil, nil, g.openErr
	}
	g.pending[req.GatewayOrderID] = pendingCheckout{onSuccess: onSuccess, onError: onError}
	return &payment.CheckoutOptions{
		Key:      "rzp_test_key",
		Amount:   req.Amount * 100,
		Currency: req.Currency,
		OrderID:  req.GatewayOrderID,
		Prefill:  req.Prefill,
	}, &payment.PaymentHandle{GatewayOrderID: req.GatewayOrderID}, nil
}

func (g *fakeGateway) take(gid string) (pendingCheckout, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.pending[gid]
	delete(g.pending, gid)
	return p, ok
}

func (g *fakeGateway) ResolvePayment(ctx context.Context, conf payment.PaymentConfirmation) (bool, error) {
	p, ok := g.take(conf.GatewayOrderID)
	if !ok {
		return false, nil
	}
	return true, p.onSuccess(ctx, conf)
}

func (g *fakeGateway) RejectPayment(ctx context.Context, gid string, cause error) bool {
	p, ok := g.take(gid)
	if !ok {
		return false
	}
	p.onError(ctx, cause)
	return true
}

type fakeShipper struct {
	options   []shipping.CourierOption
	ratesErr  error
	createErr error
	lastQuery shipping.RateQuery
	requested []shipping.FulfillmentOrder
}

func (s *fakeShipper) Rates(_ context.Context, q shipping.RateQuery) ([]shipping.CourierOption, error) {
	s.lastQuery = q
	return s.options, s.ratesErr
}

func (s *fakeShipper) CreateOrder(_ context.Context, order shipping.FulfillmentOrder) (*shipping.FulfillmentResult, error) {
	s.requested = append(s.requested, order)
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &shipping.FulfillmentResult{OrderID: 1, ShipmentID: 2, Status: "NEW"}, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	placed   []*models.OrderPlacedEvent
	paid     []*models.OrderPaidEvent
	captured []*models.PaymentCapturedEvent
	failed   []*models.PaymentFailedEvent
	err      error
}

func (p *fakePublisher) PublishOrderPlaced(_ context.Context, e *models.OrderPlacedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed = append(p.placed, e)
	return p.err
}

func (p *fakePublisher) PublishOrderPaid(_ context.Context, e *models.OrderPaidEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paid = append(p.paid, e)
	return p.err
}

func (p *fakePublisher) PublishPaymentCaptured(_ context.Context, e *models.PaymentCapturedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.captured = append(p.captured, e)
	return nil
}

func (p *fakePublisher) PublishPaymentFailed(_ context.Context, e *models.PaymentFailedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.failed = append(p.failed, e)
	return nil
}

var errBoom = errors.New("boom")
