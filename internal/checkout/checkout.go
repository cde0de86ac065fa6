// Package checkout drives the cart, coupon and checkout flow against the
// storefront API: it loads the server cart, keeps a single coupon slot in
// step with the cart subtotal, and places orders.
//
// Every mutating action issues one request and then re-fetches the cart.
// The orchestrator never computes discounts; it only decides whether the
// last server validation still matches the current subtotal.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"storefront/internal/backend"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/notice"
	"storefront/internal/reconcile"
)

// Sentinel errors for actions rejected before any request is sent.
var (
	ErrQuantityBelowOne     = errors.New("quantity must be at least 1")
	ErrEmptyCouponCode      = errors.New("coupon code is empty")
	ErrCouponPending        = errors.New("a coupon validation is already in flight")
	ErrCouponSuperseded     = errors.New("coupon changed while validating")
	ErrInvalidPaymentMethod = errors.New("payment method must be COD, CARD or UPI")
	ErrLineNotFound         = errors.New("product is not in the cart")
	ErrOrderInFlight        = errors.New("an order is already being placed")
)

// Backend is the slice of the storefront API the orchestrator needs.
type Backend interface {
	backend.Cart
	backend.Account
}

// Options configures an Orchestrator.
type Options struct {
	Notifier notice.Notifier // Defaults to notice.Discard
	Logger   *slog.Logger    // Defaults to slog.Default()
	Metrics  *metrics.Metrics
}

// Orchestrator is the cart and checkout view model. Safe for concurrent
// use; no request is made while holding the state mutex.
type Orchestrator struct {
	backend  Backend
	notifier notice.Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics

	// couponSem admits one coupon validation at a time.
	couponSem chan struct{}

	mu sync.Mutex

	lines      []model.CartLine
	subtotal   model.Money
	itemCount  int
	cartLoaded bool
	cartSeq    uint64 // last fetch issued
	appliedSeq uint64 // last fetch applied
	cartLoads  int    // fetches in flight

	slot       SlotState
	app        *CouponApplication
	pending    pendingValidation
	generation uint64
	typedCode  string

	addresses       []model.Address
	selectedAddress *int
	payment         model.PaymentMethod
	coupons         []model.Coupon
	placing         bool
}

type pendingValidation struct {
	code     string
	subtotal model.Money
}

// New creates an Orchestrator. Call Open to load the checkout page state.
func New(b Backend, opts Options) *Orchestrator {
	n := opts.Notifier
	if n == nil {
		n = notice.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		backend:   b,
		notifier:  n,
		logger:    logger,
		metrics:   opts.Metrics,
		couponSem: make(chan struct{}, 1),
		slot:      SlotEmpty,
		payment:   model.PaymentCOD,
		lines:     []model.CartLine{},
		addresses: []model.Address{},
		coupons:   []model.Coupon{},
	}
}

// Open loads the cart, saved addresses and available coupons concurrently.
// Only a cart failure is returned; the address list degrades to empty with
// a log line and the coupon list degrades to empty silently. The default
// address is preselected.
func (o *Orchestrator) Open(ctx context.Context) error {
	var g errgroup.Group

	g.Go(func() error {
		return o.LoadCart(ctx)
	})

	g.Go(func() error {
		addrs, err := o.backend.Addresses(ctx)
		if err != nil {
			o.logger.WarnContext(ctx, "failed to fetch addresses", slog.String("error", err.Error()))
			addrs = []model.Address{}
		}
		o.mu.Lock()
		o.addresses = addrs
		o.selectedAddress = nil
		for _, a := range addrs {
			if a.IsDefault {
				id := a.ID
				o.selectedAddress = &id
				break
			}
		}
		o.mu.Unlock()
		return nil
	})

	g.Go(func() error {
		coupons, err := o.backend.Coupons(ctx)
		if err != nil {
			coupons = []model.Coupon{}
		}
		o.mu.Lock()
		o.coupons = coupons
		o.mu.Unlock()
		return nil
	})

	return g.Wait()
}

// LoadCart fetches the server cart. A response is applied only if no newer
// fetch has already been applied. When a coupon is active and the new
// subtotal differs from the one it was validated against, the coupon is
// revalidated before LoadCart returns.
func (o *Orchestrator) LoadCart(ctx context.Context) error {
	o.mu.Lock()
	o.cartSeq++
	seq := o.cartSeq
	o.cartLoads++
	o.mu.Unlock()

	cart, err := o.backend.Cart(ctx)

	o.mu.Lock()
	o.cartLoads--
	if err != nil {
		o.mu.Unlock()
		o.notify(ctx, notice.Error, "cart_load_failed", "Failed to load cart")
		return fmt.Errorf("loading cart: %w", err)
	}
	if seq < o.appliedSeq {
		o.mu.Unlock()
		o.logger.DebugContext(ctx, "dropping superseded cart response", slog.Uint64("seq", seq))
		return nil
	}
	o.appliedSeq = seq
	o.lines = cart.Lines
	if o.lines == nil {
		o.lines = []model.CartLine{}
	}
	o.subtotal = cart.Subtotal
	o.itemCount = cart.ItemCount
	o.cartLoaded = true
	stale := o.couponStaleLocked()
	subtotal := o.subtotal
	o.mu.Unlock()

	if stale {
		o.revalidateCoupon(ctx, subtotal)
	}
	return nil
}

// SetLineQuantity sets a line's quantity, then reloads the cart.
// Quantities below 1 are rejected without a request.
func (o *Orchestrator) SetLineQuantity(ctx context.Context, productID, qty int) error {
	if qty < 1 {
		return ErrQuantityBelowOne
	}
	if err := o.backend.UpdateCartLine(ctx, productID, qty); err != nil {
		o.notify(ctx, notice.Error, "cart_update_failed", model.UserMessage(err, "Failed to update"))
		return fmt.Errorf("updating cart line: %w", err)
	}
	return o.LoadCart(ctx)
}

// Increment raises a line's quantity by one.
func (o *Orchestrator) Increment(ctx context.Context, productID int) error {
	line, ok := o.line(productID)
	if !ok {
		return ErrLineNotFound
	}
	return o.SetLineQuantity(ctx, productID, line.Quantity+1)
}

// Decrement lowers a line's quantity by one. At quantity 1 it is a no-op
// returning ErrQuantityBelowOne; removal is RemoveLine's job.
func (o *Orchestrator) Decrement(ctx context.Context, productID int) error {
	line, ok := o.line(productID)
	if !ok {
		return ErrLineNotFound
	}
	return o.SetLineQuantity(ctx, productID, line.Quantity-1)
}

// RemoveLine deletes a product from the cart, then reloads the cart.
func (o *Orchestrator) RemoveLine(ctx context.Context, productID int) error {
	if err := o.backend.RemoveCartLine(ctx, productID); err != nil {
		o.notify(ctx, notice.Error, "cart_remove_failed", "Failed to remove item")
		return fmt.Errorf("removing cart line: %w", err)
	}
	o.notify(ctx, notice.Success, "cart_item_removed", "Item removed")
	return o.LoadCart(ctx)
}

// AddLine adds qty of a product to the cart, then reloads the cart.
func (o *Orchestrator) AddLine(ctx context.Context, productID, qty int) error {
	if qty < 1 {
		return ErrQuantityBelowOne
	}
	if err := o.backend.AddToCart(ctx, productID, qty); err != nil {
		o.notify(ctx, notice.Error, "cart_add_failed", model.UserMessage(err, "Failed to add to cart"))
		return fmt.Errorf("adding to cart: %w", err)
	}
	o.notify(ctx, notice.Success, "cart_item_added", "Added to cart!")
	return o.LoadCart(ctx)
}

// SyncLines brings the server cart to the desired lines, sending removals,
// then updates, then additions. It stops at the first failed request and
// always finishes with one cart reload.
func (o *Orchestrator) SyncLines(ctx context.Context, desired []reconcile.DesiredLine) (*reconcile.LineDiff, error) {
	current, err := o.backend.Cart(ctx)
	if err != nil {
		o.notify(ctx, notice.Error, "cart_load_failed", "Failed to load cart")
		return nil, fmt.Errorf("loading cart: %w", err)
	}

	diff := reconcile.DiffLines(current.Lines, desired)
	if diff.IsEmpty() {
		return diff, o.LoadCart(ctx)
	}

	o.logger.InfoContext(ctx, "syncing cart lines",
		slog.Int("remove", len(diff.ToRemove)),
		slog.Int("update", len(diff.ToUpdate)),
		slog.Int("add", len(diff.ToAdd)),
	)

	applyErr := o.applyDiff(ctx, diff)
	if applyErr != nil {
		o.notify(ctx, notice.Error, "cart_update_failed", model.UserMessage(applyErr, "Failed to update"))
	}
	if err := o.LoadCart(ctx); err != nil && applyErr == nil {
		return diff, err
	}
	return diff, applyErr
}

func (o *Orchestrator) applyDiff(ctx context.Context, diff *reconcile.LineDiff) error {
	for _, r := range diff.ToRemove {
		if err := o.backend.RemoveCartLine(ctx, r.ProductID); err != nil {
			return fmt.Errorf("removing product %d: %w", r.ProductID, err)
		}
	}
	for _, u := range diff.ToUpdate {
		if err := o.backend.UpdateCartLine(ctx, u.ProductID, u.NewQuantity); err != nil {
			return fmt.Errorf("updating product %d: %w", u.ProductID, err)
		}
	}
	for _, a := range diff.ToAdd {
		if err := o.backend.AddToCart(ctx, a.ProductID, a.Quantity); err != nil {
			return fmt.Errorf("adding product %d: %w", a.ProductID, err)
		}
	}
	return nil
}

// SelectAddress picks a saved address for the order.
func (o *Orchestrator) SelectAddress(id int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, a := range o.addresses {
		if a.ID == id {
			o.selectedAddress = &id
			return nil
		}
	}
	return model.NewNotFoundError("address")
}

// ClearAddress deselects any address; the order is then placed without one.
func (o *Orchestrator) ClearAddress() {
	o.mu.Lock()
	o.selectedAddress = nil
	o.mu.Unlock()
}

// SelectPaymentMethod picks COD, CARD or UPI.
func (o *Orchestrator) SelectPaymentMethod(m model.PaymentMethod) error {
	m = model.PaymentMethod(strings.ToUpper(strings.TrimSpace(string(m))))
	if !m.Valid() {
		return ErrInvalidPaymentMethod
	}
	o.mu.Lock()
	o.payment = m
	o.mu.Unlock()
	return nil
}

// PlaceOrder submits the order. address_id is sent only when an address is
// selected and coupon_code only when a coupon is applied. On success the
// server has cleared the cart and the local lines are cleared to match. On
// failure nothing changes and the coupon stays applied.
func (o *Orchestrator) PlaceOrder(ctx context.Context) (*model.Order, error) {
	o.mu.Lock()
	if o.placing {
		o.mu.Unlock()
		return nil, ErrOrderInFlight
	}
	req := model.PlaceOrderRequest{PaymentMethod: o.payment}
	if o.selectedAddress != nil {
		id := *o.selectedAddress
		req.AddressID = &id
	}
	if o.slot == SlotApplied && o.app != nil {
		req.CouponCode = o.app.Code
	}
	o.placing = true
	o.mu.Unlock()

	o.logger.InfoContext(ctx, "placing order",
		slog.String("payment_method", string(req.PaymentMethod)),
		slog.Bool("has_address", req.AddressID != nil),
		slog.Bool("has_coupon", req.CouponCode != ""),
	)

	order, err := o.backend.PlaceOrder(ctx, req)

	o.mu.Lock()
	o.placing = false
	if err != nil {
		o.mu.Unlock()
		o.notify(ctx, notice.Error, "order_failed", model.UserMessage(err, "Failed to place order"))
		return nil, fmt.Errorf("placing order: %w", err)
	}
	o.lines = []model.CartLine{}
	o.subtotal = 0
	o.itemCount = 0
	o.cartSeq++
	o.appliedSeq = o.cartSeq
	o.clearCouponLocked()
	o.mu.Unlock()

	o.logger.InfoContext(ctx, "order placed", slog.Int("order_id", order.ID))
	o.notify(ctx, notice.Success, "order_placed", "Order placed successfully!")
	return order, nil
}

func (o *Orchestrator) line(productID int) (model.CartLine, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, l := range o.lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return model.CartLine{}, false
}

func (o *Orchestrator) notify(ctx context.Context, level notice.Level, code, msg string) {
	notice.Deliver(ctx, o.notifier, notice.Notice{Level: level, Code: code, Message: msg})
}
