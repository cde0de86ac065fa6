package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"storefront/internal/api"
	"storefront/internal/backend"
	"storefront/internal/model"
	"storefront/internal/notice"
	"storefront/internal/reconcile"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// shop is an in-memory storefront: a cart priced from a product table and
// the two reference coupons.
type shop struct {
	mu        sync.Mutex
	prices    map[int]model.Money
	qty       map[int]int
	calls     []string
	validated []model.Money
	placed    []model.PlaceOrderRequest
}

func newShop() *shop {
	return &shop{
		prices: map[int]model.Money{1: 2000, 2: 5000, 3: 1000},
		qty:    map[int]int{},
	}
}

func (s *shop) record(call string) {
	s.calls = append(s.calls, call)
}

func (s *shop) cart() *model.Cart {
	ids := make([]int, 0, len(s.qty))
	for id := range s.qty {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	c := &model.Cart{Lines: []model.CartLine{}}
	for i, id := range ids {
		line := model.CartLine{ID: i + 1, ProductID: id, Quantity: s.qty[id], Product: &model.Product{ID: id, Price: s.prices[id]}}
		c.Lines = append(c.Lines, line)
		c.Subtotal += line.LineTotal()
		c.ItemCount += line.Quantity
	}
	return c
}

func (s *shop) validate(code string, total model.Money) (*model.CouponValidation, error) {
	switch code {
	case "WELCOME10":
		d := model.Money(int64(total) / 10)
		return &model.CouponValidation{Discount: d, FinalTotal: total - d,
			Coupon: model.Coupon{Code: code, DiscountType: model.DiscountPercent, DiscountValue: 10}}, nil
	case "FLAT50":
		if total < 5000 {
			return nil, model.NewServerError(400, "Minimum order amount is $50.00")
		}
		return &model.CouponValidation{Discount: 5000, FinalTotal: total - 5000,
			Coupon: model.Coupon{Code: code, DiscountType: model.DiscountFlat, DiscountValue: 50, MinOrderAmount: 5000}}, nil
	}
	return nil, model.NewServerError(404, "Invalid coupon code")
}

func (s *shop) mock() *backend.Mock {
	return &backend.Mock{
		CartFunc: func(ctx context.Context) (*model.Cart, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			return s.cart(), nil
		},
		AddToCartFunc: func(ctx context.Context, productID, quantity int) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.record(fmt.Sprintf("add %d x%d", productID, quantity))
			s.qty[productID] += quantity
			return nil
		},
		UpdateCartLineFunc: func(ctx context.Context, productID, quantity int) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.record(fmt.Sprintf("update %d x%d", productID, quantity))
			if _, ok := s.qty[productID]; !ok {
				return model.NewServerError(404, "Item not in cart")
			}
			s.qty[productID] = quantity
			return nil
		},
		RemoveCartLineFunc: func(ctx context.Context, productID int) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.record(fmt.Sprintf("remove %d", productID))
			delete(s.qty, productID)
			return nil
		},
		ValidateCouponFunc: func(ctx context.Context, code string, total model.Money) (*model.CouponValidation, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.validated = append(s.validated, total)
			return s.validate(code, total)
		},
		PlaceOrderFunc: func(ctx context.Context, req model.PlaceOrderRequest) (*model.Order, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.placed = append(s.placed, req)
			s.qty = map[int]int{}
			return &model.Order{ID: 42, Status: model.OrderPlaced, PaymentMethod: req.PaymentMethod, CouponCode: req.CouponCode}, nil
		},
	}
}

func (s *shop) validations() []model.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Money(nil), s.validated...)
}

func newOrchestrator(t *testing.T, b Backend) (*Orchestrator, *notice.Recorder) {
	t.Helper()
	rec := &notice.Recorder{}
	return New(b, Options{Notifier: rec, Logger: discardLogger}), rec
}

func lastNotice(t *testing.T, rec *notice.Recorder) notice.Notice {
	t.Helper()
	all := rec.Notices()
	if len(all) == 0 {
		t.Fatal("no notices recorded")
	}
	return all[len(all)-1]
}

func TestApplyWelcome10(t *testing.T) {
	s := newShop()
	s.qty[2] = 2 // 100.00
	o, rec := newOrchestrator(t, s.mock())
	ctx := context.Background()

	if err := o.LoadCart(ctx); err != nil {
		t.Fatalf("LoadCart() error: %v", err)
	}
	app, err := o.ApplyCoupon(ctx, " welcome10 ")
	if err != nil {
		t.Fatalf("ApplyCoupon() error: %v", err)
	}
	if app.Discount != 1000 || app.FinalTotal != 9000 || app.ValidatedSubtotal != 10000 {
		t.Errorf("application = %+v, want discount 10.00 final 90.00", app)
	}

	v := o.View()
	if v.Coupon.State != SlotApplied || v.Discount != 1000 || v.FinalTotal != 9000 {
		t.Errorf("view coupon=%v discount=%v final=%v", v.Coupon.State, v.Discount, v.FinalTotal)
	}
	if v.TypedCode != "WELCOME10" {
		t.Errorf("TypedCode = %q", v.TypedCode)
	}
	want := notice.Notice{Level: notice.Success, Code: "coupon_applied", Message: "Coupon applied! You save $10.00"}
	if diff := cmp.Diff(want, lastNotice(t, rec)); diff != "" {
		t.Errorf("notice mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyFlat50BelowMinimum(t *testing.T) {
	s := newShop()
	s.qty[1] = 2 // 40.00
	o, rec := newOrchestrator(t, s.mock())
	ctx := context.Background()
	o.LoadCart(ctx)

	_, err := o.ApplyCoupon(ctx, "FLAT50")
	if !errors.Is(err, model.ErrInvalidRequest) {
		t.Fatalf("ApplyCoupon() error = %v, want invalid request", err)
	}

	v := o.View()
	if v.Coupon.State != SlotEmpty || v.Coupon.Application != nil {
		t.Errorf("coupon = %+v, want empty slot", v.Coupon)
	}
	if v.TypedCode != "FLAT50" {
		t.Errorf("TypedCode = %q, typed code should be kept after a failed apply", v.TypedCode)
	}
	if v.FinalTotal != 4000 {
		t.Errorf("FinalTotal = %v, want 40.00", v.FinalTotal)
	}
	n := lastNotice(t, rec)
	if n.Level != notice.Error || n.Message != "Minimum order amount is $50.00" {
		t.Errorf("notice = %+v, want server message", n)
	}
}

func TestApplyUnknownCodeFallbackMessage(t *testing.T) {
	m := &backend.Mock{ValidateCouponFunc: func(ctx context.Context, code string, total model.Money) (*model.CouponValidation, error) {
		return nil, model.NewServerError(500, "")
	}}
	o, rec := newOrchestrator(t, m)
	if _, err := o.ApplyCoupon(context.Background(), "NOPE"); err == nil {
		t.Fatal("expected error")
	}
	if n := lastNotice(t, rec); n.Message != "Invalid coupon" {
		t.Errorf("notice = %q, want fallback", n.Message)
	}
}

func TestApplyEmptyCodeSendsNothing(t *testing.T) {
	s := newShop()
	o, _ := newOrchestrator(t, s.mock())
	if _, err := o.ApplyCoupon(context.Background(), "   "); !errors.Is(err, ErrEmptyCouponCode) {
		t.Errorf("error = %v, want ErrEmptyCouponCode", err)
	}
	if n := len(s.validations()); n != 0 {
		t.Errorf("%d validations sent, want 0", n)
	}
}

func TestSubtotalChangeRevalidatesOnce(t *testing.T) {
	s := newShop()
	s.qty[2] = 2 // 100.00
	o, _ := newOrchestrator(t, s.mock())
	ctx := context.Background()
	o.LoadCart(ctx)
	if _, err := o.ApplyCoupon(ctx, "WELCOME10"); err != nil {
		t.Fatalf("ApplyCoupon() error: %v", err)
	}

	if err := o.SetLineQuantity(ctx, 2, 3); err != nil { // 150.00
		t.Fatalf("SetLineQuantity() error: %v", err)
	}

	if diff := cmp.Diff([]model.Money{10000, 15000}, s.validations()); diff != "" {
		t.Errorf("validations mismatch (-want +got):\n%s", diff)
	}
	v := o.View()
	if v.Discount != 1500 || v.FinalTotal != 13500 || v.Coupon.Stale {
		t.Errorf("view discount=%v final=%v stale=%v, want 15.00/135.00", v.Discount, v.FinalTotal, v.Coupon.Stale)
	}
}

func TestUnchangedSubtotalSkipsRevalidation(t *testing.T) {
	s := newShop()
	s.qty[2] = 2
	o, _ := newOrchestrator(t, s.mock())
	ctx := context.Background()
	o.LoadCart(ctx)
	o.ApplyCoupon(ctx, "WELCOME10")

	o.LoadCart(ctx)
	o.LoadCart(ctx)

	if n := len(s.validations()); n != 1 {
		t.Errorf("%d validations, want only the initial apply", n)
	}
}

func TestRevalidationFailureEmptiesSlot(t *testing.T) {
	s := newShop()
	s.qty[2] = 1 // 50.00
	s.qty[3] = 1 // 10.00
	o, rec := newOrchestrator(t, s.mock())
	ctx := context.Background()
	o.LoadCart(ctx)
	if _, err := o.ApplyCoupon(ctx, "FLAT50"); err != nil {
		t.Fatalf("ApplyCoupon() error: %v", err)
	}

	if err := o.RemoveLine(ctx, 2); err != nil { // 10.00
		t.Fatalf("RemoveLine() error: %v", err)
	}

	v := o.View()
	if v.Coupon.State != SlotEmpty || v.TypedCode != "" {
		t.Errorf("coupon=%v typed=%q, want empty slot and cleared code", v.Coupon.State, v.TypedCode)
	}
	if v.FinalTotal != 1000 {
		t.Errorf("FinalTotal = %v, want 10.00", v.FinalTotal)
	}
	if diff := cmp.Diff([]model.Money{6000, 1000}, s.validations()); diff != "" {
		t.Errorf("validations mismatch (-want +got):\n%s", diff)
	}
	want := notice.Notice{Level: notice.Warning, Code: "coupon_removed", Message: "Coupon removed: no longer valid for current cart total"}
	if diff := cmp.Diff(want, lastNotice(t, rec)); diff != "" {
		t.Errorf("notice mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscountClampedToSubtotal(t *testing.T) {
	m := &backend.Mock{
		CartFunc: func(ctx context.Context) (*model.Cart, error) {
			return &model.Cart{Subtotal: 10000}, nil
		},
		ValidateCouponFunc: func(ctx context.Context, code string, total model.Money) (*model.CouponValidation, error) {
			return &model.CouponValidation{Discount: 15000, Coupon: model.Coupon{Code: code}}, nil
		},
	}
	o, _ := newOrchestrator(t, m)
	ctx := context.Background()
	o.LoadCart(ctx)
	o.ApplyCoupon(ctx, "BIG")

	v := o.View()
	if v.Discount != 10000 || v.FinalTotal != 0 {
		t.Errorf("discount=%v final=%v, want clamped to subtotal", v.Discount, v.FinalTotal)
	}
	if v.Lines == nil {
		t.Error("Lines should be an empty slice, not nil")
	}
}

func TestValidInvalidResponseTreatedAsRejection(t *testing.T) {
	m := &backend.Mock{ValidateCouponFunc: func(ctx context.Context, code string, total model.Money) (*model.CouponValidation, error) {
		valid := false
		return &model.CouponValidation{Valid: &valid}, nil
	}}
	o, rec := newOrchestrator(t, m)
	if _, err := o.ApplyCoupon(context.Background(), "X"); err == nil {
		t.Fatal("expected error for valid=false")
	}
	if o.View().Coupon.State != SlotEmpty {
		t.Error("slot should be empty")
	}
	if n := lastNotice(t, rec); n.Message != "Invalid coupon" {
		t.Errorf("notice = %q", n.Message)
	}
}

func TestApplyCouponOverHTTPWithoutValidKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/cart":
			w.Write([]byte(`{"cart":[{"id":1,"product_id":2,"quantity":2,"product":{"id":2,"price":50.0}}],"total":100.0,"item_count":2}`))
		case "/api/coupons/validate":
			w.Write([]byte(`{"discount":10.00,"final_total":90.00,"coupon":{"code":"WELCOME10","discount_type":"percent","discount_value":10}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c, err := api.New(api.Options{BaseURL: srv.URL + "/api/", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("api.New() error: %v", err)
	}
	o, _ := newOrchestrator(t, c)
	ctx := context.Background()
	if err := o.LoadCart(ctx); err != nil {
		t.Fatalf("LoadCart() error: %v", err)
	}

	applied, err := o.ApplyCoupon(ctx, "welcome10")
	if err != nil {
		t.Fatalf("ApplyCoupon() error: %v", err)
	}
	if applied.Discount != 1000 {
		t.Errorf("Discount = %v, want 10.00", applied.Discount)
	}
	if v := o.View(); v.Coupon.State != SlotApplied || v.FinalTotal != 9000 {
		t.Errorf("state=%s final=%v, want applied/90.00", v.Coupon.State, v.FinalTotal)
	}
}

func TestApplyWhilePendingDoesNotQueue(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var calls int
	var mu sync.Mutex
	m := &backend.Mock{ValidateCouponFunc: func(ctx context.Context, code string, total model.Money) (*model.CouponValidation, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(started)
		<-release
		return &model.CouponValidation{Coupon: model.Coupon{Code: code}}, nil
	}}
	o, _ := newOrchestrator(t, m)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := o.ApplyCoupon(ctx, "FIRST")
		done <- err
	}()
	<-started

	if v := o.View(); v.Coupon.State != SlotPending || !v.Loading.Coupon {
		t.Errorf("view coupon = %+v loading=%v, want pending", v.Coupon, v.Loading.Coupon)
	}
	if _, err := o.ApplyCoupon(ctx, "SECOND"); !errors.Is(err, ErrCouponPending) {
		t.Errorf("second ApplyCoupon() = %v, want ErrCouponPending", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first ApplyCoupon() error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("%d validations sent, want 1", calls)
	}
}

func TestRemoveCouponDiscardsInFlightResult(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	m := &backend.Mock{ValidateCouponFunc: func(ctx context.Context, code string, total model.Money) (*model.CouponValidation, error) {
		close(started)
		<-release
		return &model.CouponValidation{Discount: 100, Coupon: model.Coupon{Code: code}}, nil
	}}
	o, rec := newOrchestrator(t, m)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := o.ApplyCoupon(ctx, "LATE")
		done <- err
	}()
	<-started
	o.RemoveCoupon()
	close(release)

	if err := <-done; !errors.Is(err, ErrCouponSuperseded) {
		t.Errorf("ApplyCoupon() = %v, want ErrCouponSuperseded", err)
	}
	if v := o.View(); v.Coupon.State != SlotEmpty || v.TypedCode != "" {
		t.Errorf("coupon = %+v typed=%q, want empty", v.Coupon, v.TypedCode)
	}
	if len(rec.Notices()) != 0 {
		t.Errorf("notices = %v, want none for a discarded result", rec.Notices())
	}
}

func TestCartChangeDuringPendingApplyRevalidates(t *testing.T) {
	s := newShop()
	s.qty[2] = 2 // 100.00
	release := make(chan struct{})
	started := make(chan struct{})
	m := s.mock()
	inner := m.ValidateCouponFunc
	var once sync.Once
	m.ValidateCouponFunc = func(ctx context.Context, code string, total model.Money) (*model.CouponValidation, error) {
		first := false
		once.Do(func() { first = true })
		if first {
			close(started)
			<-release
		}
		return inner(ctx, code, total)
	}
	o, _ := newOrchestrator(t, m)
	ctx := context.Background()
	o.LoadCart(ctx)

	done := make(chan error, 1)
	go func() {
		_, err := o.ApplyCoupon(ctx, "WELCOME10")
		done <- err
	}()
	<-started

	s.mu.Lock()
	s.qty[2] = 4 // 200.00
	s.mu.Unlock()
	loaded := make(chan error, 1)
	go func() { loaded <- o.LoadCart(ctx) }()

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("ApplyCoupon() error: %v", err)
	}
	if err := <-loaded; err != nil {
		t.Fatalf("LoadCart() error: %v", err)
	}

	if diff := cmp.Diff([]model.Money{10000, 20000}, s.validations()); diff != "" {
		t.Errorf("validations mismatch (-want +got):\n%s", diff)
	}
	if v := o.View(); v.Discount != 2000 || v.FinalTotal != 18000 {
		t.Errorf("discount=%v final=%v, want 20.00/180.00", v.Discount, v.FinalTotal)
	}
}

func TestApplyReportsCouponDroppedByCartChange(t *testing.T) {
	s := newShop()
	s.qty[2] = 2 // 100.00
	release := make(chan struct{})
	started := make(chan struct{})
	m := s.mock()
	inner := m.ValidateCouponFunc
	var once sync.Once
	m.ValidateCouponFunc = func(ctx context.Context, code string, total model.Money) (*model.CouponValidation, error) {
		first := false
		once.Do(func() { first = true })
		if first {
			close(started)
			<-release
		}
		return inner(ctx, code, total)
	}
	o, rec := newOrchestrator(t, m)
	ctx := context.Background()
	o.LoadCart(ctx)

	done := make(chan error, 1)
	go func() {
		_, err := o.ApplyCoupon(ctx, "FLAT50")
		done <- err
	}()
	<-started

	s.mu.Lock()
	delete(s.qty, 2)
	s.qty[1] = 2 // 40.00, below the FLAT50 minimum
	s.mu.Unlock()
	loaded := make(chan error, 1)
	go func() { loaded <- o.LoadCart(ctx) }()
	deadline := time.Now().Add(2 * time.Second)
	for o.View().Subtotal != 4000 {
		if time.Now().After(deadline) {
			t.Fatal("cart reload never landed")
		}
		time.Sleep(time.Millisecond)
	}

	close(release)
	if err := <-done; !errors.Is(err, ErrCouponSuperseded) {
		t.Errorf("ApplyCoupon() = %v, want ErrCouponSuperseded", err)
	}
	if err := <-loaded; err != nil {
		t.Fatalf("LoadCart() error: %v", err)
	}

	if diff := cmp.Diff([]model.Money{10000, 4000}, s.validations()); diff != "" {
		t.Errorf("validations mismatch (-want +got):\n%s", diff)
	}
	if v := o.View(); v.Coupon.State != SlotEmpty || v.FinalTotal != 4000 {
		t.Errorf("state=%s final=%v, want empty/40.00", v.Coupon.State, v.FinalTotal)
	}
	if n := lastNotice(t, rec); n.Code != "coupon_removed" {
		t.Errorf("last notice = %+v, want coupon_removed", n)
	}
}

func TestDecrementAtOneIsNeverSent(t *testing.T) {
	s := newShop()
	s.qty[1] = 1
	o, _ := newOrchestrator(t, s.mock())
	ctx := context.Background()
	o.LoadCart(ctx)

	if err := o.Decrement(ctx, 1); !errors.Is(err, ErrQuantityBelowOne) {
		t.Errorf("Decrement() = %v, want ErrQuantityBelowOne", err)
	}
	if err := o.SetLineQuantity(ctx, 1, 0); !errors.Is(err, ErrQuantityBelowOne) {
		t.Errorf("SetLineQuantity(0) = %v, want ErrQuantityBelowOne", err)
	}
	if len(s.calls) != 0 {
		t.Errorf("calls = %v, want none", s.calls)
	}

	if err := o.Increment(ctx, 1); err != nil {
		t.Fatalf("Increment() error: %v", err)
	}
	if err := o.Decrement(ctx, 1); err != nil {
		t.Fatalf("Decrement() error: %v", err)
	}
	if diff := cmp.Diff([]string{"update 1 x2", "update 1 x1"}, s.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if err := o.Increment(ctx, 99); !errors.Is(err, ErrLineNotFound) {
		t.Errorf("Increment(missing) = %v, want ErrLineNotFound", err)
	}
}

func TestUpdateFailureNotices(t *testing.T) {
	m := &backend.Mock{
		UpdateCartLineFunc: func(ctx context.Context, productID, quantity int) error {
			return model.NewServerError(400, "Insufficient stock. Only 3 available")
		},
		RemoveCartLineFunc: func(ctx context.Context, productID int) error {
			return model.NewServerError(404, "Item not in cart")
		},
	}
	o, rec := newOrchestrator(t, m)
	ctx := context.Background()

	if err := o.SetLineQuantity(ctx, 1, 5); err == nil {
		t.Fatal("expected update error")
	}
	if err := o.RemoveLine(ctx, 1); err == nil {
		t.Fatal("expected remove error")
	}

	want := []notice.Notice{
		{Level: notice.Error, Code: "cart_update_failed", Message: "Insufficient stock. Only 3 available"},
		{Level: notice.Error, Code: "cart_remove_failed", Message: "Failed to remove item"},
	}
	if diff := cmp.Diff(want, rec.Notices()); diff != "" {
		t.Errorf("notices mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCartFailureKeepsState(t *testing.T) {
	fail := false
	m := &backend.Mock{CartFunc: func(ctx context.Context) (*model.Cart, error) {
		if fail {
			return nil, model.NewUpstreamError("storefront API", errors.New("down"))
		}
		return &model.Cart{Lines: []model.CartLine{{ProductID: 1, Quantity: 2}}, Subtotal: 4000}, nil
	}}
	o, rec := newOrchestrator(t, m)
	ctx := context.Background()
	o.LoadCart(ctx)

	fail = true
	if err := o.LoadCart(ctx); !errors.Is(err, model.ErrUpstreamError) {
		t.Errorf("LoadCart() = %v, want upstream error", err)
	}
	v := o.View()
	if v.Subtotal != 4000 || len(v.Lines) != 1 {
		t.Errorf("view = %+v, want prior state kept", v)
	}
	if n := lastNotice(t, rec); n.Message != "Failed to load cart" {
		t.Errorf("notice = %q", n.Message)
	}
}

func TestSupersededCartResponseDropped(t *testing.T) {
	slow := make(chan struct{})
	slowStarted := make(chan struct{})
	var n int
	var mu sync.Mutex
	m := &backend.Mock{CartFunc: func(ctx context.Context) (*model.Cart, error) {
		mu.Lock()
		n++
		call := n
		mu.Unlock()
		if call == 1 {
			close(slowStarted)
			<-slow
			return &model.Cart{Subtotal: 1000}, nil
		}
		return &model.Cart{Subtotal: 2000}, nil
	}}
	o, _ := newOrchestrator(t, m)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- o.LoadCart(ctx) }()
	<-slowStarted

	if err := o.LoadCart(ctx); err != nil {
		t.Fatalf("LoadCart() error: %v", err)
	}
	if !o.View().Loading.Cart {
		t.Error("Loading.Cart should be true while the first fetch is in flight")
	}
	close(slow)
	if err := <-done; err != nil {
		t.Fatalf("slow LoadCart() error: %v", err)
	}

	v := o.View()
	if v.Subtotal != 2000 {
		t.Errorf("Subtotal = %v, want the newer response", v.Subtotal)
	}
	if v.Loading.Cart {
		t.Error("Loading.Cart should be false once every fetch finished")
	}
}

func TestOpenDegradesSecondaryLoads(t *testing.T) {
	m := &backend.Mock{
		AddressesFunc: func(ctx context.Context) ([]model.Address, error) {
			return nil, model.NewUpstreamError("storefront API", errors.New("down"))
		},
		CouponsFunc: func(ctx context.Context) ([]model.Coupon, error) {
			return nil, model.NewServerError(500, "")
		},
	}
	o, rec := newOrchestrator(t, m)

	if err := o.Open(context.Background()); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	v := o.View()
	if v.Addresses == nil || len(v.Addresses) != 0 || len(v.AvailableCoupons) != 0 {
		t.Errorf("addresses=%v coupons=%v, want empty lists", v.Addresses, v.AvailableCoupons)
	}
	if len(rec.Notices()) != 0 {
		t.Errorf("notices = %v, want secondary failures to stay quiet", rec.Notices())
	}
}

func TestOpenPreselectsDefaultAddress(t *testing.T) {
	m := &backend.Mock{
		AddressesFunc: func(ctx context.Context) ([]model.Address, error) {
			return []model.Address{{ID: 3}, {ID: 7, IsDefault: true}}, nil
		},
		CouponsFunc: func(ctx context.Context) ([]model.Coupon, error) {
			return []model.Coupon{{Code: "WELCOME10"}}, nil
		},
	}
	o, _ := newOrchestrator(t, m)
	if err := o.Open(context.Background()); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	v := o.View()
	if v.SelectedAddressID == nil || *v.SelectedAddressID != 7 {
		t.Errorf("SelectedAddressID = %v, want 7", v.SelectedAddressID)
	}
	if a, ok := v.SelectedAddress(); !ok || a.ID != 7 {
		t.Errorf("SelectedAddress() = %+v, %v", a, ok)
	}
	if len(v.AvailableCoupons) != 1 {
		t.Errorf("AvailableCoupons = %v", v.AvailableCoupons)
	}
	if err := o.SelectAddress(99); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("SelectAddress(99) = %v, want not found", err)
	}
	if err := o.SelectAddress(3); err != nil {
		t.Errorf("SelectAddress(3) error: %v", err)
	}
}

func TestOpenCartFailure(t *testing.T) {
	m := &backend.Mock{CartFunc: func(ctx context.Context) (*model.Cart, error) {
		return nil, model.NewServerError(500, "")
	}}
	o, rec := newOrchestrator(t, m)
	if err := o.Open(context.Background()); err == nil {
		t.Fatal("expected cart failure from Open")
	}
	if n := lastNotice(t, rec); n.Message != "Failed to load cart" {
		t.Errorf("notice = %q", n.Message)
	}
}

func TestPlaceOrderWithoutAddressSendsOnlyPaymentMethod(t *testing.T) {
	s := newShop()
	s.qty[1] = 1
	o, rec := newOrchestrator(t, s.mock())
	ctx := context.Background()
	if err := o.Open(ctx); err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	order, err := o.PlaceOrder(ctx)
	if err != nil {
		t.Fatalf("PlaceOrder() error: %v", err)
	}
	if order.ID != 42 {
		t.Errorf("order ID = %d", order.ID)
	}
	body, _ := json.Marshal(s.placed[0])
	if string(body) != `{"payment_method":"COD"}` {
		t.Errorf("body = %s, want only payment_method", body)
	}
	if n := lastNotice(t, rec); n.Message != "Order placed successfully!" {
		t.Errorf("notice = %q", n.Message)
	}
	if v := o.View(); !v.Empty() || v.Subtotal != 0 {
		t.Errorf("view after order = %+v, want cleared cart", v)
	}
}

func TestPlaceOrderWithAddressAndCoupon(t *testing.T) {
	s := newShop()
	s.qty[2] = 2
	m := s.mock()
	m.AddressesFunc = func(ctx context.Context) ([]model.Address, error) {
		return []model.Address{{ID: 5, IsDefault: true}}, nil
	}
	o, _ := newOrchestrator(t, m)
	ctx := context.Background()
	o.Open(ctx)
	o.ApplyCoupon(ctx, "WELCOME10")
	if err := o.SelectPaymentMethod("upi"); err != nil {
		t.Fatalf("SelectPaymentMethod() error: %v", err)
	}

	if _, err := o.PlaceOrder(ctx); err != nil {
		t.Fatalf("PlaceOrder() error: %v", err)
	}
	five := 5
	want := model.PlaceOrderRequest{PaymentMethod: model.PaymentUPI, AddressID: &five, CouponCode: "WELCOME10"}
	if diff := cmp.Diff(want, s.placed[0]); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
	if v := o.View(); v.Coupon.State != SlotEmpty {
		t.Errorf("coupon state after order = %v, want empty", v.Coupon.State)
	}
}

func TestPlaceOrderFailureKeepsCoupon(t *testing.T) {
	s := newShop()
	s.qty[2] = 2
	m := s.mock()
	m.PlaceOrderFunc = func(ctx context.Context, req model.PlaceOrderRequest) (*model.Order, error) {
		return nil, model.NewServerError(400, "Cart is empty")
	}
	o, rec := newOrchestrator(t, m)
	ctx := context.Background()
	o.LoadCart(ctx)
	o.ApplyCoupon(ctx, "WELCOME10")

	if _, err := o.PlaceOrder(ctx); err == nil {
		t.Fatal("expected error")
	}
	v := o.View()
	if v.Coupon.State != SlotApplied || v.FinalTotal != 9000 || v.Empty() {
		t.Errorf("view = %+v, want state unchanged", v)
	}
	if n := lastNotice(t, rec); n.Level != notice.Error || n.Message != "Cart is empty" {
		t.Errorf("notice = %+v", n)
	}
}

func TestSelectPaymentMethod(t *testing.T) {
	o, _ := newOrchestrator(t, &backend.Mock{})
	if err := o.SelectPaymentMethod("BITCOIN"); !errors.Is(err, ErrInvalidPaymentMethod) {
		t.Errorf("error = %v, want ErrInvalidPaymentMethod", err)
	}
	if o.View().PaymentMethod != model.PaymentCOD {
		t.Error("default payment method should be COD")
	}
	if err := o.SelectPaymentMethod(model.PaymentCard); err != nil || o.View().PaymentMethod != model.PaymentCard {
		t.Errorf("SelectPaymentMethod(CARD) = %v", err)
	}
}

func TestSyncLinesAppliesInOrder(t *testing.T) {
	s := newShop()
	s.qty[1] = 2
	s.qty[2] = 1
	o, _ := newOrchestrator(t, s.mock())

	diff, err := o.SyncLines(context.Background(), []reconcile.DesiredLine{
		{ProductID: 2, Quantity: 3},
		{ProductID: 3, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("SyncLines() error: %v", err)
	}
	if diff.Count() != 3 {
		t.Errorf("diff count = %d, want 3", diff.Count())
	}
	if d := cmp.Diff([]string{"remove 1", "update 2 x3", "add 3 x1"}, s.calls); d != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", d)
	}
	if v := o.View(); v.Subtotal != 16000 {
		t.Errorf("Subtotal = %v, want 160.00 after reload", v.Subtotal)
	}
}

func TestAddLine(t *testing.T) {
	s := newShop()
	o, rec := newOrchestrator(t, s.mock())
	ctx := context.Background()

	if err := o.AddLine(ctx, 3, 0); !errors.Is(err, ErrQuantityBelowOne) {
		t.Errorf("AddLine(qty 0) = %v", err)
	}
	if err := o.AddLine(ctx, 3, 2); err != nil {
		t.Fatalf("AddLine() error: %v", err)
	}
	if v := o.View(); v.ItemCount != 2 || v.Subtotal != 2000 {
		t.Errorf("view = %+v", v)
	}
	if n := lastNotice(t, rec); n.Level != notice.Success {
		t.Errorf("notice = %+v", n)
	}
}

func TestScopedRecorderReceivesNotices(t *testing.T) {
	s := newShop()
	base := &notice.Recorder{}
	o := New(s.mock(), Options{Notifier: base, Logger: discardLogger})
	scoped := &notice.Recorder{}
	ctx := notice.WithRecorder(context.Background(), scoped)

	o.AddLine(ctx, 1, 1)

	if len(scoped.Notices()) != 1 || len(base.Notices()) != 1 {
		t.Errorf("scoped=%v base=%v, want one notice each", scoped.Notices(), base.Notices())
	}
}

func TestPrice(t *testing.T) {
	app := &CouponApplication{Discount: 1000, ValidatedSubtotal: 10000}
	tests := []struct {
		name         string
		subtotal     model.Money
		coupon       CouponView
		wantDiscount model.Money
		wantFinal    model.Money
	}{
		{"no coupon", 10000, CouponView{State: SlotEmpty}, 0, 10000},
		{"pending", 10000, CouponView{State: SlotPending}, 0, 10000},
		{"applied current", 10000, CouponView{State: SlotApplied, Application: app}, 1000, 9000},
		{"applied stale", 12000, CouponView{State: SlotApplied, Application: app}, 0, 12000},
		{"discount above subtotal", 500, CouponView{State: SlotApplied, Application: &CouponApplication{Discount: 900, ValidatedSubtotal: 500}}, 500, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, f := price(tt.subtotal, tt.coupon)
			if d != tt.wantDiscount || f != tt.wantFinal {
				t.Errorf("price() = %v, %v; want %v, %v", d, f, tt.wantDiscount, tt.wantFinal)
			}
			if f != tt.subtotal-d || d > tt.subtotal {
				t.Errorf("discount exceeds subtotal or totals disagree: subtotal=%v discount=%v final=%v", tt.subtotal, d, f)
			}
		})
	}
}
