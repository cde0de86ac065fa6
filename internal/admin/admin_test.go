package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"storefront/internal/backend"
	"storefront/internal/model"
	"storefront/internal/notice"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type role bool

func (r role) IsAdmin() bool { return bool(r) }

func TestNonAdminIsForbidden(t *testing.T) {
	called := false
	m := &backend.Mock{
		ProductsFunc: func(ctx context.Context, q url.Values) (*model.ProductPage, error) {
			called = true
			return &model.ProductPage{}, nil
		},
	}
	p := New(m, role(false), Options{Logger: discardLogger})
	ctx := context.Background()

	checks := map[string]error{
		"LoadProducts":   p.LoadProducts(ctx),
		"LoadOrders":     p.LoadOrders(ctx),
		"DeleteProduct":  p.DeleteProduct(ctx, 1),
		"SetOrderStatus": p.SetOrderStatus(ctx, 1, model.OrderShipped),
		"DeleteCoupon":   p.DeleteCoupon(ctx, 1),
	}
	_, checks["Stats"] = p.Stats(ctx)
	for name, err := range checks {
		if !errors.Is(err, model.ErrForbidden) {
			t.Errorf("%s() = %v, want forbidden", name, err)
		}
	}
	if called {
		t.Error("no request should be sent without an admin session")
	}

	if err := New(m, nil, Options{Logger: discardLogger}).LoadProducts(ctx); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("nil authorizer = %v, want forbidden", err)
	}
}

func TestLoadProductsUsesPageSize(t *testing.T) {
	var got url.Values
	m := &backend.Mock{ProductsFunc: func(ctx context.Context, q url.Values) (*model.ProductPage, error) {
		got = q
		return &model.ProductPage{Products: []model.Product{{ID: 1}}}, nil
	}}
	p := New(m, role(true), Options{Logger: discardLogger})
	if err := p.LoadProducts(context.Background()); err != nil {
		t.Fatalf("LoadProducts() error: %v", err)
	}
	if got.Get("per_page") != "50" {
		t.Errorf("per_page = %q, want 50", got.Get("per_page"))
	}
	if len(p.Products()) != 1 {
		t.Errorf("products = %v", p.Products())
	}
}

func TestSaveProductValidation(t *testing.T) {
	created := 0
	m := &backend.Mock{CreateProductFunc: func(ctx context.Context, in model.ProductInput) (*model.Product, error) {
		created++
		return &model.Product{ID: 1, Name: in.Name}, nil
	}}
	p := New(m, role(true), Options{Logger: discardLogger})
	ctx := context.Background()

	bad := []model.ProductInput{
		{Name: "", Price: 100},
		{Name: "Lamp", Price: 0},
		{Name: "Lamp", Price: -5},
		{Name: "Lamp", Price: 100, Stock: -1},
	}
	for _, in := range bad {
		if _, err := p.SaveProduct(ctx, 0, in); !errors.Is(err, model.ErrInvalidRequest) {
			t.Errorf("SaveProduct(%+v) = %v, want validation error", in, err)
		}
	}
	if created != 0 {
		t.Fatalf("%d invalid products sent", created)
	}
	if _, err := p.SaveProduct(ctx, 0, model.ProductInput{Name: "Lamp", Price: 1999, Stock: 0}); err != nil {
		t.Fatalf("SaveProduct() error: %v", err)
	}
}

func TestMutationsRefetch(t *testing.T) {
	lists := map[string]int{}
	m := &backend.Mock{
		ProductsFunc: func(ctx context.Context, q url.Values) (*model.ProductPage, error) {
			lists["products"]++
			return &model.ProductPage{}, nil
		},
		OrdersFunc: func(ctx context.Context) ([]model.Order, error) {
			lists["orders"]++
			return nil, nil
		},
		CouponsFunc: func(ctx context.Context) ([]model.Coupon, error) {
			lists["coupons"]++
			return nil, nil
		},
		CategoriesFunc: func(ctx context.Context) ([]model.Category, error) {
			lists["categories"]++
			return nil, nil
		},
		UpdateProductFunc: func(ctx context.Context, id int, in model.ProductInput) (*model.Product, error) {
			return &model.Product{ID: id}, nil
		},
		SetOrderStatusFunc: func(ctx context.Context, id int, status model.OrderStatus) (*model.Order, error) {
			return &model.Order{ID: id, Status: status}, nil
		},
		CreateCouponFunc: func(ctx context.Context, in model.CouponInput) (*model.Coupon, error) {
			return &model.Coupon{Code: in.Code}, nil
		},
		CreateCategoryFunc: func(ctx context.Context, in model.CategoryInput) (*model.Category, error) {
			return &model.Category{Name: in.Name}, nil
		},
	}
	rec := &notice.Recorder{}
	p := New(m, role(true), Options{Notifier: rec, Logger: discardLogger})
	ctx := context.Background()

	if _, err := p.SaveProduct(ctx, 4, model.ProductInput{Name: "Lamp", Price: 100}); err != nil {
		t.Fatalf("SaveProduct() error: %v", err)
	}
	if err := p.SetOrderStatus(ctx, 2, "shipped"); err != nil {
		t.Fatalf("SetOrderStatus() error: %v", err)
	}
	coupon, err := p.CreateCoupon(ctx, model.CouponInput{Code: " spring20 ", DiscountType: model.DiscountPercent, DiscountValue: 20})
	if err != nil {
		t.Fatalf("CreateCoupon() error: %v", err)
	}
	if coupon.Code != "SPRING20" {
		t.Errorf("coupon code = %q, want upper-cased", coupon.Code)
	}
	if _, err := p.SaveCategory(ctx, 0, model.CategoryInput{Name: "Lighting"}); err != nil {
		t.Fatalf("SaveCategory() error: %v", err)
	}

	want := map[string]int{"products": 1, "orders": 1, "coupons": 1, "categories": 1}
	if diff := cmp.Diff(want, lists); diff != "" {
		t.Errorf("refetch counts mismatch (-want +got):\n%s", diff)
	}
	messages := []string{}
	for _, n := range rec.Notices() {
		messages = append(messages, n.Message)
	}
	if diff := cmp.Diff([]string{"Product updated", "Status updated", "Coupon created", "Category saved"}, messages); diff != "" {
		t.Errorf("notices mismatch (-want +got):\n%s", diff)
	}
}

func TestSetOrderStatusRejectsUnknown(t *testing.T) {
	p := New(&backend.Mock{}, role(true), Options{Logger: discardLogger})
	if err := p.SetOrderStatus(context.Background(), 1, "LOST"); !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("error = %v, want validation error", err)
	}
}

func TestCreateCouponValidation(t *testing.T) {
	p := New(&backend.Mock{}, role(true), Options{Logger: discardLogger})
	ctx := context.Background()
	bad := []model.CouponInput{
		{Code: "", DiscountType: model.DiscountFlat, DiscountValue: 5},
		{Code: "X", DiscountType: "bogus", DiscountValue: 5},
		{Code: "X", DiscountType: model.DiscountPercent, DiscountValue: 150},
		{Code: "X", DiscountType: model.DiscountFlat, DiscountValue: 0},
	}
	for _, in := range bad {
		if _, err := p.CreateCoupon(ctx, in); !errors.Is(err, model.ErrInvalidRequest) {
			t.Errorf("CreateCoupon(%+v) = %v, want validation error", in, err)
		}
	}
}

func TestStats(t *testing.T) {
	m := &backend.Mock{OrderStatsFunc: func(ctx context.Context) (*model.OrderStats, error) {
		return &model.OrderStats{TotalOrders: 3, TotalRevenue: 12345}, nil
	}}
	p := New(m, role(true), Options{Logger: discardLogger})
	stats, err := p.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.TotalOrders != 3 || stats.TotalRevenue != 12345 {
		t.Errorf("stats = %+v", stats)
	}
}
