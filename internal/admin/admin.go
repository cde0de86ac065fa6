// Package admin is the store management panel: products, orders, coupons,
// categories and sales statistics. Every action requires an ADMIN session
// and every mutation is followed by a re-fetch of the affected list.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"storefront/internal/backend"
	"storefront/internal/model"
	"storefront/internal/notice"
)

// ProductsPerPage is the admin product list size.
const ProductsPerPage = 50

// Backend is the slice of the API the panel uses.
type Backend interface {
	backend.Admin
	Products(ctx context.Context, query url.Values) (*model.ProductPage, error)
	Categories(ctx context.Context) ([]model.Category, error)
	Coupons(ctx context.Context) ([]model.Coupon, error)
	Orders(ctx context.Context) ([]model.Order, error)
	SetOrderStatus(ctx context.Context, id int, status model.OrderStatus) (*model.Order, error)
}

// Authorizer reports whether the current user is an administrator.
// *session.Session implements it.
type Authorizer interface {
	IsAdmin() bool
}

// Options configures a Panel.
type Options struct {
	Notifier notice.Notifier
	Logger   *slog.Logger
}

// Panel holds the admin lists. Safe for concurrent use.
type Panel struct {
	api      Backend
	auth     Authorizer
	notifier notice.Notifier
	logger   *slog.Logger

	mu         sync.Mutex
	products   []model.Product
	orders     []model.Order
	coupons    []model.Coupon
	categories []model.Category
	stats      *model.OrderStats
}

// New creates a Panel.
func New(api Backend, auth Authorizer, opts Options) *Panel {
	p := &Panel{
		api:        api,
		auth:       auth,
		notifier:   opts.Notifier,
		logger:     opts.Logger,
		products:   []model.Product{},
		orders:     []model.Order{},
		coupons:    []model.Coupon{},
		categories: []model.Category{},
	}
	if p.notifier == nil {
		p.notifier = notice.Discard
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

func (p *Panel) guard() error {
	if p.auth == nil || !p.auth.IsAdmin() {
		return model.NewForbiddenError("admin access required")
	}
	return nil
}

func (p *Panel) notify(ctx context.Context, level notice.Level, code, msg string) {
	notice.Deliver(ctx, p.notifier, notice.Notice{Level: level, Code: code, Message: msg})
}

// === Products ===

// LoadProducts fetches the first ProductsPerPage products.
func (p *Panel) LoadProducts(ctx context.Context) error {
	if err := p.guard(); err != nil {
		return err
	}
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(ProductsPerPage))
	page, err := p.api.Products(ctx, q)
	if err != nil {
		p.notify(ctx, notice.Error, "admin_products_failed", "Failed to load products")
		return fmt.Errorf("loading products: %w", err)
	}
	p.mu.Lock()
	p.products = page.Products
	p.mu.Unlock()
	return nil
}

// Products returns a copy of the loaded products.
func (p *Panel) Products() []model.Product {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Product{}, p.products...)
}

// SaveProduct creates a product (id 0) or updates one.
func (p *Panel) SaveProduct(ctx context.Context, id int, in model.ProductInput) (*model.Product, error) {
	if err := p.guard(); err != nil {
		return nil, err
	}
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	var (
		product *model.Product
		err     error
		msg     = "Product created"
	)
	if id == 0 {
		product, err = p.api.CreateProduct(ctx, in)
	} else {
		product, err = p.api.UpdateProduct(ctx, id, in)
		msg = "Product updated"
	}
	if err != nil {
		p.notify(ctx, notice.Error, "admin_product_failed", model.UserMessage(err, "Operation failed"))
		return nil, fmt.Errorf("saving product: %w", err)
	}
	p.notify(ctx, notice.Success, "admin_product_saved", msg)
	p.refresh(ctx, "products", p.LoadProducts)
	return product, nil
}

// DeleteProduct removes a product.
func (p *Panel) DeleteProduct(ctx context.Context, id int) error {
	if err := p.guard(); err != nil {
		return err
	}
	if err := p.api.DeleteProduct(ctx, id); err != nil {
		p.notify(ctx, notice.Error, "admin_product_delete_failed", "Failed to delete product")
		return fmt.Errorf("deleting product %d: %w", id, err)
	}
	p.notify(ctx, notice.Success, "admin_product_deleted", "Product deleted")
	p.refresh(ctx, "products", p.LoadProducts)
	return nil
}

func validateProduct(in model.ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return model.NewValidationError("name", "is required")
	}
	if in.Price <= 0 {
		return model.NewValidationError("price", "must be greater than 0")
	}
	if in.Stock < 0 {
		return model.NewValidationError("stock", "must not be negative")
	}
	if in.ComparePrice != nil && *in.ComparePrice < 0 {
		return model.NewValidationError("compare_price", "must not be negative")
	}
	return nil
}

// === Orders ===

// LoadOrders fetches every order.
func (p *Panel) LoadOrders(ctx context.Context) error {
	if err := p.guard(); err != nil {
		return err
	}
	orders, err := p.api.Orders(ctx)
	if err != nil {
		p.notify(ctx, notice.Error, "admin_orders_failed", "Failed to load orders")
		return fmt.Errorf("loading orders: %w", err)
	}
	p.mu.Lock()
	p.orders = orders
	p.mu.Unlock()
	return nil
}

// Orders returns a copy of the loaded orders.
func (p *Panel) Orders() []model.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Order{}, p.orders...)
}

// SetOrderStatus moves an order to one of the five statuses.
func (p *Panel) SetOrderStatus(ctx context.Context, id int, status model.OrderStatus) error {
	if err := p.guard(); err != nil {
		return err
	}
	status = model.OrderStatus(strings.ToUpper(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return model.NewValidationError("status", "must be one of PLACED, PROCESSING, SHIPPED, DELIVERED, CANCELLED")
	}
	if _, err := p.api.SetOrderStatus(ctx, id, status); err != nil {
		p.notify(ctx, notice.Error, "admin_status_failed", model.UserMessage(err, "Failed to update status"))
		return fmt.Errorf("setting order %d status: %w", id, err)
	}
	p.notify(ctx, notice.Success, "admin_status_updated", "Status updated")
	p.refresh(ctx, "orders", p.LoadOrders)
	return nil
}

// Stats fetches order statistics.
func (p *Panel) Stats(ctx context.Context) (*model.OrderStats, error) {
	if err := p.guard(); err != nil {
		return nil, err
	}
	stats, err := p.api.OrderStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading stats: %w", err)
	}
	p.mu.Lock()
	p.stats = stats
	p.mu.Unlock()
	return stats, nil
}

// === Coupons ===

// LoadCoupons fetches the coupon list.
func (p *Panel) LoadCoupons(ctx context.Context) error {
	if err := p.guard(); err != nil {
		return err
	}
	coupons, err := p.api.Coupons(ctx)
	if err != nil {
		return fmt.Errorf("loading coupons: %w", err)
	}
	p.mu.Lock()
	p.coupons = coupons
	p.mu.Unlock()
	return nil
}

// Coupons returns a copy of the loaded coupons.
func (p *Panel) Coupons() []model.Coupon {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Coupon{}, p.coupons...)
}

// CreateCoupon adds a coupon. Codes are upper-cased.
func (p *Panel) CreateCoupon(ctx context.Context, in model.CouponInput) (*model.Coupon, error) {
	if err := p.guard(); err != nil {
		return nil, err
	}
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	if in.Code == "" {
		return nil, model.NewValidationError("code", "is required")
	}
	if in.DiscountType != model.DiscountPercent && in.DiscountType != model.DiscountFlat {
		return nil, model.NewValidationError("discount_type", "must be percent or flat")
	}
	if in.DiscountValue <= 0 || (in.DiscountType == model.DiscountPercent && in.DiscountValue > 100) {
		return nil, model.NewValidationError("discount_value", "out of range")
	}
	coupon, err := p.api.CreateCoupon(ctx, in)
	if err != nil {
		p.notify(ctx, notice.Error, "admin_coupon_failed", model.UserMessage(err, "Operation failed"))
		return nil, fmt.Errorf("creating coupon: %w", err)
	}
	p.notify(ctx, notice.Success, "admin_coupon_created", "Coupon created")
	p.refresh(ctx, "coupons", p.LoadCoupons)
	return coupon, nil
}

// DeleteCoupon removes a coupon.
func (p *Panel) DeleteCoupon(ctx context.Context, id int) error {
	if err := p.guard(); err != nil {
		return err
	}
	if err := p.api.DeleteCoupon(ctx, id); err != nil {
		p.notify(ctx, notice.Error, "admin_coupon_failed", model.UserMessage(err, "Operation failed"))
		return fmt.Errorf("deleting coupon %d: %w", id, err)
	}
	p.notify(ctx, notice.Success, "admin_coupon_deleted", "Coupon deleted")
	p.refresh(ctx, "coupons", p.LoadCoupons)
	return nil
}

// === Categories ===

// LoadCategories fetches the category list.
func (p *Panel) LoadCategories(ctx context.Context) error {
	if err := p.guard(); err != nil {
		return err
	}
	cats, err := p.api.Categories(ctx)
	if err != nil {
		return fmt.Errorf("loading categories: %w", err)
	}
	p.mu.Lock()
	p.categories = cats
	p.mu.Unlock()
	return nil
}

// Categories returns a copy of the loaded categories.
func (p *Panel) Categories() []model.Category {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Category{}, p.categories...)
}

// SaveCategory creates a category (id 0) or updates one.
func (p *Panel) SaveCategory(ctx context.Context, id int, in model.CategoryInput) (*model.Category, error) {
	if err := p.guard(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, model.NewValidationError("name", "is required")
	}
	var (
		cat *model.Category
		err error
	)
	if id == 0 {
		cat, err = p.api.CreateCategory(ctx, in)
	} else {
		cat, err = p.api.UpdateCategory(ctx, id, in)
	}
	if err != nil {
		p.notify(ctx, notice.Error, "admin_category_failed", model.UserMessage(err, "Operation failed"))
		return nil, fmt.Errorf("saving category: %w", err)
	}
	p.notify(ctx, notice.Success, "admin_category_saved", "Category saved")
	p.refresh(ctx, "categories", p.LoadCategories)
	return cat, nil
}

// DeleteCategory removes a category.
func (p *Panel) DeleteCategory(ctx context.Context, id int) error {
	if err := p.guard(); err != nil {
		return err
	}
	if err := p.api.DeleteCategory(ctx, id); err != nil {
		p.notify(ctx, notice.Error, "admin_category_failed", model.UserMessage(err, "Operation failed"))
		return fmt.Errorf("deleting category %d: %w", id, err)
	}
	p.notify(ctx, notice.Success, "admin_category_deleted", "Category deleted")
	p.refresh(ctx, "categories", p.LoadCategories)
	return nil
}

func (p *Panel) refresh(ctx context.Context, list string, load func(context.Context) error) {
	if err := load(ctx); err != nil {
		p.logger.WarnContext(ctx, "admin refresh failed", slog.String("list", list), slog.String("error", err.Error()))
	}
}
