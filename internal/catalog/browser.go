package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"storefront/internal/backend"
	"storefront/internal/model"
	"storefront/internal/notice"
)

// Options configures a Browser.
type Options struct {
	Notifier notice.Notifier
	Logger   *slog.Logger
}

// Browser is the product listing view model. Each fetch carries a
// sequence number; a response is applied only if no newer fetch has been
// applied, so a slow page never overwrites the result of a later filter.
type Browser struct {
	catalog  backend.Catalog
	notifier notice.Notifier
	logger   *slog.Logger

	mu         sync.Mutex
	filter     Filter
	page       model.ProductPage
	categories []model.Category
	seq        uint64
	appliedSeq uint64
	inflight   int
}

// Listing is a snapshot of the browser state.
type Listing struct {
	Filter     Filter           `json:"filter"`
	Products   []model.Product  `json:"products"`
	Page       int              `json:"page"`
	Pages      int              `json:"pages"`
	Total      int              `json:"total"`
	Window     []int            `json:"window"`
	Categories []model.Category `json:"categories"`
	Loading    bool             `json:"loading"`
}

// NewBrowser creates a Browser with the default filter.
func NewBrowser(c backend.Catalog, opts Options) *Browser {
	n := opts.Notifier
	if n == nil {
		n = notice.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Browser{
		catalog:    c,
		notifier:   n,
		logger:     logger,
		filter:     Filter{Sort: SortNewest},
		page:       model.ProductPage{Products: []model.Product{}, CurrentPage: 1},
		categories: []model.Category{},
	}
}

// Open loads the category list and the first page of f. A category
// failure leaves the list empty.
func (b *Browser) Open(ctx context.Context, f Filter) error {
	cats, err := b.catalog.Categories(ctx)
	if err != nil {
		b.logger.DebugContext(ctx, "categories unavailable", slog.String("error", err.Error()))
	} else {
		b.mu.Lock()
		b.categories = cats
		b.mu.Unlock()
	}
	return b.SetFilter(ctx, f)
}

// SetFilter replaces the filter and loads its first page.
func (b *Browser) SetFilter(ctx context.Context, f Filter) error {
	f.Sort = f.Sort.Normalize()
	b.mu.Lock()
	b.filter = f
	b.mu.Unlock()
	return b.load(ctx, f, 1)
}

// GoTo loads page p of the current filter.
func (b *Browser) GoTo(ctx context.Context, p int) error {
	b.mu.Lock()
	f := b.filter
	b.mu.Unlock()
	return b.load(ctx, f, p)
}

// Next and Prev move one page, staying within bounds.
func (b *Browser) Next(ctx context.Context) error {
	l := b.Listing()
	if l.Page >= l.Pages {
		return nil
	}
	return b.GoTo(ctx, l.Page+1)
}

func (b *Browser) Prev(ctx context.Context) error {
	l := b.Listing()
	if l.Page <= 1 {
		return nil
	}
	return b.GoTo(ctx, l.Page-1)
}

func (b *Browser) load(ctx context.Context, f Filter, p int) error {
	b.mu.Lock()
	b.seq++
	seq := b.seq
	b.inflight++
	b.mu.Unlock()

	page, err := b.catalog.Products(ctx, Query(f, p))

	b.mu.Lock()
	b.inflight--
	if err != nil {
		b.mu.Unlock()
		notice.Deliver(ctx, b.notifier, notice.Notice{Level: notice.Error, Code: "products_load_failed", Message: "Failed to load products"})
		return fmt.Errorf("loading products: %w", err)
	}
	if seq < b.appliedSeq {
		b.mu.Unlock()
		b.logger.DebugContext(ctx, "dropping superseded product page", slog.Uint64("seq", seq))
		return nil
	}
	b.appliedSeq = seq
	b.page = *page
	if b.page.CurrentPage < 1 {
		b.page.CurrentPage = p
	}
	b.mu.Unlock()
	return nil
}

// Listing returns a copy of the current state.
func (b *Browser) Listing() Listing {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Listing{
		Filter:     b.filter,
		Products:   append([]model.Product{}, b.page.Products...),
		Page:       b.page.CurrentPage,
		Pages:      b.page.Pages,
		Total:      b.page.Total,
		Window:     PageWindow(b.page.CurrentPage, b.page.Pages),
		Categories: append([]model.Category{}, b.categories...),
		Loading:    b.inflight > 0,
	}
}
