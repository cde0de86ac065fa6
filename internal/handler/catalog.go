package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"storefront/internal/catalog"
	"storefront/internal/model"
)

// handleListProducts returns one page of the catalog. Filters use the
// shareable parameter names (search, category, brand, sort, min_price,
// max_price, featured) plus page.
// GET /products
func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	f := catalog.FilterFromShareValues(q)
	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}

	h.logger.DebugContext(ctx, "listing products",
		slog.String("search", f.Search),
		slog.String("sort", string(f.Sort)),
		slog.Int("page", page),
	)

	result, err := h.catalog.Products(ctx, catalog.Query(f, page))
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, listing(f, page, result))
}

// listing shapes a product page the way the browser view does.
func listing(f catalog.Filter, page int, result *model.ProductPage) catalog.Listing {
	if result.CurrentPage > 0 {
		page = result.CurrentPage
	}
	products := result.Products
	if products == nil {
		products = []model.Product{}
	}
	return catalog.Listing{
		Filter:     f,
		Products:   products,
		Page:       page,
		Pages:      result.Pages,
		Total:      result.Total,
		Window:     catalog.PageWindow(page, result.Pages),
		Categories: []model.Category{},
	}
}

// handleGetProduct returns the product page: product, reviews and related
// products.
// GET /products/{id}
func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productIDParam(r, "id")
	if err != nil {
		h.writeError(w, err, nil)
		return
	}

	detail, err := catalog.ProductDetail(r.Context(), h.catalog, nil, id)
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}

// handleListOrders returns the customer's order history.
// GET /orders
func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, rec := scoped(r)
	if err := h.orders.Load(ctx); err != nil {
		h.writeError(w, err, rec.Drain())
		return
	}
	h.writeJSON(w, http.StatusOK, ordersResponse{Orders: h.orders.List()})
}

type ordersResponse struct {
	Orders []model.Order `json:"orders"`
}

// handleHealth returns a simple health check response.
// GET /health, GET /healthz
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

type healthResponse struct {
	Status string `json:"status"`
}
