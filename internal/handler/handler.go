// Package handler provides the HTTP gateway over the storefront client:
// REST routes for the cart, checkout, catalog and order history, plus an
// MCP endpoint exposing the same operations as tools.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"storefront/internal/account"
	"storefront/internal/backend"
	"storefront/internal/checkout"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/notice"
)

// Deps are the components the gateway serves.
type Deps struct {
	Checkout *checkout.Orchestrator
	Catalog  backend.Catalog
	Orders   *account.Orders
	Metrics  *metrics.Metrics // Optional; nil disables GET /metrics
	Logger   *slog.Logger
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	checkout *checkout.Orchestrator
	catalog  backend.Catalog
	orders   *account.Orders
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates a new Handler.
func New(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		checkout: d.Checkout,
		catalog:  d.Catalog,
		orders:   d.Orders,
		metrics:  d.Metrics,
		logger:   logger,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Cart and coupon
	mux.HandleFunc("GET /cart", h.handleGetCart)
	mux.HandleFunc("POST /cart/lines", h.handleAddLine)
	mux.HandleFunc("PUT /cart/lines", h.handleSyncLines)
	mux.HandleFunc("PUT /cart/lines/{productID}", h.handleSetQuantity)
	mux.HandleFunc("DELETE /cart/lines/{productID}", h.handleRemoveLine)
	mux.HandleFunc("POST /cart/coupon", h.handleApplyCoupon)
	mux.HandleFunc("DELETE /cart/coupon", h.handleRemoveCoupon)

	// Checkout
	mux.HandleFunc("PUT /checkout/address", h.handleSelectAddress)
	mux.HandleFunc("PUT /checkout/payment", h.handleSelectPayment)
	mux.HandleFunc("POST /checkout/place", h.handlePlaceOrder)

	// Catalog and history
	mux.HandleFunc("GET /products", h.handleListProducts)
	mux.HandleFunc("GET /products/{id}", h.handleGetProduct)
	mux.HandleFunc("GET /orders", h.handleListOrders)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)

	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// messages are the notices the failed call produced; they are omitted when empty.
func (h *Handler) writeError(w http.ResponseWriter, err error, messages []notice.Notice) {
	apiErr := toAPIError(err)
	if apiErr == nil {
		apiErr = model.NewInternalError(err)
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
		Messages: messages,
	})
}

// toAPIError finds or builds the APIError for err. Returns nil for
// unexpected errors.
func toAPIError(err error) *model.APIError {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, checkout.ErrQuantityBelowOne),
		errors.Is(err, checkout.ErrEmptyCouponCode),
		errors.Is(err, checkout.ErrInvalidPaymentMethod):
		return &model.APIError{Code: "VALIDATION_ERROR", Message: err.Error(), StatusCode: http.StatusBadRequest, Err: model.ErrInvalidRequest}
	case errors.Is(err, checkout.ErrLineNotFound):
		return &model.APIError{Code: "NOT_FOUND", Message: err.Error(), StatusCode: http.StatusNotFound, Err: model.ErrNotFound}
	case errors.Is(err, checkout.ErrCouponPending),
		errors.Is(err, checkout.ErrCouponSuperseded),
		errors.Is(err, checkout.ErrOrderInFlight),
		errors.Is(err, account.ErrNotCancellable):
		return &model.APIError{Code: "CONFLICT", Message: err.Error(), StatusCode: http.StatusConflict, Err: err}
	}
	return nil
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error    errorBody       `json:"error"`
	Messages []notice.Notice `json:"messages,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}
