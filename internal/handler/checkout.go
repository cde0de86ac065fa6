package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"storefront/internal/checkout"
	"storefront/internal/model"
	"storefront/internal/notice"
	"storefront/internal/reconcile"
)

// cartResponse is returned by every cart and checkout route. Messages are
// the notices produced while serving this request.
type cartResponse struct {
	Cart     checkout.View       `json:"cart"`
	Order    *model.Order        `json:"order,omitempty"`
	Diff     *reconcile.LineDiff `json:"diff,omitempty"`
	Messages []notice.Notice     `json:"messages"`
}

type addLineRequest struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type syncLinesRequest struct {
	Lines []reconcile.DesiredLine `json:"lines"`
}

type couponRequest struct {
	Code string `json:"code"`
}

type addressRequest struct {
	AddressID *int `json:"address_id"` // null clears the selection
}

type paymentRequest struct {
	PaymentMethod model.PaymentMethod `json:"payment_method"`
}

// scoped returns a request context that records notices for the response.
func scoped(r *http.Request) (context.Context, *notice.Recorder) {
	rec := &notice.Recorder{}
	return notice.WithRecorder(r.Context(), rec), rec
}

// writeCart writes the current cart view with the request's notices.
func (h *Handler) writeCart(w http.ResponseWriter, status int, rec *notice.Recorder, resp cartResponse) {
	resp.Cart = h.checkout.View()
	resp.Messages = rec.Drain()
	h.writeJSON(w, status, resp)
}

// productIDParam parses the {productID} path segment.
func productIDParam(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(r.PathValue(name))
	if err != nil || id <= 0 {
		return 0, model.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

// handleGetCart re-fetches the server cart.
// GET /cart
func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	ctx, rec := scoped(r)
	if err := h.checkout.LoadCart(ctx); err != nil {
		h.writeError(w, err, rec.Drain())
		return
	}
	h.writeCart(w, http.StatusOK, rec, cartResponse{})
}

// handleAddLine adds a product to the cart.
// POST /cart/lines
func (h *Handler) handleAddLine(w http.ResponseWriter, r *http.Request) {
	ctx, rec := scoped(r)

	var req addLineRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err, nil)
		return
	}
	if req.ProductID <= 0 {
		h.writeError(w, model.NewValidationError("product_id", "must be a positive integer"), nil)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	h.logger.InfoContext(ctx, "adding cart line",
		slog.Int("product_id", req.ProductID),
		slog.Int("quantity", req.Quantity),
	)

	if err := h.checkout.AddLine(ctx, req.ProductID, req.Quantity); err != nil {
		h.writeError(w, err, rec.Drain())
		return
	}
	h.writeCart(w, http.StatusOK, rec, cartResponse{})
}

// handleSyncLines makes the cart match a desired set of lines.
// PUT /cart/lines
func (h *Handler) handleSyncLines(w http.ResponseWriter, r *http.Request) {
	ctx, rec := scoped(r)

	var req syncLinesRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err, nil)
		return
	}

	diff, err := h.checkout.SyncLines(ctx, req.Lines)
	if err != nil {
		h.writeError(w, err, rec.Drain())
		return
	}

	h.logger.InfoContext(ctx, "synced cart lines",
		slog.Int("removed", len(diff.ToRemove)),
		slog.Int("updated", len(diff.ToUpdate)),
		slog.Int("added", len(diff.ToAdd)),
	)
	h.writeCart(w, http.StatusOK, rec, cartResponse{Diff: diff})
}

// handleSetQuantity sets one line's quantity.
// PUT /cart/lines/{productID}
func (h *Handler) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, rec := scoped(r)
	productID, err := productIDParam(r, "productID")
	if err != nil {
		h.writeError(w, err, nil)
		return
	}

	var req setQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err, nil)
		return
	}

	if err := h.checkout.SetLineQuantity(ctx, productID, req.Quantity); err != nil {
		h.writeError(w, err, rec.Drain())
		return
	}
	h.writeCart(w, http.StatusOK, rec, cartResponse{})
}

// handleRemoveLine removes one line.
// DELETE /cart/lines/{productID}
func (h *Handler) handleRemoveLine(w http.ResponseWriter, r *http.Request) {
	ctx, rec := scoped(r)
	productID, err := productIDParam(r, "productID")
	if err != nil {
		h.writeError(w, err, nil)
		return
	}

	if err := h.checkout.RemoveLine(ctx, productID); err != nil {
		h.writeError(w, err, rec.Drain())
		return
	}
	h.writeCart(w, http.StatusOK, rec, cartResponse{})
}

// handleApplyCoupon validates a code against the current subtotal.
// POST /cart/coupon
func (h *Handler) handleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, rec := scoped(r)

	var req couponRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err, nil)
		return
	}

	h.logger.InfoContext(ctx, "applying coupon", slog.String("code", req.Code))

	if _, err := h.checkout.ApplyCoupon(ctx, req.Code); err != nil {
		h.writeError(w, err, rec.Drain())
		return
	}
	h.writeCart(w, http.StatusOK, rec, cartResponse{})
}

// handleRemoveCoupon empties the coupon slot.
// DELETE /cart/coupon
func (h *Handler) handleRemoveCoupon(w http.ResponseWriter, r *http.Request) {
	_, rec := scoped(r)
	h.checkout.RemoveCoupon()
	h.writeCart(w, http.StatusOK, rec, cartResponse{})
}

// handleSelectAddress picks the shipping address.
// PUT /checkout/address
func (h *Handler) handleSelectAddress(w http.ResponseWriter, r *http.Request) {
	_, rec := scoped(r)

	var req addressRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err, nil)
		return
	}

	if req.AddressID == nil {
		h.checkout.ClearAddress()
	} else if err := h.checkout.SelectAddress(*req.AddressID); err != nil {
		h.writeError(w, err, rec.Drain())
		return
	}
	h.writeCart(w, http.StatusOK, rec, cartResponse{})
}

// handleSelectPayment picks the payment method.
// PUT /checkout/payment
func (h *Handler) handleSelectPayment(w http.ResponseWriter, r *http.Request) {
	_, rec := scoped(r)

	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err, nil)
		return
	}

	if err := h.checkout.SelectPaymentMethod(req.PaymentMethod); err != nil {
		h.writeError(w, err, rec.Drain())
		return
	}
	h.writeCart(w, http.StatusOK, rec, cartResponse{})
}

// handlePlaceOrder submits the order.
// POST /checkout/place
func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, rec := scoped(r)

	view := h.checkout.View()
	h.logger.InfoContext(ctx, "placing order",
		slog.Int("lines", len(view.Lines)),
		slog.String("payment_method", string(view.PaymentMethod)),
		slog.Bool("has_address", view.SelectedAddressID != nil),
		slog.Bool("has_coupon", view.Coupon.State == checkout.SlotApplied),
	)

	order, err := h.checkout.PlaceOrder(ctx)
	if err != nil {
		h.writeError(w, err, rec.Drain())
		return
	}
	h.writeCart(w, http.StatusCreated, rec, cartResponse{Order: order})
}
