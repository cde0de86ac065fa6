package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"storefront/internal/model"
	"storefront/internal/notice"
)

// SlotState is the lifecycle of the single coupon slot.
type SlotState string

const (
	SlotEmpty   SlotState = "empty"
	SlotPending SlotState = "pending"
	SlotApplied SlotState = "applied"
)

// CouponApplication is the result of the last successful validation.
// It is stale whenever the cart subtotal differs from ValidatedSubtotal.
type CouponApplication struct {
	Code              string       `json:"code"`
	Discount          model.Money  `json:"discount"`
	FinalTotal        model.Money  `json:"final_total"`
	Coupon            model.Coupon `json:"coupon"`
	ValidatedSubtotal model.Money  `json:"validated_subtotal"`
}

// SetCouponCode edits the typed coupon code. Codes are upper-cased.
func (o *Orchestrator) SetCouponCode(code string) {
	o.mu.Lock()
	o.typedCode = strings.ToUpper(code)
	o.mu.Unlock()
}

// ApplyCoupon validates code against the current subtotal. It never queues:
// while another validation is in flight it returns ErrCouponPending without
// a request. On rejection the slot empties but the typed code is kept so
// the user can correct it.
func (o *Orchestrator) ApplyCoupon(ctx context.Context, code string) (*CouponApplication, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrEmptyCouponCode
	}

	app, stale, err := o.applyCoupon(ctx, code)
	if err != nil {
		return nil, err
	}
	if !stale {
		return app, nil
	}
	// The cart changed while the validation was in flight; report what the
	// slot holds after revalidating.
	o.revalidateCoupon(ctx, o.currentSubtotal())
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.slot != SlotApplied || o.app == nil || !strings.EqualFold(o.app.Code, app.Code) {
		return nil, ErrCouponSuperseded
	}
	current := *o.app
	return &current, nil
}

func (o *Orchestrator) applyCoupon(ctx context.Context, code string) (*CouponApplication, bool, error) {
	select {
	case o.couponSem <- struct{}{}:
	default:
		return nil, false, ErrCouponPending
	}
	defer func() { <-o.couponSem }()

	o.mu.Lock()
	o.typedCode = code
	o.generation++
	gen := o.generation
	o.slot = SlotPending
	o.app = nil
	o.pending = pendingValidation{code: code, subtotal: o.subtotal}
	subtotal := o.subtotal
	o.mu.Unlock()

	v, err := o.backend.ValidateCoupon(ctx, code, subtotal)
	if err == nil && v.Rejected() {
		err = model.NewValidationError("coupon", "not valid for this order")
	}

	o.mu.Lock()
	if o.generation != gen {
		o.mu.Unlock()
		o.metrics.ObserveCoupon("apply", "superseded")
		return nil, false, ErrCouponSuperseded
	}
	o.pending = pendingValidation{}
	if err != nil {
		o.slot = SlotEmpty
		o.mu.Unlock()
		o.metrics.ObserveCoupon("apply", couponResult(err))
		o.logger.InfoContext(ctx, "coupon rejected", slog.String("code", code), slog.String("error", err.Error()))
		o.notify(ctx, notice.Error, "coupon_invalid", model.UserMessage(err, "Invalid coupon"))
		return nil, false, fmt.Errorf("applying coupon: %w", err)
	}
	app := newApplication(code, subtotal, v)
	o.slot = SlotApplied
	o.app = app
	out := *app
	stale := o.couponStaleLocked()
	o.mu.Unlock()

	o.metrics.ObserveCoupon("apply", "applied")
	o.notify(ctx, notice.Success, "coupon_applied", fmt.Sprintf("Coupon applied! You save %s", out.Discount.Format()))
	return &out, stale, nil
}

// revalidateCoupon re-submits the applied code after the subtotal changed.
// Unlike ApplyCoupon it waits for any in-flight validation, then re-checks
// the slot: nothing is sent if the coupon was removed or is already valid
// for the current subtotal. Failure of any kind empties the slot, clears
// the typed code and emits a warning.
func (o *Orchestrator) revalidateCoupon(ctx context.Context, newSubtotal model.Money) {
	select {
	case o.couponSem <- struct{}{}:
	case <-ctx.Done():
		return
	}
	defer func() { <-o.couponSem }()

	o.mu.Lock()
	if o.slot != SlotApplied || o.app == nil || o.app.ValidatedSubtotal == o.subtotal {
		o.mu.Unlock()
		return
	}
	code := o.app.Code
	gen := o.generation
	subtotal := o.subtotal
	o.mu.Unlock()

	o.logger.DebugContext(ctx, "revalidating coupon",
		slog.String("code", code),
		slog.String("subtotal", subtotal.String()),
		slog.String("trigger_subtotal", newSubtotal.String()),
	)

	v, err := o.backend.ValidateCoupon(ctx, code, subtotal)
	if err == nil && v.Rejected() {
		err = model.NewValidationError("coupon", "not valid for this order")
	}

	o.mu.Lock()
	if o.generation != gen {
		o.mu.Unlock()
		o.metrics.ObserveCoupon("revalidate", "superseded")
		return
	}
	if err != nil {
		o.clearCouponLocked()
		o.mu.Unlock()
		o.metrics.ObserveCoupon("revalidate", couponResult(err))
		o.logger.InfoContext(ctx, "coupon dropped after cart change", slog.String("code", code), slog.String("error", err.Error()))
		o.notify(ctx, notice.Warning, "coupon_removed", "Coupon removed: no longer valid for current cart total")
		return
	}
	o.app = newApplication(code, subtotal, v)
	o.mu.Unlock()
	o.metrics.ObserveCoupon("revalidate", "applied")
}

// RemoveCoupon empties the slot and clears the typed code. No request is
// sent; an in-flight validation result is discarded when it arrives.
func (o *Orchestrator) RemoveCoupon() {
	o.mu.Lock()
	o.clearCouponLocked()
	o.mu.Unlock()
}

func (o *Orchestrator) clearCouponLocked() {
	o.generation++
	o.slot = SlotEmpty
	o.app = nil
	o.pending = pendingValidation{}
	o.typedCode = ""
}

// couponStaleLocked reports whether the active coupon was validated
// against a subtotal other than the current one.
func (o *Orchestrator) couponStaleLocked() bool {
	switch o.slot {
	case SlotApplied:
		return o.app != nil && o.app.ValidatedSubtotal != o.subtotal
	case SlotPending:
		return o.pending.subtotal != o.subtotal
	}
	return false
}

// newApplication records a server validation. The discount is trusted
// verbatim except that it never exceeds the subtotal it was computed for.
func newApplication(code string, subtotal model.Money, v *model.CouponValidation) *CouponApplication {
	discount := model.MinMoney(v.Discount, subtotal)
	if discount < 0 {
		discount = 0
	}
	if v.Coupon.Code != "" {
		code = v.Coupon.Code
	}
	return &CouponApplication{
		Code:              code,
		Discount:          discount,
		FinalTotal:        subtotal - discount,
		Coupon:            v.Coupon,
		ValidatedSubtotal: subtotal,
	}
}

func couponResult(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		return "rejected"
	}
	return "error"
}
