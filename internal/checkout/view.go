package checkout

import (
	"storefront/internal/model"
)

// View is a snapshot of the checkout page state.
type View struct {
	Lines     []model.CartLine `json:"lines"`
	Subtotal  model.Money      `json:"subtotal"`
	ItemCount int              `json:"item_count"`

	Coupon     CouponView  `json:"coupon"`
	TypedCode  string      `json:"typed_code"`
	Discount   model.Money `json:"discount"`
	FinalTotal model.Money `json:"final_total"`

	Addresses         []model.Address     `json:"addresses"`
	SelectedAddressID *int                `json:"selected_address_id,omitempty"`
	PaymentMethod     model.PaymentMethod `json:"payment_method"`
	AvailableCoupons  []model.Coupon      `json:"available_coupons"`

	Loading Loading `json:"loading"`
}

// CouponView is the coupon slot as shown to the user. Application is set
// only when the slot is applied.
type CouponView struct {
	State       SlotState          `json:"state"`
	Application *CouponApplication `json:"application,omitempty"`
	Stale       bool               `json:"stale"` // Validated against a different subtotal; awaiting revalidation
}

// Loading reports which requests are in flight.
type Loading struct {
	Cart   bool `json:"cart"`
	Coupon bool `json:"coupon"`
	Order  bool `json:"order"`
}

// Empty reports whether the cart has no lines.
func (v View) Empty() bool {
	return len(v.Lines) == 0
}

// SelectedAddress returns the selected address, if any.
func (v View) SelectedAddress() (model.Address, bool) {
	if v.SelectedAddressID == nil {
		return model.Address{}, false
	}
	for _, a := range v.Addresses {
		if a.ID == *v.SelectedAddressID {
			return a, true
		}
	}
	return model.Address{}, false
}

// View returns a copy of the current state.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()

	v := View{
		Lines:            append([]model.CartLine(nil), o.lines...),
		Subtotal:         o.subtotal,
		ItemCount:        o.itemCount,
		Coupon:           CouponView{State: o.slot},
		TypedCode:        o.typedCode,
		Addresses:        append([]model.Address(nil), o.addresses...),
		PaymentMethod:    o.payment,
		AvailableCoupons: append([]model.Coupon(nil), o.coupons...),
		Loading: Loading{
			Cart:   o.cartLoads > 0 || !o.cartLoaded,
			Coupon: o.slot == SlotPending || len(o.couponSem) > 0,
			Order:  o.placing,
		},
	}
	if v.Lines == nil {
		v.Lines = []model.CartLine{}
	}
	if o.selectedAddress != nil {
		id := *o.selectedAddress
		v.SelectedAddressID = &id
	}
	if o.slot == SlotApplied && o.app != nil {
		app := *o.app
		v.Coupon.Application = &app
		v.Coupon.Stale = app.ValidatedSubtotal != o.subtotal
	}
	v.Discount, v.FinalTotal = price(o.subtotal, v.Coupon)
	return v
}

// price returns the discount and final total to display. A discount counts
// only when the slot is applied and was validated against exactly this
// subtotal; otherwise the final total is the subtotal.
func price(subtotal model.Money, c CouponView) (discount, final model.Money) {
	if c.State != SlotApplied || c.Application == nil || c.Application.ValidatedSubtotal != subtotal {
		return 0, subtotal
	}
	discount = model.MinMoney(c.Application.Discount, subtotal)
	return discount, subtotal - discount
}

func (o *Orchestrator) currentSubtotal() model.Money {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.subtotal
}
