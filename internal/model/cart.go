package model

import (
	"fmt"
	"strings"
)

// === Cart ===

// CartLine is one product line of the server-side cart.
// Product carries the unit price snapshot.
type CartLine struct {
	ID        int      `json:"id"`
	ProductID int      `json:"product_id"`
	Quantity  int      `json:"quantity"`
	Product   *Product `json:"product,omitempty"`
}

// UnitPrice returns the linked product's price, or zero when the product is gone.
func (l CartLine) UnitPrice() Money {
	if l.Product == nil {
		return 0
	}
	return l.Product.Price
}

// LineTotal is unit price times quantity, for display only.
func (l CartLine) LineTotal() Money {
	return l.UnitPrice() * Money(l.Quantity)
}

// Cart is the GET /cart response. Total is the server's subtotal and is
// the only authoritative figure.
type Cart struct {
	Lines     []CartLine `json:"cart"`
	Subtotal  Money      `json:"total"`
	ItemCount int        `json:"item_count"`
}

// Line returns the line for productID, if present.
func (c *Cart) Line(productID int) (CartLine, bool) {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}

// === Coupons ===

// DiscountType is how a coupon computes its discount.
type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFlat    DiscountType = "flat"
)

// Coupon is coupon metadata as returned by /coupons endpoints.
type Coupon struct {
	ID             int          `json:"id"`
	Code           string       `json:"code"`
	DiscountType   DiscountType `json:"discount_type"`
	DiscountValue  float64      `json:"discount_value"` // Percent (10 = 10%) or flat amount in major units
	MinOrderAmount Money        `json:"min_order_amount"`
	MaxDiscount    *Money       `json:"max_discount,omitempty"`
	UsageLimit     *int         `json:"usage_limit,omitempty"`
	TimesUsed      int          `json:"times_used"`
	IsActive       bool         `json:"is_active"`
	IsValid        bool         `json:"is_valid"`
	ExpiresAt      *string      `json:"expires_at,omitempty"`
}

// Describe renders the coupon terms the way the cart sidebar shows them,
// e.g. "10% off (max $25.00)", "$50.00 flat discount".
// The max discount is display-only; the client never recomputes discounts.
func (c Coupon) Describe() string {
	var b strings.Builder
	switch c.DiscountType {
	case DiscountPercent:
		fmt.Fprintf(&b, "%s%% off", trimFloat(c.DiscountValue))
		if c.MaxDiscount != nil && *c.MaxDiscount > 0 {
			fmt.Fprintf(&b, " (max %s)", c.MaxDiscount.Format())
		}
	case DiscountFlat:
		fmt.Fprintf(&b, "%s flat discount", FromDollars(c.DiscountValue).Format())
	default:
		b.WriteString(string(c.DiscountType))
	}
	if c.MinOrderAmount > 0 {
		fmt.Fprintf(&b, " on %s+", c.MinOrderAmount.Format())
	}
	return b.String()
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// CouponInput is the admin payload for creating a coupon.
type CouponInput struct {
	Code           string       `json:"code"`
	DiscountType   DiscountType `json:"discount_type"`
	DiscountValue  float64      `json:"discount_value"`
	MinOrderAmount Money        `json:"min_order_amount"`
	MaxDiscount    *Money       `json:"max_discount,omitempty"`
	UsageLimit     *int         `json:"usage_limit,omitempty"`
	ExpiresAt      string       `json:"expires_at,omitempty"` // ISO 8601
}

// CouponValidateRequest is the POST /coupons/validate body.
type CouponValidateRequest struct {
	Code       string `json:"code"`
	OrderTotal Money  `json:"order_total"`
}

// CouponValidation is the POST /coupons/validate response. Servers signal
// rejection with a non-2xx status; Valid is optional.
type CouponValidation struct {
	Valid      *bool  `json:"valid,omitempty"`
	Discount   Money  `json:"discount"`
	FinalTotal Money  `json:"final_total"`
	Coupon     Coupon `json:"coupon"`
}

// Rejected reports whether a successful response still carried "valid": false.
func (v *CouponValidation) Rejected() bool {
	return v.Valid != nil && !*v.Valid
}
