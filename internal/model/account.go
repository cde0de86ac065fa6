package model

import (
	"encoding/json"
	"fmt"
)

// === Identity ===

// Role is the account role.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is the authenticated identity from GET /auth/profile.
type User struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Role      Role   `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
}

// TokenPair is the POST /auth/login response.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ProfileUpdate is the PUT /auth/profile body.
type ProfileUpdate struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// === Addresses ===

// Address is a saved shipping address. At most one per user is default.
type Address struct {
	ID           int    `json:"id"`
	UserID       int    `json:"user_id,omitempty"`
	Label        string `json:"label"`
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	Country      string `json:"country,omitempty"`
	IsDefault    bool   `json:"is_default"`
}

// Summary renders the one-line form used in address pickers.
func (a Address) Summary() string {
	return fmt.Sprintf("%s: %s, %s", a.Label, a.AddressLine1, a.City)
}

// AddressInput is the create/update payload for addresses.
type AddressInput struct {
	Label        string `json:"label"`
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	Country      string `json:"country,omitempty"`
	IsDefault    bool   `json:"is_default,omitempty"`
}

// === Orders ===

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderPlaced     OrderStatus = "PLACED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{OrderPlaced, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Cancellable reports whether a customer may still cancel.
func (s OrderStatus) Cancellable() bool {
	return s == OrderPlaced || s == OrderProcessing
}

// PaymentMethod is the payment option chosen at checkout.
type PaymentMethod string

const (
	PaymentCOD  PaymentMethod = "COD"
	PaymentCard PaymentMethod = "CARD"
	PaymentUPI  PaymentMethod = "UPI"
)

// Valid reports whether m is one of COD, CARD, UPI.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentCard, PaymentUPI:
		return true
	}
	return false
}

// Label is the human-readable name shown in the payment picker.
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentCOD:
		return "Cash on Delivery"
	case PaymentCard:
		return "Credit/Debit Card"
	case PaymentUPI:
		return "UPI Payment"
	}
	return string(m)
}

// OrderItem is one purchased line, priced at order time.
type OrderItem struct {
	ID        int      `json:"id"`
	OrderID   int      `json:"order_id"`
	ProductID int      `json:"product_id"`
	Quantity  int      `json:"quantity"`
	Price     Money    `json:"price"`
	Product   *Product `json:"product,omitempty"`
}

// Order is a placed order. The server computes every amount.
type Order struct {
	ID              int           `json:"id"`
	UserID          int           `json:"user_id"`
	TotalPrice      Money         `json:"total_price"`
	Subtotal        Money         `json:"subtotal"`
	DiscountAmount  Money         `json:"discount_amount"`
	CouponCode      string        `json:"coupon_code,omitempty"`
	ShippingAddress *Address      `json:"-"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	TrackingNumber  string        `json:"tracking_number,omitempty"`
	Status          OrderStatus   `json:"status"`
	CreatedAt       string        `json:"created_at,omitempty"`
	Items           []OrderItem   `json:"items"`
}

// UnmarshalJSON decodes shipping_address whether the server sends it as an
// object or as a JSON-encoded string snapshot.
func (o *Order) UnmarshalJSON(data []byte) error {
	type plain Order
	aux := struct {
		*plain
		ShippingAddress json.RawMessage `json:"shipping_address"`
	}{plain: (*plain)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	o.ShippingAddress = nil
	raw := aux.ShippingAddress
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("shipping_address: %w", err)
		}
		if s == "" {
			return nil
		}
		raw = []byte(s)
	}
	var addr Address
	if err := json.Unmarshal(raw, &addr); err != nil {
		return fmt.Errorf("shipping_address: %w", err)
	}
	o.ShippingAddress = &addr
	return nil
}

// MarshalJSON re-emits shipping_address as an object.
func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	return json.Marshal(struct {
		plain
		ShippingAddress *Address `json:"shipping_address,omitempty"`
	}{plain: plain(o), ShippingAddress: o.ShippingAddress})
}

// PlaceOrderRequest is the POST /orders/place body. AddressID and
// CouponCode are omitted when unset.
type PlaceOrderRequest struct {
	PaymentMethod PaymentMethod `json:"payment_method"`
	AddressID     *int          `json:"address_id,omitempty"`
	CouponCode    string        `json:"coupon_code,omitempty"`
}

// OrderStats is the admin GET /orders/stats response.
type OrderStats struct {
	TotalOrders     int                 `json:"total_orders"`
	TotalRevenue    Money               `json:"total_revenue"`
	StatusBreakdown map[OrderStatus]int `json:"status_breakdown"`
	RecentOrders    []Order             `json:"recent_orders"`
}

// === Wishlist ===

// WishlistItem is one saved product.
type WishlistItem struct {
	ID        int      `json:"id"`
	UserID    int      `json:"user_id"`
	ProductID int      `json:"product_id"`
	Product   *Product `json:"product,omitempty"`
	CreatedAt string   `json:"created_at,omitempty"`
}
