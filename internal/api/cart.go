package api

import (
	"context"
	"net/http"

	"storefront/internal/model"
)

// Cart fetches the server cart: lines, subtotal and item count.
func (c *Client) Cart(ctx context.Context) (*model.Cart, error) {
	var cart model.Cart
	if err := c.do(ctx, call{method: http.MethodGet, route: "/cart", path: "/cart"}, &cart); err != nil {
		return nil, err
	}
	if cart.Lines == nil {
		cart.Lines = []model.CartLine{}
	}
	return &cart, nil
}

type cartLineRequest struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// AddToCart adds quantity of a product, merging with an existing line.
func (c *Client) AddToCart(ctx context.Context, productID, quantity int) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		route:  "/cart/add",
		path:   "/cart/add",
		body:   cartLineRequest{ProductID: productID, Quantity: quantity},
	}, nil)
}

// UpdateCartLine sets a line's quantity.
func (c *Client) UpdateCartLine(ctx context.Context, productID, quantity int) error {
	return c.do(ctx, call{
		method: http.MethodPut,
		route:  "/cart/update",
		path:   "/cart/update",
		body:   cartLineRequest{ProductID: productID, Quantity: quantity},
	}, nil)
}

// RemoveCartLine deletes a product's line.
func (c *Client) RemoveCartLine(ctx context.Context, productID int) error {
	return c.do(ctx, call{
		method: http.MethodDelete,
		route:  "/cart/remove/:id",
		path:   idPath("/cart/remove", productID),
	}, nil)
}

// ValidateCoupon checks code against orderTotal. The discount and final
// total are computed by the server.
func (c *Client) ValidateCoupon(ctx context.Context, code string, orderTotal model.Money) (*model.CouponValidation, error) {
	var v model.CouponValidation
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/coupons/validate",
		path:   "/coupons/validate",
		body:   model.CouponValidateRequest{Code: code, OrderTotal: orderTotal},
	}, &v)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Coupons lists coupons: active ones for customers, all for admins.
func (c *Client) Coupons(ctx context.Context) ([]model.Coupon, error) {
	body, err := c.doRaw(ctx, call{method: http.MethodGet, route: "/coupons", path: "/coupons"})
	if err != nil {
		return nil, err
	}
	coupons := []model.Coupon{}
	if err := decodeList(body, "coupons", &coupons); err != nil {
		return nil, err
	}
	return coupons, nil
}

// CreateCoupon adds a coupon (admin).
func (c *Client) CreateCoupon(ctx context.Context, in model.CouponInput) (*model.Coupon, error) {
	body, err := c.doRaw(ctx, call{method: http.MethodPost, route: "/coupons", path: "/coupons", body: in})
	if err != nil {
		return nil, err
	}
	var coupon model.Coupon
	if err := decodeField(body, "coupon", &coupon); err != nil {
		return nil, err
	}
	return &coupon, nil
}

// DeleteCoupon removes a coupon (admin).
func (c *Client) DeleteCoupon(ctx context.Context, id int) error {
	return c.do(ctx, call{method: http.MethodDelete, route: "/coupons/:id", path: idPath("/coupons", id)}, nil)
}
