package api

import (
	"context"
	"net/http"

	"github.com/tidwall/gjson"

	"storefront/internal/model"
)

// === Addresses ===

// Addresses lists saved addresses. Both the bare-array and the
// {"addresses": [...]} shapes decode to the same slice.
func (c *Client) Addresses(ctx context.Context) ([]model.Address, error) {
	body, err := c.doRaw(ctx, call{method: http.MethodGet, route: "/addresses", path: "/addresses"})
	if err != nil {
		return nil, err
	}
	addresses := []model.Address{}
	if err := decodeList(body, "addresses", &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

// AddAddress saves a new address.
func (c *Client) AddAddress(ctx context.Context, in model.AddressInput) (*model.Address, error) {
	return c.writeAddress(ctx, call{method: http.MethodPost, route: "/addresses", path: "/addresses", body: in})
}

// UpdateAddress edits an address.
func (c *Client) UpdateAddress(ctx context.Context, id int, in model.AddressInput) (*model.Address, error) {
	return c.writeAddress(ctx, call{method: http.MethodPut, route: "/addresses/:id", path: idPath("/addresses", id), body: in})
}

func (c *Client) writeAddress(ctx context.Context, cl call) (*model.Address, error) {
	body, err := c.doRaw(ctx, cl)
	if err != nil {
		return nil, err
	}
	var a model.Address
	if err := decodeField(body, "address", &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteAddress removes an address.
func (c *Client) DeleteAddress(ctx context.Context, id int) error {
	return c.do(ctx, call{method: http.MethodDelete, route: "/addresses/:id", path: idPath("/addresses", id)}, nil)
}

// SetDefaultAddress marks id as the default; the server clears the flag elsewhere.
func (c *Client) SetDefaultAddress(ctx context.Context, id int) error {
	return c.do(ctx, call{
		method: http.MethodPut,
		route:  "/addresses/:id/default",
		path:   idPath("/addresses", id, "default"),
	}, nil)
}

// === Orders ===

// PlaceOrder converts the server cart into an order.
func (c *Client) PlaceOrder(ctx context.Context, req model.PlaceOrderRequest) (*model.Order, error) {
	body, err := c.doRaw(ctx, call{method: http.MethodPost, route: "/orders/place", path: "/orders/place", body: req})
	if err != nil {
		return nil, err
	}
	var order model.Order
	if err := decodeField(body, "order", &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Orders lists the caller's orders (all orders for admins), newest first.
func (c *Client) Orders(ctx context.Context) ([]model.Order, error) {
	body, err := c.doRaw(ctx, call{method: http.MethodGet, route: "/orders", path: "/orders"})
	if err != nil {
		return nil, err
	}
	orders := []model.Order{}
	if err := decodeList(body, "orders", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Order fetches one order.
func (c *Client) Order(ctx context.Context, id int) (*model.Order, error) {
	body, err := c.doRaw(ctx, call{method: http.MethodGet, route: "/orders/:id", path: idPath("/orders", id)})
	if err != nil {
		return nil, err
	}
	var order model.Order
	if err := decodeField(body, "order", &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// SetOrderStatus moves an order to status.
func (c *Client) SetOrderStatus(ctx context.Context, id int, status model.OrderStatus) (*model.Order, error) {
	body, err := c.doRaw(ctx, call{
		method: http.MethodPut,
		route:  "/orders/:id/status",
		path:   idPath("/orders", id, "status"),
		body:   map[string]model.OrderStatus{"status": status},
	})
	if err != nil {
		return nil, err
	}
	var order model.Order
	if err := decodeField(body, "order", &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// OrderStats returns admin dashboard figures.
func (c *Client) OrderStats(ctx context.Context) (*model.OrderStats, error) {
	var stats model.OrderStats
	if err := c.do(ctx, call{method: http.MethodGet, route: "/orders/stats", path: "/orders/stats"}, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// === Wishlist ===

// Wishlist lists saved products, newest first.
func (c *Client) Wishlist(ctx context.Context) ([]model.WishlistItem, error) {
	body, err := c.doRaw(ctx, call{method: http.MethodGet, route: "/wishlist", path: "/wishlist"})
	if err != nil {
		return nil, err
	}
	items := []model.WishlistItem{}
	if err := decodeList(body, "wishlist", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddToWishlist saves a product.
func (c *Client) AddToWishlist(ctx context.Context, productID int) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		route:  "/wishlist/add",
		path:   "/wishlist/add",
		body:   map[string]int{"product_id": productID},
	}, nil)
}

// RemoveFromWishlist drops a saved product.
func (c *Client) RemoveFromWishlist(ctx context.Context, productID int) error {
	return c.do(ctx, call{
		method: http.MethodDelete,
		route:  "/wishlist/remove/:id",
		path:   idPath("/wishlist/remove", productID),
	}, nil)
}

// InWishlist reports whether productID is saved.
func (c *Client) InWishlist(ctx context.Context, productID int) (bool, error) {
	body, err := c.doRaw(ctx, call{
		method: http.MethodGet,
		route:  "/wishlist/check/:id",
		path:   idPath("/wishlist/check", productID),
	})
	if err != nil {
		return false, err
	}
	return gjson.GetBytes(body, "in_wishlist").Bool(), nil
}

// MoveWishlistToCart moves a saved product into the cart (quantity 1).
func (c *Client) MoveWishlistToCart(ctx context.Context, productID int) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		route:  "/wishlist/move-to-cart/:id",
		path:   idPath("/wishlist/move-to-cart", productID),
	}, nil)
}
