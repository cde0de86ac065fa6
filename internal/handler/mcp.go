// MCP transport handler for the storefront gateway using the official MCP Go SDK.
// Exposes catalog, cart and checkout operations as MCP tools.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"storefront/internal/catalog"
	"storefront/internal/model"
	"storefront/internal/notice"
)

// === MCP Tool Input Types ===
// Fields without omitempty are required by the generated schema.

// SearchProductsInput is the input schema for search_products tool.
type SearchProductsInput struct {
	Search     string  `json:"search,omitempty" jsonschema:"free-text search"`
	CategoryID int     `json:"category_id,omitempty" jsonschema:"category ID"`
	Brand      string  `json:"brand,omitempty" jsonschema:"brand name"`
	Sort       string  `json:"sort,omitempty" jsonschema:"newest, oldest, price_low, price_high, name_az or name_za"`
	MinPrice   float64 `json:"min_price,omitempty" jsonschema:"minimum price in major units"`
	MaxPrice   float64 `json:"max_price,omitempty" jsonschema:"maximum price in major units"`
	Featured   bool    `json:"featured,omitempty" jsonschema:"only featured products"`
	Page       int     `json:"page,omitempty" jsonschema:"1-based page number"`
}

// ProductInput is the input schema for get_product tool.
type ProductInput struct {
	ID int `json:"id" jsonschema:"product ID"`
}

// EmptyInput is the input schema for tools without arguments.
type EmptyInput struct{}

// AddToCartInput is the input schema for add_to_cart tool.
type AddToCartInput struct {
	ProductID int `json:"product_id" jsonschema:"product ID"`
	Quantity  int `json:"quantity,omitempty" jsonschema:"quantity to add, default 1"`
}

// SetQuantityInput is the input schema for set_quantity tool.
type SetQuantityInput struct {
	ProductID int `json:"product_id" jsonschema:"product ID of the cart line"`
	Quantity  int `json:"quantity" jsonschema:"new quantity, at least 1"`
}

// RemoveItemInput is the input schema for remove_item tool.
type RemoveItemInput struct {
	ProductID int `json:"product_id" jsonschema:"product ID of the cart line"`
}

// ApplyCouponInput is the input schema for apply_coupon tool.
type ApplyCouponInput struct {
	Code string `json:"code" jsonschema:"coupon code, case-insensitive"`
}

// SelectAddressInput is the input schema for select_address tool.
type SelectAddressInput struct {
	AddressID int `json:"address_id,omitempty" jsonschema:"saved address ID; omit or 0 to clear"`
}

// SelectPaymentInput is the input schema for select_payment tool.
type SelectPaymentInput struct {
	PaymentMethod string `json:"payment_method" jsonschema:"COD, CARD or UPI"`
}

// NewMCPServer creates an MCP server with storefront tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "storefront",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Storefront gateway - browse the catalog, manage the cart and coupon, " +
				"choose address and payment, and place orders. Amounts are in major units.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_products",
		Description: "Search the catalog with optional filters and sort. Returns one page of products.",
	}, h.mcpSearchProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_product",
		Description: "Get a product with its reviews and related products.",
	}, h.mcpGetProduct)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cart",
		Description: "Get the cart, coupon state, totals, addresses and payment method.",
	}, h.mcpGetCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_cart",
		Description: "Add a product to the cart.",
	}, h.mcpAddToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_quantity",
		Description: "Set the quantity of a cart line. Quantity must be at least 1; use remove_item to delete.",
	}, h.mcpSetQuantity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_item",
		Description: "Remove a line from the cart.",
	}, h.mcpRemoveItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "apply_coupon",
		Description: "Validate a coupon against the cart subtotal and apply it.",
	}, h.mcpApplyCoupon)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_coupon",
		Description: "Remove the applied coupon.",
	}, h.mcpRemoveCoupon)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "select_address",
		Description: "Choose the shipping address for the order.",
	}, h.mcpSelectAddress)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "select_payment",
		Description: "Choose the payment method: COD, CARD or UPI.",
	}, h.mcpSelectPayment)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "place_order",
		Description: "Place the order with the current cart, address, payment method and coupon.",
	}, h.mcpPlaceOrder)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_orders",
		Description: "List the customer's orders, newest first.",
	}, h.mcpListOrders)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===
// Results are returned as JSON text content. Money fields encode as
// decimal numbers, which the inferred integer schema would reject.

func (h *Handler) mcpSearchProducts(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchProductsInput,
) (*mcp.CallToolResult, any, error) {
	f := catalog.Filter{
		Search:     input.Search,
		CategoryID: input.CategoryID,
		Brand:      input.Brand,
		Sort:       catalog.Sort(input.Sort).Normalize(),
		MinPrice:   model.FromDollars(input.MinPrice),
		MaxPrice:   model.FromDollars(input.MaxPrice),
		Featured:   input.Featured,
	}
	page := max(input.Page, 1)

	result, err := h.catalog.Products(ctx, catalog.Query(f, page))
	if err != nil {
		return nil, nil, h.mcpError(err, nil)
	}
	return h.mcpResult(listing(f, page, result))
}

func (h *Handler) mcpGetProduct(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ProductInput,
) (*mcp.CallToolResult, any, error) {
	if input.ID <= 0 {
		return nil, nil, fmt.Errorf("id is required")
	}
	detail, err := catalog.ProductDetail(ctx, h.catalog, nil, input.ID)
	if err != nil {
		return nil, nil, h.mcpError(err, nil)
	}
	return h.mcpResult(detail)
}

func (h *Handler) mcpGetCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input EmptyInput,
) (*mcp.CallToolResult, any, error) {
	return h.mcpCart(ctx, func(ctx context.Context) error {
		return h.checkout.LoadCart(ctx)
	})
}

func (h *Handler) mcpAddToCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AddToCartInput,
) (*mcp.CallToolResult, any, error) {
	if input.ProductID <= 0 {
		return nil, nil, fmt.Errorf("product_id is required")
	}
	qty := input.Quantity
	if qty == 0 {
		qty = 1
	}
	return h.mcpCart(ctx, func(ctx context.Context) error {
		return h.checkout.AddLine(ctx, input.ProductID, qty)
	})
}

func (h *Handler) mcpSetQuantity(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SetQuantityInput,
) (*mcp.CallToolResult, any, error) {
	return h.mcpCart(ctx, func(ctx context.Context) error {
		return h.checkout.SetLineQuantity(ctx, input.ProductID, input.Quantity)
	})
}

func (h *Handler) mcpRemoveItem(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RemoveItemInput,
) (*mcp.CallToolResult, any, error) {
	return h.mcpCart(ctx, func(ctx context.Context) error {
		return h.checkout.RemoveLine(ctx, input.ProductID)
	})
}

func (h *Handler) mcpApplyCoupon(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ApplyCouponInput,
) (*mcp.CallToolResult, any, error) {
	return h.mcpCart(ctx, func(ctx context.Context) error {
		_, err := h.checkout.ApplyCoupon(ctx, input.Code)
		return err
	})
}

func (h *Handler) mcpRemoveCoupon(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input EmptyInput,
) (*mcp.CallToolResult, any, error) {
	return h.mcpCart(ctx, func(context.Context) error {
		h.checkout.RemoveCoupon()
		return nil
	})
}

func (h *Handler) mcpSelectAddress(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SelectAddressInput,
) (*mcp.CallToolResult, any, error) {
	return h.mcpCart(ctx, func(context.Context) error {
		if input.AddressID == 0 {
			h.checkout.ClearAddress()
			return nil
		}
		return h.checkout.SelectAddress(input.AddressID)
	})
}

func (h *Handler) mcpSelectPayment(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SelectPaymentInput,
) (*mcp.CallToolResult, any, error) {
	return h.mcpCart(ctx, func(context.Context) error {
		return h.checkout.SelectPaymentMethod(model.PaymentMethod(input.PaymentMethod))
	})
}

func (h *Handler) mcpPlaceOrder(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input EmptyInput,
) (*mcp.CallToolResult, any, error) {
	rec := &notice.Recorder{}
	ctx = notice.WithRecorder(ctx, rec)

	order, err := h.checkout.PlaceOrder(ctx)
	if err != nil {
		return nil, nil, h.mcpError(err, rec.Drain())
	}
	h.logger.InfoContext(ctx, "order placed via mcp", slog.Int("order_id", order.ID))
	return h.mcpResult(cartResponse{Cart: h.checkout.View(), Order: order, Messages: rec.Drain()})
}

func (h *Handler) mcpListOrders(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input EmptyInput,
) (*mcp.CallToolResult, any, error) {
	if err := h.orders.Load(ctx); err != nil {
		return nil, nil, h.mcpError(err, nil)
	}
	return h.mcpResult(ordersResponse{Orders: h.orders.List()})
}

// mcpCart runs a cart action with a request-scoped notice recorder and
// returns the resulting cart view with those notices.
func (h *Handler) mcpCart(ctx context.Context, action func(context.Context) error) (*mcp.CallToolResult, any, error) {
	rec := &notice.Recorder{}
	ctx = notice.WithRecorder(ctx, rec)
	if err := action(ctx); err != nil {
		return nil, nil, h.mcpError(err, rec.Drain())
	}
	return h.mcpResult(cartResponse{Cart: h.checkout.View(), Messages: rec.Drain()})
}

// mcpResult encodes v as JSON text content.
func (h *Handler) mcpResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("mcp encode failed", slog.String("error", err.Error()))
		return nil, nil, fmt.Errorf("internal error")
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// mcpError converts errors to MCP-friendly errors. Notices produced by the
// failed call are appended to the message.
func (h *Handler) mcpError(err error, messages []notice.Notice) error {
	apiErr := toAPIError(err)
	if apiErr == nil {
		// Don't leak internal error details
		h.logger.Error("mcp internal error", slog.String("error", err.Error()))
		return fmt.Errorf("internal error")
	}
	text := make([]string, 0, len(messages))
	for _, m := range messages {
		text = append(text, m.Message)
	}
	if len(text) > 0 {
		return fmt.Errorf("%s: %s (%s)", apiErr.Code, apiErr.Message, strings.Join(text, "; "))
	}
	return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
}
