package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"storefront/internal/model"
)

// Products lists products. query carries page, per_page and filters.
func (c *Client) Products(ctx context.Context, query url.Values) (*model.ProductPage, error) {
	var page model.ProductPage
	err := c.do(ctx, call{method: http.MethodGet, route: "/products", path: "/products", query: query}, &page)
	if err != nil {
		return nil, err
	}
	if page.Products == nil {
		page.Products = []model.Product{}
	}
	return &page, nil
}

// FeaturedProducts returns up to limit featured products.
func (c *Client) FeaturedProducts(ctx context.Context, limit int) ([]model.Product, error) {
	return c.productList(ctx, "/products/featured", limit)
}

// DealProducts returns up to limit discounted products.
func (c *Client) DealProducts(ctx context.Context, limit int) ([]model.Product, error) {
	return c.productList(ctx, "/products/deals", limit)
}

func (c *Client) productList(ctx context.Context, path string, limit int) ([]model.Product, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.doRaw(ctx, call{method: http.MethodGet, route: path, path: path, query: q})
	if err != nil {
		return nil, err
	}
	var products []model.Product
	if err := decodeList(body, "products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Brands lists distinct product brands.
func (c *Client) Brands(ctx context.Context) ([]string, error) {
	body, err := c.doRaw(ctx, call{method: http.MethodGet, route: "/products/brands", path: "/products/brands"})
	if err != nil {
		return nil, err
	}
	var brands []string
	if err := decodeList(body, "brands", &brands); err != nil {
		return nil, err
	}
	return brands, nil
}

// Product fetches one product.
func (c *Client) Product(ctx context.Context, id int) (*model.Product, error) {
	body, err := c.doRaw(ctx, call{method: http.MethodGet, route: "/products/:id", path: idPath("/products", id)})
	if err != nil {
		return nil, err
	}
	var p model.Product
	if err := decodeField(body, "product", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct adds a product (admin).
func (c *Client) CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	return c.writeProduct(ctx, call{method: http.MethodPost, route: "/products", path: "/products", body: in})
}

// UpdateProduct edits a product (admin).
func (c *Client) UpdateProduct(ctx context.Context, id int, in model.ProductInput) (*model.Product, error) {
	return c.writeProduct(ctx, call{method: http.MethodPut, route: "/products/:id", path: idPath("/products", id), body: in})
}

func (c *Client) writeProduct(ctx context.Context, cl call) (*model.Product, error) {
	body, err := c.doRaw(ctx, cl)
	if err != nil {
		return nil, err
	}
	var p model.Product
	if err := decodeField(body, "product", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProduct removes a product (admin).
func (c *Client) DeleteProduct(ctx context.Context, id int) error {
	return c.do(ctx, call{method: http.MethodDelete, route: "/products/:id", path: idPath("/products", id)}, nil)
}

// Categories lists top-level categories with their children. The list is
// accepted bare or wrapped in {"categories": [...]}.
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	body, err := c.doRaw(ctx, call{method: http.MethodGet, route: "/categories", path: "/categories"})
	if err != nil {
		return nil, err
	}
	categories := []model.Category{}
	if err := decodeList(body, "categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateCategory adds a category (admin).
func (c *Client) CreateCategory(ctx context.Context, in model.CategoryInput) (*model.Category, error) {
	return c.writeCategory(ctx, call{method: http.MethodPost, route: "/categories", path: "/categories", body: in})
}

// UpdateCategory edits a category (admin).
func (c *Client) UpdateCategory(ctx context.Context, id int, in model.CategoryInput) (*model.Category, error) {
	return c.writeCategory(ctx, call{method: http.MethodPut, route: "/categories/:id", path: idPath("/categories", id), body: in})
}

func (c *Client) writeCategory(ctx context.Context, cl call) (*model.Category, error) {
	body, err := c.doRaw(ctx, cl)
	if err != nil {
		return nil, err
	}
	var cat model.Category
	if err := decodeField(body, "category", &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// DeleteCategory removes a category (admin).
func (c *Client) DeleteCategory(ctx context.Context, id int) error {
	return c.do(ctx, call{method: http.MethodDelete, route: "/categories/:id", path: idPath("/categories", id)}, nil)
}

// ProductReviews returns a page of reviews with rating statistics.
func (c *Client) ProductReviews(ctx context.Context, productID, page int) (*model.ReviewPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	var reviews model.ReviewPage
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/reviews/product/:id",
		path:   idPath("/reviews/product", productID),
		query:  q,
	}, &reviews)
	if err != nil {
		return nil, err
	}
	if reviews.Reviews == nil {
		reviews.Reviews = []model.Review{}
	}
	return &reviews, nil
}

// CreateReview submits a review.
func (c *Client) CreateReview(ctx context.Context, in model.ReviewInput) (*model.Review, error) {
	return c.writeReview(ctx, call{method: http.MethodPost, route: "/reviews", path: "/reviews", body: in})
}

// UpdateReview edits the caller's own review.
func (c *Client) UpdateReview(ctx context.Context, id int, in model.ReviewInput) (*model.Review, error) {
	return c.writeReview(ctx, call{method: http.MethodPut, route: "/reviews/:id", path: idPath("/reviews", id), body: in})
}

func (c *Client) writeReview(ctx context.Context, cl call) (*model.Review, error) {
	body, err := c.doRaw(ctx, cl)
	if err != nil {
		return nil, err
	}
	var r model.Review
	if err := decodeField(body, "review", &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteReview removes the caller's own review.
func (c *Client) DeleteReview(ctx context.Context, id int) error {
	return c.do(ctx, call{method: http.MethodDelete, route: "/reviews/:id", path: idPath("/reviews", id)}, nil)
}
