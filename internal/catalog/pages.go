package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"storefront/internal/backend"
	"storefront/internal/model"
)

// Home page section sizes.
const (
	FeaturedLimit = 8
	DealsLimit    = 4
	RelatedLimit  = 4
)

// HomePage is the landing page content.
type HomePage struct {
	Featured   []model.Product  `json:"featured"`
	Deals      []model.Product  `json:"deals"`
	Categories []model.Category `json:"categories"`
}

// Home fetches featured products, deals and categories concurrently.
func Home(ctx context.Context, c backend.Catalog) (*HomePage, error) {
	var home HomePage
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		products, err := c.FeaturedProducts(ctx, FeaturedLimit)
		if err != nil {
			return fmt.Errorf("featured products: %w", err)
		}
		home.Featured = products
		return nil
	})
	g.Go(func() error {
		products, err := c.DealProducts(ctx, DealsLimit)
		if err != nil {
			return fmt.Errorf("deals: %w", err)
		}
		home.Deals = products
		return nil
	})
	g.Go(func() error {
		cats, err := c.Categories(ctx)
		if err != nil {
			return fmt.Errorf("categories: %w", err)
		}
		home.Categories = cats
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &home, nil
}

// WishlistChecker reports whether a product is saved. Nil when logged out.
type WishlistChecker interface {
	InWishlist(ctx context.Context, productID int) (bool, error)
}

// DetailPage is the product page: the product, its reviews with rating
// stats, related products and the wishlist flag.
type DetailPage struct {
	Product    model.Product    `json:"product"`
	Reviews    model.ReviewPage `json:"reviews"`
	Related    []model.Product  `json:"related"`
	InWishlist bool             `json:"in_wishlist"`
}

// ProductDetail loads the product page. Only a product failure is
// returned; reviews, related products and the wishlist flag degrade to
// empty values.
func ProductDetail(ctx context.Context, c backend.Catalog, wishlist WishlistChecker, id int) (*DetailPage, error) {
	page := DetailPage{
		Reviews: model.ReviewPage{Reviews: []model.Review{}},
		Related: []model.Product{},
	}
	var g errgroup.Group

	g.Go(func() error {
		product, err := c.Product(ctx, id)
		if err != nil {
			return fmt.Errorf("loading product %d: %w", id, err)
		}
		page.Product = *product
		if product.CategoryID == nil {
			return nil
		}
		q := url.Values{}
		q.Set("category_id", strconv.Itoa(*product.CategoryID))
		q.Set("per_page", strconv.Itoa(RelatedLimit))
		related, err := c.Products(ctx, q)
		if err != nil {
			return nil
		}
		for _, p := range related.Products {
			if p.ID != id {
				page.Related = append(page.Related, p)
			}
		}
		return nil
	})

	g.Go(func() error {
		reviews, err := c.ProductReviews(ctx, id, 1)
		if err == nil && reviews != nil {
			if reviews.Reviews == nil {
				reviews.Reviews = []model.Review{}
			}
			page.Reviews = *reviews
		}
		return nil
	})

	if wishlist != nil {
		g.Go(func() error {
			in, err := wishlist.InWishlist(ctx, id)
			if err == nil {
				page.InWishlist = in
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &page, nil
}
