// Package backend defines the seam between storefront components and the
// remote commerce API. *api.Client implements every interface here; tests
// use Mock.
package backend

import (
	"context"
	"net/url"

	"storefront/internal/model"
)

// Auth covers the identity endpoints the session store needs.
type Auth interface {
	// Login exchanges credentials for tokens. It does not return the user;
	// the profile endpoint is the source of truth for identity.
	Login(ctx context.Context, email, password string) (*model.TokenPair, error)

	// Register creates an account without logging in.
	Register(ctx context.Context, name, email, password string) (*model.User, error)

	// Profile returns the authenticated user.
	Profile(ctx context.Context) (*model.User, error)

	// UpdateProfile saves profile fields and returns the updated user.
	UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.User, error)
}

// Catalog covers read-only product browsing plus reviews.
type Catalog interface {
	Products(ctx context.Context, query url.Values) (*model.ProductPage, error)
	FeaturedProducts(ctx context.Context, limit int) ([]model.Product, error)
	DealProducts(ctx context.Context, limit int) ([]model.Product, error)
	Brands(ctx context.Context) ([]string, error)
	Product(ctx context.Context, id int) (*model.Product, error)
	Categories(ctx context.Context) ([]model.Category, error)
	ProductReviews(ctx context.Context, productID, page int) (*model.ReviewPage, error)
	CreateReview(ctx context.Context, in model.ReviewInput) (*model.Review, error)
	UpdateReview(ctx context.Context, id int, in model.ReviewInput) (*model.Review, error)
	DeleteReview(ctx context.Context, id int) error
}

// Cart covers the server cart and coupon validation.
type Cart interface {
	Cart(ctx context.Context) (*model.Cart, error)
	AddToCart(ctx context.Context, productID, quantity int) error
	UpdateCartLine(ctx context.Context, productID, quantity int) error
	RemoveCartLine(ctx context.Context, productID int) error

	// ValidateCoupon checks code against orderTotal. Discount and final
	// total are computed by the server and trusted verbatim.
	ValidateCoupon(ctx context.Context, code string, orderTotal model.Money) (*model.CouponValidation, error)
	Coupons(ctx context.Context) ([]model.Coupon, error)
}

// Account covers the customer's addresses, orders and wishlist.
type Account interface {
	Addresses(ctx context.Context) ([]model.Address, error)
	AddAddress(ctx context.Context, in model.AddressInput) (*model.Address, error)
	UpdateAddress(ctx context.Context, id int, in model.AddressInput) (*model.Address, error)
	DeleteAddress(ctx context.Context, id int) error
	SetDefaultAddress(ctx context.Context, id int) error

	PlaceOrder(ctx context.Context, req model.PlaceOrderRequest) (*model.Order, error)
	Orders(ctx context.Context) ([]model.Order, error)
	Order(ctx context.Context, id int) (*model.Order, error)
	SetOrderStatus(ctx context.Context, id int, status model.OrderStatus) (*model.Order, error)

	Wishlist(ctx context.Context) ([]model.WishlistItem, error)
	AddToWishlist(ctx context.Context, productID int) error
	RemoveFromWishlist(ctx context.Context, productID int) error
	InWishlist(ctx context.Context, productID int) (bool, error)
	MoveWishlistToCart(ctx context.Context, productID int) error
}

// Admin covers catalog and coupon management plus order statistics.
type Admin interface {
	CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id int, in model.ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int) error
	CreateCategory(ctx context.Context, in model.CategoryInput) (*model.Category, error)
	UpdateCategory(ctx context.Context, id int, in model.CategoryInput) (*model.Category, error)
	DeleteCategory(ctx context.Context, id int) error
	CreateCoupon(ctx context.Context, in model.CouponInput) (*model.Coupon, error)
	DeleteCoupon(ctx context.Context, id int) error
	OrderStats(ctx context.Context) (*model.OrderStats, error)
}

// Storefront is the whole API surface.
type Storefront interface {
	Auth
	Catalog
	Cart
	Account
	Admin
}
