package backend

import (
	"context"
	"net/url"

	"storefront/internal/model"
)

// Mock implements Storefront for testing.
// Each method can be configured via function fields; unset reads return
// empty results and unset writes succeed.
type Mock struct {
	LoginFunc         func(ctx context.Context, email, password string) (*model.TokenPair, error)
	RegisterFunc      func(ctx context.Context, name, email, password string) (*model.User, error)
	ProfileFunc       func(ctx context.Context) (*model.User, error)
	UpdateProfileFunc func(ctx context.Context, update model.ProfileUpdate) (*model.User, error)

	ProductsFunc         func(ctx context.Context, query url.Values) (*model.ProductPage, error)
	FeaturedProductsFunc func(ctx context.Context, limit int) ([]model.Product, error)
	DealProductsFunc     func(ctx context.Context, limit int) ([]model.Product, error)
	BrandsFunc           func(ctx context.Context) ([]string, error)
	ProductFunc          func(ctx context.Context, id int) (*model.Product, error)
	CategoriesFunc       func(ctx context.Context) ([]model.Category, error)
	ProductReviewsFunc   func(ctx context.Context, productID, page int) (*model.ReviewPage, error)
	CreateReviewFunc     func(ctx context.Context, in model.ReviewInput) (*model.Review, error)
	UpdateReviewFunc     func(ctx context.Context, id int, in model.ReviewInput) (*model.Review, error)
	DeleteReviewFunc     func(ctx context.Context, id int) error

	CartFunc           func(ctx context.Context) (*model.Cart, error)
	AddToCartFunc      func(ctx context.Context, productID, quantity int) error
	UpdateCartLineFunc func(ctx context.Context, productID, quantity int) error
	RemoveCartLineFunc func(ctx context.Context, productID int) error
	ValidateCouponFunc func(ctx context.Context, code string, orderTotal model.Money) (*model.CouponValidation, error)
	CouponsFunc        func(ctx context.Context) ([]model.Coupon, error)

	AddressesFunc         func(ctx context.Context) ([]model.Address, error)
	AddAddressFunc        func(ctx context.Context, in model.AddressInput) (*model.Address, error)
	UpdateAddressFunc     func(ctx context.Context, id int, in model.AddressInput) (*model.Address, error)
	DeleteAddressFunc     func(ctx context.Context, id int) error
	SetDefaultAddressFunc func(ctx context.Context, id int) error

	PlaceOrderFunc     func(ctx context.Context, req model.PlaceOrderRequest) (*model.Order, error)
	OrdersFunc         func(ctx context.Context) ([]model.Order, error)
	OrderFunc          func(ctx context.Context, id int) (*model.Order, error)
	SetOrderStatusFunc func(ctx context.Context, id int, status model.OrderStatus) (*model.Order, error)

	WishlistFunc           func(ctx context.Context) ([]model.WishlistItem, error)
	AddToWishlistFunc      func(ctx context.Context, productID int) error
	RemoveFromWishlistFunc func(ctx context.Context, productID int) error
	InWishlistFunc         func(ctx context.Context, productID int) (bool, error)
	MoveWishlistToCartFunc func(ctx context.Context, productID int) error

	CreateProductFunc  func(ctx context.Context, in model.ProductInput) (*model.Product, error)
	UpdateProductFunc  func(ctx context.Context, id int, in model.ProductInput) (*model.Product, error)
	DeleteProductFunc  func(ctx context.Context, id int) error
	CreateCategoryFunc func(ctx context.Context, in model.CategoryInput) (*model.Category, error)
	UpdateCategoryFunc func(ctx context.Context, id int, in model.CategoryInput) (*model.Category, error)
	DeleteCategoryFunc func(ctx context.Context, id int) error
	CreateCouponFunc   func(ctx context.Context, in model.CouponInput) (*model.Coupon, error)
	DeleteCouponFunc   func(ctx context.Context, id int) error
	OrderStatsFunc     func(ctx context.Context) (*model.OrderStats, error)
}

var _ Storefront = (*Mock)(nil)

// === Auth ===

func (m *Mock) Login(ctx context.Context, email, password string) (*model.TokenPair, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, model.NewUnauthorizedError("Invalid email or password")
}

func (m *Mock) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, name, email, password)
	}
	return &model.User{Name: name, Email: email, Role: model.RoleUser}, nil
}

func (m *Mock) Profile(ctx context.Context) (*model.User, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx)
	}
	return nil, model.NewUnauthorizedError("authentication required")
}

func (m *Mock) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, update)
	}
	return nil, model.NewUnauthorizedError("authentication required")
}

// === Catalog ===

func (m *Mock) Products(ctx context.Context, query url.Values) (*model.ProductPage, error) {
	if m.ProductsFunc != nil {
		return m.ProductsFunc(ctx, query)
	}
	return &model.ProductPage{Products: []model.Product{}, CurrentPage: 1}, nil
}

func (m *Mock) FeaturedProducts(ctx context.Context, limit int) ([]model.Product, error) {
	if m.FeaturedProductsFunc != nil {
		return m.FeaturedProductsFunc(ctx, limit)
	}
	return []model.Product{}, nil
}

func (m *Mock) DealProducts(ctx context.Context, limit int) ([]model.Product, error) {
	if m.DealProductsFunc != nil {
		return m.DealProductsFunc(ctx, limit)
	}
	return []model.Product{}, nil
}

func (m *Mock) Brands(ctx context.Context) ([]string, error) {
	if m.BrandsFunc != nil {
		return m.BrandsFunc(ctx)
	}
	return []string{}, nil
}

func (m *Mock) Product(ctx context.Context, id int) (*model.Product, error) {
	if m.ProductFunc != nil {
		return m.ProductFunc(ctx, id)
	}
	return nil, model.NewNotFoundError("product")
}

func (m *Mock) Categories(ctx context.Context) ([]model.Category, error) {
	if m.CategoriesFunc != nil {
		return m.CategoriesFunc(ctx)
	}
	return []model.Category{}, nil
}

func (m *Mock) ProductReviews(ctx context.Context, productID, page int) (*model.ReviewPage, error) {
	if m.ProductReviewsFunc != nil {
		return m.ProductReviewsFunc(ctx, productID, page)
	}
	return &model.ReviewPage{Reviews: []model.Review{}}, nil
}

func (m *Mock) CreateReview(ctx context.Context, in model.ReviewInput) (*model.Review, error) {
	if m.CreateReviewFunc != nil {
		return m.CreateReviewFunc(ctx, in)
	}
	return &model.Review{ProductID: in.ProductID, Rating: in.Rating, Title: in.Title, Comment: in.Comment}, nil
}

func (m *Mock) UpdateReview(ctx context.Context, id int, in model.ReviewInput) (*model.Review, error) {
	if m.UpdateReviewFunc != nil {
		return m.UpdateReviewFunc(ctx, id, in)
	}
	return &model.Review{ID: id, Rating: in.Rating, Title: in.Title, Comment: in.Comment}, nil
}

func (m *Mock) DeleteReview(ctx context.Context, id int) error {
	if m.DeleteReviewFunc != nil {
		return m.DeleteReviewFunc(ctx, id)
	}
	return nil
}

// === Cart ===

func (m *Mock) Cart(ctx context.Context) (*model.Cart, error) {
	if m.CartFunc != nil {
		return m.CartFunc(ctx)
	}
	return &model.Cart{Lines: []model.CartLine{}}, nil
}

func (m *Mock) AddToCart(ctx context.Context, productID, quantity int) error {
	if m.AddToCartFunc != nil {
		return m.AddToCartFunc(ctx, productID, quantity)
	}
	return nil
}

func (m *Mock) UpdateCartLine(ctx context.Context, productID, quantity int) error {
	if m.UpdateCartLineFunc != nil {
		return m.UpdateCartLineFunc(ctx, productID, quantity)
	}
	return nil
}

func (m *Mock) RemoveCartLine(ctx context.Context, productID int) error {
	if m.RemoveCartLineFunc != nil {
		return m.RemoveCartLineFunc(ctx, productID)
	}
	return nil
}

func (m *Mock) ValidateCoupon(ctx context.Context, code string, orderTotal model.Money) (*model.CouponValidation, error) {
	if m.ValidateCouponFunc != nil {
		return m.ValidateCouponFunc(ctx, code, orderTotal)
	}
	return nil, model.NewServerError(404, "Invalid coupon code")
}

func (m *Mock) Coupons(ctx context.Context) ([]model.Coupon, error) {
	if m.CouponsFunc != nil {
		return m.CouponsFunc(ctx)
	}
	return []model.Coupon{}, nil
}

// === Account ===

func (m *Mock) Addresses(ctx context.Context) ([]model.Address, error) {
	if m.AddressesFunc != nil {
		return m.AddressesFunc(ctx)
	}
	return []model.Address{}, nil
}

func (m *Mock) AddAddress(ctx context.Context, in model.AddressInput) (*model.Address, error) {
	if m.AddAddressFunc != nil {
		return m.AddAddressFunc(ctx, in)
	}
	return nil, model.NewInternalError(nil)
}

func (m *Mock) UpdateAddress(ctx context.Context, id int, in model.AddressInput) (*model.Address, error) {
	if m.UpdateAddressFunc != nil {
		return m.UpdateAddressFunc(ctx, id, in)
	}
	return nil, model.NewNotFoundError("address")
}

func (m *Mock) DeleteAddress(ctx context.Context, id int) error {
	if m.DeleteAddressFunc != nil {
		return m.DeleteAddressFunc(ctx, id)
	}
	return nil
}

func (m *Mock) SetDefaultAddress(ctx context.Context, id int) error {
	if m.SetDefaultAddressFunc != nil {
		return m.SetDefaultAddressFunc(ctx, id)
	}
	return nil
}

func (m *Mock) PlaceOrder(ctx context.Context, req model.PlaceOrderRequest) (*model.Order, error) {
	if m.PlaceOrderFunc != nil {
		return m.PlaceOrderFunc(ctx, req)
	}
	return nil, model.NewInternalError(nil)
}

func (m *Mock) Orders(ctx context.Context) ([]model.Order, error) {
	if m.OrdersFunc != nil {
		return m.OrdersFunc(ctx)
	}
	return []model.Order{}, nil
}

func (m *Mock) Order(ctx context.Context, id int) (*model.Order, error) {
	if m.OrderFunc != nil {
		return m.OrderFunc(ctx, id)
	}
	return nil, model.NewNotFoundError("order")
}

func (m *Mock) SetOrderStatus(ctx context.Context, id int, status model.OrderStatus) (*model.Order, error) {
	if m.SetOrderStatusFunc != nil {
		return m.SetOrderStatusFunc(ctx, id, status)
	}
	return nil, model.NewNotFoundError("order")
}

func (m *Mock) Wishlist(ctx context.Context) ([]model.WishlistItem, error) {
	if m.WishlistFunc != nil {
		return m.WishlistFunc(ctx)
	}
	return []model.WishlistItem{}, nil
}

func (m *Mock) AddToWishlist(ctx context.Context, productID int) error {
	if m.AddToWishlistFunc != nil {
		return m.AddToWishlistFunc(ctx, productID)
	}
	return nil
}

func (m *Mock) RemoveFromWishlist(ctx context.Context, productID int) error {
	if m.RemoveFromWishlistFunc != nil {
		return m.RemoveFromWishlistFunc(ctx, productID)
	}
	return nil
}

func (m *Mock) InWishlist(ctx context.Context, productID int) (bool, error) {
	if m.InWishlistFunc != nil {
		return m.InWishlistFunc(ctx, productID)
	}
	return false, nil
}

func (m *Mock) MoveWishlistToCart(ctx context.Context, productID int) error {
	if m.MoveWishlistToCartFunc != nil {
		return m.MoveWishlistToCartFunc(ctx, productID)
	}
	return nil
}

// === Admin ===

func (m *Mock) CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	if m.CreateProductFunc != nil {
		return m.CreateProductFunc(ctx, in)
	}
	return &model.Product{Name: in.Name, Price: in.Price, Stock: in.Stock}, nil
}

func (m *Mock) UpdateProduct(ctx context.Context, id int, in model.ProductInput) (*model.Product, error) {
	if m.UpdateProductFunc != nil {
		return m.UpdateProductFunc(ctx, id, in)
	}
	return &model.Product{ID: id, Name: in.Name, Price: in.Price, Stock: in.Stock}, nil
}

func (m *Mock) DeleteProduct(ctx context.Context, id int) error {
	if m.DeleteProductFunc != nil {
		return m.DeleteProductFunc(ctx, id)
	}
	return nil
}

func (m *Mock) CreateCategory(ctx context.Context, in model.CategoryInput) (*model.Category, error) {
	if m.CreateCategoryFunc != nil {
		return m.CreateCategoryFunc(ctx, in)
	}
	return &model.Category{Name: in.Name}, nil
}

func (m *Mock) UpdateCategory(ctx context.Context, id int, in model.CategoryInput) (*model.Category, error) {
	if m.UpdateCategoryFunc != nil {
		return m.UpdateCategoryFunc(ctx, id, in)
	}
	return &model.Category{ID: id, Name: in.Name}, nil
}

func (m *Mock) DeleteCategory(ctx context.Context, id int) error {
	if m.DeleteCategoryFunc != nil {
		return m.DeleteCategoryFunc(ctx, id)
	}
	return nil
}

func (m *Mock) CreateCoupon(ctx context.Context, in model.CouponInput) (*model.Coupon, error) {
	if m.CreateCouponFunc != nil {
		return m.CreateCouponFunc(ctx, in)
	}
	return &model.Coupon{Code: in.Code, DiscountType: in.DiscountType, DiscountValue: in.DiscountValue, IsActive: true}, nil
}

func (m *Mock) DeleteCoupon(ctx context.Context, id int) error {
	if m.DeleteCouponFunc != nil {
		return m.DeleteCouponFunc(ctx, id)
	}
	return nil
}

func (m *Mock) OrderStats(ctx context.Context) (*model.OrderStats, error) {
	if m.OrderStatsFunc != nil {
		return m.OrderStatsFunc(ctx)
	}
	return &model.OrderStats{StatusBreakdown: map[model.OrderStatus]int{}}, nil
}
