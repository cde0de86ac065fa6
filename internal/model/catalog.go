package model

// === Catalog ===

// Product is a storefront product as returned by /products endpoints.
type Product struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	Price           Money    `json:"price"`
	ComparePrice    *Money   `json:"compare_price,omitempty"` // Original price when on sale
	DiscountPercent int      `json:"discount_percent,omitempty"`
	Stock           int      `json:"stock"`
	ImageURL        string   `json:"image_url,omitempty"`
	Images          []string `json:"images,omitempty"`
	Brand           string   `json:"brand,omitempty"`
	SKU             string   `json:"sku,omitempty"`
	IsFeatured      bool     `json:"is_featured"`
	IsActive        bool     `json:"is_active"`
	CategoryID      *int     `json:"category_id,omitempty"`
	Category        string   `json:"category,omitempty"` // Category name
	CreatedAt       string   `json:"created_at,omitempty"`
	IsAvailable     bool     `json:"is_available"`
	StockStatus     string   `json:"stock_status,omitempty"` // "in_stock", "low_stock", "out_of_stock"
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products    []Product `json:"products"`
	Total       int       `json:"total"`
	Pages       int       `json:"pages"`
	CurrentPage int       `json:"current_page"`
}

// ProductInput is the admin create/update payload.
type ProductInput struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Price        Money    `json:"price"`
	ComparePrice *Money   `json:"compare_price,omitempty"`
	Stock        int      `json:"stock"`
	ImageURL     string   `json:"image_url,omitempty"`
	Images       []string `json:"images,omitempty"`
	Brand        string   `json:"brand,omitempty"`
	SKU          string   `json:"sku,omitempty"`
	IsFeatured   bool     `json:"is_featured"`
	CategoryID   *int     `json:"category_id,omitempty"`
}

// Category is a product category. Subcategories are only present on
// single-category responses.
type Category struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Description   string     `json:"description,omitempty"`
	ImageURL      string     `json:"image_url,omitempty"`
	ParentID      *int       `json:"parent_id,omitempty"`
	ProductCount  int        `json:"product_count"`
	Subcategories []Category `json:"subcategories,omitempty"`
}

// CategoryInput is the admin create/update payload for categories.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	ParentID    *int   `json:"parent_id,omitempty"`
}

// Review is a customer product review.
type Review struct {
	ID        int    `json:"id"`
	UserID    int    `json:"user_id"`
	ProductID int    `json:"product_id"`
	Rating    int    `json:"rating"`
	Title     string `json:"title,omitempty"`
	Comment   string `json:"comment,omitempty"`
	UserName  string `json:"user_name,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// ReviewPage is a page of reviews with rating statistics for one product.
type ReviewPage struct {
	Reviews            []Review       `json:"reviews"`
	Total              int            `json:"total"`
	Pages              int            `json:"pages"`
	CurrentPage        int            `json:"current_page"`
	AvgRating          float64        `json:"avg_rating"`
	TotalReviews       int            `json:"total_reviews"`
	RatingDistribution map[string]int `json:"rating_distribution,omitempty"` // keyed "1".."5"
}

// ReviewInput is the create/update payload for reviews.
type ReviewInput struct {
	ProductID int    `json:"product_id,omitempty"`
	Rating    int    `json:"rating"`
	Title     string `json:"title,omitempty"`
	Comment   string `json:"comment,omitempty"`
}
