// Package catalog implements product browsing: the filtered and paginated
// listing, the home page and the product detail page.
package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"storefront/internal/model"
)

// PerPage is the listing page size.
const PerPage = 12

// MaxWindow is the most page numbers a pager shows.
const MaxWindow = 7

// Sort is a listing sort key.
type Sort string

const (
	SortNewest    Sort = "newest"
	SortOldest    Sort = "oldest"
	SortPriceLow  Sort = "price_low"
	SortPriceHigh Sort = "price_high"
	SortNameAZ    Sort = "name_az"
	SortNameZA    Sort = "name_za"
)

// Sorts lists the keys in picker order.
var Sorts = []Sort{SortNewest, SortOldest, SortPriceLow, SortPriceHigh, SortNameAZ, SortNameZA}

type sortSpec struct {
	by, order string
	server    string // The API's own "sort" value; empty when it has none
}

var sortTable = map[Sort]sortSpec{
	SortNewest:    {"created_at", "desc", "newest"},
	SortOldest:    {"created_at", "asc", ""},
	SortPriceLow:  {"price", "asc", "price_low"},
	SortPriceHigh: {"price", "desc", "price_high"},
	SortNameAZ:    {"name", "asc", "name"},
	SortNameZA:    {"name", "desc", ""},
}

// Normalize returns s, or SortNewest for unknown keys.
func (s Sort) Normalize() Sort {
	if _, ok := sortTable[s]; ok {
		return s
	}
	return SortNewest
}

// Label is the human-readable name shown in the sort picker.
func (s Sort) Label() string {
	switch s.Normalize() {
	case SortOldest:
		return "Oldest First"
	case SortPriceLow:
		return "Price: Low to High"
	case SortPriceHigh:
		return "Price: High to Low"
	case SortNameAZ:
		return "Name: A-Z"
	case SortNameZA:
		return "Name: Z-A"
	}
	return "Newest First"
}

// Filter is the listing filter. Zero values mean "not set".
type Filter struct {
	Search     string      `json:"search,omitempty"`
	CategoryID int         `json:"category_id,omitempty"`
	Brand      string      `json:"brand,omitempty"`
	Sort       Sort        `json:"sort,omitempty"`
	MinPrice   model.Money `json:"min_price,omitempty"`
	MaxPrice   model.Money `json:"max_price,omitempty"`
	Featured   bool        `json:"featured,omitempty"`
}

// Query builds the GET /products parameters for page of f. The sort is
// sent both as sort_by/sort_order and, where the API has an equivalent,
// as its own "sort" key.
func Query(f Filter, page int) url.Values {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(PerPage))
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}
	if f.CategoryID > 0 {
		q.Set("category_id", strconv.Itoa(f.CategoryID))
	}
	if b := strings.TrimSpace(f.Brand); b != "" {
		q.Set("brand", b)
	}
	if f.MinPrice > 0 {
		q.Set("min_price", f.MinPrice.String())
	}
	if f.MaxPrice > 0 {
		q.Set("max_price", f.MaxPrice.String())
	}
	if f.Featured {
		q.Set("featured", "true")
	}

	sorting := sortTable[f.Sort.Normalize()]
	q.Set("sort_by", sorting.by)
	q.Set("sort_order", sorting.order)
	if sorting.server != "" {
		q.Set("sort", sorting.server)
	}
	return q
}

// ShareValues encodes f as shareable URL parameters. Unset fields and the
// default sort are omitted.
func ShareValues(f Filter) url.Values {
	v := url.Values{}
	if s := strings.TrimSpace(f.Search); s != "" {
		v.Set("search", s)
	}
	if f.CategoryID > 0 {
		v.Set("category", strconv.Itoa(f.CategoryID))
	}
	if b := strings.TrimSpace(f.Brand); b != "" {
		v.Set("brand", b)
	}
	if s := f.Sort.Normalize(); s != SortNewest {
		v.Set("sort", string(s))
	}
	if f.MinPrice > 0 {
		v.Set("min_price", f.MinPrice.String())
	}
	if f.MaxPrice > 0 {
		v.Set("max_price", f.MaxPrice.String())
	}
	if f.Featured {
		v.Set("featured", "1")
	}
	return v
}

// FilterFromShareValues is the inverse of ShareValues. Malformed numbers
// are ignored.
func FilterFromShareValues(v url.Values) Filter {
	f := Filter{
		Search: strings.TrimSpace(v.Get("search")),
		Brand:  strings.TrimSpace(v.Get("brand")),
		Sort:   Sort(v.Get("sort")).Normalize(),
	}
	if id, err := strconv.Atoi(v.Get("category")); err == nil && id > 0 {
		f.CategoryID = id
	}
	if m := model.Money(model.ParseCents(v.Get("min_price"))); m > 0 {
		f.MinPrice = m
	}
	if m := model.Money(model.ParseCents(v.Get("max_price"))); m > 0 {
		f.MaxPrice = m
	}
	switch strings.ToLower(v.Get("featured")) {
	case "1", "true", "yes":
		f.Featured = true
	}
	return f
}

// PageWindow returns the page numbers a pager shows around current: every
// page when there are at most MaxWindow, otherwise a MaxWindow-wide window
// pinned to the first or last pages near the edges.
func PageWindow(current, total int) []int {
	if total < 1 {
		return []int{}
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	var start int
	switch {
	case total <= MaxWindow:
		start = 1
	case current <= 4:
		start = 1
	case current >= total-3:
		start = total - MaxWindow + 1
	default:
		start = current - 3
	}
	end := min(start+MaxWindow-1, total)

	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}
