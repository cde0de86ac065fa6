package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"storefront/internal/account"
	"storefront/internal/backend"
	"storefront/internal/checkout"
	"storefront/internal/metrics"
	"storefront/internal/model"
)

// cartStore is an in-memory storefront cart behind a backend.Mock.
type cartStore struct {
	mu     sync.Mutex
	qty    map[int]int
	prices map[int]model.Money
	orders []model.PlaceOrderRequest
}

func newCartStore() *cartStore {
	return &cartStore{
		qty:    map[int]int{},
		prices: map[int]model.Money{1: 2000, 2: 5000},
	}
}

func (s *cartStore) cart() *model.Cart {
	ids := make([]int, 0, len(s.qty))
	for id := range s.qty {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	c := &model.Cart{Lines: []model.CartLine{}}
	for i, id := range ids {
		line := model.CartLine{ID: i + 1, ProductID: id, Quantity: s.qty[id], Product: &model.Product{ID: id, Price: s.prices[id]}}
		c.Lines = append(c.Lines, line)
		c.Subtotal += line.LineTotal()
		c.ItemCount += line.Quantity
	}
	return c
}

func (s *cartStore) mock() *backend.Mock {
	return &backend.Mock{
		CartFunc: func(ctx context.Context) (*model.Cart, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			return s.cart(), nil
		},
		AddToCartFunc: func(ctx context.Context, productID, quantity int) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.prices[productID]; !ok {
				return model.NewServerError(404, "Product not found")
			}
			s.qty[productID] += quantity
			return nil
		},
		UpdateCartLineFunc: func(ctx context.Context, productID, quantity int) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.qty[productID] = quantity
			return nil
		},
		RemoveCartLineFunc: func(ctx context.Context, productID int) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.qty, productID)
			return nil
		},
		ValidateCouponFunc: func(ctx context.Context, code string, total model.Money) (*model.CouponValidation, error) {
			if code != "WELCOME10" {
				return nil, model.NewServerError(404, "Invalid coupon code")
			}
			d := model.Money(int64(total) / 10)
			return &model.CouponValidation{Discount: d, FinalTotal: total - d, Coupon: model.Coupon{Code: code}}, nil
		},
		AddressesFunc: func(ctx context.Context) ([]model.Address, error) {
			return []model.Address{{ID: 7, FullName: "Asha", IsDefault: true}}, nil
		},
		PlaceOrderFunc: func(ctx context.Context, req model.PlaceOrderRequest) (*model.Order, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.orders = append(s.orders, req)
			total := s.cart().Subtotal
			s.qty = map[int]int{}
			return &model.Order{ID: 99, TotalPrice: total, Status: model.OrderPlaced, PaymentMethod: req.PaymentMethod}, nil
		},
		OrdersFunc: func(ctx context.Context) ([]model.Order, error) {
			return []model.Order{{ID: 99, Status: model.OrderPlaced}}, nil
		},
	}
}

func testHandler(m *backend.Mock) (*Handler, *http.ServeMux) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	co := checkout.New(m, checkout.Options{Logger: logger})
	h := New(Deps{
		Checkout: co,
		Catalog:  m,
		Orders:   account.NewOrders(m, account.Options{Logger: logger}),
		Metrics:  metrics.New(),
		Logger:   logger,
	})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return h, mux
}

// cartBody mirrors cartResponse with only the fields tests read.
type cartBody struct {
	Cart struct {
		Lines []struct {
			ProductID int `json:"product_id"`
			Quantity  int `json:"quantity"`
		} `json:"lines"`
		Subtotal   float64 `json:"subtotal"`
		Discount   float64 `json:"discount"`
		FinalTotal float64 `json:"final_total"`
		Coupon     struct {
			State string `json:"state"`
		} `json:"coupon"`
		SelectedAddressID *int   `json:"selected_address_id"`
		PaymentMethod     string `json:"payment_method"`
	} `json:"cart"`
	Order *struct {
		ID int `json:"id"`
	} `json:"order"`
	Messages []struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	} `json:"messages"`
	Error *errorBody `json:"error"`
}

func do(t *testing.T, mux *http.ServeMux, method, path string, body any) (*httptest.ResponseRecorder, cartBody) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	var resp cartBody
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func messages(b cartBody) []string {
	out := []string{}
	for _, m := range b.Messages {
		out = append(out, m.Content)
	}
	return out
}

func TestHandleHealth(t *testing.T) {
	_, mux := testHandler(&backend.Mock{})

	for _, path := range []string{"/health", "/healthz"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want %d", path, w.Code, http.StatusOK)
		}
		var resp healthResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if resp.Status != "ok" {
			t.Errorf("%s status = %s, want ok", path, resp.Status)
		}
	}
}

func TestHandleMetrics(t *testing.T) {
	_, mux := testHandler(&backend.Mock{})
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestCartFlow(t *testing.T) {
	store := newCartStore()
	_, mux := testHandler(store.mock())

	w, resp := do(t, mux, "POST", "/cart/lines", map[string]int{"product_id": 2, "quantity": 2})
	if w.Code != http.StatusOK {
		t.Fatalf("add status = %d, body %s", w.Code, w.Body.String())
	}
	if resp.Cart.Subtotal != 100 {
		t.Errorf("subtotal = %v, want 100", resp.Cart.Subtotal)
	}
	if diff := cmp.Diff([]string{"Added to cart!"}, messages(resp)); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}

	w, resp = do(t, mux, "POST", "/cart/coupon", map[string]string{"code": "welcome10"})
	if w.Code != http.StatusOK {
		t.Fatalf("coupon status = %d, body %s", w.Code, w.Body.String())
	}
	if resp.Cart.Coupon.State != string(checkout.SlotApplied) {
		t.Errorf("coupon state = %q, want applied", resp.Cart.Coupon.State)
	}
	if resp.Cart.Discount != 10 || resp.Cart.FinalTotal != 90 {
		t.Errorf("discount/final = %v/%v, want 10/90", resp.Cart.Discount, resp.Cart.FinalTotal)
	}

	w, resp = do(t, mux, "PUT", "/cart/lines/2", map[string]int{"quantity": 3})
	if w.Code != http.StatusOK {
		t.Fatalf("set status = %d, body %s", w.Code, w.Body.String())
	}
	if resp.Cart.Subtotal != 150 || resp.Cart.Discount != 15 || resp.Cart.FinalTotal != 135 {
		t.Errorf("after revalidation subtotal/discount/final = %v/%v/%v, want 150/15/135",
			resp.Cart.Subtotal, resp.Cart.Discount, resp.Cart.FinalTotal)
	}

	w, resp = do(t, mux, "DELETE", "/cart/coupon", nil)
	if w.Code != http.StatusOK || resp.Cart.Coupon.State != string(checkout.SlotEmpty) {
		t.Errorf("remove coupon: status %d, state %q", w.Code, resp.Cart.Coupon.State)
	}

	w, resp = do(t, mux, "DELETE", "/cart/lines/2", nil)
	if w.Code != http.StatusOK || len(resp.Cart.Lines) != 0 {
		t.Errorf("remove line: status %d, lines %v", w.Code, resp.Cart.Lines)
	}
}

func TestSyncLines(t *testing.T) {
	store := newCartStore()
	store.qty[1] = 1
	_, mux := testHandler(store.mock())

	body := map[string]any{"lines": []map[string]int{{"product_id": 2, "quantity": 1}}}
	w, resp := do(t, mux, "PUT", "/cart/lines", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if len(resp.Cart.Lines) != 1 || resp.Cart.Lines[0].ProductID != 2 {
		t.Errorf("lines = %+v, want only product 2", resp.Cart.Lines)
	}
}

func TestCartErrors(t *testing.T) {
	store := newCartStore()
	store.qty[1] = 1
	_, mux := testHandler(store.mock())

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"quantity below one", "PUT", "/cart/lines/1", map[string]int{"quantity": 0}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad product id", "PUT", "/cart/lines/abc", map[string]int{"quantity": 1}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"empty coupon", "POST", "/cart/coupon", map[string]string{"code": "  "}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown coupon", "POST", "/cart/coupon", map[string]string{"code": "NOPE"}, http.StatusNotFound, "NOT_FOUND"},
		{"bad payment", "PUT", "/checkout/payment", map[string]string{"payment_method": "CASH"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown product", "POST", "/cart/lines", map[string]int{"product_id": 42}, http.StatusNotFound, "NOT_FOUND"},
		{"missing product", "POST", "/cart/lines", map[string]int{"quantity": 1}, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := do(t, mux, tt.method, tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d\nBody: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestErrorIncludesNotices(t *testing.T) {
	store := newCartStore()
	_, mux := testHandler(store.mock())

	_, resp := do(t, mux, "POST", "/cart/coupon", map[string]string{"code": "NOPE"})
	if diff := cmp.Diff([]string{"Invalid coupon code"}, messages(resp)); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestInvalidJSON(t *testing.T) {
	_, mux := testHandler(newCartStore().mock())
	req := httptest.NewRequest("POST", "/cart/lines", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCheckoutFlow(t *testing.T) {
	store := newCartStore()
	store.qty[1] = 2
	m := store.mock()
	h, mux := testHandler(m)
	if err := h.checkout.Open(context.Background()); err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	_, resp := do(t, mux, "GET", "/cart", nil)
	if resp.Cart.SelectedAddressID == nil || *resp.Cart.SelectedAddressID != 7 {
		t.Fatalf("selected address = %v, want default 7", resp.Cart.SelectedAddressID)
	}

	w, resp := do(t, mux, "PUT", "/checkout/address", map[string]any{"address_id": nil})
	if w.Code != http.StatusOK || resp.Cart.SelectedAddressID != nil {
		t.Fatalf("clear address: status %d, selected %v", w.Code, resp.Cart.SelectedAddressID)
	}
	w, _ = do(t, mux, "PUT", "/checkout/address", map[string]int{"address_id": 8})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown address status = %d, want 404", w.Code)
	}
	do(t, mux, "PUT", "/checkout/address", map[string]int{"address_id": 7})

	w, resp = do(t, mux, "PUT", "/checkout/payment", map[string]string{"payment_method": "upi"})
	if w.Code != http.StatusOK || resp.Cart.PaymentMethod != "UPI" {
		t.Fatalf("payment: status %d, method %q", w.Code, resp.Cart.PaymentMethod)
	}

	w, resp = do(t, mux, "POST", "/checkout/place", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("place status = %d, body %s", w.Code, w.Body.String())
	}
	if resp.Order == nil || resp.Order.ID != 99 {
		t.Errorf("order = %+v, want id 99", resp.Order)
	}
	if len(resp.Cart.Lines) != 0 {
		t.Errorf("cart not cleared: %+v", resp.Cart.Lines)
	}
	if diff := cmp.Diff([]string{"Order placed successfully!"}, messages(resp)); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}

	addressID := 7
	want := []model.PlaceOrderRequest{{PaymentMethod: model.PaymentUPI, AddressID: &addressID}}
	if diff := cmp.Diff(want, store.orders); diff != "" {
		t.Errorf("placed orders mismatch (-want +got):\n%s", diff)
	}
}

func TestListProducts(t *testing.T) {
	var got url.Values
	m := &backend.Mock{ProductsFunc: func(ctx context.Context, q url.Values) (*model.ProductPage, error) {
		got = q
		return &model.ProductPage{Products: []model.Product{{ID: 1, Name: "Lamp"}}, Total: 30, Pages: 3, CurrentPage: 2}, nil
	}}
	_, mux := testHandler(m)

	req := httptest.NewRequest("GET", "/products?search=lamp&sort=price_low&page=2&category=4", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body %s", w.Code, w.Body.String())
	}

	for key, want := range map[string]string{"search": "lamp", "sort": "price_low", "page": "2", "category_id": "4", "per_page": "12"} {
		if got.Get(key) != want {
			t.Errorf("query %s = %q, want %q", key, got.Get(key), want)
		}
	}

	var resp struct {
		Page   int   `json:"page"`
		Pages  int   `json:"pages"`
		Window []int `json:"window"`
	}
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Page != 2 || resp.Pages != 3 {
		t.Errorf("page/pages = %d/%d, want 2/3", resp.Page, resp.Pages)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, resp.Window); diff != "" {
		t.Errorf("window mismatch (-want +got):\n%s", diff)
	}
}

func TestGetProduct(t *testing.T) {
	m := &backend.Mock{ProductFunc: func(ctx context.Context, id int) (*model.Product, error) {
		if id != 5 {
			return nil, model.NewServerError(404, "Product not found")
		}
		return &model.Product{ID: 5, Name: "Lamp"}, nil
	}}
	_, mux := testHandler(m)

	req := httptest.NewRequest("GET", "/products/5", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest("GET", "/products/6", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing product status = %d, want 404", w.Code)
	}
}

func TestListOrders(t *testing.T) {
	_, mux := testHandler(newCartStore().mock())
	req := httptest.NewRequest("GET", "/orders", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d", w.Code)
	}
	var resp ordersResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if len(resp.Orders) != 1 || resp.Orders[0].ID != 99 {
		t.Errorf("orders = %+v", resp.Orders)
	}
}

func TestToAPIError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{checkout.ErrQuantityBelowOne, http.StatusBadRequest},
		{checkout.ErrEmptyCouponCode, http.StatusBadRequest},
		{checkout.ErrInvalidPaymentMethod, http.StatusBadRequest},
		{checkout.ErrLineNotFound, http.StatusNotFound},
		{checkout.ErrCouponPending, http.StatusConflict},
		{checkout.ErrOrderInFlight, http.StatusConflict},
		{account.ErrNotCancellable, http.StatusConflict},
		{model.NewServerError(422, "Out of stock"), 422},
	}
	for _, tt := range tests {
		got := toAPIError(tt.err)
		if got == nil || got.StatusCode != tt.wantStatus {
			t.Errorf("toAPIError(%v) = %+v, want status %d", tt.err, got, tt.wantStatus)
		}
	}
	if toAPIError(io.EOF) != nil {
		t.Error("unexpected errors should map to nil")
	}
}
