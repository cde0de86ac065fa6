package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCanonicalPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/cart", "/cart"},
		{"/cart/lines/42", "/cart/lines/:id"},
		{"/products/7/", "/products/:id"},
		{"/orders/12/status", "/orders/:id/status"},
	}
	for _, tt := range tests {
		if got := CanonicalPath(tt.in); got != tt.want {
			t.Errorf("CanonicalPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveUpstream("GET", "/cart", 200, 15*time.Millisecond)
	m.ObserveUpstream("POST", "/coupons/validate", 0, time.Millisecond)
	m.ObserveCoupon("apply", "applied")

	h := m.InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/cart/lines/3", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		`storefront_api_requests_total{method="GET",route="/cart",status="200"} 1`,
		`storefront_api_requests_total{method="POST",route="/coupons/validate",status="error"} 1`,
		`storefront_coupon_validations_total{result="applied",trigger="apply"} 1`,
		`storefront_http_requests_total{method="POST",path="/cart/lines/:id",status="201"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveUpstream("GET", "/cart", 200, time.Millisecond)
	m.ObserveCoupon("apply", "rejected")
}
