package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ssqa/storefront/internal/api"
	"github.com/ssqa/storefront/internal/config"
)

var testAPICreds = config.APIConfig{Key: "ck_test", Secret: "cs_test"}

func newRESTHandler(store *testStore) *RESTHandler {
	return NewRESTHandler(store.catalog, store.orders, store.shop.Customers, store.reviews, testAPICreds)
}

// restClient serves the REST API over plain HTTP so the client signs with OAuth
func restClient(t *testing.T, store *testStore) *api.HTTPClient {
	t.Helper()
	server := httptest.NewServer(newRESTHandler(store))
	t.Cleanup(server.Close)

	client, err := api.NewClient(server.URL, &testAPICreds)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client
}

func restRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, RESTPrefix+path, strings.NewReader(body))
	req.SetBasicAuth(testAPICreds.Key, testAPICreds.Secret)
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	return resp
}

func TestRESTHandler_Authentication(t *testing.T) {
	tests := []struct {
		name           string
		auth           func(r *http.Request)
		expectedStatus int
	}{
		{
			name:           "no credentials",
			auth:           func(*http.Request) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong secret",
			auth:           func(r *http.Request) { r.SetBasicAuth(testAPICreds.Key, "nope") },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "forged signature",
			auth: func(r *http.Request) {
				r.URL.RawQuery = "oauth_consumer_key=ck_test&oauth_signature=forged"
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "basic auth",
			auth:           func(r *http.Request) { r.SetBasicAuth(testAPICreds.Key, testAPICreds.Secret) },
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			req := httptest.NewRequest(http.MethodGet, RESTPrefix+"products", nil)
			tt.auth(req)
			w := httptest.NewRecorder()

			newRESTHandler(store).ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedStatus == http.StatusUnauthorized {
				if resp := decodeError(t, w); resp.Code != "woocommerce_rest_cannot_view" || resp.Data.Status != 401 {
					t.Errorf("unexpected error response %+v", resp)
				}
			}
		})
	}
}

func TestRESTHandler_Errors(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
		expectedCode   string
	}{
		{"unknown route", http.MethodGet, "widgets", "", http.StatusNotFound, "rest_no_route"},
		{"unknown product", http.MethodGet, "products/999", "", http.StatusNotFound, "woocommerce_rest_product_invalid_id"},
		{"bad id", http.MethodGet, "products/abc", "", http.StatusBadRequest, "rest_invalid_param"},
		{"per_page too large", http.MethodGet, "products?per_page=101", "", http.StatusBadRequest, "rest_invalid_param"},
		{"invalid JSON", http.MethodPost, "coupons", "{", http.StatusBadRequest, "rest_invalid_json"},
		{"missing coupon code", http.MethodPost, "coupons", `{"discount_type":"percent","amount":"10"}`, http.StatusBadRequest, "rest_invalid_param"},
		{"duplicate coupon", http.MethodPost, "coupons", `{"code":"SSQA100","discount_type":"percent","amount":"100"}`, http.StatusBadRequest, "woocommerce_rest_coupon_code_already_exists"},
		{"trashing a coupon", http.MethodDelete, "coupons/1", "", http.StatusNotImplemented, "woocommerce_rest_trash_not_supported"},
		{"unknown order", http.MethodGet, "orders/5", "", http.StatusNotFound, "woocommerce_rest_shop_order_invalid_id"},
		{"order without lines", http.MethodPost, "orders", `{"customer_id":0,"line_items":[]}`, http.StatusBadRequest, "rest_invalid_param"},
		{"review of unknown product", http.MethodPost, "products/reviews", `{"product_id":999,"reviewer":"Ada","review":"Nice","rating":5}`, http.StatusNotFound, "woocommerce_rest_product_invalid_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			w := httptest.NewRecorder()

			newRESTHandler(store).ServeHTTP(w, restRequest(tt.method, tt.path, tt.body))

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if resp := decodeError(t, w); resp.Code != tt.expectedCode {
				t.Errorf("expected error code %q, got %q", tt.expectedCode, resp.Code)
			}
		})
	}
}

func TestRESTHandler_ListProducts(t *testing.T) {
	store := newTestStore(t)
	w := httptest.NewRecorder()

	newRESTHandler(store).ServeHTTP(w, restRequest(http.MethodGet, "products?per_page=2&page=1", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if got := w.Header().Get("X-WP-Total"); got != "3" {
		t.Errorf("X-WP-Total = %q, want 3", got)
	}
	if got := w.Header().Get("X-WP-TotalPages"); got != "2" {
		t.Errorf("X-WP-TotalPages = %q, want 2", got)
	}
	var products []ProductResource
	if err := json.NewDecoder(w.Body).Decode(&products); err != nil {
		t.Fatal(err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products on the first page, got %d", len(products))
	}
}

func TestRESTHandler_Products(t *testing.T) {
	// GIVEN a client signing its requests
	store := newTestStore(t)
	client := restClient(t, store)

	// WHEN looking up the beanie
	beanie, err := client.GetProductBySlug("beanie")

	// THEN it is returned as the REST API shapes it
	if err != nil {
		t.Fatalf("GetProductBySlug: %v", err)
	}
	if beanie.ID() != 15 {
		t.Errorf("id = %d, want 15", beanie.ID())
	}
	for field, want := range map[string]string{
		"price":         "18.00",
		"regular_price": "20.00",
		"sale_price":    "18.00",
		"sku":           "woo-beanie",
		"description":   "<p>First paragraph.</p>\n<p>Second paragraph.</p>\n",
	} {
		if got := beanie.String(field); got != want {
			t.Errorf("%s = %q, want %q", field, got, want)
		}
	}
	if !strings.HasSuffix(beanie.String("permalink"), "/product/beanie/") {
		t.Errorf("unexpected permalink %q", beanie.String("permalink"))
	}

	if _, err := client.GetProductBySlug("nope"); !errors.Is(err, api.ErrNotFound) {
		t.Errorf("expected ErrNotFound for an unknown slug, got %v", err)
	}

	updated, err := client.UpdateProduct(15, api.Resource{"sale_price": ""})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.String("sale_price") != "" || updated["on_sale"] != false {
		t.Errorf("expected the sale to end, got %v", updated)
	}

	simple, err := client.GetRandomProducts(2, map[string]string{"type": "simple"})
	if err != nil {
		t.Fatalf("GetRandomProducts: %v", err)
	}
	for _, p := range simple {
		if p.String("type") != "simple" {
			t.Errorf("expected simple products, got %q", p.String("type"))
		}
	}
	if _, err := client.GetRandomProducts(2, map[string]string{"type": "variable"}); err == nil {
		t.Error("expected an error asking for more variable products than exist")
	}
}

func TestRESTHandler_Coupons(t *testing.T) {
	store := newTestStore(t)
	client := restClient(t, store)

	code, err := client.CreateCoupon("", 0, false)
	if err != nil {
		t.Fatalf("CreateCoupon: %v", err)
	}
	if len(code) != api.DefaultCouponLength {
		t.Errorf("expected a %d letter code, got %q", api.DefaultCouponLength, code)
	}

	coupons, err := client.GetCouponByCode(code)
	if err != nil || len(coupons) != 1 {
		t.Fatalf("GetCouponByCode: %v %v", coupons, err)
	}
	if coupons[0].String("amount") != "100.00" || coupons[0].String("discount_type") != "percent" {
		t.Errorf("unexpected coupon %v", coupons[0])
	}
	if _, err := store.catalog.CouponByCode(code); err != nil {
		t.Errorf("coupon should be usable in the shop: %v", err)
	}

	if err := client.DeleteCouponByCode(code); err != nil {
		t.Fatalf("DeleteCouponByCode: %v", err)
	}
	if err := client.DeleteCouponByCode(code); !errors.Is(err, api.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}

	_, err = client.CreateCoupon("ssqa100", 0, false)
	if !errors.Is(err, api.ErrUnexpectedStatus) {
		t.Errorf("expected ErrUnexpectedStatus for a duplicate code, got %v", err)
	}
}

func TestRESTHandler_ExpiredCoupon(t *testing.T) {
	store := newTestStore(t)
	client := restClient(t, store)

	code, err := client.CreateCoupon("", 0, true)
	if err != nil {
		t.Fatalf("CreateCoupon: %v", err)
	}

	coupon, err := store.catalog.CouponByCode(code)
	if err != nil {
		t.Fatal(err)
	}
	if coupon.ExpiresAt == nil {
		t.Fatal("expected an expiry date")
	}
}

func TestRESTHandler_CustomersAndOrders(t *testing.T) {
	store := newTestStore(t)
	client := restClient(t, store)

	customer, err := client.CreateCustomer()
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if customer.ID == 0 || customer.Email == "" || customer.Password == "" {
		t.Fatalf("unexpected customer %+v", customer)
	}
	if _, err := store.shop.Customers.Authenticate(customer.Email, customer.Password); err != nil {
		t.Errorf("created customer should sign in: %v", err)
	}

	order, err := client.CreateOrderForCustomer(customer.ID, 0)
	if err != nil {
		t.Fatalf("CreateOrderForCustomer: %v", err)
	}
	if order.String("status") != "completed" {
		t.Errorf("status = %q, want completed", order.String("status"))
	}
	if got, _ := order["customer_id"].(float64); int64(got) != customer.ID {
		t.Errorf("customer_id = %v, want %d", order["customer_id"], customer.ID)
	}

	orders, err := store.orders.ListCustomerOrders(customer.ID)
	if err != nil || len(orders) != 1 {
		t.Errorf("expected one stored order, got %d (%v)", len(orders), err)
	}
}

func TestRESTHandler_Reviews(t *testing.T) {
	store := newTestStore(t)
	client := restClient(t, store)

	created, err := client.CreateProductReview(api.ReviewPayload{
		ProductID:     16,
		Reviewer:      "Grace",
		ReviewerEmail: "grace@example.com",
		Review:        "Holds up my trousers.",
		Rating:        3,
	})
	if err != nil {
		t.Fatalf("CreateProductReview: %v", err)
	}
	if created.String("status") != "approved" {
		t.Errorf("API reviews are approved, got %q", created.String("status"))
	}

	reviews, err := client.GetProductReviews(16)
	if err != nil || len(reviews) != 1 {
		t.Fatalf("GetProductReviews: %v %v", reviews, err)
	}

	deleted, err := client.DeleteProductReview(created.ID())
	if err != nil {
		t.Fatalf("DeleteProductReview: %v", err)
	}
	if deleted["deleted"] != true {
		t.Errorf("unexpected delete response %v", deleted)
	}
	if _, err := client.DeleteProductReview(created.ID()); !errors.Is(err, api.ErrUnexpectedStatus) {
		t.Errorf("expected ErrUnexpectedStatus deleting twice, got %v", err)
	}
}
