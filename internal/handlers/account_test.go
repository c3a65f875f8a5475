package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/ssqa/storefront/internal/models"
)

func TestLoginHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		form           url.Values
		expectedStatus int
		location       string
		signedIn       bool
		checkContent   []string
	}{
		{
			name:           "valid credentials",
			form:           url.Values{"log": {"smoke"}, "pwd": {"smoke-password"}, "wp-submit": {"Log In"}},
			expectedStatus: http.StatusFound,
			location:       "/my-account/",
			signedIn:       true,
		},
		{
			name:           "email as login with redirect",
			form:           url.Values{"log": {"smoke@example.com"}, "pwd": {"smoke-password"}, "redirect_to": {"/checkout/"}},
			expectedStatus: http.StatusFound,
			location:       "/checkout/",
			signedIn:       true,
		},
		{
			name:           "offsite redirect is ignored",
			form:           url.Values{"log": {"smoke"}, "pwd": {"smoke-password"}, "redirect_to": {"//evil.example.com/"}},
			expectedStatus: http.StatusFound,
			location:       "/my-account/",
			signedIn:       true,
		},
		{
			name:           "wrong password",
			form:           url.Values{"log": {"smoke"}, "pwd": {"nope"}},
			expectedStatus: http.StatusOK,
			checkContent: []string{
				`<div id="login_error" class="notice notice-error"><strong>Error:</strong> The username or password you entered for smoke is incorrect.</div>`,
				`value="smoke"`,
			},
		},
		{
			name:           "empty username",
			form:           url.Values{"pwd": {"smoke-password"}},
			expectedStatus: http.StatusOK,
			checkContent:   []string{"The username field is empty."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			browser := newBrowserState()

			w := browser.do(NewLoginHandler(store.shop), formRequest("/wp-login.php", tt.form))

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.location != "" && w.Header().Get("Location") != tt.location {
				t.Errorf("Location = %q, want %q", w.Header().Get("Location"), tt.location)
			}
			if _, ok := browser.cookies[store.shop.Sessions.LoginCookieName()]; ok != tt.signedIn {
				t.Errorf("signed in = %v, want %v", ok, tt.signedIn)
			}
			assertContains(t, w.Body.String(), tt.checkContent...)
		})
	}
}

func TestLoginHandler_Logout(t *testing.T) {
	store := newTestStore(t)
	browser := newBrowserState()
	handler := NewLoginHandler(store.shop)
	browser.do(handler, formRequest("/wp-login.php", url.Values{"log": {"smoke"}, "pwd": {"smoke-password"}}))

	w := browser.do(handler, httptest.NewRequest(http.MethodGet, "/wp-login.php?action=logout", nil))

	if w.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", w.Code)
	}
	if len(browser.cookies) != 0 {
		t.Errorf("expected all auth cookies cleared, got %v", browser.cookies)
	}

	w = browser.do(handler, httptest.NewRequest(http.MethodPut, "/wp-login.php", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

// signedIn returns a browser holding the smoke customer's cookies
func signedIn(t *testing.T, store *testStore) *browserState {
	t.Helper()
	browser := newBrowserState()
	w := browser.do(NewLoginHandler(store.shop), formRequest("/wp-login.php", url.Values{"log": {"smoke"}, "pwd": {"smoke-password"}}))
	if w.Code != http.StatusFound {
		t.Fatalf("sign in: expected status 302, got %d", w.Code)
	}
	return browser
}

func accountRequest(method, section string) *http.Request {
	target := "/my-account/"
	if section != "" {
		target += section + "/"
	}
	req := httptest.NewRequest(method, target, nil)
	req.SetPathValue("section", section)
	return req
}

func TestAccountHandler_SignedOut(t *testing.T) {
	store := newTestStore(t)
	w := httptest.NewRecorder()

	NewAccountHandler(store.shop, store.orders).ServeHTTP(w, accountRequest(http.MethodGet, "orders"))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	assertContains(t, w.Body.String(),
		`<form class="woocommerce-form woocommerce-form-login login" method="post" action="/my-account/">`,
		`name="login" value="Log in"`,
	)
}

func TestAccountHandler_LoginForm(t *testing.T) {
	tests := []struct {
		name           string
		password       string
		expectedStatus int
		checkContent   []string
	}{
		{
			name:           "valid credentials",
			password:       "smoke-password",
			expectedStatus: http.StatusFound,
		},
		{
			name:           "wrong password",
			password:       "nope",
			expectedStatus: http.StatusOK,
			checkContent: []string{
				"<li>Error: The username or password you entered for smoke is incorrect.</li>",
				`id="username" autocomplete="username" value="smoke"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			req := formRequest("/my-account/", url.Values{"username": {"smoke"}, "password": {tt.password}, "login": {"Log in"}})
			w := httptest.NewRecorder()

			NewAccountHandler(store.shop, store.orders).ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			assertContains(t, w.Body.String(), tt.checkContent...)
		})
	}
}

func TestAccountHandler_Sections(t *testing.T) {
	tests := []struct {
		name           string
		section        string
		expectedStatus int
		checkContent   []string
	}{
		{
			name:           "dashboard",
			section:        "",
			expectedStatus: http.StatusOK,
			checkContent: []string{
				"Hello <strong>Smoke</strong>",
				`woocommerce-MyAccount-navigation-link--dashboard is-active`,
				`<a href="/my-account/orders/">Orders</a>`,
				`<a href="/my-account/customer-logout/">Log out</a>`,
			},
		},
		{
			name:           "no orders yet",
			section:        "orders",
			expectedStatus: http.StatusOK,
			checkContent:   []string{"No order has been made yet."},
		},
		{
			name:           "downloads",
			section:        "downloads",
			expectedStatus: http.StatusOK,
			checkContent:   []string{"No downloads available yet."},
		},
		{
			name:           "account details",
			section:        "edit-account",
			expectedStatus: http.StatusOK,
			checkContent: []string{
				`<form class="woocommerce-EditAccountForm edit-account"`,
				`value="smoke@example.com"`,
			},
		},
		{
			name:           "unknown section",
			section:        "wishlist",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			browser := signedIn(t, store)

			w := browser.do(NewAccountHandler(store.shop, store.orders), accountRequest(http.MethodGet, tt.section))

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			assertContains(t, w.Body.String(), tt.checkContent...)
		})
	}
}

func TestAccountHandler_Orders(t *testing.T) {
	// GIVEN a customer with a completed order
	store := newTestStore(t)
	customer, err := store.catalog.CustomerByLogin("smoke")
	if err != nil {
		t.Fatal(err)
	}
	order, err := models.NewOrder(customer.ID, models.Billing{Email: customer.Email},
		[]models.OrderItem{{ProductID: 15, Name: "Beanie", Quantity: 1, Total: 1800}}, 1800)
	if err != nil {
		t.Fatal(err)
	}
	order.ID = 77
	order.Status = models.OrderStatusCompleted
	store.orders.ListCustomerOrdersFunc = func(id int64) ([]*models.Order, error) {
		if id != customer.ID {
			return nil, fmt.Errorf("unexpected customer %d", id)
		}
		return []*models.Order{order}, nil
	}
	browser := signedIn(t, store)

	// WHEN
	w := browser.do(NewAccountHandler(store.shop, store.orders), accountRequest(http.MethodGet, "orders"))

	// THEN
	assertContains(t, w.Body.String(),
		`<tr class="woocommerce-orders-table__row woocommerce-orders-table__row--status-completed order">`,
		`<a href="/checkout/order-received/77/">#77</a>`,
		`<td class="woocommerce-orders-table__cell woocommerce-orders-table__cell-order-status">Completed</td>`,
		`<td class="woocommerce-orders-table__cell woocommerce-orders-table__cell-order-total">$18.00 for 1 item</td>`,
	)
}

func TestAccountHandler_OrdersUnavailable(t *testing.T) {
	store := newTestStore(t)
	store.orders.ListCustomerOrdersFunc = func(int64) ([]*models.Order, error) {
		return nil, errors.New("connection refused")
	}
	browser := signedIn(t, store)

	w := browser.do(NewAccountHandler(store.shop, store.orders), accountRequest(http.MethodGet, "orders"))

	assertContains(t, w.Body.String(), "<li>Your orders could not be loaded.</li>")
}

func TestAccountHandler_CustomerLogout(t *testing.T) {
	store := newTestStore(t)
	browser := signedIn(t, store)
	handler := NewAccountHandler(store.shop, store.orders)

	w := browser.do(handler, accountRequest(http.MethodGet, "customer-logout"))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/my-account/" {
		t.Fatalf("expected a redirect to /my-account/, got %d %q", w.Code, w.Header().Get("Location"))
	}

	w = browser.do(handler, accountRequest(http.MethodGet, ""))
	assertContains(t, w.Body.String(), "woocommerce-form-login")
}
