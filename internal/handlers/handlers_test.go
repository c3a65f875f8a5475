package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ssqa/storefront/internal/models"
	"github.com/ssqa/storefront/internal/repository"
	"github.com/ssqa/storefront/internal/services"
)

const templatesDir = "../../templates"

const testCatalogYAML = `
products:
  - id: 15
    slug: beanie
    name: Beanie
    type: simple
    sku: woo-beanie
    category: Accessories
    short_description: This is a simple product.
    description: "First paragraph.\n\nSecond paragraph."
    regular_price: 2000
    sale_price: 1800
    image: /wp-content/uploads/beanie.jpg
    attributes:
      Color: Red
    related: [belt]
  - id: 16
    slug: belt
    name: Belt
    type: simple
    category: Accessories
    regular_price: 6500
    image: /wp-content/uploads/belt.jpg
  - id: 19
    slug: hoodie
    name: Hoodie
    type: variable
    category: Hoodies
    regular_price: 4500
    image: /wp-content/uploads/hoodie.jpg
    gallery: [/wp-content/uploads/hoodie-blue.jpg]
    variations:
      - attribute: attribute_pa_color
        label: Color
        options:
          - {value: blue, text: Blue}
          - {value: red, text: Red}
coupons:
  - code: ssqa100
    discount_type: percent
    amount: 100
  - code: expired10
    discount_type: percent
    amount: 10
    expires_at: 2020-01-01T00:00:00Z
customers:
  - email: smoke@example.com
    username: smoke
    password: smoke-password
    first_name: Smoke
reviews:
  - product_id: 15
    reviewer: Ada
    reviewer_email: ada@example.com
    review: Warm and soft.
    rating: 5
`

// MockOrderService is a mock implementation of OrderService for testing.
// Without a Func set, orders are kept in memory.
type MockOrderService struct {
	PlaceOrderFunc         func(*models.Cart, int64, models.Billing) (*models.Order, error)
	ListCustomerOrdersFunc func(int64) ([]*models.Order, error)

	mu     sync.Mutex
	orders map[int64]*models.Order
	nextID int64
}

func (m *MockOrderService) store(order *models.Order) *models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.orders == nil {
		m.orders = map[int64]*models.Order{}
		m.nextID = 100
	}
	m.nextID++
	order.ID = m.nextID
	m.orders[order.ID] = order
	return order
}

func (m *MockOrderService) PlaceOrder(cart *models.Cart, customerID int64, billing models.Billing) (*models.Order, error) {
	if m.PlaceOrderFunc != nil {
		return m.PlaceOrderFunc(cart, customerID, billing)
	}
	if cart.IsEmpty() {
		return nil, models.ErrEmptyCart
	}
	var items []models.OrderItem
	for _, line := range cart.Items {
		items = append(items, models.OrderItem{ProductID: line.ProductID, Name: line.Name, Quantity: line.Quantity, Total: line.LineTotal()})
	}
	order, err := models.NewOrder(customerID, billing, items, cart.Total())
	if err != nil {
		return nil, err
	}
	return m.store(order), nil
}

func (m *MockOrderService) CreateOrder(customerID int64, billing models.Billing, lines []services.OrderLine, status models.OrderStatus) (*models.Order, error) {
	var items []models.OrderItem
	for _, line := range lines {
		items = append(items, models.OrderItem{ProductID: line.ProductID, Name: "Beanie", Quantity: line.Quantity, Total: 1800})
	}
	order, err := models.NewOrder(customerID, billing, items, 1800)
	if err != nil {
		return nil, err
	}
	if status != "" {
		if err := order.TransitionTo(status); err != nil {
			return nil, err
		}
	}
	return m.store(order), nil
}

func (m *MockOrderService) GetOrder(id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *MockOrderService) ListCustomerOrders(customerID int64) ([]*models.Order, error) {
	if m.ListCustomerOrdersFunc != nil {
		return m.ListCustomerOrdersFunc(customerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Order
	for _, o := range m.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MockOrderService) UpdateOrderStatus(id int64, status models.OrderStatus) (*models.Order, error) {
	order, err := m.GetOrder(id)
	if err != nil {
		return nil, err
	}
	if err := order.TransitionTo(status); err != nil {
		return nil, err
	}
	return order, nil
}

func (m *MockOrderService) SeedOrders(map[int64][]string) error {
	return nil
}

// testStore is a shop over the test catalog
type testStore struct {
	shop    *Shop
	catalog *repository.Catalog
	reviews *services.ReviewServiceImpl
	orders  *MockOrderService
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()

	catalog, err := repository.ParseCatalog([]byte(testCatalogYAML))
	if err != nil {
		t.Fatalf("Failed to parse catalog: %v", err)
	}
	renderer, err := NewRenderer(templatesDir)
	if err != nil {
		t.Fatalf("Failed to parse templates: %v", err)
	}
	return &testStore{
		shop: &Shop{
			Renderer:  renderer,
			Sessions:  NewSessions([]byte("test-cookie-key")),
			Catalog:   catalog,
			Carts:     services.NewCartService(catalog),
			Customers: services.NewCustomerService(catalog),
		},
		catalog: catalog,
		reviews: services.NewReviewService(catalog, time.Minute),
		orders:  &MockOrderService{},
	}
}

// browserState carries cookies from one response to the next request
type browserState struct {
	cookies map[string]*http.Cookie
}

func newBrowserState() *browserState {
	return &browserState{cookies: map[string]*http.Cookie{}}
}

func (b *browserState) keep(rec *httptest.ResponseRecorder) {
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
}

func (b *browserState) do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	b.keep(rec)
	return rec
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func assertContains(t *testing.T, body string, want ...string) {
	t.Helper()
	for _, content := range want {
		if !strings.Contains(body, content) {
			t.Errorf("expected response to contain %q", content)
		}
	}
}
