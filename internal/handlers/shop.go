package handlers

import (
	"fmt"
	"net/http"

	"github.com/ssqa/storefront/internal/models"
	"github.com/ssqa/storefront/internal/services"
)

// ProductCatalog is the product lookup the pages need
type ProductCatalog interface {
	Products() []*models.Product
	Product(id int64) (*models.Product, error)
	ProductBySlug(slug string) (*models.Product, error)
}

// Shop holds what every storefront page needs
type Shop struct {
	Renderer  *Renderer
	Sessions  *Sessions
	Catalog   ProductCatalog
	Carts     services.CartService
	Customers services.CustomerService
}

// Page is the data the layout renders around every page
type Page struct {
	Title      string
	BodyClass  string
	CartCount  string
	CartTotal  string
	Customer   *models.Customer
	Breadcrumb []string
	Errors     []string
}

func itemCount(n int) string {
	if n == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", n)
}

// page builds the layout data for r without creating a cart
func (s *Shop) page(r *http.Request, title, bodyClass string) Page {
	p := Page{
		Title:     title,
		BodyClass: bodyClass,
		CartCount: itemCount(0),
		CartTotal: models.FormatPrice(0),
		Customer:  s.customer(r),
	}
	if cart := s.Carts.Find(s.Sessions.CartID(r)); cart != nil {
		p.withCart(cart)
	}
	return p
}

// withCart refreshes the header totals after the cart changed
func (p *Page) withCart(cart *models.Cart) {
	p.CartCount = itemCount(cart.Count())
	p.CartTotal = models.FormatPrice(cart.Total())
}

// cartID returns the shopper's cart id, starting a cart when there is none
func (s *Shop) cartID(w http.ResponseWriter, r *http.Request) string {
	id := s.Sessions.CartID(r)
	cart := s.Carts.Cart(id)
	if cart.ID != id {
		s.Sessions.SetCart(w, cart.ID)
	}
	return cart.ID
}

func (s *Shop) customer(r *http.Request) *models.Customer {
	id := s.Sessions.CustomerID(r)
	if id == 0 {
		return nil
	}
	customer, err := s.Customers.Customer(id)
	if err != nil {
		return nil
	}
	return customer
}

func (s *Shop) notFound(w http.ResponseWriter, r *http.Request) {
	s.Renderer.Render(w, http.StatusNotFound, "not_found", s.page(r, "Page not found", "error404"))
}

// NotFoundHandler renders the 404 page for unknown paths
type NotFoundHandler struct {
	shop *Shop
}

// NewNotFoundHandler creates a new not found handler
func NewNotFoundHandler(shop *Shop) *NotFoundHandler {
	return &NotFoundHandler{shop: shop}
}

// ServeHTTP renders the 404 page
func (h *NotFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.shop.notFound(w, r)
}

// SamplePageHandler renders the static sample page linked from the menu
type SamplePageHandler struct {
	shop *Shop
}

// NewSamplePageHandler creates a new sample page handler
func NewSamplePageHandler(shop *Shop) *SamplePageHandler {
	return &SamplePageHandler{shop: shop}
}

// ServeHTTP handles the sample page request
func (h *SamplePageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	page := h.shop.page(r, "Sample Page", "page")
	page.Breadcrumb = []string{"Home", "Sample Page"}
	h.shop.Renderer.Render(w, http.StatusOK, "sample", page)
}
