package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/ssqa/storefront/internal/models"
	"github.com/ssqa/storefront/internal/services"
)

// CartLine is one cart row
type CartLine struct {
	models.CartItem
	URL     string
	Details []Attribute
	Total   string
}

// CartData represents the data passed to the cart template
type CartData struct {
	Page
	Lines    []CartLine
	Coupons  []*models.Coupon
	Subtotal string
	Discount string
	Total    string
	// CouponCode is the code last typed into the coupon field
	CouponCode  string
	CouponError string
	// CouponOpen renders the coupon panel expanded
	CouponOpen bool
	// Snackbar is the notice shown after a coupon was applied
	Snackbar string
}

// CartHandler shows the cart. A POST with coupon_code applies a coupon.
type CartHandler struct {
	shop *Shop
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(shop *Shop) *CartHandler {
	return &CartHandler{shop: shop}
}

// ServeHTTP handles GET and POST /cart/
func (h *CartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	page := h.shop.page(r, "Cart", "page woocommerce-cart")
	cart := h.shop.Carts.Find(h.shop.Sessions.CartID(r))
	if cart == nil {
		cart = &models.Cart{}
	}

	data := CartData{Page: page}
	if r.Method == http.MethodPost {
		code := strings.TrimSpace(r.PostFormValue("coupon_code"))
		data.CouponCode = code
		data.CouponOpen = true
		updated, err := h.applyCoupon(w, r, code)
		var couponErr *services.CouponError
		switch {
		case errors.As(err, &couponErr):
			data.CouponError = couponErr.Error()
		case err != nil:
			log.Printf("Applying coupon %q failed: %v", code, err)
			data.CouponError = "Sorry, the coupon could not be applied."
		default:
			cart = updated
			data.CouponCode = ""
			data.CouponOpen = false
			data.Snackbar = fmt.Sprintf("Coupon code %q has been applied to your cart.", code)
		}
	}

	h.fill(&data, cart)
	h.shop.Renderer.Render(w, http.StatusOK, "cart", data)
}

func (h *CartHandler) applyCoupon(w http.ResponseWriter, r *http.Request, code string) (*models.Cart, error) {
	if code == "" {
		return nil, &services.CouponError{Code: code, Err: services.ErrCouponNotFound}
	}
	return h.shop.Carts.ApplyCoupon(h.shop.cartID(w, r), code)
}

func (h *CartHandler) fill(data *CartData, cart *models.Cart) {
	data.withCart(cart)
	data.Coupons = cart.Coupons
	data.Subtotal = models.FormatPrice(cart.Subtotal())
	data.Discount = models.FormatPrice(cart.Discount())
	data.Total = models.FormatPrice(cart.Total())

	for _, item := range cart.Items {
		line := CartLine{
			CartItem: item,
			URL:      "/product/" + item.Slug + "/",
			Total:    models.FormatPrice(item.LineTotal()),
		}
		line.Details = variationDetails(h.shop.Catalog, item)
		data.Lines = append(data.Lines, line)
	}
}

// variationDetails labels a line's chosen variation values, e.g. Color: Blue
func variationDetails(catalog ProductCatalog, item models.CartItem) []Attribute {
	if len(item.Variation) == 0 {
		return nil
	}
	product, err := catalog.Product(item.ProductID)
	if err != nil {
		return nil
	}
	var details []Attribute
	for _, v := range product.Variations {
		value := item.Variation[v.Attribute]
		for _, o := range v.Options {
			if o.Value == value {
				value = o.Text
			}
		}
		details = append(details, Attribute{Name: v.Label, Value: value})
	}
	return details
}
