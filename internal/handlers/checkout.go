package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ssqa/storefront/internal/models"
	"github.com/ssqa/storefront/internal/services"
)

// Region is a selectable country or state
type Region struct {
	Code string
	Name string
	// Country is the country a state belongs to, "" for countries
	Country string
}

var countries = []Region{
	{Code: "US", Name: "United States (US)"},
	{Code: "CA", Name: "Canada"},
}

var states = []Region{
	{Code: "AL", Name: "Alabama", Country: "US"},
	{Code: "AZ", Name: "Arizona", Country: "US"},
	{Code: "CA", Name: "California", Country: "US"},
	{Code: "CO", Name: "Colorado", Country: "US"},
	{Code: "FL", Name: "Florida", Country: "US"},
	{Code: "GA", Name: "Georgia", Country: "US"},
	{Code: "IL", Name: "Illinois", Country: "US"},
	{Code: "MA", Name: "Massachusetts", Country: "US"},
	{Code: "NY", Name: "New York", Country: "US"},
	{Code: "OR", Name: "Oregon", Country: "US"},
	{Code: "TX", Name: "Texas", Country: "US"},
	{Code: "WA", Name: "Washington", Country: "US"},
	{Code: "AB", Name: "Alberta", Country: "CA"},
	{Code: "BC", Name: "British Columbia", Country: "CA"},
	{Code: "ON", Name: "Ontario", Country: "CA"},
	{Code: "QC", Name: "Quebec", Country: "CA"},
}

func validState(country, code string) bool {
	for _, s := range states {
		if s.Country == country && s.Code == code {
			return true
		}
	}
	return false
}

func validCountry(code string) bool {
	for _, c := range countries {
		if c.Code == code {
			return true
		}
	}
	return false
}

// CheckoutData represents the data passed to the checkout template
type CheckoutData struct {
	Page
	Empty     bool
	Lines     []CartLine
	Coupons   []*models.Coupon
	Subtotal  string
	Discount  string
	Total     string
	Billing   models.Billing
	Countries []Region
	States    []Region
}

// CheckoutHandler shows the checkout form and places orders from the cart
type CheckoutHandler struct {
	shop   *Shop
	orders services.OrderService
	// flaky ignores the first "Place order" of every cart
	flaky bool
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(shop *Shop, orders services.OrderService, flaky bool) *CheckoutHandler {
	return &CheckoutHandler{
		shop:   shop,
		orders: orders,
		flaky:  flaky,
	}
}

// ServeHTTP handles GET and POST /checkout/
func (h *CheckoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data := h.checkoutData(r)
	if r.Method == http.MethodPost && !data.Empty {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		data.Billing = billingFromForm(r)
		if order := h.placeOrder(w, r, &data); order != nil {
			http.Redirect(w, r, fmt.Sprintf("/checkout/order-received/%d/", order.ID), http.StatusSeeOther)
			return
		}
	}

	h.shop.Renderer.Render(w, http.StatusOK, "checkout", data)
}

// placeOrder returns the placed order, or nil with data.Errors set when the
// form has to be shown again
func (h *CheckoutHandler) placeOrder(w http.ResponseWriter, r *http.Request, data *CheckoutData) *models.Order {
	if errs := validateBilling(data.Billing); len(errs) > 0 {
		data.Errors = errs
		return nil
	}

	cartID := h.shop.Sessions.CartID(r)
	if attempt := h.shop.Carts.RecordPlaceAttempt(cartID); h.flaky && attempt == 1 {
		log.Printf("Checkout of cart %s dropped on first attempt", cartID)
		return nil
	}

	cart := h.shop.Carts.Find(cartID)
	if cart == nil {
		data.Empty = true
		return nil
	}
	order, err := h.orders.PlaceOrder(cart, h.shop.Sessions.CustomerID(r), data.Billing)
	switch {
	case errors.Is(err, models.ErrEmptyCart):
		data.Empty = true
		return nil
	case err != nil:
		log.Printf("Placing order for cart %s failed: %v", cartID, err)
		data.Errors = append(data.Errors, "There was an error processing your order. Please check for any charges in your payment method and review your order history before placing the order again.")
		return nil
	}

	h.shop.Carts.Empty(cartID)
	log.Printf("Order %d placed from cart %s", order.ID, cartID)
	return order
}

func (h *CheckoutHandler) checkoutData(r *http.Request) CheckoutData {
	data := CheckoutData{
		Page:      h.shop.page(r, "Checkout", "page woocommerce-checkout"),
		Countries: countries,
		States:    states,
		Billing:   models.Billing{Country: "US"},
	}
	if customer := data.Customer; customer != nil {
		data.Billing.Email = customer.Email
		data.Billing.FirstName = customer.FirstName
		data.Billing.LastName = customer.LastName
	}

	cart := h.shop.Carts.Find(h.shop.Sessions.CartID(r))
	if cart == nil || cart.IsEmpty() {
		data.Empty = true
		return data
	}
	var view CartData
	(&CartHandler{shop: h.shop}).fill(&view, cart)
	data.Lines = view.Lines
	data.Coupons = view.Coupons
	data.Subtotal = view.Subtotal
	data.Discount = view.Discount
	data.Total = view.Total
	return data
}

func billingFromForm(r *http.Request) models.Billing {
	field := func(name string) string {
		return strings.TrimSpace(r.PostForm.Get(name))
	}
	return models.Billing{
		Email:     field("email"),
		Country:   field("billing_country"),
		FirstName: field("billing_first_name"),
		LastName:  field("billing_last_name"),
		Address1:  field("billing_address_1"),
		City:      field("billing_city"),
		State:     field("billing_state"),
		Postcode:  field("billing_postcode"),
		Phone:     field("billing_phone"),
	}
}

var fieldValidator = validator.New()

// validateBilling returns the messages of every invalid field
func validateBilling(b models.Billing) []string {
	var errs []string
	if err := fieldValidator.Var(b.Email, "required,email"); err != nil {
		errs = append(errs, "Please enter a valid email address")
	}
	if !validCountry(b.Country) {
		errs = append(errs, "Please select a country / region")
	}
	required := []struct {
		value, message string
	}{
		{b.FirstName, "Please enter a valid first name"},
		{b.LastName, "Please enter a valid last name"},
		{b.Address1, "Please enter a valid address"},
		{b.City, "Please enter a valid city"},
		{b.Postcode, "Please enter a valid ZIP Code"},
	}
	for _, f := range required {
		if f.value == "" {
			errs = append(errs, f.message)
		}
	}
	if validCountry(b.Country) && !validState(b.Country, b.State) {
		errs = append(errs, "Please select a state")
	}
	return errs
}

// OrderReceivedData represents the data passed to the order received template
type OrderReceivedData struct {
	Page
	Order *models.Order
	Total string
	Date  string
}

// OrderReceivedHandler shows the thank you page of a placed order
type OrderReceivedHandler struct {
	shop   *Shop
	orders services.OrderService
}

// NewOrderReceivedHandler creates a new order received handler
func NewOrderReceivedHandler(shop *Shop, orders services.OrderService) *OrderReceivedHandler {
	return &OrderReceivedHandler{
		shop:   shop,
		orders: orders,
	}
}

// ServeHTTP handles GET /checkout/order-received/{id}/
func (h *OrderReceivedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.shop.notFound(w, r)
		return
	}
	order, err := h.orders.GetOrder(id)
	if err != nil {
		log.Printf("Order received page for %d: %v", id, err)
		h.shop.notFound(w, r)
		return
	}

	data := OrderReceivedData{
		Page:  h.shop.page(r, "Order received", "page woocommerce-checkout woocommerce-order-received"),
		Order: order,
		Total: models.FormatPrice(order.Total),
		Date:  order.CreatedAt.Format("January 2, 2006"),
	}
	h.shop.Renderer.Render(w, http.StatusOK, "order_received", data)
}
