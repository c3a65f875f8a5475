package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ssqa/storefront/internal/api"
	"github.com/ssqa/storefront/internal/config"
	"github.com/ssqa/storefront/internal/models"
	"github.com/ssqa/storefront/internal/oauth1"
	"github.com/ssqa/storefront/internal/repository"
	"github.com/ssqa/storefront/internal/services"
)

// RESTPrefix is where the REST API is mounted
const RESTPrefix = "/wp-json/" + api.Version + "/"

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// StoreAdmin is the catalog access the REST API needs
type StoreAdmin interface {
	ProductCatalog
	UpdateProduct(id int64, update func(*models.Product) error) (*models.Product, error)
	AddCoupon(coupon *models.Coupon) (*models.Coupon, error)
	CouponByCode(code string) (*models.Coupon, error)
	Coupons() []*models.Coupon
	DeleteCoupon(id int64) (*models.Coupon, error)
}

// RESTHandler serves the wc/v3 REST API tests use for fixtures. Requests
// authenticate with basic auth or an OAuth 1.0a query signature.
type RESTHandler struct {
	catalog   StoreAdmin
	orders    services.OrderService
	customers services.CustomerService
	reviews   services.ReviewService
	creds     config.APIConfig
	validate  *validator.Validate
	mux       *http.ServeMux
	now       func() time.Time
}

// NewRESTHandler creates the REST API handler
func NewRESTHandler(catalog StoreAdmin, orders services.OrderService, customers services.CustomerService, reviews services.ReviewService, creds config.APIConfig) *RESTHandler {
	h := &RESTHandler{
		catalog:   catalog,
		orders:    orders,
		customers: customers,
		reviews:   reviews,
		creds:     creds,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		mux:       http.NewServeMux(),
		now:       time.Now,
	}

	h.mux.HandleFunc("POST "+RESTPrefix+"customers", h.createCustomer)
	h.mux.HandleFunc("POST "+RESTPrefix+"orders", h.createOrder)
	h.mux.HandleFunc("GET "+RESTPrefix+"orders/{id}", h.getOrder)
	h.mux.HandleFunc("PUT "+RESTPrefix+"orders/{id}", h.updateOrder)
	h.mux.HandleFunc("POST "+RESTPrefix+"coupons", h.createCoupon)
	h.mux.HandleFunc("GET "+RESTPrefix+"coupons", h.listCoupons)
	h.mux.HandleFunc("DELETE "+RESTPrefix+"coupons/{id}", h.deleteCoupon)
	h.mux.HandleFunc("GET "+RESTPrefix+"products", h.listProducts)
	h.mux.HandleFunc("GET "+RESTPrefix+"products/{id}", h.getProduct)
	h.mux.HandleFunc("PUT "+RESTPrefix+"products/{id}", h.updateProduct)
	h.mux.HandleFunc("POST "+RESTPrefix+"products/reviews", h.createReview)
	h.mux.HandleFunc("GET "+RESTPrefix+"products/reviews", h.listReviews)
	h.mux.HandleFunc("DELETE "+RESTPrefix+"products/reviews/{id}", h.deleteReview)
	h.mux.HandleFunc(RESTPrefix, func(w http.ResponseWriter, r *http.Request) {
		sendErrorResponse(w, "rest_no_route", "No route was found matching the URL and request method.", http.StatusNotFound)
	})
	return h
}

// ServeHTTP authenticates the request and dispatches it
func (h *RESTHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.authenticate(r); err != nil {
		log.Printf("REST %s %s refused: %v", r.Method, r.URL.Path, err)
		sendErrorResponse(w, "woocommerce_rest_cannot_view", "Sorry, you cannot list resources.", http.StatusUnauthorized)
		return
	}
	h.mux.ServeHTTP(w, r)
}

var errNoCredentials = errors.New("no credentials")

func (h *RESTHandler) authenticate(r *http.Request) error {
	if key, secret, ok := r.BasicAuth(); ok {
		if subtle.ConstantTimeCompare([]byte(key), []byte(h.creds.Key)) == 1 &&
			subtle.ConstantTimeCompare([]byte(secret), []byte(h.creds.Secret)) == 1 {
			return nil
		}
		return errors.New("bad consumer key or secret")
	}
	if r.URL.Query().Get("oauth_signature") == "" {
		return errNoCredentials
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	u := &url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: r.URL.RawQuery}
	return oauth1.Verify(r.Method, u, h.now(), func(key string) (string, bool) {
		if key != h.creds.Key {
			return "", false
		}
		return h.creds.Secret, true
	})
}

// sendErrorResponse sends a JSON error response
func sendErrorResponse(w http.ResponseWriter, code, message string, statusCode int) {
	sendJSON(w, statusCode, ErrorResponse{
		Code:    code,
		Message: message,
		Data:    ErrorResponseData{Status: statusCode},
	})
}

func sendJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// decode reads and validates a JSON payload, answering 400 itself on failure
func (h *RESTHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		sendErrorResponse(w, "rest_invalid_json", "Invalid JSON body passed.", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		sendErrorResponse(w, "rest_invalid_param", "Invalid parameter(s): "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		sendErrorResponse(w, "rest_invalid_param", "Invalid parameter(s): id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// notFoundOr answers 404 for missing records and 500 for everything else
func notFoundOr(w http.ResponseWriter, err error, code, message string) {
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrOrderNotFound) {
		sendErrorResponse(w, code, message, http.StatusNotFound)
		return
	}
	log.Printf("REST error: %v", err)
	sendErrorResponse(w, "internal_error", "Internal server error", http.StatusInternalServerError)
}

func (h *RESTHandler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var payload api.CustomerPayload
	if !h.decode(w, r, &payload) {
		return
	}
	customer, err := h.customers.Register(payload.Email, payload.Username, payload.Password, payload.FirstName, payload.LastName)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		sendErrorResponse(w, "registration-error-email-exists", "An account is already registered with your email address.", http.StatusBadRequest)
		return
	case err != nil:
		sendErrorResponse(w, "woocommerce_rest_cannot_create", err.Error(), http.StatusBadRequest)
		return
	}
	log.Printf("REST created customer %d", customer.ID)
	sendJSON(w, http.StatusCreated, customerResource(customer))
}

func (h *RESTHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var payload api.OrderPayload
	if !h.decode(w, r, &payload) {
		return
	}

	var billing models.Billing
	if payload.CustomerID != 0 {
		customer, err := h.customers.Customer(payload.CustomerID)
		if err != nil {
			sendErrorResponse(w, "woocommerce_rest_invalid_customer_id", "Customer ID is invalid.", http.StatusBadRequest)
			return
		}
		billing = models.Billing{Email: customer.Email, FirstName: customer.FirstName, LastName: customer.LastName}
	}

	lines := make([]services.OrderLine, 0, len(payload.LineItems))
	for _, item := range payload.LineItems {
		lines = append(lines, services.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.orders.CreateOrder(payload.CustomerID, billing, lines, models.OrderStatus(payload.Status))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, models.ErrInvalidQuantity) ||
			errors.Is(err, models.ErrInvalidStatusTransition) || errors.Is(err, models.ErrNoOrderItems) {
			sendErrorResponse(w, "woocommerce_rest_invalid_order", err.Error(), http.StatusBadRequest)
			return
		}
		notFoundOr(w, err, "woocommerce_rest_invalid_order", err.Error())
		return
	}
	log.Printf("REST created order %d for customer %d", order.ID, order.CustomerID)
	sendJSON(w, http.StatusCreated, orderResource(order))
}

func (h *RESTHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(id)
	if err != nil {
		notFoundOr(w, err, "woocommerce_rest_shop_order_invalid_id", "Invalid ID.")
		return
	}
	sendJSON(w, http.StatusOK, orderResource(order))
}

func (h *RESTHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload struct {
		Status string `json:"status" validate:"required"`
	}
	if !h.decode(w, r, &payload) {
		return
	}
	status, err := models.ParseOrderStatus(payload.Status)
	if err != nil {
		sendErrorResponse(w, "rest_invalid_param", "Invalid parameter(s): status", http.StatusBadRequest)
		return
	}
	order, err := h.orders.UpdateOrderStatus(id, status)
	if errors.Is(err, models.ErrInvalidStatusTransition) {
		sendErrorResponse(w, "woocommerce_rest_invalid_order_status", err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		notFoundOr(w, err, "woocommerce_rest_shop_order_invalid_id", "Invalid ID.")
		return
	}
	sendJSON(w, http.StatusOK, orderResource(order))
}

func (h *RESTHandler) createCoupon(w http.ResponseWriter, r *http.Request) {
	var payload api.CouponPayload
	if !h.decode(w, r, &payload) {
		return
	}

	amount, err := models.ParseAmount(payload.Amount)
	if err != nil {
		sendErrorResponse(w, "rest_invalid_param", "Invalid parameter(s): amount", http.StatusBadRequest)
		return
	}
	discountType := payload.DiscountType
	if discountType == models.DiscountPercent {
		amount /= 100
	} else if discountType == "fixed_product" {
		discountType = models.DiscountFixedCart
	}

	var expiresAt *time.Time
	if payload.DateExpires != nil {
		expiresAt, err = parseExpires(*payload.DateExpires)
		if err != nil {
			sendErrorResponse(w, "rest_invalid_param", "Invalid parameter(s): date_expires", http.StatusBadRequest)
			return
		}
	}

	coupon, err := models.NewCoupon(payload.Code, discountType, amount, expiresAt)
	if err != nil {
		sendErrorResponse(w, "woocommerce_rest_invalid_coupon", err.Error(), http.StatusBadRequest)
		return
	}
	coupon, err = h.catalog.AddCoupon(coupon)
	if errors.Is(err, repository.ErrDuplicate) {
		sendErrorResponse(w, "woocommerce_rest_coupon_code_already_exists", "The coupon code already exists", http.StatusBadRequest)
		return
	}
	if err != nil {
		notFoundOr(w, err, "woocommerce_rest_invalid_coupon", err.Error())
		return
	}
	log.Printf("REST created coupon %d (%s)", coupon.ID, coupon.Code)
	sendJSON(w, http.StatusCreated, couponResource(coupon))
}

func (h *RESTHandler) listCoupons(w http.ResponseWriter, r *http.Request) {
	out := []CouponResource{}
	if code := r.URL.Query().Get("code"); code != "" {
		if coupon, err := h.catalog.CouponByCode(code); err == nil {
			out = append(out, couponResource(coupon))
		}
		sendJSON(w, http.StatusOK, out)
		return
	}
	for _, coupon := range h.catalog.Coupons() {
		out = append(out, couponResource(coupon))
	}
	sendJSON(w, http.StatusOK, out)
}

func (h *RESTHandler) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("force") != "true" {
		sendErrorResponse(w, "woocommerce_rest_trash_not_supported", "Coupons do not support trashing.", http.StatusNotImplemented)
		return
	}
	coupon, err := h.catalog.DeleteCoupon(id)
	if err != nil {
		notFoundOr(w, err, "woocommerce_rest_shop_coupon_invalid_id", "Invalid ID.")
		return
	}
	log.Printf("REST deleted coupon %d (%s)", coupon.ID, coupon.Code)
	sendJSON(w, http.StatusOK, couponResource(coupon))
}

func (h *RESTHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	perPage := defaultPerPage
	if raw := q.Get("per_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPerPage {
			sendErrorResponse(w, "rest_invalid_param", "Invalid parameter(s): per_page", http.StatusBadRequest)
			return
		}
		perPage = n
	}
	page := 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			sendErrorResponse(w, "rest_invalid_param", "Invalid parameter(s): page", http.StatusBadRequest)
			return
		}
		page = n
	}

	var matched []*models.Product
	for _, p := range h.catalog.Products() {
		if slug := q.Get("slug"); slug != "" && p.Slug != slug {
			continue
		}
		if typ := q.Get("type"); typ != "" && productType(p) != typ {
			continue
		}
		if sku := q.Get("sku"); sku != "" && p.SKU != sku {
			continue
		}
		if q.Get("on_sale") == "true" && !p.OnSale() {
			continue
		}
		matched = append(matched, p)
	}

	w.Header().Set("X-WP-Total", strconv.Itoa(len(matched)))
	w.Header().Set("X-WP-TotalPages", strconv.Itoa((len(matched)+perPage-1)/perPage))

	out := []ProductResource{}
	start := (page - 1) * perPage
	for i := start; i < len(matched) && i < start+perPage; i++ {
		out = append(out, productResource(r, h.catalog, matched[i]))
	}
	sendJSON(w, http.StatusOK, out)
}

func productType(p *models.Product) string {
	if p.IsVariable() {
		return models.ProductTypeVariable
	}
	return models.ProductTypeSimple
}

func (h *RESTHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	product, err := h.catalog.Product(id)
	if err != nil {
		notFoundOr(w, err, "woocommerce_rest_product_invalid_id", "Invalid ID.")
		return
	}
	sendJSON(w, http.StatusOK, productResource(r, h.catalog, product))
}

// productUpdate is a partial product update; absent fields are left alone
type productUpdate struct {
	Name             *string `json:"name"`
	RegularPrice     *string `json:"regular_price"`
	SalePrice        *string `json:"sale_price"`
	ShortDescription *string `json:"short_description"`
	Description      *string `json:"description"`
}

func (u productUpdate) apply(p *models.Product) error {
	if u.Name != nil {
		p.Name = strings.TrimSpace(*u.Name)
	}
	if u.RegularPrice != nil {
		cents, err := models.ParseAmount(*u.RegularPrice)
		if err != nil {
			return err
		}
		p.RegularPrice = cents
	}
	if u.SalePrice != nil {
		cents, err := models.ParseAmount(*u.SalePrice)
		if err != nil {
			return err
		}
		p.SalePrice = cents
	}
	if u.ShortDescription != nil {
		p.ShortDescription = *u.ShortDescription
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	return nil
}

func (h *RESTHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var update productUpdate
	if !h.decode(w, r, &update) {
		return
	}
	product, err := h.catalog.UpdateProduct(id, update.apply)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		sendErrorResponse(w, "woocommerce_rest_product_invalid_id", "Invalid ID.", http.StatusNotFound)
		return
	case err != nil:
		sendErrorResponse(w, "rest_invalid_param", err.Error(), http.StatusBadRequest)
		return
	}
	log.Printf("REST updated product %d (%s)", product.ID, product.Slug)
	sendJSON(w, http.StatusOK, productResource(r, h.catalog, product))
}

func (h *RESTHandler) createReview(w http.ResponseWriter, r *http.Request) {
	var payload api.ReviewPayload
	if !h.decode(w, r, &payload) {
		return
	}
	if _, err := h.catalog.Product(payload.ProductID); err != nil {
		sendErrorResponse(w, "woocommerce_rest_product_invalid_id", "Invalid product ID.", http.StatusNotFound)
		return
	}
	review, err := h.reviews.Create(payload.ProductID, payload.Reviewer, payload.ReviewerEmail, payload.Review, payload.Rating)
	if err != nil {
		sendErrorResponse(w, "woocommerce_rest_review_invalid", err.Error(), http.StatusBadRequest)
		return
	}
	log.Printf("REST created review %d of product %d", review.ID, review.ProductID)
	sendJSON(w, http.StatusCreated, reviewResource(review))
}

func (h *RESTHandler) listReviews(w http.ResponseWriter, r *http.Request) {
	var productID int64
	if raw := r.URL.Query().Get("product"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			sendErrorResponse(w, "rest_invalid_param", "Invalid parameter(s): product", http.StatusBadRequest)
			return
		}
		productID = id
	}
	out := []ReviewResource{}
	for _, review := range h.reviews.List(productID) {
		out = append(out, reviewResource(review))
	}
	sendJSON(w, http.StatusOK, out)
}

func (h *RESTHandler) deleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	review, err := h.reviews.Delete(id)
	if err != nil {
		notFoundOr(w, err, "woocommerce_rest_review_invalid_id", "Invalid review ID.")
		return
	}
	log.Printf("REST deleted review %d", review.ID)
	sendJSON(w, http.StatusOK, map[string]any{
		"deleted":  true,
		"previous": reviewResource(review),
	})
}
