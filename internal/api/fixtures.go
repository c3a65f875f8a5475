package api

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// DefaultOrderProductSlug is ordered when no product is given
const DefaultOrderProductSlug = "beanie"

// DefaultCouponLength is the length of generated coupon codes
const DefaultCouponLength = 7

// expiresLayout is the local time format the API takes for date fields
const expiresLayout = "2006-01-02T15:04:05"

// CustomerPayload creates a customer
type CustomerPayload struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// LineItem is one product of an order
type LineItem struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// OrderPayload creates an order
type OrderPayload struct {
	CustomerID int64      `json:"customer_id" validate:"gte=0"`
	LineItems  []LineItem `json:"line_items" validate:"required,min=1,dive"`
	Status     string     `json:"status" validate:"omitempty,oneof=pending processing on-hold completed cancelled refunded failed"`
}

// CouponPayload creates a coupon. A nil DateExpires never expires.
type CouponPayload struct {
	Code         string  `json:"code" validate:"required"`
	DiscountType string  `json:"discount_type" validate:"required,oneof=percent fixed_cart fixed_product"`
	Amount       string  `json:"amount" validate:"required,numeric"`
	DateExpires  *string `json:"date_expires"`
}

// ReviewPayload creates a product review
type ReviewPayload struct {
	ProductID     int64  `json:"product_id" validate:"required,gt=0"`
	Reviewer      string `json:"reviewer" validate:"required"`
	ReviewerEmail string `json:"reviewer_email,omitempty" validate:"omitempty,email"`
	Review        string `json:"review" validate:"required"`
	Rating        int    `json:"rating" validate:"min=1,max=5"`
}

// Customer is a created customer and the password it was created with
type Customer struct {
	ID       int64
	Email    string
	Password string
}

func randomCustomer() CustomerPayload {
	return CustomerPayload{
		Email:    strings.ToLower(gofakeit.Email()),
		Password: gofakeit.Password(true, true, true, false, false, 12),
	}
}

// CreateUser registers a customer with a random email and password
func (c *HTTPClient) CreateUser() (*Customer, error) {
	return c.CreateCustomer()
}

// CreateCustomer registers a customer with a random email and password and
// returns its id alongside the credentials
func (c *HTTPClient) CreateCustomer() (*Customer, error) {
	payload := randomCustomer()
	var created Resource
	if err := c.do(http.MethodPost, "customers", nil, &payload, http.StatusCreated, &created); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	log.Printf("Created customer %d (%s)", created.ID(), payload.Email)
	return &Customer{ID: created.ID(), Email: payload.Email, Password: payload.Password}, nil
}

// CreateOrderForCustomer places a completed order of one productID for the
// customer. A zero productID orders the beanie.
func (c *HTTPClient) CreateOrderForCustomer(customerID, productID int64) (Resource, error) {
	if productID == 0 {
		product, err := c.GetProductBySlug(DefaultOrderProductSlug)
		if err != nil {
			return nil, err
		}
		productID = product.ID()
	}

	payload := OrderPayload{
		CustomerID: customerID,
		LineItems:  []LineItem{{ProductID: productID, Quantity: 1}},
		Status:     "completed",
	}
	var order Resource
	if err := c.do(http.MethodPost, "orders", nil, &payload, http.StatusCreated, &order); err != nil {
		return nil, fmt.Errorf("failed to create order for customer %d: %w", customerID, err)
	}
	return order, nil
}

// CreateCoupon creates a 100% coupon and returns its code. An empty code is
// replaced with random upper case letters of the given length; expired coupons
// expire now.
func (c *HTTPClient) CreateCoupon(code string, length int, expired bool) (string, error) {
	if code == "" {
		if length <= 0 {
			length = DefaultCouponLength
		}
		code = strings.ToUpper(gofakeit.LetterN(uint(length)))
	}

	payload := CouponPayload{Code: code, DiscountType: "percent", Amount: "100"}
	if expired {
		now := time.Now().Format(expiresLayout)
		payload.DateExpires = &now
	}

	if err := c.do(http.MethodPost, "coupons", nil, &payload, http.StatusCreated, nil); err != nil {
		return "", fmt.Errorf("failed creating coupon %s: %w", code, err)
	}
	return code, nil
}

// GetCouponByCode lists the coupons with code
func (c *HTTPClient) GetCouponByCode(code string) ([]Resource, error) {
	var coupons []Resource
	if err := c.do(http.MethodGet, "coupons", url.Values{"code": {code}}, nil, http.StatusOK, &coupons); err != nil {
		return nil, fmt.Errorf("failed getting coupon by coupon code %s: %w", code, err)
	}
	return coupons, nil
}

// DeleteCouponByCode permanently deletes the first coupon with code
func (c *HTTPClient) DeleteCouponByCode(code string) error {
	coupons, err := c.GetCouponByCode(code)
	if err != nil {
		return err
	}
	if len(coupons) == 0 {
		return fmt.Errorf("coupon %s: %w", code, ErrNotFound)
	}
	path := "coupons/" + strconv.FormatInt(coupons[0].ID(), 10)
	if err := c.do(http.MethodDelete, path, url.Values{"force": {"true"}}, nil, http.StatusOK, nil); err != nil {
		return fmt.Errorf("failed to delete coupon %s: %w", code, err)
	}
	return nil
}

// GetProductBySlug returns the product with slug
func (c *HTTPClient) GetProductBySlug(slug string) (Resource, error) {
	var products []Resource
	if err := c.do(http.MethodGet, "products", url.Values{"slug": {slug}}, nil, http.StatusOK, &products); err != nil {
		return nil, fmt.Errorf("failed to get product by slug %q: %w", slug, err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("no product found with slug %q: %w", slug, ErrNotFound)
	}
	return products[0], nil
}

// UpdateProduct applies data to the product, e.g. {"sale_price": ""} to end a sale
func (c *HTTPClient) UpdateProduct(productID int64, data Resource) (Resource, error) {
	var product Resource
	path := "products/" + strconv.FormatInt(productID, 10)
	if err := c.do(http.MethodPut, path, nil, data, http.StatusOK, &product); err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", productID, err)
	}
	return product, nil
}

// CreateProductReview posts a review through the REST API
func (c *HTTPClient) CreateProductReview(review ReviewPayload) (Resource, error) {
	var created Resource
	if err := c.do(http.MethodPost, "products/reviews", nil, &review, http.StatusCreated, &created); err != nil {
		return nil, fmt.Errorf("failed to create review for product %d: %w", review.ProductID, err)
	}
	return created, nil
}

// GetProductReviews returns up to 100 reviews of the product
func (c *HTTPClient) GetProductReviews(productID int64) ([]Resource, error) {
	var reviews []Resource
	query := url.Values{"product": {strconv.FormatInt(productID, 10)}, "per_page": {"100"}}
	if err := c.do(http.MethodGet, "products/reviews", query, nil, http.StatusOK, &reviews); err != nil {
		return nil, fmt.Errorf("failed to get reviews for product %d: %w", productID, err)
	}
	return reviews, nil
}

// DeleteProductReview permanently deletes a review
func (c *HTTPClient) DeleteProductReview(reviewID int64) (Resource, error) {
	var deleted Resource
	path := "products/reviews/" + strconv.FormatInt(reviewID, 10)
	if err := c.do(http.MethodDelete, path, url.Values{"force": {"true"}}, nil, http.StatusOK, &deleted); err != nil {
		return nil, fmt.Errorf("failed to delete review %d: %w", reviewID, err)
	}
	return deleted, nil
}

// GetRandomProducts lists up to 100 products matching filters, such as
// {"type": "variable"}, and returns qty of them picked at random
func (c *HTTPClient) GetRandomProducts(qty int, filters map[string]string) ([]Resource, error) {
	query := url.Values{}
	for k, v := range filters {
		query.Set(k, v)
	}
	query.Set("per_page", "100")

	var products []Resource
	if err := c.do(http.MethodGet, "products", query, nil, http.StatusOK, &products); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if qty > len(products) {
		return nil, fmt.Errorf("asked for %d random products but only %d match %v", qty, len(products), filters)
	}
	gofakeit.ShuffleAnySlice(products)
	return products[:qty], nil
}
