package services

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ssqa/storefront/internal/models"
	"github.com/ssqa/storefront/internal/repository"
)

// ErrCouponNotFound is returned for codes the store does not know
var ErrCouponNotFound = errors.New("coupon does not exist")

// CouponError is a coupon the cart refused, worded as the cart shows it
type CouponError struct {
	Code string
	Err  error
}

// Error returns the notice the cart shows for the failure
func (e *CouponError) Error() string {
	switch {
	case errors.Is(e.Err, ErrCouponNotFound):
		return fmt.Sprintf("Coupon %q does not exist!", e.Code)
	case errors.Is(e.Err, models.ErrCouponExpired):
		return "This coupon has expired."
	case errors.Is(e.Err, models.ErrCouponAlreadyApplied):
		return fmt.Sprintf("Coupon code %q already applied!", e.Code)
	}
	return fmt.Sprintf("Coupon %q could not be applied: %v", e.Code, e.Err)
}

// Unwrap returns the underlying cause
func (e *CouponError) Unwrap() error {
	return e.Err
}

// ProductCatalog looks up products and coupons
type ProductCatalog interface {
	Product(id int64) (*models.Product, error)
	ProductBySlug(slug string) (*models.Product, error)
	CouponByCode(code string) (*models.Coupon, error)
}

// CartService handles shopper carts
type CartService interface {
	// Cart returns the cart with id, or a new empty cart when there is none
	Cart(id string) *models.Cart
	// Find returns the cart with id, nil when there is none
	Find(id string) *models.Cart
	AddToCart(cartID string, productID int64, qty int, variation map[string]string) (*models.Cart, error)
	ApplyCoupon(cartID, code string) (*models.Cart, error)
	// RecordPlaceAttempt counts a "Place order" submission and returns the count
	RecordPlaceAttempt(cartID string) int
	Empty(cartID string)
}

// CartServiceImpl implements CartService with carts kept in memory
type CartServiceImpl struct {
	catalog ProductCatalog
	now     func() time.Time

	mu    sync.Mutex
	carts map[string]*models.Cart
}

// NewCartService creates a new cart service
func NewCartService(catalog ProductCatalog) *CartServiceImpl {
	return &CartServiceImpl{
		catalog: catalog,
		now:     time.Now,
		carts:   make(map[string]*models.Cart),
	}
}

func (s *CartServiceImpl) cart(id string) *models.Cart {
	if cart, ok := s.carts[id]; ok {
		return cart
	}
	cart := models.NewCart()
	s.carts[cart.ID] = cart
	return cart
}

func snapshot(cart *models.Cart) *models.Cart {
	c := *cart
	c.Items = slices.Clone(cart.Items)
	c.Coupons = slices.Clone(cart.Coupons)
	return &c
}

// Cart returns a copy of the cart
func (s *CartServiceImpl) Cart(id string) *models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	return snapshot(s.cart(id))
}

// Find returns the cart with id, nil when there is none
func (s *CartServiceImpl) Find(id string) *models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[id]
	if !ok {
		return nil
	}
	return snapshot(cart)
}

// AddToCart adds qty of a product to the cart, creating the cart when needed
func (s *CartServiceImpl) AddToCart(cartID string, productID int64, qty int, variation map[string]string) (*models.Cart, error) {
	product, err := s.catalog.Product(productID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cart(cartID)
	if err := cart.Add(product, qty, variation); err != nil {
		return nil, fmt.Errorf("could not add %s to the cart: %w", product.Name, err)
	}
	return snapshot(cart), nil
}

// ApplyCoupon applies code to the cart. Refusals are *CouponError.
func (s *CartServiceImpl) ApplyCoupon(cartID, code string) (*models.Cart, error) {
	coupon, err := s.catalog.CouponByCode(code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &CouponError{Code: code, Err: ErrCouponNotFound}
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cart(cartID)
	if err := cart.ApplyCoupon(coupon, s.now()); err != nil {
		return nil, &CouponError{Code: code, Err: err}
	}
	return snapshot(cart), nil
}

// RecordPlaceAttempt counts a Place order attempt and returns the total
func (s *CartServiceImpl) RecordPlaceAttempt(cartID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cart(cartID)
	cart.PlaceAttempts++
	return cart.PlaceAttempts
}

// Empty clears the cart after an order is placed
func (s *CartServiceImpl) Empty(cartID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cart, ok := s.carts[cartID]; ok {
		cart.Empty()
	}
}
