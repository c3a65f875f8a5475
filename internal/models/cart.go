package models

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Cart errors
var (
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrVariationRequired = errors.New("please choose product options")
	ErrEmptyCart         = errors.New("cart is empty")
)

// CartItem is one product line. Lines of the same product with different
// variations are kept apart.
type CartItem struct {
	ProductID int64
	Slug      string
	Name      string
	Variation map[string]string
	Quantity  int
	UnitPrice int64
}

// Key identifies the line among the cart's lines
func (i CartItem) Key() string {
	attrs := make([]string, 0, len(i.Variation))
	for k, v := range i.Variation {
		attrs = append(attrs, k+"="+v)
	}
	sort.Strings(attrs)
	return fmt.Sprintf("%d|%s", i.ProductID, strings.Join(attrs, ","))
}

// LineTotal returns the line price in cents
func (i CartItem) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Cart is a shopper's cart, keyed by the cart session cookie
type Cart struct {
	ID      string
	Items   []CartItem
	Coupons []*Coupon
	// PlaceAttempts counts "Place order" submissions for this cart
	PlaceAttempts int
	UpdatedAt     time.Time
}

// NewCart creates an empty cart with a fresh session id
func NewCart() *Cart {
	return &Cart{ID: uuid.NewString(), UpdatedAt: time.Now()}
}

// Add puts qty of product in the cart. Variable products need a value for
// every variation.
func (c *Cart) Add(p *Product, qty int, variation map[string]string) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	for _, v := range p.Variations {
		value := variation[v.Attribute]
		if value == "" || !v.HasOption(value) {
			return fmt.Errorf("%w: %s", ErrVariationRequired, v.Label)
		}
	}

	item := CartItem{
		ProductID: p.ID,
		Slug:      p.Slug,
		Name:      p.Name,
		Variation: maps.Clone(variation),
		Quantity:  qty,
		UnitPrice: p.Price(),
	}
	for i := range c.Items {
		if c.Items[i].Key() == item.Key() {
			c.Items[i].Quantity += qty
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	c.Items = append(c.Items, item)
	c.UpdatedAt = time.Now()
	return nil
}

// Count returns the number of units in the cart
func (c *Cart) Count() int {
	n := 0
	for _, i := range c.Items {
		n += i.Quantity
	}
	return n
}

// IsEmpty reports whether the cart holds nothing
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Subtotal returns the cart value before discounts
func (c *Cart) Subtotal() int64 {
	var total int64
	for _, i := range c.Items {
		total += i.LineTotal()
	}
	return total
}

// Discount returns what the applied coupons take off, never more than the subtotal
func (c *Cart) Discount() int64 {
	subtotal := c.Subtotal()
	remaining := subtotal
	for _, coupon := range c.Coupons {
		remaining -= coupon.Discount(remaining)
	}
	return subtotal - remaining
}

// Total returns the amount to pay
func (c *Cart) Total() int64 {
	return c.Subtotal() - c.Discount()
}

// HasCoupon reports whether code is applied
func (c *Cart) HasCoupon(code string) bool {
	code = NormalizeCouponCode(code)
	for _, coupon := range c.Coupons {
		if coupon.Code == code {
			return true
		}
	}
	return false
}

// ApplyCoupon adds coupon to the cart
func (c *Cart) ApplyCoupon(coupon *Coupon, now time.Time) error {
	if coupon.Expired(now) {
		return ErrCouponExpired
	}
	if c.HasCoupon(coupon.Code) {
		return ErrCouponAlreadyApplied
	}
	c.Coupons = append(c.Coupons, coupon)
	c.UpdatedAt = now
	return nil
}

// Empty removes every line and coupon
func (c *Cart) Empty() {
	c.Items = nil
	c.Coupons = nil
	c.PlaceAttempts = 0
	c.UpdatedAt = time.Now()
}
