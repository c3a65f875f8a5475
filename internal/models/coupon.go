package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Coupon discount types
const (
	DiscountPercent   = "percent"
	DiscountFixedCart = "fixed_cart"
)

// Coupon errors
var (
	ErrCouponExpired        = errors.New("coupon has expired")
	ErrCouponAlreadyApplied = errors.New("coupon code already applied")
	ErrInvalidDiscount      = errors.New("invalid coupon discount")
)

// Coupon is a cart discount. Amount is a percentage for percent coupons and
// cents for fixed cart coupons. A nil ExpiresAt never expires.
type Coupon struct {
	ID           int64      `yaml:"id"`
	Code         string     `yaml:"code"`
	DiscountType string     `yaml:"discount_type"`
	Amount       int64      `yaml:"amount"`
	ExpiresAt    *time.Time `yaml:"expires_at"`
	CreatedAt    time.Time  `yaml:"-"`
}

// NewCoupon creates a coupon after checking its discount
func NewCoupon(code, discountType string, amount int64, expiresAt *time.Time) (*Coupon, error) {
	c := &Coupon{
		Code:         NormalizeCouponCode(code),
		DiscountType: discountType,
		Amount:       amount,
		ExpiresAt:    expiresAt,
		CreatedAt:    time.Now(),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the code and discount of a coupon
func (c *Coupon) Validate() error {
	if c.Code == "" {
		return fmt.Errorf("%w: code cannot be empty", ErrInvalidDiscount)
	}
	switch c.DiscountType {
	case DiscountPercent:
		if c.Amount <= 0 || c.Amount > 100 {
			return fmt.Errorf("%w: percent must be between 1 and 100, got %d", ErrInvalidDiscount, c.Amount)
		}
	case DiscountFixedCart:
		if c.Amount <= 0 {
			return fmt.Errorf("%w: amount must be positive", ErrInvalidDiscount)
		}
	default:
		return fmt.Errorf("%w: unsupported type %q", ErrInvalidDiscount, c.DiscountType)
	}
	return nil
}

// NormalizeCouponCode returns the stored form of a code. Codes match
// regardless of case.
func NormalizeCouponCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Expired reports whether the coupon can no longer be used at now
func (c *Coupon) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// Discount returns the cents taken off subtotal, never more than subtotal
func (c *Coupon) Discount(subtotal int64) int64 {
	var d int64
	switch c.DiscountType {
	case DiscountPercent:
		d = subtotal * c.Amount / 100
	case DiscountFixedCart:
		d = c.Amount
	}
	return min(d, subtotal)
}
