package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPrice is returned for prices that are not decimal amounts
var ErrInvalidPrice = errors.New("invalid price")

// Product types
const (
	ProductTypeSimple   = "simple"
	ProductTypeVariable = "variable"
)

// VariationOption is one choice of a variation dropdown
type VariationOption struct {
	Value string `yaml:"value"`
	Text  string `yaml:"text"`
}

// Variation is a product attribute the shopper picks before adding to cart,
// e.g. the "pa_color" attribute labelled "Color"
type Variation struct {
	Attribute string            `yaml:"attribute"`
	Label     string            `yaml:"label"`
	Options   []VariationOption `yaml:"options"`
}

// HasOption reports whether value is one of the variation's options
func (v Variation) HasOption(value string) bool {
	for _, o := range v.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// Product is a catalog item. Prices are in cents; a zero SalePrice means the
// product is not on sale.
type Product struct {
	ID               int64             `yaml:"id"`
	Slug             string            `yaml:"slug"`
	Name             string            `yaml:"name"`
	Type             string            `yaml:"type"`
	SKU              string            `yaml:"sku"`
	Category         string            `yaml:"category"`
	ShortDescription string            `yaml:"short_description"`
	Description      string            `yaml:"description"`
	RegularPrice     int64             `yaml:"regular_price"`
	SalePrice        int64             `yaml:"sale_price"`
	Image            string            `yaml:"image"`
	Gallery          []string          `yaml:"gallery"`
	Attributes       map[string]string `yaml:"attributes"`
	Variations       []Variation       `yaml:"variations"`
	Related          []string          `yaml:"related"`
}

// OnSale reports whether the product sells below its regular price
func (p *Product) OnSale() bool {
	return p.SalePrice > 0 && p.SalePrice < p.RegularPrice
}

// Price returns the current selling price in cents
func (p *Product) Price() int64 {
	if p.OnSale() {
		return p.SalePrice
	}
	return p.RegularPrice
}

// IsVariable reports whether the shopper must pick variations
func (p *Product) IsVariable() bool {
	return p.Type == ProductTypeVariable || len(p.Variations) > 0
}

// Validate checks a product read from the catalog seed
func (p *Product) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("product %q: id must be positive", p.Slug)
	}
	if p.Slug == "" || p.Name == "" {
		return fmt.Errorf("product %d: slug and name are required", p.ID)
	}
	if p.RegularPrice <= 0 {
		return fmt.Errorf("product %q: regular price must be positive", p.Slug)
	}
	if p.SalePrice < 0 {
		return fmt.Errorf("product %q: sale price cannot be negative", p.Slug)
	}
	return nil
}

// FormatPrice renders cents the way the shop does, e.g. 1800 as "$18.00"
func FormatPrice(cents int64) string {
	if cents < 0 {
		return "-$" + FormatAmount(-cents)
	}
	return "$" + FormatAmount(cents)
}

// FormatAmount renders cents as a decimal string, e.g. 1800 as "18.00"
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// ParseAmount reads a decimal string such as "18" or "18.5" as cents. An
// empty string is zero.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: %q has more than two decimals", ErrInvalidPrice, s)
	}
	frac += strings.Repeat("0", 2-len(frac))
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseUint(whole, 10, 62)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	cents, err := strconv.ParseUint(frac, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	return int64(units*100 + cents), nil
}
