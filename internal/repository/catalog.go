package repository

import (
	"errors"
	"fmt"
	"log"
	"maps"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ssqa/storefront/internal/models"
)

// Catalog errors
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// CatalogSeed is the YAML layout of the catalog file
type CatalogSeed struct {
	Products  []*models.Product `yaml:"products"`
	Coupons   []*models.Coupon  `yaml:"coupons"`
	Customers []CustomerSeed    `yaml:"customers"`
	Reviews   []*models.Review  `yaml:"reviews"`
}

// CustomerSeed is a customer with a clear text password
type CustomerSeed struct {
	Email     string `yaml:"email"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	// Orders are product slugs the customer has one completed order of each
	Orders []string `yaml:"orders"`
}

// Catalog is the in-memory store of products, coupons, customers and
// reviews. It is safe for concurrent use.
type Catalog struct {
	mu        sync.RWMutex
	products  map[int64]*models.Product
	coupons   map[int64]*models.Coupon
	customers map[int64]*models.Customer
	reviews   map[int64]*models.Review
	nextID    int64
	// seedOrders maps customer IDs to the product slugs they have ordered
	seedOrders map[int64][]string
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		products:   make(map[int64]*models.Product),
		coupons:    make(map[int64]*models.Coupon),
		customers:  make(map[int64]*models.Customer),
		reviews:    make(map[int64]*models.Review),
		nextID:     1000,
		seedOrders: make(map[int64][]string),
	}
}

// LoadCatalog reads a YAML seed file into a new catalog
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	log.Printf("Loaded catalog %s: %d products, %d coupons, %d customers", path, len(c.products), len(c.coupons), len(c.customers))
	return c, nil
}

// ParseCatalog builds a catalog from YAML seed data
func ParseCatalog(data []byte) (*Catalog, error) {
	var seed CatalogSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := NewCatalog()
	for _, p := range seed.Products {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, ok := c.products[p.ID]; ok {
			return nil, fmt.Errorf("product %d: %w", p.ID, ErrDuplicate)
		}
		c.products[p.ID] = p
		c.bumpID(p.ID)
	}
	for _, coupon := range seed.Coupons {
		coupon.Code = models.NormalizeCouponCode(coupon.Code)
		if err := coupon.Validate(); err != nil {
			return nil, err
		}
		if _, err := c.AddCoupon(coupon); err != nil {
			return nil, err
		}
	}
	for _, s := range seed.Customers {
		customer, err := models.NewCustomer(s.Email, s.Username, s.Password)
		if err != nil {
			return nil, fmt.Errorf("customer %s: %w", s.Email, err)
		}
		customer.FirstName = s.FirstName
		customer.LastName = s.LastName
		if _, err := c.AddCustomer(customer); err != nil {
			return nil, err
		}
		for _, slug := range s.Orders {
			if _, err := c.ProductBySlug(slug); err != nil {
				return nil, fmt.Errorf("order of customer %s: %w", s.Email, err)
			}
		}
		if len(s.Orders) > 0 {
			c.seedOrders[customer.ID] = s.Orders
		}
	}
	for _, r := range seed.Reviews {
		if _, ok := c.products[r.ProductID]; !ok {
			return nil, fmt.Errorf("review of product %d: %w", r.ProductID, ErrNotFound)
		}
		if r.Status == "" {
			r.Status = models.ReviewApproved
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now()
		}
		c.AddReview(r)
	}
	return c, nil
}

func (c *Catalog) bumpID(id int64) {
	if id >= c.nextID {
		c.nextID = id + 1
	}
}

func (c *Catalog) newID() int64 {
	id := c.nextID
	c.nextID++
	return id
}

// SeedOrders returns the orders the seed gives each customer, as product slugs
// by customer ID
func (c *Catalog) SeedOrders() map[int64][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.seedOrders)
}

// Products returns every product ordered by ID
func (c *Catalog) Products() []*models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	products := make([]*models.Product, 0, len(c.products))
	for _, p := range c.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products
}

// Product returns the product with id
func (c *Catalog) Product(id int64) (*models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return p, nil
}

// ProductBySlug returns the product with slug
func (c *Catalog) ProductBySlug(slug string) (*models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, fmt.Errorf("product %q: %w", slug, ErrNotFound)
}

// UpdateProduct applies update to a copy of the product and stores the copy
// when update succeeds
func (c *Catalog) UpdateProduct(id int64, update func(*models.Product) error) (*models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	updated := *p
	if err := update(&updated); err != nil {
		return nil, err
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	c.products[id] = &updated
	return &updated, nil
}

// AddCoupon stores a coupon and assigns its ID. Codes are unique.
func (c *Catalog) AddCoupon(coupon *models.Coupon) (*models.Coupon, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.coupons {
		if existing.Code == coupon.Code {
			return nil, fmt.Errorf("coupon code %q: %w", coupon.Code, ErrDuplicate)
		}
	}
	if coupon.ID == 0 {
		coupon.ID = c.newID()
	} else {
		c.bumpID(coupon.ID)
	}
	if coupon.CreatedAt.IsZero() {
		coupon.CreatedAt = time.Now()
	}
	c.coupons[coupon.ID] = coupon
	return coupon, nil
}

// CouponByCode returns the coupon with code, in any case
func (c *Catalog) CouponByCode(code string) (*models.Coupon, error) {
	code = models.NormalizeCouponCode(code)

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, coupon := range c.coupons {
		if coupon.Code == code {
			return coupon, nil
		}
	}
	return nil, fmt.Errorf("coupon %q: %w", code, ErrNotFound)
}

// Coupons returns every coupon ordered by ID
func (c *Catalog) Coupons() []*models.Coupon {
	c.mu.RLock()
	defer c.mu.RUnlock()

	coupons := make([]*models.Coupon, 0, len(c.coupons))
	for _, coupon := range c.coupons {
		coupons = append(coupons, coupon)
	}
	sort.Slice(coupons, func(i, j int) bool { return coupons[i].ID < coupons[j].ID })
	return coupons
}

// DeleteCoupon removes a coupon and returns it
func (c *Catalog) DeleteCoupon(id int64) (*models.Coupon, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	coupon, ok := c.coupons[id]
	if !ok {
		return nil, fmt.Errorf("coupon %d: %w", id, ErrNotFound)
	}
	delete(c.coupons, id)
	return coupon, nil
}

// AddCustomer stores a customer and assigns its ID. Emails and usernames are unique.
func (c *Catalog) AddCustomer(customer *models.Customer) (*models.Customer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.customers {
		if existing.Email == customer.Email || strings.EqualFold(existing.Username, customer.Username) {
			return nil, fmt.Errorf("customer %s: %w", customer.Email, ErrDuplicate)
		}
	}
	customer.ID = c.newID()
	c.customers[customer.ID] = customer
	return customer, nil
}

// Customer returns the customer with id
func (c *Catalog) Customer(id int64) (*models.Customer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	customer, ok := c.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
	}
	return customer, nil
}

// CustomerByLogin returns the customer whose username or email is login
func (c *Catalog) CustomerByLogin(login string) (*models.Customer, error) {
	login = strings.TrimSpace(login)

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, customer := range c.customers {
		if strings.EqualFold(customer.Email, login) || strings.EqualFold(customer.Username, login) {
			return customer, nil
		}
	}
	return nil, fmt.Errorf("customer %q: %w", login, ErrNotFound)
}

// AddReview stores a review and assigns its ID
func (c *Catalog) AddReview(review *models.Review) *models.Review {
	c.mu.Lock()
	defer c.mu.Unlock()

	if review.ID == 0 {
		review.ID = c.newID()
	} else {
		c.bumpID(review.ID)
	}
	c.reviews[review.ID] = review
	return review
}

// Reviews returns the reviews of a product oldest first. Held reviews are
// left out unless includeHeld is set. A zero productID returns every product's reviews.
func (c *Catalog) Reviews(productID int64, includeHeld bool) []*models.Review {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var reviews []*models.Review
	for _, r := range c.reviews {
		if productID != 0 && r.ProductID != productID {
			continue
		}
		if !includeHeld && !r.IsApproved() {
			continue
		}
		reviews = append(reviews, r)
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].ID < reviews[j].ID })
	return reviews
}

// DeleteReview removes a review and returns it
func (c *Catalog) DeleteReview(id int64) (*models.Review, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	review, ok := c.reviews[id]
	if !ok {
		return nil, fmt.Errorf("review %d: %w", id, ErrNotFound)
	}
	delete(c.reviews, id)
	return review, nil
}
