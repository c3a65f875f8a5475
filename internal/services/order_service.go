package services

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/ssqa/storefront/internal/models"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	CreateOrder(order *models.Order) error
	GetOrder(id int64) (*models.Order, error)
	UpdateOrderStatus(id int64, status models.OrderStatus) error
	ListOrdersByCustomer(customerID int64) ([]*models.Order, error)
}

// OrderLine is a product and quantity ordered through the REST API
type OrderLine struct {
	ProductID int64
	Quantity  int
}

// OrderService handles order business logic
type OrderService interface {
	// PlaceOrder turns a cart into a processing order
	PlaceOrder(cart *models.Cart, customerID int64, billing models.Billing) (*models.Order, error)
	CreateOrder(customerID int64, billing models.Billing, lines []OrderLine, status models.OrderStatus) (*models.Order, error)
	GetOrder(id int64) (*models.Order, error)
	ListCustomerOrders(customerID int64) ([]*models.Order, error)
	UpdateOrderStatus(id int64, status models.OrderStatus) (*models.Order, error)
	// SeedOrders gives each customer one completed order per product slug,
	// skipping customers that already have orders
	SeedOrders(seed map[int64][]string) error
}

// OrderServiceImpl implements OrderService
type OrderServiceImpl struct {
	orderRepo OrderRepository
	catalog   ProductCatalog
}

// NewOrderService creates a new order service
func NewOrderService(orderRepo OrderRepository, catalog ProductCatalog) OrderService {
	return &OrderServiceImpl{
		orderRepo: orderRepo,
		catalog:   catalog,
	}
}

// itemName names a cart line the way order items show it, e.g. "Hoodie - Blue, Yes"
func itemName(item models.CartItem) string {
	if len(item.Variation) == 0 {
		return item.Name
	}
	keys := make([]string, 0, len(item.Variation))
	for k := range item.Variation {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, item.Variation[k])
	}
	return item.Name + " - " + strings.Join(values, ", ")
}

// PlaceOrder creates the order for the cart contents. Payment is taken on
// delivery so the order starts out processing.
func (s *OrderServiceImpl) PlaceOrder(cart *models.Cart, customerID int64, billing models.Billing) (*models.Order, error) {
	if cart.IsEmpty() {
		return nil, models.ErrEmptyCart
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Name:      itemName(line),
			Quantity:  line.Quantity,
			Total:     line.LineTotal(),
		})
	}

	order, err := models.NewOrder(customerID, billing, items, cart.Total())
	if err != nil {
		return nil, fmt.Errorf("invalid order: %w", err)
	}
	if err := order.Process(); err != nil {
		return nil, err
	}

	if err := s.orderRepo.CreateOrder(order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

// CreateOrder creates an order for catalog products at their current price
func (s *OrderServiceImpl) CreateOrder(customerID int64, billing models.Billing, lines []OrderLine, status models.OrderStatus) (*models.Order, error) {
	items := make([]models.OrderItem, 0, len(lines))
	var total int64
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, models.ErrInvalidQuantity)
		}
		product, err := s.catalog.Product(line.ProductID)
		if err != nil {
			return nil, err
		}
		lineTotal := product.Price() * int64(line.Quantity)
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			Total:     lineTotal,
		})
		total += lineTotal
	}

	order, err := models.NewOrder(customerID, billing, items, total)
	if err != nil {
		return nil, fmt.Errorf("invalid order: %w", err)
	}
	if status != "" {
		if err := order.TransitionTo(status); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.CreateOrder(order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

// GetOrder retrieves an order by its number
func (s *OrderServiceImpl) GetOrder(id int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrder(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// ListCustomerOrders returns a customer's orders, newest first
func (s *OrderServiceImpl) ListCustomerOrders(customerID int64) ([]*models.Order, error) {
	orders, err := s.orderRepo.ListOrdersByCustomer(customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus moves an order to status
func (s *OrderServiceImpl) UpdateOrderStatus(id int64, status models.OrderStatus) (*models.Order, error) {
	order, err := s.orderRepo.GetOrder(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	// Use domain methods to transition state
	if err := order.TransitionTo(status); err != nil {
		return nil, err
	}

	if err := s.orderRepo.UpdateOrderStatus(id, order.Status); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return order, nil
}

// SeedOrders places an order for each slug list unless the customer already has orders
func (s *OrderServiceImpl) SeedOrders(seed map[int64][]string) error {
	for customerID, slugs := range seed {
		existing, err := s.orderRepo.ListOrdersByCustomer(customerID)
		if err != nil {
			return fmt.Errorf("failed to list orders: %w", err)
		}
		if len(existing) > 0 {
			continue
		}
		for _, slug := range slugs {
			product, err := s.catalog.ProductBySlug(slug)
			if err != nil {
				return err
			}
			order, err := s.CreateOrder(customerID, models.Billing{}, []OrderLine{{ProductID: product.ID, Quantity: 1}}, models.OrderStatusCompleted)
			if err != nil {
				return err
			}
			log.Printf("Seeded order %d of %s for customer %d", order.ID, slug, customerID)
		}
	}
	return nil
}
