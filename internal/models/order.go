package models

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// OrderStatus represents valid order states
type OrderStatus string

// Order statuses
const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusOnHold     OrderStatus = "on-hold"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusFailed     OrderStatus = "failed"
)

// OrderPostType is the post type orders are stored under
const OrderPostType = "shop_order_placehold"

// postStatusPrefix prefixes order statuses in the posts table
const postStatusPrefix = "wc-"

// DefaultCurrency is the store currency
const DefaultCurrency = "USD"

// Billing is the address an order is billed to
type Billing struct {
	FirstName string
	LastName  string
	Address1  string
	City      string
	State     string
	Postcode  string
	Country   string
	Email     string
	Phone     string
}

// OrderItem is one line of a placed order
type OrderItem struct {
	ID        int64
	ProductID int64
	Name      string
	Quantity  int
	Total     int64
}

// Order represents a customer order with business logic
type Order struct {
	ID         int64
	CustomerID int64
	Billing    Billing
	Items      []OrderItem
	Total      int64
	Currency   string
	Status     OrderStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Domain errors
var (
	ErrInvalidAmount           = errors.New("order amount cannot be negative")
	ErrInvalidEmail            = errors.New("a valid billing email is required")
	ErrNoOrderItems            = errors.New("order must contain at least one item")
	ErrInvalidStatus           = errors.New("unknown order status")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

// NewOrder creates a pending order with validation. A zero customerID is a
// guest order.
func NewOrder(customerID int64, billing Billing, items []OrderItem, total int64) (*Order, error) {
	if err := validateOrderInput(billing, items, total); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Order{
		CustomerID: customerID,
		Billing:    billing,
		Items:      items,
		Total:      total,
		Currency:   DefaultCurrency,
		Status:     OrderStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// validateOrderInput validates order creation parameters
func validateOrderInput(billing Billing, items []OrderItem, total int64) error {
	if total < 0 {
		return ErrInvalidAmount
	}
	if len(items) == 0 {
		return ErrNoOrderItems
	}
	if billing.Email != "" {
		if _, err := mail.ParseAddress(billing.Email); err != nil {
			return ErrInvalidEmail
		}
	}
	return nil
}

// ParseOrderStatus reads a status as the REST API or the posts table writes it
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.TrimPrefix(s, postStatusPrefix))
	switch status {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusOnHold, OrderStatusCompleted,
		OrderStatusCancelled, OrderStatusRefunded, OrderStatusFailed:
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// PostStatus returns the status as stored in the posts table, e.g. "wc-completed"
func (s OrderStatus) PostStatus() string {
	return postStatusPrefix + string(s)
}

// Label returns the status as the my-account orders table shows it
func (s OrderStatus) Label() string {
	label := strings.ReplaceAll(string(s), "-", " ")
	if label == "" {
		return ""
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

// Process marks a paid order as processing
func (o *Order) Process() error {
	if o.Status != OrderStatusPending && o.Status != OrderStatusOnHold {
		return fmt.Errorf("%w: cannot process order with status %s", ErrInvalidStatusTransition, o.Status)
	}
	o.Status = OrderStatusProcessing
	o.UpdatedAt = time.Now()
	return nil
}

// Complete marks the order as fulfilled
func (o *Order) Complete() error {
	switch o.Status {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusOnHold:
	default:
		return fmt.Errorf("%w: cannot complete order with status %s", ErrInvalidStatusTransition, o.Status)
	}
	o.Status = OrderStatusCompleted
	o.UpdatedAt = time.Now()
	return nil
}

// Cancel marks the order as cancelled
func (o *Order) Cancel() error {
	if o.Status == OrderStatusCompleted || o.Status == OrderStatusRefunded {
		return fmt.Errorf("%w: cannot cancel a %s order", ErrInvalidStatusTransition, o.Status)
	}
	o.Status = OrderStatusCancelled
	o.UpdatedAt = time.Now()
	return nil
}

// Fail marks the order as failed
func (o *Order) Fail() error {
	if o.Status != OrderStatusPending {
		return fmt.Errorf("%w: cannot fail order with status %s", ErrInvalidStatusTransition, o.Status)
	}
	o.Status = OrderStatusFailed
	o.UpdatedAt = time.Now()
	return nil
}

// Refund marks a completed order as refunded
func (o *Order) Refund() error {
	if o.Status != OrderStatusCompleted && o.Status != OrderStatusProcessing {
		return fmt.Errorf("%w: cannot refund order with status %s", ErrInvalidStatusTransition, o.Status)
	}
	o.Status = OrderStatusRefunded
	o.UpdatedAt = time.Now()
	return nil
}

// Hold puts a pending order on hold
func (o *Order) Hold() error {
	if o.Status != OrderStatusPending {
		return fmt.Errorf("%w: cannot hold order with status %s", ErrInvalidStatusTransition, o.Status)
	}
	o.Status = OrderStatusOnHold
	o.UpdatedAt = time.Now()
	return nil
}

// TransitionTo moves the order to status through the matching transition.
// Moving to the current status is a no-op.
func (o *Order) TransitionTo(status OrderStatus) error {
	if status == o.Status {
		return nil
	}
	switch status {
	case OrderStatusProcessing:
		return o.Process()
	case OrderStatusCompleted:
		return o.Complete()
	case OrderStatusCancelled:
		return o.Cancel()
	case OrderStatusFailed:
		return o.Fail()
	case OrderStatusRefunded:
		return o.Refund()
	case OrderStatusOnHold:
		return o.Hold()
	}
	return fmt.Errorf("%w: cannot move order back to %s", ErrInvalidStatusTransition, status)
}

// IsPending returns true if the order is in pending status
func (o *Order) IsPending() bool {
	return o.Status == OrderStatusPending
}

// IsCompleted returns true if the order is fulfilled
func (o *Order) IsCompleted() bool {
	return o.Status == OrderStatusCompleted
}

// ItemCount returns the number of units ordered
func (o *Order) ItemCount() int {
	n := 0
	for _, i := range o.Items {
		n += i.Quantity
	}
	return n
}

// GetFormattedTotal returns the total formatted as the shop shows it
func (o *Order) GetFormattedTotal() string {
	return FormatPrice(o.Total)
}
