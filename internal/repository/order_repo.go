package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/ssqa/storefront/internal/database"
	"github.com/ssqa/storefront/internal/models"
)

// ErrOrderNotFound is returned when no order has the requested number
var ErrOrderNotFound = errors.New("order not found")

// Order meta keys, as WooCommerce names them
const (
	metaOrderTotal   = "_order_total"
	metaCustomerUser = "_customer_user"
	metaCurrency     = "_order_currency"
	metaBilling      = "_billing_"
)

// OrderRepository handles database operations for orders. Orders are rows of
// the posts table with their fields in postmeta, the layout the order
// cross-check reads.
type OrderRepository struct {
	db *database.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *database.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) query(q string) string {
	return r.db.Rebind(q)
}

// CreateOrder stores a new order and sets its ID, which is the order number
func (r *OrderRepository) CreateOrder(order *models.Order) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	title := "Order &ndash; " + now.Format("January 2, 2006 @ 03:04 PM")
	res, err := tx.Exec(r.query(`
		INSERT INTO `+r.db.Table("posts")+` (post_author, post_date, post_title, post_status, post_modified, post_type)
		VALUES ($1, $2, $3, $4, $5, $6)
	`), order.CustomerID, now, title, order.Status.PostStatus(), now, models.OrderPostType)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read order id: %w", err)
	}

	meta := map[string]string{
		metaOrderTotal:   models.FormatAmount(order.Total),
		metaCustomerUser: strconv.FormatInt(order.CustomerID, 10),
		metaCurrency:     order.Currency,
	}
	for field, value := range billingFields(order.Billing) {
		meta[metaBilling+field] = value
	}
	for key, value := range meta {
		if _, err := tx.Exec(r.query(`INSERT INTO `+r.db.Table("postmeta")+` (post_id, meta_key, meta_value) VALUES ($1, $2, $3)`), id, key, value); err != nil {
			return fmt.Errorf("failed to store %s: %w", key, err)
		}
	}

	for i := range order.Items {
		item := &order.Items[i]
		res, err := tx.Exec(r.query(`
			INSERT INTO `+r.db.Table("woocommerce_order_items")+` (order_id, order_item_name, product_id, quantity, line_total)
			VALUES ($1, $2, $3, $4, $5)
		`), id, item.Name, item.ProductID, item.Quantity, item.Total)
		if err != nil {
			return fmt.Errorf("failed to store order item %q: %w", item.Name, err)
		}
		if item.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read order item id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	order.ID = id
	order.CreatedAt = now
	order.UpdatedAt = now
	log.Printf("Stored order %d with %d item(s)", id, len(order.Items))
	return nil
}

// GetOrder retrieves an order with its billing details and items
func (r *OrderRepository) GetOrder(id int64) (*models.Order, error) {
	order := &models.Order{}
	var status string
	err := r.db.QueryRow(r.query(`
		SELECT ID, post_author, post_status, post_date, post_modified
		FROM `+r.db.Table("posts")+`
		WHERE ID = $1 AND post_type = $2
	`), id, models.OrderPostType).Scan(&order.ID, &order.CustomerID, &status, &order.CreatedAt, &order.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order.Status, err = models.ParseOrderStatus(status); err != nil {
		return nil, err
	}
	if err := r.loadMeta(order); err != nil {
		return nil, err
	}
	if err := r.loadItems(order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) loadMeta(order *models.Order) error {
	rows, err := r.db.Query(r.query(`SELECT meta_key, meta_value FROM `+r.db.Table("postmeta")+` WHERE post_id = $1`), order.ID)
	if err != nil {
		return fmt.Errorf("failed to get order meta: %w", err)
	}
	defer rows.Close()

	billing := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("failed to scan order meta: %w", err)
		}
		switch {
		case key == metaOrderTotal:
			if order.Total, err = models.ParseAmount(value); err != nil {
				return fmt.Errorf("order %d has a bad total: %w", order.ID, err)
			}
		case key == metaCurrency:
			order.Currency = value
		case strings.HasPrefix(key, metaBilling):
			billing[strings.TrimPrefix(key, metaBilling)] = value
		}
	}
	order.Billing = billingFromFields(billing)
	return rows.Err()
}

func (r *OrderRepository) loadItems(order *models.Order) error {
	rows, err := r.db.Query(r.query(`
		SELECT order_item_id, product_id, order_item_name, quantity, line_total
		FROM `+r.db.Table("woocommerce_order_items")+`
		WHERE order_id = $1
		ORDER BY order_item_id
	`), order.ID)
	if err != nil {
		return fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Name, &item.Quantity, &item.Total); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

// UpdateOrderStatus updates the status of an order
func (r *OrderRepository) UpdateOrderStatus(id int64, status models.OrderStatus) error {
	result, err := r.db.Exec(r.query(`
		UPDATE `+r.db.Table("posts")+`
		SET post_status = $1, post_modified = $2
		WHERE ID = $3 AND post_type = $4
	`), status.PostStatus(), time.Now().UTC(), id, models.OrderPostType)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// ListOrdersByCustomer returns a customer's orders, newest first
func (r *OrderRepository) ListOrdersByCustomer(customerID int64) ([]*models.Order, error) {
	rows, err := r.db.Query(r.query(`
		SELECT ID FROM `+r.db.Table("posts")+`
		WHERE post_author = $1 AND post_type = $2
		ORDER BY ID DESC
	`), customerID, models.OrderPostType)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan order id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]*models.Order, 0, len(ids))
	for _, id := range ids {
		order, err := r.GetOrder(id)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// GetOrderByNumber reads the raw posts row of an order, as a test checks an
// order placed through the UI landed in the store database
func (r *OrderRepository) GetOrderByNumber(orderNo int64) (database.Row, error) {
	rows, err := r.db.ReadRows(`SELECT * FROM `+r.db.Table("posts")+` WHERE ID = $1 AND post_type = '`+models.OrderPostType+`'`, orderNo)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %d: %w", orderNo, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("order %d: %w", orderNo, ErrOrderNotFound)
	}
	return rows[0], nil
}

func billingFields(b models.Billing) map[string]string {
	fields := map[string]string{
		"first_name": b.FirstName,
		"last_name":  b.LastName,
		"address_1":  b.Address1,
		"city":       b.City,
		"state":      b.State,
		"postcode":   b.Postcode,
		"country":    b.Country,
		"email":      b.Email,
		"phone":      b.Phone,
	}
	for k, v := range fields {
		if v == "" {
			delete(fields, k)
		}
	}
	return fields
}

func billingFromFields(f map[string]string) models.Billing {
	return models.Billing{
		FirstName: f["first_name"],
		LastName:  f["last_name"],
		Address1:  f["address_1"],
		City:      f["city"],
		State:     f["state"],
		Postcode:  f["postcode"],
		Country:   f["country"],
		Email:     f["email"],
		Phone:     f["phone"],
	}
}
