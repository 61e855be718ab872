package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/freshcart/internal/storage"
)

// CreateOrder inserts the order and its items and decrements product stock
// in one transaction.
func (s *Store) CreateOrder(ctx context.Context, order storage.Order, items []storage.OrderItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	orderID := strings.TrimSpace(order.ID)
	userID := strings.TrimSpace(order.UserID)
	storeID := strings.TrimSpace(order.StoreID)
	if orderID == "" {
		return fmt.Errorf("order id is required")
	}
	if userID == "" {
		return fmt.Errorf("order user id is required")
	}
	if storeID == "" {
		return fmt.Errorf("order store id is required")
	}
	if strings.TrimSpace(order.Status) == "" {
		return fmt.Errorf("order status is required")
	}
	if len(items) == 0 {
		return fmt.Errorf("order items are required")
	}
	createdAt, updatedAt := normalizeTimestamps(order.CreatedAt, order.UpdatedAt)

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create order: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO orders (id, user_id, store_id, status, subtotal_cents, estimated_delivery_at, cancelled_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		orderID,
		userID,
		storeID,
		order.Status,
		order.SubtotalCents,
		toMillis(order.EstimatedDeliveryAt),
		toMillis(order.CancelledAt),
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create order: %w", err)
	}

	for _, item := range items {
		productID := strings.TrimSpace(item.ProductID)
		if productID == "" {
			return fmt.Errorf("order item product id is required")
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("order item quantity must be greater than zero")
		}

		result, err := tx.ExecContext(
			ctx,
			`UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?`,
			item.Quantity,
			productID,
			item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("decrement stock for %s: %w", productID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("decrement stock rows: %w", err)
		}
		if affected == 0 {
			return storage.ErrInsufficientStock
		}

		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO order_items (order_id, product_id, name, unit_price_cents, quantity)
			 VALUES (?, ?, ?, ?, ?)`,
			orderID,
			productID,
			strings.TrimSpace(item.Name),
			item.UnitPriceCents,
			item.Quantity,
		); err != nil {
			return fmt.Errorf("create order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}
	return nil
}

// GetOrder returns one order by ID.
func (s *Store) GetOrder(ctx context.Context, id string) (storage.Order, error) {
	if err := ctx.Err(); err != nil {
		return storage.Order{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Order{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.Order{}, fmt.Errorf("order id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, user_id, store_id, status, subtotal_cents, estimated_delivery_at, cancelled_at, created_at, updated_at
		   FROM orders WHERE id = ?`,
		id,
	)
	order, err := scanOrder(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Order{}, storage.ErrNotFound
		}
		return storage.Order{}, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// GetOrderItems returns every line of one order.
func (s *Store) GetOrderItems(ctx context.Context, orderID string) ([]storage.OrderItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("order id is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT order_id, product_id, name, unit_price_cents, quantity
		   FROM order_items WHERE order_id = ? ORDER BY product_id ASC`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []storage.OrderItem
	for rows.Next() {
		var item storage.OrderItem
		if err := rows.Scan(&item.OrderID, &item.ProductID, &item.Name, &item.UnitPriceCents, &item.Quantity); err != nil {
			return nil, fmt.Errorf("get order items: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	return items, nil
}

// ListOrdersByUser returns one page of a customer's orders, newest first.
func (s *Store) ListOrdersByUser(ctx context.Context, userID string, pageSize int, pageToken string) (storage.OrderPage, error) {
	return s.listOrders(ctx, "user_id", userID, pageSize, pageToken)
}

// ListOrdersByStore returns one page of a storefront's orders, newest first.
func (s *Store) ListOrdersByStore(ctx context.Context, storeID string, pageSize int, pageToken string) (storage.OrderPage, error) {
	return s.listOrders(ctx, "store_id", storeID, pageSize, pageToken)
}

func (s *Store) listOrders(ctx context.Context, column, value string, pageSize int, pageToken string) (storage.OrderPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.OrderPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.OrderPage{}, fmt.Errorf("storage is not configured")
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return storage.OrderPage{}, fmt.Errorf("%s is required", column)
	}
	if pageSize <= 0 {
		return storage.OrderPage{}, fmt.Errorf("page size must be greater than zero")
	}
	pageToken = strings.TrimSpace(pageToken)

	// Keyset on descending id keeps ordering stable without an offset.
	query := `SELECT id, user_id, store_id, status, subtotal_cents, estimated_delivery_at, cancelled_at, created_at, updated_at
	   FROM orders
	  WHERE ` + column + ` = ?`
	args := []any{value}
	if pageToken != "" {
		query += " AND id < ?"
		args = append(args, pageToken)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, pageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return storage.OrderPage{}, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	page := storage.OrderPage{Orders: make([]storage.Order, 0, pageSize)}
	for rows.Next() {
		order, err := scanOrder(rows.Scan)
		if err != nil {
			return storage.OrderPage{}, fmt.Errorf("list orders: %w", err)
		}
		page.Orders = append(page.Orders, order)
	}
	if err := rows.Err(); err != nil {
		return storage.OrderPage{}, fmt.Errorf("list orders: %w", err)
	}
	if len(page.Orders) > pageSize {
		page.NextPageToken = page.Orders[pageSize-1].ID
		page.Orders = page.Orders[:pageSize]
	}
	return page, nil
}

// UpdateOrderStatus moves an order between statuses with an optimistic
// guard on the expected current status.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID, fromStatus, toStatus string, at time.Time, cancelledAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return fmt.Errorf("order id is required")
	}
	if strings.TrimSpace(fromStatus) == "" || strings.TrimSpace(toStatus) == "" {
		return fmt.Errorf("order status is required")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE orders SET status = ?, cancelled_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		toStatus,
		toMillis(cancelledAt),
		toMillis(at),
		orderID,
		fromStatus,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status rows: %w", err)
	}
	if affected == 0 {
		if _, err := s.GetOrder(ctx, orderID); err != nil {
			return err
		}
		return storage.ErrStaleStatus
	}
	return nil
}

func scanOrder(scan func(dest ...any) error) (storage.Order, error) {
	var order storage.Order
	var estimatedDeliveryAt int64
	var cancelledAt int64
	var createdAt int64
	var updatedAt int64
	err := scan(
		&order.ID,
		&order.UserID,
		&order.StoreID,
		&order.Status,
		&order.SubtotalCents,
		&estimatedDeliveryAt,
		&cancelledAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return storage.Order{}, err
	}
	order.EstimatedDeliveryAt = fromMillis(estimatedDeliveryAt)
	order.CancelledAt = fromMillis(cancelledAt)
	order.CreatedAt = fromMillis(createdAt)
	order.UpdatedAt = fromMillis(updatedAt)
	return order, nil
}
