package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/freshcart/internal/auth"
	"github.com/louisbranch/freshcart/internal/events"
	apperrors "github.com/louisbranch/freshcart/internal/platform/errors"
	"github.com/louisbranch/freshcart/internal/platform/id"
	"github.com/louisbranch/freshcart/internal/storage"
)

// Line is one product line of an order being placed. Name and price are
// snapshots taken from the catalog at placement time.
type Line struct {
	ProductID      string
	Name           string
	UnitPriceCents int64
	Quantity       int64
}

// Service provides order lifecycle operations.
type Service struct {
	orders    storage.OrderStore
	catalog   storage.CatalogStore
	publisher events.Publisher
	now       func() time.Time
}

// NewService builds an order service over the given stores. A nil publisher
// disables event emission.
func NewService(orders storage.OrderStore, catalog storage.CatalogStore, publisher events.Publisher, now func() time.Time) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		orders:    orders,
		catalog:   catalog,
		publisher: publisher,
		now:       now,
	}
}

// Place creates a pending order for the given lines, decrementing stock.
func (s *Service) Place(ctx context.Context, identity auth.Identity, storeID string, lines []Line) (storage.Order, []storage.OrderItem, error) {
	if s == nil || s.orders == nil {
		return storage.Order{}, nil, fmt.Errorf("order service is not configured")
	}
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return storage.Order{}, nil, apperrors.New(apperrors.CodeProductStoreEmpty, "store id is required")
	}
	if len(lines) == 0 {
		return storage.Order{}, nil, apperrors.New(apperrors.CodeOrderNoItems, "order has no items")
	}

	orderID, err := id.NewID()
	if err != nil {
		return storage.Order{}, nil, fmt.Errorf("generate order id: %w", err)
	}
	now := s.now().UTC()

	var subtotal int64
	items := make([]storage.OrderItem, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return storage.Order{}, nil, apperrors.New(apperrors.CodeCartQuantityInvalid, "line quantity must be greater than zero")
		}
		subtotal += line.UnitPriceCents * line.Quantity
		items = append(items, storage.OrderItem{
			OrderID:        orderID,
			ProductID:      line.ProductID,
			Name:           line.Name,
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       line.Quantity,
		})
	}

	record := storage.Order{
		ID:                  orderID,
		UserID:              identity.UserID,
		StoreID:             storeID,
		Status:              string(StatusPending),
		SubtotalCents:       subtotal,
		EstimatedDeliveryAt: EstimateDelivery(now, len(items)),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.orders.CreateOrder(ctx, record, items); err != nil {
		if errors.Is(err, storage.ErrInsufficientStock) {
			return storage.Order{}, nil, apperrors.New(apperrors.CodeProductInsufficientStock, "a product is out of stock")
		}
		return storage.Order{}, nil, fmt.Errorf("create order: %w", err)
	}

	s.publishPlaced(ctx, record, items)
	return record, items, nil
}

// Get returns one order with its items. Customers see their own orders,
// vendors the orders of their stores.
func (s *Service) Get(ctx context.Context, identity auth.Identity, orderID string) (storage.Order, []storage.OrderItem, error) {
	record, err := s.load(ctx, orderID)
	if err != nil {
		return storage.Order{}, nil, err
	}
	if err := s.authorize(ctx, identity, record); err != nil {
		return storage.Order{}, nil, err
	}
	items, err := s.orders.GetOrderItems(ctx, record.ID)
	if err != nil {
		return storage.Order{}, nil, fmt.Errorf("load order items: %w", err)
	}
	return record, items, nil
}

// ListForUser returns one page of the caller's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, identity auth.Identity, pageSize int, pageToken string) (storage.OrderPage, error) {
	if s == nil || s.orders == nil {
		return storage.OrderPage{}, fmt.Errorf("order service is not configured")
	}
	page, err := s.orders.ListOrdersByUser(ctx, identity.UserID, clampPageSize(pageSize), pageToken)
	if err != nil {
		return storage.OrderPage{}, fmt.Errorf("list orders: %w", err)
	}
	return page, nil
}

// ListForStore returns one page of a store's orders for its owner.
func (s *Service) ListForStore(ctx context.Context, identity auth.Identity, storeID string, pageSize int, pageToken string) (storage.OrderPage, error) {
	if s == nil || s.orders == nil || s.catalog == nil {
		return storage.OrderPage{}, fmt.Errorf("order service is not configured")
	}
	store, err := s.catalog.GetStore(ctx, storeID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.OrderPage{}, apperrors.New(apperrors.CodeNotFound, "store not found")
		}
		return storage.OrderPage{}, fmt.Errorf("load store: %w", err)
	}
	if !identity.IsVendor() || store.OwnerID != identity.UserID {
		return storage.OrderPage{}, apperrors.New(apperrors.CodeAuthForbidden, "store belongs to another vendor")
	}
	page, err := s.orders.ListOrdersByStore(ctx, storeID, clampPageSize(pageSize), pageToken)
	if err != nil {
		return storage.OrderPage{}, fmt.Errorf("list store orders: %w", err)
	}
	return page, nil
}

// Cancel cancels a pending order within the cancellation window.
func (s *Service) Cancel(ctx context.Context, identity auth.Identity, orderID string) (storage.Order, error) {
	record, err := s.load(ctx, orderID)
	if err != nil {
		return storage.Order{}, err
	}
	if record.UserID != identity.UserID {
		return storage.Order{}, apperrors.New(apperrors.CodeAuthForbidden, "order belongs to another customer")
	}

	now := s.now().UTC()
	status := Status(record.Status)
	if status != StatusPending {
		return storage.Order{}, apperrors.WithMetadata(apperrors.CodeOrderInvalidStatusTransition, "only pending orders can be cancelled", map[string]string{
			"status": record.Status,
		})
	}
	if !Cancellable(status, record.CreatedAt, now) {
		return storage.Order{}, apperrors.New(apperrors.CodeOrderCancelWindowClosed, "cancellation window has closed")
	}

	err = s.orders.UpdateOrderStatus(ctx, record.ID, string(StatusPending), string(StatusCancelled), now, now)
	if err != nil {
		if errors.Is(err, storage.ErrStaleStatus) {
			return storage.Order{}, apperrors.New(apperrors.CodeOrderInvalidStatusTransition, "order status changed concurrently")
		}
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Order{}, apperrors.New(apperrors.CodeNotFound, "order not found")
		}
		return storage.Order{}, fmt.Errorf("cancel order: %w", err)
	}

	s.publishStatusChanged(ctx, record, StatusPending, StatusCancelled, now)
	record.Status = string(StatusCancelled)
	record.CancelledAt = now
	record.UpdatedAt = now
	return record, nil
}

// Advance moves an order one step forward in fulfilment. Store owner only.
func (s *Service) Advance(ctx context.Context, identity auth.Identity, orderID string, to Status) (storage.Order, error) {
	record, err := s.load(ctx, orderID)
	if err != nil {
		return storage.Order{}, err
	}
	store, err := s.catalog.GetStore(ctx, record.StoreID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Order{}, apperrors.New(apperrors.CodeNotFound, "store not found")
		}
		return storage.Order{}, fmt.Errorf("load store: %w", err)
	}
	if !identity.IsVendor() || store.OwnerID != identity.UserID {
		return storage.Order{}, apperrors.New(apperrors.CodeAuthForbidden, "order belongs to another vendor")
	}

	from := Status(record.Status)
	if !CanAdvance(from, to) {
		return storage.Order{}, apperrors.WithMetadata(apperrors.CodeOrderInvalidStatusTransition, "disallowed status transition", map[string]string{
			"from": string(from),
			"to":   string(to),
		})
	}

	now := s.now().UTC()
	err = s.orders.UpdateOrderStatus(ctx, record.ID, string(from), string(to), now, time.Time{})
	if err != nil {
		if errors.Is(err, storage.ErrStaleStatus) {
			return storage.Order{}, apperrors.New(apperrors.CodeOrderInvalidStatusTransition, "order status changed concurrently")
		}
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Order{}, apperrors.New(apperrors.CodeNotFound, "order not found")
		}
		return storage.Order{}, fmt.Errorf("advance order: %w", err)
	}

	s.publishStatusChanged(ctx, record, from, to, now)
	record.Status = string(to)
	record.UpdatedAt = now
	return record, nil
}

func (s *Service) load(ctx context.Context, orderID string) (storage.Order, error) {
	if s == nil || s.orders == nil {
		return storage.Order{}, fmt.Errorf("order service is not configured")
	}
	record, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Order{}, apperrors.New(apperrors.CodeNotFound, "order not found")
		}
		return storage.Order{}, fmt.Errorf("load order: %w", err)
	}
	return record, nil
}

func (s *Service) authorize(ctx context.Context, identity auth.Identity, record storage.Order) error {
	if record.UserID == identity.UserID {
		return nil
	}
	if identity.IsVendor() {
		store, err := s.catalog.GetStore(ctx, record.StoreID)
		if err == nil && store.OwnerID == identity.UserID {
			return nil
		}
	}
	return apperrors.New(apperrors.CodeAuthForbidden, "order belongs to another customer")
}

// Event emission is fire-and-forget: a broker outage must not fail the
// customer request.
func (s *Service) publishPlaced(ctx context.Context, record storage.Order, items []storage.OrderItem) {
	msg := events.OrderPlaced{
		OrderID:             record.ID,
		UserID:              record.UserID,
		StoreID:             record.StoreID,
		SubtotalCents:       record.SubtotalCents,
		EstimatedDeliveryAt: record.EstimatedDeliveryAt,
		PlacedAt:            record.CreatedAt,
	}
	for _, item := range items {
		msg.Items = append(msg.Items, events.OrderPlacedItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
		})
	}
	if err := s.publisher.PublishOrderPlaced(ctx, msg); err != nil {
		log.Printf("publish order placed %s: %v", record.ID, err)
	}
}

func (s *Service) publishStatusChanged(ctx context.Context, record storage.Order, from, to Status, at time.Time) {
	err := s.publisher.PublishOrderStatusChanged(ctx, events.OrderStatusChanged{
		OrderID:   record.ID,
		StoreID:   record.StoreID,
		From:      string(from),
		To:        string(to),
		ChangedAt: at,
	})
	if err != nil {
		log.Printf("publish order status %s: %v", record.ID, err)
	}
}

func clampPageSize(pageSize int) int {
	const defaultPageSize = 20
	const maxPageSize = 100
	if pageSize <= 0 {
		return defaultPageSize
	}
	if pageSize > maxPageSize {
		return maxPageSize
	}
	return pageSize
}
