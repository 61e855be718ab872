package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/freshcart/internal/order"
	"github.com/louisbranch/freshcart/internal/storage"
	"github.com/louisbranch/freshcart/internal/storage/sqlite"
)

var fixtureTime = time.Date(2026, time.August, 12, 9, 30, 0, 0, time.UTC)

func seedOrder(t *testing.T, status order.Status) (*sqlite.Store, string) {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "worker.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	if err := store.CreateUser(ctx, storage.User{ID: "user-1", Email: "u@example.com", PasswordHash: "x", DisplayName: "u", Role: storage.RoleCustomer}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := store.CreateUser(ctx, storage.User{ID: "vendor-1", Email: "v@example.com", PasswordHash: "x", DisplayName: "v", Role: storage.RoleVendor}); err != nil {
		t.Fatalf("seed vendor: %v", err)
	}
	if err := store.CreateStore(ctx, storage.Store{ID: "store-1", OwnerID: "vendor-1", Name: "Corner Grocer"}); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	if err := store.CreateCategory(ctx, storage.Category{ID: "cat-1", Name: "Produce"}); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	product := storage.Product{
		ID:         "prod-1",
		StoreID:    "store-1",
		CategoryID: "cat-1",
		Name:       "Gala Apples",
		PriceCents: 349,
		Stock:      10,
	}
	if err := store.CreateProduct(ctx, product); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	record := storage.Order{
		ID:                  "order-1",
		UserID:              "user-1",
		StoreID:             "store-1",
		Status:              string(status),
		SubtotalCents:       349,
		EstimatedDeliveryAt: fixtureTime.Add(35 * time.Minute),
		CreatedAt:           fixtureTime,
		UpdatedAt:           fixtureTime,
	}
	items := []storage.OrderItem{
		{OrderID: record.ID, ProductID: product.ID, Name: product.Name, UnitPriceCents: product.PriceCents, Quantity: 1},
	}
	if err := store.CreateOrder(ctx, record, items); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return store, record.ID
}

func TestFulfillWalksToDelivered(t *testing.T) {
	t.Parallel()

	store, orderID := seedOrder(t, order.StatusPending)
	fulfiller := NewFulfiller(store, 0, func() time.Time { return fixtureTime })

	if err := fulfiller.Fulfill(context.Background(), orderID); err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	record, err := store.GetOrder(context.Background(), orderID)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if record.Status != string(order.StatusDelivered) {
		t.Fatalf("status = %q, want %q", record.Status, order.StatusDelivered)
	}
}

func TestFulfillStopsOnCancelledOrder(t *testing.T) {
	t.Parallel()

	store, orderID := seedOrder(t, order.StatusCancelled)
	fulfiller := NewFulfiller(store, 0, func() time.Time { return fixtureTime })

	if err := fulfiller.Fulfill(context.Background(), orderID); err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	record, err := store.GetOrder(context.Background(), orderID)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if record.Status != string(order.StatusCancelled) {
		t.Fatalf("status = %q, want %q", record.Status, order.StatusCancelled)
	}
}

func TestFulfillHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	store, orderID := seedOrder(t, order.StatusPending)
	fulfiller := NewFulfiller(store, time.Hour, func() time.Time { return fixtureTime })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := fulfiller.Fulfill(ctx, orderID); err == nil {
		t.Fatal("expected context error")
	}
}

func TestWaitForCancelWindow(t *testing.T) {
	t.Parallel()

	// Window already passed: returns immediately.
	if err := waitForCancelWindow(context.Background(), time.Now().Add(-time.Hour), 10*time.Minute); err != nil {
		t.Fatalf("past window: %v", err)
	}

	// Window still open: cancellation interrupts the wait.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := waitForCancelWindow(ctx, time.Now(), 10*time.Minute)
	if err == nil {
		t.Fatal("expected context error")
	}
}
