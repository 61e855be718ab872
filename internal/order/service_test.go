package order

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/freshcart/internal/auth"
	"github.com/louisbranch/freshcart/internal/events"
	apperrors "github.com/louisbranch/freshcart/internal/platform/errors"
	"github.com/louisbranch/freshcart/internal/storage"
	"github.com/louisbranch/freshcart/internal/storage/sqlite"
)

var serviceFixtureTime = time.Date(2026, time.August, 12, 9, 30, 0, 0, time.UTC)

type capturePublisher struct {
	mu     sync.Mutex
	placed []events.OrderPlaced
	status []events.OrderStatusChanged
}

func (p *capturePublisher) PublishOrderPlaced(_ context.Context, msg events.OrderPlaced) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed = append(p.placed, msg)
	return nil
}

func (p *capturePublisher) PublishOrderStatusChanged(_ context.Context, msg events.OrderStatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = append(p.status, msg)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

type serviceFixture struct {
	service   *Service
	store     *sqlite.Store
	publisher *capturePublisher
	clock     *movableClock
	customer  auth.Identity
	vendor    auth.Identity
	storeID   string
	productID string
}

type movableClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *movableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *movableClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "orders.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	seedUser := func(userID string, role storage.Role) auth.Identity {
		err := store.CreateUser(ctx, storage.User{
			ID:           userID,
			Email:        userID + "@example.com",
			PasswordHash: "x",
			DisplayName:  userID,
			Role:         role,
		})
		if err != nil {
			t.Fatalf("seed user %s: %v", userID, err)
		}
		return auth.Identity{UserID: userID, Role: role}
	}
	customer := seedUser("customer-1", storage.RoleCustomer)
	vendor := seedUser("vendor-1", storage.RoleVendor)

	if err := store.CreateCategory(ctx, storage.Category{ID: "cat-1", Name: "Produce"}); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	err = store.CreateStore(ctx, storage.Store{
		ID:      "store-1",
		OwnerID: vendor.UserID,
		Name:    "Corner Grocer",
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
	err = store.CreateProduct(ctx, storage.Product{
		ID:         "prod-1",
		StoreID:    "store-1",
		CategoryID: "cat-1",
		Name:       "Gala Apples",
		PriceCents: 349,
		Stock:      10,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}

	publisher := &capturePublisher{}
	clock := &movableClock{now: serviceFixtureTime}
	return &serviceFixture{
		service:   NewService(store, store, publisher, clock.Now),
		store:     store,
		publisher: publisher,
		clock:     clock,
		customer:  customer,
		vendor:    vendor,
		storeID:   "store-1",
		productID: "prod-1",
	}
}

func (f *serviceFixture) place(t *testing.T, quantity int64) storage.Order {
	t.Helper()
	record, _, err := f.service.Place(context.Background(), f.customer, f.storeID, []Line{
		{ProductID: f.productID, Name: "Gala Apples", UnitPriceCents: 349, Quantity: quantity},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	return record
}

func TestPlaceOrder(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	record := f.place(t, 2)

	if record.Status != string(StatusPending) {
		t.Fatalf("status = %q, want %q", record.Status, StatusPending)
	}
	if record.SubtotalCents != 698 {
		t.Fatalf("subtotal = %d, want 698", record.SubtotalCents)
	}
	wantETA := serviceFixtureTime.Add(35 * time.Minute)
	if !record.EstimatedDeliveryAt.Equal(wantETA) {
		t.Fatalf("eta = %v, want %v", record.EstimatedDeliveryAt, wantETA)
	}

	product, err := f.store.GetProduct(context.Background(), f.productID)
	if err != nil {
		t.Fatalf("load product: %v", err)
	}
	if product.Stock != 8 {
		t.Fatalf("stock = %d, want 8", product.Stock)
	}

	if len(f.publisher.placed) != 1 || f.publisher.placed[0].OrderID != record.ID {
		t.Fatalf("placed events = %+v", f.publisher.placed)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()

	_, _, err := f.service.Place(ctx, f.customer, f.storeID, nil)
	if got := apperrors.CodeOf(err); got != apperrors.CodeOrderNoItems {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeOrderNoItems)
	}

	_, _, err = f.service.Place(ctx, f.customer, f.storeID, []Line{
		{ProductID: f.productID, Name: "Gala Apples", UnitPriceCents: 349, Quantity: 0},
	})
	if got := apperrors.CodeOf(err); got != apperrors.CodeCartQuantityInvalid {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeCartQuantityInvalid)
	}

	_, _, err = f.service.Place(ctx, f.customer, f.storeID, []Line{
		{ProductID: f.productID, Name: "Gala Apples", UnitPriceCents: 349, Quantity: 11},
	})
	if got := apperrors.CodeOf(err); got != apperrors.CodeProductInsufficientStock {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeProductInsufficientStock)
	}
}

func TestGetOrderAuthorization(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()
	record := f.place(t, 1)

	if _, _, err := f.service.Get(ctx, f.customer, record.ID); err != nil {
		t.Fatalf("get as owner: %v", err)
	}
	if _, _, err := f.service.Get(ctx, f.vendor, record.ID); err != nil {
		t.Fatalf("get as store vendor: %v", err)
	}

	err := f.store.CreateUser(ctx, storage.User{
		ID:           "customer-2",
		Email:        "customer-2@example.com",
		PasswordHash: "x",
		DisplayName:  "customer-2",
		Role:         storage.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	stranger := auth.Identity{UserID: "customer-2", Role: storage.RoleCustomer}
	_, _, err = f.service.Get(ctx, stranger, record.ID)
	if got := apperrors.CodeOf(err); got != apperrors.CodeAuthForbidden {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeAuthForbidden)
	}

	_, _, err = f.service.Get(ctx, f.customer, "missing")
	if got := apperrors.CodeOf(err); got != apperrors.CodeNotFound {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeNotFound)
	}
}

func TestCancelWithinWindow(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	record := f.place(t, 1)

	f.clock.Advance(9*time.Minute + 59*time.Second)
	cancelled, err := f.service.Cancel(context.Background(), f.customer, record.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != string(StatusCancelled) {
		t.Fatalf("status = %q, want %q", cancelled.Status, StatusCancelled)
	}
	if cancelled.CancelledAt.IsZero() {
		t.Fatal("cancelled_at is zero")
	}
	if len(f.publisher.status) != 1 || f.publisher.status[0].To != string(StatusCancelled) {
		t.Fatalf("status events = %+v", f.publisher.status)
	}
}

func TestCancelAfterWindowCloses(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	record := f.place(t, 1)

	f.clock.Advance(10 * time.Minute)
	_, err := f.service.Cancel(context.Background(), f.customer, record.ID)
	if got := apperrors.CodeOf(err); got != apperrors.CodeOrderCancelWindowClosed {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeOrderCancelWindowClosed)
	}
}

func TestCancelRequiresPendingAndOwner(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()
	record := f.place(t, 1)

	_, err := f.service.Cancel(ctx, f.vendor, record.ID)
	if got := apperrors.CodeOf(err); got != apperrors.CodeAuthForbidden {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeAuthForbidden)
	}

	if _, err := f.service.Advance(ctx, f.vendor, record.ID, StatusProcessing); err != nil {
		t.Fatalf("advance: %v", err)
	}
	_, err = f.service.Cancel(ctx, f.customer, record.ID)
	if got := apperrors.CodeOf(err); got != apperrors.CodeOrderInvalidStatusTransition {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeOrderInvalidStatusTransition)
	}
}

func TestAdvanceStatus(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()
	record := f.place(t, 1)

	for _, to := range []Status{StatusProcessing, StatusOutForDelivery, StatusDelivered} {
		advanced, err := f.service.Advance(ctx, f.vendor, record.ID, to)
		if err != nil {
			t.Fatalf("advance to %s: %v", to, err)
		}
		if advanced.Status != string(to) {
			t.Fatalf("status = %q, want %q", advanced.Status, to)
		}
	}
	if len(f.publisher.status) != 3 {
		t.Fatalf("status events = %d, want 3", len(f.publisher.status))
	}

	_, err := f.service.Advance(ctx, f.vendor, record.ID, StatusDelivered)
	if got := apperrors.CodeOf(err); got != apperrors.CodeOrderInvalidStatusTransition {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeOrderInvalidStatusTransition)
	}
}

func TestAdvanceRejectsSkipsAndNonOwners(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()
	record := f.place(t, 1)

	_, err := f.service.Advance(ctx, f.vendor, record.ID, StatusDelivered)
	if got := apperrors.CodeOf(err); got != apperrors.CodeOrderInvalidStatusTransition {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeOrderInvalidStatusTransition)
	}

	_, err = f.service.Advance(ctx, f.customer, record.ID, StatusProcessing)
	if got := apperrors.CodeOf(err); got != apperrors.CodeAuthForbidden {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeAuthForbidden)
	}
}

func TestListOrders(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()
	f.place(t, 1)
	f.place(t, 2)

	page, err := f.service.ListForUser(ctx, f.customer, 1, "")
	if err != nil {
		t.Fatalf("list for user: %v", err)
	}
	if len(page.Orders) != 1 || page.NextPageToken == "" {
		t.Fatalf("page = %+v", page)
	}

	rest, err := f.service.ListForUser(ctx, f.customer, 10, page.NextPageToken)
	if err != nil {
		t.Fatalf("list next page: %v", err)
	}
	if len(rest.Orders) != 1 || rest.NextPageToken != "" {
		t.Fatalf("rest = %+v", rest)
	}

	storePage, err := f.service.ListForStore(ctx, f.vendor, f.storeID, 10, "")
	if err != nil {
		t.Fatalf("list for store: %v", err)
	}
	if len(storePage.Orders) != 2 {
		t.Fatalf("store orders = %d, want 2", len(storePage.Orders))
	}

	_, err = f.service.ListForStore(ctx, f.customer, f.storeID, 10, "")
	if got := apperrors.CodeOf(err); got != apperrors.CodeAuthForbidden {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeAuthForbidden)
	}
}
