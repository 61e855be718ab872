package cart

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/freshcart/internal/auth"
	"github.com/louisbranch/freshcart/internal/order"
	apperrors "github.com/louisbranch/freshcart/internal/platform/errors"
	"github.com/louisbranch/freshcart/internal/storage"
	"github.com/louisbranch/freshcart/internal/storage/sqlite"
)

var fixtureTime = time.Date(2026, time.August, 12, 9, 30, 0, 0, time.UTC)

type fixture struct {
	service  *Service
	store    *sqlite.Store
	customer auth.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "cart.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	users := []storage.User{
		{ID: "customer-1", Email: "customer-1@example.com", PasswordHash: "x", DisplayName: "customer-1", Role: storage.RoleCustomer},
		{ID: "vendor-1", Email: "vendor-1@example.com", PasswordHash: "x", DisplayName: "vendor-1", Role: storage.RoleVendor},
	}
	for _, user := range users {
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("seed user %s: %v", user.ID, err)
		}
	}
	if err := store.CreateCategory(ctx, storage.Category{ID: "cat-1", Name: "Produce"}); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	stores := []storage.Store{
		{ID: "store-1", OwnerID: "vendor-1", Name: "Corner Grocer"},
		{ID: "store-2", OwnerID: "vendor-1", Name: "Other Grocer"},
	}
	for _, record := range stores {
		if err := store.CreateStore(ctx, record); err != nil {
			t.Fatalf("seed store %s: %v", record.ID, err)
		}
	}
	products := []storage.Product{
		{ID: "prod-1", StoreID: "store-1", CategoryID: "cat-1", Name: "Gala Apples", PriceCents: 349, Stock: 10},
		{ID: "prod-2", StoreID: "store-1", CategoryID: "cat-1", Name: "Bananas", PriceCents: 129, Stock: 10},
		{ID: "prod-3", StoreID: "store-2", CategoryID: "cat-1", Name: "Oat Milk", PriceCents: 499, Stock: 10},
	}
	for _, product := range products {
		if err := store.CreateProduct(ctx, product); err != nil {
			t.Fatalf("seed product %s: %v", product.ID, err)
		}
	}

	now := func() time.Time { return fixtureTime }
	orders := order.NewService(store, store, nil, now)
	return &fixture{
		service:  NewService(NewMemoryStore(), store, orders, now),
		store:    store,
		customer: auth.Identity{UserID: "customer-1", Role: storage.RoleCustomer},
	}
}

func TestAddItemMergesQuantities(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.AddItem(ctx, f.customer, "prod-1", 2); err != nil {
		t.Fatalf("add item: %v", err)
	}
	view, err := f.service.AddItem(ctx, f.customer, "prod-1", 3)
	if err != nil {
		t.Fatalf("add item again: %v", err)
	}
	if len(view.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(view.Lines))
	}
	if view.Lines[0].Quantity != 5 {
		t.Fatalf("quantity = %d, want 5", view.Lines[0].Quantity)
	}
	if view.SubtotalCents != 5*349 {
		t.Fatalf("subtotal = %d, want %d", view.SubtotalCents, 5*349)
	}
	if view.StoreID != "store-1" {
		t.Fatalf("store = %q, want %q", view.StoreID, "store-1")
	}
}

func TestAddItemRejectsOtherStore(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.AddItem(ctx, f.customer, "prod-1", 1); err != nil {
		t.Fatalf("add item: %v", err)
	}
	_, err := f.service.AddItem(ctx, f.customer, "prod-3", 1)
	if got := apperrors.CodeOf(err); got != apperrors.CodeCartStoreMismatch {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeCartStoreMismatch)
	}
}

func TestAddItemValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.AddItem(ctx, f.customer, "prod-1", 0)
	if got := apperrors.CodeOf(err); got != apperrors.CodeCartQuantityInvalid {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeCartQuantityInvalid)
	}

	_, err = f.service.AddItem(ctx, f.customer, "ghost", 1)
	if got := apperrors.CodeOf(err); got != apperrors.CodeNotFound {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeNotFound)
	}

	if _, err := f.service.AddItem(ctx, f.customer, "prod-1", MaxLineQuantity); err != nil {
		t.Fatalf("add at limit: %v", err)
	}
	_, err = f.service.AddItem(ctx, f.customer, "prod-1", 1)
	if got := apperrors.CodeOf(err); got != apperrors.CodeCartQuantityInvalid {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeCartQuantityInvalid)
	}
}

func TestUpdateItem(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.AddItem(ctx, f.customer, "prod-1", 2); err != nil {
		t.Fatalf("add item: %v", err)
	}

	view, err := f.service.UpdateItem(ctx, f.customer, "prod-1", 7)
	if err != nil {
		t.Fatalf("update item: %v", err)
	}
	if view.Lines[0].Quantity != 7 {
		t.Fatalf("quantity = %d, want 7", view.Lines[0].Quantity)
	}

	_, err = f.service.UpdateItem(ctx, f.customer, "prod-2", 1)
	if got := apperrors.CodeOf(err); got != apperrors.CodeNotFound {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeNotFound)
	}

	// Zero quantity removes the line; the emptied cart loses its store
	// binding so another store can be used next.
	view, err = f.service.UpdateItem(ctx, f.customer, "prod-1", 0)
	if err != nil {
		t.Fatalf("remove via update: %v", err)
	}
	if len(view.Lines) != 0 {
		t.Fatalf("lines = %d, want 0", len(view.Lines))
	}
	if _, err := f.service.AddItem(ctx, f.customer, "prod-3", 1); err != nil {
		t.Fatalf("add from other store after empty: %v", err)
	}
}

func TestClearCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.AddItem(ctx, f.customer, "prod-1", 2); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := f.service.Clear(ctx, f.customer); err != nil {
		t.Fatalf("clear: %v", err)
	}
	view, err := f.service.Get(ctx, f.customer)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(view.Lines) != 0 || view.StoreID != "" {
		t.Fatalf("view = %+v, want empty", view)
	}
}

func TestCheckout(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.AddItem(ctx, f.customer, "prod-1", 2); err != nil {
		t.Fatalf("add apples: %v", err)
	}
	if _, err := f.service.AddItem(ctx, f.customer, "prod-2", 1); err != nil {
		t.Fatalf("add bananas: %v", err)
	}

	record, items, err := f.service.Checkout(ctx, f.customer)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if record.SubtotalCents != 2*349+129 {
		t.Fatalf("subtotal = %d, want %d", record.SubtotalCents, 2*349+129)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	for _, item := range items {
		if item.Name == "" || item.UnitPriceCents == 0 {
			t.Fatalf("item %s missing snapshot: %+v", item.ProductID, item)
		}
	}

	product, err := f.store.GetProduct(ctx, "prod-1")
	if err != nil {
		t.Fatalf("load product: %v", err)
	}
	if product.Stock != 8 {
		t.Fatalf("stock = %d, want 8", product.Stock)
	}

	view, err := f.service.Get(ctx, f.customer)
	if err != nil {
		t.Fatalf("get after checkout: %v", err)
	}
	if len(view.Lines) != 0 {
		t.Fatalf("cart not cleared: %+v", view)
	}

	_, _, err = f.service.Checkout(ctx, f.customer)
	if got := apperrors.CodeOf(err); got != apperrors.CodeCartEmpty {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeCartEmpty)
	}
}

func TestCheckoutInsufficientStockKeepsCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.AddItem(ctx, f.customer, "prod-1", 11); err != nil {
		t.Fatalf("add item: %v", err)
	}
	_, _, err := f.service.Checkout(ctx, f.customer)
	if got := apperrors.CodeOf(err); got != apperrors.CodeProductInsufficientStock {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeProductInsufficientStock)
	}

	view, err := f.service.Get(ctx, f.customer)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(view.Lines) != 1 {
		t.Fatalf("cart was cleared on failed checkout: %+v", view)
	}
}

func TestMemoryStoreCopiesItems(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	store.Put(Cart{UserID: "u", StoreID: "s", Items: []Item{{ProductID: "p", Quantity: 1}}})

	cart, ok := store.Get("u")
	if !ok {
		t.Fatal("cart missing")
	}
	cart.Items[0].Quantity = 50

	again, _ := store.Get("u")
	if again.Items[0].Quantity != 1 {
		t.Fatalf("stored cart mutated: quantity = %d", again.Items[0].Quantity)
	}

	store.Delete("u")
	if _, ok := store.Get("u"); ok {
		t.Fatal("cart not deleted")
	}
}
