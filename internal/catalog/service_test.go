package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/freshcart/internal/auth"
	apperrors "github.com/louisbranch/freshcart/internal/platform/errors"
	"github.com/louisbranch/freshcart/internal/storage"
	"github.com/louisbranch/freshcart/internal/storage/sqlite"
)

var fixtureTime = time.Date(2026, time.August, 12, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewService(store, func() time.Time { return fixtureTime }), store
}

func seedIdentity(t *testing.T, store *sqlite.Store, userID string, role storage.Role) auth.Identity {
	t.Helper()
	err := store.CreateUser(context.Background(), storage.User{
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

func TestCreateCategoryRequiresVendor(t *testing.T) {
	t.Parallel()

	service, store := newTestService(t)
	customer := seedIdentity(t, store, "customer-1", storage.RoleCustomer)

	_, err := service.CreateCategory(context.Background(), customer, "Produce")
	if got := apperrors.CodeOf(err); got != apperrors.CodeAuthForbidden {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeAuthForbidden)
	}
}

func TestCategoryLifecycle(t *testing.T) {
	t.Parallel()

	service, store := newTestService(t)
	vendor := seedIdentity(t, store, "vendor-1", storage.RoleVendor)

	category, err := service.CreateCategory(context.Background(), vendor, "  Produce ")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if category.Name != "Produce" {
		t.Fatalf("name = %q, want trimmed %q", category.Name, "Produce")
	}

	_, err = service.CreateCategory(context.Background(), vendor, "Produce")
	if got := apperrors.CodeOf(err); got != apperrors.CodeCategoryNameTaken {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeCategoryNameTaken)
	}

	_, err = service.CreateCategory(context.Background(), vendor, "  ")
	if got := apperrors.CodeOf(err); got != apperrors.CodeCategoryNameEmpty {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeCategoryNameEmpty)
	}

	categories, err := service.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(categories) != 1 {
		t.Fatalf("len = %d, want 1", len(categories))
	}
}

func TestStoreOwnershipEnforcement(t *testing.T) {
	t.Parallel()

	service, store := newTestService(t)
	owner := seedIdentity(t, store, "vendor-1", storage.RoleVendor)
	rival := seedIdentity(t, store, "vendor-2", storage.RoleVendor)

	created, err := service.CreateStore(context.Background(), owner, StoreInput{Name: "Corner Grocer"})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	_, err = service.UpdateStore(context.Background(), rival, created.ID, StoreInput{Name: "Hijacked"})
	if got := apperrors.CodeOf(err); got != apperrors.CodeAuthForbidden {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeAuthForbidden)
	}
	err = service.DeleteStore(context.Background(), rival, created.ID)
	if got := apperrors.CodeOf(err); got != apperrors.CodeAuthForbidden {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeAuthForbidden)
	}

	updated, err := service.UpdateStore(context.Background(), owner, created.ID, StoreInput{Name: "Corner Grocer & Deli"})
	if err != nil {
		t.Fatalf("update store: %v", err)
	}
	if updated.Name != "Corner Grocer & Deli" {
		t.Fatalf("name = %q", updated.Name)
	}

	if err := service.DeleteStore(context.Background(), owner, created.ID); err != nil {
		t.Fatalf("delete store: %v", err)
	}
	_, err = service.GetStore(context.Background(), created.ID)
	if got := apperrors.CodeOf(err); got != apperrors.CodeNotFound {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeNotFound)
	}
}

func TestProductLifecycle(t *testing.T) {
	t.Parallel()

	service, store := newTestService(t)
	vendor := seedIdentity(t, store, "vendor-1", storage.RoleVendor)

	created, err := service.CreateStore(context.Background(), vendor, StoreInput{Name: "Corner Grocer"})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	category, err := service.CreateCategory(context.Background(), vendor, "Produce")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	product, err := service.CreateProduct(context.Background(), vendor, ProductInput{
		StoreID:    created.ID,
		CategoryID: category.ID,
		Name:       "Gala Apples",
		PriceCents: 349,
		Stock:      40,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	page, err := service.ListProducts(context.Background(), storage.ProductFilter{StoreID: created.ID}, 0, "")
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(page.Products) != 1 {
		t.Fatalf("len = %d, want 1", len(page.Products))
	}

	updated, err := service.UpdateProduct(context.Background(), vendor, product.ID, ProductInput{
		Name:       "Gala Apples",
		PriceCents: 299,
		Stock:      35,
	})
	if err != nil {
		t.Fatalf("update product: %v", err)
	}
	if updated.PriceCents != 299 || updated.CategoryID != category.ID {
		t.Fatalf("updated = %+v", updated)
	}

	if err := service.DeleteProduct(context.Background(), vendor, product.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	_, err = service.GetProduct(context.Background(), product.ID)
	if got := apperrors.CodeOf(err); got != apperrors.CodeNotFound {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeNotFound)
	}
}

func TestCreateProductValidation(t *testing.T) {
	t.Parallel()

	service, store := newTestService(t)
	vendor := seedIdentity(t, store, "vendor-1", storage.RoleVendor)
	created, err := service.CreateStore(context.Background(), vendor, StoreInput{Name: "Corner Grocer"})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	category, err := service.CreateCategory(context.Background(), vendor, "Produce")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	tests := []struct {
		name  string
		input ProductInput
		code  apperrors.Code
	}{
		{"empty name", ProductInput{StoreID: created.ID, CategoryID: category.ID, PriceCents: 100}, apperrors.CodeProductNameEmpty},
		{"zero price", ProductInput{StoreID: created.ID, CategoryID: category.ID, Name: "Eggs"}, apperrors.CodeProductInvalidPrice},
		{"negative stock", ProductInput{StoreID: created.ID, CategoryID: category.ID, Name: "Eggs", PriceCents: 100, Stock: -1}, apperrors.CodeProductInvalidStock},
		{"missing category", ProductInput{StoreID: created.ID, Name: "Eggs", PriceCents: 100}, apperrors.CodeProductCategoryEmpty},
		{"unknown category", ProductInput{StoreID: created.ID, CategoryID: "ghost", Name: "Eggs", PriceCents: 100}, apperrors.CodeNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := service.CreateProduct(context.Background(), vendor, tc.input)
			if got := apperrors.CodeOf(err); got != tc.code {
				t.Fatalf("code = %q, want %q", got, tc.code)
			}
		})
	}
}

func TestClampPageSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultPageSize},
		{-5, DefaultPageSize},
		{7, 7},
		{100, 100},
		{500, MaxPageSize},
	}
	for _, tc := range tests {
		if got := ClampPageSize(tc.in); got != tc.want {
			t.Fatalf("clamp(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
