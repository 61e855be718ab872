package seed

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/louisbranch/freshcart/internal/storage"
	"github.com/louisbranch/freshcart/internal/storage/sqlite"
)

func TestRunIsIdempotent(t *testing.T) {
	cfg := Config{
		DBPath:   filepath.Join(t.TempDir(), "seed.db"),
		Password: "freshcart-demo",
	}
	ctx := context.Background()

	if err := Run(ctx, cfg); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := Run(ctx, cfg); err != nil {
		t.Fatalf("second run: %v", err)
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	categories, err := store.ListCategories(ctx)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(categories) != len(demoCategories) {
		t.Fatalf("categories = %d, want %d", len(categories), len(demoCategories))
	}

	page, err := store.ListStores(ctx, 100, "")
	if err != nil {
		t.Fatalf("list stores: %v", err)
	}
	if len(page.Stores) != len(demoStores) {
		t.Fatalf("stores = %d, want %d", len(page.Stores), len(demoStores))
	}

	vendor, err := store.GetUserByEmail(ctx, "vendor@freshcart.dev")
	if err != nil {
		t.Fatalf("load vendor: %v", err)
	}
	if vendor.Role != storage.RoleVendor {
		t.Fatalf("role = %q, want %q", vendor.Role, storage.RoleVendor)
	}
}
