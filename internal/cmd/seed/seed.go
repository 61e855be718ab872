// Package seed loads demo data into a FreshCart database.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/louisbranch/freshcart/internal/auth"
	"github.com/louisbranch/freshcart/internal/catalog"
	"github.com/louisbranch/freshcart/internal/platform/config"
	apperrors "github.com/louisbranch/freshcart/internal/platform/errors"
	"github.com/louisbranch/freshcart/internal/storage"
	"github.com/louisbranch/freshcart/internal/storage/sqlite"
)

// Config holds seed command configuration.
type Config struct {
	DBPath   string `env:"FRESHCART_DB_PATH" envDefault:"freshcart.db"`
	Password string `env:"FRESHCART_SEED_PASSWORD" envDefault:"freshcart-demo"`
}

// ParseConfig loads seed configuration from the environment.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type demoProduct struct {
	name       string
	category   string
	priceCents int64
	stock      int64
}

type demoStore struct {
	name        string
	description string
	products    []demoProduct
}

var demoCategories = []string{"Produce", "Dairy", "Bakery", "Pantry"}

var demoStores = []demoStore{
	{
		name:        "Corner Grocer",
		description: "Neighborhood staples, delivered fast.",
		products: []demoProduct{
			{"Gala Apples", "Produce", 349, 120},
			{"Bananas", "Produce", 129, 200},
			{"Whole Milk 1L", "Dairy", 219, 80},
			{"Sourdough Loaf", "Bakery", 549, 30},
		},
	},
	{
		name:        "Green Basket",
		description: "Organic produce and pantry goods.",
		products: []demoProduct{
			{"Organic Spinach", "Produce", 399, 60},
			{"Oat Milk 1L", "Dairy", 449, 50},
			{"Olive Oil 500ml", "Pantry", 1299, 40},
		},
	},
}

// Run seeds demo accounts, categories, stores and products. Existing
// records are left untouched, so re-running is safe.
func Run(ctx context.Context, cfg Config) error {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close database: %v", err)
		}
	}()

	authSvc := auth.NewService(store, store, auth.TokenConfig{})
	catalogSvc := catalog.NewService(store, nil)

	vendor, err := registerOrLoad(ctx, authSvc, store, auth.RegisterRequest{
		Email:       "vendor@freshcart.dev",
		Password:    cfg.Password,
		DisplayName: "Demo Vendor",
		Role:        string(storage.RoleVendor),
	})
	if err != nil {
		return err
	}
	if _, err := registerOrLoad(ctx, authSvc, store, auth.RegisterRequest{
		Email:       "customer@freshcart.dev",
		Password:    cfg.Password,
		DisplayName: "Demo Customer",
		Role:        string(storage.RoleCustomer),
	}); err != nil {
		return err
	}

	identity := auth.Identity{UserID: vendor.ID, Role: vendor.Role}

	categories := make(map[string]string, len(demoCategories))
	existing, err := catalogSvc.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	for _, category := range existing {
		categories[category.Name] = category.ID
	}
	for _, name := range demoCategories {
		if _, ok := categories[name]; ok {
			continue
		}
		category, err := catalogSvc.CreateCategory(ctx, identity, name)
		if err != nil {
			return fmt.Errorf("seed category %s: %w", name, err)
		}
		categories[name] = category.ID
	}

	for _, demo := range demoStores {
		storefront, err := findOrCreateStore(ctx, catalogSvc, identity, demo)
		if err != nil {
			return err
		}
		page, err := catalogSvc.ListProducts(ctx, storage.ProductFilter{StoreID: storefront.ID}, catalog.MaxPageSize, "")
		if err != nil {
			return fmt.Errorf("list products for %s: %w", demo.name, err)
		}
		have := make(map[string]bool, len(page.Products))
		for _, product := range page.Products {
			have[product.Name] = true
		}
		for _, product := range demo.products {
			if have[product.name] {
				continue
			}
			_, err := catalogSvc.CreateProduct(ctx, identity, catalog.ProductInput{
				StoreID:    storefront.ID,
				CategoryID: categories[product.category],
				Name:       product.name,
				PriceCents: product.priceCents,
				Stock:      product.stock,
			})
			if err != nil {
				return fmt.Errorf("seed product %s: %w", product.name, err)
			}
		}
		log.Printf("seeded store %s (%s)", demo.name, storefront.ID)
	}
	return nil
}

func registerOrLoad(ctx context.Context, authSvc *auth.Service, store *sqlite.Store, req auth.RegisterRequest) (storage.User, error) {
	user, err := authSvc.Register(ctx, req)
	if err == nil {
		return user, nil
	}
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) && domainErr.Code == apperrors.CodeAuthEmailTaken {
		existing, loadErr := store.GetUserByEmail(ctx, req.Email)
		if loadErr != nil {
			return storage.User{}, fmt.Errorf("load user %s: %w", req.Email, loadErr)
		}
		return existing, nil
	}
	return storage.User{}, fmt.Errorf("seed user %s: %w", req.Email, err)
}

func findOrCreateStore(ctx context.Context, catalogSvc *catalog.Service, identity auth.Identity, demo demoStore) (storage.Store, error) {
	page, err := catalogSvc.ListStores(ctx, catalog.MaxPageSize, "")
	if err != nil {
		return storage.Store{}, fmt.Errorf("list stores: %w", err)
	}
	for _, record := range page.Stores {
		if record.Name == demo.name {
			return record, nil
		}
	}
	record, err := catalogSvc.CreateStore(ctx, identity, catalog.StoreInput{
		Name:        demo.name,
		Description: demo.description,
	})
	if err != nil {
		return storage.Store{}, fmt.Errorf("seed store %s: %w", demo.name, err)
	}
	return record, nil
}
