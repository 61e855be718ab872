// Package catalog manages categories, storefronts and products.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/freshcart/internal/auth"
	apperrors "github.com/louisbranch/freshcart/internal/platform/errors"
	"github.com/louisbranch/freshcart/internal/platform/id"
	"github.com/louisbranch/freshcart/internal/storage"
)

// Page size bounds for catalog listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service provides catalog operations with ownership enforcement.
type Service struct {
	store storage.CatalogStore
	now   func() time.Time
}

// NewService builds a catalog service over the given store.
func NewService(store storage.CatalogStore, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// ClampPageSize normalizes a requested page size into the allowed range.
func ClampPageSize(pageSize int) int {
	if pageSize <= 0 {
		return DefaultPageSize
	}
	if pageSize > MaxPageSize {
		return MaxPageSize
	}
	return pageSize
}

// CreateCategory registers a new product category. Vendor only.
func (s *Service) CreateCategory(ctx context.Context, identity auth.Identity, name string) (storage.Category, error) {
	if s == nil || s.store == nil {
		return storage.Category{}, fmt.Errorf("catalog service is not configured")
	}
	if !identity.IsVendor() {
		return storage.Category{}, apperrors.New(apperrors.CodeAuthForbidden, "only vendors manage categories")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.Category{}, apperrors.New(apperrors.CodeCategoryNameEmpty, "category name is required")
	}

	categoryID, err := id.NewID()
	if err != nil {
		return storage.Category{}, fmt.Errorf("generate category id: %w", err)
	}
	now := s.now().UTC()
	category := storage.Category{ID: categoryID, Name: name, CreatedAt: now, UpdatedAt: now}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return storage.Category{}, apperrors.New(apperrors.CodeCategoryNameTaken, "category name is taken")
		}
		return storage.Category{}, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

// GetCategory returns one category.
func (s *Service) GetCategory(ctx context.Context, categoryID string) (storage.Category, error) {
	if s == nil || s.store == nil {
		return storage.Category{}, fmt.Errorf("catalog service is not configured")
	}
	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Category{}, apperrors.New(apperrors.CodeNotFound, "category not found")
		}
		return storage.Category{}, fmt.Errorf("get category: %w", err)
	}
	return category, nil
}

// ListCategories returns every category.
func (s *Service) ListCategories(ctx context.Context) ([]storage.Category, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("catalog service is not configured")
	}
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// StoreInput carries the mutable fields of a storefront.
type StoreInput struct {
	Name        string
	Description string
}

// CreateStore opens a new storefront owned by the calling vendor.
func (s *Service) CreateStore(ctx context.Context, identity auth.Identity, input StoreInput) (storage.Store, error) {
	if s == nil || s.store == nil {
		return storage.Store{}, fmt.Errorf("catalog service is not configured")
	}
	if !identity.IsVendor() {
		return storage.Store{}, apperrors.New(apperrors.CodeAuthForbidden, "only vendors open stores")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return storage.Store{}, apperrors.New(apperrors.CodeStoreNameEmpty, "store name is required")
	}

	storeID, err := id.NewID()
	if err != nil {
		return storage.Store{}, fmt.Errorf("generate store id: %w", err)
	}
	now := s.now().UTC()
	record := storage.Store{
		ID:          storeID,
		OwnerID:     identity.UserID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateStore(ctx, record); err != nil {
		return storage.Store{}, fmt.Errorf("create store: %w", err)
	}
	return record, nil
}

// GetStore returns one storefront.
func (s *Service) GetStore(ctx context.Context, storeID string) (storage.Store, error) {
	if s == nil || s.store == nil {
		return storage.Store{}, fmt.Errorf("catalog service is not configured")
	}
	record, err := s.store.GetStore(ctx, storeID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Store{}, apperrors.New(apperrors.CodeNotFound, "store not found")
		}
		return storage.Store{}, fmt.Errorf("get store: %w", err)
	}
	return record, nil
}

// ListStores returns one page of storefronts.
func (s *Service) ListStores(ctx context.Context, pageSize int, pageToken string) (storage.StorePage, error) {
	if s == nil || s.store == nil {
		return storage.StorePage{}, fmt.Errorf("catalog service is not configured")
	}
	page, err := s.store.ListStores(ctx, ClampPageSize(pageSize), pageToken)
	if err != nil {
		return storage.StorePage{}, fmt.Errorf("list stores: %w", err)
	}
	return page, nil
}

// UpdateStore rewrites a storefront. Owner only.
func (s *Service) UpdateStore(ctx context.Context, identity auth.Identity, storeID string, input StoreInput) (storage.Store, error) {
	record, err := s.requireOwnedStore(ctx, identity, storeID)
	if err != nil {
		return storage.Store{}, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return storage.Store{}, apperrors.New(apperrors.CodeStoreNameEmpty, "store name is required")
	}

	record.Name = name
	record.Description = strings.TrimSpace(input.Description)
	record.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateStore(ctx, record); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Store{}, apperrors.New(apperrors.CodeNotFound, "store not found")
		}
		return storage.Store{}, fmt.Errorf("update store: %w", err)
	}
	return record, nil
}

// DeleteStore removes a storefront and its products. Owner only. Stores
// with order history cannot be removed.
func (s *Service) DeleteStore(ctx context.Context, identity auth.Identity, storeID string) error {
	if _, err := s.requireOwnedStore(ctx, identity, storeID); err != nil {
		return err
	}
	if err := s.store.DeleteStore(ctx, storeID); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return apperrors.New(apperrors.CodeNotFound, "store not found")
		case errors.Is(err, storage.ErrInUse):
			return apperrors.New(apperrors.CodeStoreInUse, "store has order history")
		}
		return fmt.Errorf("delete store: %w", err)
	}
	return nil
}

// ProductInput carries the mutable fields of a product.
type ProductInput struct {
	StoreID     string
	CategoryID  string
	Name        string
	Description string
	PriceCents  int64
	Stock       int64
}

// CreateProduct adds a product to a storefront. Store owner only.
func (s *Service) CreateProduct(ctx context.Context, identity auth.Identity, input ProductInput) (storage.Product, error) {
	if _, err := s.requireOwnedStore(ctx, identity, input.StoreID); err != nil {
		return storage.Product{}, err
	}
	if err := s.validateProductInput(ctx, input); err != nil {
		return storage.Product{}, err
	}

	productID, err := id.NewID()
	if err != nil {
		return storage.Product{}, fmt.Errorf("generate product id: %w", err)
	}
	now := s.now().UTC()
	product := storage.Product{
		ID:          productID,
		StoreID:     strings.TrimSpace(input.StoreID),
		CategoryID:  strings.TrimSpace(input.CategoryID),
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		PriceCents:  input.PriceCents,
		Stock:       input.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return storage.Product{}, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// GetProduct returns one product.
func (s *Service) GetProduct(ctx context.Context, productID string) (storage.Product, error) {
	if s == nil || s.store == nil {
		return storage.Product{}, fmt.Errorf("catalog service is not configured")
	}
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Product{}, apperrors.New(apperrors.CodeNotFound, "product not found")
		}
		return storage.Product{}, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// ListProducts returns one page of products matching the filter.
func (s *Service) ListProducts(ctx context.Context, filter storage.ProductFilter, pageSize int, pageToken string) (storage.ProductPage, error) {
	if s == nil || s.store == nil {
		return storage.ProductPage{}, fmt.Errorf("catalog service is not configured")
	}
	page, err := s.store.ListProducts(ctx, filter, ClampPageSize(pageSize), pageToken)
	if err != nil {
		return storage.ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	return page, nil
}

// UpdateProduct rewrites a product. Store owner only.
func (s *Service) UpdateProduct(ctx context.Context, identity auth.Identity, productID string, input ProductInput) (storage.Product, error) {
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return storage.Product{}, err
	}
	if _, err := s.requireOwnedStore(ctx, identity, product.StoreID); err != nil {
		return storage.Product{}, err
	}
	input.StoreID = product.StoreID
	if strings.TrimSpace(input.CategoryID) == "" {
		input.CategoryID = product.CategoryID
	}
	if err := s.validateProductInput(ctx, input); err != nil {
		return storage.Product{}, err
	}

	product.CategoryID = strings.TrimSpace(input.CategoryID)
	product.Name = strings.TrimSpace(input.Name)
	product.Description = strings.TrimSpace(input.Description)
	product.PriceCents = input.PriceCents
	product.Stock = input.Stock
	product.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateProduct(ctx, product); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Product{}, apperrors.New(apperrors.CodeNotFound, "product not found")
		}
		return storage.Product{}, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

// DeleteProduct removes a product. Store owner only.
func (s *Service) DeleteProduct(ctx context.Context, identity auth.Identity, productID string) error {
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if _, err := s.requireOwnedStore(ctx, identity, product.StoreID); err != nil {
		return err
	}
	if err := s.store.DeleteProduct(ctx, productID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "product not found")
		}
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (s *Service) requireOwnedStore(ctx context.Context, identity auth.Identity, storeID string) (storage.Store, error) {
	if s == nil || s.store == nil {
		return storage.Store{}, fmt.Errorf("catalog service is not configured")
	}
	if strings.TrimSpace(storeID) == "" {
		return storage.Store{}, apperrors.New(apperrors.CodeProductStoreEmpty, "store id is required")
	}
	record, err := s.GetStore(ctx, storeID)
	if err != nil {
		return storage.Store{}, err
	}
	if !identity.IsVendor() || record.OwnerID != identity.UserID {
		return storage.Store{}, apperrors.New(apperrors.CodeAuthForbidden, "store belongs to another vendor")
	}
	return record, nil
}

func (s *Service) validateProductInput(ctx context.Context, input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return apperrors.New(apperrors.CodeProductNameEmpty, "product name is required")
	}
	if input.PriceCents <= 0 {
		return apperrors.New(apperrors.CodeProductInvalidPrice, "product price must be greater than zero")
	}
	if input.Stock < 0 {
		return apperrors.New(apperrors.CodeProductInvalidStock, "product stock must not be negative")
	}
	categoryID := strings.TrimSpace(input.CategoryID)
	if categoryID == "" {
		return apperrors.New(apperrors.CodeProductCategoryEmpty, "product category is required")
	}
	if _, err := s.GetCategory(ctx, categoryID); err != nil {
		return err
	}
	return nil
}
