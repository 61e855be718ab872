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

// CreateCategory inserts one category record.
func (s *Store) CreateCategory(ctx context.Context, category storage.Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	categoryID := strings.TrimSpace(category.ID)
	name := strings.TrimSpace(category.Name)
	if categoryID == "" {
		return fmt.Errorf("category id is required")
	}
	if name == "" {
		return fmt.Errorf("category name is required")
	}
	createdAt, updatedAt := normalizeTimestamps(category.CreatedAt, category.UpdatedAt)

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO categories (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		categoryID,
		name,
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// GetCategory returns one category by ID.
func (s *Store) GetCategory(ctx context.Context, id string) (storage.Category, error) {
	if err := ctx.Err(); err != nil {
		return storage.Category{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Category{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.Category{}, fmt.Errorf("category id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, name, created_at, updated_at FROM categories WHERE id = ?`,
		id,
	)
	var category storage.Category
	var createdAt int64
	var updatedAt int64
	if err := row.Scan(&category.ID, &category.Name, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Category{}, storage.ErrNotFound
		}
		return storage.Category{}, fmt.Errorf("get category: %w", err)
	}
	category.CreatedAt = fromMillis(createdAt)
	category.UpdatedAt = fromMillis(updatedAt)
	return category, nil
}

// ListCategories returns every category ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]storage.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, name, created_at, updated_at FROM categories ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []storage.Category
	for rows.Next() {
		var category storage.Category
		var createdAt int64
		var updatedAt int64
		if err := rows.Scan(&category.ID, &category.Name, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		category.CreatedAt = fromMillis(createdAt)
		category.UpdatedAt = fromMillis(updatedAt)
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// CreateStore inserts one storefront record.
func (s *Store) CreateStore(ctx context.Context, store storage.Store) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	storeID := strings.TrimSpace(store.ID)
	ownerID := strings.TrimSpace(store.OwnerID)
	name := strings.TrimSpace(store.Name)
	if storeID == "" {
		return fmt.Errorf("store id is required")
	}
	if ownerID == "" {
		return fmt.Errorf("store owner id is required")
	}
	if name == "" {
		return fmt.Errorf("store name is required")
	}
	createdAt, updatedAt := normalizeTimestamps(store.CreatedAt, store.UpdatedAt)

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO stores (id, owner_id, name, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		storeID,
		ownerID,
		name,
		strings.TrimSpace(store.Description),
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create store: %w", err)
	}
	return nil
}

// GetStore returns one storefront by ID.
func (s *Store) GetStore(ctx context.Context, id string) (storage.Store, error) {
	if err := ctx.Err(); err != nil {
		return storage.Store{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Store{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.Store{}, fmt.Errorf("store id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, owner_id, name, description, created_at, updated_at
		   FROM stores WHERE id = ?`,
		id,
	)
	var store storage.Store
	var createdAt int64
	var updatedAt int64
	err := row.Scan(&store.ID, &store.OwnerID, &store.Name, &store.Description, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Store{}, storage.ErrNotFound
		}
		return storage.Store{}, fmt.Errorf("get store: %w", err)
	}
	store.CreatedAt = fromMillis(createdAt)
	store.UpdatedAt = fromMillis(updatedAt)
	return store, nil
}

// ListStores returns one page of storefront records ordered by ID.
func (s *Store) ListStores(ctx context.Context, pageSize int, pageToken string) (storage.StorePage, error) {
	if err := ctx.Err(); err != nil {
		return storage.StorePage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.StorePage{}, fmt.Errorf("storage is not configured")
	}
	if pageSize <= 0 {
		return storage.StorePage{}, fmt.Errorf("page size must be greater than zero")
	}
	pageToken = strings.TrimSpace(pageToken)

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, owner_id, name, description, created_at, updated_at
		   FROM stores
		  WHERE id > ?
		  ORDER BY id ASC
		  LIMIT ?`,
		pageToken,
		pageSize+1,
	)
	if err != nil {
		return storage.StorePage{}, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()

	page := storage.StorePage{Stores: make([]storage.Store, 0, pageSize)}
	for rows.Next() {
		var store storage.Store
		var createdAt int64
		var updatedAt int64
		if err := rows.Scan(&store.ID, &store.OwnerID, &store.Name, &store.Description, &createdAt, &updatedAt); err != nil {
			return storage.StorePage{}, fmt.Errorf("list stores: %w", err)
		}
		store.CreatedAt = fromMillis(createdAt)
		store.UpdatedAt = fromMillis(updatedAt)
		page.Stores = append(page.Stores, store)
	}
	if err := rows.Err(); err != nil {
		return storage.StorePage{}, fmt.Errorf("list stores: %w", err)
	}
	if len(page.Stores) > pageSize {
		page.NextPageToken = page.Stores[pageSize-1].ID
		page.Stores = page.Stores[:pageSize]
	}
	return page, nil
}

// UpdateStore rewrites the mutable fields of one storefront record.
func (s *Store) UpdateStore(ctx context.Context, store storage.Store) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	storeID := strings.TrimSpace(store.ID)
	name := strings.TrimSpace(store.Name)
	if storeID == "" {
		return fmt.Errorf("store id is required")
	}
	if name == "" {
		return fmt.Errorf("store name is required")
	}
	updatedAt := store.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE stores SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		name,
		strings.TrimSpace(store.Description),
		toMillis(updatedAt),
		storeID,
	)
	if err != nil {
		return fmt.Errorf("update store: %w", err)
	}
	return requireAffected(result, storage.ErrNotFound)
}

// DeleteStore removes one storefront record.
func (s *Store) DeleteStore(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("store id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM stores WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrInUse
		}
		return fmt.Errorf("delete store: %w", err)
	}
	return requireAffected(result, storage.ErrNotFound)
}

// CreateProduct inserts one product record.
func (s *Store) CreateProduct(ctx context.Context, product storage.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	productID := strings.TrimSpace(product.ID)
	storeID := strings.TrimSpace(product.StoreID)
	categoryID := strings.TrimSpace(product.CategoryID)
	name := strings.TrimSpace(product.Name)
	if productID == "" {
		return fmt.Errorf("product id is required")
	}
	if storeID == "" {
		return fmt.Errorf("product store id is required")
	}
	if categoryID == "" {
		return fmt.Errorf("product category id is required")
	}
	if name == "" {
		return fmt.Errorf("product name is required")
	}
	if product.PriceCents <= 0 {
		return fmt.Errorf("product price must be greater than zero")
	}
	if product.Stock < 0 {
		return fmt.Errorf("product stock must not be negative")
	}
	createdAt, updatedAt := normalizeTimestamps(product.CreatedAt, product.UpdatedAt)

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO products (id, store_id, category_id, name, description, price_cents, stock, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		productID,
		storeID,
		categoryID,
		name,
		strings.TrimSpace(product.Description),
		product.PriceCents,
		product.Stock,
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// GetProduct returns one product by ID.
func (s *Store) GetProduct(ctx context.Context, id string) (storage.Product, error) {
	if err := ctx.Err(); err != nil {
		return storage.Product{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Product{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.Product{}, fmt.Errorf("product id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, store_id, category_id, name, description, price_cents, stock, created_at, updated_at
		   FROM products WHERE id = ?`,
		id,
	)
	var product storage.Product
	var createdAt int64
	var updatedAt int64
	err := row.Scan(
		&product.ID,
		&product.StoreID,
		&product.CategoryID,
		&product.Name,
		&product.Description,
		&product.PriceCents,
		&product.Stock,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Product{}, storage.ErrNotFound
		}
		return storage.Product{}, fmt.Errorf("get product: %w", err)
	}
	product.CreatedAt = fromMillis(createdAt)
	product.UpdatedAt = fromMillis(updatedAt)
	return product, nil
}

// ListProducts returns one page of product records matching the filter,
// ordered by ID.
func (s *Store) ListProducts(ctx context.Context, filter storage.ProductFilter, pageSize int, pageToken string) (storage.ProductPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.ProductPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ProductPage{}, fmt.Errorf("storage is not configured")
	}
	if pageSize <= 0 {
		return storage.ProductPage{}, fmt.Errorf("page size must be greater than zero")
	}

	query := `SELECT id, store_id, category_id, name, description, price_cents, stock, created_at, updated_at
	   FROM products
	  WHERE id > ?`
	args := []any{strings.TrimSpace(pageToken)}
	if storeID := strings.TrimSpace(filter.StoreID); storeID != "" {
		query += " AND store_id = ?"
		args = append(args, storeID)
	}
	if categoryID := strings.TrimSpace(filter.CategoryID); categoryID != "" {
		query += " AND category_id = ?"
		args = append(args, categoryID)
	}
	query += " ORDER BY id ASC LIMIT ?"
	args = append(args, pageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return storage.ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	page := storage.ProductPage{Products: make([]storage.Product, 0, pageSize)}
	for rows.Next() {
		var product storage.Product
		var createdAt int64
		var updatedAt int64
		if err := rows.Scan(
			&product.ID,
			&product.StoreID,
			&product.CategoryID,
			&product.Name,
			&product.Description,
			&product.PriceCents,
			&product.Stock,
			&createdAt,
			&updatedAt,
		); err != nil {
			return storage.ProductPage{}, fmt.Errorf("list products: %w", err)
		}
		product.CreatedAt = fromMillis(createdAt)
		product.UpdatedAt = fromMillis(updatedAt)
		page.Products = append(page.Products, product)
	}
	if err := rows.Err(); err != nil {
		return storage.ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	if len(page.Products) > pageSize {
		page.NextPageToken = page.Products[pageSize-1].ID
		page.Products = page.Products[:pageSize]
	}
	return page, nil
}

// UpdateProduct rewrites the mutable fields of one product record.
func (s *Store) UpdateProduct(ctx context.Context, product storage.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	productID := strings.TrimSpace(product.ID)
	name := strings.TrimSpace(product.Name)
	if productID == "" {
		return fmt.Errorf("product id is required")
	}
	if name == "" {
		return fmt.Errorf("product name is required")
	}
	if product.PriceCents <= 0 {
		return fmt.Errorf("product price must be greater than zero")
	}
	if product.Stock < 0 {
		return fmt.Errorf("product stock must not be negative")
	}
	updatedAt := product.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE products
		    SET category_id = ?, name = ?, description = ?, price_cents = ?, stock = ?, updated_at = ?
		  WHERE id = ?`,
		strings.TrimSpace(product.CategoryID),
		name,
		strings.TrimSpace(product.Description),
		product.PriceCents,
		product.Stock,
		toMillis(updatedAt),
		productID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return requireAffected(result, storage.ErrNotFound)
}

// DeleteProduct removes one product record.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("product id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return requireAffected(result, storage.ErrNotFound)
}

func normalizeTimestamps(createdAt, updatedAt time.Time) (time.Time, time.Time) {
	createdAt = createdAt.UTC()
	updatedAt = updatedAt.UTC()
	if createdAt.IsZero() && updatedAt.IsZero() {
		createdAt = time.Now().UTC()
		updatedAt = createdAt
		return createdAt, updatedAt
	}
	if createdAt.IsZero() {
		createdAt = updatedAt
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	return createdAt, updatedAt
}

func requireAffected(result sql.Result, missing error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return missing
	}
	return nil
}
