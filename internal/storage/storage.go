// Package storage defines persistence contracts for marketplace state.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrInsufficientStock indicates a stock decrement would go below zero.
	ErrInsufficientStock = errors.New("insufficient product stock")
	// ErrStaleStatus indicates an order status update lost a concurrent race.
	ErrStaleStatus = errors.New("order status changed concurrently")
	// ErrInUse indicates a record is still referenced by other records.
	ErrInUse = errors.New("record is referenced by other records")
)

// Role identifies what a user account is allowed to manage.
type Role string

const (
	// RoleCustomer places orders.
	RoleCustomer Role = "customer"
	// RoleVendor owns stores and fulfils orders.
	RoleVendor Role = "vendor"
)

// User stores one account record.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session stores one login session record. RevokedAt is zero while active.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	RevokedAt time.Time
	CreatedAt time.Time
}

// Category stores one product category record.
type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store stores one vendor storefront record.
type Store struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Product stores one product record. Prices are integer cents.
type Product struct {
	ID          string
	StoreID     string
	CategoryID  string
	Name        string
	Description string
	PriceCents  int64
	Stock       int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Order stores one purchase record. CancelledAt is zero unless cancelled.
type Order struct {
	ID                  string
	UserID              string
	StoreID             string
	Status              string
	SubtotalCents       int64
	EstimatedDeliveryAt time.Time
	CancelledAt         time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// OrderItem stores one order line with name and price snapshotted at
// placement time.
type OrderItem struct {
	OrderID        string
	ProductID      string
	Name           string
	UnitPriceCents int64
	Quantity       int64
}

// StorePage stores one page of storefront records.
type StorePage struct {
	Stores        []Store
	NextPageToken string
}

// ProductPage stores one page of product records.
type ProductPage struct {
	Products      []Product
	NextPageToken string
}

// OrderPage stores one page of order records.
type OrderPage struct {
	Orders        []Order
	NextPageToken string
}

// ProductFilter narrows product listings. Empty fields match everything.
type ProductFilter struct {
	StoreID    string
	CategoryID string
}

// UserStore persists account records.
type UserStore interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// SessionStore persists login session records.
type SessionStore interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	RevokeSession(ctx context.Context, id string, revokedAt time.Time) error
}

// CatalogStore persists categories, storefronts and products.
type CatalogStore interface {
	CreateCategory(ctx context.Context, category Category) error
	GetCategory(ctx context.Context, id string) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)

	CreateStore(ctx context.Context, store Store) error
	GetStore(ctx context.Context, id string) (Store, error)
	ListStores(ctx context.Context, pageSize int, pageToken string) (StorePage, error)
	UpdateStore(ctx context.Context, store Store) error
	DeleteStore(ctx context.Context, id string) error

	CreateProduct(ctx context.Context, product Product) error
	GetProduct(ctx context.Context, id string) (Product, error)
	ListProducts(ctx context.Context, filter ProductFilter, pageSize int, pageToken string) (ProductPage, error)
	UpdateProduct(ctx context.Context, product Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// OrderStore persists orders and their line items.
type OrderStore interface {
	// CreateOrder inserts the order and its items and decrements product
	// stock in one transaction. Returns ErrInsufficientStock when any line
	// exceeds the available stock.
	CreateOrder(ctx context.Context, order Order, items []OrderItem) error
	GetOrder(ctx context.Context, id string) (Order, error)
	GetOrderItems(ctx context.Context, orderID string) ([]OrderItem, error)
	ListOrdersByUser(ctx context.Context, userID string, pageSize int, pageToken string) (OrderPage, error)
	ListOrdersByStore(ctx context.Context, storeID string, pageSize int, pageToken string) (OrderPage, error)
	// UpdateOrderStatus moves an order from one status to another, guarded
	// by the expected current status. Returns ErrStaleStatus when the
	// stored status no longer matches.
	UpdateOrderStatus(ctx context.Context, orderID, fromStatus, toStatus string, at time.Time, cancelledAt time.Time) error
}
