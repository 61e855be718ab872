package rest

import (
	"time"

	"github.com/louisbranch/freshcart/internal/cart"
	"github.com/louisbranch/freshcart/internal/storage"
)

type userPayload struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUserPayload(user storage.User) userPayload {
	return userPayload{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		CreatedAt:   user.CreatedAt,
	}
}

type categoryPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func toCategoryPayload(category storage.Category) categoryPayload {
	return categoryPayload{ID: category.ID, Name: category.Name}
}

type storePayload struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toStorePayload(record storage.Store) storePayload {
	return storePayload{
		ID:          record.ID,
		OwnerID:     record.OwnerID,
		Name:        record.Name,
		Description: record.Description,
		CreatedAt:   record.CreatedAt,
	}
}

type productPayload struct {
	ID          string    `json:"id"`
	StoreID     string    `json:"store_id"`
	CategoryID  string    `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"price_cents"`
	Stock       int64     `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
}

func toProductPayload(product storage.Product) productPayload {
	return productPayload{
		ID:          product.ID,
		StoreID:     product.StoreID,
		CategoryID:  product.CategoryID,
		Name:        product.Name,
		Description: product.Description,
		PriceCents:  product.PriceCents,
		Stock:       product.Stock,
		CreatedAt:   product.CreatedAt,
	}
}

type cartLinePayload struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int64  `json:"quantity"`
	LineTotalCents int64  `json:"line_total_cents"`
}

type cartPayload struct {
	StoreID       string            `json:"store_id,omitempty"`
	Lines         []cartLinePayload `json:"lines"`
	SubtotalCents int64             `json:"subtotal_cents"`
}

func toCartPayload(view cart.View) cartPayload {
	payload := cartPayload{
		StoreID:       view.StoreID,
		Lines:         make([]cartLinePayload, 0, len(view.Lines)),
		SubtotalCents: view.SubtotalCents,
	}
	for _, line := range view.Lines {
		payload.Lines = append(payload.Lines, cartLinePayload{
			ProductID:      line.ProductID,
			Name:           line.Name,
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       line.Quantity,
			LineTotalCents: line.LineTotalCents,
		})
	}
	return payload
}

type orderItemPayload struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int64  `json:"quantity"`
}

type orderPayload struct {
	ID                  string             `json:"id"`
	UserID              string             `json:"user_id"`
	StoreID             string             `json:"store_id"`
	Status              string             `json:"status"`
	SubtotalCents       int64              `json:"subtotal_cents"`
	EstimatedDeliveryAt time.Time          `json:"estimated_delivery_at"`
	CancelledAt         time.Time          `json:"cancelled_at,omitzero"`
	CreatedAt           time.Time          `json:"created_at"`
	Items               []orderItemPayload `json:"items,omitempty"`
}

func toOrderPayload(record storage.Order, items []storage.OrderItem) orderPayload {
	payload := orderPayload{
		ID:                  record.ID,
		UserID:              record.UserID,
		StoreID:             record.StoreID,
		Status:              record.Status,
		SubtotalCents:       record.SubtotalCents,
		EstimatedDeliveryAt: record.EstimatedDeliveryAt,
		CancelledAt:         record.CancelledAt,
		CreatedAt:           record.CreatedAt,
	}
	for _, item := range items {
		payload.Items = append(payload.Items, orderItemPayload{
			ProductID:      item.ProductID,
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
		})
	}
	return payload
}
