package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/louisbranch/freshcart/internal/catalog"
	apperrors "github.com/louisbranch/freshcart/internal/platform/errors"
	"github.com/louisbranch/freshcart/internal/storage"
)

// pageParams reads pageSize and pageToken query parameters.
func pageParams(r *http.Request) (int, string, error) {
	pageSize := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("pageSize")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return 0, "", apperrors.New(apperrors.CodeInvalidPageSize, "pageSize must be a non-negative integer")
		}
		pageSize = parsed
	}
	return pageSize, strings.TrimSpace(r.URL.Query().Get("pageToken")), nil
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	category, err := h.catalog.CreateCategory(r.Context(), identityFrom(r), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryPayload(category))
}

func (h *Handler) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.catalog.GetCategory(r.Context(), r.PathValue("categoryID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryPayload(category))
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	payload := struct {
		Categories []categoryPayload `json:"categories"`
	}{Categories: make([]categoryPayload, 0, len(categories))}
	for _, category := range categories {
		payload.Categories = append(payload.Categories, toCategoryPayload(category))
	}
	writeJSON(w, http.StatusOK, payload)
}

type storeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (req storeRequest) input() catalog.StoreInput {
	return catalog.StoreInput{Name: req.Name, Description: req.Description}
}

func (h *Handler) handleCreateStore(w http.ResponseWriter, r *http.Request) {
	var req storeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	record, err := h.catalog.CreateStore(r.Context(), identityFrom(r), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStorePayload(record))
}

func (h *Handler) handleGetStore(w http.ResponseWriter, r *http.Request) {
	record, err := h.catalog.GetStore(r.Context(), r.PathValue("storeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStorePayload(record))
}

func (h *Handler) handleListStores(w http.ResponseWriter, r *http.Request) {
	pageSize, pageToken, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.catalog.ListStores(r.Context(), pageSize, pageToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	payload := struct {
		Stores        []storePayload `json:"stores"`
		NextPageToken string         `json:"next_page_token,omitempty"`
	}{Stores: make([]storePayload, 0, len(page.Stores)), NextPageToken: page.NextPageToken}
	for _, record := range page.Stores {
		payload.Stores = append(payload.Stores, toStorePayload(record))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) handleUpdateStore(w http.ResponseWriter, r *http.Request) {
	var req storeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	record, err := h.catalog.UpdateStore(r.Context(), identityFrom(r), r.PathValue("storeID"), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStorePayload(record))
}

func (h *Handler) handleDeleteStore(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteStore(r.Context(), identityFrom(r), r.PathValue("storeID")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type productRequest struct {
	StoreID     string `json:"store_id"`
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Stock       int64  `json:"stock"`
}

func (req productRequest) input() catalog.ProductInput {
	return catalog.ProductInput{
		StoreID:     req.StoreID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Stock:       req.Stock,
	}
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	product, err := h.catalog.CreateProduct(r.Context(), identityFrom(r), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductPayload(product))
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), r.PathValue("productID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductPayload(product))
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	h.listProducts(w, r, storage.ProductFilter{
		StoreID:    strings.TrimSpace(r.URL.Query().Get("store")),
		CategoryID: strings.TrimSpace(r.URL.Query().Get("category")),
	})
}

func (h *Handler) handleListStoreProducts(w http.ResponseWriter, r *http.Request) {
	// The store must exist so a bad id reads as 404, not an empty page.
	if _, err := h.catalog.GetStore(r.Context(), r.PathValue("storeID")); err != nil {
		writeError(w, r, err)
		return
	}
	h.listProducts(w, r, storage.ProductFilter{
		StoreID:    r.PathValue("storeID"),
		CategoryID: strings.TrimSpace(r.URL.Query().Get("category")),
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request, filter storage.ProductFilter) {
	pageSize, pageToken, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.catalog.ListProducts(r.Context(), filter, pageSize, pageToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	payload := struct {
		Products      []productPayload `json:"products"`
		NextPageToken string           `json:"next_page_token,omitempty"`
	}{Products: make([]productPayload, 0, len(page.Products)), NextPageToken: page.NextPageToken}
	for _, product := range page.Products {
		payload.Products = append(payload.Products, toProductPayload(product))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	product, err := h.catalog.UpdateProduct(r.Context(), identityFrom(r), r.PathValue("productID"), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductPayload(product))
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteProduct(r.Context(), identityFrom(r), r.PathValue("productID")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
