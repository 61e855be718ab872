package rest

import (
	"net/http"
)

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.Get(r.Context(), identityFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartPayload(view))
}

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

func (h *Handler) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.carts.AddItem(r.Context(), identityFrom(r), req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartPayload(view))
}

type cartQuantityRequest struct {
	Quantity int64 `json:"quantity"`
}

func (h *Handler) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartQuantityRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.carts.UpdateItem(r.Context(), identityFrom(r), r.PathValue("productID"), req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartPayload(view))
}

func (h *Handler) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.RemoveItem(r.Context(), identityFrom(r), r.PathValue("productID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartPayload(view))
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), identityFrom(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
