package rest

import (
	"net/http"
	"strings"

	"github.com/louisbranch/freshcart/internal/order"
)

// handleCheckout places an order from the caller's cart.
func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	record, items, err := h.carts.Checkout(r.Context(), identityFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderPayload(record, items))
}

// handleListOrders lists the caller's own orders, or a store's orders when
// ?store= names a store the vendor owns.
func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	pageSize, pageToken, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	identity := identityFrom(r)
	storeID := strings.TrimSpace(r.URL.Query().Get("store"))
	var payload struct {
		Orders        []orderPayload `json:"orders"`
		NextPageToken string         `json:"next_page_token,omitempty"`
	}
	if storeID != "" {
		result, err := h.orders.ListForStore(r.Context(), identity, storeID, pageSize, pageToken)
		if err != nil {
			writeError(w, r, err)
			return
		}
		payload.NextPageToken = result.NextPageToken
		payload.Orders = make([]orderPayload, 0, len(result.Orders))
		for _, record := range result.Orders {
			payload.Orders = append(payload.Orders, toOrderPayload(record, nil))
		}
	} else {
		result, err := h.orders.ListForUser(r.Context(), identity, pageSize, pageToken)
		if err != nil {
			writeError(w, r, err)
			return
		}
		payload.NextPageToken = result.NextPageToken
		payload.Orders = make([]orderPayload, 0, len(result.Orders))
		for _, record := range result.Orders {
			payload.Orders = append(payload.Orders, toOrderPayload(record, nil))
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	record, items, err := h.orders.Get(r.Context(), identityFrom(r), r.PathValue("orderID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderPayload(record, items))
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	record, err := h.orders.Cancel(r.Context(), identityFrom(r), r.PathValue("orderID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderPayload(record, nil))
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleAdvanceOrder(w http.ResponseWriter, r *http.Request) {
	var req orderStatusRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	record, err := h.orders.Advance(r.Context(), identityFrom(r), r.PathValue("orderID"), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderPayload(record, nil))
}
