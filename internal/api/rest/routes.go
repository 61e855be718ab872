package rest

import (
	"net/http"

	"github.com/louisbranch/freshcart/internal/auth"
	"github.com/louisbranch/freshcart/internal/cart"
	"github.com/louisbranch/freshcart/internal/catalog"
	"github.com/louisbranch/freshcart/internal/order"
	"github.com/louisbranch/freshcart/internal/platform/httpx"
)

// Handler aggregates the services behind the HTTP surface.
type Handler struct {
	auth    *auth.Service
	catalog *catalog.Service
	carts   *cart.Service
	orders  *order.Service
}

// NewHandler builds the routed API handler with the shared middleware stack.
func NewHandler(authSvc *auth.Service, catalogSvc *catalog.Service, cartSvc *cart.Service, orderSvc *order.Service) http.Handler {
	h := &Handler{
		auth:    authSvc,
		catalog: catalogSvc,
		carts:   cartSvc,
		orders:  orderSvc,
	}

	mux := http.NewServeMux()

	mux.HandleFunc(http.MethodGet+" /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc(http.MethodPost+" /api/auth/register", h.handleRegister)
	mux.HandleFunc(http.MethodPost+" /api/auth/login", h.handleLogin)
	mux.HandleFunc(http.MethodPost+" /api/auth/logout", h.handleLogout)
	mux.HandleFunc(http.MethodGet+" /api/auth/me", h.requireAuth(h.handleMe))

	mux.HandleFunc(http.MethodGet+" /api/categories", h.handleListCategories)
	mux.HandleFunc(http.MethodPost+" /api/categories", h.requireAuth(h.handleCreateCategory))
	mux.HandleFunc(http.MethodGet+" /api/categories/{categoryID}", h.handleGetCategory)

	mux.HandleFunc(http.MethodGet+" /api/stores", h.handleListStores)
	mux.HandleFunc(http.MethodPost+" /api/stores", h.requireAuth(h.handleCreateStore))
	mux.HandleFunc(http.MethodGet+" /api/stores/{storeID}", h.handleGetStore)
	mux.HandleFunc(http.MethodPut+" /api/stores/{storeID}", h.requireAuth(h.handleUpdateStore))
	mux.HandleFunc(http.MethodDelete+" /api/stores/{storeID}", h.requireAuth(h.handleDeleteStore))
	mux.HandleFunc(http.MethodGet+" /api/stores/{storeID}/products", h.handleListStoreProducts)

	mux.HandleFunc(http.MethodGet+" /api/products", h.handleListProducts)
	mux.HandleFunc(http.MethodPost+" /api/products", h.requireAuth(h.handleCreateProduct))
	mux.HandleFunc(http.MethodGet+" /api/products/{productID}", h.handleGetProduct)
	mux.HandleFunc(http.MethodPut+" /api/products/{productID}", h.requireAuth(h.handleUpdateProduct))
	mux.HandleFunc(http.MethodDelete+" /api/products/{productID}", h.requireAuth(h.handleDeleteProduct))

	mux.HandleFunc(http.MethodGet+" /api/cart", h.requireAuth(h.handleGetCart))
	mux.HandleFunc(http.MethodPost+" /api/cart/items", h.requireAuth(h.handleAddCartItem))
	mux.HandleFunc(http.MethodPut+" /api/cart/items/{productID}", h.requireAuth(h.handleUpdateCartItem))
	mux.HandleFunc(http.MethodDelete+" /api/cart/items/{productID}", h.requireAuth(h.handleRemoveCartItem))
	mux.HandleFunc(http.MethodDelete+" /api/cart", h.requireAuth(h.handleClearCart))

	mux.HandleFunc(http.MethodPost+" /api/orders", h.requireAuth(h.handleCheckout))
	mux.HandleFunc(http.MethodGet+" /api/orders", h.requireAuth(h.handleListOrders))
	mux.HandleFunc(http.MethodGet+" /api/orders/{orderID}", h.requireAuth(h.handleGetOrder))
	mux.HandleFunc(http.MethodPost+" /api/orders/{orderID}/cancel", h.requireAuth(h.handleCancelOrder))
	mux.HandleFunc(http.MethodPost+" /api/orders/{orderID}/status", h.requireAuth(h.handleAdvanceOrder))

	return httpx.Chain(mux,
		httpx.RecoverPanic(),
		httpx.RequestID(),
		httpx.RequestLog(),
	)
}
