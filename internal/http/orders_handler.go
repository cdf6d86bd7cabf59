package http

import (
	"net/http"

	"github.com/fjod/go_market/internal/order"
)

type OrdersHandler struct {
	orders order.Repository
}

func NewOrdersHandler(orders order.Repository) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

// ListMine returns the authenticated buyer's orders, newest first.
func (h *OrdersHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())

	orders, err := h.orders.ListByBuyer(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"orders":  orders,
	})
}

// ListSales returns the authenticated seller's orders, newest first.
func (h *OrdersHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())

	orders, err := h.orders.ListBySeller(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"orders":  orders,
	})
}
