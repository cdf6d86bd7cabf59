package http

import (
	"encoding/json"
	"net/http"

	"github.com/fjod/go_market/internal/cart"
	"github.com/fjod/go_market/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	carts *cart.Service
}

func NewCartHandler(carts *cart.Service) *CartHandler {
	return &CartHandler{carts: carts}
}

type CartItemRequestDTO struct {
	ListingID string `json:"listingId"`
	Quantity  int    `json:"quantity"`
}

// CartSummaryDTO is the mutation response shape: enough for the client
// to refresh its badge without the full item list.
type CartSummaryDTO struct {
	ID          string  `json:"_id,omitempty"`
	TotalAmount float64 `json:"totalAmount"`
	ItemCount   int     `json:"itemCount"`
}

type cartEnvelope struct {
	Success bool           `json:"success"`
	Cart    CartSummaryDTO `json:"cart"`
}

type cartItemsEnvelope struct {
	Success     bool              `json:"success"`
	Items       []domain.CartItem `json:"items"`
	TotalAmount float64           `json:"totalAmount"`
	ItemCount   int               `json:"itemCount"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())

	crt, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"cart":    crt,
	})
}

func (h *CartHandler) GetItems(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())

	crt, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartItemsEnvelope{
		Success:     true,
		Items:       crt.Items,
		TotalAmount: crt.TotalAmount,
		ItemCount:   crt.ItemCount,
	})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())

	var req CartItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ListingID == "" {
		respondError(w, http.StatusBadRequest, "listingId is required")
		return
	}

	crt, err := h.carts.AddItem(r.Context(), userID, req.ListingID, req.Quantity)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondCartSummary(w, crt)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())

	var req CartItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ListingID == "" {
		respondError(w, http.StatusBadRequest, "listingId is required")
		return
	}

	crt, err := h.carts.UpdateItem(r.Context(), userID, req.ListingID, req.Quantity)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondCartSummary(w, crt)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())

	listingID := chi.URLParam(r, "listingID")
	if listingID == "" {
		respondError(w, http.StatusBadRequest, "listingId is required")
		return
	}

	crt, err := h.carts.RemoveItem(r.Context(), userID, listingID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondCartSummary(w, crt)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())

	crt, err := h.carts.Clear(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondCartSummary(w, crt)
}

func respondCartSummary(w http.ResponseWriter, crt *domain.Cart) {
	respondJSON(w, http.StatusOK, cartEnvelope{
		Success: true,
		Cart: CartSummaryDTO{
			ID:          crt.ID,
			TotalAmount: crt.TotalAmount,
			ItemCount:   crt.ItemCount,
		},
	})
}
