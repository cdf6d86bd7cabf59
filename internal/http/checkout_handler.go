package http

import (
	"encoding/json"
	"net/http"

	"github.com/fjod/go_market/internal/checkout"
	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/payment"
)

type CheckoutHandler struct {
	checkouts *checkout.Service
	payments  *payment.Service
}

func NewCheckoutHandler(checkouts *checkout.Service, payments *payment.Service) *CheckoutHandler {
	return &CheckoutHandler{
		checkouts: checkouts,
		payments:  payments,
	}
}

type CreateOrderRequestDTO struct {
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   domain.PaymentMethod   `json:"paymentMethod"`
}

type PlaceOrderRequestDTO struct {
	ShippingAddress domain.ShippingAddress    `json:"shippingAddress"`
	PaymentMethod   domain.PaymentMethod      `json:"paymentMethod"`
	OrderItems      []checkout.OrderItemInput `json:"orderItems"`
}

type VerifyPaymentRequestDTO struct {
	GatewayOrderID   string   `json:"gatewayOrderId"`
	GatewayPaymentID string   `json:"gatewayPaymentId"`
	Signature        string   `json:"signature"`
	OrderIDs         []string `json:"orderIds"`
}

func (h *CheckoutHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())

	var req CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	summary, err := h.checkouts.PrepareSummary(r.Context(), userID, req.ShippingAddress, req.PaymentMethod)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"orderSummary": summary,
	})
}

func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())

	var req PlaceOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.checkouts.PlaceOrder(r.Context(), userID, req.ShippingAddress, req.PaymentMethod, req.OrderItems)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success":       true,
		"orders":        result.Orders,
		"paymentResult": result.Payment,
	})
}

func (h *CheckoutHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req VerifyPaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		respondError(w, http.StatusBadRequest, "gatewayOrderId, gatewayPaymentId and signature are required")
		return
	}

	orders, err := h.payments.VerifyPayment(r.Context(), req.GatewayOrderID, req.GatewayPaymentID, req.Signature, req.OrderIDs)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"orders":  orders,
	})
}
