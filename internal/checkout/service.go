package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/listing"
	"github.com/fjod/go_market/internal/order"
	"github.com/fjod/go_market/internal/payment"
	"github.com/google/uuid"
)

var (
	ErrEmptyCart          = fmt.Errorf("%w: cart is empty", domain.ErrConflict)
	ErrListingUnavailable = fmt.Errorf("%w: listing is not available", domain.ErrConflict)
	ErrBelowMinimum       = fmt.Errorf("%w: quantity below listing minimum order", domain.ErrConflict)
)

// Carts is the slice of the cart manager the orchestrator needs.
type Carts interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) (*domain.Cart, error)
}

// Notifier fans an order event out to notification channels; it never
// fails the caller.
type Notifier interface {
	OrderEvent(ctx context.Context, orderID, eventType string)
}

type SummaryItem struct {
	ListingID  string  `json:"listingId"`
	SellerID   string  `json:"sellerId"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
}

// OrderSummary is the client confirmation view built by PrepareSummary.
// It is never persisted.
type OrderSummary struct {
	Items        []SummaryItem `json:"items"`
	SellerIDs    []string      `json:"sellerIds"`
	ItemCount    int           `json:"itemCount"`
	TotalAmount  float64       `json:"totalAmount"`
	ShippingCost float64       `json:"shippingCost"`
}

// OrderItemInput is one caller-supplied line at placement time. The
// orchestrator trusts these over the live cart; each line is still
// re-validated against its listing.
type OrderItemInput struct {
	ListingID string `json:"listingId"`
	Quantity  int    `json:"quantity"`
}

type PaymentResult struct {
	Method         domain.PaymentMethod `json:"method"`
	Status         string               `json:"status"`
	Message        string               `json:"message,omitempty"`
	Instructions   string               `json:"instructions,omitempty"`
	GatewayOrderID string               `json:"gatewayOrderId,omitempty"`
	Amount         float64              `json:"amount,omitempty"`
	Currency       string               `json:"currency,omitempty"`
}

type PlaceOrderResult struct {
	Orders  []*domain.Order `json:"orders"`
	Payment *PaymentResult  `json:"paymentResult"`
}

type Service struct {
	carts    Carts
	listings listing.Store
	orders   order.Repository
	gateway  payment.Gateway
	notifier Notifier
	currency string
}

func NewService(carts Carts, listings listing.Store, orders order.Repository, gateway payment.Gateway, notifier Notifier) *Service {
	return &Service{
		carts:    carts,
		listings: listings,
		orders:   orders,
		gateway:  gateway,
		notifier: notifier,
		currency: "INR",
	}
}

// PrepareSummary validates the live cart against current listing state
// and returns a confirmation view. Add-to-cart validated against the
// listing as it was then; this is the re-check at the point of
// commitment. Performs no writes.
func (s *Service) PrepareSummary(ctx context.Context, userID string, address domain.ShippingAddress, method domain.PaymentMethod) (*OrderSummary, error) {
	if err := validateRequest(address, method); err != nil {
		return nil, err
	}

	crt, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(crt.Items) == 0 {
		return nil, ErrEmptyCart
	}

	ids := make([]string, 0, len(crt.Items))
	for _, item := range crt.Items {
		ids = append(ids, item.ListingID)
	}
	listings, err := s.listings.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load listings: %w", err)
	}

	summary := &OrderSummary{}
	sellers := make(map[string]bool)
	for _, item := range crt.Items {
		lst, exists := listings[item.ListingID]
		if !exists {
			return nil, fmt.Errorf("%w: listing %s", domain.ErrNotFound, item.ListingID)
		}
		if !lst.IsActive() {
			return nil, fmt.Errorf("%w (%s)", ErrListingUnavailable, lst.ID)
		}
		if item.Quantity < lst.MinimumOrder {
			return nil, fmt.Errorf("%w (%s)", ErrBelowMinimum, lst.ID)
		}

		summary.Items = append(summary.Items, SummaryItem{
			ListingID:  item.ListingID,
			SellerID:   lst.SellerID,
			Title:      lst.Title,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		})
		summary.ItemCount += item.Quantity
		summary.TotalAmount += item.TotalPrice
		if !sellers[lst.SellerID] {
			sellers[lst.SellerID] = true
			summary.SellerIDs = append(summary.SellerIDs, lst.SellerID)
		}
	}

	// Shipping is negotiated per seller after confirmation; the summary
	// carries a placeholder.
	summary.ShippingCost = 0
	return summary, nil
}

// PlaceOrder commits the checkout: one order row per supplied item (per
// listing, never merged by seller), then the payment branch for the
// chosen method. The caller resupplies items explicitly; the live cart
// is not re-read. On success the buyer's cart is cleared best-effort --
// a failed clear does not unwind the placed orders.
func (s *Service) PlaceOrder(ctx context.Context, userID string, address domain.ShippingAddress, method domain.PaymentMethod, items []OrderItemInput) (*PlaceOrderResult, error) {
	if err := validateRequest(address, method); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order items are required", domain.ErrValidation)
	}

	orders := make([]*domain.Order, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
		}

		lst, err := s.listings.Get(ctx, item.ListingID)
		if err != nil {
			if errors.Is(err, listing.ErrListingNotFound) {
				return nil, fmt.Errorf("%w: listing %s", domain.ErrNotFound, item.ListingID)
			}
			return nil, fmt.Errorf("failed to load listing: %w", err)
		}
		if !lst.IsActive() {
			return nil, fmt.Errorf("%w (%s)", ErrListingUnavailable, lst.ID)
		}
		if item.Quantity < lst.MinimumOrder {
			return nil, fmt.Errorf("%w (%s)", ErrBelowMinimum, lst.ID)
		}

		amount := float64(item.Quantity) * lst.Price
		orders = append(orders, &domain.Order{
			ID:              uuid.New().String(),
			ListingID:       lst.ID,
			BuyerID:         userID,
			SellerID:        lst.SellerID,
			Quantity:        item.Quantity,
			UnitPrice:       lst.Price,
			Amount:          amount,
			ShippingCost:    0,
			TotalAmount:     amount,
			Status:          domain.OrderStatusPending,
			PaymentStatus:   domain.PaymentStatusPending,
			PaymentMethod:   method,
			ShippingAddress: address,
			TrackingInfo:    map[string]string{},
		})
	}

	for _, o := range orders {
		if err := s.orders.Create(ctx, o); err != nil {
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
	}

	result, err := s.startPayment(ctx, method, orders)
	if err != nil {
		return nil, err
	}

	// Checkout success and cart clear are deliberately decoupled: the
	// orders are placed even if the clear fails.
	if _, errClear := s.carts.Clear(ctx, userID); errClear != nil {
		log.Printf("failed to clear cart after checkout for user %v: %v", userID, errClear)
	}

	for _, o := range orders {
		s.notifier.OrderEvent(ctx, o.ID, "created")
	}

	return &PlaceOrderResult{Orders: orders, Payment: result}, nil
}

func (s *Service) startPayment(ctx context.Context, method domain.PaymentMethod, orders []*domain.Order) (*PaymentResult, error) {
	switch method {
	case domain.PaymentMethodCashOnDelivery:
		return &PaymentResult{
			Method:  method,
			Status:  "pending",
			Message: "Pay the full amount in cash when the order is delivered",
		}, nil

	case domain.PaymentMethodUPI, domain.PaymentMethodBankTransfer:
		return &PaymentResult{
			Method:       method,
			Status:       "pending",
			Instructions: "Transfer the order total and share the payment reference with support to confirm",
		}, nil

	default:
		// Hosted gateway: one aggregated gateway order covers the whole
		// checkout, not one per order row.
		total := 0.0
		for _, o := range orders {
			total += o.TotalAmount
		}

		gw, err := s.gateway.CreateOrder(ctx, total, s.currency, uuid.New().String())
		if err != nil {
			return nil, fmt.Errorf("failed to create gateway order: %w", err)
		}
		return &PaymentResult{
			Method:         method,
			Status:         "created",
			GatewayOrderID: gw.ID,
			Amount:         gw.Amount,
			Currency:       gw.Currency,
		}, nil
	}
}

func validateRequest(address domain.ShippingAddress, method domain.PaymentMethod) error {
	if !method.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", domain.ErrValidation, method)
	}
	if address.Name == "" || address.Phone == "" || address.Line1 == "" || address.City == "" || address.Pincode == "" {
		return fmt.Errorf("%w: incomplete shipping address", domain.ErrValidation)
	}
	return nil
}
