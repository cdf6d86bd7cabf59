package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo guards order status changes. Shipment and delivery are
// driven by fulfillment outside this service, but the guard still models
// them so a bad external write is rejected rather than stored.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusConfirmed || next == OrderStatusCancelled
	case OrderStatusConfirmed:
		return next == OrderStatusShipped || next == OrderStatusCancelled
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	default:
		return false
	}
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodUPI            PaymentMethod = "upi"
	PaymentMethodBankTransfer   PaymentMethod = "bank_transfer"
	PaymentMethodGateway        PaymentMethod = "razorpay"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCashOnDelivery, PaymentMethodUPI, PaymentMethodBankTransfer, PaymentMethodGateway:
		return true
	}
	return false
}

type ShippingAddress struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// Order is one committed purchase of a single listing. A checkout that
// spans several listings produces several orders, one row per listing,
// even when the listings share a seller. Orders are never deleted, only
// status-transitioned.
type Order struct {
	ID              string            `json:"id"`
	ListingID       string            `json:"listingId"`
	BuyerID         string            `json:"buyerId"`
	SellerID        string            `json:"sellerId"`
	Quantity        int               `json:"quantity"`
	UnitPrice       float64           `json:"unitPrice"`
	Amount          float64           `json:"amount"`
	ShippingCost    float64           `json:"shippingCost"`
	TotalAmount     float64           `json:"totalAmount"`
	Status          OrderStatus       `json:"status"`
	PaymentStatus   PaymentStatus     `json:"paymentStatus"`
	PaymentMethod   PaymentMethod     `json:"paymentMethod"`
	ShippingAddress ShippingAddress   `json:"shippingAddress"`
	TrackingInfo    map[string]string `json:"trackingInfo,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}
