package order

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_market/internal/domain"
)

var ErrOrderNotFound = errors.New("order not found")

// OutboxEvent is one order lifecycle event awaiting publication.
type OutboxEvent struct {
	ID          int64
	AggregateID string // order id, used as the Kafka partition key
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// Repository persists orders and their lifecycle events. Create writes
// the order row and its order.created outbox row in one transaction;
// MarkPaid does the same with order.confirmed. Orders are never deleted.
type Repository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*domain.Order, error)
	MarkPaid(ctx context.Context, id, gatewayPaymentID string) (*domain.Order, error)

	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}
