package cart

import (
	"context"
	"errors"

	"github.com/fjod/go_market/internal/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// Repository persists one cart document per user. Mutations go through
// UpsertCart with the full document so derived totals and item lines are
// always written together; no partial-item state is ever observable.
type Repository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}
