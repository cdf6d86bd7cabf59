package listing

import (
	"context"
	"errors"

	"github.com/fjod/go_market/internal/domain"
)

var ErrListingNotFound = errors.New("listing not found")

// Store is the read surface over the external listing catalog.
type Store interface {
	Get(ctx context.Context, id string) (*domain.Listing, error)
	GetMany(ctx context.Context, ids []string) (map[string]*domain.Listing, error)
}
