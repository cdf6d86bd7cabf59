package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fjod/go_market/internal/cart/cache"
	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/listing"
	"golang.org/x/sync/singleflight"
)

// Business-rule errors carry the shared taxonomy so the HTTP layer can
// map them without knowing this package's specifics.
var (
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	ErrSelfPurchase    = fmt.Errorf("%w: cannot buy your own listing", domain.ErrConflict)
	ErrBelowMinimum    = fmt.Errorf("%w: quantity below listing minimum order", domain.ErrConflict)
	ErrItemNotFound    = fmt.Errorf("%w: item not in cart", domain.ErrNotFound)
)

type Service struct {
	repo     Repository
	cache    cache.CartCache
	listings listing.Store
	sfg      singleflight.Group // Prevents cache stampede
}

func NewService(repo Repository, cache cache.CartCache, listings listing.Store) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		listings: listings,
	}
}

// GetCart returns the user's cart, lazily creating an empty one if none
// exists. Totals are always recomputed before returning so a stale
// stored total heals on read.
func (s *Service) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {

		cached, err := s.cache.Get(ctx, userID)
		if err == nil {
			// every caller gets its own copy; the cached document must
			// not be mutated through a shared pointer
			cp := *cached
			cp.Items = append([]domain.CartItem(nil), cached.Items...)
			cp.Recalculate()
			return &cp, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v \n", err) // log cache error but continue
		}

		crt, errGet := s.repo.GetCart(ctx, userID)
		if errGet != nil && errors.Is(errGet, ErrCartNotFound) {
			return &domain.Cart{
				UserID:    userID,
				Items:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		crt.Recalculate()

		go func() {
			errSet := s.cache.Set(context.Background(), userID, crt)
			if errSet != nil {
				log.Printf("cache set error: %v \n", errSet)
			}
		}()

		return crt, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem validates the listing and appends or merges the line. When the
// listing is already in the cart, quantities are summed and the line
// total recomputed from the unit price snapshot taken when the item was
// first added, not a fresh catalog read.
func (s *Service) AddItem(ctx context.Context, userID, listingID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	lst, err := s.listings.Get(ctx, listingID)
	if err != nil {
		if errors.Is(err, listing.ErrListingNotFound) {
			return nil, fmt.Errorf("%w: listing %s", domain.ErrNotFound, listingID)
		}
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}

	if lst.SellerID == userID {
		return nil, ErrSelfPurchase
	}
	if quantity < lst.MinimumOrder {
		return nil, ErrBelowMinimum
	}

	crt, err := s.loadOrNew(ctx, userID)
	if err != nil {
		return nil, err
	}

	if i := crt.FindItem(listingID); i >= 0 {
		crt.Items[i].Quantity += quantity
	} else {
		crt.Items = append(crt.Items, domain.CartItem{
			ListingID: listingID,
			Quantity:  quantity,
			UnitPrice: lst.Price,
			AddedAt:   time.Now(),
		})
	}

	return s.persist(ctx, crt)
}

// UpdateItem sets the quantity of an existing line. Zero removes the
// line, negative is rejected.
func (s *Service) UpdateItem(ctx context.Context, userID, listingID string, quantity int) (*domain.Cart, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	crt, err := s.loadOrNew(ctx, userID)
	if err != nil {
		return nil, err
	}

	i := crt.FindItem(listingID)
	if i < 0 {
		return nil, ErrItemNotFound
	}

	if quantity == 0 {
		crt.Items = append(crt.Items[:i], crt.Items[i+1:]...)
	} else {
		crt.Items[i].Quantity = quantity
	}

	return s.persist(ctx, crt)
}

// RemoveItem drops the line for listingID. Removing an absent line is a
// no-op success.
func (s *Service) RemoveItem(ctx context.Context, userID, listingID string) (*domain.Cart, error) {
	crt, err := s.loadOrNew(ctx, userID)
	if err != nil {
		return nil, err
	}

	if i := crt.FindItem(listingID); i >= 0 {
		crt.Items = append(crt.Items[:i], crt.Items[i+1:]...)
	}

	return s.persist(ctx, crt)
}

// Clear empties the cart. Clearing an empty or absent cart succeeds.
func (s *Service) Clear(ctx context.Context, userID string) (*domain.Cart, error) {
	errDelete := s.repo.DeleteCart(ctx, userID)
	if errDelete != nil && !errors.Is(errDelete, ErrCartNotFound) {
		log.Printf("repo delete cart error: %v \n", errDelete)
		return nil, errDelete
	}

	s.invalidateCache(userID)

	return &domain.Cart{
		UserID:    userID,
		Items:     nil,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

func (s *Service) loadOrNew(ctx context.Context, userID string) (*domain.Cart, error) {
	crt, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return &domain.Cart{UserID: userID}, nil
		}
		return nil, err
	}
	return crt, nil
}

// persist recomputes derived totals and writes the whole document in one
// upsert, then invalidates the cache.
func (s *Service) persist(ctx context.Context, crt *domain.Cart) (*domain.Cart, error) {
	crt.Recalculate()

	if err := s.repo.UpsertCart(ctx, crt); err != nil {
		log.Printf("repo upsert cart error: %v \n", err)
		return nil, err
	}

	s.invalidateCache(crt.UserID)
	return crt, nil
}

func (s *Service) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	errInvalidate := s.cache.Delete(ctx, userID)
	if errInvalidate != nil {
		log.Printf("cache invalidate error: %v \n", errInvalidate)
	}
}
