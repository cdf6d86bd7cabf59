package listing

import (
	"context"
	"testing"

	"github.com/fjod/go_market/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	store.Seed(&domain.Listing{ID: "L1", SellerID: "seller-1", Price: 100, Status: domain.ListingStatusActive})

	got, err := store.Get(context.Background(), "L1")
	require.NoError(t, err)

	got.Price = 999
	again, err := store.Get(context.Background(), "L1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, again.Price, "caller mutation must not leak into the store")
}

func TestMemoryStore_GetUnknown(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestMemoryStore_GetManySkipsMissing(t *testing.T) {
	store := NewMemoryStore()
	store.Seed(
		&domain.Listing{ID: "L1", Status: domain.ListingStatusActive},
		&domain.Listing{ID: "L2", Status: domain.ListingStatusActive},
	)

	result, err := store.GetMany(context.Background(), []string{"L1", "missing", "L2"})
	require.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Contains(t, result, "L1")
	assert.Contains(t, result, "L2")
}

func TestMemoryStore_SeedReplaces(t *testing.T) {
	store := NewMemoryStore()
	store.Seed(&domain.Listing{ID: "L1", Price: 100})
	store.Seed(&domain.Listing{ID: "L1", Price: 150})

	got, err := store.Get(context.Background(), "L1")
	require.NoError(t, err)
	assert.Equal(t, 150.0, got.Price)
}
