// Package memory provides an in-memory listing repository. It is the
// default store for tests and for running the server without durable state.
package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/tradepost/tradepost-backend/internal/domain"
)

// ListingRepository implements domain.ListingRepository over a mutex-guarded map.
type ListingRepository struct {
	mu       sync.RWMutex
	listings map[domain.AssetKey]domain.Listing
}

// NewListingRepository creates an empty in-memory listing repository.
func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		listings: make(map[domain.AssetKey]domain.Listing),
	}
}

// Get retrieves the listing for a key.
func (r *ListingRepository) Get(ctx context.Context, key domain.AssetKey) (domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return domain.Listing{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, exists := r.listings[key]
	if !exists {
		return domain.Listing{}, domain.ErrNotListed
	}
	return listing, nil
}

// Create inserts a new listing for a key.
func (r *ListingRepository) Create(ctx context.Context, key domain.AssetKey, listing domain.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.listings[key]; exists {
		return domain.ErrAlreadyListed
	}
	r.listings[key] = listing
	return nil
}

// SetPrice replaces the stored price only.
func (r *ListingRepository) SetPrice(ctx context.Context, key domain.AssetKey, price decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	listing, exists := r.listings[key]
	if !exists {
		return domain.ErrNotListed
	}
	listing.Price = price
	r.listings[key] = listing
	return nil
}

// Delete removes the listing entirely.
func (r *ListingRepository) Delete(ctx context.Context, key domain.AssetKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.listings[key]; !exists {
		return domain.ErrNotListed
	}
	delete(r.listings, key)
	return nil
}

var _ domain.ListingRepository = (*ListingRepository)(nil)
