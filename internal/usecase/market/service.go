package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradepost/tradepost-backend/internal/domain"
)

// MarketService owns the listing/exchange state machine. Every mutating call
// either fully commits or leaves no trace; mu is the single serialization
// point, so no two mutations on the listing store ever interleave.
type MarketService struct {
	ListingRepo domain.ListingRepository
	Assets      domain.AssetRegistry
	Funds       domain.ValueTransfer
	Events      domain.EventSink

	// Operator is the identity the asset registry must have authorized
	// before an asset can be listed here.
	Operator uuid.UUID

	mu sync.Mutex
}

// NewMarketService creates a new MarketService instance
func NewMarketService(
	listingRepo domain.ListingRepository,
	assets domain.AssetRegistry,
	funds domain.ValueTransfer,
	events domain.EventSink,
	operator uuid.UUID,
) *MarketService {
	return &MarketService{
		ListingRepo: listingRepo,
		Assets:      assets,
		Funds:       funds,
		Events:      events,
		Operator:    operator,
	}
}

// CreateListing publishes a fixed-price listing for an asset.
// Preconditions, in the order a caller observes them:
//  1. price must be positive
//  2. no listing may exist for the key
//  3. caller must be the current owner-of-record
//  4. the operator must be authorized to transfer the asset
func (s *MarketService) CreateListing(ctx context.Context, key domain.AssetKey, price decimal.Decimal, caller uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !price.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidPrice
	}

	_, err := s.ListingRepo.Get(ctx, key)
	if err == nil {
		return domain.ErrAlreadyListed
	}
	if !errors.Is(err, domain.ErrNotListed) {
		return fmt.Errorf("check existing listing: %w", err)
	}

	if err := s.requireOwner(ctx, key, caller); err != nil {
		return err
	}

	authorized, err := s.operatorAuthorized(ctx, key, caller)
	if err != nil {
		return fmt.Errorf("check authorization: %w", err)
	}
	if !authorized {
		return domain.ErrNotAuthorized
	}

	listing := domain.Listing{Price: price, Seller: caller}
	if err := s.ListingRepo.Create(ctx, key, listing); err != nil {
		return fmt.Errorf("store listing: %w", err)
	}

	s.emit(domain.ListingEvent{
		Type:       domain.EventListingCreated,
		Collection: key.Collection,
		Item:       key.Item,
		Price:      price,
		Seller:     caller,
	})
	return nil
}

// CancelListing removes a listing entirely. Only the current owner-of-record
// may cancel.
func (s *MarketService) CancelListing(ctx context.Context, key domain.AssetKey, caller uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOwner(ctx, key, caller); err != nil {
		return err
	}

	if _, err := s.ListingRepo.Get(ctx, key); err != nil {
		return err
	}

	if err := s.ListingRepo.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}

	s.emit(domain.ListingEvent{
		Type:       domain.EventListingCancelled,
		Collection: key.Collection,
		Item:       key.Item,
		Seller:     caller,
	})
	return nil
}

// UpdateListing replaces the stored price of an active listing. The seller
// field is unchanged.
func (s *MarketService) UpdateListing(ctx context.Context, key domain.AssetKey, price decimal.Decimal, caller uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOwner(ctx, key, caller); err != nil {
		return err
	}

	if !price.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidPrice
	}

	if _, err := s.ListingRepo.Get(ctx, key); err != nil {
		return err
	}

	if err := s.ListingRepo.SetPrice(ctx, key, price); err != nil {
		return fmt.Errorf("update listing price: %w", err)
	}

	s.emit(domain.ListingEvent{
		Type:       domain.EventListingUpdated,
		Collection: key.Collection,
		Item:       key.Item,
		Price:      price,
		Seller:     caller,
	})
	return nil
}

// Purchase exchanges the tendered amount for ownership of the listed asset.
// Steps:
//  1. the listing must exist
//  2. the tendered amount must exactly equal the stored price
//  3. funds move from the buyer to the seller
//  4. the asset moves from the seller to the buyer; if this fails the fund
//     movement is compensated so the buyer is never left paid without the
//     asset
//  5. the listing is deleted only after both transfers succeeded
func (s *MarketService) Purchase(ctx context.Context, key domain.AssetKey, caller uuid.UUID, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Snapshot before mutating anything: the listing is gone by the time
	// the purchase event is emitted, but its fields are still needed.
	listing, err := s.ListingRepo.Get(ctx, key)
	if err != nil {
		return err
	}

	if !amount.Equal(listing.Price) {
		return domain.ErrIncorrectAmount
	}

	if err := s.Funds.Transfer(ctx, caller, listing.Seller, amount); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}

	if err := s.Assets.Transfer(ctx, s.Operator, listing.Seller, caller, key); err != nil {
		// Funds moved first, so undo that movement before surfacing the
		// failure. A refund failure is surfaced too: funds must never be
		// silently stranded.
		if refundErr := s.Funds.Transfer(ctx, listing.Seller, caller, amount); refundErr != nil {
			return fmt.Errorf("asset transfer failed (%v) and refund failed: %w", err, refundErr)
		}
		return fmt.Errorf("transfer asset: %w", err)
	}

	if err := s.ListingRepo.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete listing after purchase: %w", err)
	}

	s.emit(domain.ListingEvent{
		Type:       domain.EventListingPurchased,
		Collection: key.Collection,
		Item:       key.Item,
		Price:      listing.Price,
		Seller:     listing.Seller,
		Buyer:      caller,
	})
	return nil
}

// GetListing returns the listing for a key, or the zero Listing when the
// key is absent. Absence is not an error on the query surface.
func (s *MarketService) GetListing(ctx context.Context, key domain.AssetKey) (domain.Listing, error) {
	listing, err := s.ListingRepo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotListed) {
			return domain.Listing{}, nil
		}
		return domain.Listing{}, fmt.Errorf("get listing: %w", err)
	}
	return listing, nil
}

// requireOwner verifies that caller is the asset's current owner-of-record.
func (s *MarketService) requireOwner(ctx context.Context, key domain.AssetKey, caller uuid.UUID) error {
	owner, err := s.Assets.OwnerOf(ctx, key)
	if err != nil {
		return fmt.Errorf("resolve asset owner: %w", err)
	}
	if owner != caller {
		return domain.ErrNotOwner
	}
	return nil
}

// operatorAuthorized reports whether the registry operator may transfer the
// asset, via a blanket operator grant or a per-asset approval.
func (s *MarketService) operatorAuthorized(ctx context.Context, key domain.AssetKey, owner uuid.UUID) (bool, error) {
	blanket, err := s.Assets.IsApprovedForAll(ctx, owner, s.Operator)
	if err != nil {
		return false, err
	}
	if blanket {
		return true, nil
	}
	approved, err := s.Assets.GetApproved(ctx, key)
	if err != nil {
		return false, err
	}
	return approved == s.Operator, nil
}

func (s *MarketService) emit(event domain.ListingEvent) {
	if s.Events == nil {
		return
	}
	event.OccurredAt = time.Now().UTC()
	s.Events.Publish(event)
}
