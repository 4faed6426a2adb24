package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListingRepository defines the interface for listing persistence operations
type ListingRepository interface {
	// Get retrieves the listing for a key
	// Returns ErrNotListed if no listing exists
	Get(ctx context.Context, key AssetKey) (Listing, error)

	// Create inserts a new listing for a key
	// Returns ErrAlreadyListed if a listing already exists
	Create(ctx context.Context, key AssetKey, listing Listing) error

	// SetPrice replaces the stored price only; the seller is unchanged
	// Returns ErrNotListed if no listing exists
	SetPrice(ctx context.Context, key AssetKey, price decimal.Decimal) error

	// Delete removes the listing entirely
	// Returns ErrNotListed if no listing exists
	Delete(ctx context.Context, key AssetKey) error
}

// AssetRegistry is the external authority for asset ownership and transfer.
// The listing registry queries it at call time and never caches ownership.
type AssetRegistry interface {
	// OwnerOf returns the current owner-of-record for an asset
	OwnerOf(ctx context.Context, key AssetKey) (uuid.UUID, error)

	// GetApproved returns the identity approved to transfer one specific
	// asset, or uuid.Nil when none is approved
	GetApproved(ctx context.Context, key AssetKey) (uuid.UUID, error)

	// IsApprovedForAll reports whether operator may transfer every asset
	// owned by owner
	IsApprovedForAll(ctx context.Context, owner, operator uuid.UUID) (bool, error)

	// Transfer moves an asset from one owner to another on behalf of
	// operator. It fails loudly if from is not the current owner or the
	// operator lacks authorization, leaving ownership unchanged.
	Transfer(ctx context.Context, operator, from, to uuid.UUID, key AssetKey) error
}

// ValueTransfer moves a quantity of value between two parties with an
// explicit success/failure signal. Failure may happen for reasons outside
// the registry's control, such as a recipient refusing funds.
type ValueTransfer interface {
	Transfer(ctx context.Context, from, to uuid.UUID, amount decimal.Decimal) error
}
