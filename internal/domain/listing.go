package domain

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetKey uniquely identifies one asset instance within one collection.
type AssetKey struct {
	Collection uuid.UUID
	Item       uint64
}

// Listing represents an active offer to exchange one asset for a fixed
// amount of value. The zero value means "not listed": a key maps to a live
// listing if and only if Price is greater than zero, so absence never needs
// a separate presence flag.
type Listing struct {
	Price  decimal.Decimal
	Seller uuid.UUID
}

// Active reports whether the listing is live.
func (l Listing) Active() bool {
	return l.Price.GreaterThan(decimal.Zero)
}

// Validate ensures the listing adheres to domain rules
// Returns an error if validation fails
func (l *Listing) Validate() error {
	if !l.Price.GreaterThan(decimal.Zero) {
		return errors.New("listing price must be positive")
	}
	if l.Seller == uuid.Nil {
		return errors.New("listing seller cannot be the zero identity")
	}
	return nil
}
