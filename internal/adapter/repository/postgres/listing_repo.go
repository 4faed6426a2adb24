package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/tradepost/tradepost-backend/internal/domain"
)

// uniqueViolation is the PostgreSQL error code for unique_violation
const uniqueViolation = "23505"

// listingRepository implements domain.ListingRepository
type listingRepository struct {
	db *DB
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db *DB) domain.ListingRepository {
	return &listingRepository{db: db}
}

// Get retrieves the listing for a key
func (r *listingRepository) Get(ctx context.Context, key domain.AssetKey) (domain.Listing, error) {
	query := `
		SELECT price, seller
		FROM listings
		WHERE collection = $1 AND item = $2
	`

	var priceStr string
	var seller uuid.UUID

	err := r.db.QueryRowContext(ctx, query, key.Collection, int64(key.Item)).Scan(&priceStr, &seller)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Listing{}, domain.ErrNotListed
		}
		return domain.Listing{}, fmt.Errorf("failed to get listing: %w", err)
	}

	// Parse price (DECIMAL)
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("failed to parse listing price: %w", err)
	}

	return domain.Listing{Price: price, Seller: seller}, nil
}

// Create inserts a new listing row
func (r *listingRepository) Create(ctx context.Context, key domain.AssetKey, listing domain.Listing) error {
	query := `
		INSERT INTO listings (collection, item, price, seller, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`

	_, err := r.db.ExecContext(ctx, query,
		key.Collection,
		int64(key.Item),
		listing.Price.String(),
		listing.Seller,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return domain.ErrAlreadyListed
		}
		return fmt.Errorf("failed to create listing: %w", err)
	}

	return nil
}

// SetPrice replaces the stored price only
func (r *listingRepository) SetPrice(ctx context.Context, key domain.AssetKey, price decimal.Decimal) error {
	query := `
		UPDATE listings
		SET price = $1, updated_at = NOW()
		WHERE collection = $2 AND item = $3
	`

	result, err := r.db.ExecContext(ctx, query, price.String(), key.Collection, int64(key.Item))
	if err != nil {
		return fmt.Errorf("failed to update listing price: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update listing price: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotListed
	}

	return nil
}

// Delete removes the listing row
func (r *listingRepository) Delete(ctx context.Context, key domain.AssetKey) error {
	query := `
		DELETE FROM listings
		WHERE collection = $1 AND item = $2
	`

	result, err := r.db.ExecContext(ctx, query, key.Collection, int64(key.Item))
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotListed
	}

	return nil
}
