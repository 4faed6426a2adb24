package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradepost/tradepost-backend/internal/domain"
)

func testKey() domain.AssetKey {
	return domain.AssetKey{
		Collection: uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		Item:       3,
	}
}

func TestCreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository()
	key := testKey()
	listing := domain.Listing{Price: decimal.RequireFromString("1.5"), Seller: uuid.New()}

	require.NoError(t, repo.Create(ctx, key, listing))

	got, err := repo.Get(ctx, key)
	assert.NoError(t, err)
	assert.Equal(t, listing, got)
}

func TestGet_AbsentKey(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository()

	_, err := repo.Get(ctx, testKey())
	assert.ErrorIs(t, err, domain.ErrNotListed)
}

func TestCreate_Duplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository()
	key := testKey()
	original := domain.Listing{Price: decimal.NewFromInt(5), Seller: uuid.New()}

	require.NoError(t, repo.Create(ctx, key, original))
	err := repo.Create(ctx, key, domain.Listing{Price: decimal.NewFromInt(9), Seller: uuid.New()})

	assert.ErrorIs(t, err, domain.ErrAlreadyListed)
	// The existing listing is unchanged
	got, getErr := repo.Get(ctx, key)
	assert.NoError(t, getErr)
	assert.Equal(t, original, got)
}

func TestSetPrice(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository()
	key := testKey()
	seller := uuid.New()
	require.NoError(t, repo.Create(ctx, key, domain.Listing{Price: decimal.NewFromInt(5), Seller: seller}))

	newPrice := decimal.NewFromInt(8)
	require.NoError(t, repo.SetPrice(ctx, key, newPrice))

	got, err := repo.Get(ctx, key)
	assert.NoError(t, err)
	assert.True(t, newPrice.Equal(got.Price))
	assert.Equal(t, seller, got.Seller)
}

func TestSetPrice_AbsentKey(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository()

	err := repo.SetPrice(ctx, testKey(), decimal.NewFromInt(8))
	assert.ErrorIs(t, err, domain.ErrNotListed)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository()
	key := testKey()
	require.NoError(t, repo.Create(ctx, key, domain.Listing{Price: decimal.NewFromInt(5), Seller: uuid.New()}))

	require.NoError(t, repo.Delete(ctx, key))

	_, err := repo.Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrNotListed)
}

func TestDelete_AbsentKey(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository()

	err := repo.Delete(ctx, testKey())
	assert.ErrorIs(t, err, domain.ErrNotListed)
}
