package assetregistry

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradepost/tradepost-backend/internal/domain"
)

func testKey(item uint64) domain.AssetKey {
	return domain.AssetKey{
		Collection: uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Item:       item,
	}
}

func TestMintAndOwnerOf(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()
	owner := uuid.New()
	key := testKey(0)

	require.NoError(t, registry.Mint(key, owner))

	got, err := registry.OwnerOf(ctx, key)
	assert.NoError(t, err)
	assert.Equal(t, owner, got)
}

func TestMint_RejectsDuplicate(t *testing.T) {
	registry := NewRegistry()
	key := testKey(0)

	require.NoError(t, registry.Mint(key, uuid.New()))
	assert.Error(t, registry.Mint(key, uuid.New()))
}

func TestOwnerOf_UnknownAsset(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()

	_, err := registry.OwnerOf(ctx, testKey(9))
	assert.ErrorIs(t, err, ErrUnknownAsset)
}

func TestTransfer_ByOwner(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()
	owner := uuid.New()
	recipient := uuid.New()
	key := testKey(0)
	require.NoError(t, registry.Mint(key, owner))

	err := registry.Transfer(ctx, owner, owner, recipient, key)

	assert.NoError(t, err)
	got, err := registry.OwnerOf(ctx, key)
	assert.NoError(t, err)
	assert.Equal(t, recipient, got)
}

func TestTransfer_UnauthorizedOperator(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()
	owner := uuid.New()
	operator := uuid.New()
	key := testKey(0)
	require.NoError(t, registry.Mint(key, owner))

	err := registry.Transfer(ctx, operator, owner, uuid.New(), key)

	assert.Error(t, err)
	// Ownership unchanged after a failed transfer
	got, ownerErr := registry.OwnerOf(ctx, key)
	assert.NoError(t, ownerErr)
	assert.Equal(t, owner, got)
}

func TestTransfer_WrongFrom(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()
	owner := uuid.New()
	key := testKey(0)
	require.NoError(t, registry.Mint(key, owner))

	err := registry.Transfer(ctx, owner, uuid.New(), uuid.New(), key)
	assert.Error(t, err)
}

func TestTransfer_WithBlanketApproval(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()
	owner := uuid.New()
	operator := uuid.New()
	buyer := uuid.New()
	key := testKey(0)
	require.NoError(t, registry.Mint(key, owner))

	registry.SetApprovalForAll(owner, operator, true)

	approved, err := registry.IsApprovedForAll(ctx, owner, operator)
	assert.NoError(t, err)
	assert.True(t, approved)

	assert.NoError(t, registry.Transfer(ctx, operator, owner, buyer, key))
}

func TestTransfer_WithPerAssetApprovalClearsApproval(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()
	owner := uuid.New()
	operator := uuid.New()
	buyer := uuid.New()
	key := testKey(0)
	require.NoError(t, registry.Mint(key, owner))
	require.NoError(t, registry.Approve(owner, operator, key))

	approved, err := registry.GetApproved(ctx, key)
	require.NoError(t, err)
	require.Equal(t, operator, approved)

	require.NoError(t, registry.Transfer(ctx, operator, owner, buyer, key))

	// Approval does not survive a transfer
	approved, err = registry.GetApproved(ctx, key)
	assert.NoError(t, err)
	assert.Equal(t, uuid.Nil, approved)

	// The old approval grants nothing over the new owner's asset
	err = registry.Transfer(ctx, operator, buyer, uuid.New(), key)
	assert.Error(t, err)
}

func TestSetApprovalForAll_Revocation(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()
	owner := uuid.New()
	operator := uuid.New()

	registry.SetApprovalForAll(owner, operator, true)
	registry.SetApprovalForAll(owner, operator, false)

	approved, err := registry.IsApprovedForAll(ctx, owner, operator)
	assert.NoError(t, err)
	assert.False(t, approved)
}

func TestApprove_RequiresOwner(t *testing.T) {
	registry := NewRegistry()
	owner := uuid.New()
	key := testKey(0)
	require.NoError(t, registry.Mint(key, owner))

	assert.Error(t, registry.Approve(uuid.New(), uuid.New(), key))
}
