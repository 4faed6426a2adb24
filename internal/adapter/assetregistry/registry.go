// Package assetregistry provides an in-memory asset ownership registry
// implementing the domain.AssetRegistry capability interface. It follows
// ERC-721 transfer semantics: per-asset approvals, blanket operator grants,
// and transfers that fail loudly without touching ownership.
package assetregistry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tradepost/tradepost-backend/internal/domain"
)

// ErrUnknownAsset indicates the asset has never been minted.
var ErrUnknownAsset = errors.New("unknown asset")

// Registry is an in-memory owner-of-record and transfer authority.
type Registry struct {
	mu        sync.RWMutex
	owners    map[domain.AssetKey]uuid.UUID
	approved  map[domain.AssetKey]uuid.UUID
	operators map[uuid.UUID]map[uuid.UUID]bool
}

// NewRegistry creates an empty asset registry.
func NewRegistry() *Registry {
	return &Registry{
		owners:    make(map[domain.AssetKey]uuid.UUID),
		approved:  make(map[domain.AssetKey]uuid.UUID),
		operators: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

// Mint records a new asset owned by owner.
func (r *Registry) Mint(key domain.AssetKey, owner uuid.UUID) error {
	if owner == uuid.Nil {
		return errors.New("owner cannot be the zero identity")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.owners[key]; exists {
		return fmt.Errorf("asset %s/%d already minted", key.Collection, key.Item)
	}
	r.owners[key] = owner
	return nil
}

// OwnerOf returns the current owner-of-record for an asset.
func (r *Registry) OwnerOf(ctx context.Context, key domain.AssetKey) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	owner, exists := r.owners[key]
	if !exists {
		return uuid.Nil, ErrUnknownAsset
	}
	return owner, nil
}

// Approve grants operator the right to transfer one specific asset.
// Only the asset's owner may grant it.
func (r *Registry) Approve(caller, operator uuid.UUID, key domain.AssetKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, exists := r.owners[key]
	if !exists {
		return ErrUnknownAsset
	}
	if owner != caller {
		return fmt.Errorf("caller %s is not the owner of %s/%d", caller, key.Collection, key.Item)
	}
	r.approved[key] = operator
	return nil
}

// GetApproved returns the identity approved for one asset, or uuid.Nil.
func (r *Registry) GetApproved(ctx context.Context, key domain.AssetKey) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.owners[key]; !exists {
		return uuid.Nil, ErrUnknownAsset
	}
	return r.approved[key], nil
}

// SetApprovalForAll grants or revokes operator's right to transfer every
// asset owned by owner.
func (r *Registry) SetApprovalForAll(owner, operator uuid.UUID, approved bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	grants, exists := r.operators[owner]
	if !exists {
		grants = make(map[uuid.UUID]bool)
		r.operators[owner] = grants
	}
	if approved {
		grants[operator] = true
	} else {
		delete(grants, operator)
	}
}

// IsApprovedForAll reports whether operator holds a blanket grant from owner.
func (r *Registry) IsApprovedForAll(ctx context.Context, owner, operator uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.operators[owner][operator], nil
}

// Transfer moves an asset from one owner to another on behalf of operator.
// Ownership changes only when every check passes; any per-asset approval is
// cleared on transfer.
func (r *Registry) Transfer(ctx context.Context, operator, from, to uuid.UUID, key domain.AssetKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to == uuid.Nil {
		return errors.New("recipient cannot be the zero identity")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	owner, exists := r.owners[key]
	if !exists {
		return ErrUnknownAsset
	}
	if owner != from {
		return fmt.Errorf("%s is not the current owner of %s/%d", from, key.Collection, key.Item)
	}
	if !r.transferAllowed(operator, from, key) {
		return fmt.Errorf("operator %s lacks authorization for %s/%d", operator, key.Collection, key.Item)
	}

	r.owners[key] = to
	delete(r.approved, key)
	return nil
}

func (r *Registry) transferAllowed(operator, owner uuid.UUID, key domain.AssetKey) bool {
	if operator == owner {
		return true
	}
	if r.operators[owner][operator] {
		return true
	}
	return r.approved[key] == operator
}

var _ domain.AssetRegistry = (*Registry)(nil)
