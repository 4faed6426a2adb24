// Package ledger provides an in-memory value transfer channel implementing
// domain.ValueTransfer. Transfers are atomic: a failed transfer leaves both
// balances untouched.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradepost/tradepost-backend/internal/domain"
)

// Ledger tracks account balances and moves value between them.
type Ledger struct {
	mu       sync.Mutex
	balances map[uuid.UUID]decimal.Decimal
	refusing map[uuid.UUID]bool
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[uuid.UUID]decimal.Decimal),
		refusing: make(map[uuid.UUID]bool),
	}
}

// Credit adds value to an account.
func (l *Ledger) Credit(account uuid.UUID, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] = l.balances[account].Add(amount)
}

// Balance returns the current balance of an account.
func (l *Ledger) Balance(account uuid.UUID) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

// SetRefusing marks an account as refusing incoming funds. Transfers to a
// refusing account fail, which models recipients outside the registry's
// control rejecting payment.
func (l *Ledger) SetRefusing(account uuid.UUID, refusing bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refusing[account] = refusing
}

// Transfer moves amount from one account to another. It fails without
// moving anything when the amount is not positive, the sender lacks funds,
// or the recipient refuses incoming value.
func (l *Ledger) Transfer(ctx context.Context, from, to uuid.UUID, amount decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !amount.GreaterThan(decimal.Zero) {
		return fmt.Errorf("transfer amount must be positive, got %s", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.refusing[to] {
		return fmt.Errorf("account %s refuses incoming funds", to)
	}
	if l.balances[from].LessThan(amount) {
		return fmt.Errorf("account %s has insufficient funds", from)
	}

	l.balances[from] = l.balances[from].Sub(amount)
	l.balances[to] = l.balances[to].Add(amount)
	return nil
}

var _ domain.ValueTransfer = (*Ledger)(nil)
