package seeder

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradepost/tradepost-backend/internal/domain"
)

// Fixed UUIDs for the demo fixture so a fresh server is exercisable with
// known identities
var (
	DemoCollection = uuid.MustParse("00000000-0000-0000-0000-0000000000c0")
	DemoSeller     = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	DemoBuyer      = uuid.MustParse("00000000-0000-0000-0000-0000000000a2")
)

// demoItems are the asset item ids minted into the demo collection
var demoItems = []uint64{0, 1, 2}

// demoBuyerBalance is the value credited to the demo buyer account
var demoBuyerBalance = decimal.NewFromInt(100)

// AssetMinter creates assets and grants transfer authorization
type AssetMinter interface {
	Mint(key domain.AssetKey, owner uuid.UUID) error
	SetApprovalForAll(owner, operator uuid.UUID, approved bool)
}

// FundCreditor adds value to an account
type FundCreditor interface {
	Credit(account uuid.UUID, amount decimal.Decimal)
}

// DemoSeeder seeds a demo collection, operator approval, and buyer funds
type DemoSeeder struct {
	assets   AssetMinter
	funds    FundCreditor
	operator uuid.UUID
}

// NewDemoSeeder creates a new DemoSeeder instance
func NewDemoSeeder(assets AssetMinter, funds FundCreditor, operator uuid.UUID) *DemoSeeder {
	return &DemoSeeder{
		assets:   assets,
		funds:    funds,
		operator: operator,
	}
}

// Seed mints the demo assets to the demo seller, grants the registry
// operator a blanket approval, and credits the demo buyer
func (s *DemoSeeder) Seed(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, item := range demoItems {
		key := domain.AssetKey{Collection: DemoCollection, Item: item}
		if err := s.assets.Mint(key, DemoSeller); err != nil {
			return err
		}
	}

	s.assets.SetApprovalForAll(DemoSeller, s.operator, true)
	s.funds.Credit(DemoBuyer, demoBuyerBalance)

	return nil
}
