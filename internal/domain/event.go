package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType identifies the kind of listing lifecycle event
type EventType string

const (
	EventListingCreated   EventType = "LISTING_CREATED"
	EventListingCancelled EventType = "LISTING_CANCELLED"
	EventListingUpdated   EventType = "LISTING_UPDATED"
	EventListingPurchased EventType = "LISTING_PURCHASED"
)

// ListingEvent is emitted once per successful mutating call, in mutation
// order. Events are the only history the registry produces; listings leave
// no record once removed.
type ListingEvent struct {
	Type       EventType
	Collection uuid.UUID
	Item       uint64
	Price      decimal.Decimal // zero for cancellations
	Seller     uuid.UUID
	Buyer      uuid.UUID // set for purchases only
	OccurredAt time.Time
}

// EventSink receives listing lifecycle events. Delivery is fire-and-forget:
// a sink must not block the mutation that produced the event.
type EventSink interface {
	Publish(event ListingEvent)
}
