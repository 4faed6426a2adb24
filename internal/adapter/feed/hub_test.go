package feed

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradepost/tradepost-backend/internal/domain"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(hub)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	// The server registers the subscriber after the handshake; wait for it
	// so published events are not lost.
	require.Eventually(t, func() bool {
		return hub.SubscriberCount() == 1
	}, 5*time.Second, 10*time.Millisecond)

	return conn
}

func TestPublish_DeliversEventsInOrder(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	conn := dialHub(t, hub)

	collection := uuid.New()
	seller := uuid.New()
	buyer := uuid.New()

	hub.Publish(domain.ListingEvent{
		Type:       domain.EventListingCreated,
		Collection: collection,
		Item:       0,
		Price:      decimal.RequireFromString("1.5"),
		Seller:     seller,
		OccurredAt: time.Now().UTC(),
	})
	hub.Publish(domain.ListingEvent{
		Type:       domain.EventListingPurchased,
		Collection: collection,
		Item:       0,
		Price:      decimal.RequireFromString("1.5"),
		Seller:     seller,
		Buyer:      buyer,
		OccurredAt: time.Now().UTC(),
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first eventMessage
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, string(domain.EventListingCreated), first.Type)
	assert.Equal(t, collection.String(), first.Collection)
	assert.Equal(t, "1.5", first.Price)
	assert.Equal(t, seller.String(), first.Seller)
	assert.Empty(t, first.Buyer)

	var second eventMessage
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, string(domain.EventListingPurchased), second.Type)
	assert.Equal(t, buyer.String(), second.Buyer)
}

func TestPublish_CancellationOmitsPrice(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	conn := dialHub(t, hub)

	hub.Publish(domain.ListingEvent{
		Type:       domain.EventListingCancelled,
		Collection: uuid.New(),
		Item:       3,
		Seller:     uuid.New(),
		OccurredAt: time.Now().UTC(),
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg eventMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, string(domain.EventListingCancelled), msg.Type)
	assert.Empty(t, msg.Price)
	assert.EqualValues(t, 3, msg.Item)
}

func TestPublish_NoSubscribersIsNoOp(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	hub.Publish(domain.ListingEvent{Type: domain.EventListingCreated})
}
