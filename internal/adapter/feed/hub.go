// Package feed broadcasts listing lifecycle events to websocket subscribers.
// The hub implements domain.EventSink: each successful mutation publishes one
// event, and every subscriber receives events in publish order.
package feed

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/tradepost/tradepost-backend/internal/domain"
)

const (
	writeWait = 10 * time.Second

	// subscriberBuffer bounds the per-subscriber queue; subscribers that
	// fall this far behind are disconnected rather than blocking publishes.
	subscriberBuffer = 64
)

// eventMessage is the wire representation of a listing event.
type eventMessage struct {
	Type       string `json:"type"`
	Collection string `json:"collection"`
	Item       uint64 `json:"item"`
	Price      string `json:"price,omitempty"`
	Seller     string `json:"seller"`
	Buyer      string `json:"buyer,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// Hub fans listing events out to connected websocket clients.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	closed      bool

	upgrader websocket.Upgrader
}

type subscriber struct {
	conn   *websocket.Conn
	events chan eventMessage
}

// NewHub creates a hub with no subscribers.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Publish delivers one event to every subscriber. It never blocks: slow
// subscribers are dropped once their buffer fills.
func (h *Hub) Publish(event domain.ListingEvent) {
	msg := encodeEvent(event)

	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers {
		select {
		case sub.events <- msg:
		default:
			delete(h.subscribers, sub)
			close(sub.events)
		}
	}
}

// ServeHTTP upgrades the request to a websocket and streams events until the
// client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("feed upgrade failed: %v", err)
		return
	}

	sub := &subscriber{
		conn:   conn,
		events: make(chan eventMessage, subscriberBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()

	go h.readLoop(sub)
	h.writeLoop(sub)
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subscribers {
		delete(h.subscribers, sub)
		close(sub.events)
	}
}

// readLoop drains client frames so close handshakes are processed.
func (h *Hub) readLoop(sub *subscriber) {
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			h.remove(sub)
			return
		}
	}
}

func (h *Hub) writeLoop(sub *subscriber) {
	defer sub.conn.Close()

	for msg := range sub.events {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sub.conn.WriteJSON(msg); err != nil {
			h.remove(sub)
			return
		}
	}
	_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = sub.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.subscribers[sub]; exists {
		delete(h.subscribers, sub)
		close(sub.events)
	}
}

func encodeEvent(event domain.ListingEvent) eventMessage {
	msg := eventMessage{
		Type:       string(event.Type),
		Collection: event.Collection.String(),
		Item:       event.Item,
		Seller:     event.Seller.String(),
		OccurredAt: event.OccurredAt.Format(time.RFC3339Nano),
	}
	if event.Price.GreaterThan(decimal.Zero) {
		msg.Price = event.Price.String()
	}
	if event.Buyer != uuid.Nil {
		msg.Buyer = event.Buyer.String()
	}
	return msg
}

var _ domain.EventSink = (*Hub)(nil)
