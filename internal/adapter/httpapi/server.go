// Package httpapi exposes the listing registry over a JSON HTTP API.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradepost/tradepost-backend/internal/domain"
	"github.com/tradepost/tradepost-backend/internal/usecase/market"
)

// accountHeader carries the caller identity on every mutating request.
const accountHeader = "X-Account-Id"

// Server translates HTTP requests into market service calls
type Server struct {
	Market *market.MarketService
}

// NewServer creates a new HTTP API server instance
func NewServer(marketService *market.MarketService) *Server {
	return &Server{Market: marketService}
}

// Handler returns the routed handler for the API. The optional feed handler
// is mounted on the events route; token guards every route.
func (s *Server) Handler(feed http.Handler, token string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/listings", s.handleCreate)
	mux.HandleFunc("GET /v1/listings/{collection}/{item}", s.handleGet)
	mux.HandleFunc("PATCH /v1/listings/{collection}/{item}", s.handleUpdate)
	mux.HandleFunc("DELETE /v1/listings/{collection}/{item}", s.handleCancel)
	mux.HandleFunc("POST /v1/listings/{collection}/{item}/purchase", s.handlePurchase)
	if feed != nil {
		mux.Handle("GET /v1/events", feed)
	}

	return AuthMiddleware(token)(mux)
}

type createListingRequest struct {
	Collection string `json:"collection"`
	Item       uint64 `json:"item"`
	Price      string `json:"price"`
}

type updateListingRequest struct {
	Price string `json:"price"`
}

type purchaseRequest struct {
	Amount string `json:"amount"`
}

type listingResponse struct {
	Collection string `json:"collection"`
	Item       uint64 `json:"item"`
	Price      string `json:"price"`
	Seller     string `json:"seller"`
	Active     bool   `json:"active"`
}

type purchaseResponse struct {
	Collection string `json:"collection"`
	Item       uint64 `json:"item"`
	Price      string `json:"price"`
	Buyer      string `json:"buyer"`
}

// handleCreate handles POST /v1/listings
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	collection, err := uuid.Parse(req.Collection)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid collection format")
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid price format")
		return
	}

	key := domain.AssetKey{Collection: collection, Item: req.Item}
	if err := s.Market.CreateListing(r.Context(), key, price, caller); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, listingResponse{
		Collection: collection.String(),
		Item:       req.Item,
		Price:      price.String(),
		Seller:     caller.String(),
		Active:     true,
	})
}

// handleGet handles GET /v1/listings/{collection}/{item}
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key, ok := pathKey(w, r)
	if !ok {
		return
	}

	listing, err := s.Market.GetListing(r.Context(), key)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listingResponse{
		Collection: key.Collection.String(),
		Item:       key.Item,
		Price:      listing.Price.String(),
		Seller:     listing.Seller.String(),
		Active:     listing.Active(),
	})
}

// handleUpdate handles PATCH /v1/listings/{collection}/{item}
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	key, ok := pathKey(w, r)
	if !ok {
		return
	}

	var req updateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid price format")
		return
	}

	if err := s.Market.UpdateListing(r.Context(), key, price, caller); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listingResponse{
		Collection: key.Collection.String(),
		Item:       key.Item,
		Price:      price.String(),
		Seller:     caller.String(),
		Active:     true,
	})
}

// handleCancel handles DELETE /v1/listings/{collection}/{item}
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	key, ok := pathKey(w, r)
	if !ok {
		return
	}

	if err := s.Market.CancelListing(r.Context(), key, caller); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handlePurchase handles POST /v1/listings/{collection}/{item}/purchase
func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	key, ok := pathKey(w, r)
	if !ok {
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount format")
		return
	}

	if err := s.Market.Purchase(r.Context(), key, caller, amount); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, purchaseResponse{
		Collection: key.Collection.String(),
		Item:       key.Item,
		Price:      amount.String(),
		Buyer:      caller.String(),
	})
}

// callerID extracts the caller identity from the account header.
func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get(accountHeader)
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing "+accountHeader+" header")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		writeError(w, http.StatusBadRequest, "invalid "+accountHeader+" header")
		return uuid.Nil, false
	}
	return id, true
}

// pathKey extracts the asset key from the route path values.
func pathKey(w http.ResponseWriter, r *http.Request) (domain.AssetKey, bool) {
	collection, err := uuid.Parse(r.PathValue("collection"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid collection format")
		return domain.AssetKey{}, false
	}
	item, err := strconv.ParseUint(r.PathValue("item"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item format")
		return domain.AssetKey{}, false
	}
	return domain.AssetKey{Collection: collection, Item: item}, true
}

// writeDomainError converts domain errors to HTTP status codes
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPrice), errors.Is(err, domain.ErrIncorrectAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotListed):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyListed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotOwner), errors.Is(err, domain.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrTransferFailed):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
