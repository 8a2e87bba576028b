package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"golistingsync_api/internal/auth"
	"golistingsync_api/internal/listings/business/models"
	"golistingsync_api/internal/listings/storage"
	"golistingsync_api/pkg/logger"
)

// ListingsHandler is the read side consumed by the view layer. It only ever
// reads the cache; refreshing is SyncHandler's business.
type ListingsHandler struct {
	cache *storage.CacheRepository
	log   logger.Logger
}

func NewListingsHandler(cache *storage.CacheRepository, writer io.Writer) *ListingsHandler {
	_log := logger.NewLogger(writer, "[ListingsHandler]")
	return &ListingsHandler{cache: cache, log: _log}
}

type listingResponse struct {
	LocalID        string  `json:"localId"`
	RemoteID       string  `json:"remoteId,omitempty"`
	Title          string  `json:"title"`
	Price          float64 `json:"price"`
	Currency       string  `json:"currency,omitempty"`
	ListingFormat  string  `json:"listingFormat"`
	DurationPolicy string  `json:"durationPolicy,omitempty"`
	Status         string  `json:"status"`
	Quantity       int     `json:"quantity"`
	QuantitySold   int     `json:"quantitySold"`
	ViewCount      int     `json:"viewCount"`
	WatchCount     int     `json:"watchCount"`
	BidCount       int     `json:"bidCount"`
	TimeRemaining  string  `json:"timeRemaining,omitempty"`
	RemoteURL      string  `json:"remoteUrl,omitempty"`
	LastSyncedAt   string  `json:"lastSyncedAt,omitempty"`
	SourceOfTruth  string  `json:"sourceOfTruth"`
}

func (h *ListingsHandler) GetListingsHandler(w http.ResponseWriter, r *http.Request) {
	accountKey, ok := auth.AccountFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return
	}

	filter := storage.ListFilter{
		Status:        models.ListingStatus(r.URL.Query().Get("status")),
		SourceOfTruth: models.SourceOfTruth(r.URL.Query().Get("source")),
	}
	records, err := h.cache.List(r.Context(), accountKey, filter)
	if err != nil {
		h.log.Log("Failed to list records for %s: %v", accountKey, err)
		http.Error(w, "Failed to fetch listings", http.StatusInternalServerError)
		return
	}

	response := make([]listingResponse, 0, len(records))
	for _, record := range records {
		response = append(response, toListingResponse(record))
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Log("Failed to encode listings: %v", err)
	}
}

func toListingResponse(record models.CachedListingRecord) listingResponse {
	response := listingResponse{
		LocalID:        record.LocalID,
		RemoteID:       record.RemoteID,
		Title:          record.Title,
		Price:          record.Price,
		Currency:       record.Currency,
		ListingFormat:  string(record.ListingFormat),
		DurationPolicy: record.DurationPolicy,
		Status:         string(record.Status),
		Quantity:       record.Quantity,
		QuantitySold:   record.QuantitySold,
		ViewCount:      record.ViewCount,
		WatchCount:     record.WatchCount,
		BidCount:       record.BidCount,
		TimeRemaining:  record.TimeRemaining,
		RemoteURL:      record.RemoteURL,
		SourceOfTruth:  string(record.SourceOfTruth),
	}
	if record.LastSyncedAt != nil {
		response.LastSyncedAt = record.LastSyncedAt.Format(time.RFC3339)
	}
	return response
}
