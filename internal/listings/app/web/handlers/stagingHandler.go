package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"golistingsync_api/internal/auth"
	"golistingsync_api/internal/listings/business/models"
	"golistingsync_api/internal/listings/storage/staging"
	"golistingsync_api/pkg/logger"
)

// RecordUpserter is the slice of the cache store a confirmation needs.
type RecordUpserter interface {
	Upsert(ctx context.Context, record models.CachedListingRecord) error
}

// StagingHandler exposes the two-phase surface for speculative records:
// stage, list, confirm into the durable cache, discard. Staged entries
// expire on their own; only an explicit confirm promotes one.
type StagingHandler struct {
	staging staging.Store
	cache   RecordUpserter
	ttl     time.Duration
	log     logger.Logger
}

func NewStagingHandler(store staging.Store, cache RecordUpserter, ttl time.Duration, writer io.Writer) *StagingHandler {
	_log := logger.NewLogger(writer, "[StagingHandler]")
	return &StagingHandler{staging: store, cache: cache, ttl: ttl, log: _log}
}

type stageRequest struct {
	Session string          `json:"session"`
	Record  listingResponse `json:"record"`
}

type confirmRequest struct {
	Session string `json:"session"`
	LocalID string `json:"localId"`
}

func (h *StagingHandler) StagingHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listStaged(w, r)
	case http.MethodPost:
		h.stage(w, r)
	case http.MethodDelete:
		h.discard(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *StagingHandler) stage(w http.ResponseWriter, r *http.Request) {
	accountKey, ok := auth.AccountFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return
	}
	var request stageRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if request.Session == "" || request.Record.LocalID == "" {
		http.Error(w, "session and record.localId are required", http.StatusBadRequest)
		return
	}

	record := fromListingResponse(accountKey, request.Record)
	if err := h.staging.Put(r.Context(), request.Session, record, h.ttl); err != nil {
		h.log.Log("Failed to stage record %s: %v", record.LocalID, err)
		http.Error(w, "Failed to stage record", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *StagingHandler) listStaged(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.AccountFromContext(r.Context()); !ok {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return
	}
	session := r.URL.Query().Get("session")
	if session == "" {
		http.Error(w, "session is required", http.StatusBadRequest)
		return
	}

	records, err := h.staging.List(r.Context(), session)
	if err != nil {
		h.log.Log("Failed to list staged records: %v", err)
		http.Error(w, "Failed to list staged records", http.StatusInternalServerError)
		return
	}
	response := make([]listingResponse, 0, len(records))
	for _, record := range records {
		response = append(response, toListingResponse(record))
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Log("Failed to encode staged records: %v", err)
	}
}

func (h *StagingHandler) discard(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.AccountFromContext(r.Context()); !ok {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return
	}
	session := r.URL.Query().Get("session")
	if session == "" {
		http.Error(w, "session is required", http.StatusBadRequest)
		return
	}
	if err := h.staging.Discard(r.Context(), session); err != nil {
		h.log.Log("Failed to discard session %s: %v", session, err)
		http.Error(w, "Failed to discard staged records", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ConfirmHandler promotes one staged record into the durable cache.
func (h *StagingHandler) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := auth.AccountFromContext(r.Context()); !ok {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return
	}
	var request confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if request.Session == "" || request.LocalID == "" {
		http.Error(w, "session and localId are required", http.StatusBadRequest)
		return
	}

	record, err := h.staging.Take(r.Context(), request.Session, request.LocalID)
	if err != nil {
		h.log.Log("Failed to take staged record %s: %v", request.LocalID, err)
		http.Error(w, "Failed to read staged record", http.StatusInternalServerError)
		return
	}
	if record == nil {
		http.Error(w, "Staged record not found or expired", http.StatusNotFound)
		return
	}

	if err := h.cache.Upsert(r.Context(), *record); err != nil {
		h.log.Log("Failed to confirm record %s: %v", record.LocalID, err)
		http.Error(w, "Failed to persist confirmed record", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(toListingResponse(*record))
}

func fromListingResponse(accountKey string, payload listingResponse) models.CachedListingRecord {
	record := models.CachedListingRecord{
		LocalID:        payload.LocalID,
		AccountKey:     accountKey,
		RemoteID:       payload.RemoteID,
		Title:          payload.Title,
		Price:          payload.Price,
		Currency:       payload.Currency,
		ListingFormat:  models.ListingFormat(payload.ListingFormat),
		DurationPolicy: payload.DurationPolicy,
		Status:         models.ListingStatus(payload.Status),
		Quantity:       payload.Quantity,
		QuantitySold:   payload.QuantitySold,
		ViewCount:      payload.ViewCount,
		WatchCount:     payload.WatchCount,
		BidCount:       payload.BidCount,
		TimeRemaining:  payload.TimeRemaining,
		RemoteURL:      payload.RemoteURL,
		SourceOfTruth:  models.SourceOfTruth(payload.SourceOfTruth),
	}
	if payload.LastSyncedAt != "" {
		if t, err := time.Parse(time.RFC3339, payload.LastSyncedAt); err == nil {
			record.LastSyncedAt = &t
		}
	}
	return record
}
