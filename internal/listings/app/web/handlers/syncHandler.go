package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"golistingsync_api/internal/auth"
	"golistingsync_api/internal/listings/business/models"
	"golistingsync_api/internal/listings/business/services/sync"
	"golistingsync_api/internal/listings/business/syncerr"
	"golistingsync_api/internal/listings/storage"
	"golistingsync_api/pkg/logger"
)

type SyncHandler struct {
	orchestrator *sync.Orchestrator
	audit        *storage.AuditRepository
	log          logger.Logger
}

func NewSyncHandler(orchestrator *sync.Orchestrator, audit *storage.AuditRepository, writer io.Writer) *SyncHandler {
	_log := logger.NewLogger(writer, "[SyncHandler]")
	return &SyncHandler{orchestrator: orchestrator, audit: audit, log: _log}
}

type refreshResponse struct {
	Status            string  `json:"status"`
	RetryAfterSeconds float64 `json:"retryAfterSeconds,omitempty"`
	ItemsSynced       int     `json:"itemsSynced,omitempty"`
	Error             string  `json:"error,omitempty"`
}

func (h *SyncHandler) RefreshAllHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	accountKey, ok := auth.AccountFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return
	}

	result := h.orchestrator.RefreshAll(r.Context(), accountKey)
	writeRefreshResult(w, result)
}

func (h *SyncHandler) RefreshOneHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	accountKey, ok := auth.AccountFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return
	}
	remoteID := r.URL.Query().Get("remote_id")
	if remoteID == "" {
		http.Error(w, "remote_id is required", http.StatusBadRequest)
		return
	}

	result := h.orchestrator.RefreshOne(r.Context(), accountKey, remoteID)
	writeRefreshResult(w, result)
}

// LastSyncHandler serves the "last synced N minutes ago" display.
func (h *SyncHandler) LastSyncHandler(w http.ResponseWriter, r *http.Request) {
	accountKey, ok := auth.AccountFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return
	}

	attempt, err := h.audit.Latest(r.Context(), accountKey)
	if err != nil {
		h.log.Log("Failed to read latest attempt for %s: %v", accountKey, err)
		http.Error(w, "Failed to read sync history", http.StatusInternalServerError)
		return
	}
	if attempt == nil {
		http.Error(w, "No sync attempts recorded", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"attemptId":       attempt.AttemptID,
		"scope":           attempt.ScopeKey,
		"startedAt":       attempt.StartedAt.Format(time.RFC3339),
		"itemsSynced":     attempt.ItemsSynced,
		"remoteCallsMade": attempt.RemoteCallsMade,
		"outcome":         string(attempt.Outcome),
	}
	if attempt.CompletedAt != nil {
		response["completedAt"] = attempt.CompletedAt.Format(time.RFC3339)
	}
	if attempt.FailureReason != "" {
		response["failureReason"] = attempt.FailureReason
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Log("Failed to encode last sync response: %v", err)
	}
}

func writeRefreshResult(w http.ResponseWriter, result models.RefreshResult) {
	response := refreshResponse{
		Status:      string(result.Status),
		ItemsSynced: result.ItemsSynced,
		Error:       userFacingError(result),
	}
	if result.RetryAfter > 0 {
		response.RetryAfterSeconds = result.RetryAfter.Seconds()
	}

	switch result.Status {
	case models.RefreshRejected:
		w.WriteHeader(http.StatusTooManyRequests)
	case models.RefreshFailed:
		w.WriteHeader(http.StatusBadGateway)
	}
	json.NewEncoder(w).Encode(response)
}

// userFacingError turns a failure class into the message the UI shows.
func userFacingError(result models.RefreshResult) string {
	if result.Error == "" {
		return ""
	}
	switch {
	case result.Error == syncerr.ErrSyncInProgress.Error():
		return "sync already in progress"
	case strings.Contains(result.Error, syncerr.ErrRemoteRejected.Error()):
		return "marketplace rejected the account credentials, reconnect your account"
	case strings.Contains(result.Error, syncerr.ErrRemoteUnavailable.Error()),
		strings.Contains(result.Error, syncerr.ErrMalformedRemoteData.Error()):
		return "sync failed, try again after the cooldown"
	default:
		return result.Error
	}
}
