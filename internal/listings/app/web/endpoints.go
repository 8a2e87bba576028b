package web

import (
	"log"
	"net/http"

	"golistingsync_api/internal/auth"
	"golistingsync_api/internal/listings/app/web/handlers"
	"golistingsync_api/metrics"
	"golistingsync_api/pkg/middleware"
)

// SetupRoutes wires the listing sync endpoints onto the default mux and
// serves. Everything under /api except ping requires a seller token.
func SetupRoutes(
	addr string,
	jwtSecret string,
	syncHandler *handlers.SyncHandler,
	listingsHandler *handlers.ListingsHandler,
	stagingHandler *handlers.StagingHandler,
) {
	authMiddleware := auth.AuthMiddleware(jwtSecret)
	protected := func(handlerFunc http.HandlerFunc) http.Handler {
		return middleware.PrometheusMiddleware(authMiddleware(handlerFunc))
	}

	http.Handle("/api/sync/refresh", protected(syncHandler.RefreshAllHandler))
	http.Handle("/api/sync/refresh-item", protected(syncHandler.RefreshOneHandler))
	http.Handle("/api/sync/last", protected(syncHandler.LastSyncHandler))
	http.Handle("/api/listings", protected(listingsHandler.GetListingsHandler))
	http.Handle("/api/staging", protected(stagingHandler.StagingHandler))
	http.Handle("/api/staging/confirm", protected(stagingHandler.ConfirmHandler))
	http.Handle("/metrics", metrics.MetricsHandler())
	http.HandleFunc("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	log.Printf("Listing sync service listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
