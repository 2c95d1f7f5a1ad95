package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/sectorlag/internal/api/handlers"
	"github.com/wonny/sectorlag/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(scanHandler *handlers.ScanHandler, dataHandler *handlers.DataHandler, hub *Hub, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Progress stream
	r.HandleFunc("/ws/progress", hub.ServeWS)

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Scan endpoints
	api.HandleFunc("/scan", scanHandler.Trigger).Methods("POST")
	api.HandleFunc("/scan/summary", scanHandler.GetSummary).Methods("GET")
	api.HandleFunc("/scan/sectors", scanHandler.GetSectors).Methods("GET")
	api.HandleFunc("/scan/rules", scanHandler.GetRules).Methods("GET")
	api.HandleFunc("/scan/trades", scanHandler.GetTrades).Methods("GET")
	api.HandleFunc("/scan/portfolio", scanHandler.GetPortfolio).Methods("GET")

	// Data endpoints
	api.HandleFunc("/data/universe", dataHandler.GetUniverse).Methods("GET")
	api.HandleFunc("/data/collect", dataHandler.Collect).Methods("POST")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "sectorlag-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
