package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/wonny/sectorlag/internal/marketdata"
	"github.com/wonny/sectorlag/internal/universe"
	"github.com/wonny/sectorlag/pkg/logger"
)

// PriceCollector tops up stored price history.
type PriceCollector interface {
	Collect(ctx context.Context, tickers []string, now time.Time) (marketdata.CollectResult, error)
}

// DataHandler handles universe and price collection endpoints.
type DataHandler struct {
	collector PriceCollector
	universe  *universe.Universe
	logger    *logger.Logger
}

// NewDataHandler creates a new data handler.
func NewDataHandler(col PriceCollector, u *universe.Universe, log *logger.Logger) *DataHandler {
	return &DataHandler{
		collector: col,
		universe:  u,
		logger:    log,
	}
}

// GetUniverse returns the configured sector map.
// GET /api/data/universe
func (h *DataHandler) GetUniverse(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.universe.Sectors)
}

// CollectRequest narrows a collection run to specific tickers. An empty
// list means the whole universe.
type CollectRequest struct {
	Tickers []string `json:"tickers"`
}

// CollectResponse summarizes a collection run.
type CollectResponse struct {
	Status  string   `json:"status"`
	Tickers int      `json:"tickers"`
	Bars    int      `json:"bars"`
	Failed  []string `json:"failed,omitempty"`
}

// Collect triggers price collection.
// POST /api/data/collect
func (h *DataHandler) Collect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CollectRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	tickers := req.Tickers
	if len(tickers) == 0 {
		tickers = h.universe.AllTickers()
	}

	h.logger.WithField("tickers", len(tickers)).Info("Price collection triggered")

	result, err := h.collector.Collect(ctx, tickers, time.Now().UTC())
	if err != nil {
		h.logger.WithError(err).Error("Price collection failed")
		respondError(w, http.StatusInternalServerError, "Price collection failed")
		return
	}

	respondJSON(w, http.StatusOK, CollectResponse{
		Status:  "ok",
		Tickers: result.Tickers,
		Bars:    result.Bars,
		Failed:  result.Failed,
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
