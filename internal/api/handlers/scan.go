package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/sectorlag/internal/backtest"
	"github.com/wonny/sectorlag/internal/contracts"
	"github.com/wonny/sectorlag/internal/engine"
	"github.com/wonny/sectorlag/pkg/logger"
)

const dateFormat = "2006-01-02"

// ScanRunner executes one full scan. The API triggers it asynchronously.
type ScanRunner func(ctx context.Context) (*engine.Result, error)

// ScanHandler serves the latest scan result and triggers new scans.
type ScanHandler struct {
	store  *ResultStore
	run    ScanRunner
	logger *logger.Logger
}

// NewScanHandler creates a new scan handler. run may be nil for read-only
// deployments.
func NewScanHandler(store *ResultStore, run ScanRunner, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		store:  store,
		run:    run,
		logger: log,
	}
}

// SummaryView is the top-level scan digest.
type SummaryView struct {
	GeneratedAt string       `json:"generatedAt"`
	Events      int          `json:"events"`
	Trades      int          `json:"trades"`
	Rules       int          `json:"rules"`
	TopRules    int          `json:"topRules"`
	ScanRunning bool         `json:"scanRunning"`
	Portfolio   *MetricsView `json:"portfolio,omitempty"`
}

// MetricsView mirrors the portfolio-level metrics.
type MetricsView struct {
	TotalReturn   float64 `json:"totalReturn"`
	MaxDrawdown   float64 `json:"maxDrawdown"`
	CAGR          float64 `json:"cagr"`
	Volatility    float64 `json:"volatility"`
	Sharpe        float64 `json:"sharpe"`
	Sortino       float64 `json:"sortino"`
	Trades        int     `json:"trades"`
	AvgConcurrent float64 `json:"avgConcurrent"`
}

// SectorView is one sector's investability summary.
type SectorView struct {
	Sector      string   `json:"sector"`
	MeanReturn  float64  `json:"meanReturn"`
	WinRate     float64  `json:"winRate"`
	Volatility  float64  `json:"volatility"`
	Sharpe      float64  `json:"sharpe"`
	Sortino     float64  `json:"sortino"`
	MaxDrawdown float64  `json:"maxDrawdown"`
	Stability   float64  `json:"stability"`
	Investable  bool     `json:"investable"`
	Reasons     []string `json:"reasons,omitempty"`
}

// RuleView is one selected rule with its score and stability.
type RuleView struct {
	RuleID           string  `json:"ruleId"`
	Sector           string  `json:"sector"`
	Lookback         int     `json:"lookback"`
	GroupThreshold   float64 `json:"groupThreshold"`
	Participation    float64 `json:"participation"`
	LaggerMaxMove    float64 `json:"laggerMaxMove"`
	EntryLag         int     `json:"entryLag"`
	Hold             int     `json:"hold"`
	Trades           int     `json:"trades"`
	WinRate          float64 `json:"winRate"`
	AvgReturn        float64 `json:"avgReturn"`
	MedianReturn     float64 `json:"medianReturn"`
	MaxDrawdown      float64 `json:"maxDrawdown"`
	Quality          float64 `json:"quality"`
	AvgReturnPrev90d float64 `json:"avgReturnPrev90d"`
	AvgReturnPrev30d float64 `json:"avgReturnPrev30d"`
	Investable       bool    `json:"investable"`
}

// TradeView is one candidate trade.
type TradeView struct {
	Sector      string   `json:"sector"`
	Ticker      string   `json:"ticker"`
	Direction   string   `json:"direction"`
	SignalDate  string   `json:"signalDate"`
	EntryDate   string   `json:"entryDate"`
	ExitDate    string   `json:"exitDate"`
	EntryPrice  float64  `json:"entryPrice"`
	ExitPrice   float64  `json:"exitPrice"`
	Return      float64  `json:"return"`
	ClampedExit bool     `json:"clampedExit"`
	Leaders     []string `json:"leaders"`
}

// PositionView is one portfolio position.
type PositionView struct {
	Sector      string  `json:"sector"`
	Ticker      string  `json:"ticker"`
	Direction   string  `json:"direction"`
	EntryDate   string  `json:"entryDate"`
	ExitDate    string  `json:"exitDate"`
	Weight      float64 `json:"weight"`
	Return      float64 `json:"return"`
	ForcedClose bool    `json:"forcedClose"`
}

// EquityPointView is one equity curve sample.
type EquityPointView struct {
	Date   string  `json:"date"`
	Equity float64 `json:"equity"`
}

// PortfolioView bundles the replay outputs.
type PortfolioView struct {
	Metrics     MetricsView       `json:"metrics"`
	Positions   []PositionView    `json:"positions"`
	EquityCurve []EquityPointView `json:"equityCurve"`
}

// Trigger starts a scan in the background.
// POST /api/scan
func (h *ScanHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if h.run == nil {
		respondError(w, http.StatusServiceUnavailable, "Scan runner not configured")
		return
	}
	if !h.store.TryBegin() {
		respondError(w, http.StatusConflict, "Scan already running")
		return
	}

	h.logger.Info("Scan triggered via API")
	go func() {
		defer h.store.End()

		result, err := h.run(context.Background())
		if err != nil {
			h.logger.WithError(err).Error("Scan failed")
			return
		}
		h.store.SetLatest(result)
	}()

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// GetSummary returns the scan digest.
// GET /api/scan/summary
func (h *ScanHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	result, ok := h.latest(w)
	if !ok {
		return
	}

	view := SummaryView{
		GeneratedAt: result.GeneratedAt.Format(time.RFC3339),
		Events:      result.Events,
		Trades:      len(result.Trades),
		Rules:       len(result.Scores),
		TopRules:    len(result.TopRules),
		ScanRunning: h.store.Running(),
	}
	if result.Portfolio != nil {
		m := metricsView(result.Portfolio.Metrics)
		view.Portfolio = &m
	}
	respondJSON(w, http.StatusOK, view)
}

// GetSectors returns per-sector investability stats.
// GET /api/scan/sectors
func (h *ScanHandler) GetSectors(w http.ResponseWriter, r *http.Request) {
	result, ok := h.latest(w)
	if !ok {
		return
	}

	views := make([]SectorView, 0, len(result.SectorStats))
	for _, s := range result.SectorStats {
		views = append(views, SectorView{
			Sector:      s.Sector,
			MeanReturn:  s.MeanReturn,
			WinRate:     s.WinRate,
			Volatility:  s.Volatility,
			Sharpe:      s.Sharpe,
			Sortino:     s.Sortino,
			MaxDrawdown: s.MaxDrawdown,
			Stability:   s.Stability,
			Investable:  s.Investable,
			Reasons:     s.Reasons,
		})
	}
	respondJSON(w, http.StatusOK, views)
}

// GetRules returns selected rules. scope=sector switches from the global
// top list to the best-per-sector list.
// GET /api/scan/rules?scope=global|sector
func (h *ScanHandler) GetRules(w http.ResponseWriter, r *http.Request) {
	result, ok := h.latest(w)
	if !ok {
		return
	}

	selected := result.TopRules
	if r.URL.Query().Get("scope") == "sector" {
		selected = result.BestPerSector
	}

	views := make([]RuleView, 0, len(selected))
	for _, s := range selected {
		views = append(views, ruleView(s))
	}
	respondJSON(w, http.StatusOK, views)
}

// GetTrades returns every candidate trade from the scan.
// GET /api/scan/trades
func (h *ScanHandler) GetTrades(w http.ResponseWriter, r *http.Request) {
	result, ok := h.latest(w)
	if !ok {
		return
	}

	views := make([]TradeView, 0, len(result.Trades))
	for _, t := range result.Trades {
		views = append(views, TradeView{
			Sector:      t.Sector,
			Ticker:      t.Ticker,
			Direction:   t.Direction.String(),
			SignalDate:  t.SignalDate.Format(dateFormat),
			EntryDate:   t.EntryDate.Format(dateFormat),
			ExitDate:    t.ExitDate.Format(dateFormat),
			EntryPrice:  t.EntryPrice,
			ExitPrice:   t.ExitPrice,
			Return:      t.Return(),
			ClampedExit: t.ClampedExit,
			Leaders:     t.Leaders,
		})
	}
	respondJSON(w, http.StatusOK, views)
}

// GetPortfolio returns the replayed portfolio.
// GET /api/scan/portfolio
func (h *ScanHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	result, ok := h.latest(w)
	if !ok {
		return
	}
	if result.Portfolio == nil {
		respondError(w, http.StatusNotFound, "No trades matched the selected rules")
		return
	}

	view := PortfolioView{
		Metrics:     metricsView(result.Portfolio.Metrics),
		Positions:   make([]PositionView, 0, len(result.Portfolio.Positions)),
		EquityCurve: make([]EquityPointView, 0, len(result.Portfolio.EquityCurve)),
	}
	for _, p := range result.Portfolio.Positions {
		view.Positions = append(view.Positions, PositionView{
			Sector:      p.Sector,
			Ticker:      p.Ticker,
			Direction:   p.Direction.String(),
			EntryDate:   p.EntryDate.Format(dateFormat),
			ExitDate:    p.ExitDate.Format(dateFormat),
			Weight:      p.Weight,
			Return:      p.Return,
			ForcedClose: p.ForcedClose,
		})
	}
	for _, pt := range result.Portfolio.EquityCurve {
		view.EquityCurve = append(view.EquityCurve, EquityPointView{
			Date:   pt.Date.Format(dateFormat),
			Equity: pt.Equity,
		})
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *ScanHandler) latest(w http.ResponseWriter) (*engine.Result, bool) {
	result := h.store.Latest()
	if result == nil {
		respondError(w, http.StatusNotFound, "No scan result available yet")
		return nil, false
	}
	return result, true
}

func metricsView(m backtest.Metrics) MetricsView {
	return MetricsView{
		TotalReturn:   m.TotalReturn,
		MaxDrawdown:   m.MaxDrawdown,
		CAGR:          m.CAGR,
		Volatility:    m.Volatility,
		Sharpe:        m.Sharpe,
		Sortino:       m.Sortino,
		Trades:        m.Trades,
		AvgConcurrent: m.AvgConcurrent,
	}
}

func ruleView(s contracts.RuleStability) RuleView {
	return RuleView{
		RuleID:           s.RuleID,
		Sector:           s.Rule.Sector,
		Lookback:         s.Rule.Lookback,
		GroupThreshold:   s.Rule.GroupThreshold,
		Participation:    s.Rule.Participation,
		LaggerMaxMove:    s.Rule.LaggerMaxMove,
		EntryLag:         s.Rule.EntryLag,
		Hold:             s.Rule.Hold,
		Trades:           s.Trades,
		WinRate:          s.WinRate,
		AvgReturn:        s.AvgReturn,
		MedianReturn:     s.MedianReturn,
		MaxDrawdown:      s.MaxDrawdown,
		Quality:          s.Quality,
		AvgReturnPrev90d: s.AvgReturnPrev90d,
		AvgReturnPrev30d: s.AvgReturnPrev30d,
		Investable:       s.Investable,
	}
}
