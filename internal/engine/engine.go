// Package engine orchestrates one full scan: load prices, build the
// normalized series, detect lag events, generate and score trades, pick
// investable sectors and rules, and replay the chosen trades through the
// portfolio simulator.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/sectorlag/internal/backtest"
	"github.com/wonny/sectorlag/internal/contracts"
	"github.com/wonny/sectorlag/internal/marketdata"
	"github.com/wonny/sectorlag/internal/rules"
	"github.com/wonny/sectorlag/internal/scoring"
	"github.com/wonny/sectorlag/internal/sectors"
	"github.com/wonny/sectorlag/internal/signals"
	"github.com/wonny/sectorlag/internal/universe"
	"github.com/wonny/sectorlag/pkg/logger"
)

// Progress reports scan advancement for interactive callers. done counts
// finished units of the named stage. Never required for correctness.
type Progress func(stage string, done, total int)

// Result is everything one scan produces.
type Result struct {
	Events        int
	Trades        []contracts.CandidateTrade
	Scores        []contracts.RuleScore
	Stability     []contracts.RuleStability
	SectorStats   []contracts.SectorStats
	TopRules      []contracts.RuleStability
	BestPerSector []contracts.RuleStability
	Portfolio     *backtest.Result
	// RealizedScores re-scores rules over the positions the portfolio
	// actually took, after slot contention.
	RealizedScores []contracts.RuleScore
	GeneratedAt    time.Time
}

// Engine wires the scan pipeline. Detection and generation are pure over
// the immutable series; the simulator owns all mutable portfolio state.
type Engine struct {
	reader   contracts.PriceReader
	strategy rules.StrategyConfig
	log      *logger.Logger
	progress Progress
}

func New(reader contracts.PriceReader, strategy rules.StrategyConfig, log *logger.Logger) *Engine {
	return &Engine{reader: reader, strategy: strategy, log: log}
}

// WithProgress installs a progress hook.
func (e *Engine) WithProgress(p Progress) *Engine {
	e.progress = p
	return e
}

func (e *Engine) report(stage string, done, total int) {
	if e.progress != nil {
		e.progress(stage, done, total)
	}
}

// Run executes one scan over the universe between from and to.
func (e *Engine) Run(ctx context.Context, u *universe.Universe, from, to time.Time) (*Result, error) {
	if err := e.strategy.Validate(); err != nil {
		return nil, fmt.Errorf("strategy: %w", err)
	}

	set, err := e.loadSeries(ctx, u, from, to)
	if err != nil {
		return nil, err
	}
	if end, _ := e.strategy.AnalysisEndDate(); !end.IsZero() {
		set = set.ClipEnd(end)
	}

	grid := e.buildGrid(set, u)

	events, err := e.detect(ctx, set, u, grid)
	if err != nil {
		return nil, err
	}

	generator := backtest.NewGenerator(e.log)
	trades := generator.GenerateAll(set, events)

	scorer := scoring.NewScorer(e.strategy.Scoring.Mode)
	outcomes := scoring.OutcomesFromCandidates(trades)
	scores := scorer.Score(outcomes)
	stability := scoring.ComputeStability(outcomes, scores)

	analyzer := sectors.NewAnalyzer(e.strategy.SectorFilters, e.log)
	sectorStats := analyzer.Analyze(trades)

	topRules := scoring.SelectTopGlobal(
		stability,
		sectors.WinRates(sectorStats),
		e.strategy.Scoring.MinSectorWinRate,
		e.strategy.Scoring.TopGlobal,
	)
	bestPerSector := scoring.SelectBestPerSector(
		stability,
		sectors.InvestableSectors(sectorStats),
		e.strategy.Scoring.TopPerSector,
	)

	result := &Result{
		Events:        len(events),
		Trades:        trades,
		Scores:        scores,
		Stability:     stability,
		SectorStats:   sectorStats,
		TopRules:      topRules,
		BestPerSector: bestPerSector,
		GeneratedAt:   time.Now().UTC(),
	}

	selected := scoring.FilterTrades(trades, topRules)
	if len(selected) > 0 {
		sim := backtest.NewSimulator(e.log)
		if err := sim.Add(selected...); err != nil {
			return nil, err
		}
		portfolio, err := sim.Run()
		if err != nil {
			return nil, err
		}
		result.Portfolio = portfolio
		result.RealizedScores = scorer.Score(scoring.OutcomesFromPositions(portfolio.Positions))
	} else {
		e.log.Info("no trades match selected rules, skipping portfolio replay")
	}

	e.log.WithFields(map[string]interface{}{
		"events": result.Events,
		"trades": len(result.Trades),
		"rules":  len(result.Scores),
	}).Info("scan complete")
	return result, nil
}

// loadSeries reads all bars upfront. No I/O happens past this point.
func (e *Engine) loadSeries(ctx context.Context, u *universe.Universe, from, to time.Time) (*marketdata.SeriesSet, error) {
	tickers := u.AllTickers()
	if len(tickers) == 0 {
		return nil, contracts.ErrEmptyUniverse
	}

	var all []contracts.Price
	for i, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		prices, err := e.reader.GetByTickerAndDateRange(ctx, ticker, from, to)
		if err != nil {
			return nil, fmt.Errorf("load prices for %s: %w", ticker, err)
		}
		all = append(all, prices...)
		e.report("load", i+1, len(tickers))
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no price history in range: %w", contracts.ErrEmptyUniverse)
	}

	return marketdata.BuildSeriesSet(all, e.strategy.PriceField), nil
}

// buildGrid merges the adaptive per-sector grid with any explicit rules.
func (e *Engine) buildGrid(set *marketdata.SeriesSet, u *universe.Universe) map[string][]contracts.Rule {
	grid := make(map[string][]contracts.Rule)
	if e.strategy.Grid.Adaptive {
		grid = rules.BuildSectorGrid(set, u)
	}
	for _, r := range e.strategy.Rules {
		grid[r.Sector] = append(grid[r.Sector], r)
	}
	return grid
}

// detect runs the detector over every sector and rule and pools the
// events into one list. Sectors without data contribute nothing.
func (e *Engine) detect(ctx context.Context, set *marketdata.SeriesSet, u *universe.Universe, grid map[string][]contracts.Rule) ([]contracts.LagEvent, error) {
	detector := signals.NewDetector(e.log)

	names := u.SectorNames()
	var events []contracts.LagEvent
	for i, sector := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		members, err := u.Tickers(sector)
		if err != nil {
			e.log.WithError(err).WithField("sector", sector).Warn("skipping sector")
			e.report("detect", i+1, len(names))
			continue
		}
		covered := 0
		for _, m := range members {
			if set.Has(m) {
				covered++
			}
		}
		if covered == 0 {
			e.log.WithField("sector", sector).Warn("sector has no price history, contributing no events")
			e.report("detect", i+1, len(names))
			continue
		}
		for _, rule := range grid[sector] {
			events = append(events, detector.Detect(set, members, rule)...)
		}
		e.report("detect", i+1, len(names))
	}
	return events, nil
}
