// Package backtest turns lag events into candidate trades and replays
// them through a capacity-constrained portfolio.
package backtest

import (
	"sort"

	"github.com/wonny/sectorlag/internal/contracts"
	"github.com/wonny/sectorlag/internal/marketdata"
	"github.com/wonny/sectorlag/pkg/logger"
)

// Generator maps lag events to candidate trades. Direction is contrarian
// to the lag: long a lagger in an up move, short in a down move.
type Generator struct {
	log *logger.Logger
}

func NewGenerator(log *logger.Logger) *Generator {
	return &Generator{log: log}
}

// Generate produces at most one candidate from an event. ok is false when
// the projected entry falls outside history or the lagger has no price on
// the entry date; both are silent drops, not errors.
func (g *Generator) Generate(set *marketdata.SeriesSet, ev contracts.LagEvent) (contracts.CandidateTrade, bool) {
	signalIdx, found := set.IndexOf(ev.SignalDate)
	if !found {
		return contracts.CandidateTrade{}, false
	}

	entryIdx := signalIdx + ev.Rule.EntryLag
	if entryIdx >= set.Len() {
		return contracts.CandidateTrade{}, false
	}

	entryPrice, ok := set.Value(ev.Lagger, entryIdx)
	if !ok {
		return contracts.CandidateTrade{}, false
	}

	// Hold overrunning history exits at the last bar instead
	exitIdx := entryIdx + ev.Rule.Hold
	clamped := false
	if exitIdx >= set.Len() {
		exitIdx = set.Len() - 1
		clamped = true
	}

	// Missing exit bar resolves to the last known price before it
	exitPrice, ok := set.LastKnown(ev.Lagger, exitIdx)
	if !ok {
		return contracts.CandidateTrade{}, false
	}

	return contracts.CandidateTrade{
		Ticker:      ev.Lagger,
		Sector:      ev.Sector,
		Direction:   ev.Direction,
		SignalDate:  ev.SignalDate,
		EntryDate:   set.Date(entryIdx),
		ExitDate:    set.Date(exitIdx),
		EntryPrice:  entryPrice,
		ExitPrice:   exitPrice,
		ClampedExit: clamped,
		Rule:        ev.Rule,
		Leaders:     ev.MoverTickers(),
	}, true
}

// GenerateAll maps a pooled event list into candidates sorted for the
// simulator: entry date, then ticker, then rule key. The ordering is the
// reproducibility contract for slot contention.
func (g *Generator) GenerateAll(set *marketdata.SeriesSet, events []contracts.LagEvent) []contracts.CandidateTrade {
	var trades []contracts.CandidateTrade
	dropped := 0
	for _, ev := range events {
		trade, ok := g.Generate(set, ev)
		if !ok {
			dropped++
			continue
		}
		trades = append(trades, trade)
	}

	SortCandidates(trades)

	if dropped > 0 {
		g.log.WithFields(map[string]interface{}{
			"events":  len(events),
			"dropped": dropped,
		}).Debug("candidates dropped for missing entry data")
	}
	return trades
}

// SortCandidates orders trades by entry date, ticker, then rule key.
func SortCandidates(trades []contracts.CandidateTrade) {
	sort.SliceStable(trades, func(i, j int) bool {
		a, b := trades[i], trades[j]
		if !a.EntryDate.Equal(b.EntryDate) {
			return a.EntryDate.Before(b.EntryDate)
		}
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		return a.Rule.Key() < b.Rule.Key()
	})
}
