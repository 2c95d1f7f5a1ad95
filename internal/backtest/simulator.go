package backtest

import (
	"fmt"
	"time"

	"github.com/wonny/sectorlag/internal/contracts"
	"github.com/wonny/sectorlag/pkg/logger"
)

// MaxConcurrentTrades caps simultaneous open positions.
const MaxConcurrentTrades = 3

// State is the simulator lifecycle phase.
type State string

// Simulator states.
const (
	StateCollecting State = "collecting"
	StateRunning    State = "running"
	StateFinalized  State = "finalized"
)

// EquityPoint is one point of the portfolio equity curve.
type EquityPoint struct {
	Date   time.Time
	Equity float64
}

// Result is the frozen outcome of one simulation run.
type Result struct {
	Decisions   []contracts.TradeDecision
	Positions   []contracts.Position
	EquityCurve []EquityPoint
	Metrics     Metrics
}

// Simulator replays pooled candidate trades day by day under the slot cap
// and the one-position-per-ticker constraint. It owns all portfolio state
// exclusively; there is nothing global. Lifecycle: collecting (Add) then
// Run, which finalizes. A finalized simulator always returns the same
// Result.
type Simulator struct {
	log     *logger.Logger
	state   State
	pending []contracts.CandidateTrade
	result  *Result
}

func NewSimulator(log *logger.Logger) *Simulator {
	return &Simulator{log: log, state: StateCollecting}
}

// State returns the current lifecycle phase.
func (s *Simulator) State() State {
	return s.state
}

// Add queues candidates while collecting. Adding after Run is an error.
func (s *Simulator) Add(trades ...contracts.CandidateTrade) error {
	if s.state != StateCollecting {
		return fmt.Errorf("add trades: simulator is %s, not %s", s.state, StateCollecting)
	}
	s.pending = append(s.pending, trades...)
	return nil
}

// Run replays all queued candidates and finalizes. Repeated calls return
// the identical frozen result.
func (s *Simulator) Run() (*Result, error) {
	switch s.state {
	case StateFinalized:
		return s.result, nil
	case StateRunning:
		return nil, fmt.Errorf("run: simulation already in progress")
	}
	s.state = StateRunning

	SortCandidates(s.pending)
	result := s.replay()

	s.result = result
	s.state = StateFinalized

	s.log.WithFields(map[string]interface{}{
		"candidates": len(s.pending),
		"accepted":   len(result.Positions),
		"days":       len(result.EquityCurve),
	}).Info("simulation finalized")
	return s.result, nil
}

type openPosition struct {
	pos   contracts.Position
	trade contracts.CandidateTrade
}

func (s *Simulator) replay() *Result {
	result := &Result{}
	if len(s.pending) == 0 {
		return result
	}

	start := s.pending[0].EntryDate
	end := s.pending[0].ExitDate
	for _, t := range s.pending {
		if t.ExitDate.After(end) {
			end = t.ExitDate
		}
	}

	equity := 1.0
	var open []openPosition
	var openCountSum int
	next := 0 // cursor into the sorted pending list

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		// Exits first: arriving planned exits close and free their slot
		var still []openPosition
		for _, op := range open {
			if op.pos.PlannedExit.After(day) {
				still = append(still, op)
				continue
			}
			ret := op.trade.Return()
			op.pos.ExitDate = op.pos.PlannedExit
			op.pos.ExitPrice = op.trade.ExitPrice
			op.pos.Return = ret
			op.pos.Closed = true
			equity += op.pos.Weight * ret * op.pos.EquityAtEntry
			result.Positions = append(result.Positions, op.pos)
		}
		open = still

		// Then entries in deterministic order. Weights are set once the
		// whole date's batch is decided: each new position gets
		// 1/(open count after the batch); earlier positions keep their
		// entry weight unrebalanced.
		firstNew := len(open)
		for next < len(s.pending) && !s.pending[next].EntryDate.After(day) {
			trade := s.pending[next]
			next++

			reason := s.decide(trade, open)
			if reason != contracts.RejectNone {
				result.Decisions = append(result.Decisions, contracts.TradeDecision{
					Trade:  trade,
					Reason: reason,
				})
				continue
			}

			pos := contracts.Position{
				Ticker:        trade.Ticker,
				Sector:        trade.Sector,
				Direction:     trade.Direction,
				EntryDate:     trade.EntryDate,
				EntryPrice:    trade.EntryPrice,
				PlannedExit:   trade.ExitDate,
				ForcedClose:   trade.ClampedExit,
				Rule:          trade.Rule,
				Leaders:       trade.Leaders,
				EquityAtEntry: equity,
			}
			open = append(open, openPosition{pos: pos, trade: trade})
			result.Decisions = append(result.Decisions, contracts.TradeDecision{
				Trade:    trade,
				Accepted: true,
			})
		}
		for i := firstNew; i < len(open); i++ {
			open[i].pos.Weight = 1.0 / float64(len(open))
		}

		openCountSum += len(open)
		result.EquityCurve = append(result.EquityCurve, EquityPoint{Date: day, Equity: equity})
	}

	// Force-close whatever is still open. A candidate entering on the
	// final day with its exit clamped to that same bar is accepted after
	// the day's exit pass has already run, so it survives the loop.
	for _, op := range open {
		ret := op.trade.Return()
		op.pos.ExitDate = op.pos.PlannedExit
		op.pos.ExitPrice = op.trade.ExitPrice
		op.pos.Return = ret
		op.pos.Closed = true
		op.pos.ForcedClose = true
		equity += op.pos.Weight * ret * op.pos.EquityAtEntry
		result.Positions = append(result.Positions, op.pos)
	}
	if len(open) > 0 {
		result.EquityCurve[len(result.EquityCurve)-1].Equity = equity
	}

	result.Metrics = computeMetrics(result.EquityCurve, len(result.Positions), openCountSum)
	return result
}

// decide applies the acceptance constraints in order. Rejections are
// normal outcomes and are never retried.
func (s *Simulator) decide(trade contracts.CandidateTrade, open []openPosition) contracts.RejectReason {
	if trade.EntryPrice == 0 {
		return contracts.RejectNoEntryPrice
	}
	for _, op := range open {
		if op.pos.Ticker == trade.Ticker {
			return contracts.RejectDuplicateTicker
		}
	}
	if len(open) >= MaxConcurrentTrades {
		return contracts.RejectPortfolioFull
	}
	return contracts.RejectNone
}
