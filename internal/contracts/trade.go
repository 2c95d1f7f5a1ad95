package contracts

import "time"

// CandidateTrade is one trade proposed from a LagEvent under its rule's
// entry/hold parameters. Candidates are immutable; acceptance or rejection
// is decided later by the portfolio simulator.
type CandidateTrade struct {
	Ticker     string
	Sector     string
	Direction  Direction
	SignalDate time.Time
	EntryDate  time.Time
	// ExitDate is the planned exit. If the hold overruns available history
	// it is clamped to the last available bar (early termination).
	ExitDate   time.Time
	EntryPrice float64
	ExitPrice  float64
	// ClampedExit marks an exit cut short by the end of history.
	ClampedExit bool
	Rule        Rule
	Leaders     []string
}

// Return is the signed hold-period return of the candidate, before any
// portfolio weighting.
func (t CandidateTrade) Return() float64 {
	if t.EntryPrice == 0 {
		return 0
	}
	return (t.ExitPrice/t.EntryPrice - 1.0) * t.Direction.Sign()
}

// RejectReason explains why the simulator refused a candidate. A rejection
// is a normal simulation outcome, not an error.
type RejectReason string

// Rejection reasons.
const (
	RejectNone            RejectReason = ""
	RejectPortfolioFull   RejectReason = "portfolio_full"
	RejectDuplicateTicker RejectReason = "duplicate_ticker"
	RejectNoEntryPrice    RejectReason = "no_entry_price"
)

// TradeDecision is one row of the simulator's trade log: a candidate plus
// the accept/reject outcome.
type TradeDecision struct {
	Trade    CandidateTrade
	Accepted bool
	Reason   RejectReason
}

// Position is an accepted CandidateTrade with realized prices and the
// weight fixed at entry. Owned exclusively by the portfolio simulator;
// immutable after close.
type Position struct {
	Ticker     string
	Sector     string
	Direction  Direction
	EntryDate  time.Time
	EntryPrice float64
	// Weight is 1/(open positions immediately after acceptance). It is
	// fixed for the life of the position; see the simulator docs for the
	// non-rebalancing model limitation.
	Weight        float64
	PlannedExit   time.Time
	ExitDate      time.Time
	ExitPrice     float64
	Return        float64
	Closed        bool
	ForcedClose   bool
	Rule          Rule
	Leaders       []string
	EquityAtEntry float64
}
