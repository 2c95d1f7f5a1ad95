package contracts

// RuleScore is the per-rule aggregate over closed positions attributable
// to the rule (rejected candidates are excluded).
type RuleScore struct {
	Rule         Rule
	RuleID       string
	Trades       int
	WinRate      float64
	AvgReturn    float64
	MedianReturn float64
	// MaxDrawdown is the worst single-trade return for the rule, the
	// rule-level drawdown contribution used by the quality score.
	MaxDrawdown float64
	Quality     float64
}

// RuleStability extends a RuleScore with trailing-window average returns
// (by exit date), used to separate persistent rules from stale ones.
type RuleStability struct {
	RuleScore
	AvgReturnPrev90d float64
	AvgReturnPrev30d float64
	Investable       bool
}

// SectorStats is the descriptive cross-sectional summary for one sector,
// derived from its daily return series.
type SectorStats struct {
	Sector      string
	MeanReturn  float64
	WinRate     float64
	Volatility  float64
	Sharpe      float64
	Sortino     float64
	MaxDrawdown float64
	Stability   float64
	Investable  bool
	Reasons     []string
}
