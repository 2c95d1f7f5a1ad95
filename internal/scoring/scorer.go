// Package scoring ranks rules by the trades they produced and selects
// the subset worth funding.
package scoring

import (
	"crypto/sha1"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/wonny/sectorlag/internal/contracts"
	"github.com/wonny/sectorlag/internal/rules"
)

// Trade-count penalty tiers for the quality score. Thin samples are
// discounted hard.
const (
	smallSample  = 50
	mediumSample = 200
)

// TradeOutcome is the minimal per-trade row scoring needs: which rule,
// what it returned, and when it closed.
type TradeOutcome struct {
	Rule     contracts.Rule
	Return   float64
	ExitDate time.Time
}

// OutcomesFromCandidates adapts generated candidates (used when ranking
// the full scan, before portfolio constraints).
func OutcomesFromCandidates(trades []contracts.CandidateTrade) []TradeOutcome {
	out := make([]TradeOutcome, len(trades))
	for i, t := range trades {
		out[i] = TradeOutcome{Rule: t.Rule, Return: t.Return(), ExitDate: t.ExitDate}
	}
	return out
}

// OutcomesFromPositions adapts closed simulator positions (used when
// scoring what the portfolio actually realized).
func OutcomesFromPositions(positions []contracts.Position) []TradeOutcome {
	var out []TradeOutcome
	for _, p := range positions {
		if !p.Closed {
			continue
		}
		out = append(out, TradeOutcome{Rule: p.Rule, Return: p.Return, ExitDate: p.ExitDate})
	}
	return out
}

// RuleID derives the deterministic short identifier for a rule from a
// SHA-1 of its canonical parameter encoding.
func RuleID(r contracts.Rule) string {
	canonical := fmt.Sprintf(
		`{"entry_lag": %d, "group": %q, "group_thresh": %s, "hold_days": %d, "lagger_max_move": %s, "lookback": %d, "participation": %s}`,
		r.EntryLag,
		r.Sector,
		strconv.FormatFloat(r.GroupThreshold, 'g', -1, 64),
		r.Hold,
		strconv.FormatFloat(r.LaggerMaxMove, 'g', -1, 64),
		r.Lookback,
		strconv.FormatFloat(r.Participation, 'g', -1, 64),
	)
	sum := sha1.Sum([]byte(canonical))
	return fmt.Sprintf("R_%X", sum[:4])
}

// Scorer aggregates trade outcomes into per-rule scores under a named
// scoring mode.
type Scorer struct {
	mode string
}

func NewScorer(mode string) *Scorer {
	return &Scorer{mode: mode}
}

// Score groups outcomes by rule and returns the ranked score table:
// composite score descending, ties by trade count descending, then rule
// key.
func (s *Scorer) Score(outcomes []TradeOutcome) []contracts.RuleScore {
	groups := make(map[string][]TradeOutcome)
	ruleByKey := make(map[string]contracts.Rule)
	for _, o := range outcomes {
		key := o.Rule.Key()
		groups[key] = append(groups[key], o)
		ruleByKey[key] = o.Rule
	}

	scores := make([]contracts.RuleScore, 0, len(groups))
	for key, group := range groups {
		rule := ruleByKey[key]
		rets := make([]float64, len(group))
		wins := 0
		minRet := group[0].Return
		var sum float64
		for i, o := range group {
			rets[i] = o.Return
			sum += o.Return
			if o.Return > 0 {
				wins++
			}
			if o.Return < minRet {
				minRet = o.Return
			}
		}

		n := len(group)
		avg := sum / float64(n)
		winRate := float64(wins) / float64(n)

		score := contracts.RuleScore{
			Rule:         rule,
			RuleID:       RuleID(rule),
			Trades:       n,
			WinRate:      winRate,
			AvgReturn:    avg,
			MedianReturn: median(rets),
			MaxDrawdown:  minRet,
		}
		score.Quality = s.composite(score)
		scores = append(scores, score)
	}

	sort.Slice(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.Quality != b.Quality {
			return a.Quality > b.Quality
		}
		if a.Trades != b.Trades {
			return a.Trades > b.Trades
		}
		return a.Rule.Key() < b.Rule.Key()
	})
	return scores
}

// composite applies the configured scoring mode.
func (s *Scorer) composite(score contracts.RuleScore) float64 {
	switch s.mode {
	case rules.ModeExpectancy:
		return score.AvgReturn * score.WinRate
	default: // quality
		penalty := 1.0
		switch {
		case score.Trades < smallSample:
			penalty = 0.5
		case score.Trades < mediumSample:
			penalty = 0.8
		}
		dd := score.MaxDrawdown
		if dd < 0 {
			dd = -dd
		}
		if dd < 1e-6 {
			dd = 1e-6
		}
		return (score.AvgReturn * score.WinRate * penalty) / dd
	}
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
