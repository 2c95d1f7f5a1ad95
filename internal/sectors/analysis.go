// Package sectors aggregates trade results per sector and decides which
// sectors are currently investable under the weighted strict mode.
package sectors

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/sectorlag/internal/contracts"
	"github.com/wonny/sectorlag/internal/rules"
	"github.com/wonny/sectorlag/pkg/logger"
)

// Stability blend weights: the most recent month dominates.
const (
	weightLast30 = 0.5
	weightPrev30 = 0.3
	weightPrev90 = 0.2
)

// Analyzer derives per-sector statistics from closed trades.
type Analyzer struct {
	cfg rules.SectorFilterConfig
	log *logger.Logger
}

func NewAnalyzer(cfg rules.SectorFilterConfig, log *logger.Logger) *Analyzer {
	return &Analyzer{cfg: cfg, log: log}
}

// Analyze builds each sector's exit-weighted daily return series over the
// business-day range of the trades, computes descriptive metrics and the
// stability blend, and applies the strict-mode filters. Output is ranked
// by win rate.
func (a *Analyzer) Analyze(trades []contracts.CandidateTrade) []contracts.SectorStats {
	daily := sectorDailyReturns(trades)
	if len(daily) == 0 {
		return nil
	}

	sectors := make([]string, 0, len(daily))
	for s := range daily {
		sectors = append(sectors, s)
	}
	sort.Strings(sectors)

	stats := make([]contracts.SectorStats, 0, len(sectors))
	for _, sector := range sectors {
		series := daily[sector]
		s := sectorMetrics(sector, series)
		s.Stability = stabilityScore(series)
		s.Investable, s.Reasons = a.evaluate(s)
		stats = append(stats, s)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].WinRate != stats[j].WinRate {
			return stats[i].WinRate > stats[j].WinRate
		}
		return stats[i].Sector < stats[j].Sector
	})

	a.log.WithField("sectors", len(stats)).Debug("sector analysis complete")
	return stats
}

// WinRates indexes the win rate per sector for rule selection.
func WinRates(stats []contracts.SectorStats) map[string]float64 {
	out := make(map[string]float64, len(stats))
	for _, s := range stats {
		out[s.Sector] = s.WinRate
	}
	return out
}

// InvestableSectors returns the names of sectors that passed the strict
// filters.
func InvestableSectors(stats []contracts.SectorStats) []string {
	var out []string
	for _, s := range stats {
		if s.Investable {
			out = append(out, s.Sector)
		}
	}
	return out
}

type dailyPoint struct {
	date time.Time
	ret  float64
}

// sectorDailyReturns builds one business-day return series per sector.
// On each day the sector's open trades share weight equally; only trades
// exiting that day realize P&L.
func sectorDailyReturns(trades []contracts.CandidateTrade) map[string][]dailyPoint {
	if len(trades) == 0 {
		return nil
	}

	start := trades[0].EntryDate
	end := trades[0].ExitDate
	for _, t := range trades {
		if t.EntryDate.Before(start) {
			start = t.EntryDate
		}
		if t.ExitDate.After(end) {
			end = t.ExitDate
		}
	}

	bySector := make(map[string][]contracts.CandidateTrade)
	for _, t := range trades {
		bySector[t.Sector] = append(bySector[t.Sector], t)
	}

	out := make(map[string][]dailyPoint, len(bySector))
	for sector, secTrades := range bySector {
		var series []dailyPoint
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}

			open := 0
			exitSum := 0.0
			for _, t := range secTrades {
				if t.EntryDate.After(day) || t.ExitDate.Before(day) {
					continue
				}
				open++
				if t.ExitDate.Equal(day) {
					exitSum += t.Return()
				}
			}

			ret := 0.0
			if open > 0 {
				ret = exitSum / float64(open)
			}
			series = append(series, dailyPoint{date: day, ret: ret})
		}
		out[sector] = series
	}
	return out
}

func sectorMetrics(sector string, series []dailyPoint) contracts.SectorStats {
	rets := make([]float64, len(series))
	var sum float64
	wins := 0
	for i, p := range series {
		rets[i] = p.ret
		sum += p.ret
		if p.ret > 0 {
			wins++
		}
	}

	n := float64(len(series))
	mean := sum / n
	winRate := float64(wins) / n

	vol := stddev(rets)
	var downside []float64
	for _, r := range rets {
		if r < 0 {
			downside = append(downside, r)
		}
	}

	sharpe := 0.0
	if vol > 0 {
		sharpe = mean / vol
	}
	sortino := 0.0
	if dv := stddev(downside); dv > 0 {
		sortino = mean / dv
	}

	// Equity from compounded daily returns for the drawdown
	equity := 1.0
	peak := 1.0
	maxDD := 0.0
	for _, r := range rets {
		equity *= 1.0 + r
		if equity > peak {
			peak = equity
		}
		if dd := (equity - peak) / peak; dd < maxDD {
			maxDD = dd
		}
	}

	return contracts.SectorStats{
		Sector:      sector,
		MeanReturn:  mean,
		WinRate:     winRate,
		Volatility:  vol,
		Sharpe:      sharpe,
		Sortino:     sortino,
		MaxDrawdown: maxDD,
	}
}

// stabilityScore blends trailing-window average daily returns: half the
// weight on the last 30 days, the rest decaying into older windows.
func stabilityScore(series []dailyPoint) float64 {
	if len(series) == 0 {
		return 0
	}
	last := series[len(series)-1].date

	avgBetween := func(after, until time.Time) float64 {
		var sum float64
		n := 0
		for _, p := range series {
			if p.date.After(after) && !p.date.After(until) {
				sum += p.ret
				n++
			}
		}
		if n == 0 {
			return 0
		}
		return sum / float64(n)
	}

	last30 := avgBetween(last.AddDate(0, 0, -30), last)
	prev30 := avgBetween(last.AddDate(0, 0, -60), last.AddDate(0, 0, -30))
	prev90 := avgBetween(last.AddDate(0, 0, -150), last.AddDate(0, 0, -60))

	return weightLast30*last30 + weightPrev30*prev30 + weightPrev90*prev90
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}
