package rules

import (
	"math"

	"github.com/wonny/sectorlag/internal/contracts"
	"github.com/wonny/sectorlag/internal/marketdata"
	"github.com/wonny/sectorlag/internal/universe"
)

// BuildSectorGrid derives a parameter grid per sector from two simple,
// deterministic fingerprints: average per-ticker volatility and average
// cross-sectional dispersion of daily returns. Calm sectors get longer
// lookbacks and tighter thresholds; volatile ones get shorter and wider.
func BuildSectorGrid(set *marketdata.SeriesSet, u *universe.Universe) map[string][]contracts.Rule {
	grid := make(map[string][]contracts.Rule)

	for _, sector := range u.SectorNames() {
		members, err := u.Tickers(sector)
		if err != nil {
			continue
		}

		var tickers []string
		for _, t := range members {
			if set.Has(t) {
				tickers = append(tickers, t)
			}
		}
		if len(tickers) == 0 {
			continue
		}

		vol, dispersion, ok := sectorFingerprint(set, tickers)
		if !ok {
			continue
		}

		var lookbacks, holds []int
		switch {
		case vol > 0.03:
			lookbacks = []int{2, 3}
			holds = []int{3, 5}
		case vol > 0.02:
			lookbacks = []int{3, 5}
			holds = []int{3, 5, 7}
		default:
			lookbacks = []int{5, 10}
			holds = []int{5, 7, 10}
		}

		var groupThresholds []float64
		switch {
		case dispersion > 0.025:
			groupThresholds = []float64{0.03, 0.05}
		case dispersion > 0.015:
			groupThresholds = []float64{0.02, 0.03}
		default:
			groupThresholds = []float64{0.015, 0.02}
		}

		participations := []float64{0.5, 0.6}
		if dispersion > 0.02 {
			participations = []float64{0.6, 0.7}
		}

		// Lagger caps stay tight relative to the group thresholds
		laggerCaps := make([]float64, len(groupThresholds))
		for i, gt := range groupThresholds {
			laggerCaps[i] = math.Min(gt*0.75, 0.04)
		}

		entryLags := []int{0, 1}

		var rulesOut []contracts.Rule
		for _, lb := range lookbacks {
			for _, gt := range groupThresholds {
				for _, part := range participations {
					for _, cap := range laggerCaps {
						for _, lag := range entryLags {
							for _, hold := range holds {
								rulesOut = append(rulesOut, contracts.Rule{
									Sector:         sector,
									Lookback:       lb,
									GroupThreshold: gt,
									Participation:  part,
									LaggerMaxMove:  cap,
									EntryLag:       lag,
									Hold:           hold,
								})
							}
						}
					}
				}
			}
		}

		grid[sector] = rulesOut
	}

	return grid
}

// sectorFingerprint returns (average per-ticker return volatility,
// average cross-sectional dispersion). ok is false when the sector has
// too little data to characterize.
func sectorFingerprint(set *marketdata.SeriesSet, tickers []string) (float64, float64, bool) {
	returns := make(map[string][]float64, len(tickers))
	days := 0
	for _, t := range tickers {
		rets := set.DailyReturns(t)
		if rets == nil {
			continue
		}
		returns[t] = rets
		if len(rets) > days {
			days = len(rets)
		}
	}
	if len(returns) == 0 || days == 0 {
		return 0, 0, false
	}

	// Average per-ticker volatility
	var volSum float64
	var volN int
	for _, rets := range returns {
		if sd, ok := sampleStd(rets); ok {
			volSum += sd
			volN++
		}
	}

	// Average cross-sectional dispersion
	var dispSum float64
	var dispN int
	cross := make([]float64, 0, len(returns))
	for d := 0; d < days; d++ {
		cross = cross[:0]
		for _, rets := range returns {
			if d < len(rets) && !math.IsNaN(rets[d]) {
				cross = append(cross, rets[d])
			}
		}
		if sd, ok := sampleStd(cross); ok {
			dispSum += sd
			dispN++
		}
	}

	if volN == 0 || dispN == 0 {
		return 0, 0, false
	}
	return volSum / float64(volN), dispSum / float64(dispN), true
}

// sampleStd is the NaN-skipping sample standard deviation (ddof 1).
func sampleStd(values []float64) (float64, bool) {
	var sum float64
	var n int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n < 2 {
		return 0, false
	}
	mean := sum / float64(n)

	var ss float64
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1)), true
}
