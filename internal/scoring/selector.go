package scoring

import (
	"sort"

	"github.com/wonny/sectorlag/internal/contracts"
)

// SelectTopGlobal picks the best rules across all sectors whose sector
// cleared the win-rate bar. Output is ranked by composite score with the
// stability tie-break.
func SelectTopGlobal(stability []contracts.RuleStability, sectorWinRates map[string]float64, minWinRate float64, topN int) []contracts.RuleStability {
	var candidates []contracts.RuleStability
	for _, s := range stability {
		if sectorWinRates[s.Rule.Sector] < minWinRate {
			continue
		}
		candidates = append(candidates, s)
	}

	sortByQuality(candidates)
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}

// SelectBestPerSector picks the top rules within each investable sector,
// ranked by composite score then trailing 90-day return.
func SelectBestPerSector(stability []contracts.RuleStability, investableSectors []string, topPerSector int) []contracts.RuleStability {
	investable := make(map[string]struct{}, len(investableSectors))
	for _, s := range investableSectors {
		investable[s] = struct{}{}
	}

	bySector := make(map[string][]contracts.RuleStability)
	for _, s := range stability {
		if _, ok := investable[s.Rule.Sector]; !ok {
			continue
		}
		bySector[s.Rule.Sector] = append(bySector[s.Rule.Sector], s)
	}

	sectors := make([]string, 0, len(bySector))
	for s := range bySector {
		sectors = append(sectors, s)
	}
	sort.Strings(sectors)

	var out []contracts.RuleStability
	for _, sector := range sectors {
		group := bySector[sector]
		sortByQuality(group)
		if len(group) > topPerSector {
			group = group[:topPerSector]
		}
		out = append(out, group...)
	}
	return out
}

// FilterTrades keeps the candidates belonging to the selected rules, in
// their original order.
func FilterTrades(trades []contracts.CandidateTrade, selected []contracts.RuleStability) []contracts.CandidateTrade {
	keys := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		keys[s.Rule.Key()] = struct{}{}
	}

	var out []contracts.CandidateTrade
	for _, t := range trades {
		if _, ok := keys[t.Rule.Key()]; ok {
			out = append(out, t)
		}
	}
	return out
}

func sortByQuality(items []contracts.RuleStability) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Quality != b.Quality {
			return a.Quality > b.Quality
		}
		if a.AvgReturnPrev90d != b.AvgReturnPrev90d {
			return a.AvgReturnPrev90d > b.AvgReturnPrev90d
		}
		return a.Rule.Key() < b.Rule.Key()
	})
}
