package scoring

import (
	"sort"
	"time"

	"github.com/wonny/sectorlag/internal/contracts"
)

// Stability windows, measured back from the latest exit date.
const (
	stabilityLongWindow  = 90 * 24 * time.Hour
	stabilityShortWindow = 30 * 24 * time.Hour
)

// ComputeStability extends each rule score with trailing-window average
// returns keyed by exit date, separating rules that still work from rules
// that only used to. A rule is investable when its composite score is
// positive.
func ComputeStability(outcomes []TradeOutcome, scores []contracts.RuleScore) []contracts.RuleStability {
	if len(outcomes) == 0 || len(scores) == 0 {
		return nil
	}

	last := outcomes[0].ExitDate
	for _, o := range outcomes {
		if o.ExitDate.After(last) {
			last = o.ExitDate
		}
	}
	cut90 := last.Add(-stabilityLongWindow)
	cut30 := last.Add(-stabilityShortWindow)

	type window struct {
		sum90, sum30 float64
		n90, n30     int
	}
	windows := make(map[string]*window)
	for _, o := range outcomes {
		key := o.Rule.Key()
		w, ok := windows[key]
		if !ok {
			w = &window{}
			windows[key] = w
		}
		if !o.ExitDate.Before(cut90) {
			w.sum90 += o.Return
			w.n90++
		}
		if !o.ExitDate.Before(cut30) {
			w.sum30 += o.Return
			w.n30++
		}
	}

	out := make([]contracts.RuleStability, 0, len(scores))
	for _, score := range scores {
		stab := contracts.RuleStability{
			RuleScore:  score,
			Investable: score.Quality > 0,
		}
		if w, ok := windows[score.Rule.Key()]; ok {
			if w.n90 > 0 {
				stab.AvgReturnPrev90d = w.sum90 / float64(w.n90)
			}
			if w.n30 > 0 {
				stab.AvgReturnPrev30d = w.sum30 / float64(w.n30)
			}
		}
		out = append(out, stab)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Quality != b.Quality {
			return a.Quality > b.Quality
		}
		return a.Rule.Key() < b.Rule.Key()
	})
	return out
}
