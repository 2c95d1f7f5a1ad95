// Package signals detects sector lag events: dates where most of a
// sector moved decisively while one member barely moved at all.
package signals

import (
	"iter"
	"math"
	"sort"

	"github.com/wonny/sectorlag/internal/contracts"
	"github.com/wonny/sectorlag/internal/marketdata"
	"github.com/wonny/sectorlag/pkg/logger"
)

// Signal-quality floors. Windows that fail these produce no events.
const (
	// MinLeaders is the smallest group that counts as a sector move.
	MinLeaders = 2
	// MinLaggers is the smallest lagger set worth emitting.
	MinLaggers = 1
	// MinWindowStd rejects flat windows with no real dispersion.
	MinWindowStd = 0.01
)

// Detector scans one sector's aligned series for lag events under a
// single rule. Detectors are stateless; runs never share state.
type Detector struct {
	log *logger.Logger
}

func NewDetector(log *logger.Logger) *Detector {
	return &Detector{log: log}
}

// Events returns a lazy, restartable sequence of lag events for the rule
// over the sector members present in the series. Each iteration is an
// independent pass.
func (d *Detector) Events(set *marketdata.SeriesSet, members []string, rule contracts.Rule) iter.Seq[contracts.LagEvent] {
	return func(yield func(contracts.LagEvent) bool) {
		tickers := presentTickers(set, members)
		if len(tickers) == 0 || set.Len() <= rule.Lookback {
			return
		}

		for end := rule.Lookback; end < set.Len(); end++ {
			events := d.scanWindow(set, tickers, rule, end)
			for _, ev := range events {
				if !yield(ev) {
					return
				}
			}
		}
	}
}

// Detect collects the full event sequence.
func (d *Detector) Detect(set *marketdata.SeriesSet, members []string, rule contracts.Rule) []contracts.LagEvent {
	var out []contracts.LagEvent
	for ev := range d.Events(set, members, rule) {
		out = append(out, ev)
	}
	if len(out) > 0 {
		d.log.WithFields(map[string]interface{}{
			"sector": rule.Sector,
			"rule":   rule.Key(),
			"events": len(out),
		}).Debug("lag events detected")
	}
	return out
}

// scanWindow evaluates one trailing window ending at calendar position
// end and returns the lag events it produces (one per lagger).
func (d *Detector) scanWindow(set *marketdata.SeriesSet, tickers []string, rule contracts.Rule, end int) []contracts.LagEvent {
	start := end - rule.Lookback

	// Trailing window returns. A ticker missing either endpoint drops
	// out of every count for this date.
	rets := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		first, ok1 := set.Value(t, start)
		last, ok2 := set.Value(t, end)
		if !ok1 || !ok2 || first == 0 {
			continue
		}
		rets[t] = last/first - 1.0
	}
	if len(rets) == 0 {
		return nil
	}

	if std, ok := retStd(rets); !ok || std < MinWindowStd {
		return nil
	}

	var moversUp, moversDown []contracts.Mover
	for t, r := range rets {
		if r >= rule.GroupThreshold {
			moversUp = append(moversUp, contracts.Mover{Ticker: t, Return: r})
		}
		if r <= -rule.GroupThreshold {
			moversDown = append(moversDown, contracts.Mover{Ticker: t, Return: r})
		}
	}

	// Participation is applied as a rounded member count so that
	// fractions like 0.67 of a 3-stock sector mean two members, not an
	// unreachable 2.01.
	minMovers := int(math.Round(rule.Participation * float64(len(rets))))
	if minMovers < 1 {
		minMovers = 1
	}
	flaggedUp := len(moversUp) >= minMovers
	flaggedDown := len(moversDown) >= minMovers

	// Up wins ties
	var direction contracts.Direction
	var movers []contracts.Mover
	switch {
	case flaggedUp && len(moversUp) >= len(moversDown):
		direction = contracts.DirectionUp
		movers = moversUp
	case flaggedDown:
		direction = contracts.DirectionDown
		movers = moversDown
	default:
		return nil
	}

	if len(movers) < MinLeaders {
		return nil
	}
	sort.Slice(movers, func(i, j int) bool { return movers[i].Ticker < movers[j].Ticker })

	moverSet := make(map[string]struct{}, len(movers))
	for _, m := range movers {
		moverSet[m.Ticker] = struct{}{}
	}

	// Laggers barely moved and did not lead. A ticker can never lag and
	// move on the same date.
	var laggers []string
	laggerRets := make(map[string]float64)
	for t, r := range rets {
		if math.Abs(r) > rule.LaggerMaxMove {
			continue
		}
		if _, isMover := moverSet[t]; isMover {
			continue
		}
		laggers = append(laggers, t)
		laggerRets[t] = r
	}
	if len(laggers) < MinLaggers {
		return nil
	}
	sort.Strings(laggers)

	signalDate := set.Date(end)
	events := make([]contracts.LagEvent, 0, len(laggers))
	for _, t := range laggers {
		events = append(events, contracts.LagEvent{
			Sector:       rule.Sector,
			SignalDate:   signalDate,
			Direction:    direction,
			Movers:       movers,
			Lagger:       t,
			LaggerReturn: laggerRets[t],
			Rule:         rule,
		})
	}
	return events
}

func presentTickers(set *marketdata.SeriesSet, members []string) []string {
	var out []string
	for _, t := range members {
		if set.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// retStd is the sample standard deviation of the window returns.
func retStd(rets map[string]float64) (float64, bool) {
	if len(rets) < 2 {
		return 0, false
	}
	var sum float64
	for _, r := range rets {
		sum += r
	}
	mean := sum / float64(len(rets))

	var ss float64
	for _, r := range rets {
		d := r - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(rets)-1)), true
}
