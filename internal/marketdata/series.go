package marketdata

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/sectorlag/internal/contracts"
)

// SeriesSet is the aligned, normalized price matrix the engine runs on:
// one shared trading-day calendar, one value row per ticker. Missing bars
// are NaN; there is no backfill. Each ticker is rebased to start at 100 so
// thresholds compare across price levels.
type SeriesSet struct {
	calendar []time.Time
	values   map[string][]float64
	index    map[time.Time]int
}

// BuildSeriesSet aligns raw bars onto the union trading calendar, extracts
// the configured price field and rebases every ticker to 100 at its first
// available bar.
func BuildSeriesSet(prices []contracts.Price, field contracts.PriceField) *SeriesSet {
	dateSet := make(map[time.Time]struct{})
	for _, p := range prices {
		dateSet[dateOnly(p.Date)] = struct{}{}
	}

	calendar := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		calendar = append(calendar, d)
	}
	sort.Slice(calendar, func(i, j int) bool { return calendar[i].Before(calendar[j]) })

	index := make(map[time.Time]int, len(calendar))
	for i, d := range calendar {
		index[d] = i
	}

	values := make(map[string][]float64)
	for _, p := range prices {
		row, ok := values[p.Ticker]
		if !ok {
			row = make([]float64, len(calendar))
			for i := range row {
				row[i] = math.NaN()
			}
			values[p.Ticker] = row
		}
		row[index[dateOnly(p.Date)]] = field.Value(p)
	}

	// Rebase each ticker to 100 at its first finite bar
	for _, row := range values {
		base := math.NaN()
		for _, v := range row {
			if !math.IsNaN(v) && v > 0 {
				base = v
				break
			}
		}
		if math.IsNaN(base) {
			continue
		}
		for i, v := range row {
			if !math.IsNaN(v) {
				row[i] = v / base * 100.0
			}
		}
	}

	return &SeriesSet{calendar: calendar, values: values, index: index}
}

// Len returns the number of trading days in the calendar.
func (s *SeriesSet) Len() int {
	return len(s.calendar)
}

// Calendar returns the shared trading-day calendar in ascending order.
// Callers must not mutate it.
func (s *SeriesSet) Calendar() []time.Time {
	return s.calendar
}

// Date returns the calendar date at position idx.
func (s *SeriesSet) Date(idx int) time.Time {
	return s.calendar[idx]
}

// IndexOf returns the calendar position of a date.
func (s *SeriesSet) IndexOf(date time.Time) (int, bool) {
	i, ok := s.index[dateOnly(date)]
	return i, ok
}

// Tickers returns all tickers with at least one bar, sorted.
func (s *SeriesSet) Tickers() []string {
	out := make([]string, 0, len(s.values))
	for t := range s.values {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Has reports whether the ticker has any data.
func (s *SeriesSet) Has(ticker string) bool {
	_, ok := s.values[ticker]
	return ok
}

// Value returns the normalized price of ticker at calendar position idx.
// ok is false when the position is out of range or the bar is missing.
func (s *SeriesSet) Value(ticker string, idx int) (float64, bool) {
	row, ok := s.values[ticker]
	if !ok || idx < 0 || idx >= len(row) {
		return 0, false
	}
	v := row[idx]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// LastKnown returns the most recent available price of ticker at or before
// calendar position idx (carry-forward for data gaps).
func (s *SeriesSet) LastKnown(ticker string, idx int) (float64, bool) {
	row, ok := s.values[ticker]
	if !ok {
		return 0, false
	}
	if idx >= len(row) {
		idx = len(row) - 1
	}
	for i := idx; i >= 0; i-- {
		if !math.IsNaN(row[i]) {
			return row[i], true
		}
	}
	return 0, false
}

// DailyReturns returns the day-over-day percentage changes for ticker.
// Positions without two consecutive bars are NaN.
func (s *SeriesSet) DailyReturns(ticker string) []float64 {
	row, ok := s.values[ticker]
	if !ok || len(row) < 2 {
		return nil
	}
	rets := make([]float64, len(row)-1)
	for i := 1; i < len(row); i++ {
		prev, cur := row[i-1], row[i]
		if math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
			rets[i-1] = math.NaN()
			continue
		}
		rets[i-1] = cur/prev - 1.0
	}
	return rets
}

// ClipEnd returns a view truncated to dates on or before end. Used when an
// analysis date is pinned in configuration.
func (s *SeriesSet) ClipEnd(end time.Time) *SeriesSet {
	end = dateOnly(end)
	cut := sort.Search(len(s.calendar), func(i int) bool {
		return s.calendar[i].After(end)
	})
	if cut == len(s.calendar) {
		return s
	}

	calendar := s.calendar[:cut]
	index := make(map[time.Time]int, cut)
	for i, d := range calendar {
		index[d] = i
	}
	values := make(map[string][]float64, len(s.values))
	for t, row := range s.values {
		values[t] = row[:cut]
	}
	return &SeriesSet{calendar: calendar, values: values, index: index}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
