package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/sectorlag/internal/contracts"
	"github.com/wonny/sectorlag/pkg/logger"
)

// Fetcher is the vendor side of collection.
type Fetcher interface {
	FetchDaily(ctx context.Context, ticker string, from, to time.Time) ([]contracts.Price, error)
}

// Store is the persistence side of collection.
type Store interface {
	contracts.PriceWriter
	LatestDate(ctx context.Context, ticker string) (time.Time, error)
}

// Collector tops up price history per ticker: it fetches only the span
// after the latest stored bar, or a full lookback window on first sight.
type Collector struct {
	fetcher  Fetcher
	store    Store
	lookback time.Duration
	log      *logger.Logger
}

func NewCollector(fetcher Fetcher, store Store, lookbackYears int, log *logger.Logger) *Collector {
	return &Collector{
		fetcher:  fetcher,
		store:    store,
		lookback: time.Duration(lookbackYears) * 365 * 24 * time.Hour,
		log:      log,
	}
}

// CollectResult summarizes one collection run.
type CollectResult struct {
	Tickers int
	Bars    int
	Failed  []string
}

// Collect refreshes history for every ticker. Per-ticker failures are
// logged and reported in the result; one bad symbol never aborts the run.
func (c *Collector) Collect(ctx context.Context, tickers []string, now time.Time) (CollectResult, error) {
	result := CollectResult{Tickers: len(tickers)}

	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		n, err := c.collectOne(ctx, ticker, now)
		if err != nil {
			c.log.WithError(err).WithField("ticker", ticker).Warn("collection failed")
			result.Failed = append(result.Failed, ticker)
			continue
		}
		result.Bars += n
	}

	c.log.WithFields(map[string]interface{}{
		"tickers": result.Tickers,
		"bars":    result.Bars,
		"failed":  len(result.Failed),
	}).Info("price collection complete")
	return result, nil
}

func (c *Collector) collectOne(ctx context.Context, ticker string, now time.Time) (int, error) {
	latest, err := c.store.LatestDate(ctx, ticker)
	if err != nil {
		return 0, fmt.Errorf("latest date: %w", err)
	}

	from := now.Add(-c.lookback)
	if !latest.IsZero() {
		from = latest.AddDate(0, 0, 1)
	}
	if !from.Before(now) {
		return 0, nil
	}

	prices, err := c.fetcher.FetchDaily(ctx, ticker, from, now)
	if err != nil {
		return 0, err
	}
	if len(prices) == 0 {
		return 0, nil
	}

	if err := c.store.SaveBatch(ctx, prices); err != nil {
		return 0, fmt.Errorf("save batch: %w", err)
	}
	return len(prices), nil
}
