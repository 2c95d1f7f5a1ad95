// Package jobs implements the scheduled jobs.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/sectorlag/internal/marketdata"
	"github.com/wonny/sectorlag/internal/universe"
	"github.com/wonny/sectorlag/pkg/logger"
)

// Collector tops up stored price history.
type Collector interface {
	Collect(ctx context.Context, tickers []string, now time.Time) (marketdata.CollectResult, error)
}

// PriceCollectionJob refreshes daily bars for the whole universe after
// the US close.
type PriceCollectionJob struct {
	collector Collector
	universe  *universe.Universe
	logger    *logger.Logger
}

func NewPriceCollectionJob(col Collector, u *universe.Universe, log *logger.Logger) *PriceCollectionJob {
	return &PriceCollectionJob{
		collector: col,
		universe:  u,
		logger:    log,
	}
}

func (j *PriceCollectionJob) Name() string {
	return "price_collection"
}

// Schedule runs at 22:30 UTC on weekdays, after the US session settles.
func (j *PriceCollectionJob) Schedule() string {
	return "0 30 22 * * 1-5"
}

func (j *PriceCollectionJob) Run(ctx context.Context) error {
	tickers := j.universe.AllTickers()
	j.logger.WithField("tickers", len(tickers)).Info("Starting scheduled price collection")

	result, err := j.collector.Collect(ctx, tickers, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("collect prices: %w", err)
	}
	if len(result.Failed) == len(tickers) && len(tickers) > 0 {
		return fmt.Errorf("collection failed for every ticker (%d)", len(tickers))
	}
	if len(result.Failed) > 0 {
		j.logger.WithField("failed", result.Failed).Warn("Some tickers failed to collect")
	}
	return nil
}
