package contracts

import (
	"context"
	"time"
)

// PriceReader supplies daily bars per ticker over a date range. The engine
// depends on price storage only through this interface.
type PriceReader interface {
	GetByTickerAndDateRange(ctx context.Context, ticker string, from, to time.Time) ([]Price, error)
}

// PriceWriter persists daily bars.
type PriceWriter interface {
	SaveBatch(ctx context.Context, prices []Price) error
}
