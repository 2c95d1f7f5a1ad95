package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/sectorlag/internal/contracts"
	"github.com/wonny/sectorlag/pkg/database"
	"github.com/wonny/sectorlag/pkg/logger"
)

// Repository stores and retrieves daily price bars in Postgres
// (data.daily_prices, keyed by ticker + trade_date).
type Repository struct {
	db  *database.DB
	log *logger.Logger
}

func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{db: db, log: log}
}

// SaveBatch upserts daily bars. Conflicting rows are overwritten so that
// vendor corrections win over stale data.
func (r *Repository) SaveBatch(ctx context.Context, prices []contracts.Price) error {
	if len(prices) == 0 {
		return nil
	}

	query := `
		INSERT INTO data.daily_prices (ticker, trade_date, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker, trade_date)
		DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range prices {
		if _, err := tx.Exec(ctx, query,
			p.Ticker, p.Date, p.Open, p.High, p.Low, p.Close, p.Volume); err != nil {
			return fmt.Errorf("upsert price %s %s: %w", p.Ticker, p.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	r.log.WithFields(map[string]interface{}{
		"count": len(prices),
	}).Debug("saved price batch")
	return nil
}

// GetByTickerAndDateRange returns a ticker's bars in [from, to], ascending
// by trade date.
func (r *Repository) GetByTickerAndDateRange(ctx context.Context, ticker string, from, to time.Time) ([]contracts.Price, error) {
	query := `
		SELECT ticker, trade_date, open, high, low, close, volume
		FROM data.daily_prices
		WHERE ticker = $1 AND trade_date >= $2 AND trade_date <= $3
		ORDER BY trade_date ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("query prices for %s: %w", ticker, err)
	}
	defer rows.Close()

	var prices []contracts.Price
	for rows.Next() {
		var p contracts.Price
		if err := rows.Scan(&p.Ticker, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price rows: %w", err)
	}

	return prices, nil
}

// LatestDate returns the most recent stored trade date for a ticker, or a
// zero time when no bars exist.
func (r *Repository) LatestDate(ctx context.Context, ticker string) (time.Time, error) {
	query := `SELECT COALESCE(MAX(trade_date), '0001-01-01') FROM data.daily_prices WHERE ticker = $1`

	var latest time.Time
	if err := r.db.Pool.QueryRow(ctx, query, ticker).Scan(&latest); err != nil {
		return time.Time{}, fmt.Errorf("query latest date for %s: %w", ticker, err)
	}
	if latest.Year() <= 1 {
		return time.Time{}, nil
	}
	return latest, nil
}
