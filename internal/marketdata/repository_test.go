package marketdata

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sectorlag/internal/contracts"
	"github.com/wonny/sectorlag/pkg/config"
	"github.com/wonny/sectorlag/pkg/database"
	"github.com/wonny/sectorlag/pkg/logger"
)

// integrationRepo connects to the database configured by DATABASE_URL, or
// skips the test.
func integrationRepo(t *testing.T) *Repository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return NewRepository(db, logger.NewNop())
}

func TestRepository_RoundTrip(t *testing.T) {
	repo := integrationRepo(t)
	ctx := context.Background()

	base := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := []contracts.Price{
		{Ticker: "ZZTEST", Date: base, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 1000},
		{Ticker: "ZZTEST", Date: base.AddDate(0, 0, 1), Open: 10.5, High: 12, Low: 10, Close: 11, Volume: 1200},
	}
	require.NoError(t, repo.SaveBatch(ctx, bars))

	// Upsert overwrites, so saving again must not duplicate
	require.NoError(t, repo.SaveBatch(ctx, bars))

	got, err := repo.GetByTickerAndDateRange(ctx, "ZZTEST", base, base.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 10.5, got[0].Close)
	assert.True(t, got[0].Date.Before(got[1].Date))

	latest, err := repo.LatestDate(ctx, "ZZTEST")
	require.NoError(t, err)
	assert.Equal(t, base.AddDate(0, 0, 1), latest.UTC())
}

func TestRepository_LatestDateUnknownTicker(t *testing.T) {
	repo := integrationRepo(t)

	latest, err := repo.LatestDate(context.Background(), "ZZNEVER")
	require.NoError(t, err)
	assert.True(t, latest.IsZero())
}
