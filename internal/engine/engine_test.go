package engine

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sectorlag/internal/contracts"
	"github.com/wonny/sectorlag/internal/rules"
	"github.com/wonny/sectorlag/internal/universe"
	"github.com/wonny/sectorlag/pkg/logger"
)

type memReader struct {
	prices map[string][]contracts.Price
}

func (m *memReader) GetByTickerAndDateRange(_ context.Context, ticker string, from, to time.Time) ([]contracts.Price, error) {
	var out []contracts.Price
	for _, p := range m.prices[ticker] {
		if p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// scanDays are ten business days in June 2024.
var scanDays = []string{
	"2024-06-03", "2024-06-04", "2024-06-05", "2024-06-06", "2024-06-07",
	"2024-06-10", "2024-06-11", "2024-06-12", "2024-06-13", "2024-06-14",
}

func closes(ticker string, px []float64) []contracts.Price {
	out := make([]contracts.Price, len(px))
	for i, p := range px {
		out[i] = contracts.Price{Ticker: ticker, Date: day(scanDays[i]), High: p, Low: p, Close: p}
	}
	return out
}

// laggingSector stages two leaders repeatedly jumping 7-8% while CCC
// drifts up slowly, catching up later: a textbook lag pattern.
func laggingSector() *memReader {
	return &memReader{prices: map[string][]contracts.Price{
		"AAA": closes("AAA", []float64{100, 107, 114.5, 115, 115, 123, 131, 131, 131, 131}),
		"BBB": closes("BBB", []float64{100, 108, 117, 117, 117, 126, 136, 136, 136, 136}),
		"CCC": closes("CCC", []float64{100, 101, 102, 103, 106, 107, 108, 112, 113, 114}),
	}}
}

func testStrategy() rules.StrategyConfig {
	cfg := rules.Default()
	cfg.Grid.Adaptive = false
	cfg.Scoring.MinSectorWinRate = 0
	cfg.SectorFilters = rules.SectorFilterConfig{
		MinMean:        -1,
		MinWinRate:     0,
		MinSharpe:      -100,
		MinSortino:     -100,
		MinStability:   -1,
		MinMaxDrawdown: -1,
	}
	cfg.Rules = []contracts.Rule{{
		Sector:         "CHEM",
		Lookback:       1,
		GroupThreshold: 0.05,
		Participation:  0.67,
		LaggerMaxMove:  0.03,
		EntryLag:       1,
		Hold:           2,
	}}
	return cfg
}

func testUniverse(t *testing.T) *universe.Universe {
	t.Helper()
	u, err := universe.Parse([]byte("sectors:\n  CHEM: [AAA, BBB, CCC]\n"))
	require.NoError(t, err)
	return u
}

func TestEngine_FullScan(t *testing.T) {
	e := New(laggingSector(), testStrategy(), logger.NewNop())

	result, err := e.Run(context.Background(), testUniverse(t), day("2024-06-01"), day("2024-06-30"))
	require.NoError(t, err)

	// Leaders jump on four windows; CCC lags each time
	assert.Equal(t, 4, result.Events)
	require.Len(t, result.Trades, 4)
	for _, trade := range result.Trades {
		assert.Equal(t, "CCC", trade.Ticker)
		assert.Equal(t, contracts.DirectionUp, trade.Direction)
		assert.Greater(t, trade.Return(), 0.0)
	}

	require.Len(t, result.Scores, 1)
	assert.Greater(t, result.Scores[0].Quality, 0.0)
	assert.Equal(t, 4, result.Scores[0].Trades)

	require.Len(t, result.SectorStats, 1)
	assert.True(t, result.SectorStats[0].Investable)
	require.Len(t, result.TopRules, 1)
	require.Len(t, result.BestPerSector, 1)

	// All four candidates target CCC, so overlapping ones are rejected
	require.NotNil(t, result.Portfolio)
	accepted, duplicates := 0, 0
	for _, d := range result.Portfolio.Decisions {
		if d.Accepted {
			accepted++
		} else if d.Reason == contracts.RejectDuplicateTicker {
			duplicates++
		}
	}
	assert.Equal(t, 2, accepted)
	assert.Equal(t, 2, duplicates)
	assert.Len(t, result.Portfolio.Positions, 2)

	// Winning trades compound above 1
	curve := result.Portfolio.EquityCurve
	require.NotEmpty(t, curve)
	assert.Greater(t, curve[len(curve)-1].Equity, 1.0)

	require.Len(t, result.RealizedScores, 1)
	assert.Equal(t, 2, result.RealizedScores[0].Trades)
}

func TestEngine_ProgressHook(t *testing.T) {
	stages := map[string]int{}
	e := New(laggingSector(), testStrategy(), logger.NewNop()).
		WithProgress(func(stage string, done, total int) {
			stages[stage]++
		})

	_, err := e.Run(context.Background(), testUniverse(t), day("2024-06-01"), day("2024-06-30"))
	require.NoError(t, err)

	assert.Equal(t, 3, stages["load"]) // one per ticker
	assert.Equal(t, 1, stages["detect"])
}

func TestEngine_AnalysisEndClipsHistory(t *testing.T) {
	cfg := testStrategy()
	cfg.AnalysisEnd = "2024-06-05"
	e := New(laggingSector(), cfg, logger.NewNop())

	result, err := e.Run(context.Background(), testUniverse(t), day("2024-06-01"), day("2024-06-30"))
	require.NoError(t, err)

	// Only the first two lag windows fit before the pinned end
	assert.Equal(t, 2, result.Events)
}

func TestEngine_InvalidStrategyFailsFast(t *testing.T) {
	cfg := testStrategy()
	cfg.Scoring.Mode = "bogus"
	e := New(laggingSector(), cfg, logger.NewNop())

	_, err := e.Run(context.Background(), testUniverse(t), day("2024-06-01"), day("2024-06-30"))
	require.Error(t, err)
	var verr contracts.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestEngine_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(laggingSector(), testStrategy(), logger.NewNop())
	_, err := e.Run(ctx, testUniverse(t), day("2024-06-01"), day("2024-06-30"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_SectorWithoutDataWarns(t *testing.T) {
	var buf bytes.Buffer
	u, err := universe.Parse([]byte("sectors:\n  CHEM: [AAA, BBB, CCC]\n  GHOST: [XXX, YYY]\n"))
	require.NoError(t, err)

	e := New(laggingSector(), testStrategy(), logger.NewWithWriter(&buf))
	result, err := e.Run(context.Background(), u, day("2024-06-01"), day("2024-06-30"))
	require.NoError(t, err)

	// The dataless sector contributes nothing and the run proceeds
	assert.Equal(t, 4, result.Events)
	assert.Contains(t, buf.String(), "GHOST")
	assert.Contains(t, buf.String(), "no price history")
}

func TestEngine_EmptyHistory(t *testing.T) {
	e := New(&memReader{prices: map[string][]contracts.Price{}}, testStrategy(), logger.NewNop())

	_, err := e.Run(context.Background(), testUniverse(t), day("2024-06-01"), day("2024-06-30"))
	assert.ErrorIs(t, err, contracts.ErrEmptyUniverse)
}
