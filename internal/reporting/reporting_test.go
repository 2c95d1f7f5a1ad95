package reporting

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sectorlag/internal/backtest"
	"github.com/wonny/sectorlag/internal/contracts"
	"github.com/wonny/sectorlag/pkg/logger"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleRule() contracts.Rule {
	return contracts.Rule{
		Sector:         "CHEM",
		Lookback:       5,
		GroupThreshold: 0.03,
		Participation:  0.6,
		LaggerMaxMove:  0.02,
		EntryLag:       1,
		Hold:           5,
	}
}

func sampleTrade() contracts.CandidateTrade {
	return contracts.CandidateTrade{
		Ticker:     "CCC",
		Sector:     "CHEM",
		Direction:  contracts.DirectionUp,
		SignalDate: day("2024-06-03"),
		EntryDate:  day("2024-06-04"),
		ExitDate:   day("2024-06-11"),
		EntryPrice: 100,
		ExitPrice:  104,
		Rule:       sampleRule(),
		Leaders:    []string{"AAA", "BBB"},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVWriter_Trades(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, logger.NewNop())

	require.NoError(t, w.WriteTrades("trades.csv", []contracts.CandidateTrade{sampleTrade()}))

	rows := readCSV(t, filepath.Join(dir, "trades.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, "sector", rows[0][0])
	assert.Equal(t, "CHEM", rows[1][0])
	assert.Equal(t, "CCC", rows[1][1])
	assert.Equal(t, "up", rows[1][2])
	assert.Equal(t, "2024-06-04", rows[1][4])
	ret, err := strconv.ParseFloat(rows[1][8], 64)
	require.NoError(t, err)
	assert.InDelta(t, 0.04, ret, 1e-9)
	assert.Equal(t, "AAA,BBB", rows[1][10])
}

func TestCSVWriter_EquityCurve(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, logger.NewNop())

	curve := []backtest.EquityPoint{
		{Date: day("2024-06-03"), Equity: 1.0},
		{Date: day("2024-06-04"), Equity: 1.02},
	}
	require.NoError(t, w.WriteEquityCurve("equity.csv", curve))

	rows := readCSV(t, filepath.Join(dir, "equity.csv"))
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"date", "equity"}, rows[0])
	assert.Equal(t, []string{"2024-06-04", "1.02"}, rows[2])
}

func TestCSVWriter_PositionsAndStability(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, logger.NewNop())

	pos := contracts.Position{
		Ticker:      "CCC",
		Sector:      "CHEM",
		Direction:   contracts.DirectionUp,
		EntryDate:   day("2024-06-04"),
		ExitDate:    day("2024-06-11"),
		EntryPrice:  100,
		ExitPrice:   104,
		Weight:      1.0 / 3.0,
		Return:      0.04,
		Closed:      true,
		ForcedClose: true,
		Rule:        sampleRule(),
		Leaders:     []string{"AAA"},
	}
	require.NoError(t, w.WritePositions("positions.csv", []contracts.Position{pos}))

	rows := readCSV(t, filepath.Join(dir, "positions.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, "true", rows[1][10])

	stab := contracts.RuleStability{
		RuleScore: contracts.RuleScore{
			Rule: sampleRule(), RuleID: "R_DEADBEEF", Trades: 12,
			WinRate: 0.75, AvgReturn: 0.02, Quality: 1.5,
		},
		AvgReturnPrev90d: 0.015,
		Investable:       true,
	}
	require.NoError(t, w.WriteStability("stability.csv", []contracts.RuleStability{stab}))

	rows = readCSV(t, filepath.Join(dir, "stability.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, "R_DEADBEEF", rows[1][0])
	assert.Equal(t, "true", rows[1][16])
}

func TestConsoleReporter_SectorReport(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf, false)

	r.PrintSectorReport([]contracts.SectorStats{
		{Sector: "CHEM", MeanReturn: 0.001, WinRate: 0.6, Sharpe: 1.2, Sortino: 1.5, Stability: 0.002, Investable: true},
		{Sector: "BANKS", WinRate: 0.3, Investable: false, Reasons: []string{"win rate 30.00% is below 50%"}},
	})

	out := buf.String()
	assert.Contains(t, out, "INVESTABLE SECTORS")
	assert.Contains(t, out, "CHEM")
	assert.Contains(t, out, "Rejected sectors (1)")
	assert.Contains(t, out, "win rate 30.00% is below 50%")
}

func TestConsoleReporter_TopRulesNarrative(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf, false)

	r.PrintTopRules([]contracts.RuleStability{{
		RuleScore: contracts.RuleScore{
			Rule: sampleRule(), RuleID: "R_DEADBEEF", Trades: 12,
			WinRate: 0.75, AvgReturn: 0.02, Quality: 1.5,
		},
	}})

	out := buf.String()
	assert.Contains(t, out, "R_DEADBEEF")
	assert.Contains(t, out, "If at least 60% of tickers in CHEM")
	assert.Contains(t, out, "hold for 5 day(s)")
}

func TestConsoleReporter_TradeTableColors(t *testing.T) {
	curve := []backtest.EquityPoint{
		{Date: day("2024-06-04"), Equity: 1.0},
		{Date: day("2024-06-11"), Equity: 1.04},
	}
	pos := contracts.Position{
		Ticker:    "CCC",
		Direction: contracts.DirectionUp,
		EntryDate: day("2024-06-04"),
		ExitDate:  day("2024-06-11"),
		Return:    0.04,
		Closed:    true,
		Rule:      sampleRule(),
		Leaders:   []string{"AAA", "BBB"},
	}

	var colored bytes.Buffer
	NewConsoleReporter(&colored, true).PrintTradeTable([]contracts.Position{pos}, curve)
	assert.Contains(t, colored.String(), colorGreen)

	var plain bytes.Buffer
	NewConsoleReporter(&plain, false).PrintTradeTable([]contracts.Position{pos}, curve)
	assert.NotContains(t, plain.String(), colorGreen)
	assert.Contains(t, plain.String(), "CCC")
	assert.Contains(t, plain.String(), "4.00%")
}

func TestConsoleReporter_PortfolioSummary(t *testing.T) {
	var buf bytes.Buffer
	NewConsoleReporter(&buf, false).PrintPortfolioSummary(backtest.Metrics{
		TotalReturn: 0.0873,
		CAGR:        0.15,
		Sharpe:      1.1,
		Trades:      2,
	})

	out := buf.String()
	assert.Contains(t, out, "Total return      : 8.73%")
	assert.Contains(t, out, "Trades used       : 2")
}
