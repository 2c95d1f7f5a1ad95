// Package reporting renders scan results: research CSVs for downstream
// analysis and ranked console tables for decision-making.
package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wonny/sectorlag/internal/backtest"
	"github.com/wonny/sectorlag/internal/contracts"
	"github.com/wonny/sectorlag/internal/engine"
	"github.com/wonny/sectorlag/internal/scoring"
	"github.com/wonny/sectorlag/pkg/logger"
)

const dateFormat = "2006-01-02"

// CSVWriter persists scan outputs under one research directory.
type CSVWriter struct {
	dir string
	log *logger.Logger
}

func NewCSVWriter(dir string, log *logger.Logger) *CSVWriter {
	return &CSVWriter{dir: dir, log: log}
}

// WriteAll dumps every result table. Returns the first write error.
func (w *CSVWriter) WriteAll(result *engine.Result) error {
	if err := w.WriteTrades("trades.csv", result.Trades); err != nil {
		return err
	}
	if err := w.WriteScores("rule_scores.csv", result.Scores); err != nil {
		return err
	}
	if err := w.WriteStability("rule_stability.csv", result.Stability); err != nil {
		return err
	}
	if err := w.WriteSectorStats("sector_investability.csv", result.SectorStats); err != nil {
		return err
	}
	if result.Portfolio != nil {
		if err := w.WriteEquityCurve("portfolio_equity_curve.csv", result.Portfolio.EquityCurve); err != nil {
			return err
		}
		if err := w.WritePositions("portfolio_used_trades.csv", result.Portfolio.Positions); err != nil {
			return err
		}
	}
	return nil
}

func (w *CSVWriter) WriteTrades(name string, trades []contracts.CandidateTrade) error {
	rows := [][]string{{
		"sector", "ticker", "direction", "signal_date", "entry_date", "exit_date",
		"entry_price", "exit_price", "ret", "rule_id", "leaders",
	}}
	for _, t := range trades {
		rows = append(rows, []string{
			t.Sector,
			t.Ticker,
			t.Direction.String(),
			t.SignalDate.Format(dateFormat),
			t.EntryDate.Format(dateFormat),
			t.ExitDate.Format(dateFormat),
			formatFloat(t.EntryPrice),
			formatFloat(t.ExitPrice),
			formatFloat(t.Return()),
			scoring.RuleID(t.Rule),
			joinTickers(t.Leaders),
		})
	}
	return w.write(name, rows)
}

func (w *CSVWriter) WriteScores(name string, scores []contracts.RuleScore) error {
	rows := [][]string{{
		"rule_id", "sector", "lookback", "group_threshold", "participation",
		"lagger_max_move", "entry_lag", "hold", "n_trades", "win_rate",
		"avg_ret", "median_ret", "max_dd", "quality",
	}}
	for _, s := range scores {
		rows = append(rows, append(ruleColumns(s),
			strconv.Itoa(s.Trades),
			formatFloat(s.WinRate),
			formatFloat(s.AvgReturn),
			formatFloat(s.MedianReturn),
			formatFloat(s.MaxDrawdown),
			formatFloat(s.Quality),
		))
	}
	return w.write(name, rows)
}

func (w *CSVWriter) WriteStability(name string, stability []contracts.RuleStability) error {
	rows := [][]string{{
		"rule_id", "sector", "lookback", "group_threshold", "participation",
		"lagger_max_move", "entry_lag", "hold", "n_trades", "win_rate",
		"avg_ret", "median_ret", "max_dd", "quality",
		"avg_ret_prev_90d", "avg_ret_prev_30d", "is_investable",
	}}
	for _, s := range stability {
		rows = append(rows, append(ruleColumns(s.RuleScore),
			strconv.Itoa(s.Trades),
			formatFloat(s.WinRate),
			formatFloat(s.AvgReturn),
			formatFloat(s.MedianReturn),
			formatFloat(s.MaxDrawdown),
			formatFloat(s.Quality),
			formatFloat(s.AvgReturnPrev90d),
			formatFloat(s.AvgReturnPrev30d),
			strconv.FormatBool(s.Investable),
		))
	}
	return w.write(name, rows)
}

func (w *CSVWriter) WriteSectorStats(name string, stats []contracts.SectorStats) error {
	rows := [][]string{{
		"sector", "mean", "win_rate", "volatility", "sharpe", "sortino",
		"max_dd", "stability", "is_investable",
	}}
	for _, s := range stats {
		rows = append(rows, []string{
			s.Sector,
			formatFloat(s.MeanReturn),
			formatFloat(s.WinRate),
			formatFloat(s.Volatility),
			formatFloat(s.Sharpe),
			formatFloat(s.Sortino),
			formatFloat(s.MaxDrawdown),
			formatFloat(s.Stability),
			strconv.FormatBool(s.Investable),
		})
	}
	return w.write(name, rows)
}

func (w *CSVWriter) WriteEquityCurve(name string, curve []backtest.EquityPoint) error {
	rows := [][]string{{"date", "equity"}}
	for _, p := range curve {
		rows = append(rows, []string{p.Date.Format(dateFormat), formatFloat(p.Equity)})
	}
	return w.write(name, rows)
}

func (w *CSVWriter) WritePositions(name string, positions []contracts.Position) error {
	rows := [][]string{{
		"rule_id", "sector", "ticker", "direction", "entry_date", "exit_date",
		"entry_price", "exit_price", "weight", "ret", "forced_close", "leaders",
	}}
	for _, p := range positions {
		rows = append(rows, []string{
			scoring.RuleID(p.Rule),
			p.Sector,
			p.Ticker,
			p.Direction.String(),
			p.EntryDate.Format(dateFormat),
			p.ExitDate.Format(dateFormat),
			formatFloat(p.EntryPrice),
			formatFloat(p.ExitPrice),
			formatFloat(p.Weight),
			formatFloat(p.Return),
			strconv.FormatBool(p.ForcedClose),
			joinTickers(p.Leaders),
		})
	}
	return w.write(name, rows)
}

func (w *CSVWriter) write(name string, rows [][]string) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(w.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	w.log.WithFields(map[string]interface{}{
		"file": path,
		"rows": len(rows) - 1,
	}).Debug("wrote csv")
	return nil
}

func ruleColumns(s contracts.RuleScore) []string {
	return []string{
		s.RuleID,
		s.Rule.Sector,
		strconv.Itoa(s.Rule.Lookback),
		formatFloat(s.Rule.GroupThreshold),
		formatFloat(s.Rule.Participation),
		formatFloat(s.Rule.LaggerMaxMove),
		strconv.Itoa(s.Rule.EntryLag),
		strconv.Itoa(s.Rule.Hold),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func joinTickers(tickers []string) string {
	out := ""
	for i, t := range tickers {
		if i > 0 {
			out += ","
		}
		out += t
	}
	return out
}
