package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/wonny/sectorlag/internal/backtest"
	"github.com/wonny/sectorlag/internal/contracts"
	"github.com/wonny/sectorlag/internal/engine"
	"github.com/wonny/sectorlag/internal/scoring"
)

// ANSI colors for the trade table.
const (
	colorGreen = "\033[92m"
	colorRed   = "\033[91m"
	colorReset = "\033[0m"
)

// ConsoleReporter prints decision-ready tables. Color is optional so the
// output stays clean when piped.
type ConsoleReporter struct {
	w     io.Writer
	color bool
}

func NewConsoleReporter(w io.Writer, color bool) *ConsoleReporter {
	return &ConsoleReporter{w: w, color: color}
}

// PrintAll renders the full scan report in reading order.
func (r *ConsoleReporter) PrintAll(result *engine.Result) {
	r.PrintSectorReport(result.SectorStats)
	r.PrintTopRules(result.TopRules)
	if result.Portfolio != nil {
		r.PrintPortfolioSummary(result.Portfolio.Metrics)
		r.PrintTradeTable(result.Portfolio.Positions, result.Portfolio.EquityCurve)
	}
}

// PrintSectorReport lists investable sectors ranked by win rate, then
// rejected sectors with their reasons.
func (r *ConsoleReporter) PrintSectorReport(stats []contracts.SectorStats) {
	fmt.Fprintf(r.w, "\n=== INVESTABLE SECTORS (ranked by win rate) ===\n\n")
	if len(stats) == 0 {
		fmt.Fprintln(r.w, "No sector data available.")
		return
	}

	header := fmt.Sprintf("%-24s %8s %9s %8s %8s %10s",
		"Sector", "Mean", "WinRate", "Sharpe", "Sortino", "Stability")
	fmt.Fprintln(r.w, header)
	fmt.Fprintln(r.w, strings.Repeat("-", len(header)))

	rejected := 0
	for _, s := range stats {
		if !s.Investable {
			rejected++
			continue
		}
		fmt.Fprintf(r.w, "%-24s %7.4f%% %8.2f%% %8.3f %8.3f %10.3f\n",
			s.Sector, s.MeanReturn*100, s.WinRate*100, s.Sharpe, s.Sortino, s.Stability)
	}

	if rejected > 0 {
		fmt.Fprintf(r.w, "\n--- Rejected sectors (%d) ---\n", rejected)
		for _, s := range stats {
			if s.Investable {
				continue
			}
			fmt.Fprintf(r.w, "%s:\n", s.Sector)
			for _, reason := range s.Reasons {
				fmt.Fprintf(r.w, "  - %s\n", reason)
			}
		}
	}
	fmt.Fprintln(r.w)
}

// PrintTopRules renders the selected rules with a plain-language
// narrative per rule.
func (r *ConsoleReporter) PrintTopRules(top []contracts.RuleStability) {
	fmt.Fprintf(r.w, "\n=== TOP GLOBAL RULES ===\n\n")
	if len(top) == 0 {
		fmt.Fprintln(r.w, "No rules selected.")
		return
	}

	for i, s := range top {
		fmt.Fprintf(r.w, "%2d. %s  sector=%s  trades=%d  win=%.2f%%  avg=%.2f%%  quality=%.4f\n",
			i+1, s.RuleID, s.Rule.Sector, s.Trades, s.WinRate*100, s.AvgReturn*100, s.Quality)
		fmt.Fprintf(r.w, "    %s\n", ruleNarrative(s.Rule))
	}
	fmt.Fprintln(r.w)
}

// PrintPortfolioSummary renders the portfolio-level metrics.
func (r *ConsoleReporter) PrintPortfolioSummary(m backtest.Metrics) {
	fmt.Fprintf(r.w, "\n=== PORTFOLIO SUMMARY (max %d concurrent trades) ===\n", backtest.MaxConcurrentTrades)
	fmt.Fprintf(r.w, "Total return      : %.2f%%\n", m.TotalReturn*100)
	fmt.Fprintf(r.w, "CAGR              : %.2f%%\n", m.CAGR*100)
	fmt.Fprintf(r.w, "Volatility        : %.2f%%\n", m.Volatility*100)
	fmt.Fprintf(r.w, "Sharpe            : %.2f\n", m.Sharpe)
	fmt.Fprintf(r.w, "Sortino           : %.2f\n", m.Sortino)
	fmt.Fprintf(r.w, "Max drawdown      : %.2f%%\n", m.MaxDrawdown*100)
	fmt.Fprintf(r.w, "Trades used       : %d\n", m.Trades)
	fmt.Fprintf(r.w, "Avg concurrent    : %.2f trades\n", m.AvgConcurrent)
}

// PrintTradeTable renders the position log with color-coded P&L and the
// portfolio change since the first equity point.
func (r *ConsoleReporter) PrintTradeTable(positions []contracts.Position, curve []backtest.EquityPoint) {
	fmt.Fprintf(r.w, "\n=== PORTFOLIO TRADE-BY-TRADE TABLE ===\n\n")
	if len(positions) == 0 {
		fmt.Fprintln(r.w, "No trades used in portfolio.")
		return
	}

	equityAt := make(map[string]float64, len(curve))
	first := 1.0
	if len(curve) > 0 {
		first = curve[0].Equity
		for _, p := range curve {
			equityAt[p.Date.Format(dateFormat)] = p.Equity
		}
	}

	for _, p := range positions {
		pnl := p.Return * 100
		color, reset := "", ""
		if r.color {
			reset = colorReset
			switch {
			case pnl > 0:
				color = colorGreen
			case pnl < 0:
				color = colorRed
			}
		}

		change := 0.0
		if eq, ok := equityAt[p.ExitDate.Format(dateFormat)]; ok && first != 0 {
			change = (eq - first) / first * 100
		}

		leaders := strings.Join(p.Leaders, ", ")
		if len(leaders) > 25 {
			leaders = leaders[:25]
		}

		exit := p.ExitDate.Format(dateFormat)
		if p.ForcedClose {
			exit += "*"
		}

		fmt.Fprintf(r.w, "%-10s  %-25s  %-6s  %s  %-11s  %s%6.2f%%%s  %6.2f%%\n",
			scoring.RuleID(p.Rule), leaders, p.Ticker,
			p.EntryDate.Format(dateFormat), exit,
			color, pnl, reset, change)
	}
	fmt.Fprintln(r.w, "\n* exit clamped to end of history")
}

// ruleNarrative spells a rule out in plain language.
func ruleNarrative(rule contracts.Rule) string {
	return fmt.Sprintf(
		"If at least %.0f%% of tickers in %s move beyond %.2f%% over a %d-day lookback, "+
			"while the lagging ticker moves less than %.2f%%, "+
			"then enter after %d day(s) and hold for %d day(s).",
		rule.Participation*100, rule.Sector, rule.GroupThreshold*100, rule.Lookback,
		rule.LaggerMaxMove*100, rule.EntryLag, rule.Hold,
	)
}
