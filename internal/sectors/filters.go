package sectors

import (
	"fmt"

	"github.com/wonny/sectorlag/internal/contracts"
)

// evaluate applies the weighted strict-mode thresholds. Every failed
// check adds a reason; a sector is investable only when all pass.
func (a *Analyzer) evaluate(s contracts.SectorStats) (bool, []string) {
	var reasons []string

	if s.MeanReturn < a.cfg.MinMean {
		reasons = append(reasons,
			fmt.Sprintf("mean daily return %.4f%% is below the floor", s.MeanReturn*100))
	}
	if s.WinRate < a.cfg.MinWinRate {
		reasons = append(reasons,
			fmt.Sprintf("win rate %.2f%% is below %.0f%%", s.WinRate*100, a.cfg.MinWinRate*100))
	}
	if s.Sharpe < a.cfg.MinSharpe {
		reasons = append(reasons,
			fmt.Sprintf("sharpe %.4f is too weak", s.Sharpe))
	}
	if s.Sortino < a.cfg.MinSortino {
		reasons = append(reasons,
			fmt.Sprintf("sortino %.4f is too weak", s.Sortino))
	}
	if s.Stability < a.cfg.MinStability {
		reasons = append(reasons,
			fmt.Sprintf("stability score %.4f is too weak", s.Stability))
	}
	if s.MaxDrawdown < a.cfg.MinMaxDrawdown {
		reasons = append(reasons,
			fmt.Sprintf("max drawdown %.2f%% is too deep", s.MaxDrawdown*100))
	}

	return len(reasons) == 0, reasons
}
