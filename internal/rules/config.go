// Package rules holds the strategy configuration: which parameter rules
// to scan, how to score them, and the strict-mode sector thresholds.
package rules

import (
	"time"

	"github.com/wonny/sectorlag/internal/contracts"
)

// Scoring modes.
const (
	ModeQuality    = "quality"
	ModeExpectancy = "expectancy"
)

// StrategyConfig is the full strategy file.
type StrategyConfig struct {
	// PriceField selects the bar field feeding the normalized series.
	PriceField contracts.PriceField `yaml:"price_field"`

	// AnalysisEnd optionally pins the last scanned date (YYYY-MM-DD).
	// Empty means run to the end of available history.
	AnalysisEnd string `yaml:"analysis_end"`

	Scoring       ScoringConfig      `yaml:"scoring"`
	SectorFilters SectorFilterConfig `yaml:"sector_filters"`
	Grid          GridConfig         `yaml:"grid"`

	// Rules is an explicit rule list. When Grid.Adaptive is set the grid
	// is generated per sector and these are appended to it.
	Rules []contracts.Rule `yaml:"rules"`
}

// ScoringConfig controls rule ranking and best-rule selection.
type ScoringConfig struct {
	Mode             string  `yaml:"mode"`
	TopGlobal        int     `yaml:"top_global"`
	TopPerSector     int     `yaml:"top_per_sector"`
	MinSectorWinRate float64 `yaml:"min_sector_win_rate"`
}

// SectorFilterConfig holds the weighted strict-mode thresholds a sector
// must clear to be investable.
type SectorFilterConfig struct {
	MinMean      float64 `yaml:"min_mean"`
	MinWinRate   float64 `yaml:"min_win_rate"`
	MinSharpe    float64 `yaml:"min_sharpe"`
	MinSortino   float64 `yaml:"min_sortino"`
	MinStability float64 `yaml:"min_stability"`
	// MinMaxDrawdown is the deepest tolerated drawdown, expressed as a
	// negative return (e.g. -0.25).
	MinMaxDrawdown float64 `yaml:"min_max_drawdown"`
}

// GridConfig controls adaptive grid generation.
type GridConfig struct {
	Adaptive bool `yaml:"adaptive"`
}

// Default returns the baseline strategy used when the file omits values.
func Default() StrategyConfig {
	return StrategyConfig{
		PriceField: contracts.FieldClose,
		Scoring: ScoringConfig{
			Mode:             ModeQuality,
			TopGlobal:        10,
			TopPerSector:     2,
			MinSectorWinRate: 0.55,
		},
		SectorFilters: SectorFilterConfig{
			MinMean:        0.0,
			MinWinRate:     0.5,
			MinSharpe:      0.0,
			MinSortino:     0.0,
			MinStability:   0.0,
			MinMaxDrawdown: -0.25,
		},
		Grid: GridConfig{Adaptive: true},
	}
}

// AnalysisEndDate parses the pinned analysis date. Returns a zero time
// when unset.
func (c StrategyConfig) AnalysisEndDate() (time.Time, error) {
	if c.AnalysisEnd == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", c.AnalysisEnd)
}
