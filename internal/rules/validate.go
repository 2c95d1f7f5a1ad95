package rules

import (
	"fmt"
	"time"

	"github.com/wonny/sectorlag/internal/contracts"
)

// Validate checks the whole strategy file and fails fast on the first
// problem, before any data is loaded.
func (c StrategyConfig) Validate() error {
	if !c.PriceField.Valid() {
		return contracts.ValidationError{
			Field:   "price_field",
			Message: fmt.Sprintf("unknown price field %q", string(c.PriceField)),
		}
	}

	if c.AnalysisEnd != "" {
		if _, err := time.Parse("2006-01-02", c.AnalysisEnd); err != nil {
			return contracts.ValidationError{
				Field:   "analysis_end",
				Message: "must be YYYY-MM-DD",
			}
		}
	}

	switch c.Scoring.Mode {
	case ModeQuality, ModeExpectancy:
	default:
		return contracts.ValidationError{
			Field:   "scoring.mode",
			Message: fmt.Sprintf("unknown mode %q, want quality or expectancy", c.Scoring.Mode),
		}
	}
	if c.Scoring.TopGlobal <= 0 {
		return contracts.ValidationError{
			Field:   "scoring.top_global",
			Message: "must be positive",
		}
	}
	if c.Scoring.TopPerSector <= 0 {
		return contracts.ValidationError{
			Field:   "scoring.top_per_sector",
			Message: "must be positive",
		}
	}
	if c.Scoring.MinSectorWinRate < 0 || c.Scoring.MinSectorWinRate > 1 {
		return contracts.ValidationError{
			Field:   "scoring.min_sector_win_rate",
			Message: "must be within [0, 1]",
		}
	}

	if c.SectorFilters.MinWinRate < 0 || c.SectorFilters.MinWinRate > 1 {
		return contracts.ValidationError{
			Field:   "sector_filters.min_win_rate",
			Message: "must be within [0, 1]",
		}
	}
	if c.SectorFilters.MinMaxDrawdown > 0 {
		return contracts.ValidationError{
			Field:   "sector_filters.min_max_drawdown",
			Message: "must be zero or negative",
		}
	}

	if !c.Grid.Adaptive && len(c.Rules) == 0 {
		return contracts.ValidationError{
			Field:   "rules",
			Message: "no rules configured and adaptive grid disabled",
		}
	}

	for i, r := range c.Rules {
		if err := r.Validate(); err != nil {
			if verr, ok := err.(contracts.ValidationError); ok {
				return contracts.ValidationError{
					Field:   fmt.Sprintf("rules[%d].%s", i, verr.Field),
					Message: verr.Message,
				}
			}
			return err
		}
	}

	return nil
}
