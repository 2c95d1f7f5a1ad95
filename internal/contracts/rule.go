package contracts

import (
	"fmt"
)

// Rule is an immutable parameter set controlling lag detection and trade
// construction for one sector. A rule is identified by its parameter tuple;
// RuleID (derived by the scoring package) is a stable hash of that tuple.
type Rule struct {
	Sector         string  `yaml:"sector" json:"sector"`
	Lookback       int     `yaml:"lookback" json:"lookback"`
	GroupThreshold float64 `yaml:"group_threshold" json:"group_threshold"`
	Participation  float64 `yaml:"participation" json:"participation"`
	LaggerMaxMove  float64 `yaml:"lagger_max_move" json:"lagger_max_move"`
	EntryLag       int     `yaml:"entry_lag" json:"entry_lag"`
	Hold           int     `yaml:"hold" json:"hold"`
}

// Key returns the canonical parameter-tuple string. It is used for
// deterministic tie-breaking and as the hash input for rule IDs.
func (r Rule) Key() string {
	return fmt.Sprintf("%s|%d|%.6f|%.6f|%.6f|%d|%d",
		r.Sector, r.Lookback, r.GroupThreshold, r.Participation,
		r.LaggerMaxMove, r.EntryLag, r.Hold)
}

// Validate checks the rule parameters. A violation is a ConfigurationError:
// the engine refuses to run with an invalid rule.
func (r Rule) Validate() error {
	if r.Sector == "" {
		return ValidationError{"sector", "required"}
	}
	if r.Lookback <= 0 {
		return ValidationError{"lookback", "must be > 0"}
	}
	if r.GroupThreshold <= 0 || r.GroupThreshold > 1 {
		return ValidationError{"group_threshold", "must be in (0, 1]"}
	}
	if r.Participation <= 0 || r.Participation > 1 {
		return ValidationError{"participation", "must be in (0, 1]"}
	}
	if r.LaggerMaxMove < 0 {
		return ValidationError{"lagger_max_move", "must be >= 0"}
	}
	if r.EntryLag < 0 {
		return ValidationError{"entry_lag", "must be >= 0"}
	}
	if r.Hold <= 0 {
		return ValidationError{"hold", "must be > 0"}
	}
	return nil
}
