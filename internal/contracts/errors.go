package contracts

import (
	"errors"
	"fmt"
)

// ErrDataGap marks a missing price at a required date. It is always
// recovered locally (carry-forward or candidate rejection) and never
// surfaces as a fatal engine error.
var ErrDataGap = errors.New("price data gap")

// ErrEmptyUniverse marks a sector with no tickers or no price history.
// The sector contributes no events; the run continues.
var ErrEmptyUniverse = errors.New("empty universe")

// ValidationError is a fatal configuration problem, surfaced before any
// simulation runs.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
