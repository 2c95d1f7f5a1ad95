package contracts

import "time"

// Direction is the sign of a sector group move (and of the position taken
// on its lagger).
type Direction int

// Direction values.
const (
	DirectionUp   Direction = 1
	DirectionDown Direction = -1
)

// Sign returns the direction as a float factor for return arithmetic.
func (d Direction) Sign() float64 {
	return float64(d)
}

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == DirectionDown {
		return "down"
	}
	return "up"
}

// Mover is a sector member that participated in a group move, with its
// trailing return over the rule's lookback window.
type Mover struct {
	Ticker string
	Return float64
}

// LagEvent is one detected lag signal: on SignalDate most of the sector
// moved in Direction while Lagger barely moved. Immutable once detected.
type LagEvent struct {
	Sector       string
	SignalDate   time.Time
	Direction    Direction
	Movers       []Mover
	Lagger       string
	LaggerReturn float64
	Rule         Rule
}

// MoverTickers returns the mover symbols in emission order.
func (e LagEvent) MoverTickers() []string {
	out := make([]string, len(e.Movers))
	for i, m := range e.Movers {
		out[i] = m.Ticker
	}
	return out
}
