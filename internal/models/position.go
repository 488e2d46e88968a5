package models

// PositionSide is the venue-reported direction of the open position.
type PositionSide string

const (
	PositionFlat  PositionSide = "FLAT"
	PositionLong  PositionSide = "LONG"
	PositionShort PositionSide = "SHORT"
)

// Matches reports whether an open position already points the same way
// as an entry signal.
func (p PositionSide) Matches(s Side) bool {
	return (p == PositionLong && s == SideBuy) ||
		(p == PositionShort && s == SideSell)
}

// Position is the venue's view; the controller only reads it.
type Position struct {
	Side PositionSide
	Size float64
}
