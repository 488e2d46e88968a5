package models

// Side is the trade direction carried by signals, positions and orders.
type Side string

const (
	SideNone Side = ""
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Signal is an entry intent derived from one closed bar. BUY means
// enter long, SELL means enter short.
type Signal struct {
	Side   Side
	Price  float64
	Bar    Bar
	Reason string
}
