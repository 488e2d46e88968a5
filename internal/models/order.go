package models

// TimeInForce for order submission.
type TimeInForce string

const (
	TIFDay TimeInForce = "DAY"
	TIFGTC TimeInForce = "GTC"
)

// BracketOrder is an entry limit order with attached stop-loss and
// take-profit, derived deterministically from a Signal plus pip-distance
// configuration. Submitted once, never retried by the controller.
type BracketOrder struct {
	Side        Side
	Size        float64
	EntryPrice  float64
	StopLoss    float64
	TakeProfit  float64
	TimeInForce TimeInForce
}
