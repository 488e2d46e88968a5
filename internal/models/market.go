package models

import "time"

// Tick is a single bid/ask quote. Non-positive sides mean the venue sent
// no usable quote for that side; consumers drop such ticks.
type Tick struct {
	Time time.Time
	Bid  float64
	Ask  float64
}

func (t Tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

// Bar is a fixed-duration OHLC aggregate of tick mids. Immutable once the
// aggregator hands it out.
type Bar struct {
	Start time.Time
	End   time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}
