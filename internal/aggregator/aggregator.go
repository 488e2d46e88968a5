// Package aggregator folds a tick stream into fixed-duration OHLC bars
// aligned to wall-clock bucket boundaries.
package aggregator

import (
	"time"

	"fxbot/internal/models"
)

// BarAggregator owns the open bar and the completed-bar queue. It is not
// safe for concurrent use; a single loop owns it (see runner).
type BarAggregator struct {
	period    time.Duration
	open      *models.Bar
	completed []models.Bar
}

func New(period time.Duration) *BarAggregator {
	if period <= 0 {
		period = time.Minute
	}
	return &BarAggregator{period: period}
}

// bucketStart aligns ts to the bar grid anchored at midnight, so bar
// boundaries are reproducible across restarts and instruments.
func (a *BarAggregator) bucketStart(ts time.Time) time.Time {
	midnight := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
	secs := int64(ts.Sub(midnight) / time.Second)
	periodSecs := int64(a.period / time.Second)
	return midnight.Add(time.Duration(secs/periodSecs*periodSecs) * time.Second)
}

// AddTick folds one quote into the open bar, rolling the bar over when
// the tick belongs to a later bucket. Ticks without a usable bid or ask
// are dropped. Ticks timestamped before the open bar's start still update
// the open bar; they are never rejected.
func (a *BarAggregator) AddTick(tick models.Tick) {
	if tick.Bid <= 0 || tick.Ask <= 0 {
		return
	}
	mid := tick.Mid()

	if a.open != nil && !tick.Time.Before(a.open.End) {
		a.completed = append(a.completed, *a.open)
		a.open = nil
	}

	if a.open == nil {
		start := a.bucketStart(tick.Time)
		a.open = &models.Bar{
			Start: start,
			End:   start.Add(a.period),
			Open:  mid,
			High:  mid,
			Low:   mid,
			Close: mid,
		}
		return
	}

	if mid > a.open.High {
		a.open.High = mid
	}
	if mid < a.open.Low {
		a.open.Low = mid
	}
	a.open.Close = mid
}

// DrainCompleted returns and clears the completed-bar queue. Non-blocking;
// an empty slice means nothing closed since the last drain.
func (a *BarAggregator) DrainCompleted() []models.Bar {
	out := a.completed
	a.completed = nil
	return out
}

// Finalize force-closes the open bar and drains. Shutdown only.
func (a *BarAggregator) Finalize() []models.Bar {
	if a.open != nil {
		a.completed = append(a.completed, *a.open)
		a.open = nil
	}
	return a.DrainCompleted()
}
