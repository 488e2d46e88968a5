package monitor

import (
	"math"

	"fxbot/internal/models"
)

const (
	sharpeWindow    = 200
	sharpeMinTrades = 10
)

// Stats is the per-cycle recomputed view of live performance.
type Stats struct {
	TotalTrades       int
	Wins              int
	Losses            int
	WinRate           float64
	Sharpe            float64
	Equity            float64
	CurrentDrawdown   float64
	MaxDrawdown       float64
	ConsecutiveLosses int
}

func winRate(wins, losses int) float64 {
	total := wins + losses
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

// rollingSharpe computes mean/stdev over the last sharpeWindow returns.
// Zero when the sample is too small or flat.
func rollingSharpe(returns []float64) float64 {
	if len(returns) < sharpeMinTrades {
		return 0
	}
	if len(returns) > sharpeWindow {
		returns = returns[len(returns)-sharpeWindow:]
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	stdev := math.Sqrt(variance)
	// identical returns leave rounding dust in the variance sum; treat
	// anything below float noise as flat
	if stdev < 1e-12 {
		return 0
	}
	return mean / stdev
}

// consecutiveLosses counts the losing streak from the most recent trade
// backward.
func consecutiveLosses(trades []models.TradeRecord) int {
	streak := 0
	for i := len(trades) - 1; i >= 0; i-- {
		if trades[i].Win {
			break
		}
		streak++
	}
	return streak
}
