package monitor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fxbot/internal/models"
)

func TestWinRate(t *testing.T) {
	require.Equal(t, 0.0, winRate(0, 0))
	require.Equal(t, 1.0, winRate(5, 0))
	require.Equal(t, 0.0, winRate(0, 5))
	require.InDelta(t, 0.6, winRate(6, 4), 1e-12)
}

func TestRollingSharpeNeedsMinimumSample(t *testing.T) {
	returns := []float64{0.01, 0.02, -0.01, 0.03, 0.01, 0.02, -0.02, 0.01, 0.02}
	require.Len(t, returns, 9)
	require.Equal(t, 0.0, rollingSharpe(returns))

	returns = append(returns, 0.01)
	require.NotEqual(t, 0.0, rollingSharpe(returns))
}

func TestRollingSharpeFlatReturnsIsZero(t *testing.T) {
	returns := make([]float64, 20)
	for i := range returns {
		returns[i] = 0.01
	}
	require.Equal(t, 0.0, rollingSharpe(returns))
}

func TestRollingSharpeSignFollowsMean(t *testing.T) {
	up := make([]float64, 20)
	down := make([]float64, 20)
	for i := range up {
		up[i] = 0.01
		down[i] = -0.01
		if i%4 == 0 {
			up[i] = -0.005
			down[i] = 0.005
		}
	}
	require.Greater(t, rollingSharpe(up), 0.0)
	require.Less(t, rollingSharpe(down), 0.0)
}

func TestRollingSharpeUsesOnlyRecentWindow(t *testing.T) {
	// old catastrophic returns fall out of the window entirely
	returns := make([]float64, 0, sharpeWindow+50)
	for i := 0; i < 50; i++ {
		returns = append(returns, -1.0)
	}
	recent := make([]float64, 0, sharpeWindow)
	for i := 0; i < sharpeWindow; i++ {
		r := 0.01
		if i%3 == 0 {
			r = -0.002
		}
		recent = append(recent, r)
	}
	returns = append(returns, recent...)

	require.Equal(t, rollingSharpe(recent), rollingSharpe(returns))
}

func TestConsecutiveLossesCountsFromTail(t *testing.T) {
	mk := func(wins ...bool) []models.TradeRecord {
		trades := make([]models.TradeRecord, len(wins))
		for i, w := range wins {
			trades[i] = models.TradeRecord{Win: w}
		}
		return trades
	}

	require.Equal(t, 0, consecutiveLosses(nil))
	require.Equal(t, 0, consecutiveLosses(mk(false, false, true)))
	require.Equal(t, 2, consecutiveLosses(mk(true, false, false)))
	require.Equal(t, 3, consecutiveLosses(mk(false, false, false)))
}
