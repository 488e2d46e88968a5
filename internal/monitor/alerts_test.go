package monitor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fxbot/internal/models"
)

func testBenchmark() models.Benchmark {
	return models.Benchmark{
		ID:                   "sma_3_5",
		FastPeriod:           3,
		SlowPeriod:           5,
		ExpectedSharpe:       1.0,
		WinRate:              0.55,
		TotalTrades:          365,
		MaxDrawdown:          100,
		Expectancy:           2.0,
		MaxConsecutiveLosses: 3,
		PeriodDays:           365,
	}
}

func healthyStats() Stats {
	return Stats{
		TotalTrades:       10,
		Wins:              6,
		Losses:            4,
		WinRate:           0.6,
		Sharpe:            1.2,
		MaxDrawdown:       50,
		ConsecutiveLosses: 1,
	}
}

func TestEvaluateHealthyStatsRaisesNothing(t *testing.T) {
	th := DefaultThresholds()
	alerts := th.Evaluate(healthyStats(), testBenchmark(), 10, 25)
	require.Empty(t, alerts)
}

func TestWinRateRuleBoundary(t *testing.T) {
	th := DefaultThresholds()
	bench := testBenchmark() // win rate 0.55, delta 0.10

	stats := healthyStats()

	stats.WinRate = 0.45
	_, fired := th.winRateRule(stats, bench)
	require.True(t, fired, "exactly at the boundary must fire")

	stats.WinRate = 0.4501
	_, fired = th.winRateRule(stats, bench)
	require.False(t, fired)

	stats.WinRate = 0.40
	_, fired = th.winRateRule(stats, bench)
	require.True(t, fired)
}

func TestWinRateRuleNeedsMinimumTrades(t *testing.T) {
	th := DefaultThresholds()
	stats := healthyStats()
	stats.TotalTrades = 9
	stats.WinRate = 0.10

	_, fired := th.winRateRule(stats, testBenchmark())
	require.False(t, fired)
}

func TestSharpeRule(t *testing.T) {
	th := DefaultThresholds()
	bench := testBenchmark() // expected 1.0, fraction 0.80

	stats := healthyStats()
	stats.Sharpe = 0.79
	_, fired := th.sharpeRule(stats, bench)
	require.True(t, fired)

	stats.Sharpe = 0.80
	_, fired = th.sharpeRule(stats, bench)
	require.False(t, fired)
}

func TestDrawdownRule(t *testing.T) {
	th := DefaultThresholds()
	bench := testBenchmark()

	stats := healthyStats()
	stats.MaxDrawdown = 150
	_, fired := th.drawdownRule(stats, bench)
	require.True(t, fired)

	stats.MaxDrawdown = 100
	_, fired = th.drawdownRule(stats, bench)
	require.False(t, fired)

	bench.MaxDrawdown = 0 // no allowance recorded, rule stays silent
	stats.MaxDrawdown = 1e9
	_, fired = th.drawdownRule(stats, bench)
	require.False(t, fired)
}

func TestFrequencyRule(t *testing.T) {
	th := DefaultThresholds()
	bench := testBenchmark() // one trade per day

	stats := healthyStats()
	stats.TotalTrades = 20 // expected 10 after 10 days, 100% off
	_, fired := th.frequencyRule(stats, bench, 10)
	require.True(t, fired)

	stats.TotalTrades = 14 // 40% off, inside tolerance
	_, fired = th.frequencyRule(stats, bench, 10)
	require.False(t, fired)

	stats.TotalTrades = 4 // below the minimum sample
	_, fired = th.frequencyRule(stats, bench, 10)
	require.False(t, fired)
}

func TestFrequencyRuleZeroPeriodFallsBackToDefault(t *testing.T) {
	th := DefaultThresholds()
	bench := testBenchmark()
	bench.PeriodDays = 0

	stats := healthyStats()
	stats.TotalTrades = 20
	_, fired := th.frequencyRule(stats, bench, 10)
	require.True(t, fired)
}

func TestShortfallRule(t *testing.T) {
	th := DefaultThresholds()
	bench := testBenchmark() // expectancy 2.0

	stats := healthyStats() // 10 trades, expected-to-date 20

	_, fired := th.shortfallRule(stats, bench, 15) // 5 short > 4
	require.True(t, fired)

	_, fired = th.shortfallRule(stats, bench, 17) // 3 short <= 4
	require.False(t, fired)

	stats.TotalTrades = 0
	_, fired = th.shortfallRule(stats, bench, -100)
	require.False(t, fired)
}

func TestShortfallRuleNegativeExpectancy(t *testing.T) {
	th := DefaultThresholds()
	bench := testBenchmark()
	bench.Expectancy = -1.0 // expected -10 over 10 trades

	stats := healthyStats()
	_, fired := th.shortfallRule(stats, bench, -13) // 3 short > 2
	require.True(t, fired)

	_, fired = th.shortfallRule(stats, bench, -11)
	require.False(t, fired)
}

func TestConsecutiveLossRule(t *testing.T) {
	th := DefaultThresholds()
	bench := testBenchmark() // limit 3 + margin 2

	stats := healthyStats()
	stats.ConsecutiveLosses = 6
	_, fired := th.consecutiveLossRule(stats, bench)
	require.True(t, fired)

	stats.ConsecutiveLosses = 5
	_, fired = th.consecutiveLossRule(stats, bench)
	require.False(t, fired)
}

func TestEvaluateCollectsEveryFiringRule(t *testing.T) {
	th := DefaultThresholds()
	bench := testBenchmark()

	stats := Stats{
		TotalTrades:       20,
		Wins:              4,
		Losses:            16,
		WinRate:           0.2,
		Sharpe:            -0.5,
		MaxDrawdown:       500,
		ConsecutiveLosses: 8,
	}
	alerts := th.Evaluate(stats, bench, 10, -200)
	require.Len(t, alerts, 6)
}

func TestSafeEvalSwallowsPanickingRule(t *testing.T) {
	alert, ok := safeEval(func() (string, bool) {
		panic("division by zero")
	})
	require.False(t, ok)
	require.Empty(t, alert)
}
