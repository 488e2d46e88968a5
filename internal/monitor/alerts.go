package monitor

import (
	"fmt"
	"math"

	"fxbot/internal/models"
	"fxbot/pkg/logger"
)

// Thresholds parameterizes the alert rules so monitor instances can run
// with independent settings. Zero values fall back to the defaults at
// evaluation time via DefaultThresholds in the module wiring.
type Thresholds struct {
	WinRateDelta      float64
	SharpeFraction    float64
	FreqTolerance     float64
	ShortfallFraction float64
	ConsecLossMargin  int
	MinTradesWinRate  int
	MinTradesSharpe   int
	MinTradesFreq     int
	DefaultPeriodDays float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		WinRateDelta:      0.10,
		SharpeFraction:    0.80,
		FreqTolerance:     0.50,
		ShortfallFraction: 0.20,
		ConsecLossMargin:  2,
		MinTradesWinRate:  10,
		MinTradesSharpe:   10,
		MinTradesFreq:     5,
		DefaultPeriodDays: 365,
	}
}

// Evaluate runs every rule independently. A rule that fails internally
// contributes no alert and never stops the others; alerts are data, not
// control flow.
func (t Thresholds) Evaluate(stats Stats, bench models.Benchmark, elapsedDays, livePnl float64) []string {
	rules := []func() (string, bool){
		func() (string, bool) { return t.winRateRule(stats, bench) },
		func() (string, bool) { return t.sharpeRule(stats, bench) },
		func() (string, bool) { return t.drawdownRule(stats, bench) },
		func() (string, bool) { return t.frequencyRule(stats, bench, elapsedDays) },
		func() (string, bool) { return t.shortfallRule(stats, bench, livePnl) },
		func() (string, bool) { return t.consecutiveLossRule(stats, bench) },
	}

	var alerts []string
	for _, rule := range rules {
		if alert, ok := safeEval(rule); ok {
			alerts = append(alerts, alert)
		}
	}
	return alerts
}

func safeEval(rule func() (string, bool)) (alert string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("alert rule failed: %v", r)
			alert, ok = "", false
		}
	}()
	return rule()
}

func (t Thresholds) winRateRule(stats Stats, bench models.Benchmark) (string, bool) {
	if stats.TotalTrades < t.MinTradesWinRate {
		return "", false
	}
	if stats.WinRate < bench.WinRate-t.WinRateDelta {
		return fmt.Sprintf("win rate %.2f%% below benchmark %.2f%%",
			stats.WinRate*100, bench.WinRate*100), true
	}
	return "", false
}

func (t Thresholds) sharpeRule(stats Stats, bench models.Benchmark) (string, bool) {
	if stats.TotalTrades < t.MinTradesSharpe {
		return "", false
	}
	if stats.Sharpe < bench.ExpectedSharpe*t.SharpeFraction {
		return fmt.Sprintf("sharpe %.2f below %.0f%% of benchmark %.2f",
			stats.Sharpe, t.SharpeFraction*100, bench.ExpectedSharpe), true
	}
	return "", false
}

func (t Thresholds) drawdownRule(stats Stats, bench models.Benchmark) (string, bool) {
	if bench.MaxDrawdown <= 0 {
		return "", false
	}
	if stats.MaxDrawdown > bench.MaxDrawdown {
		return fmt.Sprintf("max drawdown %.2f exceeds benchmark %.2f",
			stats.MaxDrawdown, bench.MaxDrawdown), true
	}
	return "", false
}

func (t Thresholds) frequencyRule(stats Stats, bench models.Benchmark, elapsedDays float64) (string, bool) {
	if stats.TotalTrades < t.MinTradesFreq {
		return "", false
	}
	periodDays := bench.PeriodDays
	if periodDays <= 0 {
		periodDays = t.DefaultPeriodDays
	}
	expected := float64(bench.TotalTrades) / periodDays * elapsedDays
	if expected <= 0 {
		return "", false
	}
	deviation := math.Abs(float64(stats.TotalTrades)-expected) / expected
	if deviation > t.FreqTolerance {
		return fmt.Sprintf("trade count %d deviates %.0f%% from expected %.1f",
			stats.TotalTrades, deviation*100, expected), true
	}
	return "", false
}

func (t Thresholds) shortfallRule(stats Stats, bench models.Benchmark, livePnl float64) (string, bool) {
	if stats.TotalTrades == 0 {
		return "", false
	}
	expected := bench.Expectancy * float64(stats.TotalTrades)
	if (expected - livePnl) > t.ShortfallFraction*math.Abs(expected) {
		return fmt.Sprintf("pnl %.2f short of expected-to-date %.2f", livePnl, expected), true
	}
	return "", false
}

func (t Thresholds) consecutiveLossRule(stats Stats, bench models.Benchmark) (string, bool) {
	limit := bench.MaxConsecutiveLosses + t.ConsecLossMargin
	if stats.ConsecutiveLosses > limit {
		return fmt.Sprintf("losing streak %d exceeds benchmark %d+%d",
			stats.ConsecutiveLosses, bench.MaxConsecutiveLosses, t.ConsecLossMargin), true
	}
	return "", false
}
