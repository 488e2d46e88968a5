package models

// Benchmark is the expected-performance profile produced by the offline
// optimizer. Immutable for the lifetime of a monitoring session.
type Benchmark struct {
	ID                   string  `json:"id,omitempty"`
	FastPeriod           int     `json:"fast_period,omitempty"`
	SlowPeriod           int     `json:"slow_period,omitempty"`
	ExpectedSharpe       float64 `json:"expected_sharpe"`
	TotalPnl             float64 `json:"total_pnl"`
	WinRate              float64 `json:"win_rate"`
	TotalTrades          int     `json:"total_trades"`
	MaxDrawdown          float64 `json:"max_drawdown"`
	AvgWinner            float64 `json:"avg_winner"`
	AvgLoser             float64 `json:"avg_loser"`
	Expectancy           float64 `json:"expectancy"`
	RejectedSignals      int     `json:"rejected_signals"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
	PeriodDays           float64 `json:"period_days,omitempty"`
}
