package models

import "time"

// ClosedPosition is the venue's record of a finished round trip, decoded
// at the exchange boundary. Notional is the entry notional used to
// normalize returns; zero when the venue did not report it.
type ClosedPosition struct {
	ID       string
	Pnl      float64
	Notional float64
	ClosedAt time.Time
}

// TradeRecord is one closed position as the monitor remembers it.
// Appended exactly once per position id.
type TradeRecord struct {
	ID     string    `json:"id"`
	Time   time.Time `json:"timestamp"`
	Pnl    float64   `json:"pnl"`
	Win    bool      `json:"-"`
	Return float64   `json:"-"`
}

// Snapshot is one persisted observation of monitor state. Never mutated
// after it is written to the store.
type Snapshot struct {
	Timestamp         time.Time     `json:"timestamp"`
	ElapsedSeconds    float64       `json:"elapsed_seconds"`
	CumulativePnl     float64       `json:"cumulative_pnl"`
	UnrealizedPnl     float64       `json:"unrealized_pnl"`
	TotalTrades       int           `json:"total_trades"`
	Wins              int           `json:"wins"`
	Losses            int           `json:"losses"`
	WinRate           float64       `json:"win_rate"`
	SharpeRatio       float64       `json:"sharpe_ratio"`
	CurrentDrawdown   float64       `json:"current_drawdown"`
	MaxDrawdown       float64       `json:"max_drawdown"`
	ExpectedPnlToDate float64       `json:"expected_pnl_to_date"`
	Alerts            []string      `json:"alerts"`
	Trades            []TradeRecord `json:"trades"`
}

// StoreMetadata heads the durable monitor store.
type StoreMetadata struct {
	MonitoringStartTime time.Time `json:"monitoring_start_time"`
	Benchmark           Benchmark `json:"benchmark"`
}

// StoreDocument is the full durable store: one metadata object plus the
// ordered snapshot log.
type StoreDocument struct {
	Metadata  StoreMetadata `json:"metadata"`
	Snapshots []Snapshot    `json:"snapshots"`
}
