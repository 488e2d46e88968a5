// Package monitor compares live trading results against a precomputed
// benchmark and persists one snapshot per poll cycle.
package monitor

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"fxbot/internal/models"
	"fxbot/pkg/logger"
)

// maxTradesPerSnapshot caps the trades array persisted with one
// snapshot; the remainder carries over to the next cycle.
const maxTradesPerSnapshot = 500

// Portfolio is the account surface the monitor polls. It is the only
// thing the monitor shares with the execution side.
type Portfolio interface {
	RealizedPnl(ctx context.Context, instrument string) (float64, error)
	UnrealizedPnl(ctx context.Context, instrument string) (float64, error)
	ClosedPositions(ctx context.Context, instrument string) ([]models.ClosedPosition, error)
	AccountBalance(ctx context.Context) (float64, error)
}

// Notifier pushes raised alerts to the operator; nil-safe.
type Notifier interface {
	SendF(ctx context.Context, format string, args ...any)
}

type Monitor struct {
	instrument string
	interval   time.Duration
	thresholds Thresholds
	benchmark  models.Benchmark

	portfolio Portfolio
	store     *Store
	journal   Journal // nil when no DSN configured
	notifier  Notifier

	startTime time.Time
	baseSet   bool
	base      float64

	trades        []models.TradeRecord
	seen          map[string]struct{}
	lastPersisted int

	peakEquity float64
	maxDD      float64

	lastAlertKey string
	done         chan struct{}
}

// New opens (or recovers) the store and restores session state from it:
// start time, already-persisted trade ids and the max-drawdown floor.
func New(
	instrument string,
	interval time.Duration,
	thresholds Thresholds,
	bench models.Benchmark,
	portfolio Portfolio,
	store *Store,
	journal Journal,
	notifier Notifier,
) (*Monitor, error) {
	if interval <= 0 {
		interval = 60 * time.Second
	}

	m := &Monitor{
		instrument: instrument,
		interval:   interval,
		thresholds: thresholds,
		benchmark:  bench,
		portfolio:  portfolio,
		store:      store,
		journal:    journal,
		notifier:   notifier,
		startTime:  time.Now().UTC(),
		seen:       make(map[string]struct{}),
		done:       make(chan struct{}),
	}

	doc, err := store.Open(models.StoreMetadata{
		MonitoringStartTime: m.startTime,
		Benchmark:           bench,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open monitor store")
	}

	if len(doc.Snapshots) > 0 || !doc.Metadata.MonitoringStartTime.IsZero() {
		m.startTime = doc.Metadata.MonitoringStartTime
	}
	for _, snap := range doc.Snapshots {
		for _, tr := range snap.Trades {
			// win flag and return are not persisted; rebuild what we can
			tr.Win = tr.Pnl > 0
			m.seen[tr.ID] = struct{}{}
			m.trades = append(m.trades, tr)
		}
	}
	m.lastPersisted = len(m.trades)
	if n := len(doc.Snapshots); n > 0 {
		m.maxDD = doc.Snapshots[n-1].MaxDrawdown
	}

	return m, nil
}

// Done closes once Run has returned; shutdown awaits it so the current
// cycle finishes or aborts cleanly.
func (m *Monitor) Done() <-chan struct{} { return m.done }

// Run executes cycles until ctx is cancelled, sleeping the remaining
// interval between them. A failed cycle is a warning, never a stop.
func (m *Monitor) Run(ctx context.Context) {
	defer close(m.done)
	logger.Info("monitor %s: polling every %s", m.instrument, m.interval)

	for {
		started := time.Now()
		if err := m.Cycle(ctx); err != nil {
			logger.Warn("monitor cycle: %v", err)
		}

		remaining := m.interval - time.Since(started)
		if remaining < 0 {
			remaining = 0
		}
		select {
		case <-ctx.Done():
			logger.Info("monitor %s: stopped", m.instrument)
			return
		case <-time.After(remaining):
		}
	}
}

// Cycle performs one poll: query, ingest, recompute, evaluate, persist.
func (m *Monitor) Cycle(ctx context.Context) error {
	span, sctx := opentracing.StartSpanFromContext(ctx, "monitor.cycle")
	defer span.Finish()

	realized, err := m.portfolio.RealizedPnl(sctx, m.instrument)
	if err != nil {
		return errors.Wrap(err, "realized pnl")
	}
	unrealized, err := m.portfolio.UnrealizedPnl(sctx, m.instrument)
	if err != nil {
		return errors.Wrap(err, "unrealized pnl")
	}
	closed, err := m.portfolio.ClosedPositions(sctx, m.instrument)
	if err != nil {
		return errors.Wrap(err, "closed positions")
	}

	if !m.baseSet {
		bal, err := m.portfolio.AccountBalance(sctx)
		if err != nil {
			return errors.Wrap(err, "account balance")
		}
		// anchor so equity starts at the observed balance
		m.base = bal - realized - unrealized
		m.baseSet = true
	}

	m.ingest(sctx, closed)

	now := time.Now().UTC()
	stats := m.computeStats(realized, unrealized)
	elapsed := now.Sub(m.startTime)
	alerts := m.thresholds.Evaluate(stats, m.benchmark, elapsed.Hours()/24, realized)

	snap := m.buildSnapshot(now, elapsed, realized, unrealized, stats, alerts)
	if err := m.store.Append(snap); err != nil {
		// index not advanced; these trades ride along next cycle
		return errors.Wrap(err, "persist snapshot")
	}
	m.lastPersisted += len(snap.Trades)

	m.notifyAlerts(sctx, alerts)
	return nil
}

// ingest appends newly seen closed positions exactly once, keyed by id.
// Repeated venue queries of the same history are idempotent.
func (m *Monitor) ingest(ctx context.Context, closed []models.ClosedPosition) {
	for _, cp := range closed {
		if cp.ID == "" {
			continue
		}
		if _, ok := m.seen[cp.ID]; ok {
			continue
		}
		m.seen[cp.ID] = struct{}{}

		ret := 0.0
		if cp.Notional > 0 {
			ret = cp.Pnl / cp.Notional
		}
		trade := models.TradeRecord{
			ID:     cp.ID,
			Time:   cp.ClosedAt,
			Pnl:    cp.Pnl,
			Win:    cp.Pnl > 0,
			Return: ret,
		}
		m.trades = append(m.trades, trade)

		if m.journal != nil {
			if err := m.journal.Insert(ctx, trade); err != nil {
				logger.Warn("%v", err)
			}
		}
	}
}

func (m *Monitor) computeStats(realized, unrealized float64) Stats {
	var stats Stats
	stats.TotalTrades = len(m.trades)

	returns := make([]float64, 0, len(m.trades))
	for _, tr := range m.trades {
		if tr.Win {
			stats.Wins++
		} else {
			stats.Losses++
		}
		returns = append(returns, tr.Return)
	}
	stats.WinRate = winRate(stats.Wins, stats.Losses)
	stats.Sharpe = rollingSharpe(returns)
	stats.ConsecutiveLosses = consecutiveLosses(m.trades)

	stats.Equity = m.base + realized + unrealized
	if stats.Equity > m.peakEquity {
		m.peakEquity = stats.Equity
	}
	dd := m.peakEquity - stats.Equity
	if dd < 0 {
		dd = 0
	}
	stats.CurrentDrawdown = dd
	if dd > m.maxDD {
		m.maxDD = dd
	}
	stats.MaxDrawdown = m.maxDD

	return stats
}

func (m *Monitor) buildSnapshot(
	now time.Time,
	elapsed time.Duration,
	realized, unrealized float64,
	stats Stats,
	alerts []string,
) models.Snapshot {
	newTrades := m.trades[m.lastPersisted:]
	if len(newTrades) > maxTradesPerSnapshot {
		newTrades = newTrades[:maxTradesPerSnapshot]
	}
	persistTrades := make([]models.TradeRecord, len(newTrades))
	copy(persistTrades, newTrades)

	if alerts == nil {
		alerts = []string{}
	}

	return models.Snapshot{
		Timestamp:         now,
		ElapsedSeconds:    elapsed.Seconds(),
		CumulativePnl:     realized,
		UnrealizedPnl:     unrealized,
		TotalTrades:       stats.TotalTrades,
		Wins:              stats.Wins,
		Losses:            stats.Losses,
		WinRate:           stats.WinRate,
		SharpeRatio:       stats.Sharpe,
		CurrentDrawdown:   stats.CurrentDrawdown,
		MaxDrawdown:       stats.MaxDrawdown,
		ExpectedPnlToDate: m.benchmark.Expectancy * float64(stats.TotalTrades),
		Alerts:            alerts,
		Trades:            persistTrades,
	}
}

func (m *Monitor) notifyAlerts(ctx context.Context, alerts []string) {
	if m.notifier == nil || len(alerts) == 0 {
		return
	}
	key := ""
	for _, a := range alerts {
		key += a + "\n"
	}
	if key == m.lastAlertKey {
		return // same alert set as last cycle, don't spam the chat
	}
	m.lastAlertKey = key
	m.notifier.SendF(ctx, "⚠️ [%s] %d alert(s):\n%s", m.instrument, len(alerts), key)
}
