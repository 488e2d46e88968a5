package monitor

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"fxbot/internal/models"
)

type fakePortfolio struct {
	realized   float64
	unrealized float64
	balance    float64
	closed     []models.ClosedPosition

	realizedErr error
	closedErr   error
}

func (p *fakePortfolio) RealizedPnl(context.Context, string) (float64, error) {
	return p.realized, p.realizedErr
}

func (p *fakePortfolio) UnrealizedPnl(context.Context, string) (float64, error) {
	return p.unrealized, nil
}

func (p *fakePortfolio) ClosedPositions(context.Context, string) ([]models.ClosedPosition, error) {
	return p.closed, p.closedErr
}

func (p *fakePortfolio) AccountBalance(context.Context) (float64, error) {
	return p.balance, nil
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) SendF(_ context.Context, format string, _ ...any) {
	n.messages = append(n.messages, format)
}

func closedAt(id string, pnl, notional float64) models.ClosedPosition {
	return models.ClosedPosition{
		ID:       id,
		Pnl:      pnl,
		Notional: notional,
		ClosedAt: time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

func newTestMonitor(t *testing.T, path string, p Portfolio, n Notifier) *Monitor {
	t.Helper()
	m, err := New("EUR-USD", time.Minute, DefaultThresholds(), testBenchmark(), p, NewStore(path), nil, n)
	require.NoError(t, err)
	return m
}

func TestCyclePersistsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.json")
	p := &fakePortfolio{realized: 50, unrealized: -10, balance: 10000,
		closed: []models.ClosedPosition{closedAt("p1", 50, 100000)}}
	m := newTestMonitor(t, path, p, nil)

	require.NoError(t, m.Cycle(context.Background()))

	doc := m.store.Document()
	require.Len(t, doc.Snapshots, 1)
	snap := doc.Snapshots[0]
	require.Equal(t, 50.0, snap.CumulativePnl)
	require.Equal(t, -10.0, snap.UnrealizedPnl)
	require.Equal(t, 1, snap.TotalTrades)
	require.Equal(t, 1, snap.Wins)
	require.Len(t, snap.Trades, 1)
	require.Equal(t, "p1", snap.Trades[0].ID)
}

func TestCycleIngestsEachPositionOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.json")
	p := &fakePortfolio{balance: 10000,
		closed: []models.ClosedPosition{closedAt("p1", 10, 1000), closedAt("p2", -5, 1000)}}
	m := newTestMonitor(t, path, p, nil)

	require.NoError(t, m.Cycle(context.Background()))
	// venue returns the same history again next cycle
	require.NoError(t, m.Cycle(context.Background()))

	doc := m.store.Document()
	require.Len(t, doc.Snapshots, 2)
	require.Equal(t, 2, doc.Snapshots[1].TotalTrades)
	require.Len(t, doc.Snapshots[0].Trades, 2)
	require.Empty(t, doc.Snapshots[1].Trades, "already persisted trades must not repeat")
}

func TestCycleSkipsBlankPositionIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.json")
	p := &fakePortfolio{balance: 10000,
		closed: []models.ClosedPosition{closedAt("", 10, 1000), closedAt("p1", 5, 1000)}}
	m := newTestMonitor(t, path, p, nil)

	require.NoError(t, m.Cycle(context.Background()))
	require.Equal(t, 1, m.store.Document().Snapshots[0].TotalTrades)
}

func TestCycleAbortsWhenPortfolioFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.json")
	p := &fakePortfolio{balance: 10000, realizedErr: errors.New("venue down")}
	m := newTestMonitor(t, path, p, nil)

	require.Error(t, m.Cycle(context.Background()))
	require.Empty(t, m.store.Document().Snapshots)
}

func TestDrawdownTracksPeakEquity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.json")
	p := &fakePortfolio{balance: 10000, realized: 0}
	m := newTestMonitor(t, path, p, nil)

	require.NoError(t, m.Cycle(context.Background())) // equity 10000
	p.realized = 100
	require.NoError(t, m.Cycle(context.Background())) // peak 10100
	p.realized = 40
	require.NoError(t, m.Cycle(context.Background())) // 60 under peak
	p.realized = 80
	require.NoError(t, m.Cycle(context.Background())) // recovers, max stays

	snaps := m.store.Document().Snapshots
	require.Equal(t, 0.0, snaps[1].CurrentDrawdown)
	require.InDelta(t, 60.0, snaps[2].CurrentDrawdown, 1e-9)
	require.InDelta(t, 60.0, snaps[2].MaxDrawdown, 1e-9)
	require.InDelta(t, 20.0, snaps[3].CurrentDrawdown, 1e-9)
	require.InDelta(t, 60.0, snaps[3].MaxDrawdown, 1e-9, "max drawdown never shrinks")
}

func TestRecoveryRestoresSessionFromStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.json")
	p := &fakePortfolio{balance: 10000, realized: 10,
		closed: []models.ClosedPosition{closedAt("p1", 10, 1000)}}

	first := newTestMonitor(t, path, p, nil)
	require.NoError(t, first.Cycle(context.Background()))
	startTime := first.startTime

	// process restarts, same store on disk
	second := newTestMonitor(t, path, p, nil)
	require.Equal(t, startTime.UTC(), second.startTime.UTC())

	require.NoError(t, second.Cycle(context.Background()))
	snaps := second.store.Document().Snapshots
	require.Len(t, snaps, 2)
	require.Equal(t, 1, snaps[1].TotalTrades)
	require.Equal(t, 1, snaps[1].Wins, "win flag rebuilt from persisted pnl")
	require.Empty(t, snaps[1].Trades, "restored trades are already persisted")
}

func TestRecoverySeedsMaxDrawdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.json")
	p := &fakePortfolio{balance: 10000}

	first := newTestMonitor(t, path, p, nil)
	require.NoError(t, first.Cycle(context.Background()))
	p.realized = 100
	require.NoError(t, first.Cycle(context.Background()))
	p.realized = 0
	require.NoError(t, first.Cycle(context.Background())) // maxDD 100

	second := newTestMonitor(t, path, p, nil)
	require.NoError(t, second.Cycle(context.Background()))
	snaps := second.store.Document().Snapshots
	require.InDelta(t, 100.0, snaps[len(snaps)-1].MaxDrawdown, 1e-9)
}

func TestAlertsNotifiedOnceUntilTheyChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.json")
	closed := make([]models.ClosedPosition, 0, 12)
	for i := 0; i < 12; i++ {
		closed = append(closed, closedAt(fmt.Sprintf("l%d", i), -1, 1000))
	}
	p := &fakePortfolio{balance: 10000, realized: -12, closed: closed}
	n := &recordingNotifier{}

	// benchmark without a trade-count profile keeps the frequency rule
	// quiet; its message text varies with wall-clock elapsed time
	bench := testBenchmark()
	bench.TotalTrades = 0
	m, err := New("EUR-USD", time.Minute, DefaultThresholds(), bench, p, NewStore(path), nil, n)
	require.NoError(t, err)

	require.NoError(t, m.Cycle(context.Background()))
	require.Len(t, n.messages, 1)

	// identical alert set next cycle, no repeat notification
	require.NoError(t, m.Cycle(context.Background()))
	require.Len(t, n.messages, 1)

	snaps := m.store.Document().Snapshots
	require.NotEmpty(t, snaps[0].Alerts)
	require.NotEmpty(t, snaps[1].Alerts, "alerts persist every cycle even when not re-sent")
}

func TestSnapshotTradesCapped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.json")
	closed := make([]models.ClosedPosition, 0, maxTradesPerSnapshot+37)
	for i := 0; i < maxTradesPerSnapshot+37; i++ {
		closed = append(closed, closedAt(fmt.Sprintf("p%d", i), 1, 1000))
	}
	p := &fakePortfolio{balance: 10000, closed: closed}
	m := newTestMonitor(t, path, p, nil)

	require.NoError(t, m.Cycle(context.Background()))
	require.NoError(t, m.Cycle(context.Background()))

	snaps := m.store.Document().Snapshots
	require.Len(t, snaps[0].Trades, maxTradesPerSnapshot)
	require.Len(t, snaps[1].Trades, 37, "overflow carries to the next cycle")
}

func TestEquityAnchorsToFirstObservedBalance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.json")
	p := &fakePortfolio{balance: 10000, realized: 50, unrealized: -10}
	m := newTestMonitor(t, path, p, nil)

	require.NoError(t, m.Cycle(context.Background()))
	stats := m.computeStats(p.realized, p.unrealized)
	require.InDelta(t, 10000.0, stats.Equity, 1e-9)
}
