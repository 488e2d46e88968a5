// Package runner drives the single-position execution state machine:
// quotes in, bars out, signals into orders at the venue.
package runner

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"fxbot/internal/aggregator"
	"fxbot/internal/exchange"
	"fxbot/internal/models"
	"fxbot/internal/modules/config"
	"fxbot/internal/strategy"
	"fxbot/pkg/logger"
)

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateRunning
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	default:
		return "unknown"
	}
}

// Gateway is the order/position surface the runner needs from the venue.
type Gateway interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, instrument string) (<-chan models.Tick, error)
	CurrentPosition(ctx context.Context, instrument string) (models.Position, error)
	SubmitMarketOrder(ctx context.Context, instrument string, side models.Side, size float64, tif models.TimeInForce) error
	SubmitBracketOrder(ctx context.Context, instrument string, order models.BracketOrder) error
	CancelSubscription() error
	Disconnect() error
}

// Notifier pushes operator-facing messages; implementations must be safe
// to call with a nil receiver.
type Notifier interface {
	SendF(ctx context.Context, format string, args ...any)
}

type Runner struct {
	cfg *config.Config
	gw  Gateway
	agg *aggregator.BarAggregator
	stg strategy.Engine
	n   Notifier

	state State
}

func New(cfg *config.Config, gw Gateway, stg strategy.Engine, n Notifier) *Runner {
	return &Runner{
		cfg:   cfg,
		gw:    gw,
		agg:   aggregator.New(cfg.BarPeriod),
		stg:   stg,
		n:     n,
		state: StateDisconnected,
	}
}

func (r *Runner) State() State { return r.state }

// Start walks Connecting -> Running and blocks until ctx is cancelled or
// the stream dies. The subscription and connection are released on every
// exit path; connection failures surface to the caller, never retried
// here.
func (r *Runner) Start(ctx context.Context) error {
	r.state = StateConnecting
	logger.Info("runner %s: connecting", r.cfg.Instrument)

	defer func() {
		r.state = StateShuttingDown
		if err := r.gw.CancelSubscription(); err != nil {
			logger.Warn("cancel subscription: %v", err)
		}
		if err := r.gw.Disconnect(); err != nil {
			logger.Warn("disconnect: %v", err)
		}
		logger.Info("runner %s: shut down", r.cfg.Instrument)
	}()

	// the timeout bounds the handshake only; the subscription lives on
	// the run context, not the connect deadline
	cctx, cancel := context.WithTimeout(ctx, r.cfg.ConnectTimeout)
	if err := r.gw.Connect(cctx); err != nil {
		cancel()
		return errors.Wrap(err, "handshake")
	}
	cancel()

	ticks, err := r.gw.Subscribe(ctx, r.cfg.Instrument)
	if err != nil {
		return errors.Wrap(err, "market data subscription")
	}

	r.state = StateRunning
	logger.Info("runner %s: running, bar period %s", r.cfg.Instrument, r.cfg.BarPeriod)

	return r.run(ctx, ticks)
}

func (r *Runner) run(ctx context.Context, ticks <-chan models.Tick) error {
	// bounded poll so the loop stays responsive when quotes stall
	poll := time.NewTicker(time.Second)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			r.agg.Finalize() // force-close the open bar; no entries at shutdown
			return nil
		case tick, ok := <-ticks:
			if !ok {
				return errors.Wrap(exchange.ErrConnection, "quote stream closed")
			}
			r.agg.AddTick(tick)
			r.processBars(ctx)
		case <-poll.C:
		}
	}
}

func (r *Runner) processBars(ctx context.Context) {
	for _, bar := range r.agg.DrainCompleted() {
		sig := r.stg.OnBar(bar)
		if sig == nil {
			continue
		}
		logger.Info("signal %s %s @ %.5f (%s)", r.cfg.Instrument, sig.Side, sig.Price, sig.Reason)
		r.HandleSignal(ctx, sig)
	}
}
