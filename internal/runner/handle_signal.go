package runner

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"fxbot/internal/models"
	"fxbot/pkg/logger"
)

// HandleSignal turns one entry signal into venue actions: no-op when the
// position already points the signal's way, otherwise flatten any
// opposite position and submit the bracket.
func (r *Runner) HandleSignal(ctx context.Context, sig *models.Signal) {
	span, sctx := opentracing.StartSpanFromContext(ctx, "runner.handle_signal")
	span.SetTag("side", string(sig.Side))
	defer span.Finish()

	pos, err := r.gw.CurrentPosition(sctx, r.cfg.Instrument)
	if err != nil {
		logger.Warn("position query %s: %v", r.cfg.Instrument, err)
		return
	}

	if pos.Side.Matches(sig.Side) {
		logger.Info("already positioned %s %s size=%v, skipping signal", r.cfg.Instrument, pos.Side, pos.Size)
		return
	}

	if pos.Side != models.PositionFlat && pos.Size > 0 {
		// Fire-and-forget: no fill confirmation before the bracket goes
		// out, so a partial fill can leave residual exposure.
		if err := r.gw.SubmitMarketOrder(sctx, r.cfg.Instrument, sig.Side, pos.Size, models.TIFDay); err != nil {
			logger.Error("flatten %s %s size=%v: %v", r.cfg.Instrument, pos.Side, pos.Size, err)
			return
		}
		logger.Info("flattening %s %s size=%v before reversal", r.cfg.Instrument, pos.Side, pos.Size)
	}

	order := r.BuildBracket(sig)
	if err := r.gw.SubmitBracketOrder(sctx, r.cfg.Instrument, order); err != nil {
		logger.Error("bracket %s %s: %v", r.cfg.Instrument, order.Side, err)
		if r.n != nil {
			r.n.SendF(sctx, "❗️ [%s] bracket %s rejected: %v", r.cfg.Instrument, order.Side, err)
		}
		return
	}
	logger.Info("bracket %s %s entry=%.5f sl=%.5f tp=%.5f size=%v",
		r.cfg.Instrument, order.Side, order.EntryPrice, order.StopLoss, order.TakeProfit, order.Size)
}
