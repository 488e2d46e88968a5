package runner

import (
	"math"

	"fxbot/internal/models"
)

// BuildBracket derives the bracket deterministically from the signal and
// the pip-distance configuration: entry limit nudged a fraction of one
// pip in the trade direction, stop and take-profit at the configured pip
// distances, every price rounded to the pip increment. Good-till-cancel.
func (r *Runner) BuildBracket(sig *models.Signal) models.BracketOrder {
	cfg := r.cfg
	dir := 1.0
	if sig.Side == models.SideSell {
		dir = -1.0
	}

	entry := roundToPip(sig.Price+dir*cfg.EntryOffsetPips*cfg.PipSize, cfg.PipSize)
	stop := roundToPip(entry-dir*cfg.StopLossPips*cfg.PipSize, cfg.PipSize)
	take := roundToPip(entry+dir*cfg.TakeProfitPips*cfg.PipSize, cfg.PipSize)

	return models.BracketOrder{
		Side:        sig.Side,
		Size:        cfg.TradeSize,
		EntryPrice:  entry,
		StopLoss:    stop,
		TakeProfit:  take,
		TimeInForce: models.TIFGTC,
	}
}

func roundToPip(px, pip float64) float64 {
	if pip <= 0 {
		return px
	}
	return math.Round(px/pip) * pip
}
