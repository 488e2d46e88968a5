package strategy

import (
	"fmt"

	"github.com/pkg/errors"

	"fxbot/internal/models"
)

// SMACross emits one signal per fast/slow SMA crossover on closed bars.
type SMACross struct {
	fast int
	slow int

	closes   []float64
	prevFast float64
	prevSlow float64
}

// NewSMACross fails fast on a bad period pair so the run loop never
// starts with an inverted configuration.
func NewSMACross(fastPeriod, slowPeriod int) (*SMACross, error) {
	if fastPeriod <= 0 || slowPeriod <= 0 {
		return nil, errors.Errorf("sma periods must be positive: fast=%d slow=%d", fastPeriod, slowPeriod)
	}
	if fastPeriod >= slowPeriod {
		return nil, errors.Errorf("fast period must be less than slow period: fast=%d slow=%d", fastPeriod, slowPeriod)
	}
	return &SMACross{
		fast:   fastPeriod,
		slow:   slowPeriod,
		closes: make([]float64, 0, slowPeriod),
	}, nil
}

// OnBar appends the close, updates both SMAs and reports a crossover.
// The previous fast/slow pair starts as a tie, so the first bar with a
// full slow window may already fire; after that the pair is updated
// every bar whether or not a signal fires.
func (s *SMACross) OnBar(bar models.Bar) *models.Signal {
	s.closes = append(s.closes, bar.Close)
	if len(s.closes) > s.slow {
		s.closes = s.closes[1:]
	}
	if len(s.closes) < s.slow {
		return nil
	}

	fast := mean(s.closes[len(s.closes)-s.fast:])
	slow := mean(s.closes)

	var sig *models.Signal
	crossedUp := fast > slow && s.prevFast <= s.prevSlow
	crossedDown := fast < slow && s.prevFast >= s.prevSlow
	switch {
	case crossedUp:
		sig = &models.Signal{
			Side:   models.SideBuy,
			Price:  bar.Close,
			Bar:    bar,
			Reason: fmt.Sprintf("sma cross up fast=%.5f slow=%.5f", fast, slow),
		}
	case crossedDown:
		sig = &models.Signal{
			Side:   models.SideSell,
			Price:  bar.Close,
			Bar:    bar,
			Reason: fmt.Sprintf("sma cross down fast=%.5f slow=%.5f", fast, slow),
		}
	}

	s.prevFast = fast
	s.prevSlow = slow
	return sig
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
