// Package strategy generates entry signals from closed bars.
package strategy

import "fxbot/internal/models"

// Engine is what the runner drives with every closed bar. A nil return
// means no entry this bar.
type Engine interface {
	OnBar(bar models.Bar) *models.Signal
}
