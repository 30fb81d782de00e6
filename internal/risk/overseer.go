package risk

import (
	"github.com/jai-fire/production-grade-ai-trading-system/internal/portfolio"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/config"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// Overseer wraps an Evaluator with the daily-loss circuit breaker: once
// realized losses within the current UTC day reach the configured
// fraction of equity, every new entry is rejected for the rest of the
// day. Stop and target exits are handled by the executor and keep
// working while the breaker is tripped.
type Overseer struct {
	inner  Evaluator
	limits config.RiskLimits
}

// NewOverseer wraps the evaluator. A MaxDailyLossPct of zero disables
// the breaker and the overseer passes decisions through unchanged.
func NewOverseer(inner Evaluator, limits config.RiskLimits) *Overseer {
	return &Overseer{inner: inner, limits: limits}
}

// Evaluate applies the breaker before delegating. Still pure over the
// snapshot: the day's realized loss is part of the snapshot itself.
func (o *Overseer) Evaluate(sig types.Signal, bar types.Bar, snap portfolio.Snapshot) types.RiskDecision {
	if o.limits.MaxDailyLossPct > 0 && snap.DailyLoss >= o.limits.MaxDailyLossPct*snap.Equity {
		return types.RiskDecision{Approved: false, Reason: types.RejectDailyLossHalt}
	}
	return o.inner.Evaluate(sig, bar, snap)
}
