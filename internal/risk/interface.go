package risk

import (
	"github.com/jai-fire/production-grade-ai-trading-system/internal/portfolio"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// Evaluator turns a Signal plus a portfolio snapshot into a
// RiskDecision. Implementations must be pure with respect to the
// snapshot: identical inputs always yield identical decisions, which is
// what makes backtests reproducible.
type Evaluator interface {
	Evaluate(sig types.Signal, bar types.Bar, snap portfolio.Snapshot) types.RiskDecision
}
