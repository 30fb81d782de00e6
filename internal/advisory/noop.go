package advisory

import (
	"context"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/signal"
)

// NoopAdvisor returns a neutral opinion for every bar. Used when no API
// key is configured and in deterministic backtests.
type NoopAdvisor struct{}

// NewNoopAdvisor creates the neutral advisor.
func NewNoopAdvisor() *NoopAdvisor {
	return &NoopAdvisor{}
}

// Advise always returns zero confidence.
func (a *NoopAdvisor) Advise(ctx context.Context, sc signal.AdvisoryContext) (signal.Advice, error) {
	return signal.Advice{Recommendation: "no advisory configured", Confidence: 0}, nil
}
