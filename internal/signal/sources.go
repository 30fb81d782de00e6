package signal

import (
	"context"
	"time"

	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// Source names used in the signal breakdown and the decision trace.
const (
	SourceIndicator = "indicator"
	SourceModel     = "model"
	SourceAdvisory  = "advisory"
)

// IndicatorSource is the indicator collaborator: a pure function of the
// bar window returning a normalized composite score in [-1,1] and the
// per-indicator breakdown.
type IndicatorSource interface {
	Compute(window []types.Bar) (float64, map[string]float64, error)
}

// ModelSource is the prediction collaborator: given a feature window it
// returns a direction forecast in [-1,1]. It may fail or time out; the
// context carries the per-source deadline.
type ModelSource interface {
	Predict(ctx context.Context, window []types.Bar) (float64, error)
}

// Advice is the advisory collaborator's narrow numeric contract. The
// natural-language recommendation is carried for the trace only; the
// engine consumes nothing but Confidence.
type Advice struct {
	Recommendation string
	Confidence     float64 // [-1,1], sign is direction
}

// AdvisoryContext is the input handed to the advisory collaborator for
// one bar.
type AdvisoryContext struct {
	Symbol     string
	BarTime    time.Time
	Close      float64
	Indicators map[string]float64
}

// AdvisorySource is the advisory collaborator. It may fail or time out;
// the context carries the per-source deadline.
type AdvisorySource interface {
	Advise(ctx context.Context, sc AdvisoryContext) (Advice, error)
}
