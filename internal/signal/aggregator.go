package signal

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jai-fire/production-grade-ai-trading-system/pkg/config"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// Aggregator combines the indicator, model and advisory sources into
// exactly one normalized Signal per bar. Model and advisory calls run
// concurrently under a bounded per-source timeout; a failed source never
// blocks the pipeline; it degrades the bar to a flat signal with the
// failure recorded in the breakdown.
type Aggregator struct {
	cfg       config.Aggregation
	indicator IndicatorSource
	model     ModelSource
	advisory  AdvisorySource
}

// NewAggregator creates an aggregator over the three sources.
func NewAggregator(cfg config.Aggregation, indicator IndicatorSource, model ModelSource, advisory AdvisorySource) *Aggregator {
	return &Aggregator{
		cfg:       cfg,
		indicator: indicator,
		model:     model,
		advisory:  advisory,
	}
}

// Aggregate produces the Signal for the bar. The window must end at the
// bar being signaled. Deterministic given deterministic sources.
func (a *Aggregator) Aggregate(ctx context.Context, bar types.Bar, window []types.Bar) types.Signal {
	sig := types.Signal{
		BarTime:   bar.OpenTime,
		Symbol:    bar.Symbol,
		Direction: types.DirectionFlat,
		Sources:   make(map[string]types.SourceScore, 3),
	}

	// Indicators are a pure local computation; model and advisory are
	// remote and fan out concurrently, each under its own deadline.
	indicatorScore, indicatorValues, indicatorErr := a.indicator.Compute(window)

	var (
		modelScore  float64
		modelErr    error
		advice      Advice
		advisoryErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		mctx, cancel := context.WithTimeout(gctx, a.cfg.SourceTimeout)
		defer cancel()
		modelScore, modelErr = a.model.Predict(mctx, window)
		return nil
	})
	g.Go(func() error {
		actx, cancel := context.WithTimeout(gctx, a.cfg.SourceTimeout)
		defer cancel()
		advice, advisoryErr = a.advisory.Advise(actx, AdvisoryContext{
			Symbol:     bar.Symbol,
			BarTime:    bar.OpenTime,
			Close:      bar.Close,
			Indicators: indicatorValues,
		})
		return nil
	})
	_ = g.Wait() // goroutines record their own errors, never fail the group

	sig.Sources[SourceIndicator] = sourceScore(indicatorScore, indicatorErr)
	sig.Sources[SourceModel] = sourceScore(modelScore, modelErr)
	sig.Sources[SourceAdvisory] = sourceScore(advice.Confidence, advisoryErr)
	for name, v := range indicatorValues {
		sig.Sources[SourceIndicator+"."+name] = types.SourceScore{Score: v}
	}

	// A failed source degrades the whole bar to flat rather than letting
	// a single surviving source trade at full size.
	if indicatorErr != nil || modelErr != nil || advisoryErr != nil {
		return sig
	}

	totalWeight := a.cfg.IndicatorWeight + a.cfg.ModelWeight + a.cfg.AdvisoryWeight
	strength := (a.cfg.IndicatorWeight*indicatorScore +
		a.cfg.ModelWeight*modelScore +
		a.cfg.AdvisoryWeight*advice.Confidence) / totalWeight

	// Model/advisory sign disagreement shrinks the aggregate toward zero
	// instead of picking a winner.
	if modelScore*advice.Confidence < 0 {
		strength *= a.cfg.ConflictPenalty
	}

	sig.Strength = strength
	switch {
	case strength >= a.cfg.LongThreshold:
		sig.Direction = types.DirectionLong
	case strength <= a.cfg.ShortThreshold:
		sig.Direction = types.DirectionShort
	}

	return sig
}

func sourceScore(score float64, err error) types.SourceScore {
	if err != nil {
		return types.SourceScore{Err: err.Error()}
	}
	return types.SourceScore{Score: score}
}
