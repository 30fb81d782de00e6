package signal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jai-fire/production-grade-ai-trading-system/pkg/config"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// TestAggregator_Aggregate_WeightedMean tests the equal-weight combination of healthy sources
func TestAggregator_Aggregate_WeightedMean(t *testing.T) {
	agg := NewAggregator(aggConfig(),
		stubIndicator{score: 0.6},
		stubModel{score: 0.9},
		stubAdvisory{advice: Advice{Confidence: 0.3}},
	)

	sig := agg.Aggregate(context.Background(), aggBar(), aggWindow())

	assert.InDelta(t, 0.6, sig.Strength, 1e-9)
	assert.Equal(t, types.DirectionLong, sig.Direction)
	assert.InDelta(t, 0.6, sig.Sources[SourceIndicator].Score, 1e-9)
	assert.InDelta(t, 0.9, sig.Sources[SourceModel].Score, 1e-9)
	assert.InDelta(t, 0.3, sig.Sources[SourceAdvisory].Score, 1e-9)
}

// TestAggregator_Aggregate_CustomWeights tests that per-source weights shift the aggregate
func TestAggregator_Aggregate_CustomWeights(t *testing.T) {
	cfg := aggConfig()
	cfg.IndicatorWeight = 2.0

	agg := NewAggregator(cfg,
		stubIndicator{score: 0.8},
		stubModel{score: 0.4},
		stubAdvisory{advice: Advice{Confidence: 0.0}},
	)

	sig := agg.Aggregate(context.Background(), aggBar(), aggWindow())

	// (2*0.8 + 1*0.4 + 1*0.0) / 4
	assert.InDelta(t, 0.5, sig.Strength, 1e-9)
	assert.Equal(t, types.DirectionLong, sig.Direction)
}

// TestAggregator_Aggregate_ShortDirection tests the short threshold
func TestAggregator_Aggregate_ShortDirection(t *testing.T) {
	agg := NewAggregator(aggConfig(),
		stubIndicator{score: -0.6},
		stubModel{score: -0.6},
		stubAdvisory{advice: Advice{Confidence: -0.6}},
	)

	sig := agg.Aggregate(context.Background(), aggBar(), aggWindow())

	assert.InDelta(t, -0.6, sig.Strength, 1e-9)
	assert.Equal(t, types.DirectionShort, sig.Direction)
}

// TestAggregator_Aggregate_BelowThreshold tests that weak agreement stays flat
func TestAggregator_Aggregate_BelowThreshold(t *testing.T) {
	agg := NewAggregator(aggConfig(),
		stubIndicator{score: 0.1},
		stubModel{score: 0.1},
		stubAdvisory{advice: Advice{Confidence: 0.1}},
	)

	sig := agg.Aggregate(context.Background(), aggBar(), aggWindow())

	assert.InDelta(t, 0.1, sig.Strength, 1e-9)
	assert.Equal(t, types.DirectionFlat, sig.Direction)
}

// TestAggregator_Aggregate_ConflictPenalty tests that model/advisory disagreement shrinks the aggregate
func TestAggregator_Aggregate_ConflictPenalty(t *testing.T) {
	agg := NewAggregator(aggConfig(),
		stubIndicator{score: 0.9},
		stubModel{score: 0.9},
		stubAdvisory{advice: Advice{Confidence: -0.9}},
	)

	sig := agg.Aggregate(context.Background(), aggBar(), aggWindow())

	// raw (0.9+0.9-0.9)/3 = 0.3, halved by the penalty
	assert.InDelta(t, 0.15, sig.Strength, 1e-9)
	assert.Equal(t, types.DirectionFlat, sig.Direction)
}

// TestAggregator_Aggregate_SourceFailure tests that a failed source degrades the bar to flat
func TestAggregator_Aggregate_SourceFailure(t *testing.T) {
	agg := NewAggregator(aggConfig(),
		stubIndicator{score: 0.9},
		stubModel{err: errors.New("inference backend down")},
		stubAdvisory{advice: Advice{Confidence: 0.9}},
	)

	sig := agg.Aggregate(context.Background(), aggBar(), aggWindow())

	assert.Equal(t, types.DirectionFlat, sig.Direction)
	assert.Equal(t, 0.0, sig.Strength)
	assert.NotEmpty(t, sig.Sources[SourceModel].Err)
	// the healthy sources still appear in the breakdown
	assert.InDelta(t, 0.9, sig.Sources[SourceIndicator].Score, 1e-9)
	assert.InDelta(t, 0.9, sig.Sources[SourceAdvisory].Score, 1e-9)
}

// TestAggregator_Aggregate_SourceTimeout tests that a slow source degrades the bar instead of blocking it
func TestAggregator_Aggregate_SourceTimeout(t *testing.T) {
	cfg := aggConfig()
	cfg.SourceTimeout = 20 * time.Millisecond

	agg := NewAggregator(cfg,
		stubIndicator{score: 0.9},
		stubModel{score: 0.9, delay: 500 * time.Millisecond},
		stubAdvisory{advice: Advice{Confidence: 0.9}},
	)

	sig := agg.Aggregate(context.Background(), aggBar(), aggWindow())

	assert.Equal(t, types.DirectionFlat, sig.Direction)
	assert.Equal(t, 0.0, sig.Strength)
	assert.NotEmpty(t, sig.Sources[SourceModel].Err)
}

// TestAggregator_Aggregate_IndicatorBreakdown tests the per-indicator entries in the source map
func TestAggregator_Aggregate_IndicatorBreakdown(t *testing.T) {
	agg := NewAggregator(aggConfig(),
		stubIndicator{score: 0.5, values: map[string]float64{"rsi": 0.5, "ema": -0.2}},
		stubModel{score: 0.5},
		stubAdvisory{advice: Advice{Confidence: 0.5}},
	)

	sig := agg.Aggregate(context.Background(), aggBar(), aggWindow())

	assert.InDelta(t, 0.5, sig.Sources["indicator.rsi"].Score, 1e-9)
	assert.InDelta(t, -0.2, sig.Sources["indicator.ema"].Score, 1e-9)
}

// TestAggregator_Aggregate_Deterministic tests that identical inputs produce identical signals
func TestAggregator_Aggregate_Deterministic(t *testing.T) {
	agg := NewAggregator(aggConfig(),
		stubIndicator{score: 0.4},
		stubModel{score: 0.7},
		stubAdvisory{advice: Advice{Confidence: 0.2}},
	)

	first := agg.Aggregate(context.Background(), aggBar(), aggWindow())
	second := agg.Aggregate(context.Background(), aggBar(), aggWindow())

	require.Equal(t, first.Strength, second.Strength)
	require.Equal(t, first.Direction, second.Direction)
	assert.Equal(t, first.Sources, second.Sources)
}

type stubIndicator struct {
	score  float64
	values map[string]float64
	err    error
}

func (s stubIndicator) Compute(window []types.Bar) (float64, map[string]float64, error) {
	return s.score, s.values, s.err
}

type stubModel struct {
	score float64
	delay time.Duration
	err   error
}

func (s stubModel) Predict(ctx context.Context, window []types.Bar) (float64, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return s.score, s.err
}

type stubAdvisory struct {
	advice Advice
	err    error
}

func (s stubAdvisory) Advise(ctx context.Context, sc AdvisoryContext) (Advice, error) {
	return s.advice, s.err
}

func aggConfig() config.Aggregation {
	return config.Aggregation{
		IndicatorWeight: 1.0,
		ModelWeight:     1.0,
		AdvisoryWeight:  1.0,
		LongThreshold:   0.3,
		ShortThreshold:  -0.3,
		ConflictPenalty: 0.5,
		SourceTimeout:   time.Second,
	}
}

func aggBar() types.Bar {
	return types.Bar{
		Symbol:   "BTCUSDT",
		OpenTime: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Open:     100.0,
		High:     101.0,
		Low:      99.0,
		Close:    100.5,
		Volume:   10.0,
	}
}

func aggWindow() []types.Bar {
	bars := make([]types.Bar, 20)
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = types.Bar{
			Symbol:   "BTCUSDT",
			OpenTime: start.Add(time.Duration(i) * time.Hour),
			Open:     100.0,
			High:     101.0,
			Low:      99.0,
			Close:    100.0,
			Volume:   10.0,
		}
	}
	return bars
}
