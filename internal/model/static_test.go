package model

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// TestStaticPredictor_Predict_Uptrend tests that a strong rise saturates the score at +1
func TestStaticPredictor_Predict_Uptrend(t *testing.T) {
	predictor := NewStaticPredictor(10, 0.05)
	window := closesWindow(100.0, 110.0, 20)

	score, err := predictor.Predict(context.Background(), window)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

// TestStaticPredictor_Predict_Downtrend tests that a strong decline saturates at -1
func TestStaticPredictor_Predict_Downtrend(t *testing.T) {
	predictor := NewStaticPredictor(10, 0.05)
	window := closesWindow(100.0, 90.0, 20)

	score, err := predictor.Predict(context.Background(), window)
	require.NoError(t, err)
	assert.Equal(t, -1.0, score)
}

// TestStaticPredictor_Predict_Flat tests a flat window scoring zero
func TestStaticPredictor_Predict_Flat(t *testing.T) {
	predictor := NewStaticPredictor(10, 0.05)
	window := closesWindow(100.0, 100.0, 20)

	score, err := predictor.Predict(context.Background(), window)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, score, 1e-9)
}

// TestStaticPredictor_Predict_PartialMove tests proportional scoring inside the scale
func TestStaticPredictor_Predict_PartialMove(t *testing.T) {
	predictor := NewStaticPredictor(10, 0.05)

	// the last bar sits 2.5% above the close ten bars earlier
	window := closesWindow(100.0, 100.0, 20)
	window[len(window)-1].Close = 102.5

	score, err := predictor.Predict(context.Background(), window)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, score, 1e-9)
}

// TestStaticPredictor_Predict_InsufficientWindow tests the lookback requirement
func TestStaticPredictor_Predict_InsufficientWindow(t *testing.T) {
	predictor := NewStaticPredictor(10, 0.05)
	window := closesWindow(100.0, 100.0, 5)

	_, err := predictor.Predict(context.Background(), window)
	assert.Error(t, err)
}

// TestStaticPredictor_Predict_CancelledContext tests the deadline check
func TestStaticPredictor_Predict_CancelledContext(t *testing.T) {
	predictor := NewStaticPredictor(10, 0.05)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := predictor.Predict(ctx, closesWindow(100.0, 100.0, 20))
	assert.ErrorIs(t, err, context.Canceled)
}

// closesWindow builds a window whose closes move linearly from first to
// last over the final ten bars.
func closesWindow(first, last float64, n int) []types.Bar {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, n)
	for i := range bars {
		price := first
		if i >= n-11 {
			progress := float64(i-(n-11)) / 10.0
			price = first + (last-first)*progress
		}
		bars[i] = types.Bar{
			Symbol:   "BTCUSDT",
			OpenTime: start.Add(time.Duration(i) * time.Hour),
			Open:     price,
			High:     price,
			Low:      price,
			Close:    price,
			Volume:   10.0,
		}
	}
	return bars
}
