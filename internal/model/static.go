package model

import (
	"context"
	"fmt"

	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// StaticPredictor is a deterministic momentum predictor used when no
// model file is configured, and in tests that need reproducible model
// output. Score: trailing return over the lookback, saturating at the
// configured scale.
type StaticPredictor struct {
	lookback int
	scale    float64 // return magnitude that saturates the score
}

// NewStaticPredictor creates the fallback predictor. A scale of 0.05
// means a ±5% move over the lookback scores ±1.
func NewStaticPredictor(lookback int, scale float64) *StaticPredictor {
	return &StaticPredictor{lookback: lookback, scale: scale}
}

// Predict returns the momentum score for the window.
func (p *StaticPredictor) Predict(ctx context.Context, window []types.Bar) (float64, error) {
	if len(window) < p.lookback+1 {
		return 0, fmt.Errorf("momentum needs %d bars, got %d", p.lookback+1, len(window))
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	last := window[len(window)-1].Close
	base := window[len(window)-1-p.lookback].Close
	if base <= 0 {
		return 0, nil
	}

	score := (last/base - 1) / p.scale
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}
	return score, nil
}
