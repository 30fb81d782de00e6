package indicators

import (
	"errors"
	"math"

	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// RSI calculates the Relative Strength Index over bar closes.
type RSI struct {
	period int
}

// NewRSI creates a new RSI instance with the given period.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

// GetName returns the indicator name.
func (r *RSI) GetName() string {
	return "rsi"
}

// GetRequiredPeriods returns the minimum window length.
func (r *RSI) GetRequiredPeriods() int {
	return r.period + 1
}

// Calculate computes the RSI value for the window's final bar.
func (r *RSI) Calculate(bars []types.Bar) (float64, error) {
	if len(bars) < r.period+1 {
		return 0, errors.New("insufficient data for RSI calculation")
	}

	gains := make([]float64, 0, r.period)
	losses := make([]float64, 0, r.period)
	for i := len(bars) - r.period; i < len(bars); i++ {
		change := bars[i].Close - bars[i-1].Close
		if change > 0 {
			gains = append(gains, change)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, math.Abs(change))
		}
	}

	avgGain := mean(gains)
	avgLoss := mean(losses)

	if avgLoss == 0 {
		return 100, nil
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs)), nil
}

// Score normalizes RSI into [-1,1]: oversold readings map to positive
// (long-biased) scores, overbought to negative.
func (r *RSI) Score(bars []types.Bar) (float64, error) {
	rsi, err := r.Calculate(bars)
	if err != nil {
		return 0, err
	}
	return clamp((50-rsi)/50, -1, 1), nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
