package indicators

import (
	"errors"

	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// EMA calculates the Exponential Moving Average over bar closes. The
// calculation is stateless over the window so identical windows always
// produce identical values.
type EMA struct {
	period int
	alpha  float64
}

// NewEMA creates a new EMA indicator.
func NewEMA(period int) *EMA {
	return &EMA{
		period: period,
		alpha:  2.0 / float64(period+1),
	}
}

// GetName returns the indicator name.
func (e *EMA) GetName() string {
	return "ema"
}

// GetRequiredPeriods returns the minimum window length.
func (e *EMA) GetRequiredPeriods() int {
	return e.period
}

// Calculate computes the EMA for the window's final bar, seeded with the
// SMA of the first period.
func (e *EMA) Calculate(bars []types.Bar) (float64, error) {
	if len(bars) < e.period {
		return 0, errors.New("insufficient data for EMA calculation")
	}

	sum := 0.0
	for i := 0; i < e.period; i++ {
		sum += bars[i].Close
	}
	ema := sum / float64(e.period)

	for i := e.period; i < len(bars); i++ {
		ema = bars[i].Close*e.alpha + ema*(1-e.alpha)
	}

	return ema, nil
}

// Score normalizes the close's distance from the EMA into [-1,1]: price
// above the average is long-biased. A 2% distance saturates the score.
func (e *EMA) Score(bars []types.Bar) (float64, error) {
	ema, err := e.Calculate(bars)
	if err != nil {
		return 0, err
	}
	close := bars[len(bars)-1].Close
	return clamp((close-ema)/ema/0.02, -1, 1), nil
}
