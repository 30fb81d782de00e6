package indicators

import (
	"errors"

	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// SMA calculates the Simple Moving Average over bar closes.
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator.
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

// GetName returns the indicator name.
func (s *SMA) GetName() string {
	return "sma"
}

// GetRequiredPeriods returns the minimum window length.
func (s *SMA) GetRequiredPeriods() int {
	return s.period
}

// Calculate computes the SMA for the window's final bar.
func (s *SMA) Calculate(bars []types.Bar) (float64, error) {
	if len(bars) < s.period {
		return 0, errors.New("insufficient data for SMA calculation")
	}

	sum := 0.0
	for i := len(bars) - s.period; i < len(bars); i++ {
		sum += bars[i].Close
	}
	return sum / float64(s.period), nil
}
