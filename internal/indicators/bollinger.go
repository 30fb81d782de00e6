package indicators

import (
	"errors"
	"math"

	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// BollingerBands calculates the Bollinger Bands over bar closes.
type BollingerBands struct {
	period int
	stdDev float64
	sma    *SMA
}

// BollingerValue holds the band values for one bar.
type BollingerValue struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// NewBollingerBands creates Bollinger Bands with the given period and
// standard-deviation multiplier.
func NewBollingerBands(period int, stdDev float64) *BollingerBands {
	return &BollingerBands{period: period, stdDev: stdDev, sma: NewSMA(period)}
}

// GetName returns the indicator name.
func (b *BollingerBands) GetName() string {
	return "bollinger"
}

// GetRequiredPeriods returns the minimum window length.
func (b *BollingerBands) GetRequiredPeriods() int {
	return b.period
}

// Calculate computes the bands for the window's final bar.
func (b *BollingerBands) Calculate(bars []types.Bar) (BollingerValue, error) {
	if len(bars) < b.period {
		return BollingerValue{}, errors.New("insufficient data for Bollinger Bands calculation")
	}

	middle, err := b.sma.Calculate(bars)
	if err != nil {
		return BollingerValue{}, err
	}

	window := bars[len(bars)-b.period:]
	variance := 0.0
	for _, bar := range window {
		diff := bar.Close - middle
		variance += diff * diff
	}
	sd := math.Sqrt(variance / float64(b.period))

	return BollingerValue{
		Upper:  middle + b.stdDev*sd,
		Middle: middle,
		Lower:  middle - b.stdDev*sd,
	}, nil
}

// Score normalizes the close's band position (%B) into [-1,1], mean
// reversion biased: a close at the lower band scores +1 (long), at the
// upper band -1. A degenerate zero-width band scores 0.
func (b *BollingerBands) Score(bars []types.Bar) (float64, error) {
	v, err := b.Calculate(bars)
	if err != nil {
		return 0, err
	}
	width := v.Upper - v.Lower
	if width == 0 {
		return 0, nil
	}
	pctB := (bars[len(bars)-1].Close - v.Lower) / width
	return clamp(1-2*pctB, -1, 1), nil
}
