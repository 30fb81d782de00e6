package indicators

import (
	"errors"

	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// MACD calculates Moving Average Convergence Divergence over bar closes.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// MACDValue holds the three MACD components for one bar.
type MACDValue struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// NewMACD creates a new MACD indicator with the given periods.
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fastPeriod:   fast,
		slowPeriod:   slow,
		signalPeriod: signal,
	}
}

// NewDefaultMACD creates a MACD with the conventional 12/26/9 periods.
func NewDefaultMACD() *MACD {
	return NewMACD(12, 26, 9)
}

// GetName returns the indicator name.
func (m *MACD) GetName() string {
	return "macd"
}

// GetRequiredPeriods returns the minimum window length.
func (m *MACD) GetRequiredPeriods() int {
	return m.slowPeriod + m.signalPeriod
}

// Calculate computes the MACD line, signal line and histogram for the
// window's final bar.
func (m *MACD) Calculate(bars []types.Bar) (MACDValue, error) {
	if len(bars) < m.GetRequiredPeriods() {
		return MACDValue{}, errors.New("insufficient data for MACD calculation")
	}

	fastSeries := emaSeries(bars, m.fastPeriod)
	slowSeries := emaSeries(bars, m.slowPeriod)

	// MACD line series aligned on the slow EMA's valid range
	offset := len(fastSeries) - len(slowSeries)
	macdLine := make([]float64, len(slowSeries))
	for i := range slowSeries {
		macdLine[i] = fastSeries[i+offset] - slowSeries[i]
	}

	if len(macdLine) < m.signalPeriod {
		return MACDValue{}, errors.New("insufficient data for MACD signal line")
	}
	signalLine := emaOverValues(macdLine, m.signalPeriod)

	macd := macdLine[len(macdLine)-1]
	signal := signalLine[len(signalLine)-1]

	return MACDValue{
		MACD:      macd,
		Signal:    signal,
		Histogram: macd - signal,
	}, nil
}

// Score normalizes the histogram into [-1,1] relative to the close: a
// histogram of ±0.5% of price saturates the score.
func (m *MACD) Score(bars []types.Bar) (float64, error) {
	v, err := m.Calculate(bars)
	if err != nil {
		return 0, err
	}
	close := bars[len(bars)-1].Close
	if close == 0 {
		return 0, nil
	}
	return clamp(v.Histogram/(close*0.005), -1, 1), nil
}

// emaSeries returns the EMA series over bar closes, one value per bar
// from index period-1 onward.
func emaSeries(bars []types.Bar, period int) []float64 {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}
	return emaOverValues(closes, period)
}

func emaOverValues(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}
	alpha := 2.0 / float64(period+1)

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	ema := sum / float64(period)

	out := make([]float64, 0, len(values)-period+1)
	out = append(out, ema)
	for i := period; i < len(values); i++ {
		ema = values[i]*alpha + ema*(1-alpha)
		out = append(out, ema)
	}
	return out
}
