package indicators

import (
	"fmt"

	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// Scorer is an indicator that can express its reading as a normalized
// score in [-1,1], positive meaning long-biased.
type Scorer interface {
	GetName() string
	GetRequiredPeriods() int
	Score(bars []types.Bar) (float64, error)
}

// Provider is the indicator-side signal source: a pure function of the
// bar window that combines the configured indicators into one normalized
// score plus a per-indicator breakdown.
type Provider struct {
	scorers []Scorer
}

// NewProvider creates a provider over the given indicators.
func NewProvider(scorers ...Scorer) *Provider {
	return &Provider{scorers: scorers}
}

// NewDefaultProvider creates a provider with the standard set: RSI(14),
// MACD(12,26,9), Bollinger(20, 2.0), EMA(50).
func NewDefaultProvider() *Provider {
	return NewProvider(
		NewRSI(14),
		NewDefaultMACD(),
		NewBollingerBands(20, 2.0),
		NewEMA(50),
	)
}

// RequiredPeriods returns the longest warm-up any configured indicator
// needs before it can score a window.
func (p *Provider) RequiredPeriods() int {
	max := 0
	for _, s := range p.scorers {
		if n := s.GetRequiredPeriods(); n > max {
			max = n
		}
	}
	return max
}

// Compute scores the window with every configured indicator and returns
// the equal-weighted composite in [-1,1] plus the per-indicator values.
// Stateless given the window: identical windows yield identical scores.
func (p *Provider) Compute(window []types.Bar) (float64, map[string]float64, error) {
	if len(p.scorers) == 0 {
		return 0, nil, fmt.Errorf("no indicators configured")
	}

	values := make(map[string]float64, len(p.scorers))
	sum := 0.0
	for _, s := range p.scorers {
		score, err := s.Score(window)
		if err != nil {
			return 0, nil, fmt.Errorf("%s: %w", s.GetName(), err)
		}
		values[s.GetName()] = score
		sum += score
	}

	return sum / float64(len(p.scorers)), values, nil
}
