package data

import (
	"log"
	"time"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/errors"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// Feed produces the ordered, timestamp-unique bar sequence the engine
// replays. It enforces the monotonic-timestamp invariant at the boundary:
// a duplicate or out-of-order bar is rejected with a feed error, logged,
// and never reaches the pipeline.
type Feed struct {
	symbol   string
	lastTime time.Time
	rejected int
}

// NewFeed creates a feed for one symbol.
func NewFeed(symbol string) *Feed {
	return &Feed{symbol: symbol}
}

// Accept validates a bar against the feed invariants. It returns nil
// when the bar may be processed, or a categorized feed error when the
// bar must be skipped.
func (f *Feed) Accept(bar types.Bar) error {
	if bar.Symbol != f.symbol {
		f.rejected++
		return errors.NewFeedError("feed", "bar for wrong symbol "+bar.Symbol).
			WithContext("expected", f.symbol)
	}
	if !f.lastTime.IsZero() && !bar.OpenTime.After(f.lastTime) {
		f.rejected++
		return errors.NewFeedError("feed", "out-of-order or duplicate bar").
			WithContext("bar_time", bar.OpenTime).
			WithContext("last_time", f.lastTime)
	}
	f.lastTime = bar.OpenTime
	return nil
}

// Rejected returns the number of bars the feed has refused.
func (f *Feed) Rejected() int {
	return f.rejected
}

// Replay filters a historical series through the feed invariants,
// logging and dropping any violating bar. The result is safe to hand to
// the backtest engine.
func (f *Feed) Replay(bars []types.Bar) []types.Bar {
	accepted := make([]types.Bar, 0, len(bars))
	for _, bar := range bars {
		if err := f.Accept(bar); err != nil {
			log.Printf("⚠️ Feed rejected bar at %s: %v", bar.OpenTime.Format(time.RFC3339), err)
			continue
		}
		accepted = append(accepted, bar)
	}
	return accepted
}
