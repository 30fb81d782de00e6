package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/errors"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// TestFeed_Accept_InOrder tests that strictly increasing bars pass
func TestFeed_Accept_InOrder(t *testing.T) {
	feed := NewFeed("BTCUSDT")
	bars := sequentialBars("BTCUSDT", 3)

	for _, bar := range bars {
		assert.NoError(t, feed.Accept(bar))
	}
	assert.Equal(t, 0, feed.Rejected())
}

// TestFeed_Accept_Duplicate tests that a repeated timestamp is rejected
func TestFeed_Accept_Duplicate(t *testing.T) {
	feed := NewFeed("BTCUSDT")
	bars := sequentialBars("BTCUSDT", 2)

	require.NoError(t, feed.Accept(bars[0]))
	err := feed.Accept(bars[0])

	require.Error(t, err)
	assert.Equal(t, errors.CategoryFeed, errors.CategoryOf(err))
	assert.Equal(t, 1, feed.Rejected())
}

// TestFeed_Accept_OutOfOrder tests that an older bar is rejected
func TestFeed_Accept_OutOfOrder(t *testing.T) {
	feed := NewFeed("BTCUSDT")
	bars := sequentialBars("BTCUSDT", 2)

	require.NoError(t, feed.Accept(bars[1]))
	err := feed.Accept(bars[0])

	require.Error(t, err)
	assert.Equal(t, 1, feed.Rejected())
}

// TestFeed_Accept_WrongSymbol tests that bars for another symbol are rejected
func TestFeed_Accept_WrongSymbol(t *testing.T) {
	feed := NewFeed("BTCUSDT")
	bar := sequentialBars("ETHUSDT", 1)[0]

	err := feed.Accept(bar)

	require.Error(t, err)
	assert.Equal(t, errors.CategoryFeed, errors.CategoryOf(err))
}

// TestFeed_Replay tests that violating bars are dropped and the rest kept in order
func TestFeed_Replay(t *testing.T) {
	feed := NewFeed("BTCUSDT")
	bars := sequentialBars("BTCUSDT", 5)
	bars[2].OpenTime = bars[1].OpenTime // duplicate
	bars[3].Symbol = "ETHUSDT"          // wrong symbol

	accepted := feed.Replay(bars)

	assert.Len(t, accepted, 3)
	assert.Equal(t, 2, feed.Rejected())
	for i := 1; i < len(accepted); i++ {
		assert.True(t, accepted[i].OpenTime.After(accepted[i-1].OpenTime))
	}
}

func sequentialBars(symbol string, n int) []types.Bar {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, n)
	for i := range bars {
		bars[i] = types.Bar{
			Symbol:   symbol,
			OpenTime: start.Add(time.Duration(i) * time.Hour),
			Open:     100.0,
			High:     101.0,
			Low:      99.0,
			Close:    100.5,
			Volume:   10.0,
		}
	}
	return bars
}
