package reporting

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/backtest"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// TestDefaultOutputDir tests the results directory naming convention
func TestDefaultOutputDir(t *testing.T) {
	assert.Equal(t, filepath.Join("results", "BTCUSDT_1h"), DefaultOutputDir("btcusdt", "1H"))
	assert.Equal(t, filepath.Join("results", "UNKNOWN_unknown"), DefaultOutputDir("", ""))
}

// TestFormatRatio tests the infinite-ratio rendering
func TestFormatRatio(t *testing.T) {
	assert.Equal(t, "∞", formatRatio(math.Inf(1)))
	assert.Equal(t, "1.50", formatRatio(1.5))
}

// TestFiniteOrNil tests that non-finite metrics serialize as null
func TestFiniteOrNil(t *testing.T) {
	assert.Nil(t, finiteOrNil(math.Inf(1)))
	assert.Nil(t, finiteOrNil(math.NaN()))

	v := finiteOrNil(2.5)
	require.NotNil(t, v)
	assert.Equal(t, 2.5, *v)
}

// TestCSVReporter_WriteTradesCSV tests the trade export layout
func TestCSVReporter_WriteTradesCSV(t *testing.T) {
	reporter := NewDefaultCSVReporter()
	path := filepath.Join(t.TempDir(), "trades.csv")

	require.NoError(t, reporter.WriteTradesCSV(sampleResult(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3) // header plus two trades
	assert.Equal(t, "Trade", rows[0][0])
	assert.Equal(t, "Symbol", rows[0][1])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "BTCUSDT", rows[1][1])
}

// TestCSVReporter_WriteEquityCSV tests the equity curve export
func TestCSVReporter_WriteEquityCSV(t *testing.T) {
	reporter := NewDefaultCSVReporter()
	path := filepath.Join(t.TempDir(), "equity.csv")

	require.NoError(t, reporter.WriteEquityCSV(sampleResult(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3) // header plus two points
}

// TestReporter_WriteAll tests that every artifact is written
func TestReporter_WriteAll(t *testing.T) {
	reporter := NewReporter()
	dir := t.TempDir()

	written, err := reporter.WriteAll(sampleResult(), dir)
	require.NoError(t, err)
	require.Len(t, written, 5)

	for _, path := range written {
		info, err := os.Stat(path)
		require.NoError(t, err, "missing artifact %s", path)
		assert.Greater(t, info.Size(), int64(0), "empty artifact %s", path)
	}
}

func sampleResult() *backtest.Result {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return &backtest.Result{
		RunID:        "test-run",
		Symbol:       "BTCUSDT",
		Interval:     "1h",
		StartBalance: 10000.0,
		EndBalance:   10150.0,
		StartTime:    start,
		EndTime:      start.Add(2 * time.Hour),
		BarsTotal:    2,
		Trades: []types.Trade{
			{
				Symbol: "BTCUSDT", Side: types.SideLong,
				EntryPrice: 100.0, ExitPrice: 105.0, Size: 10.0,
				OpenedAt: start, ClosedAt: start.Add(time.Hour),
				PnL: 48.0, Fees: 2.0, ExitReason: types.ExitTakeProfit,
			},
			{
				Symbol: "BTCUSDT", Side: types.SideShort,
				EntryPrice: 105.0, ExitPrice: 103.0, Size: 10.0,
				OpenedAt: start.Add(time.Hour), ClosedAt: start.Add(2 * time.Hour),
				PnL: 18.0, Fees: 2.0, ExitReason: types.ExitSignalReversal,
			},
		},
		EquityCurve: []types.EquityPoint{
			{Time: start.Add(time.Hour), Equity: 10048.0, Exposure: 0.1},
			{Time: start.Add(2 * time.Hour), Equity: 10150.0, Exposure: 0.0},
		},
	}
}
