package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCSVProvider_LoadBars tests loading a well-formed CSV file
func TestCSVProvider_LoadBars(t *testing.T) {
	path := writeTestCSV(t, `timestamp,open,high,low,close,volume
2024-06-01 00:00:00,100.0,101.0,99.0,100.5,12.5
2024-06-01 01:00:00,100.5,102.0,100.0,101.5,9.1
`)

	provider := NewCSVProvider()
	bars, err := provider.LoadBars(path, "BTCUSDT")

	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "BTCUSDT", bars[0].Symbol)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), bars[0].OpenTime)
	assert.Equal(t, 100.0, bars[0].Open)
	assert.Equal(t, 101.0, bars[0].High)
	assert.Equal(t, 99.0, bars[0].Low)
	assert.Equal(t, 100.5, bars[0].Close)
	assert.Equal(t, 12.5, bars[0].Volume)
}

// TestCSVProvider_LoadBars_UnixMillis tests the raw exchange-export timestamp format
func TestCSVProvider_LoadBars_UnixMillis(t *testing.T) {
	path := writeTestCSV(t, `timestamp,open,high,low,close,volume
1717200000000,100.0,101.0,99.0,100.5,12.5
`)

	provider := NewCSVProvider()
	bars, err := provider.LoadBars(path, "BTCUSDT")

	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, time.UnixMilli(1717200000000).UTC(), bars[0].OpenTime)
}

// TestCSVProvider_LoadBars_SkipsMalformedRows tests that bad rows are skipped, not fatal
func TestCSVProvider_LoadBars_SkipsMalformedRows(t *testing.T) {
	path := writeTestCSV(t, `timestamp,open,high,low,close,volume
2024-06-01 00:00:00,100.0,101.0,99.0,100.5,12.5
not-a-date,100.0,101.0,99.0,100.5,12.5
2024-06-01 02:00:00,abc,101.0,99.0,100.5,12.5
2024-06-01 03:00:00,100.0,99.0,98.0,100.5,12.5
2024-06-01 04:00:00,-1.0,101.0,99.0,100.5,12.5
2024-06-01 05:00:00,100.5,102.0,100.0,101.5,9.1
`)

	provider := NewCSVProvider()
	bars, err := provider.LoadBars(path, "BTCUSDT")

	require.NoError(t, err)
	// only the first and last rows survive: the middle four have a bad
	// timestamp, a bad price, high below close, and a negative open
	require.Len(t, bars, 2)
	assert.Equal(t, 101.5, bars[1].Close)
}

// TestCSVProvider_LoadBars_MissingFile tests the open error path
func TestCSVProvider_LoadBars_MissingFile(t *testing.T) {
	provider := NewCSVProvider()
	_, err := provider.LoadBars("/nonexistent/file.csv", "BTCUSDT")
	assert.Error(t, err)
}

// TestCSVProvider_ValidateBars tests the integrity checks on a loaded series
func TestCSVProvider_ValidateBars(t *testing.T) {
	provider := NewCSVProvider()

	valid := sequentialBars("BTCUSDT", 3)
	assert.NoError(t, provider.ValidateBars(valid))

	assert.Error(t, provider.ValidateBars(nil))

	badPrice := sequentialBars("BTCUSDT", 2)
	badPrice[1].Close = -5.0
	badPrice[1].Low = -5.0
	assert.Error(t, provider.ValidateBars(badPrice))

	inverted := sequentialBars("BTCUSDT", 2)
	inverted[1].High = 90.0
	assert.Error(t, provider.ValidateBars(inverted))

	stale := sequentialBars("BTCUSDT", 2)
	stale[1].OpenTime = stale[0].OpenTime
	assert.Error(t, provider.ValidateBars(stale))
}

// TestCachedProvider_LoadBars tests that a repeated load is served from the cache
func TestCachedProvider_LoadBars(t *testing.T) {
	path := writeTestCSV(t, `timestamp,open,high,low,close,volume
2024-06-01 00:00:00,100.0,101.0,99.0,100.5,12.5
`)

	provider := NewCachedProvider(NewCSVProvider())

	first, err := provider.LoadBars(path, "BTCUSDT")
	require.NoError(t, err)

	// remove the file: a second load must come from the cache
	require.NoError(t, os.Remove(path))

	second, err := provider.LoadBars(path, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// TestMemoryCache_CopySemantics tests that cached series cannot be mutated by callers
func TestMemoryCache_CopySemantics(t *testing.T) {
	cache := NewMemoryCache()
	bars := sequentialBars("BTCUSDT", 2)
	cache.Set("k", bars)

	got, ok := cache.Get("k")
	require.True(t, ok)
	got[0].Close = -1.0

	again, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, 100.5, again[0].Close)
	assert.Equal(t, 1, cache.Size())

	cache.Clear()
	assert.Equal(t, 0, cache.Size())
}

func writeTestCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
