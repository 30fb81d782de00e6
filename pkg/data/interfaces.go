package data

import (
	"time"

	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// Provider loads historical bars from a source (CSV file, exchange REST).
type Provider interface {
	// LoadBars loads historical bars for a symbol from the given source.
	LoadBars(source, symbol string) ([]types.Bar, error)

	// ValidateBars validates the integrity of loaded bars.
	ValidateBars(bars []types.Bar) error

	// GetName returns the name of the provider.
	GetName() string
}

// Cache stores loaded bar series keyed by source.
type Cache interface {
	Get(key string) ([]types.Bar, bool)
	Set(key string, bars []types.Bar)
	Clear()
	Size() int
}

// Filter narrows a bar series by time.
type Filter interface {
	// ByPeriod keeps the trailing period of the series.
	ByPeriod(bars []types.Bar, period time.Duration) []types.Bar

	// ByDateRange keeps bars with open time in [start, end].
	ByDateRange(bars []types.Bar, start, end time.Time) []types.Bar
}

// CSVColumnMapping defines the column layout of a bar CSV file.
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
}

// DefaultCSVFormat matches the exchange download scripts' output:
// timestamp,open,high,low,close,volume with a second-resolution datetime.
var DefaultCSVFormat = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   "2006-01-02 15:04:05",
}
