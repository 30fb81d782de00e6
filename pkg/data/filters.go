package data

import (
	"strconv"
	"strings"
	"time"

	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// DefaultFilter implements Filter for common narrowing operations.
type DefaultFilter struct{}

// NewDefaultFilter creates a new default filter.
func NewDefaultFilter() *DefaultFilter {
	return &DefaultFilter{}
}

// ByPeriod keeps the trailing period of the series, anchored at the
// latest bar.
func (f *DefaultFilter) ByPeriod(bars []types.Bar, period time.Duration) []types.Bar {
	if period <= 0 || len(bars) == 0 {
		return bars
	}

	latest := bars[len(bars)-1].OpenTime
	cutoff := latest.Add(-period)

	startIdx := 0
	for i, bar := range bars {
		if !bar.OpenTime.Before(cutoff) {
			startIdx = i
			break
		}
	}

	return bars[startIdx:]
}

// ParseTrailingPeriod parses a trailing period like "7d", "30d" or
// "12h" into a duration. Returns false for anything else.
func ParseTrailingPeriod(raw string) (time.Duration, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if len(raw) < 2 {
		return 0, false
	}

	unit := raw[len(raw)-1]
	value, err := strconv.Atoi(raw[:len(raw)-1])
	if err != nil || value <= 0 {
		return 0, false
	}

	switch unit {
	case 'd':
		return time.Duration(value) * 24 * time.Hour, true
	case 'h':
		return time.Duration(value) * time.Hour, true
	default:
		return 0, false
	}
}

// ByDateRange keeps bars with open time in [start, end].
func (f *DefaultFilter) ByDateRange(bars []types.Bar, start, end time.Time) []types.Bar {
	if len(bars) == 0 {
		return bars
	}

	var filtered []types.Bar
	for _, bar := range bars {
		if !bar.OpenTime.Before(start) && !bar.OpenTime.After(end) {
			filtered = append(filtered, bar)
		}
	}
	return filtered
}
