package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEngineError_Error tests the formatted message with and without a cause
func TestEngineError_Error(t *testing.T) {
	bare := New(CategoryFeed, "feed", "ingest_bar", "out-of-order bar")
	assert.Equal(t, "[FEED:feed] ingest_bar: out-of-order bar", bare.Error())

	wrapped := Wrap(errors.New("connection reset"), CategoryNetwork, "exchange", "get_klines")
	assert.Contains(t, wrapped.Error(), "NETWORK")
	assert.Contains(t, wrapped.Error(), "connection reset")
}

// TestEngineError_Unwrap tests errors.Is through the wrap chain
func TestEngineError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	wrapped := Wrap(cause, CategoryExecution, "executor", "submit")

	assert.ErrorIs(t, wrapped, cause)
}

// TestEngineError_IsFatal tests which categories halt the run
func TestEngineError_IsFatal(t *testing.T) {
	assert.True(t, New(CategoryInvariant, "ledger", "invariant_check", "x").IsFatal())
	assert.True(t, New(CategoryConfig, "config", "load", "x").IsFatal())
	assert.True(t, New(CategoryCredentials, "exchange", "auth", "x").IsFatal())
	assert.False(t, New(CategoryFeed, "feed", "ingest_bar", "x").IsFatal())
	assert.False(t, New(CategoryExecution, "executor", "submit", "x").IsFatal())
	assert.False(t, New(CategoryNetwork, "exchange", "get_klines", "x").IsFatal())
}

// TestEngineError_RecoveryAction tests the category to recovery mapping
func TestEngineError_RecoveryAction(t *testing.T) {
	assert.Equal(t, RecoverySkip, New(CategoryFeed, "feed", "op", "x").RecoveryAction())
	assert.Equal(t, RecoverySkip, New(CategorySourceTimeout, "model", "op", "x").RecoveryAction())
	assert.Equal(t, RecoverySkip, New(CategoryExecution, "executor", "op", "x").RecoveryAction())
	assert.Equal(t, RecoveryRetry, New(CategoryNetwork, "exchange", "op", "x").RecoveryAction())
	assert.Equal(t, RecoveryHalt, New(CategoryInvariant, "ledger", "op", "x").RecoveryAction())
	assert.Equal(t, RecoveryHalt, New(CategoryConfig, "config", "op", "x").RecoveryAction())
}

// TestIsInvariantViolation tests detection through wrapped chains
func TestIsInvariantViolation(t *testing.T) {
	violation := NewInvariantViolation("ledger", "double open")
	assert.True(t, IsInvariantViolation(violation))

	chained := fmt.Errorf("processing bar: %w", violation)
	assert.True(t, IsInvariantViolation(chained))

	assert.False(t, IsInvariantViolation(NewFeedError("feed", "dup")))
	assert.False(t, IsInvariantViolation(errors.New("plain")))
	assert.False(t, IsInvariantViolation(nil))
}

// TestCategoryOf tests category extraction from arbitrary errors
func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryFeed, CategoryOf(NewFeedError("feed", "dup")))
	assert.Equal(t, CategorySourceTimeout, CategoryOf(NewSourceTimeout("model", errors.New("deadline"))))
	assert.Equal(t, CategoryExecution, CategoryOf(NewExecutionError("submit", errors.New("rejected"))))
	assert.Equal(t, Category(""), CategoryOf(errors.New("plain")))
}

// TestWithContext tests attaching reproduction context to an error
func TestWithContext(t *testing.T) {
	err := NewInvariantViolation("ledger", "double open").
		WithContext("symbol", "BTCUSDT").
		WithContext("bar_time", "2024-06-01T00:00:00Z")

	require.NotNil(t, err.Context)
	assert.Equal(t, "BTCUSDT", err.Context["symbol"])
	assert.Len(t, err.Context, 2)
}

// TestWrap_NilError tests that wrapping nil stays nil
func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(nil, CategoryNetwork, "exchange", "op"))
}
