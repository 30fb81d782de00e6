package errors

import (
	"errors"
	"fmt"
)

// Category classifies engine failures by how the pipeline must react to
// them. Feed and source-timeout errors are recovered locally; execution
// errors discard the decision but leave state intact; invariant
// violations indicate ledger corruption and halt the run.
type Category string

const (
	CategoryFeed          Category = "FEED"
	CategorySourceTimeout Category = "SOURCE_TIMEOUT"
	CategoryExecution     Category = "EXECUTION"
	CategoryInvariant     Category = "INVARIANT"
	CategoryNetwork       Category = "NETWORK"
	CategoryConfig        Category = "CONFIG"
	CategoryCredentials   Category = "CREDENTIALS"
)

// Recovery is the action the supervising loop should take for an error.
type Recovery string

const (
	RecoverySkip  Recovery = "SKIP"  // skip the bar, continue the run
	RecoveryRetry Recovery = "RETRY" // transient, may be retried at the boundary
	RecoveryHalt  Recovery = "HALT"  // stop the run, surface to the caller
)

// EngineError is a categorized error with enough context (bar time,
// symbol, component) to reproduce the failing bar.
type EngineError struct {
	Category   Category
	Component  string
	Op         string
	Message    string
	Underlying error
	Context    map[string]interface{}
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Op, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Is / errors.As.
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// IsFatal reports whether the error must halt the run.
func (e *EngineError) IsFatal() bool {
	return e.Category == CategoryInvariant || e.Category == CategoryConfig || e.Category == CategoryCredentials
}

// RecoveryAction maps the category to the supervisor's reaction.
func (e *EngineError) RecoveryAction() Recovery {
	switch e.Category {
	case CategoryFeed, CategorySourceTimeout:
		return RecoverySkip
	case CategoryNetwork:
		return RecoveryRetry
	case CategoryExecution:
		// The frozen decision is discarded, never re-submitted.
		return RecoverySkip
	default:
		return RecoveryHalt
	}
}

// WithContext attaches a key/value pair to the error and returns it.
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a categorized error without an underlying cause.
func New(category Category, component, op, message string) *EngineError {
	return &EngineError{
		Category:  category,
		Component: component,
		Op:        op,
		Message:   message,
	}
}

// Wrap attaches category and component context to an existing error.
// Returns nil when err is nil.
func Wrap(err error, category Category, component, op string) *EngineError {
	if err == nil {
		return nil
	}
	return &EngineError{
		Category:   category,
		Component:  component,
		Op:         op,
		Message:    "operation failed",
		Underlying: err,
	}
}

// NewFeedError reports a rejected bar (out of order, duplicate, or
// malformed). The bar is skipped; the run continues.
func NewFeedError(component, message string) *EngineError {
	return New(CategoryFeed, component, "ingest_bar", message)
}

// NewSourceTimeout reports a model/advisory source that failed or timed
// out for one bar. The aggregator degrades to a flat-biased signal.
func NewSourceTimeout(source string, err error) *EngineError {
	return Wrap(err, CategorySourceTimeout, source, "fetch_score")
}

// NewExecutionError reports a failed fill or order submission. Portfolio
// state is unchanged and the decision is discarded.
func NewExecutionError(op string, err error) *EngineError {
	return Wrap(err, CategoryExecution, "executor", op)
}

// NewInvariantViolation reports ledger corruption. Always fatal.
func NewInvariantViolation(component, message string) *EngineError {
	return New(CategoryInvariant, component, "invariant_check", message)
}

// IsInvariantViolation reports whether err (or anything it wraps) is a
// fatal invariant violation.
func IsInvariantViolation(err error) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Category == CategoryInvariant
	}
	return false
}

// CategoryOf extracts the category from an error chain, or empty string
// for uncategorized errors.
func CategoryOf(err error) Category {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Category
	}
	return ""
}
