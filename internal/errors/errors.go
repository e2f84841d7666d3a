package errors

import (
	"errors"
	"fmt"
	"time"
)

// Severity classifies how an error is allowed to escape.
type Severity int

const (
	// SeverityLow errors are silently ignored; at most one match's visual
	// presentation is affected.
	SeverityLow Severity = iota
	// SeverityMedium errors are logged but never surfaced to the user.
	SeverityMedium
	// SeverityHigh errors are surfaced to the caller. Only explicit
	// user-triggered actions escalate to this level.
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// PatternMode identifies which query syntax was malformed.
type PatternMode string

const (
	PatternRegex PatternMode = "regex"
	PatternCSS   PatternMode = "css"
	PatternXPath PatternMode = "xpath"
)

// PatternError reports a malformed user query. It is the only error surfaced
// to the end user as a failed search, and its message identifies the
// offending syntax so the user knows which mode to fix.
type PatternError struct {
	Mode       PatternMode
	Pattern    string
	Underlying error
	Timestamp  time.Time
}

// NewPatternError creates a pattern error for the given query syntax.
func NewPatternError(mode PatternMode, pattern string, err error) *PatternError {
	return &PatternError{
		Mode:       mode,
		Pattern:    pattern,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid %s pattern %q: %v", e.Mode, e.Pattern, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *PatternError) Unwrap() error {
	return e.Underlying
}

// Severity returns the escalation level: pattern errors come from an explicit
// user action, so they surface.
func (e *PatternError) Severity() Severity {
	return SeverityHigh
}

// TransientError reports a DOM-transient failure: a range built against a
// detached node, a scroll against a stale element. Always non-fatal.
type TransientError struct {
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewTransientError creates a transient error with operation context.
func NewTransientError(op string, err error) *TransientError {
	return &TransientError{
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *TransientError) Error() string {
	return fmt.Sprintf("%s failed transiently: %v", e.Operation, e.Underlying)
}

// Unwrap returns the underlying error
func (e *TransientError) Unwrap() error {
	return e.Underlying
}

// Severity returns the escalation level: transient errors are logged at most.
func (e *TransientError) Severity() Severity {
	return SeverityMedium
}

// ConnectivityError reports a messaging failure between the controlling UI
// and the engine. Distinct from a zero-results outcome.
type ConnectivityError struct {
	Channel    string
	Underlying error
	Timestamp  time.Time
}

// NewConnectivityError creates a connectivity error for the named channel.
func NewConnectivityError(channel string, err error) *ConnectivityError {
	return &ConnectivityError{
		Channel:    channel,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.Channel, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConnectivityError) Unwrap() error {
	return e.Underlying
}

// Severity returns the escalation level.
func (e *ConnectivityError) Severity() Severity {
	return SeverityHigh
}

// Classified is implemented by errors that carry their own severity.
type Classified interface {
	error
	Severity() Severity
}

// SeverityOf returns the severity of an error, walking the wrap chain.
// Unclassified errors default to medium: logged, never surfaced.
func SeverityOf(err error) Severity {
	var classified Classified
	if errors.As(err, &classified) {
		return classified.Severity()
	}
	return SeverityMedium
}

// IsPatternError reports whether the error chain contains a malformed-query
// error, and returns it.
func IsPatternError(err error) (*PatternError, bool) {
	var pe *PatternError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
