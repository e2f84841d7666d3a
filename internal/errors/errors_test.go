package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestPatternError(t *testing.T) {
	underlying := errors.New("missing closing bracket")
	err := NewPatternError(PatternRegex, "[abc", underlying)

	if err.Mode != PatternRegex {
		t.Errorf("Expected Mode to be PatternRegex, got %v", err.Mode)
	}

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := `invalid regex pattern "[abc": missing closing bracket`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}

	if err.Severity() != SeverityHigh {
		t.Errorf("Expected pattern errors to surface, got %v", err.Severity())
	}
}

func TestPatternErrorIdentifiesMode(t *testing.T) {
	// The user-facing message must name the offending syntax so the user
	// knows which of regex/css/xpath to fix.
	for _, mode := range []PatternMode{PatternRegex, PatternCSS, PatternXPath} {
		err := NewPatternError(mode, "query", errors.New("bad"))
		want := fmt.Sprintf("invalid %s pattern", mode)
		if msg := err.Error(); len(msg) < len(want) || msg[:len(want)] != want {
			t.Errorf("message %q does not identify mode %s", msg, mode)
		}
	}
}

func TestTransientError(t *testing.T) {
	underlying := errors.New("node detached")
	err := NewTransientError("range construction", underlying)

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := "range construction failed transiently: node detached"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}

	if err.Severity() != SeverityMedium {
		t.Errorf("Expected transient errors to be logged only, got %v", err.Severity())
	}
}

func TestConnectivityError(t *testing.T) {
	underlying := errors.New("receiving end does not exist")
	err := NewConnectivityError("content script", underlying)

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	if err.Severity() != SeverityHigh {
		t.Errorf("Expected connectivity errors to surface, got %v", err.Severity())
	}
}

func TestSeverityOf(t *testing.T) {
	if s := SeverityOf(NewPatternError(PatternCSS, "div[", errors.New("bad"))); s != SeverityHigh {
		t.Errorf("Expected SeverityHigh, got %v", s)
	}

	// Wrapped classified errors are still found
	wrapped := fmt.Errorf("search: %w", NewTransientError("scroll", errors.New("stale")))
	if s := SeverityOf(wrapped); s != SeverityMedium {
		t.Errorf("Expected SeverityMedium through wrap chain, got %v", s)
	}

	// Unclassified errors default to medium
	if s := SeverityOf(errors.New("plain")); s != SeverityMedium {
		t.Errorf("Expected unclassified errors to default to medium, got %v", s)
	}
}

func TestIsPatternError(t *testing.T) {
	pe := NewPatternError(PatternXPath, "//a[", errors.New("bad"))
	wrapped := fmt.Errorf("handler: %w", pe)

	got, ok := IsPatternError(wrapped)
	if !ok || got != pe {
		t.Errorf("Expected to find pattern error through wrap chain")
	}

	if _, ok := IsPatternError(errors.New("other")); ok {
		t.Errorf("Expected no pattern error in unrelated chain")
	}
}

func TestTimestamp(t *testing.T) {
	err := NewTransientError("test", errors.New("test"))
	if err.Timestamp.IsZero() {
		t.Errorf("Expected non-zero timestamp")
	}

	now := time.Now()
	if err.Timestamp.After(now) || now.Sub(err.Timestamp) > time.Second {
		t.Errorf("Timestamp seems incorrect: %v", err.Timestamp)
	}
}
