package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Build flag for debug mode - can be overridden at build time
// go build -ldflags "-X github.com/domfind/domfind/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// MCPMode tracks if we're running as an MCP stdio server (set by main).
// Debug output is suppressed entirely in MCP mode so stdio stays
// protocol-clean.
var MCPMode = false

var (
	debugMutex  sync.Mutex
	debugOutput io.Writer
)

// SetMCPMode enables MCP mode which suppresses all debug output to stdio.
func SetMCPMode(enabled bool) {
	MCPMode = enabled
}

// SetDebugOutput sets a custom writer for debug output.
// Pass nil to disable debug output entirely.
func SetDebugOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugOutput = w
}

// IsDebugEnabled returns true if debug mode is enabled and we're not in MCP mode.
func IsDebugEnabled() bool {
	if MCPMode {
		return false
	}
	if EnableDebug == "true" {
		return true
	}
	if os.Getenv("DEBUG") == "1" || os.Getenv("DEBUG") == "true" {
		return true
	}
	return false
}

func getDebugWriter() io.Writer {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	return debugOutput
}

// Printf prints debug information only when debug mode is enabled and output
// is configured.
func Printf(format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	w := getDebugWriter()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[DEBUG] "+format, args...)
}

// Log provides structured debug logging with component names.
func Log(component, format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	w := getDebugWriter()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[DEBUG:%s] "+format, append([]interface{}{component}, args...)...)
}

// LogSearch provides debug logging specifically for search operations.
func LogSearch(format string, args ...interface{}) {
	Log("SEARCH", format, args...)
}

// LogOverlay provides debug logging specifically for overlay rendering.
func LogOverlay(format string, args ...interface{}) {
	Log("OVERLAY", format, args...)
}

// LogObserve provides debug logging specifically for the document observer.
func LogObserve(format string, args ...interface{}) {
	Log("OBSERVE", format, args...)
}

// LogMCP provides debug logging specifically for MCP operations.
func LogMCP(format string, args ...interface{}) {
	Log("MCP", format, args...)
}
