package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Connected
	SymbolFail     = "✗" // Failed
	SymbolPending  = "○" // Attempt that didn't work
	SymbolProgress = "◐" // Attempt in progress
	SymbolWarning  = "!" // Recoverable problem
	SymbolKey      = "⚷" // Identity file
)
