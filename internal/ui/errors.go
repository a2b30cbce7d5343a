package ui

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/rileyhilliard/sshmenu/internal/errors"
)

// RenderError writes err for the user. Structured errors get the red
// headline with their cause and suggestion muted underneath; recoverable
// ones use the warning color since the menu carries on.
func RenderError(w io.Writer, err error) {
	if err == nil {
		return
	}

	var e *errors.Error
	if !stderrors.As(err, &e) {
		fmt.Fprintf(w, "%s %s\n", style(ColorError).Render(SymbolFail), err.Error())
		return
	}

	headline := style(ColorError)
	symbol := SymbolFail
	if errors.IsRecoverable(err) {
		headline = style(ColorWarning)
		symbol = SymbolWarning
	}

	fmt.Fprintf(w, "%s %s\n", headline.Render(symbol), headline.Render(e.Message))
	if e.Cause != nil && !isSentinel(e.Cause) {
		fmt.Fprintf(w, "  %s\n", style(ColorMuted).Render(strings.TrimSpace(e.Cause.Error())))
	}
	if e.Suggestion != "" {
		fmt.Fprintf(w, "  %s\n", style(ColorMuted).Render(e.Suggestion))
	}
}

// isSentinel reports whether cause is one of the bare condition values,
// whose text only repeats the message.
func isSentinel(cause error) bool {
	for _, s := range []error{
		errors.ErrConfigNotFound,
		errors.ErrNoHostsFound,
		errors.ErrNoKeysAvailable,
		errors.ErrConnectionFailed,
		errors.ErrInvalidSelection,
	} {
		if cause == s {
			return true
		}
	}
	return false
}

// RenderSuccess writes a green check line.
func RenderSuccess(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", style(ColorSuccess).Render(SymbolSuccess), fmt.Sprintf(format, args...))
}

// RenderWarning writes a yellow warning line.
func RenderWarning(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", style(ColorWarning).Render(SymbolWarning), fmt.Sprintf(format, args...))
}
