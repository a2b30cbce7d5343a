package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig = "CONFIG"
	ErrSSH    = "SSH"
	ErrKeys   = "KEYS"
	ErrInput  = "INPUT"
	ErrExec   = "EXEC"
)

// Conditions surfaced to the user. They are attached as the Cause of a
// structured Error so callers can match them with errors.Is.
var (
	// ErrConfigNotFound means a required input file (SSH config) is absent.
	ErrConfigNotFound = errors.New("ssh config not found")

	// ErrNoHostsFound means the SSH config parsed but produced no usable hosts.
	ErrNoHostsFound = errors.New("no hosts found")

	// ErrNoKeysAvailable means no identity file could be resolved for a host.
	ErrNoKeysAvailable = errors.New("no keys available")

	// ErrConnectionFailed means every attempt in the connection sequence failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrInvalidSelection means menu input was outside the valid range.
	ErrInvalidSelection = errors.New("invalid selection")
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// It renders as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrSSH code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrSSH,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// ConfigNotFound reports a missing SSH config file.
func ConfigNotFound(path string) *Error {
	return WrapWithCode(ErrConfigNotFound, ErrConfig,
		fmt.Sprintf("SSH config not found at %s", path),
		"Create the file or point paths.ssh_config in the settings file at an existing one.")
}

// NoHostsFound reports an SSH config with no usable Host blocks.
func NoHostsFound(path string) *Error {
	return WrapWithCode(ErrNoHostsFound, ErrConfig,
		fmt.Sprintf("No hosts found in %s", path),
		"Add at least one 'Host <alias>' block without wildcards.")
}

// NoKeysAvailable reports that no identity candidate exists for an alias.
func NoKeysAvailable(alias string, dirs []string) *Error {
	return WrapWithCode(ErrNoKeysAvailable, ErrKeys,
		fmt.Sprintf("No SSH keys available for '%s'", alias),
		fmt.Sprintf("Set IdentityFile for the host, or put a private key in one of: %s",
			strings.Join(dirs, ", ")))
}

// ConnectionFailed reports an exhausted connection sequence.
func ConnectionFailed(alias string, attempts int) *Error {
	return WrapWithCode(ErrConnectionFailed, ErrSSH,
		fmt.Sprintf("Couldn't connect to '%s' after %d attempt(s)", alias, attempts),
		"Check the host is reachable and that one of the keys is authorized on it.")
}

// InvalidSelection reports menu input outside 1..max.
func InvalidSelection(input string, max int) *Error {
	return WrapWithCode(ErrInvalidSelection, ErrInput,
		fmt.Sprintf("'%s' is not a valid choice", input),
		fmt.Sprintf("Enter a number between 1 and %d, or q to quit.", max))
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	// First line: failure symbol + main message
	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	// Include cause if present (why it failed)
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	// Include suggestion if present (how to fix)
	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var smErr *Error
	if errors.As(err, &smErr) {
		return smErr.Code == code
	}
	return false
}

// IsRecoverable reports whether err should return control to the menu
// instead of ending the session.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrNoKeysAvailable) ||
		errors.Is(err, ErrConnectionFailed) ||
		errors.Is(err, ErrInvalidSelection) ||
		errors.Is(err, ErrConfigNotFound)
}
