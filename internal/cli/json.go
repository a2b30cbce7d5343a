package cli

import (
	"encoding/json"
	stderrors "errors"
	"io"

	"github.com/rileyhilliard/sshmenu/internal/errors"
)

// Machine mode flag - when true, outputs JSON and suppresses human-friendly decorations
var machineMode bool

// MachineMode returns true if machine-readable output is enabled
func MachineMode() bool {
	return machineMode
}

// JSONEnvelope wraps command output in a consistent structure for machine parsing.
// All --json output should use this envelope.
type JSONEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *JSONError  `json:"error,omitempty"`
}

// JSONError provides structured error information for machine parsing.
type JSONError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Error codes for machine-readable output.
const (
	ErrCodeConfigNotFound   = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    = "CONFIG_INVALID"
	ErrCodeNoHosts          = "NO_HOSTS"
	ErrCodeHostNotFound     = "HOST_NOT_FOUND"
	ErrCodeNoKeys           = "NO_KEYS"
	ErrCodeConnectionFailed = "CONNECTION_FAILED"
	ErrCodeInvalidSelection = "INVALID_SELECTION"
	ErrCodeSSHNotRunnable   = "SSH_NOT_RUNNABLE"
	ErrCodeUnknown          = "UNKNOWN"
)

// WriteJSONSuccess writes a successful response with data to the writer.
func WriteJSONSuccess(w io.Writer, data interface{}) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: true, Data: data})
}

// WriteJSONFromError converts a Go error to a JSON error response.
func WriteJSONFromError(w io.Writer, err error) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: false, Error: ErrorToJSON(err)})
}

// writeJSONEnvelope writes the envelope with consistent formatting.
func writeJSONEnvelope(w io.Writer, env JSONEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ErrorToJSON converts a Go error to a JSONError with appropriate code mapping.
func ErrorToJSON(err error) *JSONError {
	if err == nil {
		return nil
	}

	var smErr *errors.Error
	if stderrors.As(err, &smErr) {
		return &JSONError{
			Code:       mapErrorCode(err, smErr.Code),
			Message:    smErr.Message,
			Suggestion: smErr.Suggestion,
		}
	}

	return &JSONError{
		Code:    ErrCodeUnknown,
		Message: err.Error(),
	}
}

// mapErrorCode maps conditions first, then internal codes, to
// machine-readable codes.
func mapErrorCode(err error, internalCode string) string {
	switch {
	case stderrors.Is(err, errors.ErrConfigNotFound):
		return ErrCodeConfigNotFound
	case stderrors.Is(err, errors.ErrNoHostsFound):
		return ErrCodeNoHosts
	case stderrors.Is(err, errors.ErrNoKeysAvailable):
		return ErrCodeNoKeys
	case stderrors.Is(err, errors.ErrConnectionFailed):
		return ErrCodeConnectionFailed
	case stderrors.Is(err, errors.ErrInvalidSelection):
		return ErrCodeInvalidSelection
	case stderrors.Is(err, errHostNotFound):
		return ErrCodeHostNotFound
	}

	switch internalCode {
	case errors.ErrConfig:
		return ErrCodeConfigInvalid
	case errors.ErrExec:
		return ErrCodeSSHNotRunnable
	}
	return ErrCodeUnknown
}
