// Package errors provides standardized error handling for the SMAPI connector.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Configuration / credential errors, surfaced before any network call.
	ErrCodeConfig ErrorCode = "CONFIG_ERROR"
	ErrCodeAuth   ErrorCode = "AUTH_ERROR"

	// Per-call transport errors.
	ErrCodeTransport ErrorCode = "TRANSPORT_ERROR"
	ErrCodeNetwork   ErrorCode = "NETWORK_ERROR"
	ErrCodeTimeout   ErrorCode = "TIMEOUT_ERROR"
	ErrCodeProtocol  ErrorCode = "PROTOCOL_ERROR"

	// Remote-reported failures, vendor message passed through when available.
	ErrCodeSimulationFailure ErrorCode = "SIMULATION_FAILURE"
	ErrCodeInvocationFailure ErrorCode = "INVOCATION_FAILURE"

	ErrCodeModelLoad ErrorCode = "MODEL_LOAD_ERROR"
)

// ConnectorError represents a structured connector error.
type ConnectorError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *ConnectorError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ConnectorError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("ConnectorError[%s]: %s", e.Code, e.Message)
}

func (e *ConnectorError) Unwrap() error {
	return e.cause
}

// ==========================
// Error Constructors
// ==========================

// NewConfigError creates a fatal configuration error.
func NewConfigError(details string) *ConnectorError {
	return &ConnectorError{
		Code:      ErrCodeConfig,
		Message:   "Invalid or missing capability",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthError creates a token exchange failure, fatal for the whole session.
func NewAuthError(details string, err error) *ConnectorError {
	return &ConnectorError{
		Code:      ErrCodeAuth,
		Message:   "Authentication against token endpoint failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewTransportError creates a per-call HTTP error (non-2xx response).
func NewTransportError(statusCode int, body string) *ConnectorError {
	return &ConnectorError{
		Code:      ErrCodeTransport,
		Message:   fmt.Sprintf("Remote service returned status %d", statusCode),
		Details:   body,
		Retryable: statusCode >= 500,
		Metadata:  map[string]interface{}{"statusCode": statusCode},
		Timestamp: time.Now().UTC(),
	}
}

// NewNetworkError creates a per-call error for a request that got no response.
func NewNetworkError(err error) *ConnectorError {
	return &ConnectorError{
		Code:      ErrCodeNetwork,
		Message:   "No response from remote service",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewTimeoutError creates a turn-budget exceeded error.
func NewTimeoutError(operation string, budget time.Duration) *ConnectorError {
	return &ConnectorError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("Operation '%s' exceeded timeout of %s", operation, budget),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProtocolError creates an error for a response violating the expected contract.
func NewProtocolError(details string) *ConnectorError {
	return &ConnectorError{
		Code:      ErrCodeProtocol,
		Message:   "Response shape violates expected contract",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSimulationFailure creates an error for an explicitly failed simulation.
// The vendor message is passed through verbatim when available.
func NewSimulationFailure(simulationID, vendorMessage string) *ConnectorError {
	details := vendorMessage
	if details == "" {
		details = "no error message reported"
	}
	return &ConnectorError{
		Code:      ErrCodeSimulationFailure,
		Message:   fmt.Sprintf("Skill simulation %s failed", simulationID),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvocationFailure creates an error for an explicitly failed skill invocation.
func NewInvocationFailure(vendorMessage string) *ConnectorError {
	details := vendorMessage
	if details == "" {
		details = "no error message reported"
	}
	return &ConnectorError{
		Code:      ErrCodeInvocationFailure,
		Message:   "Skill invocation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewModelLoadError creates a fatal import/export error: neither file nor
// remote fetch produced a usable interaction model.
func NewModelLoadError(details string, err error) *ConnectorError {
	return &ConnectorError{
		Code:      ErrCodeModelLoad,
		Message:   "Unable to obtain interaction model",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// Utility Functions
// ==========================

// CodeOf returns the error code of err, or empty when err is not a ConnectorError.
func CodeOf(err error) ErrorCode {
	var ce *ConnectorError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// HasCode reports whether err carries the given error code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// IsFatal reports whether err invalidates the whole connector instance.
// Only configuration and auth failures are unrecoverable; turn-level
// failures leave the session usable.
func IsFatal(err error) bool {
	switch CodeOf(err) {
	case ErrCodeConfig, ErrCodeAuth:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether a caller may reasonably retry the operation.
func IsRetryable(err error) bool {
	var ce *ConnectorError
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}
