package client

import (
	"errors"
	"fmt"

	"github.com/muellr/sodatap/internal/protocol"
)

// Error types for unit communication

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeValidation indicates a local input validation failure; these
	// never touch the transport.
	ErrTypeValidation ErrorType = iota
	// ErrTypeAuth indicates the unit rejected the token (wrong PIN), or a
	// pairing response carried no usable credentials.
	ErrTypeAuth
	// ErrTypeConnection indicates the link could not be established or a
	// pairing response carried no device id.
	ErrTypeConnection
	// ErrTypeProtocol indicates malformed wire data (bad header, chunk id
	// mismatch, unparseable JSON). Fatal to the current transaction.
	ErrTypeProtocol
	// ErrTypeTimeout indicates the read-poll budget was exhausted before
	// the full response arrived.
	ErrTypeTimeout
	// ErrTypeUnknown indicates an unexpected error
	ErrTypeUnknown
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeConnection:
		return "Connection Error"
	case ErrTypeProtocol:
		return "Protocol Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// UnitError represents an error that occurred while talking to the unit
type UnitError struct {
	Type      ErrorType // Category of error
	Message   string    // Human-readable error message
	Err       error     // Underlying error (if any)
	Retryable bool      // Whether the error is retryable
}

// Error implements the error interface
func (e *UnitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *UnitError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a validation error
func NewValidationError(message string) *UnitError {
	return &UnitError{
		Type:      ErrTypeValidation,
		Message:   message,
		Retryable: false,
	}
}

// NewAuthError creates an authentication error
func NewAuthError(message string) *UnitError {
	return &UnitError{
		Type:      ErrTypeAuth,
		Message:   message,
		Retryable: false,
	}
}

// NewConnectionError creates a connection error
func NewConnectionError(message string, err error) *UnitError {
	return &UnitError{
		Type:      ErrTypeConnection,
		Message:   message,
		Err:       err,
		Retryable: true,
	}
}

// classifyTransactionError maps protocol engine failures onto the client
// error taxonomy. Timeouts are retryable; malformed wire data is not.
func classifyTransactionError(err error) *UnitError {
	var incomplete *protocol.IncompleteResponseError
	if errors.As(err, &incomplete) {
		return &UnitError{
			Type:      ErrTypeTimeout,
			Message:   incomplete.Error(),
			Err:       err,
			Retryable: true,
		}
	}

	if errors.Is(err, protocol.ErrInvalidHeader) ||
		errors.Is(err, protocol.ErrChunkIDMismatch) ||
		errors.Is(err, protocol.ErrEmptyChunks) ||
		errors.Is(err, protocol.ErrMalformedJSON) {
		return &UnitError{
			Type:      ErrTypeProtocol,
			Message:   "malformed response from unit",
			Err:       err,
			Retryable: false,
		}
	}

	return &UnitError{
		Type:      ErrTypeConnection,
		Message:   "transaction failed",
		Err:       err,
		Retryable: true,
	}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ue *UnitError
	return errors.As(err, &ue) && ue.Type == ErrTypeValidation
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	var ue *UnitError
	return errors.As(err, &ue) && ue.Type == ErrTypeAuth
}

// IsConnectionError checks if an error is a connection error
func IsConnectionError(err error) bool {
	var ue *UnitError
	return errors.As(err, &ue) && ue.Type == ErrTypeConnection
}

// IsProtocolError checks if an error is a protocol (malformed wire data) error
func IsProtocolError(err error) bool {
	var ue *UnitError
	return errors.As(err, &ue) && ue.Type == ErrTypeProtocol
}

// IsTimeout checks if an error is a response timeout
func IsTimeout(err error) bool {
	var ue *UnitError
	return errors.As(err, &ue) && ue.Type == ErrTypeTimeout
}

// IsRetryable checks if an error should be retried by the caller. The
// client itself never retries; reconnect and backoff policy belongs to the
// coordinator driving it.
func IsRetryable(err error) bool {
	var ue *UnitError
	if errors.As(err, &ue) {
		return ue.Retryable
	}
	return false
}
