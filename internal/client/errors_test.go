package client

import (
	"errors"
	"fmt"
	"testing"

	"github.com/muellr/sodatap/internal/protocol"
)

func TestClassifyTransactionError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  ErrorType
		retryable bool
	}{
		{
			name:      "incomplete response is a retryable timeout",
			err:       &protocol.IncompleteResponseError{Got: 1, Expected: 3},
			wantType:  ErrTypeTimeout,
			retryable: true,
		},
		{
			name:      "wrapped incomplete response",
			err:       fmt.Errorf("transaction: %w", &protocol.IncompleteResponseError{Got: 0, Expected: 1}),
			wantType:  ErrTypeTimeout,
			retryable: true,
		},
		{
			name:      "invalid header is a fatal protocol error",
			err:       protocol.ErrInvalidHeader,
			wantType:  ErrTypeProtocol,
			retryable: false,
		},
		{
			name:      "chunk id mismatch is a fatal protocol error",
			err:       fmt.Errorf("chunk 2: %w", protocol.ErrChunkIDMismatch),
			wantType:  ErrTypeProtocol,
			retryable: false,
		},
		{
			name: "unparseable response json is a fatal protocol error",
			err: func() error {
				_, err := protocol.Reassemble([][]byte{{0xFF, 0x00, 1, 10, 0x00, '{', 'x', 0x00, 0xFF}})
				return err
			}(),
			wantType:  ErrTypeProtocol,
			retryable: false,
		},
		{
			name:      "anything else is a retryable connection error",
			err:       errors.New("write failed: broken pipe"),
			wantType:  ErrTypeConnection,
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ue := classifyTransactionError(tt.err)
			if ue.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", ue.Type, tt.wantType)
			}
			if ue.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", ue.Retryable, tt.retryable)
			}
			if !errors.Is(ue, tt.err) && ue.Err == nil {
				t.Error("classified error lost the underlying cause")
			}
		})
	}
}

func TestErrorPredicates(t *testing.T) {
	if !IsValidationError(NewValidationError("bad input")) {
		t.Error("IsValidationError failed on a validation error")
	}
	if !IsAuthError(NewAuthError("wrong PIN")) {
		t.Error("IsAuthError failed on an auth error")
	}
	if !IsConnectionError(NewConnectionError("down", nil)) {
		t.Error("IsConnectionError failed on a connection error")
	}
	if IsAuthError(NewValidationError("bad input")) {
		t.Error("IsAuthError matched a validation error")
	}
	if IsValidationError(errors.New("plain")) {
		t.Error("IsValidationError matched a plain error")
	}

	// Predicates must see through wrapping.
	wrapped := fmt.Errorf("operation: %w", NewAuthError("wrong PIN"))
	if !IsAuthError(wrapped) {
		t.Error("IsAuthError failed on a wrapped auth error")
	}

	if IsRetryable(NewAuthError("wrong PIN")) {
		t.Error("auth errors must not be retryable")
	}
	if !IsRetryable(NewConnectionError("down", nil)) {
		t.Error("connection errors should be retryable")
	}
}

func TestUnitErrorFormatting(t *testing.T) {
	bare := NewAuthError("wrong PIN")
	if bare.Error() != "Authentication Error: wrong PIN" {
		t.Errorf("Error() = %q", bare.Error())
	}

	cause := errors.New("dial tcp: refused")
	withCause := NewConnectionError("failed to connect", cause)
	if withCause.Error() != "Connection Error: failed to connect (caused by: dial tcp: refused)" {
		t.Errorf("Error() = %q", withCause.Error())
	}
	if !errors.Is(withCause, cause) {
		t.Error("Unwrap() must expose the cause")
	}
}
