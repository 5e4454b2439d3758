package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Constructor Tests
// ==========================

func TestErrorConstructors_Codes(t *testing.T) {
	tests := []struct {
		name      string
		err       *ConnectorError
		code      ErrorCode
		retryable bool
	}{
		{"config", NewConfigError("skill id missing"), ErrCodeConfig, false},
		{"auth", NewAuthError("bad refresh token", nil), ErrCodeAuth, false},
		{"transport 500", NewTransportError(502, "bad gateway"), ErrCodeTransport, true},
		{"transport 400", NewTransportError(400, "bad request"), ErrCodeTransport, false},
		{"network", NewNetworkError(fmt.Errorf("connection refused")), ErrCodeNetwork, true},
		{"timeout", NewTimeoutError("UserSays", 10*time.Second), ErrCodeTimeout, false},
		{"protocol", NewProtocolError("missing status field"), ErrCodeProtocol, false},
		{"simulation", NewSimulationFailure("sim1", "boom"), ErrCodeSimulationFailure, false},
		{"invocation", NewInvocationFailure("boom"), ErrCodeInvocationFailure, false},
		{"model load", NewModelLoadError("no file, no remote", nil), ErrCodeModelLoad, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.retryable, tt.err.Retryable)
			assert.False(t, tt.err.Timestamp.IsZero())
			assert.Contains(t, tt.err.Error(), string(tt.code))
		})
	}
}

func TestSimulationFailure_VendorMessagePassedThrough(t *testing.T) {
	err := NewSimulationFailure("sim1", "skill endpoint returned 500")
	assert.Equal(t, "skill endpoint returned 500", err.Details)

	noMsg := NewSimulationFailure("sim2", "")
	assert.Equal(t, "no error message reported", noMsg.Details)
}

// ==========================
// Classification Tests
// ==========================

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeTimeout, CodeOf(NewTimeoutError("turn", time.Second)))
	assert.Equal(t, ErrorCode(""), CodeOf(fmt.Errorf("plain error")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}

func TestCodeOf_Wrapped(t *testing.T) {
	inner := NewProtocolError("missing status field")
	wrapped := fmt.Errorf("turn failed: %w", inner)
	assert.Equal(t, ErrCodeProtocol, CodeOf(wrapped))
	assert.True(t, HasCode(wrapped, ErrCodeProtocol))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(NewConfigError("x")))
	assert.True(t, IsFatal(NewAuthError("x", nil)))
	assert.False(t, IsFatal(NewTimeoutError("turn", time.Second)))
	assert.False(t, IsFatal(NewSimulationFailure("sim1", "")))
	assert.False(t, IsFatal(fmt.Errorf("plain error")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewNetworkError(fmt.Errorf("refused"))))
	assert.False(t, IsRetryable(NewTransportError(404, "not found")))
	assert.False(t, IsRetryable(fmt.Errorf("plain error")))
}
