package chain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
)

func TestNewChainError(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewChainError(ErrNetworkConnection, "test message", cause)

	if err.Type != ErrNetworkConnection {
		t.Errorf("Expected type %s, got %s", ErrNetworkConnection, err.Type)
	}

	if err.Message != "test message" {
		t.Errorf("Expected message 'test message', got '%s'", err.Message)
	}

	if !errors.Is(err, cause) {
		t.Errorf("Expected error to unwrap to %v", cause)
	}
}

func TestChainErrorError(t *testing.T) {
	err := NewChainError(ErrInvalidAddress, "invalid address", nil)
	if err.Error() != "invalid address" {
		t.Errorf("Expected error message 'invalid address', got '%s'", err.Error())
	}

	err = NewChainError(ErrNetworkConnection, "network failed", errors.New("underlying error"))
	if err.Error() != "network failed: underlying error" {
		t.Errorf("Expected error message 'network failed: underlying error', got '%s'", err.Error())
	}
}

func TestNewInsufficientFundsError(t *testing.T) {
	required := sdkmath.NewInt(1000)
	available := sdkmath.NewInt(500)

	err := NewInsufficientFundsError(required, available, "nanolike")

	if err.Type != ErrInsufficientFunds {
		t.Errorf("Expected type %s, got %s", ErrInsufficientFunds, err.Type)
	}

	for _, want := range []string{"nanolike", "1000", "500"} {
		if !strings.Contains(err.Message, want) {
			t.Errorf("Expected message to contain '%s', got '%s'", want, err.Message)
		}
	}
}

func TestNewTimeoutError(t *testing.T) {
	err := NewTimeoutError("simulate", 30*time.Second)

	if err.Type != ErrTimeout {
		t.Errorf("Expected type %s, got %s", ErrTimeout, err.Type)
	}

	if !strings.Contains(err.Message, "simulate") || !strings.Contains(err.Message, "30s") {
		t.Errorf("Unexpected message '%s'", err.Message)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		input    error
		expected ErrorType
	}{
		{nil, ErrorType("")},
		{errors.New("timeout occurred"), ErrTimeout},
		{errors.New("context deadline exceeded"), ErrTimeout},
		{errors.New("connection refused"), ErrNetworkConnection},
		{errors.New("no such host"), ErrNetworkConnection},
		{errors.New("invalid address format"), ErrInvalidAddress},
		{errors.New("decoding bech32 failed: invalid checksum"), ErrInvalidAddress},
		{errors.New("insufficient funds"), ErrInsufficientFunds},
		{errors.New("not enough balance"), ErrInsufficientFunds},
		{errors.New("rate limit exceeded"), ErrRateLimited},
		{errors.New("too many requests"), ErrRateLimited},
		{errors.New("unknown error"), ErrNetworkConnection},
		{fmt.Errorf("wrapped: %w", NewSimulationError(errors.New("out of gas"))), ErrSimulationFailed},
	}

	for _, test := range tests {
		result := ClassifyError(test.input)

		if test.input == nil {
			if result != nil {
				t.Errorf("Expected nil for nil input, got %v", result)
			}
			continue
		}

		if result.Type != test.expected {
			t.Errorf("For error '%s', expected type %s, got %s", test.input.Error(), test.expected, result.Type)
		}
	}
}

func TestClassifyNetError(t *testing.T) {
	result := ClassifyError(&mockNetError{timeout: true})
	if result.Type != ErrTimeout {
		t.Errorf("Expected timeout error for net.Error with timeout, got %s", result.Type)
	}
}

func TestNewHTTPError(t *testing.T) {
	tests := []struct {
		status   int
		body     string
		expected ErrorType
	}{
		{http.StatusTooManyRequests, "slow down", ErrRateLimited},
		{http.StatusBadGateway, "upstream", ErrNodeUnavailable},
		{http.StatusBadRequest, "decoding bech32 failed", ErrInvalidAddress},
		{http.StatusBadRequest, "insufficient funds: 1nanolike < 10nanolike", ErrInsufficientFunds},
		{http.StatusNotFound, "account not found", ErrTransactionFailed},
	}

	for _, test := range tests {
		err := newHTTPError("accounts", test.status, test.body)
		if err.Type != test.expected {
			t.Errorf("For status %d body '%s', expected %s, got %s", test.status, test.body, test.expected, err.Type)
		}
		if err.Code != test.status {
			t.Errorf("Expected code %d, got %d", test.status, err.Code)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	retryableTypes := []ErrorType{
		ErrNetworkConnection,
		ErrNodeUnavailable,
		ErrTimeout,
		ErrRateLimited,
	}

	nonRetryableTypes := []ErrorType{
		ErrInvalidAddress,
		ErrInsufficientFunds,
		ErrTransactionFailed,
		ErrInvalidAmount,
		ErrSimulationFailed,
	}

	for _, errType := range retryableTypes {
		err := &ChainError{Type: errType}
		if !err.IsRetryable() {
			t.Errorf("Expected error type %s to be retryable", errType)
		}
	}

	for _, errType := range nonRetryableTypes {
		err := &ChainError{Type: errType}
		if err.IsRetryable() {
			t.Errorf("Expected error type %s to not be retryable", errType)
		}
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		errType  ErrorType
		expected string
	}{
		{ErrNetworkConnection, "Network connection failed"},
		{ErrInvalidAddress, "Invalid LikeCoin address format"},
		{ErrInsufficientFunds, "Insufficient funds"},
		{ErrTransactionFailed, "Transaction failed to process"},
		{ErrNodeUnavailable, "temporarily unavailable"},
		{ErrRateLimited, "Too many requests"},
		{ErrTimeout, "Request timed out"},
		{ErrSimulationFailed, "fee estimation"},
		{ErrorType("unknown"), "An unexpected error occurred"},
	}

	for _, test := range tests {
		err := &ChainError{Type: test.errType}
		message := err.UserMessage()

		if !strings.Contains(message, test.expected) {
			t.Errorf("For error type %s, expected message to contain '%s', got '%s'", test.errType, test.expected, message)
		}
	}
}

type mockNetError struct {
	timeout bool
}

func (e *mockNetError) Error() string {
	return "mock network error"
}

func (e *mockNetError) Timeout() bool {
	return e.timeout
}

func (e *mockNetError) Temporary() bool {
	return false
}
