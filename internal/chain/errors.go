package chain

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
)

func NewChainError(errType ErrorType, message string, cause error) *ChainError {
	return &ChainError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

func NewNetworkError(message string, cause error) *ChainError {
	return NewChainError(ErrNetworkConnection, message, cause)
}

func NewInvalidAddressError(address string) *ChainError {
	return NewChainError(ErrInvalidAddress, fmt.Sprintf("invalid address: %s", address), nil)
}

func NewInsufficientFundsError(required, available sdkmath.Int, denom string) *ChainError {
	return NewChainError(ErrInsufficientFunds,
		fmt.Sprintf("insufficient %s: required %s, available %s", denom, required.String(), available.String()), nil)
}

func NewInvalidAmountError(reason string) *ChainError {
	return NewChainError(ErrInvalidAmount, fmt.Sprintf("invalid amount: %s", reason), nil)
}

func NewTimeoutError(operation string, timeout time.Duration) *ChainError {
	return NewChainError(ErrTimeout,
		fmt.Sprintf("operation %s timed out after %v", operation, timeout), nil)
}

func NewNodeUnavailableError(lcdURL string, cause error) *ChainError {
	return NewChainError(ErrNodeUnavailable,
		fmt.Sprintf("node unavailable: %s", lcdURL), cause)
}

func NewRateLimitedError(retryAfter time.Duration) *ChainError {
	return NewChainError(ErrRateLimited,
		fmt.Sprintf("rate limited, retry after %v", retryAfter), nil)
}

func NewTransactionFailedError(txHash string, reason string) *ChainError {
	return NewChainError(ErrTransactionFailed,
		fmt.Sprintf("transaction %s failed: %s", txHash, reason), nil)
}

func NewSimulationError(cause error) *ChainError {
	return NewChainError(ErrSimulationFailed, "transaction simulation failed", cause)
}

// newHTTPError maps an LCD status code onto the error taxonomy.
func newHTTPError(endpoint string, status int, body string) *ChainError {
	var e *ChainError
	switch {
	case status == http.StatusTooManyRequests:
		e = NewRateLimitedError(time.Minute)
	case status >= 500:
		e = NewChainError(ErrNodeUnavailable, fmt.Sprintf("%s returned %d", endpoint, status), errors.New(body))
	case strings.Contains(strings.ToLower(body), "insufficient"):
		e = NewChainError(ErrInsufficientFunds, "insufficient funds", errors.New(body))
	case strings.Contains(strings.ToLower(body), "decoding bech32") || strings.Contains(strings.ToLower(body), "invalid address"):
		e = NewChainError(ErrInvalidAddress, "invalid address format", errors.New(body))
	default:
		e = NewChainError(ErrTransactionFailed, fmt.Sprintf("%s returned %d", endpoint, status), errors.New(body))
	}
	e.Code = status
	return e
}

func ClassifyError(err error) *ChainError {
	if err == nil {
		return nil
	}

	var chainErr *ChainError
	if errors.As(err, &chainErr) {
		return chainErr
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded"):
		return NewTimeoutError("network request", 30*time.Second)
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host"):
		return NewNetworkError("connection failed", err)
	case strings.Contains(errStr, "invalid address") || strings.Contains(errStr, "decoding bech32"):
		return NewChainError(ErrInvalidAddress, "invalid address format", err)
	case strings.Contains(errStr, "insufficient") || strings.Contains(errStr, "not enough"):
		return NewChainError(ErrInsufficientFunds, "insufficient funds", err)
	case strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "too many requests"):
		return NewRateLimitedError(time.Minute)
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return NewTimeoutError("network operation", 30*time.Second)
		}
		return NewNetworkError("unknown network error", err)
	}
}

func (e *ChainError) IsRetryable() bool {
	switch e.Type {
	case ErrNetworkConnection, ErrNodeUnavailable, ErrTimeout, ErrRateLimited:
		return true
	default:
		return false
	}
}

func (e *ChainError) UserMessage() string {
	switch e.Type {
	case ErrNetworkConnection:
		return "Network connection failed. Please check your internet connection."
	case ErrInvalidAddress:
		return "Invalid LikeCoin address format."
	case ErrInsufficientFunds:
		return "Insufficient funds for this transaction."
	case ErrTransactionFailed:
		return "Transaction failed to process."
	case ErrNodeUnavailable:
		return "LikeCoin chain node is temporarily unavailable."
	case ErrRateLimited:
		return "Too many requests. Please wait a moment and try again."
	case ErrTimeout:
		return "Request timed out. Please try again."
	case ErrInvalidAmount:
		return "The amount is not valid for this transaction."
	case ErrSimulationFailed:
		return "The chain rejected this transaction during fee estimation."
	default:
		return "An unexpected error occurred."
	}
}
