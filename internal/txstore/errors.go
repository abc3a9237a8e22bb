package txstore

import (
	"errors"

	"github.com/shopspring/decimal"

	"rhystmorgan/likeWallet/internal/chain"
)

type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	InsufficientFee
	AmountExceedsMax
	AmountBelowMinimum
	BuildFailure
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case InsufficientFee:
		return "insufficient_fee"
	case AmountExceedsMax:
		return "amount_exceeds_max"
	case AmountBelowMinimum:
		return "amount_below_minimum"
	case BuildFailure:
		return "build_failure"
	default:
		return "unknown"
	}
}

var (
	ErrNotInitialized  = errors.New("transaction store is not initialized")
	ErrBuildInProgress = errors.New("a transaction is already being prepared")
	ErrAbandoned       = errors.New("transaction preparation was abandoned")
	ErrNoTarget        = errors.New("no validator selected")
	ErrNoAmount        = errors.New("no amount entered")
	ErrWrongKind       = errors.New("store prepares a different transaction kind")
)

// Error is a classified flow error. Code is the message catalog key for the
// validation kinds; BuildFailure carries the builder's error as Cause.
type Error struct {
	Kind  ErrorKind
	Code  string
	Cause error
}

func (e *Error) Error() string {
	if e.Kind == BuildFailure && e.Cause != nil {
		return e.Cause.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError builds a validation error with the catalog code for kind,
// e.g. UNSTAKE_NOT_ENOUGH_FEE.
func NewError(kind Kind, errKind ErrorKind) *Error {
	return &Error{Kind: errKind, Code: kind.codePrefix() + codeSuffix(errKind)}
}

func codeSuffix(k ErrorKind) string {
	switch k {
	case InsufficientFee:
		return "_NOT_ENOUGH_FEE"
	case AmountExceedsMax:
		return "_AMOUNT_EXCEED_MAX"
	case AmountBelowMinimum:
		return "_AMOUNT_LESS_THAN_ZERO"
	default:
		return ""
	}
}

// Classify turns any error into a flow error; unknown errors are build
// failures surfaced with their own message.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var flowErr *Error
	if errors.As(err, &flowErr) {
		return flowErr
	}
	return &Error{Kind: BuildFailure, Cause: err}
}

// Result is the outcome of PrepareForSigning.
type Result struct {
	Tx  *chain.UnsignedTx
	Fee decimal.Decimal
	Err *Error
}

func (r Result) OK() bool {
	return r.Err == nil
}
