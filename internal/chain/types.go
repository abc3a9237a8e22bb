package chain

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

type Network string

const (
	MainNet Network = "mainnet"
	TestNet Network = "testnet"
)

// Config holds the client settings. Zero values take the network defaults;
// a negative CacheTTL (CacheDisabled) turns the balance cache off.
type Config struct {
	Network        Network
	LCDURL         string
	ChainID        string
	Denom          string
	DisplayDenom   string
	FractionDigits int
	Bech32Prefix   string
	GasPrice       string
	GasAdjustment  float64
	DefaultGas     uint64
	SimulateGas    bool
	Timeout        time.Duration
	RetryCount     int
	RetryDelay     time.Duration
	CacheTTL       time.Duration
}

// DenomInfo describes how base units map onto the display denomination.
type DenomInfo struct {
	Denom          string
	DisplayDenom   string
	FractionDigits int
}

type AccountInfo struct {
	Address       string
	AccountNumber uint64
	Sequence      uint64
}

type DelegationResponse struct {
	DelegatorAddress string
	ValidatorAddress string
	Shares           string
	Balance          sdkmath.Int
}

type ValidatorResponse struct {
	OperatorAddress string
	Moniker         string
	Website         string
	Jailed          bool
	Status          string
	Tokens          sdkmath.Int
	CommissionRate  string
}

type TxType string

const (
	TxTypeStakingUnbond   TxType = "staking/unbond"
	TxTypeStakingDelegate TxType = "staking/delegate"
)

type StakingTxRequest struct {
	Type      TxType
	Delegator string
	Validator string
	Amount    sdkmath.Int
	PubKey    []byte
	Memo      string
}

// UnsignedTx is a fully assembled transaction waiting for a SIGN_MODE_DIRECT signature.
type UnsignedTx struct {
	Type          TxType
	Delegator     string
	Validator     string
	Amount        sdkmath.Int
	PubKey        []byte
	TxBytes       []byte
	BodyBytes     []byte
	AuthInfoBytes []byte
	SignBytes     []byte
	AccountNumber uint64
	Sequence      uint64
	GasLimit      uint64
	Fee           sdkmath.Int
	Memo          string
}

type BroadcastResult struct {
	TxHash string
	Code   uint32
	RawLog string
	Height int64
}

type ErrorType string

const (
	ErrNetworkConnection ErrorType = "network_connection"
	ErrInvalidAddress    ErrorType = "invalid_address"
	ErrInsufficientFunds ErrorType = "insufficient_funds"
	ErrTransactionFailed ErrorType = "transaction_failed"
	ErrNodeUnavailable   ErrorType = "node_unavailable"
	ErrRateLimited       ErrorType = "rate_limited"
	ErrTimeout           ErrorType = "timeout"
	ErrInvalidAmount     ErrorType = "invalid_amount"
	ErrSimulationFailed  ErrorType = "simulation_failed"
)

type ChainError struct {
	Type    ErrorType
	Message string
	Code    int
	Cause   error
}

func (e *ChainError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ChainError) Unwrap() error {
	return e.Cause
}

type NetworkStatus struct {
	Connected   bool
	LCDURL      string
	LastChecked time.Time
	BlockHeight uint64
	ChainID     string
}
