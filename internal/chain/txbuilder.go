package chain

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"math/big"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	cryptocodec "github.com/cosmos/cosmos-sdk/crypto/codec"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/cosmos/cosmos-sdk/types/tx"
	"github.com/cosmos/cosmos-sdk/types/tx/signing"
	stakingtypes "github.com/cosmos/cosmos-sdk/x/staking/types"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const compressedPubKeyLength = 33

// AccountQuerier is the part of the LCD client the builder needs.
type AccountQuerier interface {
	GetAccount(ctx context.Context, address string) (*AccountInfo, error)
	Simulate(ctx context.Context, txBytes []byte) (uint64, error)
}

type TxBuilder struct {
	chain    AccountQuerier
	config   Config
	cdc      codec.Codec
	gasPrice decimal.Decimal
	logger   *logrus.Logger
}

func NewTxBuilder(chain AccountQuerier, config Config, logger *logrus.Logger) (*TxBuilder, error) {
	config, err := config.WithDefaults()
	if err != nil {
		return nil, err
	}

	gasPrice, err := decimal.NewFromString(config.GasPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid gas price %q: %w", config.GasPrice, err)
	}
	if gasPrice.IsNegative() {
		return nil, fmt.Errorf("gas price must not be negative, got %s", config.GasPrice)
	}

	ir := codectypes.NewInterfaceRegistry()
	cryptocodec.RegisterInterfaces(ir)
	stakingtypes.RegisterInterfaces(ir)

	return &TxBuilder{
		chain:    chain,
		config:   config,
		cdc:      codec.NewProtoCodec(ir),
		gasPrice: gasPrice,
		logger:   logger,
	}, nil
}

func ValidateAccountAddress(address, prefix string) error {
	return validateBech32(address, prefix)
}

func ValidateValidatorAddress(address, prefix string) error {
	return validateBech32(address, prefix+"valoper")
}

func validateBech32(address, hrp string) error {
	prefix, _, err := bech32.DecodeAndConvert(address)
	if err != nil {
		return NewChainError(ErrInvalidAddress, fmt.Sprintf("invalid address: %s", address), err)
	}
	if prefix != hrp {
		return NewChainError(ErrInvalidAddress,
			fmt.Sprintf("invalid address prefix: expected %s, got %s", hrp, prefix), nil)
	}
	return nil
}

// FeeFor returns ceil(gas * gasPrice) in base units.
func (b *TxBuilder) FeeFor(gasLimit uint64) sdkmath.Int {
	fee := decimal.NewFromBigInt(new(big.Int).SetUint64(gasLimit), 0).Mul(b.gasPrice).Ceil()
	return sdkmath.NewIntFromBigInt(fee.BigInt())
}

// BuildStakingTx assembles an unsigned delegate or undelegate transaction and
// prices it, by simulation when enabled.
func (b *TxBuilder) BuildStakingTx(ctx context.Context, req StakingTxRequest) (*UnsignedTx, error) {
	started := time.Now()

	if err := ValidateAccountAddress(req.Delegator, b.config.Bech32Prefix); err != nil {
		return nil, err
	}
	if err := ValidateValidatorAddress(req.Validator, b.config.Bech32Prefix); err != nil {
		return nil, err
	}
	if req.Amount.IsNil() || !req.Amount.IsPositive() {
		return nil, NewInvalidAmountError("must be greater than zero")
	}
	if len(req.PubKey) != compressedPubKeyLength {
		return nil, fmt.Errorf("invalid pubkey length: expected %d bytes, got %d", compressedPubKeyLength, len(req.PubKey))
	}

	msg, err := b.stakingMsg(req)
	if err != nil {
		return nil, err
	}

	msgAny, err := codectypes.NewAnyWithValue(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to create message any: %w", err)
	}

	pubKeyAny, err := codectypes.NewAnyWithValue(&secp256k1.PubKey{Key: req.PubKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create pubkey any: %w", err)
	}

	account, err := b.chain.GetAccount(ctx, req.Delegator)
	if err != nil {
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}

	txBody := &tx.TxBody{
		Messages: []*codectypes.Any{msgAny},
		Memo:     req.Memo,
	}

	gasLimit := b.config.DefaultGas
	if b.config.SimulateGas {
		simAuthInfo := b.authInfo(pubKeyAny, account.Sequence, gasLimit, sdkmath.ZeroInt())
		simBytes, err := b.cdc.Marshal(&tx.Tx{Body: txBody, AuthInfo: simAuthInfo, Signatures: [][]byte{{}}})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal simulation tx: %w", err)
		}

		gasUsed, err := b.chain.Simulate(ctx, simBytes)
		if err != nil {
			return nil, err
		}
		gasLimit = uint64(math.Ceil(float64(gasUsed) * b.config.GasAdjustment))
	}

	fee := b.FeeFor(gasLimit)
	authInfo := b.authInfo(pubKeyAny, account.Sequence, gasLimit, fee)

	bodyBytes, err := b.cdc.Marshal(txBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tx body: %w", err)
	}

	authInfoBytes, err := b.cdc.Marshal(authInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal auth info: %w", err)
	}

	signDoc := &tx.SignDoc{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		ChainId:       b.config.ChainID,
		AccountNumber: account.AccountNumber,
	}

	signBytes, err := signDoc.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sign doc: %w", err)
	}

	txBytes, err := b.cdc.Marshal(&tx.Tx{
		Body:       txBody,
		AuthInfo:   authInfo,
		Signatures: [][]byte{{}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tx: %w", err)
	}

	b.logger.WithFields(logrus.Fields{
		"type":      req.Type,
		"validator": req.Validator,
		"amount":    req.Amount.String(),
		"gas":       gasLimit,
		"fee":       fee.String(),
		"elapsed":   time.Since(started),
	}).Debug("Built unsigned staking tx")

	return &UnsignedTx{
		Type:          req.Type,
		Delegator:     req.Delegator,
		Validator:     req.Validator,
		Amount:        req.Amount,
		PubKey:        req.PubKey,
		TxBytes:       txBytes,
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		SignBytes:     signBytes,
		AccountNumber: account.AccountNumber,
		Sequence:      account.Sequence,
		GasLimit:      gasLimit,
		Fee:           fee,
		Memo:          req.Memo,
	}, nil
}

func (b *TxBuilder) stakingMsg(req StakingTxRequest) (sdk.Msg, error) {
	amount := sdk.NewCoin(b.config.Denom, req.Amount)

	switch req.Type {
	case TxTypeStakingUnbond:
		return &stakingtypes.MsgUndelegate{
			DelegatorAddress: req.Delegator,
			ValidatorAddress: req.Validator,
			Amount:           amount,
		}, nil
	case TxTypeStakingDelegate:
		return &stakingtypes.MsgDelegate{
			DelegatorAddress: req.Delegator,
			ValidatorAddress: req.Validator,
			Amount:           amount,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported tx type: %s", req.Type)
	}
}

func (b *TxBuilder) authInfo(pubKeyAny *codectypes.Any, sequence, gasLimit uint64, fee sdkmath.Int) *tx.AuthInfo {
	feeCoins := sdk.NewCoins()
	if fee.IsPositive() {
		feeCoins = sdk.NewCoins(sdk.NewCoin(b.config.Denom, fee))
	}

	return &tx.AuthInfo{
		SignerInfos: []*tx.SignerInfo{{
			PublicKey: pubKeyAny,
			ModeInfo: &tx.ModeInfo{
				Sum: &tx.ModeInfo_Single_{
					Single: &tx.ModeInfo_Single{
						Mode: signing.SignMode_SIGN_MODE_DIRECT,
					},
				},
			},
			Sequence: sequence,
		}},
		Fee: &tx.Fee{
			Amount:   feeCoins,
			GasLimit: gasLimit,
		},
	}
}

// Sign produces broadcastable TxRaw bytes for unsigned.
func (b *TxBuilder) Sign(unsigned *UnsignedTx, privKey cryptotypes.PrivKey) ([]byte, error) {
	if unsigned == nil {
		return nil, fmt.Errorf("no transaction to sign")
	}
	if !bytes.Equal(privKey.PubKey().Bytes(), unsigned.PubKey) {
		return nil, NewChainError(ErrTransactionFailed, "signing key does not match transaction signer", nil)
	}

	signature, err := privKey.Sign(unsigned.SignBytes)
	if err != nil {
		return nil, NewChainError(ErrTransactionFailed, "failed to sign transaction", err)
	}

	raw := &tx.TxRaw{
		BodyBytes:     unsigned.BodyBytes,
		AuthInfoBytes: unsigned.AuthInfoBytes,
		Signatures:    [][]byte{signature},
	}

	txBytes, err := raw.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal signed tx: %w", err)
	}
	return txBytes, nil
}
