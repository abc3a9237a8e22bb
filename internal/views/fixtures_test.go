package views

import (
	"context"
	"sync"
	"testing"

	sdkmath "cosmossdk.io/math"
	tea "github.com/charmbracelet/bubbletea"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"rhystmorgan/likeWallet/internal/audit"
	"rhystmorgan/likeWallet/internal/chain"
	"rhystmorgan/likeWallet/internal/chainstore"
	"rhystmorgan/likeWallet/internal/i18n"
	"rhystmorgan/likeWallet/internal/logging"
	"rhystmorgan/likeWallet/internal/models"
	"rhystmorgan/likeWallet/internal/txstore"
)

const (
	nanolike       = int64(1_000_000_000)
	testMnemonic   = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testDelegator  = "like1delegator"
	testValidatorA = "validatorA"
	testValidatorB = "validatorB"
)

type fakeReader struct {
	balance     sdkmath.Int
	delegations []chain.DelegationResponse
	validators  []chain.ValidatorResponse
}

func (f *fakeReader) GetBalance(ctx context.Context, address string) (sdkmath.Int, error) {
	return f.balance, nil
}

func (f *fakeReader) RefreshBalance(ctx context.Context, address string) (sdkmath.Int, error) {
	return f.balance, nil
}

func (f *fakeReader) GetDelegations(ctx context.Context, delegator string) ([]chain.DelegationResponse, error) {
	return f.delegations, nil
}

func (f *fakeReader) GetValidators(ctx context.Context) ([]chain.ValidatorResponse, error) {
	return f.validators, nil
}

type fakeBuilder struct {
	fee sdkmath.Int
	err error
}

func (f *fakeBuilder) BuildStakingTx(ctx context.Context, req chain.StakingTxRequest) (*chain.UnsignedTx, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &chain.UnsignedTx{
		Type:      req.Type,
		Delegator: req.Delegator,
		Validator: req.Validator,
		Amount:    req.Amount,
		PubKey:    req.PubKey,
		GasLimit:  150000,
		Fee:       f.fee,
	}, nil
}

type fakeSigner struct {
	err error
}

func (f fakeSigner) Sign(unsigned *chain.UnsignedTx, privKey cryptotypes.PrivKey) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte{0x0a}, nil
}

type fakeBroadcaster struct {
	result *chain.BroadcastResult
	err    error
}

func (f fakeBroadcaster) Broadcast(ctx context.Context, txBytes []byte) (*chain.BroadcastResult, error) {
	return f.result, f.err
}

type fakeJournal struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (f *fakeJournal) Record(entry audit.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeJournal) Entries() []audit.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]audit.Entry(nil), f.entries...)
}

func likeInt(n int64) sdkmath.Int {
	return sdkmath.NewInt(n).MulRaw(nanolike)
}

// newChainStore returns a refreshed store for a wallet holding 100 LIKE with
// 50 LIKE staked to validatorA.
func newChainStore(t *testing.T, wallet *models.Wallet) *chainstore.Store {
	t.Helper()
	return newChainStoreWith(t, wallet, chainstore.Options{FeeReserve: decimal.NewFromInt(1)})
}

func newChainStoreWith(t *testing.T, wallet *models.Wallet, opts chainstore.Options) *chainstore.Store {
	t.Helper()

	reader := &fakeReader{
		balance: likeInt(100),
		delegations: []chain.DelegationResponse{
			{ValidatorAddress: testValidatorA, Balance: likeInt(50)},
		},
		validators: []chain.ValidatorResponse{
			{OperatorAddress: testValidatorA, Moniker: "Alpha", Tokens: likeInt(10), CommissionRate: "0.05"},
			{OperatorAddress: testValidatorB, Moniker: "Beta", Tokens: likeInt(20), CommissionRate: "0.10"},
		},
	}

	opts.Denom = chain.DenomInfo{Denom: "nanolike", DisplayDenom: "LIKE", FractionDigits: 9}
	store := chainstore.New(reader, opts, logging.Discard())
	store.SetWallet(wallet)
	require.NoError(t, store.Refresh(context.Background(), false))
	return store
}

func watchOnlyWallet() *models.Wallet {
	return &models.Wallet{ID: "w1", Name: "Main", Address: testDelegator, PubKey: []byte{0x02, 0xaa}}
}

func newTxStore(kind txstore.Kind, builder txstore.Builder, keys txstore.KeySource) *txstore.Store {
	return txstore.New(kind, builder, keys, i18n.New("en"), logging.Discard())
}

// runCmd executes cmd and any batched commands, collecting their messages.
// Only use it on commands that neither sleep nor wait on channels.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func findMsg[T tea.Msg](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if typed, ok := msg.(T); ok {
			return typed, true
		}
	}
	var zero T
	return zero, false
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}
